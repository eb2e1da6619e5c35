package models

import "time"

// PlayerEquipment grants a flat attribute delta while equipped.
// Attribute names match the Player attribute fields in snake case
// ("throwing", "speed", "agility", "strength", "tackling", "kicking").
type PlayerEquipment struct {
	ID        string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PlayerID  string  `gorm:"index;not null" json:"player_id"`
	Slot      string  `gorm:"type:varchar(24)" json:"slot"` // helmet, boots, gloves...
	Name      string  `json:"name"`
	Attribute string  `gorm:"not null" json:"attribute"`
	Delta     float64 `gorm:"default:0" json:"delta"`

	Timestamps
}

// TeamStaff is a hired staff member whose delta applies to every player on
// the roster (trainers, physios, strategists).
type TeamStaff struct {
	ID        string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TeamID    string  `gorm:"index;not null" json:"team_id"`
	Role      string  `gorm:"type:varchar(24)" json:"role"`
	Name      string  `json:"name"`
	Attribute string  `gorm:"not null" json:"attribute"`
	Delta     float64 `gorm:"default:0" json:"delta"`

	Timestamps
}

// PlayerConsumable is a single-match booster. Expired rows are ignored by
// the effect provider and cleaned up lazily.
type PlayerConsumable struct {
	ID        string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PlayerID  string     `gorm:"index;not null" json:"player_id"`
	Name      string     `json:"name"`
	Attribute string     `gorm:"not null" json:"attribute"`
	Delta     float64    `gorm:"default:0" json:"delta"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	Timestamps
}
