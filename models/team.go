package models

import (
	"time"

	"gorm.io/gorm"
)

// TacticalFocus is the coach-selected game plan. It biases which action a
// player attempts on any given play (see the event engine's weight tables).
type TacticalFocus string

const (
	TacticBalanced      TacticalFocus = "balanced"
	TacticAllOutAttack  TacticalFocus = "all_out_attack"
	TacticDefensiveWall TacticalFocus = "defensive_wall"
	TacticGroundGame    TacticalFocus = "ground_game"
	TacticAerialAssault TacticalFocus = "aerial_assault"
)

// Team is a club roster owner. Chemistry (camaraderie) and coaching quality
// feed directly into simulation probabilities; credits hold reward payouts.
type Team struct {
	ID   string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name string `gorm:"not null;index" json:"name"`
	City string `json:"city"`

	// Chemistry is the 0–100 cohesion score. It linearly biases several
	// success probabilities and is incremented by exhibition wins.
	Chemistry float64 `gorm:"default:50" json:"chemistry"`

	TacticalFocus TacticalFocus `gorm:"type:varchar(24);default:'balanced'" json:"tactical_focus"`

	// AtmosphereRating rates the home stadium crowd (0–100). The visiting
	// side's effective strength and success rolls are dampened by it.
	AtmosphereRating float64 `gorm:"default:50" json:"atmosphere_rating"`

	// CoachingQuality (0–100) derives the coach bonus used by the stamina
	// model (capped at 15%).
	CoachingQuality float64 `gorm:"default:0" json:"coaching_quality"`

	Credits int64 `gorm:"default:0" json:"credits"`

	Players []Player `json:"players,omitempty" gorm:"foreignKey:TeamID"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
