package models

// PlayerRace determines a flat strength bonus in the simulation
// (see RaceBonus). Races are cosmetic everywhere else.
type PlayerRace string

const (
	RaceHuman PlayerRace = "human"
	RaceOrc   PlayerRace = "orc"
	RaceElf   PlayerRace = "elf"
	RaceDwarf PlayerRace = "dwarf"
	RaceTroll PlayerRace = "troll"
)

// RaceBonus returns the race-derived multiplier bonus applied to a player's
// contribution to team strength. Values are deliberately small — race flavor,
// not race destiny.
func (r PlayerRace) RaceBonus() float64 {
	switch r {
	case RaceOrc:
		return 0.06
	case RaceElf:
		return 0.04
	case RaceDwarf:
		return 0.03
	case RaceTroll:
		return 0.08
	default: // human and anything unrecognized
		return 0.0
	}
}

// PlayerRole biases which action category a player attempts on a play.
// Role never filters who can act — a kicker can throw a pass, badly.
type PlayerRole string

const (
	RolePasser   PlayerRole = "passer"
	RoleRunner   PlayerRole = "runner"
	RoleBlocker  PlayerRole = "blocker"
	RoleDefender PlayerRole = "defender"
	RoleKicker   PlayerRole = "kicker"
)

// InjuryStatus is the durable injury state carried between matches.
type InjuryStatus string

const (
	InjuryHealthy  InjuryStatus = "healthy"
	InjuryMinor    InjuryStatus = "minor"
	InjuryModerate InjuryStatus = "moderate"
	InjurySevere   InjuryStatus = "severe"
)

// Player is a roster member. Attributes are 1–100. DailyStamina is the
// persisted day-to-day condition; it is distinct from the in-match stamina
// tracked by the simulation (see PlayerCondition).
type Player struct {
	ID     string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TeamID string     `gorm:"index;not null" json:"team_id"`
	Name   string     `gorm:"not null" json:"name"`
	Race   PlayerRace `gorm:"type:varchar(16);default:'human'" json:"race"`
	Role   PlayerRole `gorm:"type:varchar(16);default:'runner'" json:"role"`

	// Action attributes (1–100)
	Throwing int `gorm:"default:50" json:"throwing"`
	Speed    int `gorm:"default:50" json:"speed"`
	Agility  int `gorm:"default:50" json:"agility"`
	Strength int `gorm:"default:50" json:"strength"`
	Tackling int `gorm:"default:50" json:"tackling"`
	Kicking  int `gorm:"default:50" json:"kicking"`

	// Stamina is the attribute governing depletion/recovery rates.
	// DailyStamina is the current condition (0–100) that non-exhibition
	// matches start from and deplete at settlement.
	Stamina      int     `gorm:"default:50" json:"stamina"`
	DailyStamina float64 `gorm:"default:100" json:"daily_stamina"`

	InjuryStatus   InjuryStatus `gorm:"type:varchar(16);default:'healthy'" json:"injury_status"`
	RecoveryPoints int          `gorm:"default:0" json:"recovery_points"`

	// Lifetime aggregates, folded in at settlement (never for exhibitions).
	CareerMatches            int64 `gorm:"default:0" json:"career_matches"`
	CareerAttempts           int64 `gorm:"default:0" json:"career_attempts"`
	CareerCompletions        int64 `gorm:"default:0" json:"career_completions"`
	CareerPassingYards       int64 `gorm:"default:0" json:"career_passing_yards"`
	CareerRushingYards       int64 `gorm:"default:0" json:"career_rushing_yards"`
	CareerKickingYards       int64 `gorm:"default:0" json:"career_kicking_yards"`
	CareerCatches            int64 `gorm:"default:0" json:"career_catches"`
	CareerDrops              int64 `gorm:"default:0" json:"career_drops"`
	CareerTackles            int64 `gorm:"default:0" json:"career_tackles"`
	CareerKnockdowns         int64 `gorm:"default:0" json:"career_knockdowns"`
	CareerTurnoversForced    int64 `gorm:"default:0" json:"career_turnovers_forced"`
	CareerTurnoversCommitted int64 `gorm:"default:0" json:"career_turnovers_committed"`
	CareerScores             int64 `gorm:"default:0" json:"career_scores"`

	Abilities []PlayerAbility `json:"abilities,omitempty" gorm:"foreignKey:PlayerID"`

	Timestamps
}

// PlayerAbility is an unlocked special move. When the player attempts the
// matching action and the ability is off cooldown, Bonus is added flat to
// the success probability and the cooldown restarts.
type PlayerAbility struct {
	ID       string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PlayerID string     `gorm:"index;not null" json:"player_id"`
	Key      string     `gorm:"not null" json:"key"` // e.g. "cannon_arm", "juke_master"
	Name     string     `json:"name"`
	Action   ActionKind `gorm:"type:varchar(12);not null" json:"action"`

	// Bonus is a flat success-percent addition (e.g. 10 = +10%).
	Bonus float64 `gorm:"default:0" json:"bonus"`

	// CooldownTicks is how many simulation ticks must pass between uses.
	CooldownTicks int `gorm:"default:10" json:"cooldown_ticks"`
}
