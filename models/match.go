package models

import "time"

// MatchCategory determines duration, stamina handling and rewards.
type MatchCategory string

const (
	// CategoryExhibition matches are risk-free: no stamina depletion, no
	// persisted injuries, no lifetime stats — but they do pay credits.
	CategoryExhibition MatchCategory = "exhibition"
	CategoryLeague     MatchCategory = "league"
	CategoryTournament MatchCategory = "tournament"
)

// MaxGameSeconds returns the category's total match duration in game-seconds.
func (c MatchCategory) MaxGameSeconds() int {
	switch c {
	case CategoryLeague:
		return 2880 // 48 game-minutes
	case CategoryTournament:
		return 3600 // 60 game-minutes
	default:
		return 1200 // exhibition: 20 game-minutes
	}
}

// MatchStatus is shared by the durable match row and the in-memory
// simulation state. `completed` is terminal.
type MatchStatus string

const (
	StatusScheduled MatchStatus = "scheduled"
	StatusLive      MatchStatus = "live"
	StatusPaused    MatchStatus = "paused"
	StatusCompleted MatchStatus = "completed"
	StatusAborted   MatchStatus = "aborted"
)

// Match is the durable match record. SimulationLog carries the latest JSON
// snapshot while the match is live and the final state once completed —
// it is what crash recovery rehydrates from.
type Match struct {
	ID         string        `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	HomeTeamID string        `gorm:"index;not null" json:"home_team_id"`
	AwayTeamID string        `gorm:"index;not null" json:"away_team_id"`
	Category   MatchCategory `gorm:"type:varchar(16);default:'league'" json:"category"`
	Status     MatchStatus   `gorm:"type:varchar(16);default:'scheduled';index" json:"status"`

	HomeScore int `gorm:"default:0" json:"home_score"`
	AwayScore int `gorm:"default:0" json:"away_score"`

	SimulationLog string `gorm:"type:text" json:"-"`
	ReplayURL     string `json:"replay_url,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	HomeTeam Team `json:"home_team,omitempty" gorm:"foreignKey:HomeTeamID"`
	AwayTeam Team `json:"away_team,omitempty" gorm:"foreignKey:AwayTeamID"`

	Timestamps
}

// PlayerMatchStats is the per-player final statistics row written once at
// settlement. One row per (match, player).
type PlayerMatchStats struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MatchID  string `gorm:"index;not null" json:"match_id"`
	PlayerID string `gorm:"index;not null" json:"player_id"`
	TeamID   string `gorm:"index;not null" json:"team_id"`

	Attempts           int `gorm:"default:0" json:"attempts"`
	Completions        int `gorm:"default:0" json:"completions"`
	PassingYards       int `gorm:"default:0" json:"passing_yards"`
	RushingYards       int `gorm:"default:0" json:"rushing_yards"`
	KickingYards       int `gorm:"default:0" json:"kicking_yards"`
	Catches            int `gorm:"default:0" json:"catches"`
	Drops              int `gorm:"default:0" json:"drops"`
	Tackles            int `gorm:"default:0" json:"tackles"`
	Knockdowns         int `gorm:"default:0" json:"knockdowns"`
	TurnoversForced    int `gorm:"default:0" json:"turnovers_forced"`
	TurnoversCommitted int `gorm:"default:0" json:"turnovers_committed"`
	Scores             int `gorm:"default:0" json:"scores"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TeamMatchStats is the per-team final statistics row written at settlement.
type TeamMatchStats struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MatchID string `gorm:"index;not null" json:"match_id"`
	TeamID  string `gorm:"index;not null" json:"team_id"`

	PossessionSeconds int    `gorm:"default:0" json:"possession_seconds"`
	PassingYards      int    `gorm:"default:0" json:"passing_yards"`
	RushingYards      int    `gorm:"default:0" json:"rushing_yards"`
	KickingYards      int    `gorm:"default:0" json:"kicking_yards"`
	Turnovers         int    `gorm:"default:0" json:"turnovers"`
	Score             int    `gorm:"default:0" json:"score"`
	Result            string `gorm:"type:varchar(8)" json:"result"` // win / loss / tie

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
