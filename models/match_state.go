package models

import "time"

// ActionKind is the play category a player attempts. Roles and tactics bias
// the pick; attributes drive the resolution.
type ActionKind string

const (
	ActionPass    ActionKind = "pass"
	ActionRun     ActionKind = "run"
	ActionKick    ActionKind = "kick"
	ActionDefense ActionKind = "defense"
)

// EventKind is the closed set of play outcomes. Adding a kind means updating
// the aggregation switch in the event engine — the compiler and tests keep
// the set honest.
type EventKind string

const (
	EventKickoff        EventKind = "kickoff"
	EventPass           EventKind = "pass"
	EventPassIncomplete EventKind = "pass_incomplete"
	EventInterception   EventKind = "interception"
	EventRun            EventKind = "run"
	EventTackle         EventKind = "tackle"
	EventKick           EventKind = "kick"
	EventKickMiss       EventKind = "kick_miss"
	EventDefensiveStop  EventKind = "defensive_stop"
	EventDefensiveMiss  EventKind = "defensive_miss"
	EventFumble         EventKind = "fumble"
	EventScore          EventKind = "score"
	EventInjury         EventKind = "injury"
	EventHalfBreak      EventKind = "half_break"
	EventNoAction       EventKind = "no_action"
)

// GamePhase classifies elapsed time within a half; the scoring roll scales
// with it (clutch plays land more often).
type GamePhase string

const (
	PhaseEarly  GamePhase = "early"
	PhaseMiddle GamePhase = "middle"
	PhaseLate   GamePhase = "late"
	PhaseClutch GamePhase = "clutch"
)

// MatchEvent is one structured play outcome in the append-only log.
type MatchEvent struct {
	ID          string    `json:"id"`
	Kind        EventKind `json:"kind"`
	GameTime    int       `json:"game_time"` // game-seconds from kickoff
	Half        int       `json:"half"`
	Phase       GamePhase `json:"phase"`
	Description string    `json:"description"`

	ActingPlayerID   string `json:"acting_player_id,omitempty"`
	TargetPlayerID   string `json:"target_player_id,omitempty"`
	DefenderPlayerID string `json:"defender_player_id,omitempty"`
	TeamID           string `json:"team_id,omitempty"`

	Yards    int          `json:"yards,omitempty"`
	Severity InjuryStatus `json:"severity,omitempty"` // injury events only
}

// PlayerStatLine accumulates one player's in-match statistics.
type PlayerStatLine struct {
	Attempts           int `json:"attempts"`
	Completions        int `json:"completions"`
	PassingYards       int `json:"passing_yards"`
	RushingYards       int `json:"rushing_yards"`
	KickingYards       int `json:"kicking_yards"`
	Catches            int `json:"catches"`
	Drops              int `json:"drops"`
	Tackles            int `json:"tackles"`
	Knockdowns         int `json:"knockdowns"`
	TurnoversForced    int `json:"turnovers_forced"`
	TurnoversCommitted int `json:"turnovers_committed"`
	Scores             int `json:"scores"`
}

// TeamStatLine accumulates one team's in-match aggregates.
type TeamStatLine struct {
	PossessionSeconds int `json:"possession_seconds"`
	PassingYards      int `json:"passing_yards"`
	RushingYards      int `json:"rushing_yards"`
	KickingYards      int `json:"kicking_yards"`
	Turnovers         int `json:"turnovers"`
}

// PlayerCondition is the mutable in-match condition of one roster player.
// It is the only per-player simulation state that survives a crash — the
// rest of EnhancedPlayer is rebuilt from the roster rows on recovery.
type PlayerCondition struct {
	CurrentStamina float64        `json:"current_stamina"` // 0–100, in-match only
	Cooldowns      map[string]int `json:"cooldowns,omitempty"`
	MinutesPlayed  float64        `json:"minutes_played"`
	TempInjury     InjuryStatus   `json:"temp_injury,omitempty"` // set while injured this match
}

// MatchState is the authoritative in-memory state of one running match.
// It is owned exclusively by that match's runner goroutine; everyone else
// sees deep copies.
type MatchState struct {
	MatchID    string        `json:"match_id"`
	HomeTeamID string        `json:"home_team_id"`
	AwayTeamID string        `json:"away_team_id"`
	Category   MatchCategory `json:"category"`

	Elapsed    int `json:"elapsed"` // game-seconds
	MaxSeconds int `json:"max_seconds"`
	Half       int `json:"half"` // 1 or 2

	HomeScore int         `json:"home_score"`
	AwayScore int         `json:"away_score"`
	Status    MatchStatus `json:"status"`

	PossessionTeamID  string `json:"possession_team_id"`
	PossessionSince   int    `json:"possession_since"` // game-time the hold began
	OpeningPossession string `json:"opening_possession"`

	Events []MatchEvent `json:"events"`

	PlayerStats map[string]*PlayerStatLine `json:"player_stats"`
	TeamStats   map[string]*TeamStatLine   `json:"team_stats"`

	// Conditions is keyed by player id and serialized with the snapshot so
	// resumed matches keep in-match stamina, cooldowns and injury flags.
	Conditions map[string]*PlayerCondition `json:"conditions"`

	// LastUpdate is wall-clock time of the latest tick; the stale-match
	// sweep settles matches whose ticks stopped arriving.
	LastUpdate time.Time `json:"last_update"`
}

// Phase classifies the current clock position per the early/middle/late/
// clutch split. Clutch exists only in the final 10% of the second half.
func (s *MatchState) Phase() GamePhase {
	halfLen := s.MaxSeconds / 2
	if halfLen <= 0 {
		return PhaseEarly
	}
	inHalf := s.Elapsed - (s.Half-1)*halfLen
	frac := float64(inHalf) / float64(halfLen)

	if frac < 0.30 {
		return PhaseEarly
	}
	if s.Half == 1 {
		if frac < 0.80 {
			return PhaseMiddle
		}
		return PhaseLate
	}
	if frac < 0.70 {
		return PhaseMiddle
	}
	if frac < 0.90 {
		return PhaseLate
	}
	return PhaseClutch
}

// PlayerLine returns the stat line for a player, creating it on first use.
func (s *MatchState) PlayerLine(playerID string) *PlayerStatLine {
	if s.PlayerStats == nil {
		s.PlayerStats = make(map[string]*PlayerStatLine)
	}
	line, ok := s.PlayerStats[playerID]
	if !ok {
		line = &PlayerStatLine{}
		s.PlayerStats[playerID] = line
	}
	return line
}

// TeamLine returns the aggregate line for a team, creating it on first use.
func (s *MatchState) TeamLine(teamID string) *TeamStatLine {
	if s.TeamStats == nil {
		s.TeamStats = make(map[string]*TeamStatLine)
	}
	line, ok := s.TeamStats[teamID]
	if !ok {
		line = &TeamStatLine{}
		s.TeamStats[teamID] = line
	}
	return line
}

// Condition returns the in-match condition for a player, creating a fresh
// full-stamina one on first use.
func (s *MatchState) Condition(playerID string) *PlayerCondition {
	if s.Conditions == nil {
		s.Conditions = make(map[string]*PlayerCondition)
	}
	c, ok := s.Conditions[playerID]
	if !ok {
		c = &PlayerCondition{CurrentStamina: 100, Cooldowns: make(map[string]int)}
		s.Conditions[playerID] = c
	}
	return c
}

// AppendEvent adds an event to the log, clamping its time so the log stays
// monotonically non-decreasing even if a caller hands in a stale clock.
func (s *MatchState) AppendEvent(ev MatchEvent) {
	if n := len(s.Events); n > 0 && ev.GameTime < s.Events[n-1].GameTime {
		ev.GameTime = s.Events[n-1].GameTime
	}
	s.Events = append(s.Events, ev)
}

// ScoreFor returns the score of the given team id (0 for unknown ids).
func (s *MatchState) ScoreFor(teamID string) int {
	switch teamID {
	case s.HomeTeamID:
		return s.HomeScore
	case s.AwayTeamID:
		return s.AwayScore
	}
	return 0
}

// OpponentOf returns the other side's team id.
func (s *MatchState) OpponentOf(teamID string) string {
	if teamID == s.HomeTeamID {
		return s.AwayTeamID
	}
	return s.HomeTeamID
}

// Clone returns a deep copy safe to hand outside the runner goroutine.
func (s *MatchState) Clone() *MatchState {
	cp := *s

	cp.Events = make([]MatchEvent, len(s.Events))
	copy(cp.Events, s.Events)

	cp.PlayerStats = make(map[string]*PlayerStatLine, len(s.PlayerStats))
	for id, line := range s.PlayerStats {
		l := *line
		cp.PlayerStats[id] = &l
	}

	cp.TeamStats = make(map[string]*TeamStatLine, len(s.TeamStats))
	for id, line := range s.TeamStats {
		l := *line
		cp.TeamStats[id] = &l
	}

	cp.Conditions = make(map[string]*PlayerCondition, len(s.Conditions))
	for id, cond := range s.Conditions {
		c := *cond
		c.Cooldowns = make(map[string]int, len(cond.Cooldowns))
		for k, v := range cond.Cooldowns {
			c.Cooldowns[k] = v
		}
		cp.Conditions[id] = &c
	}

	return &cp
}

// EnhancedPlayer is the ephemeral per-match view of a roster player: the
// durable row plus folded-in modifier deltas, live condition and abilities.
// Built when a match starts (or resumes), discarded at settlement.
type EnhancedPlayer struct {
	Row  Player
	Cond *PlayerCondition // owned by the MatchState conditions map

	// Modifiers maps attribute name → summed delta from chemistry, tactic,
	// equipment, staff, consumables and lingering injury.
	Modifiers map[string]float64

	Abilities []PlayerAbility
}

// Attr returns the modified value of a named attribute, floored at 1.
func (p *EnhancedPlayer) Attr(name string) float64 {
	var base int
	switch name {
	case "throwing":
		base = p.Row.Throwing
	case "speed":
		base = p.Row.Speed
	case "agility":
		base = p.Row.Agility
	case "strength":
		base = p.Row.Strength
	case "tackling":
		base = p.Row.Tackling
	case "kicking":
		base = p.Row.Kicking
	default:
		return 1
	}
	v := float64(base) + p.Modifiers[name]
	if p.Cond != nil && p.Cond.TempInjury != "" && p.Cond.TempInjury != InjuryHealthy {
		v -= injuryAttrPenalty(p.Cond.TempInjury)
	}
	if v < 1 {
		v = 1
	}
	return v
}

// Composite is the mean of the six action attributes — the base of a
// player's contribution to team strength.
func (p *EnhancedPlayer) Composite() float64 {
	sum := p.Attr("throwing") + p.Attr("speed") + p.Attr("agility") +
		p.Attr("strength") + p.Attr("tackling") + p.Attr("kicking")
	return sum / 6
}

func injuryAttrPenalty(sev InjuryStatus) float64 {
	switch sev {
	case InjuryMinor:
		return 5
	case InjuryModerate:
		return 12
	case InjurySevere:
		return 25
	}
	return 0
}
