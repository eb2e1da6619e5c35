// services/event_engine.go
package services

import (
	"math/rand"

	"gridiron-match-engine/models"

	"github.com/google/uuid"
)

// TeamSide is one side of a running match: the team row, the enhanced roster
// and the chemistry score sampled when the match was built.
type TeamSide struct {
	Team      models.Team
	Roster    []*models.EnhancedPlayer
	Chemistry float64
}

// Resolution tunables.
const (
	longGainYards = 20

	// Stamina cost of being involved in a play.
	actorStaminaCost   = 1.5
	contactStaminaCost = 1.0

	// Per-percent penalties on success chance.
	staminaPenaltyRate     = 0.15
	intimidationDivisor    = 20.0
	chemistryChanceDivisor = 10.0

	interceptionShare = 0.35 // failed passes that get picked rather than dropped
	dropShare         = 0.40 // incompletions charged to the target as a drop
	fumbleShare       = 0.20 // defensive stops that jar the ball loose
	knockdownMargin   = 20.0 // tackling-over-strength gap that counts a knockdown
)

// EventEngine produces exactly one structured play per invocation, mutating
// the match state's statistic lines in place. It holds no state of its own:
// randomness comes from the caller's generator so runs are reproducible.
type EventEngine struct {
	Describe Describer
}

func NewEventEngine(describer Describer) *EventEngine {
	return &EventEngine{Describe: describer}
}

// GenerateEvent runs the full resolution pipeline: pick the acting side by
// effective strength, pick an actor, pick an action by role and tactic,
// roll for success and branch into the outcome. The returned event has
// already been appended to the state's log.
func (e *EventEngine) GenerateEvent(st *models.MatchState, home, away *TeamSide, rng *rand.Rand) models.MatchEvent {
	phase := st.Phase()

	acting, defending := e.pickActingSide(st, home, away, rng)
	if acting == nil || len(acting.Roster) == 0 {
		ev := models.MatchEvent{
			ID:       uuid.NewString(),
			Kind:     models.EventNoAction,
			GameTime: st.Elapsed,
			Half:     st.Half,
			Phase:    phase,
		}
		ev.Description = e.describe(st, ev, home, away, phase)
		st.AppendEvent(ev)
		return ev
	}

	actor := acting.Roster[rng.Intn(len(acting.Roster))]
	action := e.pickAction(actor.Row.Role, acting.Team.TacticalFocus, rng)
	cond := st.Condition(actor.Row.ID)

	ev := models.MatchEvent{
		ID:             uuid.NewString(),
		GameTime:       st.Elapsed,
		Half:           st.Half,
		Phase:          phase,
		ActingPlayerID: actor.Row.ID,
		TeamID:         acting.Team.ID,
	}

	chance := e.successChance(st, acting, defending, actor, cond, action, home)
	success := rng.Float64()*100 < chance

	switch action {
	case models.ActionPass:
		e.resolvePass(st, &ev, acting, defending, actor, success, rng)
	case models.ActionRun:
		e.resolveRun(st, &ev, acting, defending, actor, cond, success, rng)
	case models.ActionKick:
		e.resolveKick(st, &ev, acting, actor, success, rng)
	case models.ActionDefense:
		e.resolveDefense(st, &ev, acting, defending, actor, success, rng)
	}

	drainStamina(cond, actorStaminaCost)

	ev.Description = e.describe(st, ev, home, away, phase)
	st.AppendEvent(ev)
	return ev
}

// pickActingSide weights a coin flip by each side's effective strength. The
// strengths are recomputed every play because stamina drifts every tick.
func (e *EventEngine) pickActingSide(st *models.MatchState, home, away *TeamSide, rng *rand.Rand) (acting, defending *TeamSide) {
	homeStrength := e.teamStrength(st, home, 0)
	awayStrength := e.teamStrength(st, away, home.Team.AtmosphereRating)

	total := homeStrength + awayStrength
	if total <= 0 {
		if len(home.Roster) == 0 && len(away.Roster) == 0 {
			return nil, nil
		}
		if rng.Float64() < 0.5 {
			return home, away
		}
		return away, home
	}

	if rng.Float64()*total < homeStrength {
		return home, away
	}
	return away, home
}

// teamStrength sums each player's attribute composite scaled by their
// current stamina ratio and race bonus, plus their flat modifier deltas.
// Chemistry scales the whole side; the away side is dampened by the home
// stadium's atmosphere.
func (e *EventEngine) teamStrength(st *models.MatchState, side *TeamSide, hostileAtmosphere float64) float64 {
	var strength float64
	for _, p := range side.Roster {
		cond := st.Condition(p.Row.ID)
		base := p.Composite() * (0.5 + 0.5*cond.CurrentStamina/100) * (1 + p.Row.Race.RaceBonus())
		for _, delta := range p.Modifiers {
			base += delta
		}
		strength += base
	}
	strength *= 1 + (side.Chemistry-50)/500
	if hostileAtmosphere > 0 {
		strength *= 1 - hostileAtmosphere/2000
	}
	if strength < 0 {
		return 0
	}
	return strength
}

type actionWeightRow struct {
	pass, run, kick, defense float64
}

func roleWeights(role models.PlayerRole) actionWeightRow {
	switch role {
	case models.RolePasser:
		return actionWeightRow{pass: 55, run: 20, kick: 5, defense: 20}
	case models.RoleRunner:
		return actionWeightRow{pass: 15, run: 55, kick: 5, defense: 25}
	case models.RoleBlocker:
		return actionWeightRow{pass: 5, run: 30, kick: 5, defense: 60}
	case models.RoleDefender:
		return actionWeightRow{pass: 5, run: 15, kick: 5, defense: 75}
	case models.RoleKicker:
		return actionWeightRow{pass: 10, run: 10, kick: 60, defense: 20}
	}
	return actionWeightRow{pass: 25, run: 25, kick: 10, defense: 40}
}

// pickAction walks the role-weight table after the team tactic has scaled
// it, matchpulse-style cumulative roll.
func (e *EventEngine) pickAction(role models.PlayerRole, tactic models.TacticalFocus, rng *rand.Rand) models.ActionKind {
	w := roleWeights(role)

	switch tactic {
	case models.TacticAllOutAttack:
		w.pass *= 1.5
		w.run *= 1.5
		w.defense *= 0.6
	case models.TacticDefensiveWall:
		w.pass *= 0.8
		w.run *= 0.8
		w.defense *= 1.6
	case models.TacticGroundGame:
		w.pass *= 0.7
		w.run *= 1.8
	case models.TacticAerialAssault:
		w.pass *= 1.8
		w.run *= 0.7
	}

	total := w.pass + w.run + w.kick + w.defense
	roll := rng.Float64() * total
	switch {
	case roll < w.pass:
		return models.ActionPass
	case roll < w.pass+w.run:
		return models.ActionRun
	case roll < w.pass+w.run+w.kick:
		return models.ActionKick
	default:
		return models.ActionDefense
	}
}

// successChance is the base rate for the action plus attribute contributions,
// chemistry, stamina fatigue, away-side intimidation and any off-cooldown
// ability bonus, clamped to [5,95] so nothing is ever a certainty.
func (e *EventEngine) successChance(st *models.MatchState, acting, defending *TeamSide, actor *models.EnhancedPlayer, cond *models.PlayerCondition, action models.ActionKind, home *TeamSide) float64 {
	var chance float64
	switch action {
	case models.ActionPass:
		chance = 35 + 0.35*actor.Attr("throwing")
	case models.ActionRun:
		chance = 35 + 0.20*actor.Attr("speed") + 0.15*actor.Attr("agility")
	case models.ActionKick:
		chance = 30 + 0.40*actor.Attr("kicking")
	case models.ActionDefense:
		chance = 35 + 0.35*actor.Attr("tackling")
	}

	chance += (acting.Chemistry - 50) / chemistryChanceDivisor
	chance -= staminaPenaltyRate * (100 - cond.CurrentStamina)
	if acting != home {
		chance -= home.Team.AtmosphereRating / intimidationDivisor
	}

	for _, ability := range actor.Abilities {
		if ability.Action != action {
			continue
		}
		if cond.Cooldowns[ability.Key] > 0 {
			continue
		}
		chance += ability.Bonus
		if cond.Cooldowns == nil {
			cond.Cooldowns = make(map[string]int)
		}
		cond.Cooldowns[ability.Key] = ability.CooldownTicks
	}

	if chance < 5 {
		return 5
	}
	if chance > 95 {
		return 95
	}
	return chance
}

func (e *EventEngine) resolvePass(st *models.MatchState, ev *models.MatchEvent, acting, defending *TeamSide, actor *models.EnhancedPlayer, success bool, rng *rand.Rand) {
	line := st.PlayerLine(actor.Row.ID)
	line.Attempts++

	target := pickTeammate(acting.Roster, actor, rng)

	if success {
		yards := 3 + rng.Intn(23)
		ev.Kind = models.EventPass
		ev.Yards = yards
		line.Completions++
		line.PassingYards += yards
		st.TeamLine(acting.Team.ID).PassingYards += yards
		if target != nil {
			ev.TargetPlayerID = target.Row.ID
			st.PlayerLine(target.Row.ID).Catches++
		}
		e.maybeScore(st, ev, acting, actor, rng)
		return
	}

	if len(defending.Roster) > 0 && rng.Float64() < interceptionShare {
		defender := defending.Roster[rng.Intn(len(defending.Roster))]
		ev.Kind = models.EventInterception
		ev.DefenderPlayerID = defender.Row.ID
		line.TurnoversCommitted++
		st.PlayerLine(defender.Row.ID).TurnoversForced++
		st.TeamLine(acting.Team.ID).Turnovers++
		flipPossession(st, defending.Team.ID)
		return
	}

	ev.Kind = models.EventPassIncomplete
	if target != nil && rng.Float64() < dropShare {
		ev.TargetPlayerID = target.Row.ID
		st.PlayerLine(target.Row.ID).Drops++
	}
}

func (e *EventEngine) resolveRun(st *models.MatchState, ev *models.MatchEvent, acting, defending *TeamSide, actor *models.EnhancedPlayer, cond *models.PlayerCondition, success bool, rng *rand.Rand) {
	line := st.PlayerLine(actor.Row.ID)

	if success {
		yards := 2 + rng.Intn(14)
		ev.Kind = models.EventRun
		ev.Yards = yards
		line.RushingYards += yards
		st.TeamLine(acting.Team.ID).RushingYards += yards
		e.maybeScore(st, ev, acting, actor, rng)
		return
	}

	if len(defending.Roster) == 0 {
		ev.Kind = models.EventRun
		return
	}

	defender := defending.Roster[rng.Intn(len(defending.Roster))]
	defenderLine := st.PlayerLine(defender.Row.ID)
	ev.Kind = models.EventTackle
	ev.DefenderPlayerID = defender.Row.ID
	defenderLine.Tackles++
	if defender.Attr("tackling")-actor.Attr("strength") > knockdownMargin {
		defenderLine.Knockdowns++
	}
	drainStamina(cond, contactStaminaCost)

	e.rollCarrierInjury(st, ev, defender, actor, cond, rng)
}

func (e *EventEngine) resolveKick(st *models.MatchState, ev *models.MatchEvent, acting *TeamSide, actor *models.EnhancedPlayer, success bool, rng *rand.Rand) {
	line := st.PlayerLine(actor.Row.ID)

	if !success {
		ev.Kind = models.EventKickMiss
		return
	}

	yards := 15 + rng.Intn(31)
	ev.Kind = models.EventKick
	ev.Yards = yards
	line.KickingYards += yards
	st.TeamLine(acting.Team.ID).KickingYards += yards
	e.maybeScore(st, ev, acting, actor, rng)
}

func (e *EventEngine) resolveDefense(st *models.MatchState, ev *models.MatchEvent, acting, defending *TeamSide, actor *models.EnhancedPlayer, success bool, rng *rand.Rand) {
	if !success {
		ev.Kind = models.EventDefensiveMiss
		return
	}

	line := st.PlayerLine(actor.Row.ID)
	ev.Kind = models.EventDefensiveStop
	line.Tackles++

	if len(defending.Roster) == 0 {
		return
	}

	carrier := defending.Roster[rng.Intn(len(defending.Roster))]
	carrierCond := st.Condition(carrier.Row.ID)
	ev.TargetPlayerID = carrier.Row.ID
	drainStamina(carrierCond, contactStaminaCost)

	if rng.Float64() < fumbleShare {
		ev.Kind = models.EventFumble
		line.TurnoversForced++
		st.PlayerLine(carrier.Row.ID).TurnoversCommitted++
		st.TeamLine(defending.Team.ID).Turnovers++
		flipPossession(st, acting.Team.ID)
	}

	e.rollCarrierInjury(st, ev, actor, carrier, carrierCond, rng)
}

// maybeScore runs the scoring roll after a successful gain. Scoring odds
// scale with the game phase and spike on long gains; a score is worth one
// point so team totals always equal the count of score events.
func (e *EventEngine) maybeScore(st *models.MatchState, ev *models.MatchEvent, acting *TeamSide, actor *models.EnhancedPlayer, rng *rand.Rand) {
	chance := phaseScoreChance(ev.Phase)
	if ev.Yards >= longGainYards {
		chance += 10
	}
	if rng.Float64()*100 >= chance {
		return
	}

	ev.Kind = models.EventScore
	st.PlayerLine(actor.Row.ID).Scores++
	if acting.Team.ID == st.HomeTeamID {
		st.HomeScore++
	} else {
		st.AwayScore++
	}
	flipPossession(st, st.OpponentOf(acting.Team.ID))
}

func phaseScoreChance(phase models.GamePhase) float64 {
	switch phase {
	case models.PhaseEarly:
		return 4
	case models.PhaseMiddle:
		return 6
	case models.PhaseLate:
		return 8
	case models.PhaseClutch:
		return 15
	}
	return 6
}

// rollCarrierInjury checks whether a hit injured the carrier. On a hit the
// event's kind becomes injury (the tackle stats are already credited) and
// the carrier plays on impaired via their condition's temp-injury flag.
func (e *EventEngine) rollCarrierInjury(st *models.MatchState, ev *models.MatchEvent, tackler, carrier *models.EnhancedPlayer, carrierCond *models.PlayerCondition, rng *rand.Rand) {
	chance := InjuryChance(tackler.Attr("tackling"), carrier.Attr("agility"), carrierCond.CurrentStamina, st.Category)
	if !RollInjury(rng, chance) {
		return
	}

	severity := RollInjurySeverity(rng)
	if injurySeverityRank(severity) > injurySeverityRank(carrierCond.TempInjury) {
		carrierCond.TempInjury = severity
	}
	ev.Kind = models.EventInjury
	ev.Severity = severity
	if ev.TargetPlayerID == "" {
		ev.TargetPlayerID = carrier.Row.ID
	}
}

func injurySeverityRank(s models.InjuryStatus) int {
	switch s {
	case models.InjuryMinor:
		return 1
	case models.InjuryModerate:
		return 2
	case models.InjurySevere:
		return 3
	}
	return 0
}

func flipPossession(st *models.MatchState, toTeamID string) {
	st.PossessionTeamID = toTeamID
	st.PossessionSince = st.Elapsed
}

func drainStamina(cond *models.PlayerCondition, amount float64) {
	cond.CurrentStamina -= amount
	if cond.CurrentStamina < 0 {
		cond.CurrentStamina = 0
	}
}

// pickTeammate draws a uniform receiver other than the passer; nil when the
// roster has nobody else.
func pickTeammate(roster []*models.EnhancedPlayer, actor *models.EnhancedPlayer, rng *rand.Rand) *models.EnhancedPlayer {
	if len(roster) < 2 {
		return nil
	}
	for {
		candidate := roster[rng.Intn(len(roster))]
		if candidate.Row.ID != actor.Row.ID {
			return candidate
		}
	}
}

func (e *EventEngine) describe(st *models.MatchState, ev models.MatchEvent, home, away *TeamSide, phase models.GamePhase) string {
	if e.Describe == nil {
		return ""
	}
	actorName := playerName(ev.ActingPlayerID, home, away)
	defenderName := playerName(ev.DefenderPlayerID, home, away)
	return e.Describe.Describe(ev, actorName, defenderName, phase, home.Team.AtmosphereRating)
}

func playerName(id string, home, away *TeamSide) string {
	if id == "" {
		return ""
	}
	for _, side := range []*TeamSide{home, away} {
		for _, p := range side.Roster {
			if p.Row.ID == id {
				return p.Row.Name
			}
		}
	}
	return id
}
