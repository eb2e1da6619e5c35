// services/match_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"gridiron-match-engine/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Exhibition payouts, tiered by outcome. Exhibitions are otherwise
// risk-free: no career stats, no stamina loss, no persisted injuries.
const (
	ExhibitionWinCredits  int64 = 500
	ExhibitionTieCredits  int64 = 200
	ExhibitionLossCredits int64 = 100

	exhibitionWinChemistry = 1.0
)

// MatchService is the registry of running matches and the only component
// that starts, stops or settles them. The runners map is the one piece of
// shared state across matches; everything inside a match belongs to its
// runner goroutine.
type MatchService struct {
	Store   MatchStore
	Cfg     SimConfig
	Engine  *EventEngine
	Effects EffectProviders

	mu      sync.RWMutex
	runners map[string]*matchRunner
}

func NewMatchService(store MatchStore, cfg SimConfig, engine *EventEngine, effects EffectProviders) *MatchService {
	return &MatchService{
		Store:   store,
		Cfg:     cfg,
		Engine:  engine,
		Effects: effects,
		runners: make(map[string]*matchRunner),
	}
}

// Start loads the match and both rosters, builds the initial state, writes
// the first snapshot and begins ticking. A duplicate Start is rejected with
// ErrAlreadyRunning; the id is claimed before any I/O so two racing starts
// cannot both win.
func (s *MatchService) Start(matchID string, isExhibition bool) (*models.MatchState, error) {
	if err := s.claim(matchID); err != nil {
		return nil, err
	}

	runner, err := s.prepare(matchID, isExhibition)
	if err != nil {
		s.release(matchID)
		return nil, err
	}

	s.register(matchID, runner)
	go runner.loop()

	log.Printf("✅ [SIM] match %s started (%s, %s vs %s)", matchID,
		runner.state.Category, runner.home.Team.Name, runner.away.Team.Name)
	return runner.View(), nil
}

func (s *MatchService) prepare(matchID string, isExhibition bool) (*matchRunner, error) {
	match, err := s.Store.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.StatusCompleted || match.Status == models.StatusAborted {
		return nil, ErrMatchCompleted
	}

	category := match.Category
	if isExhibition {
		category = models.CategoryExhibition
	}

	home, err := s.buildSide(match.HomeTeamID)
	if err != nil {
		return nil, err
	}
	away, err := s.buildSide(match.AwayTeamID)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now()

	st := &models.MatchState{
		MatchID:    matchID,
		HomeTeamID: match.HomeTeamID,
		AwayTeamID: match.AwayTeamID,
		Category:   category,
		MaxSeconds: category.MaxGameSeconds(),
		Half:       1,
		Status:     models.StatusLive,
		LastUpdate: now,
	}

	// Opening possession is a coin flip; the other side gets the ball after
	// the half break.
	if rng.Float64() < 0.5 {
		st.PossessionTeamID = st.HomeTeamID
	} else {
		st.PossessionTeamID = st.AwayTeamID
	}
	st.OpeningPossession = st.PossessionTeamID

	for _, side := range []*TeamSide{home, away} {
		for _, p := range side.Roster {
			cond := st.Condition(p.Row.ID)
			if category == models.CategoryExhibition {
				cond.CurrentStamina = 100
			} else {
				cond.CurrentStamina = p.Row.DailyStamina
			}
			p.Cond = cond
		}
	}

	kickoff := models.MatchEvent{
		ID:       uuid.NewString(),
		Kind:     models.EventKickoff,
		GameTime: 0,
		Half:     1,
		Phase:    models.PhaseEarly,
		TeamID:   st.PossessionTeamID,
	}
	kickoff.Description = s.Engine.describe(st, kickoff, home, away, models.PhaseEarly)
	st.AppendEvent(kickoff)

	if err := s.Store.MarkLive(matchID, now); err != nil {
		log.Printf("⚠️  [SIM] failed to mark match %s live: %v", matchID, err)
	}
	s.persistSnapshot(st.Clone())

	return newMatchRunner(s, st, home, away, rng), nil
}

// buildSide loads a team and its roster and folds every modifier source
// into the enhanced players. Effect-provider failures degrade to zero
// deltas — a broken item service must not stop a match from starting.
func (s *MatchService) buildSide(teamID string) (*TeamSide, error) {
	team, err := s.Store.GetTeam(teamID)
	if err != nil {
		return nil, err
	}
	players, err := s.Store.GetPlayersByTeam(teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster for team %s: %w", teamID, err)
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: team %s has no players", ErrRosterNotFound, teamID)
	}

	chemistry := 50.0
	if s.Effects.Chemistry != nil {
		if chem, err := s.Effects.Chemistry.TeamChemistry(teamID); err == nil {
			chemistry = chem
		} else {
			log.Printf("⚠️  [SIM] chemistry unavailable for team %s: %v", teamID, err)
		}
	}

	var staffDeltas map[string]float64
	var staffErr error
	if s.Effects.Staff != nil {
		staffDeltas, staffErr = s.Effects.Staff.TeamStaffDeltas(teamID)
	}

	side := &TeamSide{Team: *team, Chemistry: chemistry}
	for i := range players {
		modifiers := make(map[string]float64)
		mergeDeltas(modifiers, staffDeltas, staffErr, "staff", teamID)
		if s.Effects.Equipment != nil {
			deltas, err := s.Effects.Equipment.PlayerEquipmentDeltas(players[i].ID)
			mergeDeltas(modifiers, deltas, err, "equipment", players[i].ID)
		}
		if s.Effects.Consumables != nil {
			deltas, err := s.Effects.Consumables.PlayerConsumableDeltas(players[i].ID)
			mergeDeltas(modifiers, deltas, err, "consumable", players[i].ID)
		}
		side.Roster = append(side.Roster, &models.EnhancedPlayer{
			Row:       players[i],
			Modifiers: modifiers,
			Abilities: players[i].Abilities,
		})
	}
	return side, nil
}

// Stop asks a running match to settle after its current tick. Unknown ids
// are logged and ignored, which also makes a second Stop a no-op.
func (s *MatchService) Stop(matchID string) {
	r := s.runner(matchID)
	if r == nil {
		log.Printf("⚠️  [SIM] stop requested for unknown match %s — ignoring", matchID)
		return
	}
	r.requestStop()
}

// GetState returns a read-only snapshot of a running match.
func (s *MatchService) GetState(matchID string) (*models.MatchState, bool) {
	r := s.runner(matchID)
	if r == nil {
		return nil, false
	}
	return r.View(), true
}

// Sync returns the in-memory state when the match is registered, and
// otherwise tries to recover it from its durable snapshot. This is the seam
// that hides process restarts from clients.
func (s *MatchService) Sync(matchID string) (*models.MatchState, error) {
	if r := s.runner(matchID); r != nil {
		return r.View(), nil
	}

	row, err := s.Store.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	st, err := StateFromRow(row)
	if err != nil {
		return nil, err
	}

	state, err := s.resume(st)
	if errors.Is(err, ErrAlreadyRunning) {
		// Lost a race with another Sync or with boot recovery; the winner's
		// state is just as good.
		if r := s.runner(matchID); r != nil {
			return r.View(), nil
		}
	}
	return state, err
}

// RecoverAll rehydrates every interrupted match at process start and
// returns how many were picked up. It must run before the HTTP surface is
// registered so recovery claims ids ahead of any racing Start.
func (s *MatchService) RecoverAll() int {
	rows, err := s.Store.FindInterrupted()
	if err != nil {
		log.Printf("❌ [RECOVERY] scan failed: %v", err)
		return 0
	}

	recovered := 0
	for i := range rows {
		st, err := StateFromRow(&rows[i])
		if err != nil {
			log.Printf("⚠️  [RECOVERY] skipping match %s: %v", rows[i].ID, err)
			continue
		}
		if _, err := s.resume(st); err != nil {
			log.Printf("❌ [RECOVERY] failed to resume match %s: %v", st.MatchID, err)
			continue
		}
		recovered++
	}
	log.Printf("[RECOVERY] %d interrupted match(es) recovered", recovered)
	return recovered
}

// resume re-registers a deserialized state. A snapshot already past full
// time is settled immediately instead of ticking again.
func (s *MatchService) resume(st *models.MatchState) (*models.MatchState, error) {
	if err := s.claim(st.MatchID); err != nil {
		return nil, err
	}

	home, err := s.buildSide(st.HomeTeamID)
	if err != nil {
		s.release(st.MatchID)
		return nil, err
	}
	away, err := s.buildSide(st.AwayTeamID)
	if err != nil {
		s.release(st.MatchID)
		return nil, err
	}

	st.Status = models.StatusLive
	st.LastUpdate = time.Now()
	for _, side := range []*TeamSide{home, away} {
		for _, p := range side.Roster {
			p.Cond = st.Condition(p.Row.ID)
		}
	}

	runner := newMatchRunner(s, st, home, away, rand.New(rand.NewSource(time.Now().UnixNano())))
	s.register(st.MatchID, runner)

	if st.Elapsed >= st.MaxSeconds {
		log.Printf("[RECOVERY] match %s snapshot is past full time, settling immediately", st.MatchID)
		runner.settle("recovered past full time")
		return runner.View(), nil
	}

	go runner.loop()
	log.Printf("[RECOVERY] match %s resumed at %ds (%d-%d)", st.MatchID, st.Elapsed, st.HomeScore, st.AwayScore)
	return runner.View(), nil
}

// SweepStale force-settles matches whose ticks stopped arriving. It backs
// up the explicit Stop path: nothing should ever die silently in memory.
func (s *MatchService) SweepStale() {
	s.mu.RLock()
	stale := make([]*matchRunner, 0)
	for _, r := range s.runners {
		if r == nil {
			continue
		}
		if time.Since(r.View().LastUpdate) > s.Cfg.StaleAfter {
			stale = append(stale, r)
		}
	}
	s.mu.RUnlock()

	for _, r := range stale {
		log.Printf("⚠️  [SWEEP] match %s has not ticked since %s — forcing settlement",
			r.state.MatchID, r.View().LastUpdate.Format(time.RFC3339))
		r.requestStop()
	}
}

// LiveCount returns how many matches are currently registered.
func (s *MatchService) LiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.runners {
		if r != nil {
			n++
		}
	}
	return n
}

// persistSnapshot writes a checkpoint. Failures are logged and swallowed:
// the in-memory simulation is authoritative and the next checkpoint retries.
func (s *MatchService) persistSnapshot(st *models.MatchState) {
	blob, err := SnapshotJSON(st)
	if err != nil {
		log.Printf("❌ [SIM] match %s: snapshot serialization failed: %v", st.MatchID, err)
		return
	}
	if err := s.Store.SaveSnapshot(st.MatchID, blob, st.HomeScore, st.AwayScore); err != nil {
		log.Printf("⚠️  [SIM] match %s: checkpoint write failed (will retry next checkpoint): %v", st.MatchID, err)
	}
}

// settle runs the terminal transition for a match: final durable writes,
// aftermath (career fold, stamina, injuries) or exhibition rewards, then
// deregistration. Called exactly once per runner, from its goroutine.
func (s *MatchService) settle(r *matchRunner, reason string) {
	st := r.state
	st.Status = models.StatusCompleted
	now := time.Now()
	log.Printf("[SIM] settling match %s (%s): %s %d — %d %s after %ds",
		st.MatchID, reason, r.home.Team.Name, st.HomeScore, st.AwayScore, r.away.Team.Name, st.Elapsed)

	blob, err := SnapshotJSON(st)
	if err != nil {
		log.Printf("❌ [SIM] match %s: final snapshot serialization failed: %v", st.MatchID, err)
	}
	if err := s.Store.CompleteMatch(st.MatchID, st.HomeScore, st.AwayScore, blob, now); err != nil {
		log.Printf("❌ [SIM] match %s: final write failed, retrying once: %v", st.MatchID, err)
		if err := s.Store.CompleteMatch(st.MatchID, st.HomeScore, st.AwayScore, blob, now); err != nil {
			log.Printf("❌ [SIM] match %s: final write failed again — completed in memory only: %v", st.MatchID, err)
		}
	}

	playerRows, teamRows := buildStatRows(st, r.home, r.away)
	if err := s.Store.SaveMatchStats(playerRows, teamRows); err != nil {
		log.Printf("❌ [SIM] match %s: stat rows write failed: %v", st.MatchID, err)
	}

	if st.Category == models.CategoryExhibition {
		s.awardExhibitionRewards(st, r.home, r.away)
	} else {
		s.applyAftermath(st, r.home)
		s.applyAftermath(st, r.away)
	}

	s.deregister(st.MatchID)
	log.Printf("✅ [SIM] match %s settled", st.MatchID)
}

// applyAftermath folds match stats into career aggregates, depletes daily
// stamina and persists any injury picked up during the match. Never called
// for exhibitions.
func (s *MatchService) applyAftermath(st *models.MatchState, side *TeamSide) {
	coachBonus := CoachBonus(side.Team.CoachingQuality)
	for _, p := range side.Roster {
		row := p.Row
		if line, ok := st.PlayerStats[row.ID]; ok {
			row.CareerAttempts += int64(line.Attempts)
			row.CareerCompletions += int64(line.Completions)
			row.CareerPassingYards += int64(line.PassingYards)
			row.CareerRushingYards += int64(line.RushingYards)
			row.CareerKickingYards += int64(line.KickingYards)
			row.CareerCatches += int64(line.Catches)
			row.CareerDrops += int64(line.Drops)
			row.CareerTackles += int64(line.Tackles)
			row.CareerKnockdowns += int64(line.Knockdowns)
			row.CareerTurnoversForced += int64(line.TurnoversForced)
			row.CareerTurnoversCommitted += int64(line.TurnoversCommitted)
			row.CareerScores += int64(line.Scores)
		}
		row.CareerMatches++

		if cond, ok := st.Conditions[row.ID]; ok {
			row.DailyStamina -= DepletionFor(row.Stamina, cond.MinutesPlayed, st.Category, coachBonus)
			if row.DailyStamina < 0 {
				row.DailyStamina = 0
			}
			if injurySeverityRank(cond.TempInjury) > injurySeverityRank(row.InjuryStatus) {
				row.InjuryStatus = cond.TempInjury
				row.RecoveryPoints = RecoveryPointsFor(cond.TempInjury)
			}
		}

		if err := s.Store.SavePlayer(&row); err != nil {
			log.Printf("❌ [SIM] match %s: aftermath write failed for player %s: %v", st.MatchID, row.ID, err)
		}
	}
}

// awardExhibitionRewards pays the tiered credit reward and bumps the
// winner's chemistry. Exhibition is the only category that pays here.
func (s *MatchService) awardExhibitionRewards(st *models.MatchState, home, away *TeamSide) {
	homeCredits, awayCredits := ExhibitionTieCredits, ExhibitionTieCredits
	winner := ""
	switch {
	case st.HomeScore > st.AwayScore:
		homeCredits, awayCredits = ExhibitionWinCredits, ExhibitionLossCredits
		winner = home.Team.ID
	case st.AwayScore > st.HomeScore:
		homeCredits, awayCredits = ExhibitionLossCredits, ExhibitionWinCredits
		winner = away.Team.ID
	}

	if err := s.Store.AddTeamCredits(home.Team.ID, homeCredits); err != nil {
		log.Printf("❌ [SIM] match %s: reward write failed for team %s: %v", st.MatchID, home.Team.ID, err)
	}
	if err := s.Store.AddTeamCredits(away.Team.ID, awayCredits); err != nil {
		log.Printf("❌ [SIM] match %s: reward write failed for team %s: %v", st.MatchID, away.Team.ID, err)
	}
	if winner != "" {
		if err := s.Store.AddTeamChemistry(winner, exhibitionWinChemistry); err != nil {
			log.Printf("❌ [SIM] match %s: chemistry bump failed for team %s: %v", st.MatchID, winner, err)
		}
	}
}

func buildStatRows(st *models.MatchState, home, away *TeamSide) ([]models.PlayerMatchStats, []models.TeamMatchStats) {
	teamOf := make(map[string]string, len(home.Roster)+len(away.Roster))
	for _, p := range home.Roster {
		teamOf[p.Row.ID] = home.Team.ID
	}
	for _, p := range away.Roster {
		teamOf[p.Row.ID] = away.Team.ID
	}

	var playerRows []models.PlayerMatchStats
	for playerID, line := range st.PlayerStats {
		playerRows = append(playerRows, models.PlayerMatchStats{
			ID:                 uuid.NewString(),
			MatchID:            st.MatchID,
			PlayerID:           playerID,
			TeamID:             teamOf[playerID],
			Attempts:           line.Attempts,
			Completions:        line.Completions,
			PassingYards:       line.PassingYards,
			RushingYards:       line.RushingYards,
			KickingYards:       line.KickingYards,
			Catches:            line.Catches,
			Drops:              line.Drops,
			Tackles:            line.Tackles,
			Knockdowns:         line.Knockdowns,
			TurnoversForced:    line.TurnoversForced,
			TurnoversCommitted: line.TurnoversCommitted,
			Scores:             line.Scores,
		})
	}

	var teamRows []models.TeamMatchStats
	for _, teamID := range []string{st.HomeTeamID, st.AwayTeamID} {
		line := st.TeamLine(teamID)
		score := st.ScoreFor(teamID)
		opponent := st.ScoreFor(st.OpponentOf(teamID))
		result := "tie"
		if score > opponent {
			result = "win"
		} else if score < opponent {
			result = "loss"
		}
		teamRows = append(teamRows, models.TeamMatchStats{
			ID:                uuid.NewString(),
			MatchID:           st.MatchID,
			TeamID:            teamID,
			PossessionSeconds: line.PossessionSeconds,
			PassingYards:      line.PassingYards,
			RushingYards:      line.RushingYards,
			KickingYards:      line.KickingYards,
			Turnovers:         line.Turnovers,
			Score:             score,
			Result:            result,
		})
	}
	return playerRows, teamRows
}

// --- registry plumbing ---

func (s *MatchService) claim(matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runners[matchID]; exists {
		return ErrAlreadyRunning
	}
	s.runners[matchID] = nil // claimed, runner pending
	return nil
}

func (s *MatchService) register(matchID string, r *matchRunner) {
	s.mu.Lock()
	s.runners[matchID] = r
	s.mu.Unlock()
}

func (s *MatchService) release(matchID string) {
	s.mu.Lock()
	if r, ok := s.runners[matchID]; ok && r == nil {
		delete(s.runners, matchID)
	}
	s.mu.Unlock()
}

func (s *MatchService) deregister(matchID string) {
	s.mu.Lock()
	delete(s.runners, matchID)
	s.mu.Unlock()
}

func (s *MatchService) runner(matchID string) *matchRunner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runners[matchID]
}

// --- HTTP endpoints ---

// StartMatch handles POST /matches/:id/start?exhibition=true
func (s *MatchService) StartMatch(c *fiber.Ctx) error {
	matchID := c.Params("id")
	isExhibition := c.Query("exhibition") == "true"

	state, err := s.Start(matchID, isExhibition)
	switch {
	case err == nil:
		return c.Status(fiber.StatusCreated).JSON(state)
	case errors.Is(err, ErrMatchNotFound), errors.Is(err, ErrRosterNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrAlreadyRunning):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "match is already running"})
	case errors.Is(err, ErrMatchCompleted):
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "match is already completed"})
	default:
		log.Printf("❌ [SIM] start %s failed: %v", matchID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to start match"})
	}
}

// StopMatch handles POST /matches/:id/stop
func (s *MatchService) StopMatch(c *fiber.Ctx) error {
	matchID := c.Params("id")
	known := s.runner(matchID) != nil
	s.Stop(matchID)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "stop requested",
		"known":   known,
	})
}

// GetMatchState handles GET /matches/:id/state
func (s *MatchService) GetMatchState(c *fiber.Ctx) error {
	state, ok := s.GetState(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match is not running"})
	}
	return c.JSON(state)
}

// SyncMatch handles POST /matches/:id/sync
func (s *MatchService) SyncMatch(c *fiber.Ctx) error {
	state, err := s.Sync(c.Params("id"))
	switch {
	case err == nil:
		return c.JSON(state)
	case errors.Is(err, ErrMatchNotFound), errors.Is(err, ErrNoSnapshot), errors.Is(err, ErrRosterNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrRecoveryConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("❌ [SIM] sync %s failed: %v", c.Params("id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to sync match"})
	}
}

// ListLiveMatches handles GET /matches/live
func (s *MatchService) ListLiveMatches(c *fiber.Ctx) error {
	s.mu.RLock()
	views := make([]*models.MatchState, 0, len(s.runners))
	for _, r := range s.runners {
		if r != nil {
			views = append(views, r.View())
		}
	}
	s.mu.RUnlock()

	summaries := make([]fiber.Map, 0, len(views))
	for _, v := range views {
		summaries = append(summaries, fiber.Map{
			"match_id":   v.MatchID,
			"category":   v.Category,
			"half":       v.Half,
			"elapsed":    v.Elapsed,
			"home_score": v.HomeScore,
			"away_score": v.AwayScore,
			"status":     v.Status,
		})
	}
	return c.JSON(fiber.Map{"count": len(summaries), "matches": summaries})
}
