// services/match_service_test.go
package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"gridiron-match-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory MatchStore so orchestrator tests run without a
// database. Every method locks: the runner goroutine and the test body hit
// it concurrently.
type fakeStore struct {
	mu      sync.Mutex
	matches map[string]*models.Match
	teams   map[string]*models.Team
	rosters map[string][]models.Player

	savedPlayers  map[string]models.Player
	playerStats   []models.PlayerMatchStats
	teamStats     []models.TeamMatchStats
	credits       map[string]int64
	chemistry     map[string]float64
	completeCalls int
	snapshotCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		matches:      make(map[string]*models.Match),
		teams:        make(map[string]*models.Team),
		rosters:      make(map[string][]models.Player),
		savedPlayers: make(map[string]models.Player),
		credits:      make(map[string]int64),
		chemistry:    make(map[string]float64),
	}
}

func (f *fakeStore) GetMatch(matchID string) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[matchID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) GetTeam(teamID string) (*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[teamID]
	if !ok {
		return nil, ErrRosterNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) GetPlayersByTeam(teamID string) ([]models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Player(nil), f.rosters[teamID]...), nil
}

func (f *fakeStore) MarkLive(matchID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.matches[matchID]; ok {
		m.Status = models.StatusLive
		m.StartedAt = &at
	}
	return nil
}

func (f *fakeStore) SaveSnapshot(matchID string, blob []byte, homeScore, awayScore int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshotCalls++
	if m, ok := f.matches[matchID]; ok {
		m.SimulationLog = string(blob)
		m.HomeScore = homeScore
		m.AwayScore = awayScore
	}
	return nil
}

func (f *fakeStore) FindInterrupted() ([]models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []models.Match
	for _, m := range f.matches {
		if m.Status == models.StatusLive && m.SimulationLog != "" {
			rows = append(rows, *m)
		}
	}
	return rows, nil
}

func (f *fakeStore) CompleteMatch(matchID string, homeScore, awayScore int, blob []byte, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalls++
	if m, ok := f.matches[matchID]; ok {
		m.Status = models.StatusCompleted
		m.HomeScore = homeScore
		m.AwayScore = awayScore
		m.SimulationLog = string(blob)
		m.CompletedAt = &at
	}
	return nil
}

func (f *fakeStore) SaveMatchStats(players []models.PlayerMatchStats, teams []models.TeamMatchStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playerStats = append(f.playerStats, players...)
	f.teamStats = append(f.teamStats, teams...)
	return nil
}

func (f *fakeStore) SavePlayer(player *models.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedPlayers[player.ID] = *player
	return nil
}

func (f *fakeStore) AddTeamCredits(teamID string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credits[teamID] += amount
	return nil
}

func (f *fakeStore) AddTeamChemistry(teamID string, delta float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chemistry[teamID] += delta
	return nil
}

func (f *fakeStore) matchRow(matchID string) models.Match {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.matches[matchID]
}

func (f *fakeStore) snapshotOf(t *testing.T, matchID string) *models.MatchState {
	t.Helper()
	row := f.matchRow(matchID)
	require.NotEmpty(t, row.SimulationLog)
	state, err := DecodeSnapshot([]byte(row.SimulationLog))
	require.NoError(t, err)
	return state
}

// seedFixture builds two three-player teams and one scheduled match.
func seedFixture(store *fakeStore, matchID string, category models.MatchCategory) {
	for _, teamID := range []string{"home", "away"} {
		store.teams[teamID] = &models.Team{
			ID: teamID, Name: teamID + " squad",
			Chemistry: 50, AtmosphereRating: 50, TacticalFocus: models.TacticBalanced,
		}
		for i := 0; i < 3; i++ {
			store.rosters[teamID] = append(store.rosters[teamID], models.Player{
				ID:       fmt.Sprintf("%s-%d", teamID, i),
				TeamID:   teamID,
				Name:     fmt.Sprintf("%s player %d", teamID, i),
				Role:     []models.PlayerRole{models.RolePasser, models.RoleRunner, models.RoleDefender}[i],
				Throwing: 60, Speed: 60, Agility: 60, Strength: 60, Tackling: 60, Kicking: 60,
				Stamina: 50, DailyStamina: 90, InjuryStatus: models.InjuryHealthy,
			})
		}
	}
	store.matches[matchID] = &models.Match{
		ID: matchID, HomeTeamID: "home", AwayTeamID: "away",
		Category: category, Status: models.StatusScheduled,
	}
}

func fastCfg() SimConfig {
	return SimConfig{
		TickPeriod:         time.Millisecond,
		GameSecondsPerTick: 9,
		EventChance:        0.70,
		CheckpointSeconds:  30,
		StaleAfter:         time.Hour,
	}
}

func slowCfg() SimConfig {
	cfg := fastCfg()
	cfg.TickPeriod = time.Hour
	return cfg
}

func newTestService(store *fakeStore, cfg SimConfig) *MatchService {
	return NewMatchService(store, cfg, NewEventEngine(PlainDescriber{}), EffectProviders{})
}

func waitForSettlement(t *testing.T, svc *MatchService, store *fakeStore, matchID string) {
	t.Helper()
	require.Eventually(t, func() bool {
		if _, ok := svc.GetState(matchID); ok {
			return false
		}
		return store.matchRow(matchID).Status == models.StatusCompleted
	}, 15*time.Second, 5*time.Millisecond, "match %s never settled", matchID)
}

func TestStartUnknownMatch(t *testing.T) {
	svc := newTestService(newFakeStore(), slowCfg())
	_, err := svc.Start("missing", false)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestStartMissingRoster(t *testing.T) {
	store := newFakeStore()
	seedFixture(store, "m1", models.CategoryLeague)
	store.rosters["away"] = nil
	svc := newTestService(store, slowCfg())

	_, err := svc.Start("m1", false)
	assert.ErrorIs(t, err, ErrRosterNotFound)

	// The failed start must release its claim so a later one can succeed.
	store.rosters["away"] = store.rosters["home"]
	_, err = svc.Start("m1", false)
	assert.NoError(t, err)
}

func TestStartDuplicateIsRejected(t *testing.T) {
	store := newFakeStore()
	seedFixture(store, "m1", models.CategoryLeague)
	svc := newTestService(store, slowCfg())

	_, err := svc.Start("m1", false)
	require.NoError(t, err)

	_, err = svc.Start("m1", false)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestStartCompletedMatch(t *testing.T) {
	store := newFakeStore()
	seedFixture(store, "m1", models.CategoryLeague)
	store.matches["m1"].Status = models.StatusCompleted
	svc := newTestService(store, slowCfg())

	_, err := svc.Start("m1", false)
	assert.ErrorIs(t, err, ErrMatchCompleted)
}

func TestStartInitialState(t *testing.T) {
	store := newFakeStore()
	seedFixture(store, "m1", models.CategoryLeague)
	svc := newTestService(store, slowCfg())

	state, err := svc.Start("m1", true)
	require.NoError(t, err)

	assert.Equal(t, models.CategoryExhibition, state.Category, "exhibition flag overrides the row category")
	assert.Equal(t, models.CategoryExhibition.MaxGameSeconds(), state.MaxSeconds)
	assert.Equal(t, 1, state.Half)
	assert.Equal(t, models.StatusLive, state.Status)
	assert.Contains(t, []string{"home", "away"}, state.PossessionTeamID)
	assert.Equal(t, state.PossessionTeamID, state.OpeningPossession)
	require.Len(t, state.Events, 1)
	assert.Equal(t, models.EventKickoff, state.Events[0].Kind)

	for _, cond := range state.Conditions {
		assert.Equal(t, 100.0, cond.CurrentStamina, "exhibition resets in-match stamina to 100")
	}

	assert.Equal(t, models.StatusLive, store.matchRow("m1").Status)
	assert.NotEmpty(t, store.matchRow("m1").SimulationLog, "initial snapshot persisted before Start returns")
}

func TestStartLeagueUsesDailyStamina(t *testing.T) {
	store := newFakeStore()
	seedFixture(store, "m1", models.CategoryLeague)
	svc := newTestService(store, slowCfg())

	state, err := svc.Start("m1", false)
	require.NoError(t, err)
	for _, cond := range state.Conditions {
		assert.Equal(t, 90.0, cond.CurrentStamina, "league matches start from the stored daily value")
	}
}

func TestExhibitionRunsToCompletion(t *testing.T) {
	store := newFakeStore()
	seedFixture(store, "m1", models.CategoryLeague)
	svc := newTestService(store, fastCfg())

	_, err := svc.Start("m1", true)
	require.NoError(t, err)

	waitForSettlement(t, svc, store, "m1")

	final := store.snapshotOf(t, "m1")
	assert.Equal(t, models.StatusCompleted, final.Status)
	assert.Equal(t, final.MaxSeconds, final.Elapsed)
	assert.Equal(t, 2, final.Half)

	scoreEvents := 0
	for _, ev := range final.Events {
		if ev.Kind == models.EventScore {
			scoreEvents++
		}
	}
	assert.Equal(t, final.HomeScore+final.AwayScore, scoreEvents)

	store.mu.Lock()
	teamRows := len(store.teamStats)
	homeCredits := store.credits["home"]
	awayCredits := store.credits["away"]
	homeChem := store.chemistry["home"]
	awayChem := store.chemistry["away"]
	careerWrites := len(store.savedPlayers)
	store.mu.Unlock()

	assert.Equal(t, 2, teamRows, "one team stat row per side, written once")
	assert.Zero(t, careerWrites, "exhibitions never touch career aggregates or daily stamina")

	switch {
	case final.HomeScore > final.AwayScore:
		assert.Equal(t, ExhibitionWinCredits, homeCredits)
		assert.Equal(t, ExhibitionLossCredits, awayCredits)
		assert.Equal(t, 1.0, homeChem)
		assert.Zero(t, awayChem)
	case final.AwayScore > final.HomeScore:
		assert.Equal(t, ExhibitionLossCredits, homeCredits)
		assert.Equal(t, ExhibitionWinCredits, awayCredits)
		assert.Equal(t, 1.0, awayChem)
		assert.Zero(t, homeChem)
	default:
		assert.Equal(t, ExhibitionTieCredits, homeCredits)
		assert.Equal(t, ExhibitionTieCredits, awayCredits)
		assert.Zero(t, homeChem)
		assert.Zero(t, awayChem)
	}
}

func TestLeagueSettlementFoldsCareers(t *testing.T) {
	store := newFakeStore()
	seedFixture(store, "m1", models.CategoryLeague)
	cfg := fastCfg()
	cfg.GameSecondsPerTick = 288 // 10 ticks to full time
	svc := newTestService(store, cfg)

	_, err := svc.Start("m1", false)
	require.NoError(t, err)
	waitForSettlement(t, svc, store, "m1")

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.savedPlayers, 6, "every roster player gets an aftermath write")
	for id, p := range store.savedPlayers {
		assert.Equal(t, int64(1), p.CareerMatches, "player %s", id)
		assert.LessOrEqual(t, p.DailyStamina, 90.0-DepletionFloor,
			"player %s must deplete at least the floor", id)
		assert.GreaterOrEqual(t, p.DailyStamina, 0.0)
	}
	assert.Zero(t, store.credits["home"], "league matches pay no exhibition credits")
	assert.Zero(t, store.credits["away"])
}

func TestStopIsIdempotent(t *testing.T) {
	store := newFakeStore()
	seedFixture(store, "m1", models.CategoryLeague)
	svc := newTestService(store, slowCfg())

	_, err := svc.Start("m1", false)
	require.NoError(t, err)

	svc.Stop("m1")
	svc.Stop("m1")
	waitForSettlement(t, svc, store, "m1")

	// Stopping an already-settled match is a logged no-op.
	svc.Stop("m1")

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.completeCalls, "settlement must run exactly once")
	assert.Len(t, store.teamStats, 2, "no duplicate stat rows")
}

func buildRecoveryState(elapsed int) *models.MatchState {
	st := &models.MatchState{
		MatchID:           "m1",
		HomeTeamID:        "home",
		AwayTeamID:        "away",
		Category:          models.CategoryExhibition,
		Elapsed:           elapsed,
		MaxSeconds:        models.CategoryExhibition.MaxGameSeconds(),
		Half:              2,
		HomeScore:         3,
		AwayScore:         1,
		Status:            models.StatusLive,
		PossessionTeamID:  "away",
		PossessionSince:   elapsed - 30,
		OpeningPossession: "home",
		LastUpdate:        time.Now(),
	}
	for i := 0; i < 3; i++ {
		for _, team := range []string{"home", "away"} {
			cond := st.Condition(fmt.Sprintf("%s-%d", team, i))
			cond.CurrentStamina = 70
			cond.MinutesPlayed = float64(elapsed) / 60
		}
	}
	return st
}

func TestSyncRecoversInterruptedMatch(t *testing.T) {
	store := newFakeStore()
	seedFixture(store, "m1", models.CategoryExhibition)
	snapshot := buildRecoveryState(1100)
	blob, err := SnapshotJSON(snapshot)
	require.NoError(t, err)
	store.matches["m1"].Status = models.StatusLive
	store.matches["m1"].SimulationLog = string(blob)

	svc := newTestService(store, fastCfg())

	state, err := svc.Sync("m1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, state.Elapsed, 1100)
	assert.Equal(t, 3, state.HomeScore, "resume must not roll the score back")

	waitForSettlement(t, svc, store, "m1")

	final := store.snapshotOf(t, "m1")
	assert.Equal(t, models.StatusCompleted, final.Status)
	assert.GreaterOrEqual(t, final.HomeScore, 3, "score is non-decreasing across recovery")
	assert.GreaterOrEqual(t, final.AwayScore, 1)
}

func TestSyncReturnsRunningMatch(t *testing.T) {
	store := newFakeStore()
	seedFixture(store, "m1", models.CategoryLeague)
	svc := newTestService(store, slowCfg())

	started, err := svc.Start("m1", false)
	require.NoError(t, err)

	synced, err := svc.Sync("m1")
	require.NoError(t, err)
	assert.Equal(t, started.MatchID, synced.MatchID)
}

func TestSyncRefusesCompletedMatch(t *testing.T) {
	store := newFakeStore()
	seedFixture(store, "m1", models.CategoryExhibition)
	blob, err := SnapshotJSON(buildRecoveryState(600))
	require.NoError(t, err)
	store.matches["m1"].Status = models.StatusCompleted
	store.matches["m1"].SimulationLog = string(blob)

	svc := newTestService(store, fastCfg())
	_, err = svc.Sync("m1")
	assert.ErrorIs(t, err, ErrRecoveryConflict)
}

func TestSyncWithoutSnapshot(t *testing.T) {
	store := newFakeStore()
	seedFixture(store, "m1", models.CategoryLeague)
	svc := newTestService(store, fastCfg())

	_, err := svc.Sync("m1")
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = svc.Sync("missing")
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestRecoverAllSettlesSnapshotPastFullTime(t *testing.T) {
	store := newFakeStore()
	seedFixture(store, "m1", models.CategoryExhibition)
	snapshot := buildRecoveryState(models.CategoryExhibition.MaxGameSeconds())
	blob, err := SnapshotJSON(snapshot)
	require.NoError(t, err)
	store.matches["m1"].Status = models.StatusLive
	store.matches["m1"].SimulationLog = string(blob)

	svc := newTestService(store, slowCfg())
	recovered := svc.RecoverAll()
	assert.Equal(t, 1, recovered)

	_, ok := svc.GetState("m1")
	assert.False(t, ok, "a past-end snapshot settles instead of resuming")
	assert.Equal(t, models.StatusCompleted, store.matchRow("m1").Status)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, ExhibitionWinCredits, store.credits["home"])
	assert.Equal(t, ExhibitionLossCredits, store.credits["away"])
}

func TestSweepSettlesStaleMatches(t *testing.T) {
	store := newFakeStore()
	seedFixture(store, "m1", models.CategoryLeague)
	cfg := slowCfg()
	cfg.StaleAfter = time.Nanosecond
	svc := newTestService(store, cfg)

	_, err := svc.Start("m1", false)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	svc.SweepStale()
	waitForSettlement(t, svc, store, "m1")
	assert.Zero(t, svc.LiveCount())
}
