// services/snapshot_test.go
package services

import (
	"testing"
	"time"

	"gridiron-match-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullMatchState() *models.MatchState {
	return &models.MatchState{
		MatchID:           "m1",
		HomeTeamID:        "home",
		AwayTeamID:        "away",
		Category:          models.CategoryLeague,
		Elapsed:           930,
		MaxSeconds:        2880,
		Half:              1,
		HomeScore:         2,
		AwayScore:         1,
		Status:            models.StatusLive,
		PossessionTeamID:  "away",
		PossessionSince:   900,
		OpeningPossession: "home",
		Events: []models.MatchEvent{
			{ID: "e1", Kind: models.EventKickoff, GameTime: 0, Half: 1, Phase: models.PhaseEarly, TeamID: "home"},
			{ID: "e2", Kind: models.EventScore, GameTime: 540, Half: 1, Phase: models.PhaseMiddle,
				ActingPlayerID: "p1", TeamID: "home", Yards: 22, Description: "p1 takes it in to score!"},
			{ID: "e3", Kind: models.EventInjury, GameTime: 720, Half: 1, Phase: models.PhaseMiddle,
				ActingPlayerID: "p4", TargetPlayerID: "p2", DefenderPlayerID: "p4",
				Severity: models.InjuryMinor},
		},
		PlayerStats: map[string]*models.PlayerStatLine{
			"p1": {Attempts: 5, Completions: 3, PassingYards: 48, Scores: 2},
			"p4": {Tackles: 2, TurnoversForced: 1},
		},
		TeamStats: map[string]*models.TeamStatLine{
			"home": {PossessionSeconds: 500, PassingYards: 48, Turnovers: 1},
			"away": {PossessionSeconds: 430, RushingYards: 31},
		},
		Conditions: map[string]*models.PlayerCondition{
			"p1": {CurrentStamina: 71.5, MinutesPlayed: 15.5, Cooldowns: map[string]int{"cannon_arm": 3}},
			"p2": {CurrentStamina: 44, MinutesPlayed: 15.5, TempInjury: models.InjuryMinor},
		},
		LastUpdate: time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC),
	}
}

func TestSnapshotRoundTripIsLossless(t *testing.T) {
	state := fullMatchState()

	blob, err := SnapshotJSON(state)
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(blob)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestStateFromRowResumesLiveMatch(t *testing.T) {
	blob, err := SnapshotJSON(fullMatchState())
	require.NoError(t, err)

	row := &models.Match{ID: "m1", Status: models.StatusLive, SimulationLog: string(blob)}
	state, err := StateFromRow(row)
	require.NoError(t, err)
	assert.Equal(t, 930, state.Elapsed)
	assert.Equal(t, 2, state.HomeScore)
}

func TestStateFromRowRefusesCompletedMatch(t *testing.T) {
	blob, err := SnapshotJSON(fullMatchState())
	require.NoError(t, err)

	for _, status := range []models.MatchStatus{models.StatusCompleted, models.StatusAborted} {
		row := &models.Match{ID: "m1", Status: status, SimulationLog: string(blob)}
		_, err := StateFromRow(row)
		assert.ErrorIs(t, err, ErrRecoveryConflict, "status %s must never be resurrected", status)
	}
}

func TestStateFromRowNeedsASnapshot(t *testing.T) {
	_, err := StateFromRow(&models.Match{ID: "m1", Status: models.StatusLive})
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = StateFromRow(&models.Match{ID: "m1", Status: models.StatusScheduled, SimulationLog: "{}"})
	assert.ErrorIs(t, err, ErrNoSnapshot)
}
