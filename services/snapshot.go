// services/snapshot.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gridiron-match-engine/models"

	"gorm.io/gorm"
)

// SnapshotJSON serializes the full match state into the blob stored on the
// match row's simulation_log column. The format only has to round-trip
// losslessly through DecodeSnapshot — nothing else reads it.
func SnapshotJSON(state *models.MatchState) ([]byte, error) {
	blob, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot for match %s: %w", state.MatchID, err)
	}
	return blob, nil
}

// DecodeSnapshot is the inverse of SnapshotJSON.
func DecodeSnapshot(blob []byte) (*models.MatchState, error) {
	var state models.MatchState
	if err := json.Unmarshal(blob, &state); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &state, nil
}

// StateFromRow rehydrates a match row's snapshot, guarding against
// resurrecting matches that already finished: a completed or aborted row is
// a recovery conflict, and anything not live (or with an empty log) has
// nothing to resume.
func StateFromRow(row *models.Match) (*models.MatchState, error) {
	switch row.Status {
	case models.StatusCompleted, models.StatusAborted:
		return nil, ErrRecoveryConflict
	}
	if row.Status != models.StatusLive || row.SimulationLog == "" {
		return nil, ErrNoSnapshot
	}
	return DecodeSnapshot([]byte(row.SimulationLog))
}

// MatchStore is everything the engine needs from durable storage. The gorm
// implementation below is production; orchestrator tests substitute an
// in-memory fake.
type MatchStore interface {
	GetMatch(matchID string) (*models.Match, error)
	GetTeam(teamID string) (*models.Team, error)
	GetPlayersByTeam(teamID string) ([]models.Player, error)

	MarkLive(matchID string, at time.Time) error
	SaveSnapshot(matchID string, blob []byte, homeScore, awayScore int) error
	FindInterrupted() ([]models.Match, error)

	CompleteMatch(matchID string, homeScore, awayScore int, blob []byte, at time.Time) error
	SaveMatchStats(players []models.PlayerMatchStats, teams []models.TeamMatchStats) error
	SavePlayer(player *models.Player) error
	AddTeamCredits(teamID string, amount int64) error
	AddTeamChemistry(teamID string, delta float64) error
}

type GormMatchStore struct {
	DB *gorm.DB
}

func NewGormMatchStore(db *gorm.DB) *GormMatchStore {
	return &GormMatchStore{DB: db}
}

func (s *GormMatchStore) GetMatch(matchID string) (*models.Match, error) {
	var match models.Match
	if err := s.DB.First(&match, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &match, nil
}

func (s *GormMatchStore) GetTeam(teamID string) (*models.Team, error) {
	var team models.Team
	if err := s.DB.First(&team, "id = ?", teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRosterNotFound
		}
		return nil, err
	}
	return &team, nil
}

func (s *GormMatchStore) GetPlayersByTeam(teamID string) ([]models.Player, error) {
	var players []models.Player
	if err := s.DB.Preload("Abilities").Where("team_id = ?", teamID).Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (s *GormMatchStore) MarkLive(matchID string, at time.Time) error {
	return s.DB.Model(&models.Match{}).Where("id = ?", matchID).Updates(map[string]interface{}{
		"status":     models.StatusLive,
		"started_at": at,
	}).Error
}

func (s *GormMatchStore) SaveSnapshot(matchID string, blob []byte, homeScore, awayScore int) error {
	return s.DB.Model(&models.Match{}).Where("id = ?", matchID).Updates(map[string]interface{}{
		"simulation_log": string(blob),
		"home_score":     homeScore,
		"away_score":     awayScore,
	}).Error
}

func (s *GormMatchStore) FindInterrupted() ([]models.Match, error) {
	var matches []models.Match
	err := s.DB.Where("status = ? AND simulation_log <> ''", models.StatusLive).Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *GormMatchStore) CompleteMatch(matchID string, homeScore, awayScore int, blob []byte, at time.Time) error {
	return s.DB.Model(&models.Match{}).Where("id = ?", matchID).Updates(map[string]interface{}{
		"status":         models.StatusCompleted,
		"home_score":     homeScore,
		"away_score":     awayScore,
		"simulation_log": string(blob),
		"completed_at":   at,
	}).Error
}

func (s *GormMatchStore) SaveMatchStats(players []models.PlayerMatchStats, teams []models.TeamMatchStats) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if len(players) > 0 {
			if err := tx.Create(&players).Error; err != nil {
				return err
			}
		}
		if len(teams) > 0 {
			if err := tx.Create(&teams).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormMatchStore) SavePlayer(player *models.Player) error {
	return s.DB.Save(player).Error
}

func (s *GormMatchStore) AddTeamCredits(teamID string, amount int64) error {
	return s.DB.Model(&models.Team{}).Where("id = ?", teamID).
		Update("credits", gorm.Expr("credits + ?", amount)).Error
}

func (s *GormMatchStore) AddTeamChemistry(teamID string, delta float64) error {
	return s.DB.Model(&models.Team{}).Where("id = ?", teamID).
		Update("chemistry", gorm.Expr("LEAST(100, chemistry + ?)", delta)).Error
}
