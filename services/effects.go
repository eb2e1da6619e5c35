// services/effects.go
package services

import (
	"errors"
	"log"
	"time"

	"gridiron-match-engine/models"

	"gorm.io/gorm"
)

// Effect providers feed modifier deltas into roster building. They are
// interfaces so orchestrator tests can run without a database; the gorm
// implementations below are what production wires in.

type ChemistryProvider interface {
	TeamChemistry(teamID string) (float64, error)
}

type EquipmentProvider interface {
	PlayerEquipmentDeltas(playerID string) (map[string]float64, error)
}

type StaffProvider interface {
	TeamStaffDeltas(teamID string) (map[string]float64, error)
}

type ConsumableProvider interface {
	PlayerConsumableDeltas(playerID string) (map[string]float64, error)
}

// EffectProviders bundles the four sources the orchestrator consults when it
// builds a match roster.
type EffectProviders struct {
	Chemistry   ChemistryProvider
	Equipment   EquipmentProvider
	Staff       StaffProvider
	Consumables ConsumableProvider
}

// GormEffects implements every provider against the effect tables.
type GormEffects struct {
	DB *gorm.DB
}

func NewGormEffects(db *gorm.DB) *GormEffects {
	return &GormEffects{DB: db}
}

// Providers returns the bundle production hands to NewMatchService.
func (g *GormEffects) Providers() EffectProviders {
	return EffectProviders{Chemistry: g, Equipment: g, Staff: g, Consumables: g}
}

func (g *GormEffects) TeamChemistry(teamID string) (float64, error) {
	var team models.Team
	if err := g.DB.Select("chemistry").First(&team, "id = ?", teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 50, nil
		}
		return 50, err
	}
	return team.Chemistry, nil
}

func (g *GormEffects) PlayerEquipmentDeltas(playerID string) (map[string]float64, error) {
	var rows []models.PlayerEquipment
	if err := g.DB.Where("player_id = ?", playerID).Find(&rows).Error; err != nil {
		return nil, err
	}
	deltas := make(map[string]float64, len(rows))
	for _, row := range rows {
		deltas[row.Attribute] += row.Delta
	}
	return deltas, nil
}

func (g *GormEffects) TeamStaffDeltas(teamID string) (map[string]float64, error) {
	var rows []models.TeamStaff
	if err := g.DB.Where("team_id = ?", teamID).Find(&rows).Error; err != nil {
		return nil, err
	}
	deltas := make(map[string]float64, len(rows))
	for _, row := range rows {
		deltas[row.Attribute] += row.Delta
	}
	return deltas, nil
}

func (g *GormEffects) PlayerConsumableDeltas(playerID string) (map[string]float64, error) {
	var rows []models.PlayerConsumable
	now := time.Now()
	if err := g.DB.Where("player_id = ? AND (expires_at IS NULL OR expires_at > ?)", playerID, now).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	deltas := make(map[string]float64, len(rows))
	for _, row := range rows {
		deltas[row.Attribute] += row.Delta
	}
	return deltas, nil
}

// mergeDeltas folds src into dst, logging and skipping on provider failure —
// a broken effect source degrades to "no effect", never to a failed match.
func mergeDeltas(dst map[string]float64, src map[string]float64, err error, what, ownerID string) {
	if err != nil {
		log.Printf("⚠️  [SIM] %s deltas unavailable for %s: %v", what, ownerID, err)
		return
	}
	for attr, delta := range src {
		dst[attr] += delta
	}
}
