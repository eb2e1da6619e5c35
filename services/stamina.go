// services/stamina.go
package services

import (
	"math/rand"

	"gridiron-match-engine/models"
)

// Stamina & injury model. Every function here is pure: no DB, no clock, no
// package state — the orchestrator and the daily recovery worker feed in
// whatever inputs they have and apply the results themselves.

// Tunables (balanced by feel, not physics).
const (
	// DepletionBase is the raw post-match stamina loss before scaling.
	DepletionBase = 30.0
	// DepletionAttrFactor scales how much the stamina attribute protects
	// against depletion. At S=80 the bracket goes to zero; above that only
	// the floor applies.
	DepletionAttrFactor = 0.5
	// DepletionFloor is the minimum loss for anyone who actually played.
	DepletionFloor = 5.0

	// RecoveryBase and RecoveryAttrFactor drive the daily stamina regain.
	RecoveryBase       = 20.0
	RecoveryAttrFactor = 0.3

	// MaxCoachBonus caps the coaching staff's depletion discount at 15%.
	MaxCoachBonus = 0.15

	// LowStaminaInjuryPenalty is the extra injury chance for a gassed carrier.
	LowStaminaInjuryPenalty   = 10.0
	lowStaminaInjuryThreshold = 50.0
)

// CoachBonus derives the depletion discount from coaching quality (0–100),
// capped at MaxCoachBonus.
func CoachBonus(coachingQuality float64) float64 {
	if coachingQuality < 0 {
		return 0
	}
	bonus := coachingQuality / 100 * MaxCoachBonus
	if bonus > MaxCoachBonus {
		return MaxCoachBonus
	}
	return bonus
}

// DepletionFor computes the post-match stamina loss for one player.
//
// A player who did not play loses nothing; everyone else loses at least
// DepletionFloor. The stamina attribute S reduces the loss linearly and the
// minutes-played fraction scales it by how much of the category's full
// duration the player was on the field.
func DepletionFor(staminaAttr int, minutesPlayed float64, category models.MatchCategory, coachBonus float64) float64 {
	if minutesPlayed <= 0 {
		return 0
	}
	if coachBonus < 0 {
		coachBonus = 0
	}
	if coachBonus > MaxCoachBonus {
		coachBonus = MaxCoachBonus
	}

	categoryMinutes := float64(category.MaxGameSeconds()) / 60
	loss := DepletionBase *
		(1 - DepletionAttrFactor*float64(staminaAttr)/40) *
		(minutesPlayed / categoryMinutes) *
		(1 - coachBonus)

	if loss < DepletionFloor {
		return DepletionFloor
	}
	return loss
}

// RecoveryFor computes the daily stamina regain for one player, capped so it
// never pushes past 100 — there is no overheal banking.
func RecoveryFor(staminaAttr int, currentStamina float64, coachBonus float64) float64 {
	deficit := 100 - currentStamina
	if deficit <= 0 {
		return 0
	}
	gain := RecoveryBase + RecoveryAttrFactor*float64(staminaAttr) + coachBonus*10
	if gain > deficit {
		return deficit
	}
	return gain
}

// InjuryChance returns the percent chance [0,100] that a hit injures the
// carrier. Stronger tacklers and slower carriers raise it; a tired carrier
// (stamina under 50) takes a flat extra penalty.
func InjuryChance(tacklePower, carrierAgility, carrierStamina float64, category models.MatchCategory) float64 {
	chance := injuryBaseChance(category) + 0.5*(tacklePower-carrierAgility)
	if carrierStamina < lowStaminaInjuryThreshold {
		chance += LowStaminaInjuryPenalty
	}
	if chance < 0 {
		return 0
	}
	if chance > 100 {
		return 100
	}
	return chance
}

func injuryBaseChance(category models.MatchCategory) float64 {
	switch category {
	case models.CategoryLeague:
		return 3
	case models.CategoryTournament:
		return 5
	default: // exhibition
		return 1
	}
}

// RollInjury draws against an InjuryChance result.
func RollInjury(rng *rand.Rand, chance float64) bool {
	return rng.Float64()*100 < chance
}

// RollInjurySeverity picks how bad a confirmed injury is: 70% minor,
// 25% moderate, 5% severe.
func RollInjurySeverity(rng *rand.Rand) models.InjuryStatus {
	roll := rng.Float64() * 100
	switch {
	case roll < 70:
		return models.InjuryMinor
	case roll < 95:
		return models.InjuryModerate
	default:
		return models.InjurySevere
	}
}

// RecoveryPointsFor returns the recovery points a severity must burn down
// before the player is healthy again.
func RecoveryPointsFor(severity models.InjuryStatus) int {
	switch severity {
	case models.InjuryMinor:
		return 100
	case models.InjuryModerate:
		return 250
	case models.InjurySevere:
		return 600
	}
	return 0
}
