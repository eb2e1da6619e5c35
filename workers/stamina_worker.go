// workers/stamina_worker.go
package workers

import (
	"log"

	"gridiron-match-engine/models"
	"gridiron-match-engine/services"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// dailyRecoveryPoints is how much of an injury's recovery requirement burns
// down per rest day.
const dailyRecoveryPoints = 50

// StartStaminaWorker runs the overnight condition pass: healthy players
// regain daily stamina, injured players burn recovery points and heal when
// they reach zero.
func StartStaminaWorker(db *gorm.DB) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(4, 0, 0))),
		gocron.NewTask(func() {
			runDailyRecovery(db)
		}),
	)

	log.Println("✅ Daily stamina recovery worker running (04:00)")
}

func runDailyRecovery(db *gorm.DB) {
	var teams []models.Team
	if err := db.Find(&teams).Error; err != nil {
		log.Printf("❌ [RECOVERY_WORKER] failed to load teams: %v", err)
		return
	}
	coachBonusByTeam := make(map[string]float64, len(teams))
	for _, t := range teams {
		coachBonusByTeam[t.ID] = services.CoachBonus(t.CoachingQuality)
	}

	var players []models.Player
	if err := db.Find(&players).Error; err != nil {
		log.Printf("❌ [RECOVERY_WORKER] failed to load players: %v", err)
		return
	}

	recovered, healed := 0, 0
	for i := range players {
		p := &players[i]

		if p.InjuryStatus != models.InjuryHealthy && p.InjuryStatus != "" {
			p.RecoveryPoints -= dailyRecoveryPoints
			if p.RecoveryPoints <= 0 {
				p.RecoveryPoints = 0
				p.InjuryStatus = models.InjuryHealthy
				healed++
			}
		} else {
			gain := services.RecoveryFor(p.Stamina, p.DailyStamina, coachBonusByTeam[p.TeamID])
			if gain <= 0 {
				continue
			}
			p.DailyStamina += gain
			recovered++
		}

		if err := db.Save(p).Error; err != nil {
			log.Printf("❌ [RECOVERY_WORKER] failed to save player %s: %v", p.ID, err)
		}
	}

	log.Printf("✅ [RECOVERY_WORKER] daily pass done: %d player(s) rested, %d healed", recovered, healed)
}
