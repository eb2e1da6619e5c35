// workers/replay_worker.go
package workers

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gridiron-match-engine/models"
	"gridiron-match-engine/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// StartReplayWorker archives completed matches to object storage. It scans
// for completed rows with no replay URL, renders the replay document from
// the final snapshot and uploads it; a failed upload leaves the row for the
// next pass.
func StartReplayWorker(db *gorm.DB) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(2*time.Minute),
		gocron.NewTask(func() {
			archivePendingReplays(db)
		}),
	)

	log.Println("✅ Replay archive worker running (every 2m)")
}

func archivePendingReplays(db *gorm.DB) {
	var matches []models.Match
	err := db.Preload("HomeTeam").Preload("AwayTeam").
		Where("status = ? AND replay_url = '' AND simulation_log <> ''", models.StatusCompleted).
		Limit(20).
		Find(&matches).Error
	if err != nil {
		log.Printf("❌ [REPLAY] scan failed: %v", err)
		return
	}

	titler := cases.Title(language.English)
	for i := range matches {
		m := &matches[i]

		var state json.RawMessage
		if err := json.Unmarshal([]byte(m.SimulationLog), &state); err != nil {
			log.Printf("⚠️  [REPLAY] match %s has an unreadable snapshot, skipping: %v", m.ID, err)
			continue
		}

		doc, err := json.Marshal(map[string]interface{}{
			"headline": fmt.Sprintf("%s %d — %d %s",
				titler.String(m.HomeTeam.Name), m.HomeScore, m.AwayScore, titler.String(m.AwayTeam.Name)),
			"category":     m.Category,
			"completed_at": m.CompletedAt,
			"state":        state,
		})
		if err != nil {
			log.Printf("❌ [REPLAY] match %s: failed to build replay doc: %v", m.ID, err)
			continue
		}

		key := fmt.Sprintf("replays/%s-%s.json",
			slug.Make(m.HomeTeam.Name+"-vs-"+m.AwayTeam.Name), uuid.NewString()[:8])
		url, err := utils.UploadBytesToR2(key, "application/json", doc)
		if err != nil {
			log.Printf("❌ [REPLAY] match %s: upload failed, will retry: %v", m.ID, err)
			continue
		}

		if err := db.Model(&models.Match{}).Where("id = ?", m.ID).
			Update("replay_url", url).Error; err != nil {
			log.Printf("❌ [REPLAY] match %s: failed to store replay URL: %v", m.ID, err)
			continue
		}
		log.Printf("✅ [REPLAY] archived match %s → %s", m.ID, url)
	}
}
