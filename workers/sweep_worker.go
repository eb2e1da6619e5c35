// workers/sweep_worker.go
package workers

import (
	"log"
	"time"

	"gridiron-match-engine/services"

	"github.com/go-co-op/gocron/v2"
)

// StartSweepWorker periodically settles matches whose ticks stopped
// arriving — the safety net behind the explicit Stop path.
func StartSweepWorker(matchService *services.MatchService, every time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			matchService.SweepStale()
		}),
	)

	log.Printf("✅ Stale-match sweep running (every %s)", every)
}
