// services/runner.go
package services

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"gridiron-match-engine/models"

	"github.com/google/uuid"
)

// matchRunner owns one running match. All state mutation happens on its
// goroutine, so per-match ticks are serialized structurally: a tick can
// never overlap itself, and Stop is just a message into the same loop.
type matchRunner struct {
	svc   *MatchService
	state *models.MatchState
	home  *TeamSide
	away  *TeamSide
	rng   *rand.Rand

	// stopRequests is buffered so Stop never blocks; duplicates drain into
	// the buffer and are ignored once the loop has exited.
	stopRequests chan struct{}

	// view is the deep copy published after every tick for GetState.
	viewMu sync.Mutex
	view   *models.MatchState

	settled        bool
	lastCheckpoint int
}

func newMatchRunner(svc *MatchService, state *models.MatchState, home, away *TeamSide, rng *rand.Rand) *matchRunner {
	r := &matchRunner{
		svc:            svc,
		state:          state,
		home:           home,
		away:           away,
		rng:            rng,
		stopRequests:   make(chan struct{}, 2),
		lastCheckpoint: state.Elapsed,
	}
	r.publishView()
	return r
}

// View returns the latest published deep copy of the match state.
func (r *matchRunner) View() *models.MatchState {
	r.viewMu.Lock()
	defer r.viewMu.Unlock()
	return r.view
}

func (r *matchRunner) publishView() {
	snap := r.state.Clone()
	r.viewMu.Lock()
	r.view = snap
	r.viewMu.Unlock()
}

func (r *matchRunner) requestStop() {
	select {
	case r.stopRequests <- struct{}{}:
	default:
	}
}

func (r *matchRunner) loop() {
	ticker := time.NewTicker(r.svc.Cfg.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopRequests:
			r.settle("stop requested")
			return
		case <-ticker.C:
			r.tick()
			if r.settled {
				return
			}
		}
	}
}

// tick advances the clock one step. A panic inside resolution is contained
// here: the tick is lost, the match keeps running, and if ticks ever die
// completely the stale sweep settles the match.
func (r *matchRunner) tick() {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("❌ [SIM] match %s: tick panicked, skipping cycle: %v", r.state.MatchID, p)
		}
	}()

	st := r.state
	if st.Status != models.StatusLive {
		return
	}

	prev := st.Elapsed
	st.Elapsed += r.svc.Cfg.GameSecondsPerTick
	if st.Elapsed > st.MaxSeconds {
		st.Elapsed = st.MaxSeconds
	}
	advanced := st.Elapsed - prev
	st.LastUpdate = time.Now()

	if st.PossessionTeamID != "" {
		st.TeamLine(st.PossessionTeamID).PossessionSeconds += advanced
	}
	r.advanceConditions(advanced)

	halfLen := st.MaxSeconds / 2
	switch {
	case st.Half == 1 && st.Elapsed >= halfLen:
		r.breakHalf()
	case st.Elapsed < st.MaxSeconds && r.rng.Float64() < r.svc.Cfg.EventChance:
		r.svc.Engine.GenerateEvent(st, r.home, r.away, r.rng)
	}

	if st.Elapsed-r.lastCheckpoint >= r.svc.Cfg.CheckpointSeconds && st.Elapsed < st.MaxSeconds {
		r.lastCheckpoint = st.Elapsed
		snap := st.Clone()
		go r.svc.persistSnapshot(snap)
	}

	if st.Elapsed >= st.MaxSeconds {
		r.settle("full time")
		return
	}
	r.publishView()
}

// breakHalf flips to the second half and hands possession to the team that
// did not open the match with it.
func (r *matchRunner) breakHalf() {
	st := r.state
	st.Half = 2
	st.PossessionTeamID = st.OpponentOf(st.OpeningPossession)
	st.PossessionSince = st.Elapsed
	st.AppendEvent(models.MatchEvent{
		ID:          uuid.NewString(),
		Kind:        models.EventHalfBreak,
		GameTime:    st.Elapsed,
		Half:        2,
		Phase:       st.Phase(),
		Description: "Half time: the teams switch ends",
	})
}

// advanceConditions accrues playing time, bleeds a little in-match stamina
// and counts down ability cooldowns for everyone on the field.
func (r *matchRunner) advanceConditions(advancedSeconds int) {
	drift := inMatchDrainPerMinute * float64(advancedSeconds) / 60
	for _, side := range []*TeamSide{r.home, r.away} {
		for _, p := range side.Roster {
			cond := r.state.Condition(p.Row.ID)
			cond.MinutesPlayed += float64(advancedSeconds) / 60
			drainStamina(cond, drift)
			for key, remaining := range cond.Cooldowns {
				if remaining > 0 {
					cond.Cooldowns[key] = remaining - 1
				}
			}
		}
	}
}

// inMatchDrainPerMinute is the passive stamina bleed of simply being on the
// field, on top of per-play costs.
const inMatchDrainPerMinute = 0.5

// settle finalizes the match exactly once and deregisters the runner.
func (r *matchRunner) settle(reason string) {
	if r.settled {
		return
	}
	r.settled = true
	r.svc.settle(r, reason)
	r.publishView()
}
