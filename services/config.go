// services/config.go
package services

import (
	"log"
	"os"
	"strconv"
	"time"
)

// SimConfig holds the engine tunables. The defaults mirror the values the
// game was balanced against; none of them is load-bearing for correctness,
// so every one can be overridden from the environment.
type SimConfig struct {
	// TickPeriod is the wall-clock interval between simulation ticks.
	TickPeriod time.Duration
	// GameSecondsPerTick is how much game time one tick advances. With the
	// default 3s period and 9 game-seconds the match runs at 3× real time.
	GameSecondsPerTick int
	// EventChance is the probability that a tick produces a play.
	EventChance float64
	// CheckpointSeconds is the game-time interval between durable snapshots.
	CheckpointSeconds int
	// StaleAfter is how long a match may go without a tick before the sweep
	// force-settles it.
	StaleAfter time.Duration
}

var DefaultSimConfig = SimConfig{
	TickPeriod:         3 * time.Second,
	GameSecondsPerTick: 9,
	EventChance:        0.70,
	CheckpointSeconds:  30,
	StaleAfter:         2 * time.Hour,
}

// LoadSimConfig returns the defaults with any environment overrides applied.
func LoadSimConfig() SimConfig {
	cfg := DefaultSimConfig

	if v := envInt("SIM_TICK_SECONDS"); v > 0 {
		cfg.TickPeriod = time.Duration(v) * time.Second
	}
	if v := envInt("SIM_GAME_SECONDS_PER_TICK"); v > 0 {
		cfg.GameSecondsPerTick = v
	}
	if raw := os.Getenv("SIM_EVENT_CHANCE"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 && f <= 1 {
			cfg.EventChance = f
		} else {
			log.Printf("⚠️  SIM_EVENT_CHANCE=%q invalid, keeping %.2f", raw, cfg.EventChance)
		}
	}
	if v := envInt("SIM_CHECKPOINT_SECONDS"); v > 0 {
		cfg.CheckpointSeconds = v
	}
	if v := envInt("SIM_STALE_AFTER_MINUTES"); v > 0 {
		cfg.StaleAfter = time.Duration(v) * time.Minute
	}

	log.Printf("[SIM] config: tick=%s advance=%ds event=%.0f%% checkpoint=%ds stale=%s",
		cfg.TickPeriod, cfg.GameSecondsPerTick, cfg.EventChance*100,
		cfg.CheckpointSeconds, cfg.StaleAfter)
	return cfg
}

func envInt(key string) int {
	raw := os.Getenv(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("⚠️  %s=%q is not a number, ignoring", key, raw)
		return 0
	}
	return v
}
