package timer

import (
	"context"
	"time"
)

type RunConfig struct {
	Tick      time.Duration
	Heartbeat time.Duration
}

func (c RunConfig) withDefaults() RunConfig {
	if c.Tick <= 0 {
		c.Tick = time.Second
	}
	if c.Heartbeat <= 0 {
		c.Heartbeat = 30 * time.Second
	}
	return c
}

// Run drives r until ctx is done: onTick receives the recomputed elapsed
// seconds every Tick, and a heartbeat goes out every Heartbeat while the
// timer runs. The two periods are independent.
func Run(ctx context.Context, r *Reconciler, cfg RunConfig, onTick func(State)) error {
	cfg = cfg.withDefaults()
	tick := time.NewTicker(cfg.Tick)
	defer tick.Stop()
	beat := time.NewTicker(cfg.Heartbeat)
	defer beat.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			r.Tick()
			if onTick != nil {
				onTick(r.State())
			}
		case <-beat.C:
			r.Heartbeat(ctx)
		}
	}
}
