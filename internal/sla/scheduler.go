package sla

import (
	"context"
	"errors"
	"log"
	"time"
)

// Scheduler periodically triggers the runner, standing in for an
// external cron when campops runs as a long-lived server.
type Scheduler struct {
	runner   *Runner
	interval time.Duration
}

// NewScheduler creates a Scheduler. A non-positive interval disables it.
func NewScheduler(runner *Runner, interval time.Duration) *Scheduler {
	return &Scheduler{runner: runner, interval: interval}
}

// Start launches the ticker loop. It returns immediately; the loop stops
// when ctx is cancelled. With a disabled interval Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		log.Printf("sla: scheduler disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		log.Printf("sla: scheduler running every %s", s.interval)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.runner.Run(ctx); err != nil {
					if errors.Is(err, ErrRunInProgress) {
						// A manual trigger is mid-flight; skip this tick.
						continue
					}
					log.Printf("sla: scheduled run failed: %v", err)
				}
			}
		}
	}()
}
