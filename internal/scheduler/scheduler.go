// Package scheduler wires up the cron job that periodically triggers a full
// synchronization cycle.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/shoesync/backend/internal/usecase"
)

// Scheduler wraps robfig/cron and manages the periodic sync loop.
type Scheduler struct {
	cron         *cron.Cron
	orchestrator *usecase.Orchestrator
	steps        []usecase.Step
	spec         string // cron spec, e.g. "@every 6h"
}

// New creates a Scheduler that runs the given steps every intervalHours
// hours.
func New(orchestrator *usecase.Orchestrator, steps []usecase.Step, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:         cron.New(cron.WithLogger(cron.DefaultLogger)),
		orchestrator: orchestrator,
		steps:        steps,
		spec:         fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one cycle
// immediately so the snapshot is fresh without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started with spec %s", s.spec)

	// First cycle right away; the tick only covers subsequent runs.
	go s.runCycle(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

func (s *Scheduler) runCycle(ctx context.Context) {
	log.Println("[scheduler] Sync cycle started")
	report, err := s.orchestrator.RunCycle(ctx, s.steps)
	if err != nil {
		log.Printf("[scheduler] Sync cycle error: %v", err)
		return
	}
	log.Printf("[scheduler] Sync cycle complete: %d step(s) in %d attempt(s)",
		len(report.Steps), report.Attempts)
}
