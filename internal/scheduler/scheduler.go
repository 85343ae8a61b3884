// Package scheduler wires up the cron job that periodically triggers a run.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// RunFunc is one scheduled unit of work.
type RunFunc func(ctx context.Context) error

// Scheduler wraps robfig/cron. Overlapping ticks are skipped, not queued.
type Scheduler struct {
	cron *cron.Cron
	spec string // cron spec, e.g. "@every 30m"
	run  RunFunc
}

// New validates spec and returns a stopped scheduler.
func New(spec string, run RunFunc) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cron.DefaultLogger),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		spec: spec,
		run:  run,
	}, nil
}

// Start registers the job and starts the scheduler. With runNow the first
// run happens synchronously before the first tick is scheduled.
func (s *Scheduler) Start(ctx context.Context, runNow bool) error {
	if runNow {
		s.tick(ctx)
	}

	_, err := s.cron.AddFunc(s.spec, func() {
		s.tick(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started, spec: %s", s.spec)
	return nil
}

// Stop shuts the scheduler down and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] Cron stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.run(ctx); err != nil {
		log.Printf("[scheduler] Run error: %v", err)
	}
}
