package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/trogers1052/signal-picks-service/internal/picks"
)

// Scheduler drives the hourly selection and the daily materialization. It
// only fires the jobs; the engine receives the (date, hour) pair explicitly,
// so the same code path is reachable from tests and manual backfills.
type Scheduler struct {
	cron   *gocron.Scheduler
	engine *picks.Engine
}

// New creates a new scheduler instance
func New(engine *picks.Engine) *Scheduler {
	return &Scheduler{
		cron:   gocron.NewScheduler(time.UTC),
		engine: engine,
	}
}

// Start starts all scheduled jobs
func (s *Scheduler) Start(ctx context.Context) {
	log.Println("Starting scheduler...")

	// Hourly selection at the top of every UTC hour. Duplicate or late
	// triggers are harmless: the slot ledger makes the run idempotent.
	s.cron.Cron("0 * * * *").Do(func() {
		now := time.Now().UTC()
		if err := s.engine.Run(ctx, now, now.Hour()); err != nil {
			log.Printf("Error running hourly selection: %v", err)
		}
	})

	// Materialize the previous day's best-of-day snapshot shortly after
	// midnight UTC, once its final hourly slot has had time to finish
	s.cron.Cron("10 0 * * *").Do(func() {
		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		if err := s.engine.MaterializeDay(yesterday); err != nil {
			log.Printf("Error materializing best of day: %v", err)
		}
	})

	s.cron.StartAsync()
	log.Println("Scheduler started successfully")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}
