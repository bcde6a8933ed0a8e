package picks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/trogers1052/signal-picks-service/internal/database"
	"github.com/trogers1052/signal-picks-service/internal/metrics"
	"github.com/trogers1052/signal-picks-service/internal/models"
)

// Store defines the database operations the engine needs
type Store interface {
	SlotCompleted(date time.Time, hour int) (bool, error)
	EligibleSymbols(date time.Time) ([]string, error)
	CommitSlotRun(date time.Time, hour int, scored []models.ScoredCandidate, winners []string) error
	MaterializeBestOfDay(date time.Time, topN int) error
}

// Scorer assigns a quality score to a single candidate. Failures are
// per-candidate: the engine drops the candidate and keeps going.
type Scorer interface {
	Score(ctx context.Context, symbol string) (*models.ScoredCandidate, error)
}

// Publisher announces committed selections downstream
type Publisher interface {
	PublishPicksSelected(ctx context.Context, date time.Time, hour int, winners []string) error
}

// Options configures an Engine
type Options struct {
	Store          Store
	Scorer         Scorer
	Sampler        Sampler
	Publisher      Publisher // optional
	MaxPoolSize    int
	WinnersPerHour int
	BestOfDayCount int
}

// Engine runs the hourly selection: filter, score, rank, persist. The (date,
// hour) pair is always passed in by the caller, so every run is constructible
// in tests without touching a clock.
type Engine struct {
	store          Store
	scorer         Scorer
	sampler        Sampler
	publisher      Publisher
	maxPoolSize    int
	winnersPerHour int
	bestOfDayCount int
}

// NewEngine creates a new selection engine
func NewEngine(opts Options) *Engine {
	return &Engine{
		store:          opts.Store,
		scorer:         opts.Scorer,
		sampler:        opts.Sampler,
		publisher:      opts.Publisher,
		maxPoolSize:    opts.MaxPoolSize,
		winnersPerHour: opts.WinnersPerHour,
		bestOfDayCount: opts.BestOfDayCount,
	}
}

// Run executes one hourly selection for (date, hour). Safe to invoke more
// than once for the same slot: a completed slot causes an immediate no-op.
func (e *Engine) Run(ctx context.Context, date time.Time, hour int) error {
	day := date.UTC().Format("2006-01-02")

	// Lock-free fast path; the authoritative check is repeated under the
	// slot row lock at commit time.
	done, err := e.store.SlotCompleted(date, hour)
	if err != nil {
		return fmt.Errorf("failed to check slot status: %w", err)
	}
	if done {
		log.Printf("Slot %s hour %d already completed, skipping", day, hour)
		metrics.RunsSkipped.Inc()
		return nil
	}

	eligible, err := e.store.EligibleSymbols(date)
	if err != nil {
		return fmt.Errorf("failed to list eligible candidates: %w", err)
	}
	if len(eligible) == 0 {
		// Not an error: zero winners, zero writes, slot stays open
		log.Printf("No eligible candidates for %s hour %d", day, hour)
		return nil
	}

	pool := e.sampler.Sample(eligible, e.maxPoolSize)
	log.Printf("Scoring %d of %d eligible candidates for %s hour %d", len(pool), len(eligible), day, hour)

	// Scoring happens before any transaction opens so scorer latency never
	// holds the slot lock
	scored := make([]models.ScoredCandidate, 0, len(pool))
	for _, symbol := range pool {
		sc, err := e.scorer.Score(ctx, symbol)
		if err != nil {
			log.Printf("Error scoring %s: %v (dropping from ranking)", symbol, err)
			metrics.ScorerFailures.Inc()
			continue
		}
		sc.Symbol = symbol
		scored = append(scored, *sc)
	}

	if len(scored) == 0 {
		log.Printf("No candidates scored for %s hour %d, leaving slot open", day, hour)
		return nil
	}

	winners := SelectWinners(scored, e.winnersPerHour)

	start := time.Now()
	err = e.store.CommitSlotRun(date, hour, scored, winners)
	switch {
	case errors.Is(err, database.ErrSlotCompleted):
		// Lost the race to a concurrent run; nothing was written
		log.Printf("Slot %s hour %d completed by a concurrent run, skipping", day, hour)
		metrics.RunsSkipped.Inc()
		return nil
	case errors.Is(err, database.ErrDuplicateWinner):
		// Whole batch rolled back, slot stays retryable
		metrics.RunConflicts.Inc()
		return fmt.Errorf("slot %s hour %d aborted: %w", day, hour, err)
	case err != nil:
		return fmt.Errorf("failed to commit slot run: %w", err)
	}
	metrics.PersistDuration.Observe(time.Since(start).Seconds())

	metrics.RunsCompleted.Inc()
	metrics.WinnersWritten.Add(float64(len(winners)))
	log.Printf("Slot %s hour %d finalized with %d winners: %v", day, hour, len(winners), winners)

	if e.publisher != nil {
		if err := e.publisher.PublishPicksSelected(ctx, date, hour, winners); err != nil {
			// Publishing is best-effort; the run already committed
			log.Printf("Error publishing picks event for %s hour %d: %v", day, hour, err)
		}
	}

	return nil
}

// MaterializeDay snapshots the top signals of a date as its best-of-day set.
// Re-runnable: the snapshot is recomputed from the date's committed rows.
func (e *Engine) MaterializeDay(date time.Time) error {
	day := date.UTC().Format("2006-01-02")

	if err := e.store.MaterializeBestOfDay(date, e.bestOfDayCount); err != nil {
		return fmt.Errorf("failed to materialize best of day for %s: %w", day, err)
	}

	log.Printf("Materialized best-of-day snapshot for %s", day)
	return nil
}
