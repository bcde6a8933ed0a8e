package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsCompleted counts hourly runs that committed and finalized a slot
	RunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "picks_runs_completed_total",
		Help: "Number of hourly selection runs that finalized their slot",
	})

	// RunsSkipped counts invocations that found the slot already completed
	RunsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "picks_runs_skipped_total",
		Help: "Number of invocations skipped because the slot was already completed",
	})

	// RunConflicts counts batches rolled back on a winner uniqueness conflict
	RunConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "picks_run_conflicts_total",
		Help: "Number of slot runs aborted by a duplicate-winner conflict",
	})

	// WinnersWritten counts valid signal rows committed
	WinnersWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "picks_winners_written_total",
		Help: "Number of winning signals committed",
	})

	// ScorerFailures counts candidates dropped because scoring failed
	ScorerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "picks_scorer_failures_total",
		Help: "Number of candidates dropped due to scorer errors",
	})

	// PersistDuration observes how long the commit transaction takes
	PersistDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "picks_persist_duration_seconds",
		Help:    "Duration of the slot commit transaction",
		Buckets: prometheus.DefBuckets,
	})
)
