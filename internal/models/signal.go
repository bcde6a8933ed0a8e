package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Signal is a scored, persisted outcome for one candidate in one hourly run.
// ProducedDate and ProducedHour are set only on rows that won their slot;
// losing attempts keep them null and IsValid false. The best-of-day fields
// are set at most once per day by the materializer.
type Signal struct {
	ID            int             `json:"id"`
	Symbol        string          `json:"symbol"`
	Score         float64         `json:"score"`
	Price         decimal.Decimal `json:"price"`
	ProducedDate  *time.Time      `json:"produced_date,omitempty"`
	ProducedHour  *int            `json:"produced_hour,omitempty"`
	IsValid       bool            `json:"is_valid"`
	IsBestOfDay   bool            `json:"is_best_of_day"`
	BestOfDayDate *time.Time      `json:"best_of_day_date,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ScoredCandidate is one candidate with the score the external scorer
// assigned to it during a run, before any row has been written.
type ScoredCandidate struct {
	Symbol string          `json:"symbol"`
	Score  float64         `json:"score"`
	Price  decimal.Decimal `json:"price"`
}

// GenerationSlot is the idempotency ledger row for one (date, hour) pair.
// A slot is created lazily on the first acquisition attempt, mutated exactly
// once to set CompletedAt, and never deleted.
type GenerationSlot struct {
	ID          int        `json:"id"`
	SlotDate    time.Time  `json:"slot_date"`
	SlotHour    int        `json:"slot_hour"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
