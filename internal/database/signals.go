package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/signal-picks-service/internal/models"
)

var (
	// ErrSlotCompleted is returned when the slot for (date, hour) was already
	// finalized by another run. The caller must make no further writes.
	ErrSlotCompleted = errors.New("generation slot already completed")

	// ErrDuplicateWinner is returned when committing a winner would leave two
	// valid signals for the same symbol on the same date. The whole batch is
	// rolled back and the slot stays retryable.
	ErrDuplicateWinner = errors.New("winner already holds a valid signal for this date")
)

// uniqueViolation is the Postgres error code for unique constraint conflicts
const uniqueViolation = "23505"

// CommitSlotRun writes the outcome of one hourly run in a single transaction:
// it acquires the (date, hour) ledger row under an exclusive row lock, writes
// a signal row for every scored candidate (winners valid, losers invalid) and
// finalizes the slot. Everything commits together or not at all.
//
// Scoring has already happened by the time this is called, so the lock is
// held only for the duration of the writes.
func (db *DB) CommitSlotRun(date time.Time, hour int, scored []models.ScoredCandidate, winners []string) error {
	dayStart, dayEnd := dayBounds(date)

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Create the ledger row lazily, then lock it. Concurrent runs for the
	// same slot serialize here; the loser blocks until the winner commits
	// and then observes completed_at set.
	_, err = tx.Exec(
		`INSERT INTO generation_slots (slot_date, slot_hour, created_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (slot_date, slot_hour) DO NOTHING`,
		dayStart, hour,
	)
	if err != nil {
		return fmt.Errorf("failed to create generation slot: %w", err)
	}

	var slotID int
	var completedAt sql.NullTime
	err = tx.QueryRow(
		`SELECT id, completed_at FROM generation_slots WHERE slot_date = $1 AND slot_hour = $2 FOR UPDATE`,
		dayStart, hour,
	).Scan(&slotID, &completedAt)
	if err != nil {
		return fmt.Errorf("failed to lock generation slot: %w", err)
	}
	if completedAt.Valid {
		return ErrSlotCompleted
	}

	// Portable enforcement of at-most-one-valid-signal-per-symbol-per-date:
	// check before inserting rather than relying on an engine-specific
	// partial constraint. The partial unique index in the schema is only a
	// backstop.
	if len(winners) > 0 {
		var conflicts int
		err = tx.QueryRow(
			`SELECT COUNT(*) FROM signals
			 WHERE is_valid = true AND symbol = ANY($1)
			 AND (produced_date = $2 OR (created_at >= $3 AND created_at < $4))`,
			pq.Array(winners), dayStart, dayStart, dayEnd,
		).Scan(&conflicts)
		if err != nil {
			return fmt.Errorf("failed to check winner conflicts: %w", err)
		}
		if conflicts > 0 {
			return ErrDuplicateWinner
		}
	}

	winnerSet := make(map[string]bool, len(winners))
	for _, symbol := range winners {
		winnerSet[symbol] = true
	}

	insertQuery := `
		INSERT INTO signals (symbol, score, price, produced_date, produced_hour, is_valid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now().UTC()
	for _, sc := range scored {
		var producedDate interface{}
		var producedHour interface{}
		isValid := winnerSet[sc.Symbol]
		if isValid {
			producedDate = dayStart
			producedHour = hour
		}

		_, err := tx.Exec(insertQuery, sc.Symbol, sc.Score, sc.Price, producedDate, producedHour, isValid, now)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return ErrDuplicateWinner
			}
			return fmt.Errorf("failed to insert signal %s: %w", sc.Symbol, err)
		}
	}

	_, err = tx.Exec(`UPDATE generation_slots SET completed_at = $1 WHERE id = $2`, now, slotID)
	if err != nil {
		return fmt.Errorf("failed to finalize generation slot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit slot run: %w", err)
	}

	return nil
}

const signalColumns = `id, symbol, score, price, produced_date, produced_hour, is_valid, is_best_of_day, best_of_day_date, created_at`

// TopForHour returns the valid signals for the exact (date, hour) slot
func (db *DB) TopForHour(date time.Time, hour int) ([]*models.Signal, error) {
	dayStart, _ := dayBounds(date)

	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE is_valid = true AND produced_date = $1 AND produced_hour = $2
		ORDER BY score DESC, symbol ASC
	`

	rows, err := db.conn.Query(query, dayStart, hour)
	if err != nil {
		return nil, fmt.Errorf("failed to get signals for hour: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// BestOfDayForDate returns the materialized best-of-day snapshot for a date.
// The created_at window is applied on top of the snapshot flags so a row
// whose flags were set incorrectly upstream can never leak across dates.
func (db *DB) BestOfDayForDate(date time.Time) ([]*models.Signal, error) {
	dayStart, dayEnd := dayBounds(date)

	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE is_best_of_day = true AND best_of_day_date = $1
		AND created_at >= $2 AND created_at < $3
		ORDER BY score DESC, symbol ASC
	`

	rows, err := db.conn.Query(query, dayStart, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to get best of day: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// LiveBestForDate ranks the valid signals created on a date and returns the
// top N. Used for the current date, before any snapshot exists; nothing is
// persisted.
func (db *DB) LiveBestForDate(date time.Time, limit int) ([]*models.Signal, error) {
	dayStart, dayEnd := dayBounds(date)

	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE is_valid = true AND created_at >= $1 AND created_at < $2
		ORDER BY score DESC, symbol ASC
		LIMIT $3
	`

	rows, err := db.conn.Query(query, dayStart, dayEnd, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get live best of day: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// AvailableBestOfDayDates returns the dates for which a best-of-day snapshot
// exists, newest first
func (db *DB) AvailableBestOfDayDates() ([]time.Time, error) {
	query := `
		SELECT DISTINCT best_of_day_date
		FROM signals
		WHERE is_best_of_day = true AND best_of_day_date IS NOT NULL
		ORDER BY best_of_day_date DESC
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get best of day dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		dates = append(dates, date)
	}

	return dates, nil
}

// MaterializeBestOfDay snapshots the top N valid signals of a date as its
// best-of-day set. The date's flags are cleared and recomputed in one
// transaction, so re-running converges on the same result and picks up any
// hours that completed after an earlier run.
func (db *DB) MaterializeBestOfDay(date time.Time, topN int) error {
	dayStart, dayEnd := dayBounds(date)

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE signals SET is_best_of_day = false, best_of_day_date = NULL WHERE best_of_day_date = $1`,
		dayStart,
	)
	if err != nil {
		return fmt.Errorf("failed to clear best of day flags: %w", err)
	}

	// produced_date is authoritative; created_at covers rows missing it
	_, err = tx.Exec(
		`UPDATE signals SET is_best_of_day = true, best_of_day_date = $1
		 WHERE id IN (
			SELECT id FROM signals
			WHERE is_valid = true
			AND (produced_date = $2 OR (produced_date IS NULL AND created_at >= $3 AND created_at < $4))
			ORDER BY score DESC, symbol ASC
			LIMIT $5
		 )`,
		dayStart, dayStart, dayStart, dayEnd, topN,
	)
	if err != nil {
		return fmt.Errorf("failed to mark best of day: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit best of day snapshot: %w", err)
	}

	return nil
}

func scanSignals(rows *sql.Rows) ([]*models.Signal, error) {
	var signals []*models.Signal
	for rows.Next() {
		var s models.Signal
		var price sql.NullString
		var producedDate, bestOfDayDate sql.NullTime
		var producedHour sql.NullInt64

		err := rows.Scan(
			&s.ID, &s.Symbol, &s.Score, &price, &producedDate, &producedHour,
			&s.IsValid, &s.IsBestOfDay, &bestOfDayDate, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}

		if price.Valid {
			s.Price, _ = decimal.NewFromString(price.String)
		}
		if producedDate.Valid {
			s.ProducedDate = &producedDate.Time
		}
		if producedHour.Valid {
			h := int(producedHour.Int64)
			s.ProducedHour = &h
		}
		if bestOfDayDate.Valid {
			s.BestOfDayDate = &bestOfDayDate.Time
		}
		signals = append(signals, &s)
	}

	return signals, nil
}
