package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/trogers1052/signal-picks-service/internal/models"
)

// SlotCompleted reports whether the generation slot for (date, hour) has
// already been finalized. This is the lock-free fast path consulted before
// any scoring work; the authoritative check happens again under the row lock
// inside CommitSlotRun.
func (db *DB) SlotCompleted(date time.Time, hour int) (bool, error) {
	dayStart, _ := dayBounds(date)

	query := `SELECT completed_at FROM generation_slots WHERE slot_date = $1 AND slot_hour = $2`
	var completedAt sql.NullTime
	err := db.conn.QueryRow(query, dayStart, hour).Scan(&completedAt)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check slot %s hour %d: %w", dayStart.Format("2006-01-02"), hour, err)
	}
	return completedAt.Valid, nil
}

// GetSlot retrieves the generation slot for (date, hour), if one exists
func (db *DB) GetSlot(date time.Time, hour int) (*models.GenerationSlot, error) {
	dayStart, _ := dayBounds(date)

	query := `
		SELECT id, slot_date, slot_hour, completed_at, created_at
		FROM generation_slots
		WHERE slot_date = $1 AND slot_hour = $2
	`

	var slot models.GenerationSlot
	var completedAt sql.NullTime
	err := db.conn.QueryRow(query, dayStart, hour).Scan(
		&slot.ID, &slot.SlotDate, &slot.SlotHour, &completedAt, &slot.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("slot not found: %s hour %d", dayStart.Format("2006-01-02"), hour)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}

	if completedAt.Valid {
		slot.CompletedAt = &completedAt.Time
	}
	return &slot, nil
}
