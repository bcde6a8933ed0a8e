package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/trogers1052/signal-picks-service/internal/models"
)

// CreateCandidate inserts a new candidate into the pool
func (db *DB) CreateCandidate(c *models.Candidate) error {
	query := `
		INSERT INTO candidates (symbol, name, sector, industry, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRow(query,
		c.Symbol, c.Name, c.Sector, c.Industry, c.Active, now,
	).Scan(&c.ID)

	if err != nil {
		return fmt.Errorf("failed to create candidate %s: %w", c.Symbol, err)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// GetCandidate retrieves a candidate by symbol
func (db *DB) GetCandidate(symbol string) (*models.Candidate, error) {
	query := `
		SELECT id, symbol, name, sector, industry, active, created_at, updated_at
		FROM candidates
		WHERE symbol = $1
	`

	var c models.Candidate
	var sector, industry sql.NullString
	err := db.conn.QueryRow(query, symbol).Scan(
		&c.ID, &c.Symbol, &c.Name, &sector, &industry, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("candidate not found: %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate %s: %w", symbol, err)
	}

	if sector.Valid {
		c.Sector = sector.String
	}
	if industry.Valid {
		c.Industry = industry.String
	}
	return &c, nil
}

// GetAllCandidates returns all candidates in the pool
func (db *DB) GetAllCandidates() ([]*models.Candidate, error) {
	query := `
		SELECT id, symbol, name, sector, industry, active, created_at, updated_at
		FROM candidates
		ORDER BY symbol
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*models.Candidate
	for rows.Next() {
		var c models.Candidate
		var sector, industry sql.NullString
		err := rows.Scan(
			&c.ID, &c.Symbol, &c.Name, &sector, &industry, &c.Active, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		if sector.Valid {
			c.Sector = sector.String
		}
		if industry.Valid {
			c.Industry = industry.String
		}
		candidates = append(candidates, &c)
	}

	return candidates, nil
}

// DeactivateCandidate marks a candidate inactive without deleting its history
func (db *DB) DeactivateCandidate(symbol string) error {
	query := `UPDATE candidates SET active = false, updated_at = NOW() WHERE symbol = $1`
	result, err := db.conn.Exec(query, symbol)
	if err != nil {
		return fmt.Errorf("failed to deactivate candidate %s: %w", symbol, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("candidate not found: %s", symbol)
	}
	return nil
}

// UpsertCandidateBasic inserts or reactivates a candidate with just symbol and name.
// This is used when a new symbol is added to the watchlist.
func (db *DB) UpsertCandidateBasic(symbol, name string) error {
	query := `
		INSERT INTO candidates (symbol, name, active, created_at, updated_at)
		VALUES ($1, $2, true, NOW(), NOW())
		ON CONFLICT (symbol) DO UPDATE SET
			name = CASE WHEN candidates.name = '' OR candidates.name = candidates.symbol THEN EXCLUDED.name ELSE candidates.name END,
			active = true,
			updated_at = NOW()
	`

	_, err := db.conn.Exec(query, symbol, name)
	if err != nil {
		return fmt.Errorf("failed to upsert candidate %s: %w", symbol, err)
	}
	return nil
}

// UpsertCandidateWithSector inserts or reactivates a candidate including sector metadata
func (db *DB) UpsertCandidateWithSector(symbol, name, sector, industry string) error {
	query := `
		INSERT INTO candidates (symbol, name, sector, industry, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, true, NOW(), NOW())
		ON CONFLICT (symbol) DO UPDATE SET
			name = CASE WHEN candidates.name = '' OR candidates.name = candidates.symbol THEN EXCLUDED.name ELSE candidates.name END,
			sector = EXCLUDED.sector,
			industry = EXCLUDED.industry,
			active = true,
			updated_at = NOW()
	`

	_, err := db.conn.Exec(query, symbol, name, sector, industry)
	if err != nil {
		return fmt.Errorf("failed to upsert candidate %s: %w", symbol, err)
	}
	return nil
}

// CandidateExists checks if a candidate exists in the pool
func (db *DB) CandidateExists(symbol string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM candidates WHERE symbol = $1)`
	var exists bool
	err := db.conn.QueryRow(query, symbol).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check candidate existence: %w", err)
	}
	return exists, nil
}

// GetSectors returns the distinct sectors present in the candidate pool
func (db *DB) GetSectors() ([]string, error) {
	query := `
		SELECT DISTINCT sector
		FROM candidates
		WHERE sector IS NOT NULL AND sector != ''
		ORDER BY sector
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get sectors: %w", err)
	}
	defer rows.Close()

	var sectors []string
	for rows.Next() {
		var sector string
		if err := rows.Scan(&sector); err != nil {
			return nil, fmt.Errorf("failed to scan sector: %w", err)
		}
		sectors = append(sectors, sector)
	}

	return sectors, nil
}

// EligibleSymbols returns the active candidates that do not yet hold a valid
// signal for the given calendar date. A symbol may win at most once per day
// regardless of hour, so anything already validated that day is excluded.
func (db *DB) EligibleSymbols(date time.Time) ([]string, error) {
	dayStart, dayEnd := dayBounds(date)

	query := `
		SELECT c.symbol
		FROM candidates c
		WHERE c.active = true
		AND NOT EXISTS (
			SELECT 1 FROM signals s
			WHERE s.symbol = c.symbol
			AND s.is_valid = true
			AND (s.produced_date = $1 OR (s.created_at >= $2 AND s.created_at < $3))
		)
		ORDER BY c.symbol
	`

	rows, err := db.conn.Query(query, dayStart, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to get eligible symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	return symbols, nil
}

// dayBounds returns the UTC calendar boundaries [start, end) of a date
func dayBounds(date time.Time) (time.Time, time.Time) {
	d := date.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
