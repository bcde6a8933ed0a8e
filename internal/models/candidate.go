package models

import "time"

// Candidate represents an entity eligible to receive a pick in an hourly run.
// The active flag is maintained externally (watchlist events or the admin API);
// the selection engine only reads it.
type Candidate struct {
	ID        int       `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Sector    string    `json:"sector,omitempty"`
	Industry  string    `json:"industry,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
