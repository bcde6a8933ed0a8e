package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/trogers1052/signal-picks-service/internal/models"
	"github.com/trogers1052/signal-picks-service/internal/redis"
)

// Store defines the read operations the API serves. All of them are pure
// reads: nothing here can trigger a generation run.
type Store interface {
	Ping() error
	TopForHour(date time.Time, hour int) ([]*models.Signal, error)
	BestOfDayForDate(date time.Time) ([]*models.Signal, error)
	LiveBestForDate(date time.Time, limit int) ([]*models.Signal, error)
	AvailableBestOfDayDates() ([]time.Time, error)
	GetAllCandidates() ([]*models.Candidate, error)
	GetCandidate(symbol string) (*models.Candidate, error)
	UpsertCandidateBasic(symbol, name string) error
	DeactivateCandidate(symbol string) error
	GetSectors() ([]string, error)
}

const dateLayout = "2006-01-02"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store          Store
	cache          *redis.Client
	bestOfDayCount int
	now            func() time.Time
}

// NewHandler creates a new Handler. cache may be nil; reads then always hit
// the database.
func NewHandler(store Store, cache *redis.Client, bestOfDayCount int) *Handler {
	return &Handler{
		store:          store,
		cache:          cache,
		bestOfDayCount: bestOfDayCount,
		now:            time.Now,
	}
}

// GetTopForHour handles GET /picks/{date}/{hour}
func (h *Handler) GetTopForHour(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	date, err := time.Parse(dateLayout, vars["date"])
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	hour, err := parseHour(vars["hour"])
	if err != nil {
		http.Error(w, "invalid hour, expected 0-23", http.StatusBadRequest)
		return
	}

	signals, err := h.store.TopForHour(date, hour)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, emptyIfNil(signals))
}

// GetBestForDate handles GET /picks/{date}.
// Past dates are served from the materialized snapshot (cached, since a
// snapshot never changes once its day is over); the current date is ranked
// live from the valid signals written so far.
func (h *Handler) GetBestForDate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	date, err := time.Parse(dateLayout, vars["date"])
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	today := h.now().UTC().Format(dateLayout)
	if vars["date"] == today {
		signals, err := h.store.LiveBestForDate(date, h.bestOfDayCount)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, emptyIfNil(signals))
		return
	}

	if h.cache != nil {
		if cached, err := h.cache.GetBestOfDay(r.Context(), vars["date"]); err == nil {
			respondJSON(w, http.StatusOK, emptyIfNil(cached))
			return
		}
	}

	signals, err := h.store.BestOfDayForDate(date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.cache != nil && len(signals) > 0 {
		// Best effort; a failed cache write never fails the read
		_ = h.cache.SetBestOfDay(r.Context(), vars["date"], signals, 24*time.Hour)
	}

	respondJSON(w, http.StatusOK, emptyIfNil(signals))
}

// GetAvailableDates handles GET /picks/dates
func (h *Handler) GetAvailableDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.store.AvailableBestOfDayDates()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	formatted := make([]string, 0, len(dates))
	for _, d := range dates {
		formatted = append(formatted, d.UTC().Format(dateLayout))
	}

	respondJSON(w, http.StatusOK, formatted)
}

// GetAllCandidates handles GET /candidates
func (h *Handler) GetAllCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.store.GetAllCandidates()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, candidates)
}

// GetCandidate handles GET /candidates/{symbol}
func (h *Handler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := vars["symbol"]

	candidate, err := h.store.GetCandidate(symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, candidate)
}

// AddCandidate handles POST /candidates
func (h *Handler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		req.Name = req.Symbol
	}

	if err := h.store.UpsertCandidateBasic(req.Symbol, req.Name); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	candidate, err := h.store.GetCandidate(req.Symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, candidate)
}

// RemoveCandidate handles DELETE /candidates/{symbol}.
// Candidates are deactivated, never deleted, so signal history survives.
func (h *Handler) RemoveCandidate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := vars["symbol"]

	if err := h.store.DeactivateCandidate(symbol); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetSectors handles GET /candidates/sectors
func (h *Handler) GetSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.store.GetSectors()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, sectors)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  map[string]string{},
	}
	services := health["services"].(map[string]string)
	allHealthy := true

	// Check database
	if h.store != nil {
		if err := h.store.Ping(); err != nil {
			services["postgres"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			services["postgres"] = "healthy"
		}
	} else {
		services["postgres"] = "not configured"
		allHealthy = false
	}

	// Check Redis
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			services["redis"] = "unhealthy: " + err.Error()
		} else {
			services["redis"] = "healthy"
		}
	} else {
		services["redis"] = "not configured"
	}

	if !allHealthy {
		health["status"] = "degraded"
	}

	respondJSON(w, http.StatusOK, health)
}

func parseHour(raw string) (int, error) {
	hour, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("hour out of range: %d", hour)
	}
	return hour, nil
}

func emptyIfNil(signals []*models.Signal) []*models.Signal {
	if signals == nil {
		return []*models.Signal{}
	}
	return signals
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
