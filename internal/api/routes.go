package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check and metrics
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Read model: date-scoped picks, strictly read-only
	api.HandleFunc("/picks/dates", handler.GetAvailableDates).Methods("GET")
	api.HandleFunc("/picks/{date}", handler.GetBestForDate).Methods("GET")
	api.HandleFunc("/picks/{date}/{hour}", handler.GetTopForHour).Methods("GET")

	// Candidate pool administration
	api.HandleFunc("/candidates", handler.GetAllCandidates).Methods("GET")
	api.HandleFunc("/candidates", handler.AddCandidate).Methods("POST")
	api.HandleFunc("/candidates/sectors", handler.GetSectors).Methods("GET")
	api.HandleFunc("/candidates/{symbol}", handler.GetCandidate).Methods("GET")
	api.HandleFunc("/candidates/{symbol}", handler.RemoveCandidate).Methods("DELETE")

	return r
}
