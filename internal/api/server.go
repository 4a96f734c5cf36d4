// internal/api/server.go

// Package api serves stored results to the dashboard: filtered listing,
// export in the delivery formats, and operational endpoints.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/valpere/KOLMetrics/internal/monitoring"
	"github.com/valpere/KOLMetrics/internal/output"
	"github.com/valpere/KOLMetrics/internal/store"
	"github.com/valpere/KOLMetrics/pkg/types"
)

// Server is the read-only results API.
type Server struct {
	store   store.Store
	exports *output.Manager
	health  *monitoring.HealthManager
	metrics *monitoring.MetricsManager
}

// NewServer wires the API. health and metrics may be nil; the
// corresponding endpoints degrade gracefully.
func NewServer(st store.Store, exports *output.Manager, health *monitoring.HealthManager, metrics *monitoring.MetricsManager) *Server {
	return &Server{
		store:   st,
		exports: exports,
		health:  health,
		metrics: metrics,
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	r.Handle("/health", s.healthHandler()).Methods("GET")
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	// /results must be registered last: gorilla/mux clears a recorded
	// method mismatch when a later route fails its path match, turning
	// the intended 405 for POST /results into a 404.
	api.HandleFunc("/results/export", s.exportResults).Methods("GET")
	api.HandleFunc("/results", s.listResults).Methods("GET")

	return r
}

func (s *Server) healthHandler() http.Handler {
	if s.health != nil {
		return s.health.Handler()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
}

// listResponse wraps a listing so the payload can grow fields without
// breaking consumers.
type listResponse struct {
	Results []types.StoredResult `json:"results"`
	Total   int                  `json:"total"`
}

func (s *Server) listResults(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	results, err := s.store.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("list results: %w", err))
		return
	}
	if results == nil {
		results = []types.StoredResult{}
	}

	writeJSON(w, http.StatusOK, listResponse{Results: results, Total: len(results)})
}

func (s *Server) exportResults(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	format, err := s.exports.Resolve(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	results, err := s.store.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("list results: %w", err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="kol_results.%s"`, format))
	if err := s.exports.Export(w, string(format), results); err != nil {
		// Headers are already sent; the truncated body is the best we
		// can signal at this point.
		return
	}
}

func filterFromQuery(r *http.Request) (types.ResultFilter, error) {
	q := r.URL.Query()

	filter := types.ResultFilter{
		Platform:   types.ParsePlatform(q.Get("platform")),
		Creator:    q.Get("creator"),
		CampaignID: q.Get("campaign_id"),
	}

	switch q.Get("order") {
	case "", "asc":
		filter.Order = types.OrderAscending
	case "desc":
		filter.Order = types.OrderDescending
	default:
		return filter, fmt.Errorf("invalid order %q, expected asc or desc", q.Get("order"))
	}

	return filter, nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
