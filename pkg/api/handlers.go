package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rubiojr/gsuggest/pkg/coordinator"
	"github.com/rubiojr/gsuggest/pkg/core"
	"github.com/rubiojr/gsuggest/pkg/storage"
	"github.com/rubiojr/gsuggest/pkg/version"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// HandleSearch starts a round for the q parameter and answers immediately
// with its initial state.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	phrase := r.FormValue("q")

	round, err := s.coordinator.StartSearch(phrase)
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, "Invalid phrase", "Parameter 'q' must not be empty")
		return
	case errors.Is(err, coordinator.ErrClosed):
		s.writeError(w, http.StatusServiceUnavailable, "Shutting down", err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "Search failed", err.Error())
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/rounds/%d", round.Generation()))
	s.writeJSON(w, http.StatusAccepted, round.Snapshot())
}

func (s *Server) HandleCurrentRound(w http.ResponseWriter, r *http.Request) {
	round := s.coordinator.Current()
	if round == nil {
		s.writeError(w, http.StatusNotFound, "No round", "No search has been started yet")
		return
	}
	s.writeJSON(w, http.StatusOK, round.Snapshot())
}

func (s *Server) HandleRound(w http.ResponseWriter, r *http.Request) {
	generation, err := strconv.ParseUint(chi.URLParam(r, "generation"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid generation", "Generation must be a positive integer")
		return
	}

	round, err := s.coordinator.Round(generation)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Round not found", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, round.Snapshot())
}

func (s *Server) HandleListRegions(w http.ResponseWriter, r *http.Request) {
	endpoints := s.coordinator.Catalog().List()
	regions := make([]RegionResponse, len(endpoints))
	for i, ep := range endpoints {
		regions[i] = RegionResponse{ID: ep.RegionID, Template: ep.RequestTemplate}
	}

	s.writeJSON(w, http.StatusOK, ListRegionsResponse{
		Regions: regions,
		Count:   len(regions),
	})
}

func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusServiceUnavailable, "History disabled", "No history database configured")
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid limit", err.Error())
		return
	}

	rounds, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to load history", err.Error())
		return
	}
	if rounds == nil {
		rounds = []storage.RoundRecord{}
	}

	s.writeJSON(w, http.StatusOK, HistoryResponse{
		Rounds: rounds,
		Count:  len(rounds),
		Limit:  limit,
	})
}

func (s *Server) HandleHistorySearch(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusServiceUnavailable, "History disabled", "No history database configured")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "Missing query parameter", "Query parameter 'q' is required")
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid limit", err.Error())
		return
	}

	hits, err := s.history.Search(r.Context(), query, limit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Search failed", err.Error())
		return
	}
	if hits == nil {
		hits = []storage.SuggestionHit{}
	}

	s.writeJSON(w, http.StatusOK, HistorySearchResponse{
		Query: query,
		Hits:  hits,
		Count: len(hits),
	})
}

func (s *Server) HandleHistoryRound(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusServiceUnavailable, "History disabled", "No history database configured")
		return
	}

	rec, err := s.history.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Round not found", err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to load round", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
		Regions:   s.coordinator.Catalog().Size(),
		Listeners: s.hub.Size(),
	})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return limit, nil
}
