package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/validation"
)

const maxBodyBytes = 4 << 10

type matchesResponse struct {
	Matches []model.RankedMatch `json:"matches"`
}

// handleSuggest handles GET /v1/matches.
//
// Query parameters: category, level and day may repeat or hold
// comma-separated lists; location, min_rating, from, to and limit are single.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters, err := parseFilters(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be a non-negative integer", ErrBadRequest))
			return
		}
	}

	matches, err := s.deps.SuggestMatches(r.Context(), UserID(r.Context()), filters, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matchesResponse{Matches: matches})
}

func parseFilters(q url.Values) (model.Filters, error) {
	f := model.Filters{
		Categories:    list(q, "category"),
		Location:      strings.TrimSpace(q.Get("location")),
		AvailableFrom: q.Get("from"),
		AvailableTo:   q.Get("to"),
	}
	for _, l := range list(q, "level") {
		f.ProficiencyLevels = append(f.ProficiencyLevels, model.ProficiencyLevel(strings.ToUpper(l)))
	}
	for _, d := range list(q, "day") {
		day, err := strconv.Atoi(d)
		if err != nil {
			return f, fmt.Errorf("%w: day %q is not a number", ErrBadRequest, d)
		}
		f.AvailabilityDays = append(f.AvailabilityDays, day)
	}
	if v := q.Get("min_rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("%w: min_rating %q is not a number", ErrBadRequest, v)
		}
		f.MinRating = rating
	}
	return f, nil
}

func list(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// handleDecision handles POST /v1/matches/{targetID}/decision.
func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	var req validation.Decision
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	rec, err := s.deps.RecordDecision(r.Context(), UserID(r.Context()), chi.URLParam(r, "targetID"), req.Decision)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleUnblock handles DELETE /v1/matches/{targetID}/block.
func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Unblock(r.Context(), UserID(r.Context()), chi.URLParam(r, "targetID")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFavorites handles GET /v1/favorites.
func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := s.deps.ListFavorites(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matchesResponse{Matches: favs})
}
