// Package api exposes the matching engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	service "github.com/okian/skillswap/internal/app"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/validation"
	"github.com/okian/skillswap/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	SuggestMatches(ctx context.Context, requesterID string, filters model.Filters, limit int) ([]model.RankedMatch, error)
	RecordDecision(ctx context.Context, userID, targetID, decision string) (model.MatchInteraction, error)
	Unblock(ctx context.Context, userID, targetID string) error
	ListFavorites(ctx context.Context, userID string) ([]model.RankedMatch, error)
	RunBatchGeneration(ctx context.Context) (model.BatchStats, error)
	PurgeStaleInteractions(ctx context.Context) (int64, error)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() service.Stats
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit caps requests per client IP per minute; 0 disables it.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		if perMinute >= 0 {
			s.rateLimit = perMinute
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// Server wires HTTP routes for the matching API.
type Server struct {
	deps      Dependencies
	stats     StatsProvider
	rateLimit int
	log       logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, stats StatsProvider, opts ...Option) *Server {
	s := &Server{deps: deps, stats: stats, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router with every route attached.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", handleHealth)
	r.Handle("/metrics", metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))
		}
		r.Get("/stats", s.handleStats)

		r.Group(func(r chi.Router) {
			r.Use(Identity)
			r.Get("/matches", s.handleSuggest)
			r.Post("/matches/{targetID}/decision", s.handleDecision)
			r.Delete("/matches/{targetID}/block", s.handleUnblock)
			r.Get("/favorites", s.handleFavorites)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/batch", s.handleBatch)
			r.Post("/retention", s.handleRetention)
		})
	})
	return r
}

type errorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := errorResponse{Code: code, Message: http.StatusText(status)}
	if err != nil {
		resp.Message = err.Error()
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	writeJSON(w, status, resp)
}

// writeServiceError translates engine errors into HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, model.ErrInvalidDecision), errors.Is(err, model.ErrInvalidFilters), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	default:
		s.log.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
