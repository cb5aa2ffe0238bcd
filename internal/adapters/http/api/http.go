// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/chipledger/internal/adapters/repository"
	service "github.com/okian/chipledger/internal/app"
	"github.com/okian/chipledger/internal/domain/anonymize"
	"github.com/okian/chipledger/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Access resolves the requester's rights from a room password and bearer token.
	Access(password, token string) anonymize.Access

	Report(ctx context.Context, req service.Request) (*service.Report, error)
	Series(ctx context.Context, req service.Request) (*service.SeriesView, error)
	Leaderboard(ctx context.Context, req service.Request) (*service.LeaderboardView, error)
	Metrics(ctx context.Context, req service.Request) (*service.MetricsView, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	roomsHandler  *RoomsHandler
	logger        logger.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMaxLimit caps the limit query parameter of the leaderboard view.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.roomsHandler.maxLimit = n
		}
	}
}

// WithLogger sets the logger used by the request middleware.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		roomsHandler:  NewRoomsHandler(deps, defaultMaxLimit),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	log := s.logger.Named("http")
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/rooms/", RequestIDMiddleware(log, s.roomsHandler.HandleRoom))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps an upstream error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrRoomNotFound):
		return http.StatusNotFound, "room_not_found"
	case errors.Is(err, repository.ErrSeasonNotFound):
		return http.StatusNotFound, "season_not_found"
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
