package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/chipledger/internal/app"
)

const defaultMaxLimit = 100

// Access headers.
const (
	HeaderRoomPassword = "X-Room-Password"
	bearerPrefix       = "Bearer "
)

// RoomsHandler serves the per-room analytics views under /rooms/{room}/{view}.
type RoomsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewRoomsHandler creates a new rooms handler.
func NewRoomsHandler(deps Dependencies, maxLimit int) *RoomsHandler {
	if maxLimit <= 0 {
		maxLimit = defaultMaxLimit
	}
	return &RoomsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleRoom dispatches GET /rooms/{room}/{report|series|leaderboard|metrics}.
func (h *RoomsHandler) HandleRoom(w http.ResponseWriter, r *http.Request) {
	room, view, ok := splitRoomPath(r.URL.Path)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%w: %s", ErrUnknownView, r.URL.Path))
		return
	}
	endpoint := "room_" + view
	MetricsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, room, view)
	}, endpoint)(w, r)
}

func (h *RoomsHandler) serve(w http.ResponseWriter, r *http.Request, room, view string) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	req, err := h.request(r, room, view)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	ctx := r.Context()
	var out any
	switch view {
	case service.KindReport:
		out, err = h.deps.Report(ctx, req)
	case service.KindSeries:
		out, err = h.deps.Series(ctx, req)
	case service.KindLeaderboard:
		out, err = h.deps.Leaderboard(ctx, req)
	case service.KindMetrics:
		out, err = h.deps.Metrics(ctx, req)
	}
	if err != nil {
		status, code := classify(err)
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RoomsHandler) request(r *http.Request, room, view string) (service.Request, error) {
	q := r.URL.Query()
	password := r.Header.Get(HeaderRoomPassword)
	if password == "" {
		password = q.Get("password")
	}
	token := ""
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, bearerPrefix) {
		token = strings.TrimSpace(strings.TrimPrefix(auth, bearerPrefix))
	}

	req := service.Request{
		RoomID:   room,
		SeasonID: q.Get("season"),
		Access:   h.deps.Access(password, token),
	}
	if view != service.KindLeaderboard && view != service.KindReport {
		return req, nil
	}

	if raw := q.Get("min_games"); raw != "" {
		k, err := intParam(raw, 0, -1)
		if err != nil {
			return req, fmt.Errorf("%w: min_games: %w", ErrBadRequest, err)
		}
		req.MinGames = &k
	}
	var err error
	if req.Limit, err = intParam(q.Get("limit"), 1, h.maxLimit); err != nil {
		return req, fmt.Errorf("%w: limit: %w", ErrBadRequest, err)
	}
	return req, nil
}

// intParam parses an optional integer within [lo, hi]; hi < 0 means unbounded.
// An empty value yields 0.
func intParam(raw string, lo, hi int) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	if n < lo || (hi >= 0 && n > hi) {
		if hi >= 0 {
			return 0, fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return 0, fmt.Errorf("must be at least %d", lo)
	}
	return n, nil
}

func splitRoomPath(path string) (room, view string, ok bool) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, "/rooms/"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		return "", "", false
	}
	switch parts[1] {
	case service.KindReport, service.KindSeries, service.KindLeaderboard, service.KindMetrics:
		return parts[0], parts[1], true
	}
	return "", "", false
}
