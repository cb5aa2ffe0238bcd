// Package service composes the ledger analytics per request and implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/okian/chipledger/internal/adapters/repository"
	"github.com/okian/chipledger/internal/domain/anonymize"
	"github.com/okian/chipledger/internal/domain/leaderboard"
	"github.com/okian/chipledger/internal/domain/ledger"
	"github.com/okian/chipledger/internal/domain/model"
	"github.com/okian/chipledger/internal/domain/stats"
	"github.com/okian/chipledger/pkg/logger"
	"github.com/okian/chipledger/pkg/metrics"
)

// Report kinds, used as metric labels.
const (
	KindReport      = "report"
	KindSeries      = "series"
	KindLeaderboard = "leaderboard"
	KindMetrics     = "metrics"
)

// Request identifies the room view being asked for and who is asking.
type Request struct {
	RoomID   string
	SeasonID string
	Access   anonymize.Access

	// Tournament overrides. A nil MinGames or zero Limit keeps the service defaults.
	MinGames *int
	Limit    int
}

// Header is shared by every response.
type Header struct {
	Room       model.Room `json:"room"`
	SeasonID   string     `json:"season_id,omitempty"`
	Anonymized bool       `json:"anonymized"`
}

// Report is the full analytics view of a room.
type Report struct {
	Header
	Players     []model.Player      `json:"players"`
	Games       []model.GameRecord  `json:"games"`
	Series      []ledger.Point      `json:"series"`
	Leaderboard []leaderboard.Entry `json:"leaderboard"`
	Tournament  []leaderboard.Entry `json:"tournament"`
	Stats       []stats.PlayerStats `json:"stats"`
	Metrics     stats.Tables        `json:"metrics"`
	BiggestWin  *stats.PlayerStats  `json:"biggest_win,omitempty"`
}

// SeriesView is the running-total chart data of a room.
type SeriesView struct {
	Header
	Series []ledger.Point `json:"series"`
}

// LeaderboardView holds the overall ranking and the tournament cut.
type LeaderboardView struct {
	Header
	MinGames    int                 `json:"min_games"`
	Limit       int                 `json:"limit"`
	Leaderboard []leaderboard.Entry `json:"leaderboard"`
	Tournament  []leaderboard.Entry `json:"tournament"`
}

// MetricsView holds per-player statistics and the metric tables.
type MetricsView struct {
	Header
	Stats      []stats.PlayerStats `json:"stats"`
	Metrics    stats.Tables        `json:"metrics"`
	BiggestWin *stats.PlayerStats  `json:"biggest_win,omitempty"`
}

// Service implements the API dependencies for the ledger analytics.
type Service struct {
	mu sync.RWMutex

	store repository.Store

	// Configuration
	editorToken string
	minGames    int
	limit       int
	labelLayout string

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the snapshot store. Defaults to an empty MemoryStore.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEditorToken sets the bearer token that grants edit rights.
// An empty token disables edit access.
func WithEditorToken(token string) Option {
	return func(s *Service) {
		s.editorToken = token
	}
}

// WithTournamentMinGames sets K: a player needs more than K games to qualify.
func WithTournamentMinGames(k int) Option {
	return func(s *Service) {
		if k >= 0 {
			s.minGames = k
		}
	}
}

// WithTournamentLimit sets how many players the tournament view keeps.
func WithTournamentLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithLabelLayout sets the time layout of series labels.
func WithLabelLayout(layout string) Option {
	return func(s *Service) {
		if layout != "" {
			s.labelLayout = layout
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		minGames:    leaderboard.DefaultMinGames,
		limit:       leaderboard.DefaultLimit,
		labelLayout: ledger.DefaultLabelLayout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start prepares the service for serving requests.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Warn(ctx, "no store configured, using empty memory store")
	}

	rooms := s.store.Count(ctx)
	metrics.UpdateStoreRooms(rooms)

	s.started = true
	s.logger.Info(ctx, "ledger service started",
		logger.Int("rooms", rooms),
		logger.Int("tournamentMinGames", s.minGames),
		logger.Int("tournamentLimit", s.limit),
		logger.Bool("editorTokenSet", s.editorToken != ""),
	)
	return nil
}

// Stop releases the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close store", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "ledger service stopped")
}

// Access resolves the requester's rights from the supplied room password and
// bearer token.
func (s *Service) Access(password, token string) anonymize.Access {
	canEdit := s.editorToken != "" && token != "" &&
		subtle.ConstantTimeCompare([]byte(s.editorToken), []byte(token)) == 1
	return anonymize.Access{CanEdit: canEdit, Password: password}
}

// view is a snapshot ready for computation, already anonymized if required.
type view struct {
	header   Header
	snapshot model.Snapshot
	games    []model.GameRecord
}

func (s *Service) load(ctx context.Context, req Request) (view, error) {
	s.mu.RLock()
	store, started := s.store, s.started
	s.mu.RUnlock()
	if !started {
		return view{}, ErrNotStarted
	}
	if req.RoomID == "" {
		return view{}, fmt.Errorf("%w: room id is empty", ErrInvalidRequest)
	}
	if (req.MinGames != nil && *req.MinGames < 0) || req.Limit < 0 {
		return view{}, fmt.Errorf("%w: min games and limit must not be negative", ErrInvalidRequest)
	}

	start := time.Now()
	snap, err := store.Snapshot(ctx, req.RoomID, req.SeasonID)
	metrics.RecordStoreQuery("snapshot", float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordStoreError("snapshot")
		return view{}, fmt.Errorf("load room %s: %w", req.RoomID, err)
	}
	metrics.RecordSnapshotSize(len(snap.Games), len(snap.Players))

	anonymized := anonymize.Required(snap.Room, req.Access)
	if anonymized {
		snap = anonymize.NewMapping(snap.Players).Snapshot(snap)
		metrics.RecordReportAnonymized()
	}

	return view{
		header:   Header{Room: snap.Room, SeasonID: snap.SeasonID, Anonymized: anonymized},
		snapshot: snap,
		games:    ledger.SortGames(snap.Games),
	}, nil
}

func (s *Service) tournamentOptions(req Request) (int, int) {
	minGames, limit := s.minGames, s.limit
	if req.MinGames != nil {
		minGames = *req.MinGames
	}
	if req.Limit > 0 {
		limit = req.Limit
	}
	return minGames, limit
}

func (s *Service) done(ctx context.Context, kind string, req Request, v view, start time.Time) {
	metrics.RecordReportBuilt(kind)
	metrics.RecordReportBuildLatency(float64(time.Since(start).Microseconds()) / 1000)
	s.logger.Debug(ctx, "report built",
		logger.String("kind", kind),
		logger.String("room", req.RoomID),
		logger.String("season", req.SeasonID),
		logger.Int("games", len(v.games)),
		logger.Bool("anonymized", v.header.Anonymized),
		logger.Duration("elapsed", time.Since(start)),
	)
}

func biggestWin(all []stats.PlayerStats) *stats.PlayerStats {
	best, ok := stats.BiggestWin(all)
	if !ok {
		return nil
	}
	return &best
}

// Report builds every analytics output for a room.
func (s *Service) Report(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	v, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}
	roster := v.snapshot.Players
	totals := ledger.Accumulate(v.games, roster)
	minGames, limit := s.tournamentOptions(req)
	all := stats.Compute(v.games, roster)

	r := &Report{
		Header:      v.header,
		Players:     roster,
		Games:       v.games,
		Series:      ledger.Series(v.games, roster, ledger.WithLabelLayout(s.labelLayout)),
		Leaderboard: leaderboard.Overall(totals),
		Tournament:  leaderboard.Tournament(totals, leaderboard.WithMinGames(minGames), leaderboard.WithLimit(limit)),
		Stats:       all,
		Metrics:     stats.BuildTables(all),
		BiggestWin:  biggestWin(all),
	}
	s.done(ctx, KindReport, req, v, start)
	return r, nil
}

// Series builds the running-total chart of a room.
func (s *Service) Series(ctx context.Context, req Request) (*SeriesView, error) {
	start := time.Now()
	v, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}
	out := &SeriesView{
		Header: v.header,
		Series: ledger.Series(v.games, v.snapshot.Players, ledger.WithLabelLayout(s.labelLayout)),
	}
	s.done(ctx, KindSeries, req, v, start)
	return out, nil
}

// Leaderboard ranks a room's players overall and for the tournament view.
func (s *Service) Leaderboard(ctx context.Context, req Request) (*LeaderboardView, error) {
	start := time.Now()
	v, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}
	totals := ledger.Accumulate(v.games, v.snapshot.Players)
	minGames, limit := s.tournamentOptions(req)
	out := &LeaderboardView{
		Header:      v.header,
		MinGames:    minGames,
		Limit:       limit,
		Leaderboard: leaderboard.Overall(totals),
		Tournament:  leaderboard.Tournament(totals, leaderboard.WithMinGames(minGames), leaderboard.WithLimit(limit)),
	}
	s.done(ctx, KindLeaderboard, req, v, start)
	return out, nil
}

// Metrics computes per-player statistics and metric tables for a room.
func (s *Service) Metrics(ctx context.Context, req Request) (*MetricsView, error) {
	start := time.Now()
	v, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}
	all := stats.Compute(v.games, v.snapshot.Players)
	out := &MetricsView{
		Header:     v.header,
		Stats:      all,
		Metrics:    stats.BuildTables(all),
		BiggestWin: biggestWin(all),
	}
	s.done(ctx, KindMetrics, req, v, start)
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]interface{}{
		"started":            s.started,
		"tournamentMinGames": s.minGames,
		"tournamentLimit":    s.limit,
		"labelLayout":        s.labelLayout,
	}
	if s.started {
		rooms := s.store.Count(context.Background())
		out["rooms"] = rooms
		metrics.UpdateStoreRooms(rooms)
	}
	return out
}
