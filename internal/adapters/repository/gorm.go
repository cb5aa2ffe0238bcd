package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/okian/chipledger/internal/domain/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type roomRow struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	PasswordHash string
	DefaultBuyIn float64
}

func (roomRow) TableName() string { return "rooms" }

type seasonRow struct {
	ID     string `gorm:"primaryKey"`
	RoomID string `gorm:"index;not null"`
	Name   string
	Start  time.Time `gorm:"column:starts_at"`
}

func (seasonRow) TableName() string { return "seasons" }

type playerRow struct {
	ID     string `gorm:"primaryKey"`
	RoomID string `gorm:"index;not null"`
	Name   string `gorm:"not null"`
}

func (playerRow) TableName() string { return "players" }

type gameRow struct {
	ID        string    `gorm:"primaryKey"`
	RoomID    string    `gorm:"index;not null"`
	SeasonID  string    `gorm:"index"`
	Date      time.Time `gorm:"column:played_at;index;not null"`
	BuyInSize float64
}

func (gameRow) TableName() string { return "games" }

type scoreRow struct {
	GameID   string `gorm:"primaryKey"`
	PlayerID string `gorm:"primaryKey"`
	Buyins   float64
	Stack    float64
}

func (scoreRow) TableName() string { return "scores" }

// GormStore is a ReadWriter backed by any GORM dialector.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) a SQLite database and migrates the schema.
// ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, dsn string, opts ...Option) (*GormStore, error) {
	o := newOptions(opts)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: o.gormLogger()})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	// SQLite serializes writers; one connection also keeps :memory: shared.
	sqlDB.SetMaxOpenConns(1)
	return NewGormStore(ctx, db)
}

// NewGormStore wraps db and migrates the schema.
func NewGormStore(ctx context.Context, db *gorm.DB) (*GormStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&roomRow{}, &seasonRow{}, &playerRow{}, &gameRow{}, &scoreRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) upsert(ctx context.Context, row any) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error
}

func (s *GormStore) exists(ctx context.Context, row any, id string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(row).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// PutRoom inserts or replaces a room.
func (s *GormStore) PutRoom(ctx context.Context, r model.Room) error {
	if err := checkRoom(r); err != nil {
		return err
	}
	return s.upsert(ctx, &roomRow{ID: r.ID, Name: r.Name, PasswordHash: r.PasswordHash, DefaultBuyIn: r.DefaultBuyIn})
}

// PutSeason inserts or replaces a season.
func (s *GormStore) PutSeason(ctx context.Context, season model.Season) error {
	if season.ID == "" {
		return fmt.Errorf("%w: season id is empty", ErrInvalidRecord)
	}
	ok, err := s.exists(ctx, &roomRow{}, season.RoomID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("season %s: %w", season.ID, ErrRoomNotFound)
	}
	return s.upsert(ctx, &seasonRow{ID: season.ID, RoomID: season.RoomID, Name: season.Name, Start: season.Start})
}

// PutPlayer inserts or renames a player.
func (s *GormStore) PutPlayer(ctx context.Context, p model.Player) error {
	if p.ID == "" {
		return fmt.Errorf("%w: player id is empty", ErrInvalidRecord)
	}
	ok, err := s.exists(ctx, &roomRow{}, p.RoomID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("player %s: %w", p.ID, ErrRoomNotFound)
	}
	return s.upsert(ctx, &playerRow{ID: p.ID, RoomID: p.RoomID, Name: p.Name})
}

// PutGame inserts or replaces a game.
func (s *GormStore) PutGame(ctx context.Context, g model.Game) error {
	if err := checkGame(g); err != nil {
		return err
	}
	ok, err := s.exists(ctx, &roomRow{}, g.RoomID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("game %s: %w", g.ID, ErrRoomNotFound)
	}
	if g.SeasonID != "" {
		var season seasonRow
		err := s.db.WithContext(ctx).Where("id = ? AND room_id = ?", g.SeasonID, g.RoomID).Take(&season).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("game %s: %w", g.ID, ErrSeasonNotFound)
		}
		if err != nil {
			return err
		}
	}
	return s.upsert(ctx, &gameRow{ID: g.ID, RoomID: g.RoomID, SeasonID: g.SeasonID, Date: g.Date.UTC(), BuyInSize: g.BuyInSize})
}

// PutScore inserts or replaces a score.
func (s *GormStore) PutScore(ctx context.Context, sc model.Score) error {
	if err := checkScore(sc); err != nil {
		return err
	}
	if ok, err := s.exists(ctx, &gameRow{}, sc.GameID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: score references unknown game %s", ErrInvalidRecord, sc.GameID)
	}
	if ok, err := s.exists(ctx, &playerRow{}, sc.PlayerID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: score references unknown player %s", ErrInvalidRecord, sc.PlayerID)
	}
	return s.upsert(ctx, &scoreRow{GameID: sc.GameID, PlayerID: sc.PlayerID, Buyins: sc.Buyins, Stack: sc.Stack})
}

func (s *GormStore) room(ctx context.Context, roomID string) (model.Room, error) {
	var row roomRow
	err := s.db.WithContext(ctx).Where("id = ?", roomID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Room{}, fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}
	if err != nil {
		return model.Room{}, err
	}
	return model.Room{ID: row.ID, Name: row.Name, PasswordHash: row.PasswordHash, DefaultBuyIn: row.DefaultBuyIn}, nil
}

// Room returns a room by id.
func (s *GormStore) Room(ctx context.Context, roomID string) (model.Room, error) {
	return s.room(ctx, roomID)
}

// Seasons lists a room's seasons ordered by start, then id.
func (s *GormStore) Seasons(ctx context.Context, roomID string) ([]model.Season, error) {
	if _, err := s.room(ctx, roomID); err != nil {
		return nil, err
	}
	var rows []seasonRow
	if err := s.db.WithContext(ctx).Where("room_id = ?", roomID).Order("starts_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Season, len(rows))
	for i, r := range rows {
		out[i] = model.Season{ID: r.ID, RoomID: r.RoomID, Name: r.Name, Start: r.Start}
	}
	return out, nil
}

// Snapshot loads the roster ordered by name and the games ordered by date.
func (s *GormStore) Snapshot(ctx context.Context, roomID, seasonID string) (model.Snapshot, error) {
	room, err := s.room(ctx, roomID)
	if err != nil {
		return model.Snapshot{}, err
	}
	db := s.db.WithContext(ctx)

	if seasonID != "" {
		var season seasonRow
		err := db.Where("id = ? AND room_id = ?", seasonID, roomID).Take(&season).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Snapshot{}, fmt.Errorf("season %s: %w", seasonID, ErrSeasonNotFound)
		}
		if err != nil {
			return model.Snapshot{}, err
		}
	}

	var players []playerRow
	if err := db.Where("room_id = ?", roomID).Order("name, id").Find(&players).Error; err != nil {
		return model.Snapshot{}, err
	}
	byID := make(map[string]model.Player, len(players))
	snap := model.Snapshot{Room: room, SeasonID: seasonID, Players: make([]model.Player, len(players))}
	for i, r := range players {
		p := model.Player{ID: r.ID, Name: r.Name, RoomID: r.RoomID}
		snap.Players[i] = p
		byID[p.ID] = p
	}

	q := db.Where("room_id = ?", roomID)
	if seasonID != "" {
		q = q.Where("season_id = ?", seasonID)
	}
	var games []gameRow
	if err := q.Order("played_at, id").Find(&games).Error; err != nil {
		return model.Snapshot{}, err
	}
	snap.Games = make([]model.GameRecord, len(games))
	if len(games) == 0 {
		return snap, nil
	}

	ids := make([]string, len(games))
	index := make(map[string]int, len(games))
	for i, g := range games {
		ids[i] = g.ID
		index[g.ID] = i
		snap.Games[i] = model.GameRecord{
			Game: model.Game{ID: g.ID, Date: g.Date, BuyInSize: g.BuyInSize, SeasonID: g.SeasonID, RoomID: g.RoomID},
			Players: []model.Player{},
			Scores:  []model.ScoreEntry{},
		}
	}

	var scores []scoreRow
	if err := db.Where("game_id IN ?", ids).Order("game_id, player_id").Find(&scores).Error; err != nil {
		return model.Snapshot{}, err
	}
	for _, sc := range scores {
		rec := &snap.Games[index[sc.GameID]]
		p := byID[sc.PlayerID]
		rec.Players = append(rec.Players, p)
		rec.Scores = append(rec.Scores, model.ScoreEntry{
			Score:  model.Score{GameID: sc.GameID, PlayerID: sc.PlayerID, Buyins: sc.Buyins, Stack: sc.Stack},
			Player: p,
		})
	}
	return snap, nil
}

// Count returns the number of rooms; errors count as zero.
func (s *GormStore) Count(ctx context.Context) int {
	var n int64
	if err := s.db.WithContext(ctx).Model(&roomRow{}).Count(&n).Error; err != nil {
		return 0
	}
	return int(n)
}
