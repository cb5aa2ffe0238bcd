package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/chipledger/internal/domain/model"
)

// MemoryStore is an in-memory ReadWriter. Slices returned by Snapshot are
// fresh copies; callers may keep them.
type MemoryStore struct {
	mu sync.RWMutex

	rooms     map[string]model.Room
	roomOrder []string

	seasons map[string]model.Season
	players map[string]model.Player
	games   map[string]model.Game

	// per-room insertion order
	roomPlayers map[string][]string
	roomGames   map[string][]string

	// scores[gameID][playerID], scoreOrder[gameID] keeps insertion order
	scores     map[string]map[string]model.Score
	scoreOrder map[string][]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:       make(map[string]model.Room),
		seasons:     make(map[string]model.Season),
		players:     make(map[string]model.Player),
		games:       make(map[string]model.Game),
		roomPlayers: make(map[string][]string),
		roomGames:   make(map[string][]string),
		scores:      make(map[string]map[string]model.Score),
		scoreOrder:  make(map[string][]string),
	}
}

// PutRoom inserts or replaces a room.
func (s *MemoryStore) PutRoom(_ context.Context, r model.Room) error {
	if err := checkRoom(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[r.ID]; !ok {
		s.roomOrder = append(s.roomOrder, r.ID)
	}
	s.rooms[r.ID] = r
	return nil
}

// PutSeason inserts or replaces a season of an existing room.
func (s *MemoryStore) PutSeason(_ context.Context, season model.Season) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if season.ID == "" {
		return fmt.Errorf("%w: season id is empty", ErrInvalidRecord)
	}
	if _, ok := s.rooms[season.RoomID]; !ok {
		return fmt.Errorf("season %s: %w", season.ID, ErrRoomNotFound)
	}
	s.seasons[season.ID] = season
	return nil
}

// PutPlayer inserts or renames a player of an existing room.
func (s *MemoryStore) PutPlayer(_ context.Context, p model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		return fmt.Errorf("%w: player id is empty", ErrInvalidRecord)
	}
	if _, ok := s.rooms[p.RoomID]; !ok {
		return fmt.Errorf("player %s: %w", p.ID, ErrRoomNotFound)
	}
	if _, ok := s.players[p.ID]; !ok {
		s.roomPlayers[p.RoomID] = append(s.roomPlayers[p.RoomID], p.ID)
	}
	s.players[p.ID] = p
	return nil
}

// PutGame inserts or replaces a game of an existing room and season.
func (s *MemoryStore) PutGame(_ context.Context, g model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkGame(g); err != nil {
		return err
	}
	if _, ok := s.rooms[g.RoomID]; !ok {
		return fmt.Errorf("game %s: %w", g.ID, ErrRoomNotFound)
	}
	if g.SeasonID != "" {
		if season, ok := s.seasons[g.SeasonID]; !ok || season.RoomID != g.RoomID {
			return fmt.Errorf("game %s: %w", g.ID, ErrSeasonNotFound)
		}
	}
	if _, ok := s.games[g.ID]; !ok {
		s.roomGames[g.RoomID] = append(s.roomGames[g.RoomID], g.ID)
	}
	s.games[g.ID] = g
	return nil
}

// PutScore inserts or replaces the score of a player in a game.
func (s *MemoryStore) PutScore(_ context.Context, sc model.Score) error {
	if err := checkScore(sc); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[sc.GameID]; !ok {
		return fmt.Errorf("%w: score references unknown game %s", ErrInvalidRecord, sc.GameID)
	}
	if _, ok := s.players[sc.PlayerID]; !ok {
		return fmt.Errorf("%w: score references unknown player %s", ErrInvalidRecord, sc.PlayerID)
	}
	byPlayer, ok := s.scores[sc.GameID]
	if !ok {
		byPlayer = make(map[string]model.Score)
		s.scores[sc.GameID] = byPlayer
	}
	if _, ok := byPlayer[sc.PlayerID]; !ok {
		s.scoreOrder[sc.GameID] = append(s.scoreOrder[sc.GameID], sc.PlayerID)
	}
	byPlayer[sc.PlayerID] = sc
	return nil
}

// Room returns a room by id.
func (s *MemoryStore) Room(_ context.Context, roomID string) (model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return model.Room{}, fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}
	return r, nil
}

// Seasons lists a room's seasons ordered by start, then id.
func (s *MemoryStore) Seasons(_ context.Context, roomID string) ([]model.Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.rooms[roomID]; !ok {
		return nil, fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}
	out := make([]model.Season, 0)
	for _, season := range s.seasons {
		if season.RoomID == roomID {
			out = append(out, season)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Snapshot assembles the room's roster and games in insertion order.
func (s *MemoryStore) Snapshot(_ context.Context, roomID, seasonID string) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return model.Snapshot{}, fmt.Errorf("room %s: %w", roomID, ErrRoomNotFound)
	}
	if seasonID != "" {
		if season, ok := s.seasons[seasonID]; !ok || season.RoomID != roomID {
			return model.Snapshot{}, fmt.Errorf("season %s: %w", seasonID, ErrSeasonNotFound)
		}
	}

	snap := model.Snapshot{
		Room:     room,
		SeasonID: seasonID,
		Players:  make([]model.Player, 0, len(s.roomPlayers[roomID])),
		Games:    make([]model.GameRecord, 0, len(s.roomGames[roomID])),
	}
	for _, id := range s.roomPlayers[roomID] {
		snap.Players = append(snap.Players, s.players[id])
	}
	for _, id := range s.roomGames[roomID] {
		g := s.games[id]
		if seasonID != "" && g.SeasonID != seasonID {
			continue
		}
		rec := model.GameRecord{
			Game:    g,
			Players: make([]model.Player, 0, len(s.scoreOrder[id])),
			Scores:  make([]model.ScoreEntry, 0, len(s.scoreOrder[id])),
		}
		for _, pid := range s.scoreOrder[id] {
			p := s.players[pid]
			rec.Players = append(rec.Players, p)
			rec.Scores = append(rec.Scores, model.ScoreEntry{Score: s.scores[id][pid], Player: p})
		}
		snap.Games = append(snap.Games, rec)
	}
	return snap, nil
}

// Count returns the number of rooms.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
