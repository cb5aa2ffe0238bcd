// Package repository provides the read-only snapshot stores behind the
// analytics service.
package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/chipledger/internal/domain/model"
)

// Store provides read access to rooms and their game snapshots.
type Store interface {
	// Room returns the room with the given id, or ErrRoomNotFound.
	Room(ctx context.Context, roomID string) (model.Room, error)

	// Seasons lists the seasons of a room ordered by start.
	Seasons(ctx context.Context, roomID string) ([]model.Season, error)

	// Snapshot returns the room's players and games with nested scores.
	// An empty seasonID selects every game of the room.
	// Returns ErrSeasonNotFound if seasonID does not belong to the room.
	Snapshot(ctx context.Context, roomID, seasonID string) (model.Snapshot, error)

	// Count returns the number of rooms.
	Count(ctx context.Context) int
}

// Writer seeds a store. Records must be written parents first:
// room, then seasons and players, then games, then scores.
type Writer interface {
	PutRoom(ctx context.Context, r model.Room) error
	PutSeason(ctx context.Context, s model.Season) error
	PutPlayer(ctx context.Context, p model.Player) error
	PutGame(ctx context.Context, g model.Game) error
	PutScore(ctx context.Context, s model.Score) error
}

// ReadWriter is a store that can also be seeded.
type ReadWriter interface {
	Store
	Writer
}

// amount reports whether x is a usable quantity: finite and not negative.
func amount(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x >= 0
}

func checkRoom(r model.Room) error {
	if r.ID == "" {
		return fmt.Errorf("%w: room id is empty", ErrInvalidRecord)
	}
	if !amount(r.DefaultBuyIn) {
		return fmt.Errorf("%w: room %s: default buy-in %v", ErrInvalidRecord, r.ID, r.DefaultBuyIn)
	}
	return nil
}

func checkGame(g model.Game) error {
	if g.ID == "" {
		return fmt.Errorf("%w: game id is empty", ErrInvalidRecord)
	}
	if !amount(g.BuyInSize) {
		return fmt.Errorf("%w: game %s: buy-in size %v", ErrInvalidRecord, g.ID, g.BuyInSize)
	}
	return nil
}

func checkScore(sc model.Score) error {
	if !amount(sc.Buyins) || !amount(sc.Stack) {
		return fmt.Errorf("%w: score of %s in %s: buyins %v, stack %v must be finite and not negative",
			ErrInvalidRecord, sc.PlayerID, sc.GameID, sc.Buyins, sc.Stack)
	}
	return nil
}
