// Package model contains the ledger records passed between layers.
package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ChipUnit is the fixed value of one buy-in used by every net and metric
// computation. It is deliberately independent of Game.BuyInSize.
const ChipUnit = 100

// Defaults applied when a player joins a game.
const (
	DefaultBuyins = 1
	DefaultStack  = 100
)

// Player is a participant of a room. Name is display data only.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	RoomID string `json:"-"`
}

// Room groups players, seasons and games.
type Room struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	PasswordHash string  `json:"-"`
	DefaultBuyIn float64 `json:"default_buy_in"`
}

// HasPassword reports whether the room is password protected.
func (r Room) HasPassword() bool {
	return r.PasswordHash != ""
}

// CheckPassword reports whether password matches the room password.
// An unprotected room never matches.
func (r Room) CheckPassword(password string) bool {
	if !r.HasPassword() || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(r.PasswordHash), []byte(password)) == nil
}

// HashPassword produces the hash stored in Room.PasswordHash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Season is a named period within a room.
type Season struct {
	ID     string    `json:"id"`
	RoomID string    `json:"room_id"`
	Name   string    `json:"name"`
	Start  time.Time `json:"start"`
}

// Game is one poker session.
type Game struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	BuyInSize float64   `json:"buy_in_size"` // currency value of one buy-in
	SeasonID  string    `json:"season_id"`
	RoomID    string    `json:"room_id"`
}

// Score is a player's result in one game, unique per (GameID, PlayerID).
type Score struct {
	GameID   string  `json:"game_id"`
	PlayerID string  `json:"player_id"`
	Buyins   float64 `json:"buyins"` // may be fractional
	Stack    float64 `json:"stack"`  // chips held at the end
}

// NewScore returns the score a player starts with after joining a game.
func NewScore(gameID, playerID string) Score {
	return Score{GameID: gameID, PlayerID: playerID, Buyins: DefaultBuyins, Stack: DefaultStack}
}

// BuyinValue is the amount paid in, in chip units.
func (s Score) BuyinValue() float64 {
	return s.Buyins * ChipUnit
}

// Net is the result of the game for the player.
func (s Score) Net() float64 {
	return s.Stack - s.BuyinValue()
}

// Won reports whether the player left with at least what they paid in.
func (s Score) Won() bool {
	return s.Stack >= s.BuyinValue()
}

// ScoreEntry is a score joined with its player.
type ScoreEntry struct {
	Score
	Player Player `json:"player"`
}

// GameRecord is a game joined with its participants and scores.
type GameRecord struct {
	Game
	Players []Player     `json:"players"`
	Scores  []ScoreEntry `json:"scores"`
}

// ScoreFor returns the score of playerID in the game, if any.
func (g GameRecord) ScoreFor(playerID string) (Score, bool) {
	for _, s := range g.Scores {
		if s.PlayerID == playerID {
			return s.Score, true
		}
	}
	return Score{}, false
}

// Snapshot is the read-only view of a room (optionally one season) handed
// to the analytics packages.
type Snapshot struct {
	Room     Room         `json:"room"`
	SeasonID string       `json:"season_id,omitempty"`
	Players  []Player     `json:"players"`
	Games    []GameRecord `json:"games"`
}
