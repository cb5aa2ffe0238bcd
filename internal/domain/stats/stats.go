// Package stats derives per-player performance metrics from game scores.
//
// Every rate is defined for players without games: it is zero. Averages are
// the exception and drop such players from their tables instead.
package stats

import (
	"github.com/okian/chipledger/internal/domain/ledger"
	"github.com/okian/chipledger/internal/domain/model"
	"github.com/shopspring/decimal"
)

// HoursPerGame is the assumed length of a session for hourly rates.
const HoursPerGame = 5

const percent = 100

// PlayerStats holds every metric for one player.
type PlayerStats struct {
	PlayerID    string  `json:"player_id"`
	Name        string  `json:"name"`
	GamesPlayed int     `json:"games_played"`
	Wins        int     `json:"wins"`
	TotalNet    float64 `json:"total_net"`
	TotalBuyin  float64 `json:"total_buyin"`
	TotalStack  float64 `json:"total_stack"`
	WinRate     float64 `json:"win_rate"`
	ROI         float64 `json:"roi"`
	HourlyRate  float64 `json:"hourly_rate"`
	MaxGain     float64 `json:"max_gain"`
	// MaxGainGameID is the first chronological game reaching MaxGain.
	MaxGainGameID string `json:"max_gain_game_id,omitempty"`
}

// AverageBuyin is TotalBuyin / GamesPlayed; ok is false without games.
func (s PlayerStats) AverageBuyin() (float64, bool) {
	if s.GamesPlayed == 0 {
		return 0, false
	}
	return s.TotalBuyin / float64(s.GamesPlayed), true
}

// AverageStack is TotalStack / GamesPlayed; ok is false without games.
func (s PlayerStats) AverageStack() (float64, bool) {
	if s.GamesPlayed == 0 {
		return 0, false
	}
	return s.TotalStack / float64(s.GamesPlayed), true
}

type accumulator struct {
	games      int
	wins       int
	net        decimal.Decimal
	buyin      decimal.Decimal
	stack      decimal.Decimal
	maxGain    decimal.Decimal
	maxGameID  string
	hasMaxGain bool
}

func (a *accumulator) add(gameID string, s model.Score) {
	net := ledger.Net(s)
	a.games++
	if s.Won() {
		a.wins++
	}
	a.net = a.net.Add(net)
	a.buyin = a.buyin.Add(decimal.NewFromFloat(s.Buyins).Mul(decimal.NewFromInt(model.ChipUnit)))
	a.stack = a.stack.Add(decimal.NewFromFloat(s.Stack))
	// strict comparison keeps the earliest game on ties
	if !a.hasMaxGain || net.GreaterThan(a.maxGain) {
		a.maxGain = net
		a.maxGameID = gameID
		a.hasMaxGain = true
	}
}

// Compute returns stats for every roster player, in roster order.
func Compute(games []model.GameRecord, roster []model.Player) []PlayerStats {
	acc := make(map[string]*accumulator, len(roster))
	for _, p := range roster {
		acc[p.ID] = &accumulator{net: decimal.Zero, buyin: decimal.Zero, stack: decimal.Zero}
	}

	for _, g := range ledger.SortGames(games) {
		for _, s := range g.Scores {
			a, ok := acc[s.PlayerID]
			if !ok {
				continue
			}
			a.add(g.ID, s.Score)
		}
	}

	out := make([]PlayerStats, 0, len(roster))
	for _, p := range roster {
		out = append(out, acc[p.ID].stats(p))
	}
	return out
}

func (a *accumulator) stats(p model.Player) PlayerStats {
	s := PlayerStats{
		PlayerID:    p.ID,
		Name:        p.Name,
		GamesPlayed: a.games,
		Wins:        a.wins,
		TotalNet:    a.net.InexactFloat64(),
		TotalBuyin:  a.buyin.InexactFloat64(),
		TotalStack:  a.stack.InexactFloat64(),
	}
	if a.games == 0 {
		return s
	}
	s.WinRate = float64(a.wins) / float64(a.games) * percent
	if !a.buyin.IsZero() {
		s.ROI = a.net.Div(a.buyin).Mul(decimal.NewFromInt(percent)).InexactFloat64()
	}
	s.HourlyRate = a.net.Div(decimal.NewFromInt(int64(a.games * HoursPerGame))).InexactFloat64()
	s.MaxGain = a.maxGain.InexactFloat64()
	s.MaxGainGameID = a.maxGameID
	return s
}

// BiggestWin returns the player with the largest single-game gain among
// players with games. Ties keep the earlier entry.
func BiggestWin(all []PlayerStats) (PlayerStats, bool) {
	var best PlayerStats
	found := false
	for _, s := range all {
		if s.GamesPlayed == 0 {
			continue
		}
		if !found || s.MaxGain > best.MaxGain {
			best = s
			found = true
		}
	}
	return best, found
}
