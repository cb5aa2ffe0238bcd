// Package leaderboard ranks players by their cumulative net position.
package leaderboard

import (
	"sort"

	"github.com/okian/chipledger/internal/domain/ledger"
)

// Tournament defaults.
const (
	DefaultMinGames = 2
	DefaultLimit    = 12
)

// Band boundaries.
const (
	topBandLast = 3
	midBandLast = 11
)

// Band classifies a rank for presentation.
type Band string

// Rank bands.
const (
	BandTop    Band = "top"
	BandMid    Band = "mid"
	BandBottom Band = "bottom" // flagged for attrition
)

// BandFor returns the band of a 1-based rank.
func BandFor(rank int) Band {
	switch {
	case rank <= topBandLast:
		return BandTop
	case rank <= midBandLast:
		return BandMid
	default:
		return BandBottom
	}
}

// Entry is one leaderboard row.
type Entry struct {
	Rank        int     `json:"rank"`
	PlayerID    string  `json:"player_id"`
	Name        string  `json:"name"`
	Net         float64 `json:"net"`
	GamesPlayed int     `json:"games_played"`
	Band        Band    `json:"band"`
}

// Option configures Tournament.
type Option func(*options)

type options struct {
	minGames int
	limit    int
}

// WithMinGames sets K: only players with more than K games are ranked.
func WithMinGames(k int) Option {
	return func(o *options) {
		if k >= 0 {
			o.minGames = k
		}
	}
}

// WithLimit caps the number of ranked entries.
func WithLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

// Overall ranks every player with at least one game by net descending.
// Equal nets keep first-appearance order from totals.
func Overall(totals *ledger.Totals) []Entry {
	return rank(totals.Ordered(), 0)
}

// Tournament ranks players with more than K games and keeps the top N.
func Tournament(totals *ledger.Totals, opts ...Option) []Entry {
	o := options{minGames: DefaultMinGames, limit: DefaultLimit}
	for _, opt := range opts {
		opt(&o)
	}

	eligible := make([]ledger.PlayerTotal, 0, totals.Len())
	for _, t := range totals.Ordered() {
		if t.GamesPlayed > o.minGames {
			eligible = append(eligible, t)
		}
	}
	return rank(eligible, o.limit)
}

func rank(all []ledger.PlayerTotal, limit int) []Entry {
	played := make([]ledger.PlayerTotal, 0, len(all))
	for _, t := range all {
		if t.GamesPlayed > 0 {
			played = append(played, t)
		}
	}
	sort.SliceStable(played, func(i, j int) bool {
		return played[i].Net > played[j].Net
	})
	if limit > 0 && len(played) > limit {
		played = played[:limit]
	}

	entries := make([]Entry, len(played))
	for i, t := range played {
		entries[i] = Entry{
			Rank:        i + 1,
			PlayerID:    t.PlayerID,
			Name:        t.Name,
			Net:         t.Net,
			GamesPlayed: t.GamesPlayed,
			Band:        BandFor(i + 1),
		}
	}
	return entries
}
