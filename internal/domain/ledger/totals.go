package ledger

import (
	"github.com/okian/chipledger/internal/domain/model"
	"github.com/shopspring/decimal"
)

// PlayerTotal is a player's final position over a set of games.
type PlayerTotal struct {
	PlayerID    string
	Name        string
	Net         float64
	GamesPlayed int
}

// Totals is the explicit aggregation state behind rankings. Players are kept
// in the order they first appear in the chronological game sequence, which
// is the order ties resolve to.
type Totals struct {
	order []string
	net   map[string]decimal.Decimal
	games map[string]int
	names map[string]string
}

// Accumulate folds games into Totals in a single chronological pass.
// Names come from the roster when the player is on it, otherwise from the
// player attached to the score.
func Accumulate(games []model.GameRecord, roster []model.Player) *Totals {
	t := &Totals{
		net:   make(map[string]decimal.Decimal),
		games: make(map[string]int),
		names: make(map[string]string),
	}
	rosterNames := make(map[string]string, len(roster))
	for _, p := range roster {
		rosterNames[p.ID] = p.Name
	}

	for _, g := range SortGames(games) {
		for _, s := range g.Scores {
			id := s.PlayerID
			if _, seen := t.net[id]; !seen {
				t.order = append(t.order, id)
				t.net[id] = decimal.Zero
				if name, ok := rosterNames[id]; ok {
					t.names[id] = name
				} else {
					t.names[id] = s.Player.Name
				}
			}
			t.net[id] = t.net[id].Add(Net(s.Score))
			t.games[id]++
		}
	}
	return t
}

// Len returns the number of players with at least one game.
func (t *Totals) Len() int {
	return len(t.order)
}

// Get returns the total for playerID.
func (t *Totals) Get(playerID string) (PlayerTotal, bool) {
	if _, ok := t.net[playerID]; !ok {
		return PlayerTotal{}, false
	}
	return t.total(playerID), true
}

// Ordered returns every total in first-appearance order.
func (t *Totals) Ordered() []PlayerTotal {
	out := make([]PlayerTotal, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.total(id))
	}
	return out
}

func (t *Totals) total(id string) PlayerTotal {
	return PlayerTotal{
		PlayerID:    id,
		Name:        t.names[id],
		Net:         t.net[id].InexactFloat64(),
		GamesPlayed: t.games[id],
	}
}
