// Package ledger turns per-game scores into running net positions.
//
// All functions are pure: they read the records they are given, never
// mutate them, and return the same output for the same input.
package ledger

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/okian/chipledger/internal/domain/model"
	"github.com/shopspring/decimal"
)

// DefaultLabelLayout formats point labels.
const DefaultLabelLayout = "2006-01-02"

var chipUnit = decimal.NewFromInt(model.ChipUnit)

// Option configures Series.
type Option func(*options)

type options struct {
	labelLayout string
}

// WithLabelLayout sets the time layout used for point labels.
func WithLabelLayout(layout string) Option {
	return func(o *options) {
		if layout != "" {
			o.labelLayout = layout
		}
	}
}

// Value is one player's cumulative net at a point.
type Value struct {
	PlayerID string
	Name     string
	Net      float64
}

// Point is the state of the ledger right after one game.
type Point struct {
	Label  string
	Date   time.Time
	GameID string
	Values []Value // roster order
}

// Get returns the cumulative net of playerID at this point.
func (p Point) Get(playerID string) (float64, bool) {
	for _, v := range p.Values {
		if v.PlayerID == playerID {
			return v.Net, true
		}
	}
	return 0, false
}

// MarshalJSON renders the point as {"label": ..., "<name>": net, ...},
// keeping roster order for the player keys.
func (p Point) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"label":`)
	label, err := json.Marshal(p.Label)
	if err != nil {
		return nil, err
	}
	buf.Write(label)
	for _, v := range p.Values {
		name, err := json.Marshal(v.Name)
		if err != nil {
			return nil, err
		}
		net, err := json.Marshal(v.Net)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(net)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Net returns stack - buyins*ChipUnit as an exact decimal.
func Net(s model.Score) decimal.Decimal {
	return decimal.NewFromFloat(s.Stack).Sub(decimal.NewFromFloat(s.Buyins).Mul(chipUnit))
}

// SortGames returns a copy of games ordered by date ascending. Games on the
// same date keep their input order.
func SortGames(games []model.GameRecord) []model.GameRecord {
	out := make([]model.GameRecord, len(games))
	copy(out, games)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Series produces one point per game in chronological order holding every
// roster player's cumulative net. Players absent from a game carry their
// previous value; everyone starts at zero.
func Series(games []model.GameRecord, roster []model.Player, opts ...Option) []Point {
	o := options{labelLayout: DefaultLabelLayout}
	for _, opt := range opts {
		opt(&o)
	}

	sorted := SortGames(games)
	running := make(map[string]decimal.Decimal, len(roster))
	points := make([]Point, 0, len(sorted))

	for _, g := range sorted {
		byPlayer := indexScores(g)
		values := make([]Value, 0, len(roster))
		for _, p := range roster {
			total, ok := running[p.ID]
			if !ok {
				total = decimal.Zero
			}
			if s, played := byPlayer[p.ID]; played {
				total = total.Add(Net(s))
				running[p.ID] = total
			}
			values = append(values, Value{PlayerID: p.ID, Name: p.Name, Net: total.InexactFloat64()})
		}
		points = append(points, Point{
			Label:  g.Date.Format(o.labelLayout),
			Date:   g.Date,
			GameID: g.ID,
			Values: values,
		})
	}
	return points
}

func indexScores(g model.GameRecord) map[string]model.Score {
	m := make(map[string]model.Score, len(g.Scores))
	for _, s := range g.Scores {
		if _, dup := m[s.PlayerID]; !dup {
			m[s.PlayerID] = s.Score
		}
	}
	return m
}
