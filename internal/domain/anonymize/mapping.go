package anonymize

import (
	"github.com/google/uuid"

	"github.com/okian/chipledger/internal/domain/leaderboard"
	"github.com/okian/chipledger/internal/domain/ledger"
	"github.com/okian/chipledger/internal/domain/model"
	"github.com/okian/chipledger/internal/domain/stats"
)

// Access describes what a requester may see of a room.
type Access struct {
	CanEdit  bool
	Password string
}

// Required reports whether names must be hidden from the requester.
func Required(room model.Room, access Access) bool {
	if !room.HasPassword() || access.CanEdit {
		return false
	}
	return !room.CheckPassword(access.Password)
}

// Mapping is a name to alias table built for a single response.
// Player ids are replaced too, with random ids that are stable only
// within the mapping, so a readable id cannot give a player away.
// It must not be shared between requests.
type Mapping struct {
	aliases map[string]string
	ids     map[string]string
}

// NewMapping builds the mapping for the given players.
func NewMapping(players []model.Player) *Mapping {
	m := &Mapping{
		aliases: make(map[string]string, len(players)),
		ids:     make(map[string]string, len(players)),
	}
	for _, p := range players {
		m.add(p.Name)
		m.ID(p.ID)
	}
	return m
}

func (m *Mapping) add(name string) string {
	if a, ok := m.aliases[name]; ok {
		return a
	}
	a := Alias(name)
	m.aliases[name] = a
	return a
}

// Name returns the alias for name, extending the mapping for names it has
// not seen yet.
func (m *Mapping) Name(name string) string {
	return m.add(name)
}

// ID returns the opaque id standing in for a player id. The empty id
// stays empty.
func (m *Mapping) ID(id string) string {
	if id == "" {
		return ""
	}
	if o, ok := m.ids[id]; ok {
		return o
	}
	o := uuid.NewString()
	m.ids[id] = o
	return o
}

// Len returns the number of distinct names mapped.
func (m *Mapping) Len() int {
	return len(m.aliases)
}

// Player returns p with its name and id replaced.
func (m *Mapping) Player(p model.Player) model.Player {
	p.ID = m.ID(p.ID)
	p.Name = m.Name(p.Name)
	return p
}

// Players returns a renamed copy of players.
func (m *Mapping) Players(players []model.Player) []model.Player {
	if players == nil {
		return nil
	}
	out := make([]model.Player, len(players))
	for i, p := range players {
		out[i] = m.Player(p)
	}
	return out
}

// Snapshot returns a deep copy of s with every player replaced: the
// roster, each game's players and every score with its nested player.
func (m *Mapping) Snapshot(s model.Snapshot) model.Snapshot {
	out := s
	out.Players = m.Players(s.Players)
	if s.Games != nil {
		out.Games = make([]model.GameRecord, len(s.Games))
		for i, g := range s.Games {
			g.Players = m.Players(g.Players)
			scores := make([]model.ScoreEntry, len(g.Scores))
			for j, sc := range g.Scores {
				sc.PlayerID = m.ID(sc.PlayerID)
				sc.Player = m.Player(sc.Player)
				scores[j] = sc
			}
			if g.Scores == nil {
				scores = nil
			}
			g.Scores = scores
			out.Games[i] = g
		}
	}
	return out
}

// Series, Entries, Stats and Tables rewrite outputs computed from a
// snapshot that did not go through Snapshot.

// Series returns a renamed copy of points.
func (m *Mapping) Series(points []ledger.Point) []ledger.Point {
	out := make([]ledger.Point, len(points))
	for i, p := range points {
		values := make([]ledger.Value, len(p.Values))
		for j, v := range p.Values {
			v.Name = m.Name(v.Name)
			values[j] = v
		}
		p.Values = values
		out[i] = p
	}
	return out
}

// Entries returns a renamed copy of leaderboard entries.
func (m *Mapping) Entries(entries []leaderboard.Entry) []leaderboard.Entry {
	out := make([]leaderboard.Entry, len(entries))
	for i, e := range entries {
		e.PlayerID = m.ID(e.PlayerID)
		e.Name = m.Name(e.Name)
		out[i] = e
	}
	return out
}

// Stats returns a renamed copy of per-player stats.
func (m *Mapping) Stats(all []stats.PlayerStats) []stats.PlayerStats {
	out := make([]stats.PlayerStats, len(all))
	for i, s := range all {
		s.PlayerID = m.ID(s.PlayerID)
		s.Name = m.Name(s.Name)
		out[i] = s
	}
	return out
}

// Tables returns renamed copies of every metric table.
func (m *Mapping) Tables(t stats.Tables) stats.Tables {
	return stats.Tables{
		WinRate:      m.values(t.WinRate),
		ROI:          m.values(t.ROI),
		HourlyRate:   m.values(t.HourlyRate),
		MaxGain:      m.values(t.MaxGain),
		AverageBuyin: m.values(t.AverageBuyin),
		AverageStack: m.values(t.AverageStack),
		TotalBuyin:   m.values(t.TotalBuyin),
	}
}

func (m *Mapping) values(in []stats.MetricValue) []stats.MetricValue {
	out := make([]stats.MetricValue, len(in))
	for i, v := range in {
		v.Name = m.Name(v.Name)
		out[i] = v
	}
	return out
}
