package repository

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/chipledger/internal/domain/model"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

// seed writes one room with two seasons, three players and three games.
func seed(t *testing.T, ctx context.Context, w Writer) {
	t.Helper()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	must(w.PutRoom(ctx, model.Room{ID: "r1", Name: "Friday", DefaultBuyIn: 20}))
	must(w.PutSeason(ctx, model.Season{ID: "spring", RoomID: "r1", Name: "Spring", Start: day(1)}))
	must(w.PutSeason(ctx, model.Season{ID: "summer", RoomID: "r1", Name: "Summer", Start: day(20)}))
	must(w.PutPlayer(ctx, model.Player{ID: "a", Name: "Anna", RoomID: "r1"}))
	must(w.PutPlayer(ctx, model.Player{ID: "b", Name: "Bo", RoomID: "r1"}))
	must(w.PutPlayer(ctx, model.Player{ID: "c", Name: "Cy", RoomID: "r1"}))
	must(w.PutGame(ctx, model.Game{ID: "g1", Date: day(2), BuyInSize: 20, SeasonID: "spring", RoomID: "r1"}))
	must(w.PutGame(ctx, model.Game{ID: "g2", Date: day(9), BuyInSize: 20, SeasonID: "spring", RoomID: "r1"}))
	must(w.PutGame(ctx, model.Game{ID: "g3", Date: day(21), BuyInSize: 20, SeasonID: "summer", RoomID: "r1"}))
	must(w.PutScore(ctx, model.Score{GameID: "g1", PlayerID: "a", Buyins: 1, Stack: 250}))
	must(w.PutScore(ctx, model.Score{GameID: "g1", PlayerID: "b", Buyins: 2, Stack: 50}))
	must(w.PutScore(ctx, model.Score{GameID: "g2", PlayerID: "b", Buyins: 1, Stack: 180}))
	must(w.PutScore(ctx, model.Score{GameID: "g3", PlayerID: "a", Buyins: 1.5, Stack: 0}))
	must(w.PutScore(ctx, model.Score{GameID: "g3", PlayerID: "c", Buyins: 1, Stack: 250}))
}

type storeFactory func(t *testing.T) ReadWriter

func factories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) ReadWriter { return NewMemoryStore() },
		"sqlite": func(t *testing.T) ReadWriter {
			s, err := OpenSQLite(context.Background(), ":memory:")
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStore_Snapshot(t *testing.T) {
	for name, open := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			seed(t, ctx, s)

			snap, err := s.Snapshot(ctx, "r1", "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if snap.Room.Name != "Friday" {
				t.Errorf("expected room Friday, got %q", snap.Room.Name)
			}
			if len(snap.Players) != 3 {
				t.Fatalf("expected 3 players, got %d", len(snap.Players))
			}
			for i, want := range []string{"a", "b", "c"} {
				if snap.Players[i].ID != want {
					t.Errorf("player %d: expected %s, got %s", i, want, snap.Players[i].ID)
				}
			}
			if len(snap.Games) != 3 {
				t.Fatalf("expected 3 games, got %d", len(snap.Games))
			}
			g1 := snap.Games[0]
			if g1.ID != "g1" || !g1.Date.Equal(day(2)) {
				t.Errorf("unexpected first game %s at %v", g1.ID, g1.Date)
			}
			if len(g1.Scores) != 2 || len(g1.Players) != 2 {
				t.Fatalf("expected 2 scores in g1, got %d", len(g1.Scores))
			}
			sc, ok := g1.ScoreFor("b")
			if !ok {
				t.Fatal("expected score for b in g1")
			}
			if sc.Buyins != 2 || sc.Stack != 50 {
				t.Errorf("unexpected score %+v", sc)
			}
			if g1.Scores[1].Player.Name != "Bo" {
				t.Errorf("expected nested player Bo, got %q", g1.Scores[1].Player.Name)
			}
			if got := snap.Games[2].Scores[0].Buyins; got != 1.5 {
				t.Errorf("expected fractional buyins 1.5, got %v", got)
			}
		})
	}
}

func TestStore_SnapshotSeason(t *testing.T) {
	for name, open := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			seed(t, ctx, s)

			snap, err := s.Snapshot(ctx, "r1", "summer")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if snap.SeasonID != "summer" {
				t.Errorf("expected season summer, got %q", snap.SeasonID)
			}
			if len(snap.Games) != 1 || snap.Games[0].ID != "g3" {
				t.Fatalf("expected only g3, got %+v", snap.Games)
			}
			if len(snap.Players) != 3 {
				t.Errorf("roster covers the room, expected 3 got %d", len(snap.Players))
			}

			seasons, err := s.Seasons(ctx, "r1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(seasons) != 2 || seasons[0].ID != "spring" || seasons[1].ID != "summer" {
				t.Errorf("unexpected seasons %+v", seasons)
			}
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	for name, open := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			seed(t, ctx, s)

			if _, err := s.Room(ctx, "nope"); !errors.Is(err, ErrRoomNotFound) {
				t.Errorf("expected ErrRoomNotFound, got %v", err)
			}
			if _, err := s.Snapshot(ctx, "nope", ""); !errors.Is(err, ErrRoomNotFound) {
				t.Errorf("expected ErrRoomNotFound, got %v", err)
			}
			if _, err := s.Seasons(ctx, "nope"); !errors.Is(err, ErrRoomNotFound) {
				t.Errorf("expected ErrRoomNotFound, got %v", err)
			}
			if _, err := s.Snapshot(ctx, "r1", "winter"); !errors.Is(err, ErrSeasonNotFound) {
				t.Errorf("expected ErrSeasonNotFound, got %v", err)
			}
			if n := s.Count(ctx); n != 1 {
				t.Errorf("expected 1 room, got %d", n)
			}
		})
	}
}

func TestStore_RejectsInvalidRecords(t *testing.T) {
	for name, open := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			seed(t, ctx, s)

			cases := []struct {
				name string
				err  error
				want error
			}{
				{"empty room id", s.PutRoom(ctx, model.Room{}), ErrInvalidRecord},
				{"player of unknown room", s.PutPlayer(ctx, model.Player{ID: "z", RoomID: "x"}), ErrRoomNotFound},
				{"game of unknown season", s.PutGame(ctx, model.Game{ID: "g9", RoomID: "r1", SeasonID: "x", Date: day(1)}), ErrSeasonNotFound},
				{"score of unknown game", s.PutScore(ctx, model.Score{GameID: "x", PlayerID: "a"}), ErrInvalidRecord},
				{"score of unknown player", s.PutScore(ctx, model.Score{GameID: "g1", PlayerID: "x"}), ErrInvalidRecord},
				{"negative stack", s.PutScore(ctx, model.Score{GameID: "g1", PlayerID: "c", Buyins: 1, Stack: -1}), ErrInvalidRecord},
				{"NaN stack", s.PutScore(ctx, model.Score{GameID: "g1", PlayerID: "c", Buyins: 1, Stack: math.NaN()}), ErrInvalidRecord},
				{"infinite stack", s.PutScore(ctx, model.Score{GameID: "g1", PlayerID: "c", Buyins: 1, Stack: math.Inf(1)}), ErrInvalidRecord},
				{"NaN buyins", s.PutScore(ctx, model.Score{GameID: "g1", PlayerID: "c", Buyins: math.NaN(), Stack: 100}), ErrInvalidRecord},
				{"negative infinite buyins", s.PutScore(ctx, model.Score{GameID: "g1", PlayerID: "c", Buyins: math.Inf(-1), Stack: 100}), ErrInvalidRecord},
				{"NaN game buy-in", s.PutGame(ctx, model.Game{ID: "g8", RoomID: "r1", Date: day(1), BuyInSize: math.NaN()}), ErrInvalidRecord},
				{"infinite game buy-in", s.PutGame(ctx, model.Game{ID: "g8", RoomID: "r1", Date: day(1), BuyInSize: math.Inf(1)}), ErrInvalidRecord},
				{"NaN room default buy-in", s.PutRoom(ctx, model.Room{ID: "r9", DefaultBuyIn: math.NaN()}), ErrInvalidRecord},
			}
			for _, tc := range cases {
				if !errors.Is(tc.err, tc.want) {
					t.Errorf("%s: expected %v, got %v", tc.name, tc.want, tc.err)
				}
			}

			// Rejected records leave the room readable.
			snap, err := s.Snapshot(ctx, "r1", "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, g := range snap.Games {
				if g.ID == "g8" {
					t.Errorf("rejected game g8 was stored")
				}
				for _, sc := range g.Scores {
					if !amount(sc.Buyins) || !amount(sc.Stack) {
						t.Errorf("invalid score was stored: %+v", sc.Score)
					}
				}
			}
		})
	}
}

func TestStore_ReplaceScore(t *testing.T) {
	for name, open := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			seed(t, ctx, s)

			if err := s.PutScore(ctx, model.Score{GameID: "g1", PlayerID: "a", Buyins: 3, Stack: 400}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			snap, err := s.Snapshot(ctx, "r1", "spring")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(snap.Games[0].Scores) != 2 {
				t.Fatalf("expected replacement, got %d scores", len(snap.Games[0].Scores))
			}
			sc, _ := snap.Games[0].ScoreFor("a")
			if sc.Buyins != 3 || sc.Stack != 400 {
				t.Errorf("unexpected score %+v", sc)
			}
		})
	}
}

func TestMemoryStore_ConcurrentReads(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, ctx, s)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Snapshot(ctx, "r1", ""); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
}

const fixtureYAML = `
rooms:
  - id: friday
    name: Friday Night
    password: hunter2
    default_buy_in: 20
    seasons:
      - id: s1
        name: Spring
        start: "2024-03-01"
    players:
      - id: anna
        name: Anna Andersson
      - name: Bo Berg
    games:
      - id: g1
        date: "2024-03-02"
        season: s1
        scores:
          - player: anna
            buyins: 2
            stack: 350
          - player: Bo Berg
      - id: g2
        date: "2024-03-09T20:00:00Z"
        buy_in_size: 50
        scores:
          - player: anna
            stack: 0
`

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadFixture(t *testing.T) {
	for name, open := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			if err := LoadFixture(ctx, writeFixture(t, fixtureYAML), s); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			room, err := s.Room(ctx, "friday")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !room.CheckPassword("hunter2") || room.CheckPassword("wrong") {
				t.Error("expected hashed fixture password to verify")
			}

			snap, err := s.Snapshot(ctx, "friday", "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(snap.Players) != 2 || len(snap.Games) != 2 {
				t.Fatalf("expected 2 players and 2 games, got %d and %d", len(snap.Players), len(snap.Games))
			}
			var bo model.Player
			for _, p := range snap.Players {
				if p.Name == "Bo Berg" {
					bo = p
				}
			}
			if bo.ID == "" {
				t.Fatal("expected generated id for Bo Berg")
			}

			g1 := snap.Games[0]
			if g1.BuyInSize != 20 {
				t.Errorf("expected room default buy-in 20, got %v", g1.BuyInSize)
			}
			anna, _ := g1.ScoreFor("anna")
			if anna.Buyins != 2 || anna.Stack != 350 {
				t.Errorf("unexpected anna score %+v", anna)
			}
			boScore, ok := g1.ScoreFor(bo.ID)
			if !ok || boScore.Buyins != model.DefaultBuyins || boScore.Stack != model.DefaultStack {
				t.Errorf("expected default score for Bo, got %+v", boScore)
			}

			g2 := snap.Games[1]
			if g2.BuyInSize != 50 || g2.SeasonID != "" {
				t.Errorf("unexpected g2 %+v", g2.Game)
			}
			if !g2.Date.Equal(time.Date(2024, time.March, 9, 20, 0, 0, 0, time.UTC)) {
				t.Errorf("unexpected g2 date %v", g2.Date)
			}
			zero, _ := g2.ScoreFor("anna")
			if zero.Buyins != 1 || zero.Stack != 0 {
				t.Errorf("unexpected g2 score %+v", zero)
			}
		})
	}
}

func TestLoadFixture_Errors(t *testing.T) {
	ctx := context.Background()

	if err := LoadFixture(ctx, filepath.Join(t.TempDir(), "missing.yaml"), NewMemoryStore()); !errors.Is(err, ErrFixture) {
		t.Errorf("expected ErrFixture for missing file, got %v", err)
	}

	unknown := `
rooms:
  - id: r
    players:
      - id: a
        name: A
    games:
      - id: g
        date: "2024-01-01"
        scores:
          - player: ghost
`
	err := LoadFixture(ctx, writeFixture(t, unknown), NewMemoryStore())
	if !errors.Is(err, ErrFixture) || !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrFixture wrapping ErrInvalidRecord, got %v", err)
	}

	badDate := `
rooms:
  - id: r
    games:
      - id: g
        date: "last friday"
`
	if err := LoadFixture(ctx, writeFixture(t, badDate), NewMemoryStore()); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for bad date, got %v", err)
	}

	for _, v := range []string{".nan", ".inf", "-.inf"} {
		nonFinite := `
rooms:
  - id: r
    players:
      - id: a
        name: A
    games:
      - id: g
        date: "2024-01-01"
        scores:
          - player: a
            stack: ` + v + `
`
		if err := LoadFixture(ctx, writeFixture(t, nonFinite), NewMemoryStore()); !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("expected ErrInvalidRecord for stack %s, got %v", v, err)
		}
	}
}
