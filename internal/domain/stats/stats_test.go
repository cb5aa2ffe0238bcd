package stats_test

import (
	"testing"
	"time"

	"github.com/okian/chipledger/internal/domain/model"
	"github.com/okian/chipledger/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	anna = model.Player{ID: "p-anna", Name: "Anna Andersson"}
	bo   = model.Player{ID: "p-bo", Name: "Bo Berg"}
	cleo = model.Player{ID: "p-cleo", Name: "Cleo Carlsson"}
)

func game(id string, d int, entries ...model.ScoreEntry) model.GameRecord {
	g := model.GameRecord{Game: model.Game{
		ID:        id,
		Date:      time.Date(2024, time.May, d, 20, 0, 0, 0, time.UTC),
		BuyInSize: 100,
	}}
	for _, e := range entries {
		e.GameID = id
		g.Scores = append(g.Scores, e)
		g.Players = append(g.Players, e.Player)
	}
	return g
}

func score(p model.Player, buyins, stack float64) model.ScoreEntry {
	return model.ScoreEntry{Score: model.Score{PlayerID: p.ID, Buyins: buyins, Stack: stack}, Player: p}
}

func find(all []stats.PlayerStats, id string) stats.PlayerStats {
	for _, s := range all {
		if s.PlayerID == id {
			return s
		}
	}
	return stats.PlayerStats{}
}

func TestCompute(t *testing.T) {
	Convey("Given Anna's example season", t, func() {
		games := []model.GameRecord{
			game("g2", 10, score(anna, 2, 150)),
			game("g1", 3, score(anna, 1, 150)),
		}
		all := stats.Compute(games, []model.Player{anna})
		a := all[0]

		Convey("Then every metric matches the worked example", func() {
			So(a.GamesPlayed, ShouldEqual, 2)
			So(a.Wins, ShouldEqual, 1)
			So(a.WinRate, ShouldEqual, 50.0)
			So(a.TotalBuyin, ShouldEqual, 300.0)
			So(a.TotalNet, ShouldEqual, 0.0)
			So(a.ROI, ShouldEqual, 0.0)
			So(a.HourlyRate, ShouldEqual, 0.0)
			So(a.MaxGain, ShouldEqual, 50.0)
			So(a.MaxGainGameID, ShouldEqual, "g1")
		})

		Convey("Then averages divide by games played", func() {
			avgBuyin, ok := a.AverageBuyin()
			So(ok, ShouldBeTrue)
			So(avgBuyin, ShouldEqual, 150.0)
			avgStack, ok := a.AverageStack()
			So(ok, ShouldBeTrue)
			So(avgStack, ShouldEqual, 150.0)
		})
	})

	Convey("Given a winning and a losing player", t, func() {
		games := []model.GameRecord{
			game("g1", 1, score(anna, 1, 150), score(bo, 2, 150)),
			game("g2", 2, score(anna, 1, 150), score(bo, 1, 0)),
		}
		all := stats.Compute(games, []model.Player{anna, bo})

		Convey("Then ROI and hourly rate follow the totals", func() {
			a := find(all, anna.ID)
			So(a.ROI, ShouldEqual, 50.0)
			So(a.HourlyRate, ShouldEqual, 10.0)

			b := find(all, bo.ID)
			So(b.TotalNet, ShouldEqual, -150.0)
			So(b.ROI, ShouldEqual, -50.0)
			So(b.HourlyRate, ShouldEqual, -15.0)
			So(b.WinRate, ShouldEqual, 0.0)
		})

		Convey("Then win rates stay within 0 and 100", func() {
			for _, s := range all {
				So(s.WinRate, ShouldBeBetweenOrEqual, 0, 100)
			}
		})
	})

	Convey("Given equal gains in two games", t, func() {
		games := []model.GameRecord{
			game("later", 9, score(bo, 1, 180)),
			game("earlier", 4, score(bo, 1, 180)),
		}

		Convey("Then the earlier game holds the max gain", func() {
			b := stats.Compute(games, []model.Player{bo})[0]
			So(b.MaxGain, ShouldEqual, 80.0)
			So(b.MaxGainGameID, ShouldEqual, "earlier")
		})
	})

	Convey("Given a player who only lost", t, func() {
		games := []model.GameRecord{game("g1", 1, score(bo, 3, 20))}

		Convey("Then the max gain is negative, not zero", func() {
			So(stats.Compute(games, []model.Player{bo})[0].MaxGain, ShouldEqual, -280.0)
		})
	})

	Convey("Given a roster player with no games", t, func() {
		games := []model.GameRecord{game("g1", 1, score(anna, 1, 120))}
		c := find(stats.Compute(games, []model.Player{anna, cleo}), cleo.ID)

		Convey("Then every rate is zero", func() {
			So(c.PlayerID, ShouldEqual, cleo.ID)
			So(c.GamesPlayed, ShouldEqual, 0)
			So(c.WinRate, ShouldEqual, 0.0)
			So(c.ROI, ShouldEqual, 0.0)
			So(c.HourlyRate, ShouldEqual, 0.0)
			So(c.MaxGain, ShouldEqual, 0.0)
			So(c.TotalBuyin, ShouldEqual, 0.0)
		})

		Convey("Then averages report no value", func() {
			_, ok := c.AverageBuyin()
			So(ok, ShouldBeFalse)
			_, ok = c.AverageStack()
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a free-roll game with zero buy-ins", t, func() {
		games := []model.GameRecord{game("g1", 1, score(anna, 0, 40))}

		Convey("Then ROI is zero instead of dividing by zero", func() {
			a := stats.Compute(games, []model.Player{anna})[0]
			So(a.ROI, ShouldEqual, 0.0)
			So(a.TotalNet, ShouldEqual, 40.0)
			So(a.WinRate, ShouldEqual, 100.0)
		})
	})
}

func TestTables(t *testing.T) {
	Convey("Given stats for a player with games and one without", t, func() {
		games := []model.GameRecord{game("g1", 1, score(anna, 1, 150))}
		tables := stats.BuildTables(stats.Compute(games, []model.Player{anna, cleo}))

		Convey("Then rate tables keep the zero-game player at zero", func() {
			So(tables.WinRate, ShouldResemble, []stats.MetricValue{
				{Name: "Anna Andersson", Value: 100},
				{Name: "Cleo Carlsson", Value: 0},
			})
			So(tables.ROI, ShouldHaveLength, 2)
			So(tables.HourlyRate, ShouldHaveLength, 2)
			So(tables.MaxGain, ShouldHaveLength, 2)
			So(tables.TotalBuyin, ShouldHaveLength, 2)
		})

		Convey("Then average tables drop the zero-game player", func() {
			So(tables.AverageBuyin, ShouldResemble, []stats.MetricValue{{Name: "Anna Andersson", Value: 100}})
			So(tables.AverageStack, ShouldResemble, []stats.MetricValue{{Name: "Anna Andersson", Value: 150}})
		})
	})
}

func TestBiggestWin(t *testing.T) {
	Convey("Given several players", t, func() {
		games := []model.GameRecord{
			game("g1", 1, score(anna, 1, 250), score(bo, 1, 250)),
		}
		all := stats.Compute(games, []model.Player{cleo, anna, bo})

		Convey("Then the first player with the largest gain wins", func() {
			best, ok := stats.BiggestWin(all)
			So(ok, ShouldBeTrue)
			So(best.PlayerID, ShouldEqual, anna.ID)
			So(best.MaxGain, ShouldEqual, 150.0)
		})
	})

	Convey("Given nobody has played", t, func() {
		Convey("Then there is no biggest win", func() {
			_, ok := stats.BiggestWin(stats.Compute(nil, []model.Player{anna}))
			So(ok, ShouldBeFalse)
		})
	})
}
