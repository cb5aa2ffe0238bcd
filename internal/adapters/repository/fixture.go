package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/chipledger/internal/domain/model"
)

// Fixture layout. Dates are strings in 2006-01-02 or RFC3339 form; quote them
// so the YAML parser keeps them as text.
type fixture struct {
	Rooms []fixtureRoom `koanf:"rooms"`
}

type fixtureRoom struct {
	ID           string          `koanf:"id"`
	Name         string          `koanf:"name"`
	Password     string          `koanf:"password"`
	PasswordHash string          `koanf:"password_hash"`
	DefaultBuyIn float64         `koanf:"default_buy_in"`
	Seasons      []fixtureSeason `koanf:"seasons"`
	Players      []fixturePlayer `koanf:"players"`
	Games        []fixtureGame   `koanf:"games"`
}

type fixtureSeason struct {
	ID    string `koanf:"id"`
	Name  string `koanf:"name"`
	Start string `koanf:"start"`
}

type fixturePlayer struct {
	ID   string `koanf:"id"`
	Name string `koanf:"name"`
}

type fixtureGame struct {
	ID        string         `koanf:"id"`
	Date      string         `koanf:"date"`
	Season    string         `koanf:"season"`
	BuyInSize float64        `koanf:"buy_in_size"`
	Scores    []fixtureScore `koanf:"scores"`
}

type fixtureScore struct {
	// Player is a player id or, failing that, a player name of the room.
	Player string   `koanf:"player"`
	Buyins *float64 `koanf:"buyins"`
	Stack  *float64 `koanf:"stack"`
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// LoadFixture reads a YAML fixture from path and writes its records into w.
// Records without an id get a generated one. Plain passwords are hashed.
func LoadFixture(ctx context.Context, path string, w Writer) error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFixture, path, err)
	}
	var fx fixture
	if err := k.UnmarshalWithConf("", &fx, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFixture, path, err)
	}
	for i := range fx.Rooms {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := seedRoom(ctx, w, &fx.Rooms[i]); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrFixture, path, err)
		}
	}
	return nil
}

func idOrNew(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func seedRoom(ctx context.Context, w Writer, fr *fixtureRoom) error {
	room := model.Room{
		ID:           idOrNew(fr.ID),
		Name:         fr.Name,
		PasswordHash: fr.PasswordHash,
		DefaultBuyIn: fr.DefaultBuyIn,
	}
	if fr.Password != "" {
		hash, err := model.HashPassword(fr.Password)
		if err != nil {
			return fmt.Errorf("room %s: hash password: %w", room.ID, err)
		}
		room.PasswordHash = hash
	}
	if err := w.PutRoom(ctx, room); err != nil {
		return err
	}

	for _, fs := range fr.Seasons {
		season := model.Season{ID: idOrNew(fs.ID), RoomID: room.ID, Name: fs.Name}
		if fs.Start != "" {
			start, err := parseDate(fs.Start)
			if err != nil {
				return fmt.Errorf("%w: season %s start: %w", ErrInvalidRecord, season.ID, err)
			}
			season.Start = start
		}
		if err := w.PutSeason(ctx, season); err != nil {
			return err
		}
	}

	byID := make(map[string]string, len(fr.Players))
	byName := make(map[string]string, len(fr.Players))
	for _, fp := range fr.Players {
		p := model.Player{ID: idOrNew(fp.ID), Name: fp.Name, RoomID: room.ID}
		if err := w.PutPlayer(ctx, p); err != nil {
			return err
		}
		byID[p.ID] = p.ID
		if _, dup := byName[p.Name]; !dup {
			byName[p.Name] = p.ID
		}
	}
	resolve := func(ref string) (string, bool) {
		if id, ok := byID[ref]; ok {
			return id, true
		}
		id, ok := byName[ref]
		return id, ok
	}

	for _, fg := range fr.Games {
		date, err := parseDate(fg.Date)
		if err != nil {
			return fmt.Errorf("%w: game %q date: %w", ErrInvalidRecord, fg.ID, err)
		}
		buyIn := fg.BuyInSize
		if buyIn == 0 {
			buyIn = room.DefaultBuyIn
		}
		g := model.Game{ID: idOrNew(fg.ID), Date: date, BuyInSize: buyIn, SeasonID: fg.Season, RoomID: room.ID}
		if err := w.PutGame(ctx, g); err != nil {
			return err
		}
		for _, fs := range fg.Scores {
			pid, ok := resolve(fs.Player)
			if !ok {
				return fmt.Errorf("%w: game %s: unknown player %q", ErrInvalidRecord, g.ID, fs.Player)
			}
			sc := model.NewScore(g.ID, pid)
			if fs.Buyins != nil {
				sc.Buyins = *fs.Buyins
			}
			if fs.Stack != nil {
				sc.Stack = *fs.Stack
			}
			if err := w.PutScore(ctx, sc); err != nil {
				return err
			}
		}
	}
	return nil
}
