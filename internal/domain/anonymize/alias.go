// Package anonymize replaces player names with stable poker-themed aliases
// for viewers who may not see a room's real names.
//
// An alias depends only on the name string. The hash and generator below
// must stay bit-compatible with aliases already shown to users.
package anonymize

import (
	"math"
	"unicode/utf16"
)

const (
	hashMultiplier = 31
	sineScale      = 10000
)

// Adjectives is the first alias word pool.
var Adjectives = [...]string{
	"Lucky", "Bluffing", "Silent", "Wild", "Cunning",
	"Bold", "Sneaky", "Stone-Faced", "Reckless", "Calm",
	"Sharp", "Tilted", "Patient", "Fearless", "Crafty",
	"Steady", "Daring", "Sly", "Cool", "Shrewd",
	"Loose", "Tight", "Aggressive", "Cautious", "Royal",
}

// Nouns is the second alias word pool.
var Nouns = [...]string{
	"Ace", "King", "Queen", "Jack", "Joker",
	"Shark", "Fish", "Whale", "Dealer", "Bluffer",
	"Gambler", "Flush", "Straight", "River", "Turn",
	"Flop", "Kicker", "Blind", "Pot", "Chip",
	"Raiser", "Caller", "Grinder", "Hustler", "Nit",
}

// Hash is a 31-multiplier polynomial hash over the UTF-16 code units of
// name with 32-bit signed wraparound, returned as an absolute value.
func Hash(name string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(name)) {
		h = h*hashMultiplier + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// seeded returns frac(sin(seed) * 10000) in [0, 1).
func seeded(seed float64) float64 {
	x := math.Sin(seed) * sineScale
	return x - math.Floor(x)
}

// Alias returns the pseudonym for name.
func Alias(name string) string {
	h := float64(Hash(name))
	adj := Adjectives[pick(seeded(h), len(Adjectives))]
	noun := Nouns[pick(seeded(h+1), len(Nouns))]
	return adj + " " + noun
}

func pick(r float64, n int) int {
	i := int(math.Floor(r * float64(n)))
	if i >= n {
		i = n - 1
	}
	return i
}
