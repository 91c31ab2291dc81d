// Package resonance implements the victims resonance roll: a two-tier
// d10 severity check with a conditional dyscrasia draw.
package resonance

import (
	"errors"
	"fmt"
	"strings"
)

// Mood is one of the four fixed emotional temperaments.
type Mood string

const (
	Choleric    Mood = "Choleric"
	Melancholic Mood = "Melancholic"
	Phlegmatic  Mood = "Phlegmatic"
	Sanguine    Mood = "Sanguine"
)

// Moods lists the valid temperaments in canonical order.
var Moods = []Mood{Choleric, Melancholic, Phlegmatic, Sanguine}

// ErrUnknownMood indicates a mood outside the four temperaments.
var ErrUnknownMood = errors.New("unknown mood")

// ParseMood matches a mood name case-insensitively.
func ParseMood(s string) (Mood, error) {
	for _, m := range Moods {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: %s)", ErrUnknownMood, s, MoodNames())
}

// MoodNames returns the valid mood names joined for error messages.
func MoodNames() string {
	names := make([]string, len(Moods))
	for i, m := range Moods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// Level is the severity tier of an emotional reaction, increasing order.
type Level int

const (
	Negligible Level = iota
	Fleeting
	Intense
	Acute
)

func (l Level) String() string {
	switch l {
	case Negligible:
		return "Negligible"
	case Fleeting:
		return "Fleeting"
	case Intense:
		return "Intense"
	case Acute:
		return "Acute"
	default:
		return "Unknown"
	}
}

// dyscrasias is fixed at init and never mutated afterwards.
var dyscrasias = map[Mood][]string{
	Choleric:    {"Bloodlust", "Short Fuse", "Tyrant's Bark", "Grudge-Bearer"},
	Melancholic: {"Maudlin Despair", "Haunted Reverie", "Crushing Guilt", "Obsessive Memory"},
	Phlegmatic:  {"Glacial Detachment", "Torpid Calm", "Fatalist's Shrug", "Slow Rot"},
	Sanguine:    {"Manic Glee", "Addictive Lust", "Starry-Eyed", "Reckless Abandon"},
}

// Dyscrasias returns a copy of the mood's dyscrasia table.
func Dyscrasias(mood Mood) []string {
	table := dyscrasias[mood]
	out := make([]string, len(table))
	copy(out, table)
	return out
}

// Result is the outcome of a single resonance roll. Dyscrasia is empty
// when no dyscrasia manifested; it is never set at Negligible level.
type Result struct {
	Level     Level
	Dyscrasia string
}

// Resolve rolls victims resonance for the given mood.
//
// # Severity
//
// A d10 decides the base tier: 1-5 is Negligible (and the roll ends
// there), 6-8 is Fleeting, 9-10 escalates to a second d10 where 1-8 is
// Intense and 9-10 is Acute.
//
// # Dyscrasia
//
// Whenever the level is above Negligible, a unit draw below 0.2 picks a
// dyscrasia uniformly from the mood's table.
//
// Resolve assumes a valid mood; callers validate with ParseMood. It is
// deterministic with respect to the draws produced by src.
func Resolve(mood Mood, src Source) Result {
	severity := rollD10(src)
	if severity <= 5 {
		return Result{Level: Negligible}
	}

	level := Fleeting
	if severity >= 9 {
		if rollD10(src) >= 9 {
			level = Acute
		} else {
			level = Intense
		}
	}

	result := Result{Level: level}
	if src.Float64() < 0.2 {
		table := dyscrasias[mood]
		result.Dyscrasia = table[src.IntN(len(table))]
	}
	return result
}

// rollD10 draws a uniform integer in [1,10].
func rollD10(src Source) int {
	return src.IntN(10) + 1
}
