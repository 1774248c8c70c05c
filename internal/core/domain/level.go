package domain

import (
	"fmt"
	"strings"
)

// Level is the verbosity of a task. Lower rank means more verbose.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelVerbose Level = "verbose"
	LevelAlways  Level = "always"
	LevelQuiet   Level = "quiet"
)

// LevelRanks maps each recognized level to its numeric rank.
// always and quiet share the least verbose rank.
var LevelRanks = map[Level]int{
	LevelDebug:   0,
	LevelVerbose: 1,
	LevelAlways:  2,
	LevelQuiet:   2,
}

// Levels returns the recognized levels, most verbose first.
func Levels() []Level {
	return []Level{LevelDebug, LevelVerbose, LevelAlways, LevelQuiet}
}

// Rank returns the numeric rank of the level and whether it is recognized.
func (l Level) Rank() (int, bool) {
	r, ok := LevelRanks[l]
	return r, ok
}

// Valid reports whether l is a recognized level.
func (l Level) Valid() bool {
	_, ok := LevelRanks[l]
	return ok
}

func (l Level) String() string {
	return string(l)
}

// ParseLevel converts a string ("debug", "verbose", "always", "quiet") to a Level.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q (want one of %v)", s, Levels())
	}
	return l, nil
}
