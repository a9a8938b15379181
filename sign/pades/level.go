// Package pades determines the PAdES baseline conformance level achieved by
// the signatures in a PDF document.
//
// The ReportGenerator consumes the events emitted by signature, chain and
// revocation validation and builds a DocumentReport. It performs no
// cryptographic verification of its own.
package pades

import (
	"encoding/json"
	"fmt"
)

// Level is a PAdES baseline conformance level.
type Level int

// Conformance levels. The ladder is LevelBB < LevelBT < LevelBLT < LevelBLTA.
// LevelNone and LevelIndeterminate are terminal values outside the ladder.
const (
	LevelNone Level = iota
	LevelBB
	LevelBT
	LevelBLT
	LevelBLTA
	LevelIndeterminate
)

// LadderLevels lists the ladder levels in ascending order.
var LadderLevels = []Level{LevelBB, LevelBT, LevelBLT, LevelBLTA}

var levelNames = map[Level]string{
	LevelNone:          "NONE",
	LevelBB:            "B_B",
	LevelBT:            "B_T",
	LevelBLT:           "B_LT",
	LevelBLTA:          "B_LTA",
	LevelIndeterminate: "INDETERMINATE",
}

// String returns the string representation of the level.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel parses the string form of a level.
func ParseLevel(s string) (Level, error) {
	for level, name := range levelNames {
		if name == s {
			return level, nil
		}
	}
	return LevelNone, fmt.Errorf("unknown PAdES level %q", s)
}

// OnLadder reports whether the level is one of B_B, B_T, B_LT or B_LTA.
func (l Level) OnLadder() bool {
	return l >= LevelBB && l <= LevelBLTA
}

// MinLevel returns the weaker of two ladder levels.
func MinLevel(a, b Level) Level {
	if a < b {
		return a
	}
	return b
}

// MarshalText implements encoding.TextMarshaler so levels can key JSON maps.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalJSON encodes the level as its string form.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}
