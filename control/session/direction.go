package session

import (
	"fmt"
	"strconv"
	"strings"
)

// Direction is one of the eight robot headings a move can request. The wire
// encoding is the raw value 0..7.
type Direction uint8

const (
	DirectionUp Direction = iota
	DirectionDown
	DirectionLeft
	DirectionRight
	DirectionUpRight
	DirectionUpLeft
	DirectionDownLeft
	DirectionDownRight
)

// directionNames maps each valid direction to its canonical label.
var directionNames = [...]string{
	DirectionUp:        "up",
	DirectionDown:      "down",
	DirectionLeft:      "left",
	DirectionRight:     "right",
	DirectionUpRight:   "up_right",
	DirectionUpLeft:    "up_left",
	DirectionDownLeft:  "down_left",
	DirectionDownRight: "down_right",
}

// Valid reports whether the direction is inside the eight-way enumeration.
func (d Direction) Valid() bool {
	return int(d) < len(directionNames)
}

// String returns the canonical label for the direction, or "invalid" for any
// value outside 0..7.
func (d Direction) String() string {
	if !d.Valid() {
		return "invalid"
	}
	return directionNames[d]
}

// DirectionName maps a raw direction value to its label, "invalid" for any
// value outside 0..7.
func DirectionName(value uint8) string {
	return Direction(value).String()
}

// Directions returns all eight valid directions in wire order.
func Directions() []Direction {
	out := make([]Direction, len(directionNames))
	for i := range directionNames {
		out[i] = Direction(i)
	}
	return out
}

// ParseDirection accepts either the numeric wire value ("0".."7") or a
// canonical label ("up_right") and returns the direction. It fails with
// ErrInvalidDirection for anything else.
func ParseDirection(s string) (Direction, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return 0, fmt.Errorf("empty direction: %w", ErrInvalidDirection)
	}
	if n, err := strconv.ParseUint(normalized, 10, 8); err == nil {
		d := Direction(n)
		if !d.Valid() {
			return 0, fmt.Errorf("direction %d out of range: %w", n, ErrInvalidDirection)
		}
		return d, nil
	}
	for i, name := range directionNames {
		if normalized == name {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("direction %q: %w", s, ErrInvalidDirection)
}
