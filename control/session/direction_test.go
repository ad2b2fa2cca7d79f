package session

import (
	"errors"
	"testing"
)

func TestDirectionNames(t *testing.T) {
	tests := []struct {
		value uint8
		want  string
	}{
		{0, "up"},
		{1, "down"},
		{2, "left"},
		{3, "right"},
		{4, "up_right"},
		{5, "up_left"},
		{6, "down_left"},
		{7, "down_right"},
		{8, "invalid"},
		{9, "invalid"},
		{255, "invalid"},
	}

	for _, tt := range tests {
		if got := DirectionName(tt.value); got != tt.want {
			t.Errorf("DirectionName(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestDirectionValid(t *testing.T) {
	for _, d := range Directions() {
		if !d.Valid() {
			t.Errorf("Expected direction %d to be valid", d)
		}
	}
	if Direction(8).Valid() {
		t.Error("Expected direction 8 to be invalid")
	}
}

func TestDirectionsOrder(t *testing.T) {
	all := Directions()
	if len(all) != 8 {
		t.Fatalf("Expected 8 directions, got %d", len(all))
	}
	for i, d := range all {
		if uint8(d) != uint8(i) {
			t.Errorf("Expected wire value %d at index %d, got %d", i, i, d)
		}
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input   string
		want    Direction
		wantErr bool
	}{
		{"0", DirectionUp, false},
		{"7", DirectionDownRight, false},
		{"up", DirectionUp, false},
		{"down_right", DirectionDownRight, false},
		{"UP_LEFT", DirectionUpLeft, false},
		{" right ", DirectionRight, false},
		{"8", 0, true},
		{"northwest", 0, true},
		{"", 0, true},
		{"-1", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDirection(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidDirection) {
				t.Errorf("ParseDirection(%q): expected ErrInvalidDirection, got %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDirection(%q) failed: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDirection(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
