package core

import "testing"

func TestRectContains(t *testing.T) {
	r := NewRect(2, 3, 4, 2)

	tests := []struct {
		name     string
		x, y     int
		expected bool
	}{
		{"top-left corner", 2, 3, true},
		{"inside", 4, 4, true},
		{"right edge is exclusive", 6, 3, false},
		{"bottom edge is exclusive", 2, 5, false},
		{"left of rect", 1, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.x, tt.y); got != tt.expected {
				t.Errorf("Contains(%d, %d) = %v, expected %v", tt.x, tt.y, got, tt.expected)
			}
		})
	}
}

func TestRectInset(t *testing.T) {
	tests := []struct {
		name     string
		r        Rect
		n        int
		expected Rect
	}{
		{"shrinks by one", NewRect(0, 0, 10, 6), 1, NewRect(1, 1, 8, 4)},
		{"never negative", NewRect(0, 0, 2, 2), 3, NewRect(3, 3, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Inset(tt.n); got != tt.expected {
				t.Errorf("Inset(%d) = %+v, expected %+v", tt.n, got, tt.expected)
			}
		})
	}
}

func TestLerp(t *testing.T) {
	tests := []struct {
		a, b, t, expected float64
	}{
		{0, 10, 0, 0},
		{0, 10, 0.5, 5},
		{0, 10, 1, 10},
		{0, 10, 2, 10},
		{10, 0, -1, 10},
	}

	for _, tt := range tests {
		if got := Lerp(tt.a, tt.b, tt.t); got != tt.expected {
			t.Errorf("Lerp(%v, %v, %v) = %v, expected %v", tt.a, tt.b, tt.t, got, tt.expected)
		}
	}
}
