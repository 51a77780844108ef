package engine

import (
	"testing"
	"time"

	"github.com/vovakirdan/tui-codequest/internal/grid"
)

func TestResolverAdvance(t *testing.T) {
	tests := []struct {
		name   string
		facing grid.Angle
		n      int
		want   grid.Direction
	}{
		{"east", 0, 3, grid.East},
		{"south", 90, 2, grid.South},
		{"west", 180, 1, grid.West},
		{"north", 270, 4, grid.North},
		{"almost south", 44, 1, grid.East},
		{"bucket edge", 45, 1, grid.South},
		{"negative edge", grid.NewAngle(-45), 1, grid.East},
		{"north edge", 315, 1, grid.East},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := NewResolver(tt.facing).Advance(tt.n)
			if len(cmds) != tt.n {
				t.Fatalf("Advance(%d) returned %d commands", tt.n, len(cmds))
			}
			for _, c := range cmds {
				if c.Kind != CmdMove || c.Direction != tt.want {
					t.Errorf("Advance() = %v, expected move %v", c, tt.want)
				}
			}
		})
	}
}

func TestResolverAdvanceNonPositive(t *testing.T) {
	r := NewResolver(0)
	if cmds := r.Advance(0); len(cmds) != 0 {
		t.Errorf("Advance(0) = %v, expected none", cmds)
	}
	if cmds := r.Advance(-2); len(cmds) != 0 {
		t.Errorf("Advance(-2) = %v, expected none", cmds)
	}
}

func TestResolverProjectsQueuedTurns(t *testing.T) {
	r := NewResolver(0)
	r.TurnRight(90)
	cmds := r.Advance(1)

	if cmds[0].Direction != grid.South {
		t.Errorf("Advance() after TurnRight(90) = %v, expected south", cmds[0].Direction)
	}
}

func TestResolverHalfTurnsMatchFullTurn(t *testing.T) {
	a := NewResolver(0)
	a.TurnLeft(45)
	a.TurnLeft(45)

	b := NewResolver(0)
	b.TurnLeft(90)

	if a.Facing().Bucket() != b.Facing().Bucket() {
		t.Errorf("two 45 turns bucket to %v, one 90 turn to %v", a.Facing().Bucket(), b.Facing().Bucket())
	}
	if a.Facing().Bucket() != grid.North {
		t.Errorf("TurnLeft(90) from east = %v, expected north", a.Facing().Bucket())
	}
}

func TestResolverFace(t *testing.T) {
	tests := []struct {
		from grid.Angle
		to   grid.Direction
		deg  float64
	}{
		{0, grid.North, -90},
		{0, grid.South, 90},
		{0, grid.West, 180},
		{270, grid.East, 90},
		{90, grid.South, 0},
		{30, grid.East, -30},
	}

	for _, tt := range tests {
		r := NewResolver(tt.from)
		c := r.Face(tt.to)
		if c.Degrees != tt.deg {
			t.Errorf("Face(%v) from %v = %v, expected %v", tt.to, tt.from, c.Degrees, tt.deg)
		}
		if r.Facing() != tt.to.Angle() {
			t.Errorf("Facing() after Face(%v) = %v, expected %v", tt.to, r.Facing(), tt.to.Angle())
		}
	}
}

func TestWaitMillis(t *testing.T) {
	tests := []struct {
		ms   float64
		want time.Duration
	}{
		{250, 250 * time.Millisecond},
		{0, 0},
		{-5, 0},
		{1e9, MaxWait},
		{1e20, MaxWait},
	}

	for _, tt := range tests {
		if got := WaitMillis(tt.ms).Duration; got != tt.want {
			t.Errorf("WaitMillis(%v) = %v, expected %v", tt.ms, got, tt.want)
		}
	}
}
