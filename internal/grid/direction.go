package grid

import (
	"math"
	"strings"
)

// Direction is one of the four cardinal directions.
// Values are ordered clockwise starting at east so that Direction*90 is its angle.
type Direction uint8

const (
	East Direction = iota
	South
	West
	North
)

// String returns the lower-case name of the direction.
func (d Direction) String() string {
	switch d {
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	case North:
		return "north"
	default:
		return "unknown"
	}
}

// Delta returns the (dcol, drow) offset for one step in this direction.
// North decreases Row, South increases Row (screen coordinates).
func (d Direction) Delta() (dc, dr int) {
	switch d {
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	case North:
		return 0, -1
	default:
		return 0, 0
	}
}

// Angle returns the facing angle that points exactly in this direction.
func (d Direction) Angle() Angle {
	return Angle(float64(d%4) * 90)
}

// ParseDirection accepts "east", "s", "North", ... and returns the direction.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "east", "e", "right":
		return East, true
	case "south", "s", "down":
		return South, true
	case "west", "w", "left":
		return West, true
	case "north", "n", "up":
		return North, true
	}
	return East, false
}

// Angle is a facing in degrees, always normalized to [0, 360).
// 0 is east and angles grow clockwise on screen, so 90 is south.
type Angle float64

// NewAngle normalizes deg into [0, 360).
func NewAngle(deg float64) Angle {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	// math.Mod of a tiny negative value can round back up to 360.
	if a >= 360 {
		a = 0
	}
	return Angle(a)
}

// Turn returns the facing after rotating by delta degrees (positive is clockwise).
func (a Angle) Turn(delta float64) Angle {
	return NewAngle(float64(a) + delta)
}

// Degrees returns the angle as a plain float.
func (a Angle) Degrees() float64 {
	return float64(a)
}

// Bucket resolves the facing into the nearest cardinal direction.
// [315,45) is east, [45,135) south, [135,225) west and [225,315) north.
func (a Angle) Bucket() Direction {
	shifted := NewAngle(float64(a) + 45)
	return Direction(int(float64(shifted)/90) % 4)
}
