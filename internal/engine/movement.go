package engine

import (
	"math"

	"github.com/vovakirdan/tui-codequest/internal/grid"
)

// Resolver turns movement intents into commands.
//
// It tracks the projected facing: the committed facing plus every turn it has
// produced so far. A program enqueues all of its commands before the first
// one finishes, so each moveForward must bucket the facing the player will
// have when that move starts, not the facing they have now.
type Resolver struct {
	facing grid.Angle
}

// NewResolver returns a resolver starting from the committed facing.
func NewResolver(facing grid.Angle) *Resolver {
	return &Resolver{facing: facing}
}

// Facing returns the projected facing.
func (r *Resolver) Facing() grid.Angle { return r.facing }

// Reset sets the projected facing back to a committed value.
func (r *Resolver) Reset(facing grid.Angle) { r.facing = facing }

// Advance returns exactly n single-cell moves in the bucketed direction of the
// projected facing. Non-positive n yields no commands.
func (r *Resolver) Advance(n int) []Command {
	if n <= 0 {
		return nil
	}
	dir := r.facing.Bucket()
	cmds := make([]Command, n)
	for i := range cmds {
		cmds[i] = Move(dir)
	}
	return cmds
}

// Turn rotates the projected facing by deg degrees clockwise.
func (r *Resolver) Turn(deg float64) Command {
	r.facing = r.facing.Turn(deg)
	return Turn(deg)
}

// TurnLeft rotates counter-clockwise on screen.
func (r *Resolver) TurnLeft(deg float64) Command { return r.Turn(-deg) }

// TurnRight rotates clockwise on screen.
func (r *Resolver) TurnRight(deg float64) Command { return r.Turn(deg) }

// Face turns the shortest way to an exact cardinal direction.
func (r *Resolver) Face(d grid.Direction) Command {
	return r.Turn(shortestTurn(r.facing, d.Angle()))
}

// shortestTurn returns the signed delta in (-180, 180] from one angle to another.
func shortestTurn(from, to grid.Angle) float64 {
	delta := math.Mod(to.Degrees()-from.Degrees(), 360)
	if delta <= -180 {
		delta += 360
	}
	if delta > 180 {
		delta -= 360
	}
	return delta
}
