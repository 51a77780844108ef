package engine

import (
	"time"

	"github.com/vovakirdan/tui-codequest/internal/grid"
	"github.com/vovakirdan/tui-codequest/internal/level"
)

// AnimationKind identifies what a backend is asked to animate.
type AnimationKind uint8

const (
	AnimWalk AnimationKind = iota
	AnimBump
	AnimRotate
	AnimPause
	AnimJump
	AnimAttack
	AnimTeleport
	AnimSpin
)

func (k AnimationKind) String() string {
	switch k {
	case AnimWalk:
		return "walk"
	case AnimBump:
		return "bump"
	case AnimRotate:
		return "rotate"
	case AnimPause:
		return "pause"
	case AnimJump:
		return "jump"
	case AnimAttack:
		return "attack"
	case AnimTeleport:
		return "teleport"
	case AnimSpin:
		return "spin"
	default:
		return "unknown"
	}
}

// Animation describes one property animation of the player sprite.
//
// Walk, bump and teleport move the sprite from From to To (a bump turns back
// halfway). Rotate and spin interpolate FromAngle to ToAngle; ToAngle is not
// normalized so a spin can cover a full turn. Jump is two-phase: the sprite
// rises to Height and comes back down before completion is signalled.
type Animation struct {
	Kind      AnimationKind
	From      grid.Point
	To        grid.Point
	FromAngle float64
	ToAngle   float64
	Height    float64
	Duration  time.Duration
}

// DecorationKind identifies a cell decoration.
type DecorationKind uint8

const (
	DecorCollectible DecorationKind = iota
	DecorHazard
	DecorGoal
	DecorGoalReached
)

// Decoration is drawn on a grid cell by the backend.
type Decoration struct {
	Kind        DecorationKind
	Collectible level.CollectibleKind
}

// Backend renders the player and cell decorations.
//
// Animate must eventually call done exactly once, with a non-nil error when
// the animation failed. done may be called from any goroutine, including
// synchronously from inside Animate. Stop abandons the animation in flight;
// its done callback may still fire and is ignored by the session.
type Backend interface {
	Animate(a Animation, done func(error))
	Stop()
	Decorate(cell grid.Cell, d Decoration)
	Undecorate(cell grid.Cell)
	Place(p grid.Point, facing grid.Angle)
}

// InstantBackend completes every animation immediately and draws nothing.
// It is used for grading runs and tests.
type InstantBackend struct{}

func (InstantBackend) Animate(_ Animation, done func(error)) { done(nil) }
func (InstantBackend) Stop()                                 {}
func (InstantBackend) Decorate(grid.Cell, Decoration)        {}
func (InstantBackend) Undecorate(grid.Cell)                  {}
func (InstantBackend) Place(grid.Point, grid.Angle)          {}
