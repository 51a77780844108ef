// Package anim animates the player sprite for interactive front ends.
//
// Animator implements engine.Backend. It holds no timers of its own: the
// owner advances it with Step, either from a UI tick (bubbletea) or from a
// Driver running on a wall-clock ticker.
package anim

import (
	"errors"
	"math"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-codequest/internal/core"
	"github.com/vovakirdan/tui-codequest/internal/engine"
	"github.com/vovakirdan/tui-codequest/internal/grid"
)

// ErrBusy is reported to the done callback of an animation requested while
// another one is still running.
var ErrBusy = errors.New("anim: an animation is already running")

// Sprite is the drawable state of the player.
type Sprite struct {
	Position grid.Point
	Facing   grid.Angle
	// Lift is the current jump height above the ground.
	Lift float64
	// Alpha is 1 when fully visible and 0 halfway through a teleport.
	Alpha float64
	// Action is the animation being played, valid while Busy.
	Action engine.AnimationKind
	Busy   bool
}

// View is a snapshot of everything the renderer needs.
type View struct {
	Sprite      Sprite
	Decorations map[grid.Cell]engine.Decoration
}

type track struct {
	anim    engine.Animation
	elapsed time.Duration
	done    func(error)
}

// Animator is a Step-driven engine.Backend.
type Animator struct {
	mu          sync.Mutex
	sprite      Sprite
	decorations map[grid.Cell]engine.Decoration
	active      *track
	logger      *log.Logger
}

// NewAnimator creates an idle animator. A nil logger logs to stderr.
func NewAnimator(logger *log.Logger) *Animator {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "anim",
		})
	}
	return &Animator{
		sprite:      Sprite{Alpha: 1},
		decorations: make(map[grid.Cell]engine.Decoration),
		logger:      logger,
	}
}

// Animate starts a. Zero-length animations complete immediately.
func (a *Animator) Animate(an engine.Animation, done func(error)) {
	a.mu.Lock()
	if a.active != nil {
		a.mu.Unlock()
		a.logger.Warn("animation rejected", "kind", an.Kind, "running", a.active.anim.Kind)
		done(ErrBusy)
		return
	}
	if an.Duration <= 0 {
		a.finish(an)
		a.mu.Unlock()
		done(nil)
		return
	}
	a.active = &track{anim: an, done: done}
	a.sprite.Busy = true
	a.sprite.Action = an.Kind
	a.apply(an, 0)
	a.mu.Unlock()
}

// Step advances the running animation by dt and reports whether one is
// still in flight afterwards.
func (a *Animator) Step(dt time.Duration) bool {
	a.mu.Lock()
	tr := a.active
	if tr == nil {
		a.mu.Unlock()
		return false
	}
	tr.elapsed += dt
	if tr.elapsed < tr.anim.Duration {
		a.apply(tr.anim, float64(tr.elapsed)/float64(tr.anim.Duration))
		a.mu.Unlock()
		return true
	}
	a.active = nil
	a.finish(tr.anim)
	a.mu.Unlock()

	tr.done(nil)
	return false
}

// Busy reports whether an animation is running.
func (a *Animator) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active != nil
}

// Stop abandons the running animation without completing it. The sprite
// keeps its current position until the next Place.
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = nil
	a.sprite.Busy = false
	a.sprite.Lift = 0
	a.sprite.Alpha = 1
}

// Decorate draws d on cell, replacing any earlier decoration.
func (a *Animator) Decorate(cell grid.Cell, d engine.Decoration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.decorations[cell] = d
}

// Undecorate clears cell.
func (a *Animator) Undecorate(cell grid.Cell) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.decorations, cell)
}

// Place moves the sprite without animating.
func (a *Animator) Place(p grid.Point, facing grid.Angle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sprite.Position = p
	a.sprite.Facing = facing
	a.sprite.Lift = 0
	a.sprite.Alpha = 1
}

// View returns a copy of the current state.
func (a *Animator) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	decorations := make(map[grid.Cell]engine.Decoration, len(a.decorations))
	for cell, d := range a.decorations {
		decorations[cell] = d
	}
	return View{Sprite: a.sprite, Decorations: decorations}
}

// apply sets the sprite for progress t in [0, 1).
func (a *Animator) apply(an engine.Animation, t float64) {
	s := &a.sprite
	switch an.Kind {
	case engine.AnimWalk:
		s.Position = lerp(an.From, an.To, easeOutQuad(t))
	case engine.AnimBump:
		// Lean a third of the way toward the target and come back.
		s.Position = lerp(an.From, an.To, math.Sin(math.Pi*t)/3)
	case engine.AnimRotate, engine.AnimSpin:
		s.Facing = grid.NewAngle(an.FromAngle + (an.ToAngle-an.FromAngle)*easeOutQuad(t))
	case engine.AnimJump:
		if t < 0.5 {
			s.Lift = an.Height * easeOutQuad(t*2)
		} else {
			s.Lift = an.Height * (1 - easeInQuad((t-0.5)*2))
		}
	case engine.AnimTeleport:
		if t < 0.5 {
			s.Position = an.From
			s.Alpha = 1 - t*2
		} else {
			s.Position = an.To
			s.Alpha = (t - 0.5) * 2
		}
	}
}

// finish sets the final state of an.
func (a *Animator) finish(an engine.Animation) {
	s := &a.sprite
	switch an.Kind {
	case engine.AnimWalk, engine.AnimTeleport:
		s.Position = an.To
	case engine.AnimBump:
		s.Position = an.From
	case engine.AnimRotate, engine.AnimSpin:
		s.Facing = grid.NewAngle(an.ToAngle)
	}
	s.Lift = 0
	s.Alpha = 1
	s.Busy = false
}

func lerp(from, to grid.Point, t float64) grid.Point {
	return grid.Point{
		X: core.Lerp(from.X, to.X, t),
		Y: core.Lerp(from.Y, to.Y, t),
	}
}

func easeOutQuad(t float64) float64 { return 1 - (1-t)*(1-t) }

func easeInQuad(t float64) float64 { return t * t }
