package anim

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-codequest/internal/engine"
	"github.com/vovakirdan/tui-codequest/internal/grid"
	"github.com/vovakirdan/tui-codequest/internal/level"
)

func quietAnimator() *Animator {
	return NewAnimator(log.New(io.Discard))
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

type doneRecorder struct {
	calls int
	err   error
}

func (r *doneRecorder) done(err error) {
	r.calls++
	r.err = err
}

func TestAnimatorWalk(t *testing.T) {
	a := quietAnimator()
	rec := &doneRecorder{}
	a.Animate(engine.Animation{
		Kind:     engine.AnimWalk,
		From:     grid.Point{X: 0, Y: 0},
		To:       grid.Point{X: 32, Y: 0},
		Duration: 400 * time.Millisecond,
	}, rec.done)

	if !a.Busy() {
		t.Fatal("Busy() = false after Animate, expected true")
	}
	if !a.Step(200 * time.Millisecond) {
		t.Error("Step() = false halfway, expected true")
	}
	x := a.View().Sprite.Position.X
	if x <= 16 || x >= 32 {
		t.Errorf("halfway X = %v, expected eased value in (16, 32)", x)
	}
	if rec.calls != 0 {
		t.Errorf("done called %d times before completion", rec.calls)
	}

	if a.Step(300 * time.Millisecond) {
		t.Error("Step() = true after the end, expected false")
	}
	if rec.calls != 1 || rec.err != nil {
		t.Errorf("done = (%d calls, %v), expected one nil call", rec.calls, rec.err)
	}
	if got := a.View().Sprite.Position; got != (grid.Point{X: 32}) {
		t.Errorf("final position = %v, expected (32,0)", got)
	}

	a.Step(time.Second)
	if rec.calls != 1 {
		t.Errorf("done called %d times, expected exactly once", rec.calls)
	}
}

func TestAnimatorBumpReturns(t *testing.T) {
	a := quietAnimator()
	from, to := grid.Point{X: 16, Y: 16}, grid.Point{X: 16, Y: -16}
	a.Animate(engine.Animation{Kind: engine.AnimBump, From: from, To: to, Duration: 100 * time.Millisecond}, func(error) {})

	a.Step(50 * time.Millisecond)
	if y := a.View().Sprite.Position.Y; y >= 16 || y <= 0 {
		t.Errorf("mid-bump Y = %v, expected between 0 and 16", y)
	}
	a.Step(50 * time.Millisecond)
	if got := a.View().Sprite.Position; got != from {
		t.Errorf("after bump position = %v, expected %v", got, from)
	}
}

func TestAnimatorRotateAndSpin(t *testing.T) {
	tests := []struct {
		name     string
		kind     engine.AnimationKind
		from, to float64
		expected float64
	}{
		{"turn right", engine.AnimRotate, 0, 90, 90},
		{"turn left", engine.AnimRotate, 0, -90, 270},
		{"spin", engine.AnimSpin, 90, 450, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := quietAnimator()
			a.Animate(engine.Animation{Kind: tt.kind, FromAngle: tt.from, ToAngle: tt.to, Duration: time.Second}, func(error) {})
			a.Step(time.Second)
			if got := a.View().Sprite.Facing.Degrees(); !near(got, tt.expected) {
				t.Errorf("Facing = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestAnimatorJumpIsTwoPhase(t *testing.T) {
	a := quietAnimator()
	a.Animate(engine.Animation{Kind: engine.AnimJump, Height: 10, Duration: 400 * time.Millisecond}, func(error) {})

	var lifts []float64
	for i := 0; i < 3; i++ {
		a.Step(100 * time.Millisecond)
		lifts = append(lifts, a.View().Sprite.Lift)
	}
	if !(lifts[0] > 0 && lifts[1] >= lifts[0] && lifts[2] < lifts[1]) {
		t.Errorf("lifts = %v, expected rise then fall", lifts)
	}
	if !near(lifts[1], 10) {
		t.Errorf("peak lift = %v, expected 10", lifts[1])
	}
	a.Step(100 * time.Millisecond)
	if lift := a.View().Sprite.Lift; lift != 0 {
		t.Errorf("Lift after landing = %v, expected 0", lift)
	}
}

func TestAnimatorTeleportFades(t *testing.T) {
	a := quietAnimator()
	from, to := grid.Point{X: 1, Y: 1}, grid.Point{X: 90, Y: 40}
	a.Animate(engine.Animation{Kind: engine.AnimTeleport, From: from, To: to, Duration: time.Second}, func(error) {})

	a.Step(250 * time.Millisecond)
	v := a.View().Sprite
	if v.Position != from || !near(v.Alpha, 0.5) {
		t.Errorf("first half = (%v, %v), expected (%v, 0.5)", v.Position, v.Alpha, from)
	}
	a.Step(500 * time.Millisecond)
	v = a.View().Sprite
	if v.Position != to || !near(v.Alpha, 0.5) {
		t.Errorf("second half = (%v, %v), expected (%v, 0.5)", v.Position, v.Alpha, to)
	}
}

func TestAnimatorRejectsOverlap(t *testing.T) {
	a := quietAnimator()
	first, second := &doneRecorder{}, &doneRecorder{}
	a.Animate(engine.Animation{Kind: engine.AnimPause, Duration: time.Second}, first.done)
	a.Animate(engine.Animation{Kind: engine.AnimPause, Duration: time.Second}, second.done)

	if second.calls != 1 || !errors.Is(second.err, ErrBusy) {
		t.Errorf("second done = (%d, %v), expected ErrBusy", second.calls, second.err)
	}
	if first.calls != 0 {
		t.Errorf("first done called early")
	}
}

func TestAnimatorZeroDuration(t *testing.T) {
	a := quietAnimator()
	rec := &doneRecorder{}
	a.Animate(engine.Animation{Kind: engine.AnimWalk, To: grid.Point{X: 5, Y: 5}}, rec.done)
	if rec.calls != 1 {
		t.Fatalf("done calls = %d, expected 1", rec.calls)
	}
	if a.Busy() {
		t.Error("Busy() = true after zero-length animation")
	}
	if got := a.View().Sprite.Position; got != (grid.Point{X: 5, Y: 5}) {
		t.Errorf("position = %v, expected (5,5)", got)
	}
}

func TestAnimatorStopAndPlace(t *testing.T) {
	a := quietAnimator()
	rec := &doneRecorder{}
	a.Animate(engine.Animation{Kind: engine.AnimJump, Height: 8, Duration: time.Second}, rec.done)
	a.Step(300 * time.Millisecond)
	a.Stop()

	if a.Busy() {
		t.Error("Busy() = true after Stop")
	}
	if a.Step(time.Second) {
		t.Error("Step() = true after Stop")
	}
	if rec.calls != 0 {
		t.Errorf("done called %d times after Stop, expected 0", rec.calls)
	}

	a.Place(grid.Point{X: 48, Y: 16}, grid.NewAngle(180))
	v := a.View().Sprite
	if v.Position != (grid.Point{X: 48, Y: 16}) || v.Facing.Bucket() != grid.West || v.Lift != 0 {
		t.Errorf("after Place sprite = %+v", v)
	}
}

func TestAnimatorDecorations(t *testing.T) {
	a := quietAnimator()
	a.Decorate(grid.C(2, 2), engine.Decoration{Kind: engine.DecorCollectible, Collectible: level.Grass})
	a.Decorate(grid.C(4, 2), engine.Decoration{Kind: engine.DecorGoal})

	view := a.View()
	view.Decorations[grid.C(9, 9)] = engine.Decoration{}
	if _, ok := a.View().Decorations[grid.C(9, 9)]; ok {
		t.Error("View() shares its decoration map with the animator")
	}

	a.Undecorate(grid.C(2, 2))
	if got := len(a.View().Decorations); got != 1 {
		t.Errorf("len(Decorations) = %d, expected 1", got)
	}
}

func TestSessionWithAnimator(t *testing.T) {
	goal := grid.C(3, 1)
	cfg, _ := level.Resolve(level.Definition{
		ID:           "strip",
		Size:         grid.Bounds{Cols: 5, Rows: 3},
		Start:        grid.C(1, 1),
		Goal:         &goal,
		Collectibles: []level.Collectible{{Cell: grid.C(2, 1), Kind: level.Grass}},
	}, rand.New(rand.NewSource(1)))

	a := quietAnimator()
	opts := engine.DefaultOptions()
	opts.StepDelay = 0
	opts.Logger = log.New(io.Discard)
	s := engine.NewSession(cfg, a, opts)
	s.Start()
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewDriver(a, 200, log.New(io.Discard)).Run(ctx)

	if _, err := s.BeginProgram(); err != nil {
		t.Fatalf("BeginProgram() error = %v", err)
	}
	if err := s.Enqueue(engine.Move(grid.East), engine.Move(grid.East)); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err := s.EndProgram(); err != nil {
		t.Fatalf("EndProgram() error = %v", err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case evt := <-s.Events():
			if _, ok := evt.(engine.DrainedEvent); !ok {
				continue
			}
			st, err := s.State()
			if err != nil {
				t.Fatalf("State() error = %v", err)
			}
			if st.Position != goal || !st.GoalReached {
				t.Errorf("State() = %+v, expected goal reached at %v", st, goal)
			}
			view := a.View()
			if view.Sprite.Position != opts.Mapper.CellToWorld(goal) {
				t.Errorf("sprite at %v, expected %v", view.Sprite.Position, opts.Mapper.CellToWorld(goal))
			}
			if view.Decorations[goal].Kind != engine.DecorGoalReached {
				t.Errorf("goal decoration = %v, expected reached", view.Decorations[goal].Kind)
			}
			if _, ok := view.Decorations[grid.C(2, 1)]; ok {
				t.Error("collected grass is still decorated")
			}
			return
		case <-timeout:
			t.Fatal("timed out waiting for the run to drain")
		}
	}
}
