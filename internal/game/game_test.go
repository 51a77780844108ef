package game

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/vovakirdan/tui-codequest/internal/engine"
	"github.com/vovakirdan/tui-codequest/internal/grid"
	"github.com/vovakirdan/tui-codequest/internal/level"
	"github.com/vovakirdan/tui-codequest/internal/script"
)

func meadow() level.Definition {
	goal := grid.C(4, 2)
	return level.Definition{
		ID:    "meadow",
		Name:  "Meadow Walk",
		Size:  grid.Bounds{Cols: 8, Rows: 5},
		Start: grid.C(1, 2),
		Goal:  &goal,
		Collectibles: []level.Collectible{
			{Cell: grid.C(2, 2), Kind: level.Grass},
		},
	}
}

func newTestGame(def level.Definition) *Game {
	opts := DefaultOptions()
	opts.Seed = 7
	opts.Engine.StepDelay = 0
	opts.Logger = log.New(io.Discard)
	g := New(def, engine.InstantBackend{}, opts)
	g.Start()
	return g
}

func drain(g *Game) []engine.Event {
	var out []engine.Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case evt := <-g.Events():
			out = append(out, evt)
			if _, ok := evt.(engine.DrainedEvent); ok {
				return out
			}
		case <-timeout:
			return out
		}
	}
}

func logs(events []engine.Event, severity log.Level) []string {
	var out []string
	for _, e := range events {
		if l, ok := e.(engine.LogEvent); ok && l.Severity == severity {
			out = append(out, l.Text)
		}
	}
	return out
}

func rewardTotals(events []engine.Event) []int {
	var out []int
	for _, e := range events {
		if r, ok := e.(engine.RewardEvent); ok {
			out = append(out, r.Total)
		}
	}
	return out
}

func TestExecuteProgram(t *testing.T) {
	Convey("Given a started meadow game", t, func() {
		g := newTestGame(meadow())
		defer g.Close()

		Convey("Walking three cells east collects the grass and reaches the goal", func() {
			So(g.ExecuteProgram("moveForward(3);"), ShouldBeNil)
			events := drain(g)

			So(rewardTotals(events), ShouldResemble, []int{10, 60})
			st, err := g.PlayerState()
			So(err, ShouldBeNil)
			So(st.Position, ShouldResemble, grid.C(4, 2))
			So(st.GoalReached, ShouldBeTrue)
			So(st.CellsTraversed, ShouldEqual, 3)
			So(st.ActionsInvoked, ShouldResemble, []string{"moveForward"})
		})

		Convey("An undefined name stops the program but earlier commands still run", func() {
			err := g.ExecuteProgram("moveForward();\nfoo();\nmoveForward();")
			serr, ok := script.AsError(err)
			So(ok, ShouldBeTrue)
			So(serr.Kind, ShouldEqual, script.KindReference)

			events := drain(g)
			So(logs(events, log.ErrorLevel), ShouldHaveLength, 1)
			st, _ := g.PlayerState()
			So(st.Position, ShouldResemble, grid.C(2, 2))
			So(st.Score, ShouldEqual, 10)
		})

		Convey("Running again starts a fresh action log", func() {
			So(g.ExecuteProgram("turnLeft(); turnRight();"), ShouldBeNil)
			drain(g)
			So(g.ExecuteProgram("jump();"), ShouldBeNil)
			drain(g)

			st, _ := g.PlayerState()
			So(st.ActionsInvoked, ShouldResemble, []string{"jump"})
			So(st.Rotations, ShouldEqual, 0)
		})

		Convey("A program with no actions still drains", func() {
			So(g.ExecuteProgram("let x = 1;"), ShouldBeNil)
			events := drain(g)
			So(events, ShouldNotBeEmpty)
			_, ok := events[len(events)-1].(engine.DrainedEvent)
			So(ok, ShouldBeTrue)
		})

		Convey("Reset restores the start and clears the score", func() {
			So(g.ExecuteProgram("moveForward(3); turnRight();"), ShouldBeNil)
			drain(g)

			st, err := g.Reset()
			So(err, ShouldBeNil)
			So(st.Position, ShouldResemble, grid.C(1, 2))
			So(st.Facing.Bucket(), ShouldEqual, grid.East)
			So(st.Score, ShouldEqual, 0)
			So(st.GoalReached, ShouldBeFalse)

			So(g.ExecuteProgram("moveForward();"), ShouldBeNil)
			So(rewardTotals(drain(g)), ShouldResemble, []int{10})
		})

		Convey("Check reports syntax errors without running anything", func() {
			err := g.Check("moveForward(")
			serr, ok := script.AsError(err)
			So(ok, ShouldBeTrue)
			So(serr.Kind, ShouldEqual, script.KindSyntax)
		})

		Convey("The level and session are identified", func() {
			So(g.Title(), ShouldEqual, "Meadow Walk")
			So(g.LevelID(), ShouldEqual, "meadow")
			So(g.ID(), ShouldNotBeEmpty)
		})
	})
}

func TestRandomPlacement(t *testing.T) {
	Convey("Given a level without a goal or collectibles", t, func() {
		def := level.Definition{
			ID:    "open",
			Size:  grid.Bounds{Cols: 6, Rows: 6},
			Start: grid.C(0, 0),
		}
		g := newTestGame(def)
		defer g.Close()

		cfg, err := g.Level()
		So(err, ShouldBeNil)
		goal, ok := cfg.Goal()
		So(ok, ShouldBeTrue)
		So(goal, ShouldNotResemble, grid.C(0, 0))
		So(len(cfg.Collectibles()), ShouldBeBetweenOrEqual, 3, 5)

		Convey("Reset rolls a fresh placement that still avoids the start", func() {
			_, err := g.Reset()
			So(err, ShouldBeNil)
			cfg, err := g.Level()
			So(err, ShouldBeNil)
			goal, ok := cfg.Goal()
			So(ok, ShouldBeTrue)
			So(goal, ShouldNotResemble, grid.C(0, 0))
			for _, c := range cfg.Collectibles() {
				So(c.Cell, ShouldNotResemble, goal)
				So(c.Cell, ShouldNotResemble, grid.C(0, 0))
			}
		})
	})

	Convey("Given a level with no room for a goal", t, func() {
		def := level.Definition{
			ID:    "cramped",
			Size:  grid.Bounds{Cols: 1, Rows: 1},
			Start: grid.C(0, 0),
		}
		g := newTestGame(def)
		defer g.Close()

		So(g.ExecuteProgram(""), ShouldBeNil)
		events := drain(g)
		So(logs(events, log.WarnLevel), ShouldNotBeEmpty)

		_, err := g.PlayerState()
		So(err, ShouldBeNil)
	})
}

func TestClosedGame(t *testing.T) {
	g := newTestGame(meadow())
	g.Close()

	if err := g.ExecuteProgram("moveForward();"); !errors.Is(err, engine.ErrClosed) {
		t.Errorf("ExecuteProgram() error = %v, expected ErrClosed", err)
	}
	if _, err := g.Reset(); !errors.Is(err, engine.ErrClosed) {
		t.Errorf("Reset() error = %v, expected ErrClosed", err)
	}
}
