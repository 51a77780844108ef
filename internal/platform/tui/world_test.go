package tui

import (
	"io"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-codequest/internal/anim"
	"github.com/vovakirdan/tui-codequest/internal/core"
	"github.com/vovakirdan/tui-codequest/internal/engine"
	"github.com/vovakirdan/tui-codequest/internal/grid"
	"github.com/vovakirdan/tui-codequest/internal/level"
)

var testMapper = grid.NewMapper(32, grid.Point{})

func resolveLevel(t *testing.T, def level.Definition) *level.Config {
	t.Helper()
	if err := level.Validate(def); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	cfg, warnings := level.Resolve(def, rand.New(rand.NewSource(1)))
	if len(warnings) > 0 {
		t.Fatalf("Resolve() warnings = %v", warnings)
	}
	return cfg
}

func placedAnimator(cfg *level.Config) *anim.Animator {
	a := anim.NewAnimator(log.New(io.Discard))
	a.Place(testMapper.CellToWorld(cfg.Start()), cfg.StartFacing())
	for _, c := range cfg.Collectibles() {
		a.Decorate(c.Cell, engine.Decoration{Kind: engine.DecorCollectible, Collectible: c.Kind})
	}
	if goal, ok := cfg.Goal(); ok {
		a.Decorate(goal, engine.Decoration{Kind: engine.DecorGoal})
	}
	return a
}

func TestWorldSize(t *testing.T) {
	w, h := WorldSize(grid.Bounds{Cols: 3, Rows: 2}, DefaultWorldStyle())
	if w != 14 || h != 6 {
		t.Errorf("WorldSize() = (%d, %d), expected (14, 6)", w, h)
	}
	w, h = WorldSize(grid.Bounds{Cols: 3, Rows: 2}, WorldStyle{})
	if w != 5 || h != 4 {
		t.Errorf("WorldSize() with zero style = (%d, %d), expected (5, 4)", w, h)
	}
}

func TestDrawWorld(t *testing.T) {
	goal := grid.C(2, 1)
	cfg := resolveLevel(t, level.Definition{
		ID:           "tiny",
		Size:         grid.Bounds{Cols: 3, Rows: 2},
		Start:        grid.C(0, 0),
		Goal:         &goal,
		Collectibles: []level.Collectible{{Cell: grid.C(1, 0), Kind: level.Grass}},
		Blocked:      []grid.Cell{grid.C(0, 1)},
		Path:         []grid.Cell{grid.C(1, 1)},
	})
	a := placedAnimator(cfg)

	style := DefaultWorldStyle()
	w, h := WorldSize(cfg.Bounds(), style)
	s := core.NewScreen(w, h)
	DrawWorld(s, 0, 0, cfg, a.View(), testMapper, style)

	tests := []struct {
		name     string
		x, y     int
		expected rune
	}{
		{"frame", 0, 0, '┌'},
		{"player", 3, 2, '▶'},
		{"grass", 7, 2, '"'},
		{"goal", 11, 4, '⚑'},
		{"water", 1, 3, '~'},
		{"path", 5, 3, '·'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Get(tt.x, tt.y); got != tt.expected {
				t.Errorf("Get(%d, %d) = %q, expected %q\n%s", tt.x, tt.y, got, tt.expected, s.String())
			}
		})
	}

	style.ShowPath = false
	s.Clear()
	DrawWorld(s, 0, 0, cfg, a.View(), testMapper, style)
	if got := s.Get(5, 3); got == '·' {
		t.Errorf("path drawn with ShowPath off\n%s", s.String())
	}
}

func TestDrawWorldTitle(t *testing.T) {
	tests := []struct {
		name     string
		cols     int
		expected string
	}{
		{"fits", 4, "┌─ Pond Walk ────┐"},
		{"cut", 2, "┌─ Pon… ─┐"},
		{"too narrow", 1, "┌────┐"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := resolveLevel(t, level.Definition{
				ID:           "pond",
				Name:         "Pond Walk",
				Size:         grid.Bounds{Cols: tt.cols, Rows: 1},
				Start:        grid.C(0, 0),
				Collectibles: []level.Collectible{},
			})
			s := core.NewScreen(WorldSize(cfg.Bounds(), DefaultWorldStyle()))
			DrawWorld(s, 0, 0, cfg, placedAnimator(cfg).View(), testMapper, DefaultWorldStyle())
			if got := s.Row(0); got != tt.expected {
				t.Errorf("Row(0) = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestDrawWorldGoalReached(t *testing.T) {
	goal := grid.C(1, 0)
	cfg := resolveLevel(t, level.Definition{
		ID:           "reach",
		Size:         grid.Bounds{Cols: 2, Rows: 1},
		Start:        grid.C(0, 0),
		Goal:         &goal,
		Collectibles: []level.Collectible{},
	})
	a := placedAnimator(cfg)
	a.Decorate(goal, engine.Decoration{Kind: engine.DecorGoalReached})

	s := core.NewScreen(WorldSize(cfg.Bounds(), DefaultWorldStyle()))
	DrawWorld(s, 0, 0, cfg, a.View(), testMapper, DefaultWorldStyle())
	if got := s.Get(7, 2); got != '★' {
		t.Errorf("goal glyph = %q, expected '★'\n%s", got, s.String())
	}
}

func TestDrawSprite(t *testing.T) {
	cfg := resolveLevel(t, level.Definition{
		ID:           "column",
		Size:         grid.Bounds{Cols: 1, Rows: 3},
		Start:        grid.C(0, 2),
		Facing:       grid.North,
		Collectibles: []level.Collectible{},
		Goal:         &grid.Cell{Col: 0, Row: 0},
	})
	style := DefaultWorldStyle()

	t.Run("facing", func(t *testing.T) {
		a := placedAnimator(cfg)
		s := core.NewScreen(WorldSize(cfg.Bounds(), style))
		DrawWorld(s, 0, 0, cfg, a.View(), testMapper, style)
		if got := s.Get(3, 6); got != '▲' {
			t.Errorf("sprite = %q, expected '▲'\n%s", got, s.String())
		}
	})

	t.Run("jump lifts one cell", func(t *testing.T) {
		a := placedAnimator(cfg)
		here := testMapper.CellToWorld(cfg.Start())
		a.Animate(engine.Animation{Kind: engine.AnimJump, From: here, To: here, Height: 32, Duration: 400 * time.Millisecond}, func(error) {})
		a.Step(200 * time.Millisecond)

		s := core.NewScreen(WorldSize(cfg.Bounds(), style))
		DrawWorld(s, 0, 0, cfg, a.View(), testMapper, style)
		if got := s.Get(3, 4); got != '▲' {
			t.Errorf("lifted sprite = %q, expected '▲'\n%s", got, s.String())
		}
	})

	t.Run("teleport fades", func(t *testing.T) {
		a := placedAnimator(cfg)
		here := testMapper.CellToWorld(cfg.Start())
		a.Animate(engine.Animation{Kind: engine.AnimTeleport, From: here, To: here, Duration: time.Second}, func(error) {})
		a.Step(450 * time.Millisecond)

		s := core.NewScreen(WorldSize(cfg.Bounds(), style))
		DrawWorld(s, 0, 0, cfg, a.View(), testMapper, style)
		if got := s.Get(3, 6); got != '∙' {
			t.Errorf("fading sprite = %q, expected '∙'\n%s", got, s.String())
		}
	})
}

func TestRenderScreenPalette(t *testing.T) {
	s := core.NewScreen(4, 2)
	s.DrawText(0, 0, "ab", core.ColorRed)
	s.DrawText(2, 0, "cd", core.ColorGray)
	s.DrawText(0, 1, "ef", core.ColorBlue)

	p := Palette{
		core.ColorDefault: lipgloss.NewStyle(),
		core.ColorRed:     lipgloss.NewStyle().Transform(strings.ToUpper),
		core.ColorGray:    lipgloss.NewStyle().Transform(func(s string) string { return "[" + s + "]" }),
	}
	want := "AB[cd]\nef  "
	if got := RenderScreen(s, p); got != want {
		t.Errorf("RenderScreen() = %q, expected %q", got, want)
	}
}
