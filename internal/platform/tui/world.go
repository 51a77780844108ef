package tui

import (
	"math"

	"github.com/vovakirdan/tui-codequest/internal/anim"
	"github.com/vovakirdan/tui-codequest/internal/core"
	"github.com/vovakirdan/tui-codequest/internal/engine"
	"github.com/vovakirdan/tui-codequest/internal/grid"
	"github.com/vovakirdan/tui-codequest/internal/level"
)

// WorldStyle controls how many terminal characters one grid cell occupies.
type WorldStyle struct {
	CellWidth  int
	CellHeight int
	ShowPath   bool
}

// DefaultWorldStyle draws each cell as a 4x2 block and shows path hints.
func DefaultWorldStyle() WorldStyle {
	return WorldStyle{CellWidth: 4, CellHeight: 2, ShowPath: true}
}

func (s WorldStyle) normalized() WorldStyle {
	s.CellWidth = core.Max(s.CellWidth, 1)
	s.CellHeight = core.Max(s.CellHeight, 1)
	return s
}

// WorldSize returns the size of the framed world view in characters.
func WorldSize(b grid.Bounds, style WorldStyle) (w, h int) {
	style = style.normalized()
	return b.Cols*style.CellWidth + 2, b.Rows*style.CellHeight + 2
}

var facingGlyphs = [4]rune{
	grid.East:  '▶',
	grid.South: '▼',
	grid.West:  '◀',
	grid.North: '▲',
}

// DrawWorld draws the framed level at (x, y): terrain from the level, pickups
// and the goal from the view's decorations, then the player sprite.
func DrawWorld(s *core.Screen, x, y int, lvl *level.Config, view anim.View, mapper grid.Mapper, style WorldStyle) {
	style = style.normalized()
	b := lvl.Bounds()
	w, h := WorldSize(b, style)
	frame := core.NewRect(x, y, w, h)
	s.DrawBox(frame, core.ColorGray)
	drawTitle(s, frame, lvl.Name())

	inner := frame.Inset(1)
	for _, cell := range b.Cells() {
		r := cellRect(inner, cell, style)
		switch {
		case lvl.IsBlocked(cell):
			s.FillRect(r, '~', core.ColorBlue)
		case style.ShowPath && lvl.IsPath(cell):
			s.FillRect(r, '·', core.ColorBrown)
		default:
			s.Set(r.X+r.W/2, r.Y+r.H/2, '.', core.ColorDim)
		}

		d, ok := view.Decorations[cell]
		if !ok {
			continue
		}
		glyph, color := decorationGlyph(d)
		s.Set(r.X+r.W/2, r.Y+r.H/2, glyph, color)
	}

	drawSprite(s, x, y, view.Sprite, mapper, style)
}

func cellRect(inner core.Rect, c grid.Cell, style WorldStyle) core.Rect {
	return core.NewRect(inner.X+c.Col*style.CellWidth, inner.Y+c.Row*style.CellHeight, style.CellWidth, style.CellHeight)
}

// drawTitle writes the level name into the top border, cut to fit between
// the corners.
func drawTitle(s *core.Screen, frame core.Rect, name string) {
	room := frame.W - 4
	if name == "" || room < 3 {
		return
	}
	title := []rune(" " + name + " ")
	if len(title) > room {
		title = append(title[:room-2], '…', ' ')
	}
	s.DrawText(frame.X+2, frame.Y, string(title), core.ColorGray)
}

func decorationGlyph(d engine.Decoration) (rune, core.Color) {
	switch d.Kind {
	case engine.DecorCollectible:
		if d.Collectible == level.Path {
			return '◆', core.ColorBrightYellow
		}
		return '"', core.ColorBrightGreen
	case engine.DecorHazard:
		return '✖', core.ColorBrightRed
	case engine.DecorGoal:
		return '⚑', core.ColorYellow
	case engine.DecorGoalReached:
		return '★', core.ColorBrightYellow
	}
	return '?', core.ColorGray
}

// drawSprite places the player between cells while it walks, raised while
// it jumps and dimmed halfway through a teleport.
func drawSprite(s *core.Screen, x, y int, sp anim.Sprite, mapper grid.Mapper, style WorldStyle) {
	size := mapper.CellSize
	if size <= 0 {
		size = 1
	}
	col := (sp.Position.X-mapper.Origin.X)/size - 0.5
	row := (sp.Position.Y-mapper.Origin.Y)/size - 0.5
	lift := sp.Lift / size * float64(style.CellHeight)

	sx := x + 1 + int(math.Round(col*float64(style.CellWidth))) + style.CellWidth/2
	sy := y + 1 + int(math.Round(row*float64(style.CellHeight)-lift)) + style.CellHeight/2

	if sp.Alpha < 0.5 {
		s.Set(sx, sy, '∙', core.ColorDim)
		return
	}
	s.Set(sx, sy, facingGlyphs[sp.Facing.Bucket()], core.ColorBrightCyan)
	if sp.Busy && sp.Action == engine.AnimAttack {
		dc, dr := sp.Facing.Bucket().Delta()
		s.Set(sx+dc*core.Max(style.CellWidth/2, 1), sy+dr, '✦', core.ColorOrange)
	}
}
