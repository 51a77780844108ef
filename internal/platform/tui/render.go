package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vovakirdan/tui-codequest/internal/core"
)

// Palette maps the world colours to terminal styles.
type Palette map[core.Color]lipgloss.Style

func fg(code string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(code))
}

// DefaultPalette is the ANSI 256-colour world palette.
func DefaultPalette() Palette {
	return Palette{
		core.ColorDefault:      lipgloss.NewStyle(),
		core.ColorRed:          fg("1"),
		core.ColorGreen:        fg("2"),
		core.ColorYellow:       fg("3"),
		core.ColorBlue:         fg("4"),
		core.ColorMagenta:      fg("5"),
		core.ColorCyan:         fg("6"),
		core.ColorWhite:        fg("7"),
		core.ColorBrightRed:    fg("9"),
		core.ColorBrightGreen:  fg("10"),
		core.ColorBrightYellow: fg("11"),
		core.ColorBrightBlue:   fg("12"),
		core.ColorBrightCyan:   fg("14"),
		core.ColorBrightWhite:  fg("15"),
		core.ColorOrange:       fg("208"),
		core.ColorGray:         fg("245"),
		core.ColorBrown:        fg("130"),
		core.ColorDim:          fg("238"),
	}
}

// MonochromePalette keeps the glyphs apart by brightness only. The
// character and pickups are bold so they stand out from terrain.
func MonochromePalette() Palette {
	p := Palette{core.ColorDefault: lipgloss.NewStyle()}
	for _, c := range []core.Color{core.ColorBlue, core.ColorBrown, core.ColorGray, core.ColorDim} {
		p[c] = fg("242")
	}
	for _, c := range []core.Color{core.ColorBrightCyan, core.ColorBrightYellow, core.ColorBrightGreen, core.ColorOrange} {
		p[c] = fg("255").Bold(true)
	}
	p[core.ColorBrightRed] = fg("250").Underline(true)
	return p
}

func (p Palette) style(c core.Color) lipgloss.Style {
	if style, ok := p[c]; ok {
		return style
	}
	return p[core.ColorDefault]
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Adjacent cells of the same colour share one styled run.
func RenderScreen(s *core.Screen, p Palette) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	var run strings.Builder
	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}
		for x := 0; x < s.Width(); {
			color := s.GetCell(x, y).Color
			run.Reset()
			for ; x < s.Width(); x++ {
				cell := s.GetCell(x, y)
				if cell.Color != color {
					break
				}
				run.WriteRune(cell.Rune)
			}
			sb.WriteString(p.style(color).Render(run.String()))
		}
	}
	return sb.String()
}
