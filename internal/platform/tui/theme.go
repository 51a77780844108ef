package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Theme contains the styles of the play screen and the level menu.
type Theme struct {
	// Status line
	HUDTitle     lipgloss.Style
	HUDLabel     lipgloss.Style
	HUDValue     lipgloss.Style
	HUDSeparator lipgloss.Style
	HUDGoal      lipgloss.Style

	// Panes
	PaneFocused lipgloss.Style
	PaneBlurred lipgloss.Style
	PaneTitle   lipgloss.Style

	// Log lines by severity
	LogInfo   lipgloss.Style
	LogWarn   lipgloss.Style
	LogError  lipgloss.Style
	LogReward lipgloss.Style
	LogLoss   lipgloss.Style

	// Level picker
	MenuTitle       lipgloss.Style
	MenuItemNormal  lipgloss.Style
	MenuItemActive  lipgloss.Style
	MenuDescription lipgloss.Style
	MenuScore       lipgloss.Style

	// World glyph colours
	World Palette
}

// DefaultTheme returns the standard colour theme.
func DefaultTheme() Theme {
	return Theme{
		HUDTitle:     lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
		HUDLabel:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		HUDValue:     lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		HUDSeparator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		HUDGoal:      lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),

		PaneFocused: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("51")),
		PaneBlurred: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")),
		PaneTitle:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),

		LogInfo:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		LogWarn:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		LogError:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		LogReward: lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		LogLoss:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),

		MenuTitle:       lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
		MenuItemNormal:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		MenuItemActive:  lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		MenuDescription: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		MenuScore:       lipgloss.NewStyle().Foreground(lipgloss.Color("46")),

		World: DefaultPalette(),
	}
}

// MonochromeTheme returns a grayscale theme for terminals without colour.
func MonochromeTheme() Theme {
	theme := DefaultTheme()
	theme.HUDTitle = lipgloss.NewStyle().Bold(true)
	theme.HUDGoal = lipgloss.NewStyle().Bold(true).Underline(true)
	theme.PaneFocused = lipgloss.NewStyle().Border(lipgloss.ThickBorder())
	theme.PaneBlurred = lipgloss.NewStyle().Border(lipgloss.NormalBorder())
	theme.LogWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	theme.LogError = lipgloss.NewStyle().Bold(true)
	theme.LogReward = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	theme.LogLoss = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	theme.MenuItemActive = lipgloss.NewStyle().Bold(true).Reverse(true)
	theme.MenuScore = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	theme.World = MonochromePalette()
	return theme
}

// ThemeByName returns "default" or "mono"; anything else is the default.
func ThemeByName(name string) Theme {
	if name == "mono" || name == "monochrome" {
		return MonochromeTheme()
	}
	return DefaultTheme()
}

// LogStyle picks the style for a learner log line.
func (t Theme) LogStyle(level log.Level) lipgloss.Style {
	switch {
	case level >= log.ErrorLevel:
		return t.LogError
	case level == log.WarnLevel:
		return t.LogWarn
	default:
		return t.LogInfo
	}
}
