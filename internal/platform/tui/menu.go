package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-codequest/internal/core"
	"github.com/vovakirdan/tui-codequest/internal/registry"
	"github.com/vovakirdan/tui-codequest/internal/storage"
)

// MenuItem represents a selectable level in the menu.
type MenuItem struct {
	LevelID     string
	Title       string
	Description string
	Stats       *storage.LevelStats
}

// MenuModel is the Bubble Tea model for the level picker.
type MenuModel struct {
	items          []MenuItem
	cursor         int
	width          int
	height         int
	store          *storage.Store
	config         core.RuntimeConfig
	theme          Theme
	keyMapper      *KeyMapper
	quitting       bool
	selected       *MenuItem // Set when user selects a level
	openScoreboard bool      // True if user pressed Tab for run history
	statsErr       error
}

// NewMenuModel creates a new menu model listing every registered level.
// A nil logger discards.
func NewMenuModel(store *storage.Store, cfg core.RuntimeConfig, theme Theme, logger *log.Logger) MenuModel {
	levels := registry.List()

	var (
		stats    map[string]*storage.LevelStats
		statsErr error
	)
	if store != nil {
		// Missing stats only hide the best-score column.
		stats, statsErr = store.GetAllLevelStats()
		if statsErr != nil && logger != nil {
			logger.Warn("could not load level stats", "error", statsErr)
		}
	}

	items := make([]MenuItem, 0, len(levels))
	for _, l := range levels {
		items = append(items, MenuItem{
			LevelID:     l.ID,
			Title:       l.Title,
			Description: l.Description,
			Stats:       stats[l.ID],
		})
	}

	return MenuModel{
		items:     items,
		width:     cfg.ScreenW,
		height:    cfg.ScreenH,
		store:     store,
		config:    cfg,
		theme:     theme,
		keyMapper: NewKeyMapper(),
		statsErr:  statsErr,
	}
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input for menu navigation.
func (m MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.keyMapper.MapKeyToMenuAction(msg) {
	case MenuActionQuit, MenuActionBack:
		m.quitting = true
		return m, tea.Quit

	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}

	case MenuActionDown:
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case MenuActionSelect:
		if len(m.items) > 0 {
			selected := m.items[m.cursor]
			m.selected = &selected
			return m, tea.Quit // Exit menu to start the level
		}

	case MenuActionScores:
		m.openScoreboard = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(m.theme.MenuTitle.Render(centerText("  C O D E Q U E S T  ", m.width)))
	b.WriteString("\n\n")
	b.WriteString(centerText("Pick a level", m.width))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(m.theme.MenuDescription.Render(centerText("No levels found.", m.width)))
		b.WriteString("\n")
	}

	for i, item := range m.items {
		cursor := "  "
		style := m.theme.MenuItemNormal
		if i == m.cursor {
			cursor = "> "
			style = m.theme.MenuItemActive
		}

		line := cursor + item.Title + m.scoreLabel(item)
		b.WriteString(style.Render(centerText(line, m.width)))
		b.WriteString("\n")
	}

	if len(m.items) > 0 && m.items[m.cursor].Description != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.MenuDescription.Render(centerText(m.items[m.cursor].Description, m.width)))
		b.WriteString("\n")
	}

	if m.statsErr != nil {
		b.WriteString("\n")
		b.WriteString(m.theme.LogWarn.Render(centerText("Best scores are unavailable right now.", m.width)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	controls := "Up/Down: Navigate  |  Enter: Play  |  Tab: Runs  |  Q: Quit"
	b.WriteString(centerText(controls, m.width))
	b.WriteString("\n")

	return b.String()
}

func (m MenuModel) scoreLabel(item MenuItem) string {
	if item.Stats == nil || item.Stats.Runs == 0 {
		return ""
	}
	label := fmt.Sprintf("  best %d", item.Stats.BestScore)
	if item.Stats.Completed > 0 {
		label += " ★"
	}
	return label
}

// Selected returns the selected menu item, or nil if none selected.
func (m MenuModel) Selected() *MenuItem {
	return m.selected
}

// IsQuitting returns true if user requested to quit.
func (m MenuModel) IsQuitting() bool {
	return m.quitting
}

// WantsScoreboard returns true if user requested the run history.
func (m MenuModel) WantsScoreboard() bool {
	return m.openScoreboard
}

// Config returns the current runtime config (may have been updated by resize).
func (m MenuModel) Config() core.RuntimeConfig {
	return m.config
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	n := len([]rune(text))
	if n >= width {
		return text
	}
	padding := (width - n) / 2
	return strings.Repeat(" ", padding) + text
}

// MenuResult holds the result of running the menu.
type MenuResult struct {
	LevelID         string
	Config          core.RuntimeConfig
	WantsScoreboard bool
	Quit            bool
}

// RunMenu runs the menu and returns the selection result.
func RunMenu(store *storage.Store, cfg core.RuntimeConfig, theme Theme, logger *log.Logger) (MenuResult, error) {
	model := NewMenuModel(store, cfg, theme, logger)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return MenuResult{Config: cfg}, err
	}

	m, ok := finalModel.(MenuModel)
	if !ok {
		return MenuResult{Config: cfg, Quit: true}, nil
	}

	result := MenuResult{
		Config: m.Config(),
	}

	if m.WantsScoreboard() {
		result.WantsScoreboard = true
		return result, nil
	}

	if m.IsQuitting() {
		result.Quit = true
		return result, nil
	}

	if m.Selected() != nil {
		result.LevelID = m.Selected().LevelID
	} else {
		result.Quit = true
	}

	return result, nil
}
