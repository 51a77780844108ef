package tui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-codequest/internal/anim"
	"github.com/vovakirdan/tui-codequest/internal/config"
	"github.com/vovakirdan/tui-codequest/internal/core"
	"github.com/vovakirdan/tui-codequest/internal/engine"
	"github.com/vovakirdan/tui-codequest/internal/game"
	"github.com/vovakirdan/tui-codequest/internal/grid"
	"github.com/vovakirdan/tui-codequest/internal/level"
	"github.com/vovakirdan/tui-codequest/internal/script"
	"github.com/vovakirdan/tui-codequest/internal/storage"
)

// Play screen layout constants
const (
	minEditorWidth  = 30
	minEditorHeight = 6
	minLogHeight    = 3
	maxLogLines     = 200
)

const starterProgram = `// Walk to the flag!
moveForward(2)
turnRight()
moveForward()
`

// PlayOptions configure a play screen.
type PlayOptions struct {
	Config  config.Config
	Runtime core.RuntimeConfig
	Store   *storage.Store
	Logger  *log.Logger
	// ProgramDir is where ctrl+s writes programs. Empty disables saving.
	ProgramDir string
}

type focusPane int

const (
	focusEditor focusPane = iota
	focusLog
)

// programDoneMsg is sent when the interpreter has finished with a program.
// Commands it queued may still be animating.
type programDoneMsg struct {
	err error
}

type resetDoneMsg struct {
	state engine.PlayerState
	level *level.Config
	err   error
}

type stateMsg struct {
	state engine.PlayerState
}

type runSavedMsg struct {
	run     storage.Run
	err     error
	newBest bool
}

type programSavedMsg struct {
	path string
	err  error
}

// PlayModel is the Bubble Tea model of one level: world view, program
// editor and log.
type PlayModel struct {
	game     *game.Game
	animator *anim.Animator
	level    *level.Config
	mapper   grid.Mapper
	style    WorldStyle
	theme    Theme
	store    *storage.Store
	logger   *log.Logger
	config   core.RuntimeConfig

	editor  textarea.Model
	logView viewport.Model
	logs    []string
	help    help.Model
	keys    PlayKeyMap
	focus   focusPane
	screen  *core.Screen
	status  string

	programDir string
	state      engine.PlayerState
	running    bool
	lastTick   time.Time
	quitting   bool
	goingBack  bool
}

// NewPlayModel loads def and starts its session. Call Close once the
// model is no longer used.
func NewPlayModel(def level.Definition, opts PlayOptions) (PlayModel, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	gopts, err := opts.Config.GameOptions()
	if err != nil {
		return PlayModel{}, err
	}
	gopts.Seed = opts.Runtime.Seed
	gopts.Logger = logger

	animator := anim.NewAnimator(logger.WithPrefix("anim"))
	g := game.New(def, animator, gopts)
	g.Start()

	lvl, err := g.Level()
	if err != nil {
		g.Close()
		return PlayModel{}, err
	}
	state, err := g.PlayerState()
	if err != nil {
		g.Close()
		return PlayModel{}, err
	}

	render := opts.Config.Render
	rt := opts.Runtime
	if rt.TickRate <= 0 {
		rt.TickRate = render.FrameRate
	}

	editor := textarea.New()
	editor.Placeholder = "Write your program here..."
	editor.ShowLineNumbers = true
	editor.CharLimit = 0
	editor.SetValue(loadProgram(opts.ProgramDir, def.ID))
	editor.Focus()

	h := help.New()
	h.ShowAll = false

	m := PlayModel{
		game:     g,
		animator: animator,
		level:    lvl,
		mapper:   gopts.Engine.Mapper,
		style: WorldStyle{
			CellWidth:  render.CellWidth,
			CellHeight: render.CellHeight,
			ShowPath:   render.ShowPath,
		}.normalized(),
		theme:      ThemeByName(render.Theme),
		store:      opts.Store,
		logger:     logger,
		config:     rt,
		editor:     editor,
		logView:    viewport.New(rt.ScreenW, minLogHeight),
		help:       h,
		keys:       DefaultPlayKeyMap(),
		programDir: opts.ProgramDir,
		state:      state,
		lastTick:   time.Now(),
	}
	m.screen = core.NewScreen(WorldSize(lvl.Bounds(), m.style))
	m.layout()
	return m, nil
}

// Close stops the level's session.
func (m PlayModel) Close() {
	m.game.Close()
}

// Init starts the animation ticks and the event pump.
func (m PlayModel) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		tickCmd(m.config.TickRate),
		waitForEvent(m.game.ID(), m.game.Events()),
	)
}

// Update handles messages and updates the model state.
func (m PlayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case TickMsg:
		now := time.Time(msg)
		dt := now.Sub(m.lastTick)
		m.lastTick = now
		if dt > 0 {
			m.animator.Step(dt)
		}
		return m, tickCmd(m.config.TickRate)

	case eventMsg:
		if msg.session != m.game.ID() {
			return m, nil
		}
		cmd := m.handleEvent(msg.evt)
		return m, tea.Batch(cmd, waitForEvent(m.game.ID(), m.game.Events()))

	case eventsClosedMsg:
		return m, nil

	case programDoneMsg:
		var scriptErr *script.Error
		if msg.err != nil && !errors.As(msg.err, &scriptErr) {
			m.status = fmt.Sprintf("could not run program: %v", msg.err)
			m.running = false
		}
		return m, nil

	case resetDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("reset failed: %v", msg.err)
			return m, nil
		}
		m.running = false
		m.state = msg.state
		if msg.level != nil {
			m.level = msg.level
			m.screen.Resize(WorldSize(m.level.Bounds(), m.style))
		}
		m.status = "Level reset."
		return m, nil

	case stateMsg:
		m.state = msg.state
		return m, nil

	case runSavedMsg:
		if msg.run.LevelID != "" {
			m.state = stateFromRun(m.state, msg.run)
		}
		if msg.err != nil {
			m.logger.Warn("run not saved", "level", m.game.LevelID(), "error", msg.err)
			m.status = "Run finished (not saved)."
		} else if msg.newBest {
			m.status = fmt.Sprintf("Run finished with %d points, a new best!", msg.run.Score)
		} else {
			m.status = fmt.Sprintf("Run finished with %d points.", msg.run.Score)
		}
		return m, nil

	case programSavedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("save failed: %v", msg.err)
		} else {
			m.status = "Saved to " + msg.path
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

// handleKey processes keyboard input.
func (m PlayModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		m.goingBack = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Run):
		m.running = true
		m.status = "Running..."
		m.logs = nil
		m.refreshLog()
		return m, m.runProgram(m.editor.Value())

	case key.Matches(msg, m.keys.Reset):
		return m, m.resetLevel()

	case key.Matches(msg, m.keys.Save):
		return m, m.saveProgram(m.editor.Value())

	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusEditor {
			m.focus = focusLog
			m.editor.Blur()
			return m, nil
		}
		m.focus = focusEditor
		return m, m.editor.Focus()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Scroll):
		var cmd tea.Cmd
		m.logView, cmd = m.logView.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

func (m PlayModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == focusEditor {
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}

// handleEvent folds one session event into the log and the status line.
func (m *PlayModel) handleEvent(evt engine.Event) tea.Cmd {
	switch e := evt.(type) {
	case engine.LogEvent:
		m.appendLog(m.theme.LogStyle(e.Severity).Render(e.Text))
	case engine.RewardEvent:
		style := m.theme.LogReward
		if e.Amount < 0 {
			style = m.theme.LogLoss
		}
		m.appendLog(style.Render(fmt.Sprintf("%+d  %s", e.Amount, e.Message)))
		m.state.Score = e.Total
	case engine.GoalEvent:
		m.appendLog(m.theme.HUDGoal.Render("You reached the goal!"))
		m.state.GoalReached = true
	case engine.CommitEvent:
		m.state.Position = e.Cell
		m.state.Facing = e.Facing
		m.state.Direction = e.Facing.Bucket().String()
		return m.fetchState()
	case engine.DrainedEvent:
		if m.running {
			m.running = false
			return m.finishRun()
		}
		return m.fetchState()
	}
	return nil
}

func (m PlayModel) runProgram(src string) tea.Cmd {
	g := m.game
	return func() tea.Msg {
		return programDoneMsg{err: g.ExecuteProgram(src)}
	}
}

func (m PlayModel) resetLevel() tea.Cmd {
	g := m.game
	return func() tea.Msg {
		st, err := g.Reset()
		if err != nil {
			return resetDoneMsg{err: err}
		}
		lvl, err := g.Level()
		return resetDoneMsg{state: st, level: lvl, err: err}
	}
}

func (m PlayModel) fetchState() tea.Cmd {
	g := m.game
	return func() tea.Msg {
		st, err := g.PlayerState()
		if err != nil {
			return nil
		}
		return stateMsg{state: st}
	}
}

// finishRun records the final state of an execution in the run history.
func (m PlayModel) finishRun() tea.Cmd {
	g, store, player := m.game, m.store, m.config.Player
	return func() tea.Msg {
		st, err := g.PlayerState()
		if err != nil {
			return runSavedMsg{err: err}
		}
		run := storage.RunFromState(g.LevelID(), player, st)
		if store == nil {
			return runSavedMsg{run: run, err: errors.New("no run history")}
		}
		best, bestErr := store.BestScore(run.LevelID)
		id, err := store.SaveRun(run)
		run.ID = id
		return runSavedMsg{run: run, err: err, newBest: err == nil && bestErr == nil && run.Score > best}
	}
}

func (m PlayModel) saveProgram(src string) tea.Cmd {
	dir, levelID := m.programDir, m.game.LevelID()
	return func() tea.Msg {
		if dir == "" {
			return programSavedMsg{err: errors.New("saving is not available here")}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return programSavedMsg{err: err}
		}
		path := programPath(dir, levelID)
		if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
			return programSavedMsg{err: err}
		}
		return programSavedMsg{path: path}
	}
}

func programPath(dir, levelID string) string {
	return filepath.Join(dir, levelID+".js")
}

// loadProgram returns the saved program for a level, or a starter program.
func loadProgram(dir, levelID string) string {
	if dir == "" {
		return starterProgram
	}
	data, err := os.ReadFile(programPath(dir, levelID))
	if err != nil {
		return starterProgram
	}
	return string(data)
}

func stateFromRun(st engine.PlayerState, run storage.Run) engine.PlayerState {
	st.Score = run.Score
	st.CellsTraversed = run.Cells
	st.Rotations = run.Rotations
	st.GoalReached = run.GoalReached
	st.ActionsInvoked = run.Actions
	return st
}

func (m *PlayModel) appendLog(line string) {
	m.logs = append(m.logs, line)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	m.refreshLog()
}

func (m *PlayModel) refreshLog() {
	m.logView.SetContent(strings.Join(m.logs, "\n"))
	m.logView.GotoBottom()
}

// layout sizes the editor and the log pane around the world view.
func (m *PlayModel) layout() {
	worldW, worldH := WorldSize(m.level.Bounds(), m.style)

	editorW := core.Max(m.config.ScreenW-worldW-6, minEditorWidth)
	editorH := core.Max(worldH-2, minEditorHeight)
	m.editor.SetWidth(editorW)
	m.editor.SetHeight(editorH)

	helpH := 1
	if m.help.ShowAll {
		helpH = 3
	}
	top := core.Max(worldH, editorH+2)
	m.logView.Width = core.Max(m.config.ScreenW-4, minEditorWidth)
	m.logView.Height = core.Max(m.config.ScreenH-top-helpH-6, minLogHeight)
	m.refreshLog()
}

// View renders the play screen.
func (m PlayModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	m.screen.Clear()
	DrawWorld(m.screen, 0, 0, m.level, m.animator.View(), m.mapper, m.style)
	world := RenderScreen(m.screen, m.theme.World)

	editorPane, logPane := m.theme.PaneBlurred, m.theme.PaneBlurred
	if m.focus == focusEditor {
		editorPane = m.theme.PaneFocused
	} else {
		logPane = m.theme.PaneFocused
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, world, "  ", editorPane.Render(m.editor.View()))

	var b strings.Builder
	b.WriteString(m.theme.HUDTitle.Render(m.game.Title()))
	if m.status != "" {
		b.WriteString(m.theme.HUDSeparator.Render("  │  "))
		b.WriteString(m.theme.HUDLabel.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(top)
	b.WriteString("\n")
	b.WriteString(m.renderHUD())
	b.WriteString("\n")
	b.WriteString(logPane.Render(m.logView.View()))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderHUD renders the status line: score, position, facing and counters.
func (m PlayModel) renderHUD() string {
	sep := m.theme.HUDSeparator.Render(" │ ")
	field := func(label string, value any) string {
		return m.theme.HUDLabel.Render(label+" ") + m.theme.HUDValue.Render(fmt.Sprint(value))
	}
	parts := []string{
		field("Score", m.state.Score),
		field("At", m.state.Position),
		field("Facing", m.state.Facing.Bucket()),
		field("Cells", m.state.CellsTraversed),
		field("Turns", m.state.Rotations),
	}
	line := strings.Join(parts, sep)
	if m.state.GoalReached {
		line += sep + m.theme.HUDGoal.Render("★ goal")
	} else if goal, ok := m.level.Goal(); ok {
		line += sep + field("Goal", fmt.Sprintf("%d away", m.state.Position.Manhattan(goal)))
	}
	return line
}

// State returns the last known player state.
func (m PlayModel) State() engine.PlayerState {
	return m.state
}

// IsQuitting returns true if user requested to quit entirely.
func (m PlayModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to the level menu.
func (m PlayModel) BackToMenu() bool {
	return m.goingBack
}

// Config returns the current runtime config (may have been updated by resize).
func (m PlayModel) Config() core.RuntimeConfig {
	return m.config
}

// RunPlay plays one level in the terminal. It returns true when the player
// asked to go back to the level menu rather than quit.
func RunPlay(def level.Definition, opts PlayOptions) (backToMenu bool, rt core.RuntimeConfig, err error) {
	model, err := NewPlayModel(def, opts)
	if err != nil {
		return false, opts.Runtime, err
	}
	defer model.Close()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return false, opts.Runtime, err
	}

	m, ok := finalModel.(PlayModel)
	if !ok {
		return false, opts.Runtime, nil
	}
	return m.BackToMenu(), m.Config(), nil
}
