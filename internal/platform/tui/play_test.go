package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-codequest/internal/config"
	"github.com/vovakirdan/tui-codequest/internal/core"
	"github.com/vovakirdan/tui-codequest/internal/engine"
	"github.com/vovakirdan/tui-codequest/internal/grid"
	"github.com/vovakirdan/tui-codequest/internal/level"
	"github.com/vovakirdan/tui-codequest/internal/storage"
)

func walkDefinition() level.Definition {
	goal := grid.C(4, 2)
	return level.Definition{
		ID:           "walk",
		Name:         "Walk",
		Size:         grid.Bounds{Cols: 6, Rows: 4},
		Start:        grid.C(1, 2),
		Facing:       grid.East,
		Goal:         &goal,
		Collectibles: []level.Collectible{{Cell: grid.C(2, 2), Kind: level.Grass}},
	}
}

func newTestPlay(t *testing.T, programDir string) PlayModel {
	t.Helper()
	return newTestPlayWithStore(t, programDir, nil)
}

func newTestPlayWithStore(t *testing.T, programDir string, store *storage.Store) PlayModel {
	t.Helper()
	cfg := config.DefaultConfig()
	config.ApplyPacePreset(&cfg, config.PaceInstant)

	m, err := NewPlayModel(walkDefinition(), PlayOptions{
		Config:     cfg,
		Runtime:    core.RuntimeConfig{ScreenW: 100, ScreenH: 30, TickRate: 30, Seed: 1, Player: "tester"},
		ProgramDir: programDir,
		Store:      store,
	})
	if err != nil {
		t.Fatalf("NewPlayModel() error = %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func ctrlKey(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

// pumpUntilDrained feeds session events into the model until the run is
// over, executing the commands the model returns for them.
func pumpUntilDrained(t *testing.T, m PlayModel) PlayModel {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case evt, ok := <-m.game.Events():
			if !ok {
				t.Fatal("event stream closed before the run drained")
			}
			next, cmd := m.Update(eventMsg{session: m.game.ID(), evt: evt})
			m = next.(PlayModel)
			if _, drained := evt.(engine.DrainedEvent); drained {
				return applyResults(m, cmd)
			}
		case <-deadline:
			t.Fatal("timed out waiting for DrainedEvent")
		}
	}
}

// applyResults runs cmd and feeds back every message except the event pump.
func applyResults(m PlayModel, cmd tea.Cmd) PlayModel {
	if cmd == nil {
		return m
	}
	msg, pump := finishes(cmd)
	if pump {
		return m
	}
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = applyResults(m, c)
		}
	case nil:
	default:
		next, _ := m.Update(msg)
		m = next.(PlayModel)
	}
	return m
}

// finishes runs c and reports pump=true when it is still blocked after a
// short wait, which is how a pending waitForEvent behaves.
func finishes(c tea.Cmd) (msg tea.Msg, pump bool) {
	done := make(chan tea.Msg, 1)
	go func() { done <- c() }()
	select {
	case msg := <-done:
		return msg, false
	case <-time.After(50 * time.Millisecond):
		return nil, true
	}
}

func TestPlayRunsProgram(t *testing.T) {
	m := newTestPlay(t, "")
	m.editor.SetValue("moveForward(3)")

	next, cmd := m.Update(ctrlKey(tea.KeyCtrlR))
	m = next.(PlayModel)
	if !m.running {
		t.Fatal("running = false after ctrl+r")
	}
	if msg, ok := cmd().(programDoneMsg); !ok || msg.err != nil {
		t.Fatalf("run command = %#v, expected programDoneMsg without error", msg)
	}

	m = pumpUntilDrained(t, m)

	st := m.State()
	if st.Score != 60 || !st.GoalReached || st.Position != grid.C(4, 2) {
		t.Errorf("State() = %+v, expected score 60 at (4,2) with the goal", st)
	}
	if st.CellsTraversed != 3 {
		t.Errorf("CellsTraversed = %d, expected 3", st.CellsTraversed)
	}
	if m.running {
		t.Error("running = true after DrainedEvent")
	}
	if !strings.Contains(m.View(), "★ goal") {
		t.Error("View() does not show the goal marker")
	}
}

func TestPlayShowsGoalDistance(t *testing.T) {
	m := newTestPlay(t, "")
	if view := m.View(); !strings.Contains(view, "3 away") {
		t.Errorf("View() does not show the distance to the goal:\n%s", view)
	}
}

func TestPlayReportsNewBest(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()
	if _, err := store.SaveRun(storage.Run{LevelID: "walk", Player: "earlier", Score: 10}); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	m := newTestPlayWithStore(t, "", store)
	m.editor.SetValue("moveForward(3)")
	next, cmd := m.Update(ctrlKey(tea.KeyCtrlR))
	m = next.(PlayModel)
	cmd()

	// Wait for the session directly so the run is saved exactly once below.
	deadline := time.After(5 * time.Second)
	for drained := false; !drained; {
		select {
		case evt := <-m.game.Events():
			_, drained = evt.(engine.DrainedEvent)
		case <-deadline:
			t.Fatal("timed out waiting for DrainedEvent")
		}
	}

	msg, ok := m.finishRun()().(runSavedMsg)
	if !ok || msg.err != nil || !msg.newBest {
		t.Fatalf("finishRun() = %#v, expected a saved new best", msg)
	}
	next, _ = m.Update(msg)
	m = next.(PlayModel)
	if !strings.Contains(m.status, "a new best") {
		t.Errorf("status = %q, expected the new best notice", m.status)
	}

	again, ok := m.finishRun()().(runSavedMsg)
	if !ok || again.err != nil || again.newBest {
		t.Errorf("second finishRun() = %#v, expected no new best for an equal score", again)
	}
}

func TestPlayReportsProgramErrors(t *testing.T) {
	m := newTestPlay(t, "")
	m.editor.SetValue("moveForward()\nJunp()")

	next, cmd := m.Update(ctrlKey(tea.KeyCtrlR))
	m = next.(PlayModel)
	next, _ = m.Update(cmd())
	m = next.(PlayModel)
	if m.status != "Running..." {
		t.Errorf("status = %q, learner errors belong in the log", m.status)
	}

	m = pumpUntilDrained(t, m)
	logText := strings.Join(m.logs, "\n")
	if !strings.Contains(logText, "Junp is not defined") {
		t.Errorf("log = %q, expected the reference error", logText)
	}
	if st := m.State(); st.Position != grid.C(2, 2) {
		t.Errorf("Position = %v, expected the first command to still run", st.Position)
	}
}

func TestPlaySavesProgram(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "programs")
	m := newTestPlay(t, dir)
	if got := m.editor.Value(); got != starterProgram {
		t.Errorf("editor starts with %q, expected the starter program", got)
	}
	m.editor.SetValue("jump()")

	_, cmd := m.Update(ctrlKey(tea.KeyCtrlS))
	msg, ok := cmd().(programSavedMsg)
	if !ok || msg.err != nil {
		t.Fatalf("save command = %#v, expected success", msg)
	}
	data, err := os.ReadFile(filepath.Join(dir, "walk.js"))
	if err != nil || string(data) != "jump()" {
		t.Errorf("saved program = (%q, %v), expected \"jump()\"", data, err)
	}

	reopened := newTestPlay(t, dir)
	if got := reopened.editor.Value(); got != "jump()" {
		t.Errorf("reopened editor = %q, expected the saved program", got)
	}
}

func TestPlaySaveDisabled(t *testing.T) {
	m := newTestPlay(t, "")
	_, cmd := m.Update(ctrlKey(tea.KeyCtrlS))
	if msg := cmd().(programSavedMsg); msg.err == nil {
		t.Error("save without a program directory succeeded")
	}
}

func TestPlayReset(t *testing.T) {
	m := newTestPlay(t, "")
	m.editor.SetValue("moveForward(3)")
	next, cmd := m.Update(ctrlKey(tea.KeyCtrlR))
	m = next.(PlayModel)
	cmd()
	m = pumpUntilDrained(t, m)

	_, cmd = m.Update(ctrlKey(tea.KeyCtrlX))
	next, _ = m.Update(cmd())
	m = next.(PlayModel)
	st := m.State()
	if st.Score != 0 || st.GoalReached || st.Position != grid.C(1, 2) {
		t.Errorf("State() after reset = %+v, expected a fresh start", st)
	}
}

func TestPlayFocusAndBack(t *testing.T) {
	m := newTestPlay(t, "")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(PlayModel)
	if m.focus != focusLog || m.editor.Focused() {
		t.Error("tab did not move focus to the log")
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(PlayModel)
	if !m.BackToMenu() || m.IsQuitting() {
		t.Error("esc did not ask for the level menu")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc did not end the program")
	}
}

func TestPlayIgnoresStaleEvents(t *testing.T) {
	m := newTestPlay(t, "")
	next, cmd := m.Update(eventMsg{session: "someone-else", evt: engine.GoalEvent{}})
	m = next.(PlayModel)
	if cmd != nil || m.State().GoalReached {
		t.Error("event from another session was applied")
	}
}
