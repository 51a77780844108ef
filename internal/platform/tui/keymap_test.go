package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-codequest/internal/config"
	"github.com/vovakirdan/tui-codequest/internal/core"
	_ "github.com/vovakirdan/tui-codequest/internal/levels"
)

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMapKeyToMenuAction(t *testing.T) {
	km := NewKeyMapper()
	tests := []struct {
		name     string
		msg      tea.KeyMsg
		expected MenuAction
	}{
		{"up arrow", tea.KeyMsg{Type: tea.KeyUp}, MenuActionUp},
		{"vim up", runeKey("k"), MenuActionUp},
		{"down arrow", tea.KeyMsg{Type: tea.KeyDown}, MenuActionDown},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, MenuActionSelect},
		{"esc", tea.KeyMsg{Type: tea.KeyEsc}, MenuActionBack},
		{"tab", tea.KeyMsg{Type: tea.KeyTab}, MenuActionScores},
		{"quit", runeKey("q"), MenuActionQuit},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, MenuActionQuit},
		{"other", runeKey("x"), MenuActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := km.MapKeyToMenuAction(tt.msg); got != tt.expected {
				t.Errorf("MapKeyToMenuAction(%q) = %v, expected %v", tt.msg.String(), got, tt.expected)
			}
		})
	}
}

func TestPlayKeysNeedModifiers(t *testing.T) {
	keys := DefaultPlayKeyMap()
	for _, r := range "abcdefghijklmnopqrstuvwxyz(){};" {
		msg := runeKey(string(r))
		for _, group := range keys.FullHelp() {
			for _, b := range group {
				if key.Matches(msg, b) {
					t.Errorf("typing %q triggers %q", r, b.Help().Desc)
				}
			}
		}
	}
}

func TestSessionModelFlow(t *testing.T) {
	cfg := config.DefaultConfig()
	config.ApplyPacePreset(&cfg, config.PaceInstant)
	var m tea.Model = NewSessionModel(PlayOptions{
		Config:  cfg,
		Runtime: core.RuntimeConfig{ScreenW: 100, ScreenH: 30, TickRate: 30, Player: "tester"},
	})

	send := func(msg tea.Msg) {
		t.Helper()
		m, _ = m.Update(msg)
	}
	screen := func() sessionScreen {
		return m.(SessionModel).screen
	}

	send(tea.KeyMsg{Type: tea.KeyEnter})
	if screen() != screenPlay {
		t.Fatalf("screen after enter = %v, expected play", screen())
	}

	send(tea.KeyMsg{Type: tea.KeyEsc})
	if screen() != screenMenu || m.(SessionModel).play != nil {
		t.Fatalf("screen after esc = %v, expected the menu", screen())
	}

	send(tea.KeyMsg{Type: tea.KeyTab})
	if screen() != screenRuns {
		t.Fatalf("screen after tab = %v, expected the run history", screen())
	}

	send(runeKey("b"))
	if screen() != screenMenu {
		t.Fatalf("screen after b = %v, expected the menu", screen())
	}

	var cmd tea.Cmd
	m, cmd = m.Update(runeKey("q"))
	if !m.(SessionModel).quitting {
		t.Error("q did not quit the session")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not end the program")
	}
}
