// Package tui is the terminal front end: the play screen with its program
// editor, the level menu, run history and the SSH server that hosts them.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-codequest/internal/engine"
)

// TickMsg advances the animator by one frame.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends tick messages at the specified rate.
func tickCmd(tickRate int) tea.Cmd {
	if tickRate <= 0 {
		tickRate = 30
	}
	interval := time.Second / time.Duration(tickRate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// eventMsg carries one session event into the Update loop. session tells
// events of a replaced play screen apart.
type eventMsg struct {
	session string
	evt     engine.Event
}

// eventsClosedMsg is sent once the session event stream is closed.
type eventsClosedMsg struct{}

// waitForEvent blocks on the next session event. Update re-issues it after
// every eventMsg so the stream is drained one event at a time.
func waitForEvent(session string, events <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{session: session, evt: evt}
	}
}
