package web

import (
	"github.com/vovakirdan/tui-codequest/internal/engine"
	"github.com/vovakirdan/tui-codequest/internal/grid"
	"github.com/vovakirdan/tui-codequest/internal/script"
)

// Event types as they appear on the wire.
const (
	EventLog     = "log"
	EventReward  = "reward"
	EventGoal    = "goal"
	EventCommit  = "commit"
	EventDrained = "drained"
	EventState   = "state"
	EventError   = "error"
)

// EventJSON is the wire form of an engine event.
type EventJSON struct {
	Type     string              `json:"type"`
	Text     string              `json:"text,omitempty"`
	Severity string              `json:"severity,omitempty"`
	Amount   int                 `json:"amount,omitempty"`
	Total    int                 `json:"total,omitempty"`
	Message  string              `json:"message,omitempty"`
	Cell     *grid.Cell          `json:"cell,omitempty"`
	Facing   *grid.Angle         `json:"facing,omitempty"`
	State    *engine.PlayerState `json:"state,omitempty"`
	Error    *ErrorJSON          `json:"error,omitempty"`
}

// ErrorJSON describes a learner program error.
type ErrorJSON struct {
	Kind    string `json:"kind"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
	// Friendly is the plain-language rendition shown to learners.
	Friendly string `json:"friendly"`
}

// NewEventJSON converts evt. The second result is false for event types
// that have no wire form.
func NewEventJSON(evt engine.Event) (EventJSON, bool) {
	switch e := evt.(type) {
	case engine.LogEvent:
		return EventJSON{Type: EventLog, Text: e.Text, Severity: e.Severity.String()}, true
	case engine.RewardEvent:
		cell := e.Cell
		return EventJSON{
			Type:    EventReward,
			Amount:  e.Amount,
			Total:   e.Total,
			Message: e.Message,
			Cell:    &cell,
		}, true
	case engine.GoalEvent:
		return EventJSON{Type: EventGoal}, true
	case engine.CommitEvent:
		cell, facing := e.Cell, e.Facing
		return EventJSON{Type: EventCommit, Cell: &cell, Facing: &facing}, true
	case engine.DrainedEvent:
		return EventJSON{Type: EventDrained}, true
	}
	return EventJSON{}, false
}

// NewErrorJSON converts a program error. Errors that are not learner
// errors are reported with kind "internal".
func NewErrorJSON(err error) *ErrorJSON {
	if err == nil {
		return nil
	}
	if se, ok := script.AsError(err); ok {
		return &ErrorJSON{
			Kind:     se.Kind.String(),
			Line:     se.Line,
			Column:   se.Column,
			Message:  se.Message,
			Friendly: se.Friendly(),
		}
	}
	return &ErrorJSON{Kind: "internal", Message: err.Error(), Friendly: err.Error()}
}

func stateEvent(st engine.PlayerState) EventJSON {
	return EventJSON{Type: EventState, State: &st}
}
