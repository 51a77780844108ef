package engine

import (
	"sort"

	"github.com/zyedidia/generic/mapset"

	"github.com/vovakirdan/tui-codequest/internal/grid"
)

// PlayerState is the externally visible state of the player.
type PlayerState struct {
	Position       grid.Cell  `json:"position"`
	Facing         grid.Angle `json:"facing"`
	Direction      string     `json:"direction"`
	ActionsInvoked []string   `json:"actionsInvoked"`
	CellsTraversed int        `json:"cellsTraversed"`
	Rotations      int        `json:"rotations"`
	Score          int        `json:"score"`
	GoalReached    bool       `json:"goalReached"`
}

// Tracker records the committed position and facing along with the log of
// the current program execution.
type Tracker struct {
	position  grid.Cell
	facing    grid.Angle
	invoked   mapset.Set[string]
	cells     int
	rotations int
}

// NewTracker starts a tracker at the given position and facing.
func NewTracker(start grid.Cell, facing grid.Angle) *Tracker {
	return &Tracker{
		position: start,
		facing:   facing,
		invoked:  mapset.New[string](),
	}
}

// Position returns the committed grid position.
func (t *Tracker) Position() grid.Cell { return t.position }

// Facing returns the committed facing.
func (t *Tracker) Facing() grid.Angle { return t.facing }

// CommitPosition makes cell the authoritative position. Walked cells count
// towards CellsTraversed; relocations do not.
func (t *Tracker) CommitPosition(cell grid.Cell, walked bool) {
	t.position = cell
	if walked {
		t.cells++
	}
}

// CommitTurn applies a completed turn. A zero-degree turn is not a rotation.
func (t *Tracker) CommitTurn(deg float64) {
	t.facing = t.facing.Turn(deg)
	if deg != 0 {
		t.rotations++
	}
}

// CommitSpin records a spin, which is a rotation that ends where it started.
func (t *Tracker) CommitSpin() {
	t.rotations++
}

// RecordInvocation notes that the program called a host action.
func (t *Tracker) RecordInvocation(action string) {
	t.invoked.Put(action)
}

// ResetLog starts a fresh execution log.
func (t *Tracker) ResetLog() {
	t.invoked.Clear()
	t.cells = 0
	t.rotations = 0
}

// Reset returns to a start position and clears the log.
func (t *Tracker) Reset(start grid.Cell, facing grid.Angle) {
	t.position = start
	t.facing = facing
	t.ResetLog()
}

// State returns a snapshot. Score fields are left for the caller.
func (t *Tracker) State() PlayerState {
	actions := make([]string, 0, t.invoked.Size())
	t.invoked.Each(func(a string) {
		actions = append(actions, a)
	})
	sort.Strings(actions)

	return PlayerState{
		Position:       t.position,
		Facing:         t.facing,
		Direction:      t.facing.Bucket().String(),
		ActionsInvoked: actions,
		CellsTraversed: t.cells,
		Rotations:      t.rotations,
	}
}
