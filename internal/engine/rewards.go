package engine

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"github.com/vovakirdan/tui-codequest/internal/grid"
	"github.com/vovakirdan/tui-codequest/internal/level"
)

// RewardValues sets how much each kind of cell is worth.
type RewardValues struct {
	Grass  int `yaml:"grass"`
	Path   int `yaml:"path"`
	Goal   int `yaml:"goal"`
	Hazard int `yaml:"hazard"`
}

// DefaultRewardValues returns the stock reward table.
func DefaultRewardValues() RewardValues {
	return RewardValues{Grass: 10, Path: 20, Goal: 50, Hazard: -15}
}

// GoalState is the availability of the level goal.
type GoalState uint8

const (
	GoalAvailable GoalState = iota
	GoalCollected
)

func (g GoalState) String() string {
	if g == GoalCollected {
		return "collected"
	}
	return "available"
}

// Outcome is what a single position commit produced.
type Outcome struct {
	Events      []Event
	Collected   bool
	GoalReached bool
}

// Rewards grants one-time rewards and penalties for committed positions.
type Rewards struct {
	values  RewardValues
	level   *level.Config
	total   int
	visited mapset.Set[grid.Cell]
	goal    GoalState
}

// NewRewards creates a coordinator for a resolved level.
func NewRewards(cfg *level.Config, values RewardValues) *Rewards {
	return &Rewards{
		values:  values,
		level:   cfg,
		visited: mapset.New[grid.Cell](),
	}
}

// Reset clears the total and the visited cells and makes the goal available
// again, possibly on a new level layout.
func (r *Rewards) Reset(cfg *level.Config) {
	r.level = cfg
	r.total = 0
	r.visited.Clear()
	r.goal = GoalAvailable
}

// Total returns the running score.
func (r *Rewards) Total() int { return r.total }

// Goal returns the goal state.
func (r *Rewards) Goal() GoalState { return r.goal }

// Visited reports whether the cell already paid out.
func (r *Rewards) Visited(cell grid.Cell) bool { return r.visited.Has(cell) }

// OnPositionCommitted evaluates a cell the player now occupies. Collectibles
// and hazards pay out once per cell; the goal pays out once. Both checks run
// on every commit.
func (r *Rewards) OnPositionCommitted(cell grid.Cell) Outcome {
	var out Outcome

	if !r.visited.Has(cell) {
		if kind, ok := r.level.CollectibleAt(cell); ok {
			r.visited.Put(cell)
			amount, msg := r.values.Grass, "You picked up some grass"
			if kind == level.Path {
				amount, msg = r.values.Path, "You found a treasure on the path"
			}
			out.Events = append(out.Events, r.grant(cell, amount, msg))
			out.Collected = true
		} else if r.level.IsHazard(cell) {
			r.visited.Put(cell)
			out.Events = append(out.Events, r.grant(cell, r.values.Hazard, "Ouch, you stepped on a hazard"))
		}
	}

	if goal, ok := r.level.Goal(); ok && cell == goal && r.goal == GoalAvailable {
		r.goal = GoalCollected
		out.Events = append(out.Events, r.grant(cell, r.values.Goal, "You reached the goal"), GoalEvent{})
		out.GoalReached = true
	}

	return out
}

func (r *Rewards) grant(cell grid.Cell, amount int, msg string) RewardEvent {
	r.total += amount
	return RewardEvent{
		Amount:  amount,
		Total:   r.total,
		Message: fmt.Sprintf("%s (%+d)", msg, amount),
		Cell:    cell,
	}
}
