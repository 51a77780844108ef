package level

import (
	"fmt"
	"math/rand"

	"github.com/zyedidia/generic/mapset"

	"github.com/vovakirdan/tui-codequest/internal/grid"
)

const (
	minRandomCollectibles = 3
	maxRandomCollectibles = 5
)

// Resolve builds an immutable Config from a definition. A missing goal is
// placed on a random free cell and missing collectibles on 3-5 random free
// cells other than the start and the goal. When the level runs out of free
// cells the placement is skipped and a warning wrapping ErrNoFreeCell is
// returned instead.
//
// The definition must already be valid; Resolve does not re-check it.
func Resolve(def Definition, rng *rand.Rand) (*Config, []error) {
	var warnings []error

	cfg := &Config{
		id:           def.ID,
		name:         def.Name,
		description:  def.Description,
		bounds:       def.Size,
		start:        def.Start,
		facing:       def.Facing,
		collectibles: make(map[grid.Cell]CollectibleKind),
		hazards:      mapset.New[grid.Cell](),
		blocked:      mapset.New[grid.Cell](),
		path:         mapset.New[grid.Cell](),
	}
	if cfg.name == "" {
		cfg.name = def.ID
	}
	for _, c := range def.Hazards {
		cfg.hazards.Put(c)
	}
	for _, c := range def.Blocked {
		cfg.blocked.Put(c)
	}
	for _, c := range def.Path {
		cfg.path.Put(c)
	}

	if def.Goal != nil {
		cfg.goal = *def.Goal
		cfg.hasGoal = true
	} else {
		free := cfg.freeCells()
		if len(free) == 0 {
			warnings = append(warnings, placementError("There is no free cell for the goal, so this level has none."))
		} else {
			cfg.goal = free[rng.Intn(len(free))]
			cfg.hasGoal = true
		}
	}

	if def.Collectibles != nil {
		for _, c := range def.Collectibles {
			cfg.collectibles[c.Cell] = c.Kind
		}
		return cfg, warnings
	}

	want := minRandomCollectibles + rng.Intn(maxRandomCollectibles-minRandomCollectibles+1)
	free := cfg.freeCells()
	rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
	if len(free) < want {
		warnings = append(warnings, placementError(fmt.Sprintf("Only %d of %d collectibles fit in this level.", len(free), want)))
		want = len(free)
	}
	for _, cell := range free[:want] {
		kind := Grass
		if cfg.path.Has(cell) {
			kind = Path
		}
		cfg.collectibles[cell] = kind
	}
	return cfg, warnings
}

// placementError is a learner-readable warning that unwraps to ErrNoFreeCell.
type placementError string

func (e placementError) Error() string { return string(e) }

func (e placementError) Unwrap() error { return ErrNoFreeCell }

// freeCells lists cells that are in bounds, not blocked, not hazards, not
// already collectibles and neither the start nor the goal.
func (c *Config) freeCells() []grid.Cell {
	var out []grid.Cell
	for _, cell := range c.bounds.Cells() {
		if cell == c.start || (c.hasGoal && cell == c.goal) {
			continue
		}
		if c.blocked.Has(cell) || c.hazards.Has(cell) {
			continue
		}
		if _, taken := c.collectibles[cell]; taken {
			continue
		}
		out = append(out, cell)
	}
	return out
}
