// Package level describes the worlds a learner's program walks through.
//
// A Definition is what an author writes: the goal and the collectibles may be
// left out. Resolve turns a Definition into an immutable Config by placing the
// missing pieces on random free cells. A Config is never modified after it is
// built; a reset resolves a fresh one.
package level

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/vovakirdan/tui-codequest/internal/grid"
)

// ErrNoFreeCell is reported when random placement runs out of candidate cells.
var ErrNoFreeCell = errors.New("level: no free cell")

// CollectibleKind distinguishes cheap grass pickups from path pickups.
type CollectibleKind uint8

const (
	Grass CollectibleKind = iota
	Path
)

// String returns the YAML name of the kind.
func (k CollectibleKind) String() string {
	switch k {
	case Grass:
		return "grass"
	case Path:
		return "path"
	default:
		return "unknown"
	}
}

// ParseCollectibleKind parses "grass" or "path".
func ParseCollectibleKind(s string) (CollectibleKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "grass":
		return Grass, true
	case "path":
		return Path, true
	}
	return Grass, false
}

// Collectible is a rewarding cell.
type Collectible struct {
	Cell grid.Cell
	Kind CollectibleKind
}

// Definition is an authored level. A nil Goal or nil Collectibles slice asks
// Resolve to choose them at random.
type Definition struct {
	ID           string
	Name         string
	Description  string
	Size         grid.Bounds
	Start        grid.Cell
	Facing       grid.Direction
	Goal         *grid.Cell
	Collectibles []Collectible
	Hazards      []grid.Cell
	Blocked      []grid.Cell
	Path         []grid.Cell
	FilePath     string
}

// ValidationError contains details about an invalid definition.
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Validate checks that a definition can be played.
func Validate(def Definition) error {
	if def.ID == "" {
		return ValidationError{Code: "MISSING_ID", Message: "level has no id"}
	}
	if def.Size.Cols <= 0 || def.Size.Rows <= 0 {
		return ValidationError{
			Code:    "INVALID_SIZE",
			Message: fmt.Sprintf("size %dx%d must be positive", def.Size.Cols, def.Size.Rows),
		}
	}
	if !def.Size.Contains(def.Start) {
		return ValidationError{
			Code:    "START_OUT_OF_BOUNDS",
			Message: fmt.Sprintf("start %s is outside %dx%d", def.Start, def.Size.Cols, def.Size.Rows),
		}
	}
	for _, b := range def.Blocked {
		if b == def.Start {
			return ValidationError{Code: "START_BLOCKED", Message: fmt.Sprintf("start %s is blocked", def.Start)}
		}
	}
	if def.Goal != nil && !def.Size.Contains(*def.Goal) {
		return ValidationError{
			Code:    "GOAL_OUT_OF_BOUNDS",
			Message: fmt.Sprintf("goal %s is outside the level", *def.Goal),
		}
	}
	for _, c := range def.Collectibles {
		if !def.Size.Contains(c.Cell) {
			return ValidationError{
				Code:    "COLLECTIBLE_OUT_OF_BOUNDS",
				Message: fmt.Sprintf("collectible %s is outside the level", c.Cell),
			}
		}
	}
	return nil
}

// Config is a resolved, read-only level.
type Config struct {
	id           string
	name         string
	description  string
	bounds       grid.Bounds
	start        grid.Cell
	facing       grid.Direction
	goal         grid.Cell
	hasGoal      bool
	collectibles map[grid.Cell]CollectibleKind
	hazards      mapset.Set[grid.Cell]
	blocked      mapset.Set[grid.Cell]
	path         mapset.Set[grid.Cell]
}

// ID returns the level identifier.
func (c *Config) ID() string { return c.id }

// Name returns the display name.
func (c *Config) Name() string { return c.name }

// Description returns the author's description, possibly empty.
func (c *Config) Description() string { return c.description }

// Bounds returns the level size.
func (c *Config) Bounds() grid.Bounds { return c.bounds }

// Start returns the start cell.
func (c *Config) Start() grid.Cell { return c.start }

// StartFacing returns the facing the character starts with.
func (c *Config) StartFacing() grid.Angle { return c.facing.Angle() }

// Goal returns the goal cell; ok is false when the level has none.
func (c *Config) Goal() (cell grid.Cell, ok bool) { return c.goal, c.hasGoal }

// CollectibleAt reports whether cell holds a collectible and of which kind.
func (c *Config) CollectibleAt(cell grid.Cell) (CollectibleKind, bool) {
	k, ok := c.collectibles[cell]
	return k, ok
}

// IsHazard reports whether the cell penalizes the player.
func (c *Config) IsHazard(cell grid.Cell) bool { return c.hazards.Has(cell) }

// IsBlocked reports whether the cell is impassable terrain.
func (c *Config) IsBlocked(cell grid.Cell) bool { return c.blocked.Has(cell) }

// IsPath reports whether the cell is part of the suggested path.
func (c *Config) IsPath(cell grid.Cell) bool { return c.path.Has(cell) }

// Collectibles returns all collectibles in row-major order.
func (c *Config) Collectibles() []Collectible {
	out := make([]Collectible, 0, len(c.collectibles))
	for cell, kind := range c.collectibles {
		out = append(out, Collectible{Cell: cell, Kind: kind})
	}
	sort.Slice(out, func(i, j int) bool { return cellLess(out[i].Cell, out[j].Cell) })
	return out
}

// Hazards returns the hazard cells in row-major order.
func (c *Config) Hazards() []grid.Cell { return sortedCells(c.hazards) }

// Blocked returns the blocked cells in row-major order.
func (c *Config) Blocked() []grid.Cell { return sortedCells(c.blocked) }

// Path returns the path hint cells in row-major order.
func (c *Config) Path() []grid.Cell { return sortedCells(c.path) }

func sortedCells(s mapset.Set[grid.Cell]) []grid.Cell {
	out := make([]grid.Cell, 0, s.Size())
	s.Each(func(cell grid.Cell) {
		out = append(out, cell)
	})
	sort.Slice(out, func(i, j int) bool { return cellLess(out[i], out[j]) })
	return out
}

func cellLess(a, b grid.Cell) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}
