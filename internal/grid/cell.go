// Package grid holds the discrete world model: cells, cardinal directions,
// facing angles and the mapping between cells and world (pixel) coordinates.
// Everything here is a pure value type.
package grid

import "fmt"

// Cell is a discrete grid position.
// Col increases to the right, Row increases downward (screen coordinates).
type Cell struct {
	Col int `yaml:"col" json:"col"`
	Row int `yaml:"row" json:"row"`
}

// C is a convenience constructor for Cell.
func C(col, row int) Cell {
	return Cell{Col: col, Row: row}
}

// String returns a string representation of the cell.
func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Col, c.Row)
}

// Add returns a new Cell offset by (dc, dr).
func (c Cell) Add(dc, dr int) Cell {
	return Cell{Col: c.Col + dc, Row: c.Row + dr}
}

// Step returns the adjacent cell in the given direction.
func (c Cell) Step(d Direction) Cell {
	dc, dr := d.Delta()
	return c.Add(dc, dr)
}

// Manhattan returns the Manhattan distance to another cell.
func (c Cell) Manhattan(other Cell) int {
	dc := c.Col - other.Col
	dr := c.Row - other.Row
	if dc < 0 {
		dc = -dc
	}
	if dr < 0 {
		dr = -dr
	}
	return dc + dr
}

// Bounds is the rectangular extent of a level, anchored at (0,0).
type Bounds struct {
	Cols int `yaml:"cols" json:"cols"`
	Rows int `yaml:"rows" json:"rows"`
}

// Contains reports whether the cell lies inside the bounds.
func (b Bounds) Contains(c Cell) bool {
	return c.Col >= 0 && c.Col < b.Cols && c.Row >= 0 && c.Row < b.Rows
}

// Clamp returns the nearest in-bounds cell.
func (b Bounds) Clamp(c Cell) Cell {
	return Cell{Col: clampInt(c.Col, 0, b.Cols-1), Row: clampInt(c.Row, 0, b.Rows-1)}
}

// Cells lists every cell in row-major order.
func (b Bounds) Cells() []Cell {
	if b.Cols <= 0 || b.Rows <= 0 {
		return nil
	}
	out := make([]Cell, 0, b.Cols*b.Rows)
	for row := 0; row < b.Rows; row++ {
		for col := 0; col < b.Cols; col++ {
			out = append(out, C(col, row))
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
