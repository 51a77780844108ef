package grid

import (
	"fmt"
	"math"
)

// Point is a position in world (pixel) space. It is display-only; gameplay
// logic always works on Cell.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// String formats the point with one decimal.
func (p Point) String() string {
	return fmt.Sprintf("(%.1f,%.1f)", p.X, p.Y)
}

// Mapper converts between cells and world coordinates.
// A cell maps to its centre; any point inside a cell maps back to that cell.
type Mapper struct {
	CellSize float64
	Origin   Point
}

// NewMapper returns a mapper for square cells of the given size.
// Non-positive sizes fall back to 1.
func NewMapper(cellSize float64, origin Point) Mapper {
	if cellSize <= 0 {
		cellSize = 1
	}
	return Mapper{CellSize: cellSize, Origin: origin}
}

// CellToWorld returns the world position of the centre of the cell.
func (m Mapper) CellToWorld(c Cell) Point {
	return Point{
		X: m.Origin.X + (float64(c.Col)+0.5)*m.CellSize,
		Y: m.Origin.Y + (float64(c.Row)+0.5)*m.CellSize,
	}
}

// WorldToCell returns the cell containing the world position.
func (m Mapper) WorldToCell(p Point) Cell {
	return Cell{
		Col: int(math.Floor((p.X - m.Origin.X) / m.CellSize)),
		Row: int(math.Floor((p.Y - m.Origin.Y) / m.CellSize)),
	}
}
