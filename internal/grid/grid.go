// Package grid holds the rectangular table of strings shared by the sheet,
// the wire codec and the UI, plus cell references into it.
package grid

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a cell reference falls outside the grid.
var ErrOutOfRange = errors.New("cell reference out of range")

// ErrRagged is returned when rows of a grid do not share one length.
var ErrRagged = errors.New("rows have unequal length")

// Grid is an ordered sequence of rows of cell text. All rows have the same
// length; Validate reports grids that break that rule.
type Grid [][]string

// CellRef addresses one cell, zero-based.
type CellRef struct {
	Row int
	Col int
}

func (r CellRef) String() string {
	return fmt.Sprintf("(%d,%d)", r.Row, r.Col)
}

// Rows returns the number of rows.
func (g Grid) Rows() int { return len(g) }

// Cols returns the column count, taken from the first row.
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Validate checks the equal-length invariant.
func (g Grid) Validate() error {
	cols := g.Cols()
	for i, row := range g {
		if len(row) != cols {
			return fmt.Errorf("row %d has %d cells, want %d: %w", i, len(row), cols, ErrRagged)
		}
	}
	return nil
}

// Contains reports whether ref lies inside the grid's current dimensions.
func (g Grid) Contains(ref CellRef) bool {
	if ref.Row < 0 || ref.Row >= len(g) {
		return false
	}
	return ref.Col >= 0 && ref.Col < len(g[ref.Row])
}

// Cell returns the text at ref.
func (g Grid) Cell(ref CellRef) (string, error) {
	if !g.Contains(ref) {
		return "", fmt.Errorf("cell %s in %dx%d grid: %w", ref, g.Rows(), g.Cols(), ErrOutOfRange)
	}
	return g[ref.Row][ref.Col], nil
}

// SetCell replaces the text at ref in place.
func (g Grid) SetCell(ref CellRef, value string) error {
	if !g.Contains(ref) {
		return fmt.Errorf("cell %s in %dx%d grid: %w", ref, g.Rows(), g.Cols(), ErrOutOfRange)
	}
	g[ref.Row][ref.Col] = value
	return nil
}

// Append returns the grid with row added at the end. The row must match the
// current column count unless the grid is empty.
func (g Grid) Append(row []string) (Grid, error) {
	if len(g) > 0 && len(row) != g.Cols() {
		return g, fmt.Errorf("append %d cells to %d-column grid: %w", len(row), g.Cols(), ErrRagged)
	}
	dup := make([]string, len(row))
	copy(dup, row)
	return append(g, dup), nil
}

// Clone returns a deep copy.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = make([]string, len(row))
		copy(out[i], row)
	}
	return out
}

// Equal compares two grids cell by cell. A nil grid equals an empty one, and
// a nil row equals an empty row.
func Equal(a, b Grid) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}
