package grid

import (
	"errors"
	"testing"
)

func TestCellBoundsChecked(t *testing.T) {
	g := Grid{{"1", "a"}, {"2", "b"}}
	if v, err := g.Cell(CellRef{Row: 1, Col: 1}); err != nil || v != "b" {
		t.Fatalf("expected b, got %q (%v)", v, err)
	}
	for _, ref := range []CellRef{{Row: -1}, {Row: 2}, {Col: 2}, {Col: -1}} {
		if _, err := g.Cell(ref); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("expected out of range for %s, got %v", ref, err)
		}
		if err := g.SetCell(ref, "x"); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("expected out of range on set for %s, got %v", ref, err)
		}
	}
}

func TestSetCellMutatesInPlace(t *testing.T) {
	g := Grid{{"1", "a"}}
	if err := g.SetCell(CellRef{Row: 0, Col: 0}, "9"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if g[0][0] != "9" {
		t.Fatalf("expected 9, got %q", g[0][0])
	}
}

func TestAppendRejectsRaggedRow(t *testing.T) {
	g := Grid{{"1", "a"}}
	if _, err := g.Append([]string{"0"}); !errors.Is(err, ErrRagged) {
		t.Fatalf("expected ragged error, got %v", err)
	}
	g, err := g.Append([]string{"0", ""})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if g.Rows() != 2 || g.Cols() != 2 {
		t.Fatalf("unexpected dimensions %dx%d", g.Rows(), g.Cols())
	}
	var empty Grid
	empty, err = empty.Append([]string{"x", "y", "z"})
	if err != nil || empty.Cols() != 3 {
		t.Fatalf("expected first append to set width, got %v cols=%d", err, empty.Cols())
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := Grid{{"1", "a"}}
	c := g.Clone()
	c[0][1] = "changed"
	if g[0][1] != "a" {
		t.Fatalf("clone shares storage with original")
	}
	if Grid(nil).Clone() != nil {
		t.Fatalf("expected nil clone of nil grid")
	}
}

func TestEqualTreatsNilAsEmpty(t *testing.T) {
	if !Equal(nil, Grid{}) {
		t.Fatalf("expected nil == empty")
	}
	if !Equal(Grid{nil}, Grid{{}}) {
		t.Fatalf("expected nil row == empty row")
	}
	if Equal(Grid{{"a"}}, Grid{{"b"}}) {
		t.Fatalf("expected differing cells to compare unequal")
	}
	if Equal(Grid{{"a"}}, Grid{{"a"}, {"a"}}) {
		t.Fatalf("expected differing row counts to compare unequal")
	}
}

func TestValidate(t *testing.T) {
	if err := (Grid{{"a", "b"}, {"c"}}).Validate(); !errors.Is(err, ErrRagged) {
		t.Fatalf("expected ragged, got %v", err)
	}
	if err := (Grid{}).Validate(); err != nil {
		t.Fatalf("empty grid should validate: %v", err)
	}
	if err := (Grid{{}, {}}).Validate(); err != nil {
		t.Fatalf("zero-width rows should validate: %v", err)
	}
}
