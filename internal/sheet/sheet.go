// Package sheet owns the live grid and reconciles it with the store and the
// remote peer.
//
// Local edits are written to the store first, then to the grid, then sent.
// Received grids replace the local grid wholesale and never touch the store.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/atomicstack/gridsync/internal/grid"
	"github.com/atomicstack/gridsync/internal/store"
)

const (
	// NumberCol holds the integer column.
	NumberCol = 0
	// TextCol holds the free text column.
	TextCol = 1

	storeTimeout = 5 * time.Second
)

var (
	// ErrValidation is returned when a cell value cannot be committed.
	ErrValidation = errors.New("validation error")
	// ErrReentrant is returned when a mutation starts while another runs.
	ErrReentrant = errors.New("sheet mutation already in progress")
	// ErrSendAfterCommit is returned when a committed edit could not be sent.
	// The commit itself stands.
	ErrSendAfterCommit = errors.New("edit committed but not sent")
	// ErrStaleEdit is returned when a pending edit outlived its grid.
	ErrStaleEdit = errors.New("grid replaced while editing")
)

// Sender pushes the full grid to the peer.
type Sender interface {
	Send(g grid.Grid) (int, error)
}

// PendingEdit is an edit that has started but not been committed.
type PendingEdit struct {
	Ref        grid.CellRef
	Original   string
	generation uint64
}

// Sheet is the single owner of the live grid.
type Sheet struct {
	grid       grid.Grid
	store      store.Store
	tx         Sender
	generation uint64
	busy       bool
}

// New builds a sheet over g. The grid is copied.
func New(g grid.Grid, st store.Store, tx Sender) *Sheet {
	g = g.Clone()
	if g == nil {
		g = grid.Grid{}
	}
	return &Sheet{grid: g, store: st, tx: tx}
}

// Grid returns a copy of the live grid.
func (s *Sheet) Grid() grid.Grid { return s.grid.Clone() }

// Rows returns the row count.
func (s *Sheet) Rows() int { return s.grid.Rows() }

// Cols returns the column count.
func (s *Sheet) Cols() int { return s.grid.Cols() }

// Generation counts wholesale replacements of the grid.
func (s *Sheet) Generation() uint64 { return s.generation }

// Store returns the current store.
func (s *Sheet) Store() store.Store { return s.store }

// Cell returns the value at ref.
func (s *Sheet) Cell(ref grid.CellRef) (string, error) { return s.grid.Cell(ref) }

func (s *Sheet) mutate(fn func() error) error {
	if s.busy {
		return ErrReentrant
	}
	s.busy = true
	defer func() { s.busy = false }()
	return fn()
}

// BeginEdit records the value at ref so the edit can be committed or
// discarded later.
func (s *Sheet) BeginEdit(ref grid.CellRef) (PendingEdit, error) {
	if err := editableColumn(ref.Col); err != nil {
		return PendingEdit{}, err
	}
	v, err := s.grid.Cell(ref)
	if err != nil {
		return PendingEdit{}, err
	}
	return PendingEdit{Ref: ref, Original: v, generation: s.generation}, nil
}

// CommitEdit commits a pending edit unless the grid was replaced after it
// began.
func (s *Sheet) CommitEdit(e PendingEdit, value string) (int, error) {
	if e.generation != s.generation {
		return 0, ErrStaleEdit
	}
	return s.CommitCell(e.Ref, value)
}

// CommitCell validates value, writes it to store row ref.Row+1, updates the
// grid and sends the whole grid. Validation and store failures leave the grid
// untouched.
func (s *Sheet) CommitCell(ref grid.CellRef, value string) (int, error) {
	var sent int
	err := s.mutate(func() error {
		if !s.grid.Contains(ref) {
			return fmt.Errorf("%w: %s", grid.ErrOutOfRange, ref)
		}
		if err := editableColumn(ref.Col); err != nil {
			return err
		}
		id := int64(ref.Row) + 1
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		switch ref.Col {
		case NumberCol:
			n, err := strconv.ParseInt(value, 10, 32)
			if err != nil {
				return fmt.Errorf("%w: %q is not a 32-bit integer", ErrValidation, value)
			}
			if err := s.store.UpdateNumber(ctx, id, int32(n)); err != nil {
				return err
			}
			value = strconv.FormatInt(n, 10)
		case TextCol:
			var text *string
			if value != "" {
				text = store.Text(value)
			}
			if err := s.store.UpdateText(ctx, id, text); err != nil {
				return err
			}
		}
		if err := s.grid.SetCell(ref, value); err != nil {
			return err
		}
		n, err := s.tx.Send(s.grid)
		sent = n
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSendAfterCommit, err)
		}
		return nil
	})
	return sent, err
}

// AddRow appends a default row to the grid and the store. Nothing is sent.
func (s *Sheet) AddRow() error {
	return s.mutate(func() error {
		prev := s.grid
		next, err := s.grid.Append([]string{"0", ""})
		if err != nil {
			return err
		}
		s.grid = next
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := s.store.Insert(ctx, store.Row{Number: 0}); err != nil {
			s.grid = prev
			return err
		}
		return nil
	})
}

// Replace installs a received grid. The store is not touched and pending
// edits become stale.
func (s *Sheet) Replace(g grid.Grid) error {
	return s.mutate(func() error {
		s.replace(g)
		return nil
	})
}

func (s *Sheet) replace(g grid.Grid) {
	g = g.Clone()
	if g == nil {
		g = grid.Grid{}
	}
	s.grid = g
	s.generation++
}

// Reload re-reads every row from the current store, dropping any received
// grid so rows and store identifiers line up again.
func (s *Sheet) Reload() error {
	return s.mutate(func() error {
		return s.reloadFrom(s.store)
	})
}

// SwapStore reloads the grid from st and installs it as the current store.
// The previous store is closed on success; on failure st is left to the
// caller and nothing changes.
func (s *Sheet) SwapStore(st store.Store) error {
	return s.mutate(func() error {
		old := s.store
		if err := s.reloadFrom(st); err != nil {
			return err
		}
		if old != nil && old != st {
			_ = old.Close()
		}
		return nil
	})
}

func (s *Sheet) reloadFrom(st store.Store) error {
	g, err := s.load(st)
	if err != nil {
		return err
	}
	s.store = st
	s.replace(g)
	return nil
}

func (s *Sheet) load(st store.Store) (grid.Grid, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	rows, err := st.ListRows(ctx)
	if err != nil {
		return nil, err
	}
	return store.RowsToGrid(rows), nil
}

func editableColumn(col int) error {
	if col != NumberCol && col != TextCol {
		return fmt.Errorf("%w: column %d is not editable", ErrValidation, col)
	}
	return nil
}
