// Package store persists grid rows in a relational table.
//
// The table holds one row per grid row:
//
//	simple_table(id auto-increment primary key, number INTEGER, text TEXT)
//
// Row identifiers start at 1 and stay contiguous with grid row index + 1 as
// long as rows are only appended, which is the only way the application adds
// them. CreateSchema drops and recreates the table so a fresh table restarts
// its identifiers at 1.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/atomicstack/gridsync/internal/grid"
)

var (
	// ErrStore wraps every connection or query failure.
	ErrStore = errors.New("store error")
	// ErrUnsupportedURL is returned for URLs with an unknown scheme.
	ErrUnsupportedURL = errors.New("unsupported database url")
	// ErrNoRow is returned when an update matches no row.
	ErrNoRow = fmt.Errorf("%w: no row", ErrStore)
)

// Row is the durable counterpart of a grid row.
type Row struct {
	ID     int64
	Number int32
	Text   *string
}

// Cells renders the row the way the grid shows it.
func (r Row) Cells() []string {
	text := ""
	if r.Text != nil {
		text = *r.Text
	}
	return []string{strconv.FormatInt(int64(r.Number), 10), text}
}

// Store is the persistence interface the sheet depends on.
type Store interface {
	URL() string
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error
	ListRows(ctx context.Context) ([]Row, error)
	Insert(ctx context.Context, row Row) error
	InsertMany(ctx context.Context, rows []Row) error
	UpdateNumber(ctx context.Context, id int64, value int32) error
	UpdateText(ctx context.Context, id int64, value *string) error
	Close() error
}

// RowsToGrid converts stored rows into grid rows, in order.
func RowsToGrid(rows []Row) grid.Grid {
	g := make(grid.Grid, 0, len(rows))
	for _, r := range rows {
		g = append(g, r.Cells())
	}
	return g
}

// SampleRows are the rows written by Populate.
func SampleRows() []Row {
	return []Row{
		{Number: 1, Text: Text("test")},
		{Number: 100, Text: Text("another text")},
		{Number: -3234},
	}
}

// Populate recreates the table and fills it with SampleRows.
func Populate(ctx context.Context, st Store) error {
	if err := st.CreateSchema(ctx); err != nil {
		return err
	}
	return st.InsertMany(ctx, SampleRows())
}

// Text returns a pointer to s, for building rows with a text value.
func Text(s string) *string { return &s }

// RedactURL hides the password of a database URL so it can be logged.
// Unparseable input is replaced entirely.
func RedactURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "(unparseable url)"
	}
	if u.User == nil {
		return raw
	}
	return u.Redacted()
}
