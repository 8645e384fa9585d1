package table

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Format returns the rows padded according to the widest entry in each column.
func Format(rows [][]string, alignments []Alignment) []string {
	if len(rows) == 0 {
		return nil
	}
	colCount := 0
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	widths := make([]int, colCount)
	for _, row := range rows {
		for c, cell := range row {
			if w := ansi.StringWidth(cell); w > widths[c] {
				widths[c] = w
			}
		}
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		var b strings.Builder
		for c, cell := range row {
			if c > 0 {
				b.WriteString("  ")
			}
			align := AlignLeft
			if c < len(alignments) {
				align = alignments[c]
			}
			b.WriteString(Fit(cell, widths[c], align))
		}
		out[i] = strings.TrimRight(b.String(), " ")
	}
	return out
}

// Fit truncates or pads text to exactly width cells.
func Fit(text string, width int, align Alignment) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(text) > width {
		text = ansi.Truncate(text, width, "…")
	}
	pad := width - ansi.StringWidth(text)
	if pad <= 0 {
		return text
	}
	if align == AlignRight {
		return strings.Repeat(" ", pad) + text
	}
	return text + strings.Repeat(" ", pad)
}

// DrawKind tags what a paint callback is asked to draw.
type DrawKind int

const (
	// PageStart is issued once before anything else, with the full table
	// rectangle. A non-empty result becomes a title line above the table.
	PageStart DrawKind = iota
	ColumnHeader
	RowHeader
	DataCell
)

func (k DrawKind) String() string {
	switch k {
	case PageStart:
		return "page-start"
	case ColumnHeader:
		return "column-header"
	case RowHeader:
		return "row-header"
	case DataCell:
		return "data-cell"
	}
	return "unknown"
}

// DrawContext identifies one paint request. Row is meaningful for RowHeader
// and DataCell, Col for ColumnHeader and DataCell.
type DrawContext struct {
	Kind DrawKind
	Row  int
	Col  int
}

// Rect is a rectangle in character cells.
type Rect struct {
	X, Y, W, H int
}

// Painter returns the text for one paint request. The result is fitted to
// the rectangle width.
type Painter func(ctx DrawContext, r Rect) string

// Layout holds the geometry of a painted grid.
type Layout struct {
	Rows           int
	RowHeaderWidth int
	ColWidths      []int
	Gap            int
}

// Width is the total width in cells.
func (l Layout) Width() int {
	w := l.RowHeaderWidth
	for _, cw := range l.ColWidths {
		w += l.Gap + cw
	}
	return w
}

// NewLayout sizes columns to their widest cell, bounded by minWidth and
// maxWidth. A maxWidth of zero leaves columns unbounded.
func NewLayout(cells [][]string, minWidth, maxWidth int) Layout {
	cols := 0
	for _, row := range cells {
		if len(row) > cols {
			cols = len(row)
		}
	}
	widths := make([]int, cols)
	for c := range widths {
		widths[c] = max(minWidth, ansi.StringWidth(ColumnName(c)))
	}
	for _, row := range cells {
		for c, cell := range row {
			if w := ansi.StringWidth(cell); w > widths[c] {
				widths[c] = w
			}
		}
	}
	if maxWidth > 0 {
		for c := range widths {
			if widths[c] > maxWidth {
				widths[c] = maxWidth
			}
		}
	}
	return Layout{
		Rows:           len(cells),
		RowHeaderWidth: len(strconv.Itoa(max(len(cells), 1))),
		ColWidths:      widths,
		Gap:            1,
	}
}

// Paint draws the layout line by line, asking draw for every header and
// cell. Line 0 holds column headers; line r+1 holds row r.
func Paint(l Layout, draw Painter) []string {
	var lines []string
	if title := draw(DrawContext{Kind: PageStart}, Rect{W: l.Width(), H: l.Rows + 1}); title != "" {
		lines = append(lines, Fit(title, l.Width(), AlignLeft))
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", l.RowHeaderWidth))
	x := l.RowHeaderWidth
	for c, w := range l.ColWidths {
		b.WriteString(strings.Repeat(" ", l.Gap))
		x += l.Gap
		b.WriteString(Fit(draw(DrawContext{Kind: ColumnHeader, Col: c}, Rect{X: x, Y: 0, W: w, H: 1}), w, AlignLeft))
		x += w
	}
	lines = append(lines, b.String())

	for r := 0; r < l.Rows; r++ {
		b.Reset()
		y := r + 1
		b.WriteString(Fit(draw(DrawContext{Kind: RowHeader, Row: r}, Rect{X: 0, Y: y, W: l.RowHeaderWidth, H: 1}), l.RowHeaderWidth, AlignRight))
		x = l.RowHeaderWidth
		for c, w := range l.ColWidths {
			b.WriteString(strings.Repeat(" ", l.Gap))
			x += l.Gap
			b.WriteString(Fit(draw(DrawContext{Kind: DataCell, Row: r, Col: c}, Rect{X: x, Y: y, W: w, H: 1}), w, AlignLeft))
			x += w
		}
		lines = append(lines, b.String())
	}
	return lines
}

// ColumnName returns the spreadsheet-style name of column i: A..Z, AA, AB...
func ColumnName(i int) string {
	if i < 0 {
		return ""
	}
	var name []byte
	for i >= 0 {
		name = append([]byte{byte('A' + i%26)}, name...)
		i = i/26 - 1
	}
	return string(name)
}

// RowName returns the one-based label of row i.
func RowName(i int) string { return strconv.Itoa(i + 1) }
