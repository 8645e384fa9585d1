package ui

import (
	"strings"

	"github.com/atomicstack/gridsync/internal/format/table"
	"github.com/atomicstack/gridsync/internal/grid"
	"github.com/atomicstack/gridsync/internal/scheduler"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	minColumnWidth = 6
	maxColumnWidth = 40
	// Lines around the grid: three fields, the mode line, a blank, the column
	// header, a blank, the add-row hint and the status line.
	chromeLines = 9
	footerLines = 2
	footerText  = "tab focus  ↑/↓/←/→ move  enter edit  a add row  R reload  s/r send/receive  / find  q quit"
)

type styledLine struct {
	text  string
	style *lipgloss.Style
	raw   bool // text contains ANSI escapes; skip style wrapping
}

// View renders the whole screen.
func (m *Model) View() string {
	lines := make([]styledLine, 0, chromeLines+m.rows)
	lines = append(lines, m.fieldLines()...)
	lines = append(lines, styledLine{text: m.modeLine(), raw: true})
	lines = append(lines, styledLine{})

	if m.alert != nil {
		lines = append(lines, styledLine{text: m.alertBox(), raw: true})
		return renderLines(applyWidth(lines, m.width))
	}

	if m.rows == 0 {
		lines = append(lines, styledLine{text: "(no rows)", style: styles.Info})
	} else {
		for _, line := range m.gridLines() {
			lines = append(lines, styledLine{text: line, raw: true})
		}
	}
	lines = append(lines, styledLine{})

	switch {
	case m.mode == ModeFind && m.finder != nil:
		lines = append(lines, styledLine{text: styles.FilterPrompt.Render(m.finder.InputView()), raw: true})
	case m.editable():
		lines = append(lines, styledLine{text: "[a] Add row", style: styles.Hint})
	default:
		lines = append(lines, styledLine{text: "[a] Add row (disabled while receiving)", style: styles.DisabledField})
	}

	var statusLine styledLine
	if m.status != "" {
		if m.statusIsErr {
			statusLine = styledLine{text: "Error: " + m.status, style: styles.Error}
		} else {
			statusLine = styledLine{text: m.status, style: styles.Info}
		}
	}
	lines = append(lines, statusLine)

	if m.showFooter {
		lines = append(lines, styledLine{})
		lines = append(lines, styledLine{text: footerText, style: styles.Footer})
	}
	return renderLines(applyWidth(lines, m.width))
}

func (m *Model) fieldLines() []styledLine {
	rows := make([][]string, 0, 3)
	for _, f := range []Focus{FocusBind, FocusConnect, FocusDB} {
		field := m.fields[f]
		value := field.InputView()
		switch {
		case f == FocusDB && !m.editable():
			value = styles.DisabledField.Render(field.Value())
		case f == m.focus:
			value = styles.FocusedField.Render(value)
		default:
			value = styles.Field.Render(field.Value())
		}
		rows = append(rows, []string{styles.Label.Render(field.Label()), value})
	}
	formatted := table.Format(rows, nil)
	out := make([]styledLine, len(formatted))
	for i, line := range formatted {
		out[i] = styledLine{text: line, raw: true}
	}
	return out
}

func (m *Model) modeLine() string {
	mode := scheduler.ModeSend
	if m.scheduler != nil {
		mode = m.scheduler.Mode()
	}
	radio := func(label string, on bool) string {
		if on {
			return styles.ActiveMode.Render("(•) " + label)
		}
		return styles.Mode.Render("( ) " + label)
	}
	return styles.Label.Render("Mode") + "  " +
		radio("Send", mode == scheduler.ModeSend) + "  " +
		radio("Receive", mode == scheduler.ModeReceive)
}

func (m *Model) alertBox() string {
	body := styles.AlertTitle.Render(m.alert.title) + "\n\n" +
		styles.AlertBody.Render(m.alert.message) + "\n\n" +
		styles.Hint.Render("press any key to continue")
	return styles.AlertBox.Render(body)
}

// visibleRows is how many grid rows fit on screen. Zero height shows all.
func (m *Model) visibleRows() int {
	if m.height <= 0 {
		return m.rows
	}
	avail := m.height - chromeLines
	if m.showFooter {
		avail -= footerLines
	}
	if avail < 1 {
		avail = 1
	}
	if avail > m.rows {
		return m.rows
	}
	return avail
}

func (m *Model) ensureSelectionVisible() {
	visible := m.visibleRows()
	if visible <= 0 {
		m.top = 0
		return
	}
	if m.selected.Row < m.top {
		m.top = m.selected.Row
	}
	if m.selected.Row >= m.top+visible {
		m.top = m.selected.Row - visible + 1
	}
	if m.top > m.rows-visible {
		m.top = m.rows - visible
	}
	if m.top < 0 {
		m.top = 0
	}
}

func (m *Model) columnLimit() int {
	if m.width <= 0 || m.cols == 0 {
		return maxColumnWidth
	}
	header := len(rowName(max(m.rows-1, 0)))
	per := (m.width-header)/m.cols - 1
	if per < minColumnWidth {
		return minColumnWidth
	}
	if per > maxColumnWidth {
		return maxColumnWidth
	}
	return per
}

// gridLines paints the visible window of the grid.
func (m *Model) gridLines() []string {
	cells := m.sheet.Grid()
	layout := table.NewLayout(cells, minColumnWidth, m.columnLimit())
	visible := m.visibleRows()
	layout.Rows = visible
	top := m.top
	return table.Paint(layout, func(ctx table.DrawContext, r table.Rect) string {
		return m.paintCell(cells, top, ctx, r)
	})
}

// paintCell is the draw callback for table.Paint. Row indices in ctx are
// relative to the first visible row.
func (m *Model) paintCell(cells grid.Grid, top int, ctx table.DrawContext, r table.Rect) string {
	switch ctx.Kind {
	case table.PageStart:
		return ""
	case table.ColumnHeader:
		return styles.Header.Render(table.Fit(columnName(ctx.Col), r.W, table.AlignLeft))
	case table.RowHeader:
		return styles.Header.Render(table.Fit(rowName(top+ctx.Row), r.W, table.AlignRight))
	case table.DataCell:
		ref := grid.CellRef{Row: top + ctx.Row, Col: ctx.Col}
		if m.mode == ModeEdit && m.editor != nil && m.editor.Ref() == ref {
			return styles.EditingCell.Render(fitInput(m.editor.InputView(), r.W))
		}
		text := ""
		if cells.Contains(ref) {
			text = cells[ref.Row][ref.Col]
		}
		text = table.Fit(text, r.W, table.AlignLeft)
		if ref == m.selected && m.focus == FocusGrid {
			return styles.SelectedCell.Render(text)
		}
		return styles.Cell.Render(text)
	}
	return ""
}

// fitInput keeps the tail of an input view so the caret stays visible.
func fitInput(view string, width int) string {
	w := ansi.StringWidth(view)
	if w <= width {
		return view + strings.Repeat(" ", width-w)
	}
	return ansi.TruncateLeft(view, w-width, "")
}

func columnName(col int) string { return table.ColumnName(col) }
func rowName(row int) string    { return table.RowName(row) }

func applyWidth(lines []styledLine, width int) []styledLine {
	if width <= 0 {
		return lines
	}
	result := make([]styledLine, len(lines))
	for i, line := range lines {
		text := line.text
		// Multi-line blocks such as the alert box are left alone.
		multiline := line.raw && strings.Contains(text, "\n")
		if !multiline && ansi.StringWidth(text) > width {
			text = ansi.Truncate(text, width, "…")
		}
		result[i] = styledLine{text: text, style: line.style, raw: line.raw}
	}
	return result
}

func renderLines(lines []styledLine) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		text := line.text
		if !line.raw && line.style != nil {
			text = line.style.Render(text)
		}
		out[i] = text
	}
	return strings.Join(out, "\n")
}
