package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atomicstack/gridsync/internal/grid"
	"github.com/atomicstack/gridsync/internal/logging/events"
	"github.com/atomicstack/gridsync/internal/sheet"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// AddressField is a single-line text field holding an address or URL. The
// live value is what the underlying component currently uses; the input may
// differ until it is committed.
type AddressField struct {
	label string
	input textinput.Model
	live  string
}

// newInput returns a text input with a steady cursor. Blinking would need
// cursor messages routed back into every input.
func newInput() textinput.Model {
	ti := textinput.New()
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func NewAddressField(label, value string) *AddressField {
	ti := newInput()
	ti.Prompt = ""
	ti.CharLimit = 256
	ti.SetValue(value)
	return &AddressField{label: label, input: ti, live: value}
}

func (f *AddressField) Label() string     { return f.label }
func (f *AddressField) Value() string     { return strings.TrimSpace(f.input.Value()) }
func (f *AddressField) Live() string      { return f.live }
func (f *AddressField) InputView() string { return f.input.View() }
func (f *AddressField) Changed() bool     { return f.Value() != f.live }

// Focus gives the field keyboard input.
func (f *AddressField) Focus() tea.Cmd {
	f.input.CursorEnd()
	return f.input.Focus()
}

// Blur drops keyboard input.
func (f *AddressField) Blur() { f.input.Blur() }

// Accept records v as the live value and shows it.
func (f *AddressField) Accept(v string) {
	f.live = v
	f.input.SetValue(v)
}

// Restore puts the live value back into the input.
func (f *AddressField) Restore() {
	f.input.SetValue(f.live)
	f.input.CursorEnd()
}

// Update feeds a message to the text input. It reports done on Enter and
// cancel on Esc.
func (f *AddressField) Update(msg tea.Msg) (tea.Cmd, bool, bool) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			return nil, true, false
		case tea.KeyEsc:
			f.Restore()
			return nil, false, true
		}
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return cmd, false, false
}

// CellEditor edits one cell of the grid.
type CellEditor struct {
	input textinput.Model
	edit  sheet.PendingEdit
}

func NewCellEditor(edit sheet.PendingEdit) *CellEditor {
	ti := newInput()
	ti.Prompt = ""
	ti.CharLimit = 1024
	ti.SetValue(edit.Original)
	ti.CursorEnd()
	ti.Focus()
	return &CellEditor{input: ti, edit: edit}
}

func (e *CellEditor) Ref() grid.CellRef       { return e.edit.Ref }
func (e *CellEditor) Edit() sheet.PendingEdit { return e.edit }
func (e *CellEditor) Value() string           { return e.input.Value() }
func (e *CellEditor) InputView() string       { return e.input.View() }

// Update reports done on Enter and cancel on Esc.
func (e *CellEditor) Update(msg tea.Msg) (tea.Cmd, bool, bool) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			return nil, true, false
		case tea.KeyEsc:
			return nil, false, true
		}
	}
	var cmd tea.Cmd
	e.input, cmd = e.input.Update(msg)
	return cmd, false, false
}

// RowFinder reads a query and jumps to the first matching row.
type RowFinder struct {
	input  textinput.Model
	origin grid.CellRef
}

func NewRowFinder(origin grid.CellRef) *RowFinder {
	ti := newInput()
	ti.Prompt = "/ "
	ti.Placeholder = "(type to find a row)"
	ti.CharLimit = 128
	ti.Focus()
	return &RowFinder{input: ti, origin: origin}
}

func (f *RowFinder) Query() string        { return strings.TrimSpace(f.input.Value()) }
func (f *RowFinder) InputView() string    { return f.input.View() }
func (f *RowFinder) Origin() grid.CellRef { return f.origin }

// Update reports done on Enter and cancel on Esc.
func (f *RowFinder) Update(msg tea.Msg) (tea.Cmd, bool, bool) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			return nil, true, false
		case tea.KeyEsc:
			return nil, false, true
		}
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return cmd, false, false
}

func (m *Model) startEdit() tea.Cmd {
	if !m.editable() {
		m.setError("editing is disabled in receive mode")
		return nil
	}
	if m.sheet == nil || m.rows == 0 {
		return nil
	}
	edit, err := m.sheet.BeginEdit(m.selected)
	if err != nil {
		m.setError(err.Error())
		return nil
	}
	m.editor = NewCellEditor(edit)
	m.mode = ModeEdit
	events.Edit.Begin(edit.Ref.Row, edit.Ref.Col, edit.Original)
	return nil
}

// cancelEdit drops a pending edit without touching the grid.
func (m *Model) cancelEdit(reason string) {
	if m.editor == nil {
		return
	}
	ref := m.editor.Ref()
	events.Edit.Cancel(ref.Row, ref.Col, reason)
	m.editor = nil
	if m.mode == ModeEdit {
		m.mode = ModeGrid
	}
}

func (m *Model) handleEditForm(msg tea.Msg) (bool, tea.Cmd) {
	if m.editor == nil {
		m.mode = ModeGrid
		return false, nil
	}
	cmd, done, cancel := m.editor.Update(msg)
	if cancel {
		m.cancelEdit("escape")
		return true, cmd
	}
	if done {
		m.commitEdit()
		return true, cmd
	}
	return true, cmd
}

func (m *Model) commitEdit() {
	ed := m.editor
	ref := ed.Ref()
	value := ed.Value()
	sent, err := m.sheet.CommitEdit(ed.Edit(), value)
	switch {
	case err == nil:
		events.Edit.Commit(ref.Row, ref.Col, value, sent)
		m.editor = nil
		m.mode = ModeGrid
		m.setInfo(fmt.Sprintf("saved %s, sent %d bytes", cellName(ref), sent))
	case errors.Is(err, sheet.ErrValidation):
		events.Edit.Rejected(ref.Row, ref.Col, err)
		m.showAlert("Invalid value", err.Error())
	case errors.Is(err, sheet.ErrStaleEdit):
		m.cancelEdit("stale")
		m.setError("the grid was replaced while editing; edit discarded")
	case errors.Is(err, sheet.ErrSendAfterCommit):
		events.Edit.Commit(ref.Row, ref.Col, value, sent)
		m.editor = nil
		m.mode = ModeGrid
		m.setError(fmt.Sprintf("saved %s but send failed: %v", cellName(ref), err))
	default:
		events.Edit.Rejected(ref.Row, ref.Col, err)
		m.editor = nil
		m.mode = ModeGrid
		m.showAlert("Save failed", err.Error())
	}
	m.syncDimensions()
}

func (m *Model) startFind() tea.Cmd {
	if m.rows == 0 {
		return nil
	}
	m.finder = NewRowFinder(m.selected)
	m.mode = ModeFind
	return nil
}

func (m *Model) handleFindForm(msg tea.Msg) (bool, tea.Cmd) {
	if m.finder == nil {
		m.mode = ModeGrid
		return false, nil
	}
	cmd, done, cancel := m.finder.Update(msg)
	if cancel {
		m.selected = m.finder.Origin()
		m.finder = nil
		m.mode = ModeGrid
		m.ensureSelectionVisible()
		return true, cmd
	}
	query := m.finder.Query()
	if row := FindRow(m.sheet.Grid(), query); row >= 0 {
		m.selected.Row = row
		m.ensureSelectionVisible()
	}
	if done {
		events.UI.Find(query, m.selected.Row)
		m.finder = nil
		m.mode = ModeGrid
	}
	return true, cmd
}

func (m *Model) showAlert(title, message string) {
	events.UI.Alert(title, message)
	m.alert = &alert{title: title, message: message}
}

func cellName(ref grid.CellRef) string {
	return columnName(ref.Col) + rowName(ref.Row)
}
