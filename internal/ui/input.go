package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/atomicstack/gridsync/internal/logging/events"
	"github.com/atomicstack/gridsync/internal/scheduler"
	tea "github.com/charmbracelet/bubbletea"
)

const storeOpenTimeout = 5 * time.Second

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch key.Type {
	case tea.KeyTab:
		return m.cycleFocus(1)
	case tea.KeyShiftTab:
		return m.cycleFocus(-1)
	}
	if field := m.fields[m.focus]; field != nil {
		return m.handleFieldKey(field, key)
	}
	return m.handleGridKey(key)
}

func (m *Model) handleFieldKey(field *AddressField, key tea.KeyMsg) tea.Cmd {
	cmd, done, cancel := field.Update(key)
	if cancel {
		return m.setFocus(FocusGrid)
	}
	if done {
		return m.setFocus(FocusGrid)
	}
	return cmd
}

func (m *Model) handleGridKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "q":
		return tea.Quit
	case "up", "k":
		m.moveSelection(-1, 0)
	case "down", "j":
		m.moveSelection(1, 0)
	case "left", "h":
		m.moveSelection(0, -1)
	case "right", "l":
		m.moveSelection(0, 1)
	case "home":
		m.selected.Row = 0
		m.ensureSelectionVisible()
	case "end":
		m.selected.Row = max(m.rows-1, 0)
		m.ensureSelectionVisible()
	case "enter":
		return m.startEdit()
	case "a":
		m.addRow()
	case "R":
		m.reload()
	case "s":
		m.switchMode(scheduler.ModeSend)
	case "r":
		m.switchMode(scheduler.ModeReceive)
	case "/":
		return m.startFind()
	}
	return nil
}

func (m *Model) moveSelection(dRow, dCol int) {
	if m.rows == 0 || m.cols == 0 {
		return
	}
	row := m.selected.Row + dRow
	col := m.selected.Col + dCol
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		return
	}
	m.selected.Row = row
	m.selected.Col = col
	m.ensureSelectionVisible()
	events.UI.Cursor(row, col)
}

func (m *Model) addRow() {
	if !m.editable() {
		m.setError("adding rows is disabled in receive mode")
		return
	}
	if m.sheet == nil {
		return
	}
	err := m.sheet.AddRow()
	events.Edit.AddRow(m.sheet.Rows(), err)
	if err != nil {
		m.showAlert("Add row failed", err.Error())
		return
	}
	m.syncDimensions()
	m.selected.Row = m.rows - 1
	m.ensureSelectionVisible()
	m.setInfo(fmt.Sprintf("added row %d", m.rows))
}

// reload re-reads the grid from the store, discarding received rows.
func (m *Model) reload() {
	if !m.editable() {
		m.setError("reloading is disabled in receive mode")
		return
	}
	if m.sheet == nil {
		return
	}
	err := m.sheet.Reload()
	url := ""
	if m.sheet.Store() != nil {
		url = m.sheet.Store().URL()
	}
	events.Store.Reload(url, m.sheet.Rows(), err)
	if err != nil {
		m.showAlert("Reload failed", err.Error())
		return
	}
	m.syncDimensions()
	m.setInfo(fmt.Sprintf("reloaded %d rows", m.rows))
}

func (m *Model) switchMode(mode scheduler.Mode) {
	if m.scheduler == nil || !m.scheduler.SetMode(mode) {
		return
	}
	if mode == scheduler.ModeReceive {
		m.cancelEdit("receive mode")
	}
	m.setInfo(fmt.Sprintf("%s mode", mode))
}

// fieldEnabled reports whether focus may land on f.
func (m *Model) fieldEnabled(f Focus) bool {
	if f == FocusDB {
		return m.editable()
	}
	return true
}

func (m *Model) cycleFocus(step int) tea.Cmd {
	idx := 0
	for i, f := range focusOrder {
		if f == m.focus {
			idx = i
			break
		}
	}
	for range focusOrder {
		idx = (idx + step + len(focusOrder)) % len(focusOrder)
		if m.fieldEnabled(focusOrder[idx]) {
			break
		}
	}
	return m.setFocus(focusOrder[idx])
}

// setFocus moves focus to next, committing the field being left.
func (m *Model) setFocus(next Focus) tea.Cmd {
	if next == m.focus {
		return nil
	}
	if field := m.fields[m.focus]; field != nil {
		field.Blur()
		m.commitField(m.focus, field)
	}
	m.focus = next
	events.UI.Focus(next.String())
	if field := m.fields[next]; field != nil {
		return field.Focus()
	}
	return nil
}

// commitField applies a changed address. On failure the live value is
// restored and an alert is raised.
func (m *Model) commitField(f Focus, field *AddressField) {
	if !field.Changed() {
		field.Restore()
		return
	}
	value := field.Value()
	var err error
	switch f {
	case FocusBind:
		from := m.endpoint.LocalAddr()
		err = m.endpoint.Rebind(value)
		events.Endpoint.Rebind(from, value, err)
		if err == nil {
			value = m.endpoint.LocalAddr()
		}
	case FocusConnect:
		from := m.endpoint.RemoteAddr()
		err = m.endpoint.Reconnect(value)
		events.Endpoint.Reconnect(from, value, err)
		if err == nil {
			value = m.endpoint.RemoteAddr()
		}
	case FocusDB:
		err = m.swapStore(value)
	}
	if err != nil {
		field.Restore()
		m.showAlert(fmt.Sprintf("Could not change %s", field.Label()), err.Error())
		return
	}
	field.Accept(value)
	m.setInfo(fmt.Sprintf("%s set to %s", field.Label(), value))
}

func (m *Model) swapStore(url string) error {
	if !m.editable() {
		return fmt.Errorf("the database cannot change in receive mode")
	}
	if m.openStore == nil || m.sheet == nil {
		return fmt.Errorf("no database opener configured")
	}
	from := ""
	if m.sheet.Store() != nil {
		from = m.sheet.Store().URL()
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeOpenTimeout)
	defer cancel()
	st, err := m.openStore(ctx, url)
	if err != nil {
		events.Store.Swap(from, url, err)
		return err
	}
	if err := m.sheet.SwapStore(st); err != nil {
		_ = st.Close()
		events.Store.Swap(from, url, err)
		return err
	}
	events.Store.Swap(from, url, nil)
	m.cancelEdit("database changed")
	m.syncDimensions()
	return nil
}
