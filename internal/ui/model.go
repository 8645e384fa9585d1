package ui

import (
	"context"
	"reflect"

	"github.com/atomicstack/gridsync/internal/backend"
	"github.com/atomicstack/gridsync/internal/grid"
	"github.com/atomicstack/gridsync/internal/scheduler"
	"github.com/atomicstack/gridsync/internal/sheet"
	"github.com/atomicstack/gridsync/internal/store"
	"github.com/atomicstack/gridsync/internal/theme"
	tea "github.com/charmbracelet/bubbletea"
)

// Mode is the interaction layer currently receiving keys.
type Mode int

const (
	ModeGrid Mode = iota
	ModeEdit
	ModeFind
)

// Focus names the widget that owns keyboard input in ModeGrid.
type Focus int

const (
	FocusGrid Focus = iota
	FocusBind
	FocusConnect
	FocusDB
)

var focusOrder = []Focus{FocusBind, FocusConnect, FocusDB, FocusGrid}

func (f Focus) String() string {
	switch f {
	case FocusBind:
		return "bind"
	case FocusConnect:
		return "connect"
	case FocusDB:
		return "db"
	default:
		return "grid"
	}
}

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Endpoint is the reconfigurable socket the address fields drive.
type Endpoint interface {
	LocalAddr() string
	RemoteAddr() string
	Rebind(local string) error
	Reconnect(remote string) error
}

// StoreOpener opens the store named by url.
type StoreOpener func(ctx context.Context, url string) (store.Store, error)

// Options wires the model to a running session.
type Options struct {
	Endpoint   Endpoint
	Sheet      *sheet.Sheet
	Scheduler  *scheduler.Scheduler
	Ticker     *backend.Ticker
	OpenStore  StoreOpener
	Width      int
	Height     int
	ShowFooter bool
}

type alert struct {
	title   string
	message string
}

// Model implements the Bubble Tea model for the grid editor.
type Model struct {
	endpoint  Endpoint
	sheet     *sheet.Sheet
	scheduler *scheduler.Scheduler
	ticker    *backend.Ticker
	openStore StoreOpener

	mode   Mode
	focus  Focus
	fields map[Focus]*AddressField
	editor *CellEditor
	finder *RowFinder
	alert  *alert

	selected grid.CellRef
	rows     int
	cols     int
	top      int

	status      string
	statusIsErr bool
	lastResult  scheduler.Result

	width       int
	height      int
	fixedWidth  bool
	fixedHeight bool
	showFooter  bool

	handlers map[reflect.Type]msgHandler
}

// NewModel builds the UI over a bootstrapped session.
func NewModel(opts Options) *Model {
	m := &Model{
		endpoint:   opts.Endpoint,
		sheet:      opts.Sheet,
		scheduler:  opts.Scheduler,
		ticker:     opts.Ticker,
		openStore:  opts.OpenStore,
		mode:       ModeGrid,
		focus:      FocusGrid,
		showFooter: opts.ShowFooter,
	}
	m.fields = map[Focus]*AddressField{
		FocusBind:    NewAddressField("Bind", m.liveValue(FocusBind)),
		FocusConnect: NewAddressField("Connect", m.liveValue(FocusConnect)),
		FocusDB:      NewAddressField("DB", m.liveValue(FocusDB)),
	}
	if opts.Width > 0 {
		m.width = opts.Width
		m.fixedWidth = true
	}
	if opts.Height > 0 {
		m.height = opts.Height
		m.fixedHeight = true
	}
	m.syncDimensions()
	m.registerHandlers()
	return m
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	if m.ticker == nil {
		return nil
	}
	return waitForTick(m.ticker)
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if key.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.alert != nil {
			m.alert = nil
			return m, nil
		}
	}
	if handled, cmd := m.handleActiveForm(msg); handled {
		return m, cmd
	}
	if handler := m.handlerFor(msg); handler != nil {
		return m, handler(msg)
	}
	return m, nil
}

func (m *Model) handleActiveForm(msg tea.Msg) (bool, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); !ok {
		return false, nil
	}
	switch m.mode {
	case ModeEdit:
		return m.handleEditForm(msg)
	case ModeFind:
		return m.handleFindForm(msg)
	default:
		return false, nil
	}
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):        m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}): m.handleWindowSizeMsg,
		reflect.TypeOf(tickMsg{}):           m.handleTickMsg,
		reflect.TypeOf(tickerDoneMsg{}):     m.handleTickerDoneMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	size, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	if !m.fixedWidth {
		m.width = size.Width
	}
	if !m.fixedHeight {
		m.height = size.Height
	}
	m.ensureSelectionVisible()
	return nil
}

// liveValue reads the value a field should show from the component it edits.
func (m *Model) liveValue(f Focus) string {
	switch f {
	case FocusBind:
		if m.endpoint != nil {
			return m.endpoint.LocalAddr()
		}
	case FocusConnect:
		if m.endpoint != nil {
			return m.endpoint.RemoteAddr()
		}
	case FocusDB:
		if m.sheet != nil && m.sheet.Store() != nil {
			return m.sheet.Store().URL()
		}
	}
	return ""
}

// setDimensions records the grid size and pulls the selection back inside.
func (m *Model) setDimensions(rows, cols int) {
	m.rows = rows
	m.cols = cols
	if m.selected.Row >= rows {
		m.selected.Row = rows - 1
	}
	if m.selected.Col >= cols {
		m.selected.Col = cols - 1
	}
	if m.selected.Row < 0 {
		m.selected.Row = 0
	}
	if m.selected.Col < 0 {
		m.selected.Col = 0
	}
	m.ensureSelectionVisible()
}

func (m *Model) syncDimensions() {
	if m.sheet == nil {
		m.setDimensions(0, 0)
		return
	}
	m.setDimensions(m.sheet.Rows(), m.sheet.Cols())
}

func (m *Model) editable() bool {
	return m.scheduler == nil || m.scheduler.Editable()
}

func (m *Model) setInfo(msg string) {
	m.status = msg
	m.statusIsErr = false
}

func (m *Model) setError(msg string) {
	m.status = msg
	m.statusIsErr = true
}

// Selected returns the selected cell.
func (m *Model) Selected() grid.CellRef { return m.selected }

// Status returns the status line text.
func (m *Model) Status() string { return m.status }

// LastResult returns the outcome of the latest sync tick.
func (m *Model) LastResult() scheduler.Result { return m.lastResult }

// CurrentMode returns the active interaction layer.
func (m *Model) CurrentMode() Mode { return m.mode }

// CurrentFocus returns the focused widget.
func (m *Model) CurrentFocus() Focus { return m.focus }

// Alert returns the visible alert, if any.
func (m *Model) Alert() (title, message string, ok bool) {
	if m.alert == nil {
		return "", "", false
	}
	return m.alert.title, m.alert.message, true
}
