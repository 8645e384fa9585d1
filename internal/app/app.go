package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atomicstack/gridsync/internal/backend"
	"github.com/atomicstack/gridsync/internal/endpoint"
	"github.com/atomicstack/gridsync/internal/logging/events"
	"github.com/atomicstack/gridsync/internal/scheduler"
	"github.com/atomicstack/gridsync/internal/sheet"
	"github.com/atomicstack/gridsync/internal/store"
	"github.com/atomicstack/gridsync/internal/transport"
	"github.com/atomicstack/gridsync/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
)

const bootstrapTimeout = 10 * time.Second

// Config describes user-provided application options.
type Config struct {
	DBURL        string
	Populate     bool
	BindHost     string
	BasePort     int
	PortAttempts int
	Connect      string
	Interval     time.Duration
	Width        int
	Height       int
	ShowFooter   bool
}

// Session is a bootstrapped peer: a bound endpoint, an open store and the
// sheet and scheduler built over them.
type Session struct {
	Endpoint  *endpoint.Endpoint
	Transport *transport.Transport
	Sheet     *sheet.Sheet
	Scheduler *scheduler.Scheduler
}

// Bootstrap binds the first free local port, opens the store, populates it
// when asked and loads the initial grid.
func Bootstrap(ctx context.Context, cfg Config) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	defer cancel()

	ep, err := endpoint.Discover(cfg.BindHost, cfg.BasePort, cfg.PortAttempts, cfg.Connect)
	if err != nil {
		return nil, fmt.Errorf("bind endpoint: %w", err)
	}
	events.Endpoint.Bound(ep.LocalAddr(), ep.RemoteAddr())

	st, err := store.Open(ctx, cfg.DBURL)
	if err != nil {
		ep.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	if cfg.Populate {
		if err := store.Populate(ctx, st); err != nil {
			st.Close()
			ep.Close()
			return nil, fmt.Errorf("populate store: %w", err)
		}
		events.App.Populate(st.URL(), len(store.SampleRows()))
	}
	rows, err := st.ListRows(ctx)
	if err != nil {
		st.Close()
		ep.Close()
		return nil, fmt.Errorf("load rows: %w", err)
	}
	events.Store.Open(st.URL(), len(rows))

	tx := transport.New(ep)
	sh := sheet.New(store.RowsToGrid(rows), st, tx)
	interval := cfg.Interval
	if interval <= 0 {
		interval = scheduler.DefaultInterval
	}
	sched := scheduler.New(tx, sh, scheduler.WithInterval(interval))
	return &Session{Endpoint: ep, Transport: tx, Sheet: sh, Scheduler: sched}, nil
}

// Close releases the store and the socket.
func (s *Session) Close() error {
	var errs []error
	if st := s.Sheet.Store(); st != nil {
		errs = append(errs, st.Close())
	}
	errs = append(errs, s.Endpoint.Close())
	return errors.Join(errs...)
}

// openStore adapts store.Open to ui.StoreOpener. A failed open must yield a
// nil interface, not a typed nil pointer.
func openStore(ctx context.Context, url string) (store.Store, error) {
	st, err := store.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Run bootstraps and executes the Bubble Tea program.
func Run(cfg Config) (err error) {
	defer func() { events.App.Exit(err) }()

	session, err := Bootstrap(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	ticker := backend.NewTicker(session.Scheduler.Interval())
	defer ticker.Stop()

	model := ui.NewModel(ui.Options{
		Endpoint:   session.Endpoint,
		Sheet:      session.Sheet,
		Scheduler:  session.Scheduler,
		Ticker:     ticker,
		OpenStore:  openStore,
		Width:      cfg.Width,
		Height:     cfg.Height,
		ShowFooter: cfg.ShowFooter,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
