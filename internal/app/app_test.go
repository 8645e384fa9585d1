package app

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/atomicstack/gridsync/internal/grid"
	"github.com/atomicstack/gridsync/internal/scheduler"
	"github.com/atomicstack/gridsync/internal/store"
	"github.com/atomicstack/gridsync/internal/testutil"
)

// freePort returns a UDP port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := conn.LocalAddr().(*net.UDPAddr).Port
	conn.Close()
	return port
}

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		DBURL:        "sqlite://" + filepath.Join(t.TempDir(), "app.db"),
		Populate:     true,
		BindHost:     "127.0.0.1",
		BasePort:     freePort(t),
		PortAttempts: 5,
		Connect:      "127.0.0.1:10000",
		Interval:     250 * time.Millisecond,
	}
}

func TestBootstrapPopulatesAndLoads(t *testing.T) {
	cfg := testConfig(t)
	session, err := Bootstrap(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Bootstrap() failed: %v", err)
	}
	defer session.Close()

	want := store.RowsToGrid(store.SampleRows())
	if got := session.Sheet.Grid(); !grid.Equal(got, want) {
		t.Fatalf("grid = %v, want %v", got, want)
	}
	if session.Scheduler.Interval() != cfg.Interval {
		t.Fatalf("interval = %s, want %s", session.Scheduler.Interval(), cfg.Interval)
	}
	if session.Endpoint.RemoteAddr() != "127.0.0.1:10000" {
		t.Fatalf("remote = %q", session.Endpoint.RemoteAddr())
	}
	if session.Sheet.Store().URL() != cfg.DBURL {
		t.Fatalf("store url = %q", session.Sheet.Store().URL())
	}
}

func TestBootstrapKeepsExistingRowsWithoutPopulate(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	st, err := store.Open(ctx, cfg.DBURL)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.CreateSchema(ctx); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if err := st.Insert(ctx, store.Row{Number: 5, Text: store.Text("kept")}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	st.Close()

	cfg.Populate = false
	session, err := Bootstrap(ctx, cfg)
	if err != nil {
		t.Fatalf("Bootstrap() failed: %v", err)
	}
	defer session.Close()
	if got := session.Sheet.Grid(); !grid.Equal(got, grid.Grid{{"5", "kept"}}) {
		t.Fatalf("grid = %v", got)
	}
}

func TestBootstrapFailsWithoutTable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Populate = false
	_, err := Bootstrap(context.Background(), cfg)
	if !errors.Is(err, store.ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}

	// The port must have been released.
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: cfg.BasePort})
	if err != nil {
		t.Fatalf("port %d still bound: %v", cfg.BasePort, err)
	}
	conn.Close()
}

func TestBootstrapRejectsUnknownDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBURL = "postgres://nowhere"
	if _, err := Bootstrap(context.Background(), cfg); !errors.Is(err, store.ErrUnsupportedURL) {
		t.Fatalf("expected unsupported url, got %v", err)
	}
}

func TestBootstrapSkipsBusyPort(t *testing.T) {
	cfg := testConfig(t)
	busy, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: cfg.BasePort})
	if err != nil {
		t.Skipf("could not occupy port %d: %v", cfg.BasePort, err)
	}
	defer busy.Close()

	session, err := Bootstrap(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Bootstrap() failed: %v", err)
	}
	defer session.Close()
	_, port, _ := net.SplitHostPort(session.Endpoint.LocalAddr())
	if port == "" || session.Endpoint.LocalAddr() == busy.LocalAddr().String() {
		t.Fatalf("expected a different port than %s, got %s", busy.LocalAddr(), session.Endpoint.LocalAddr())
	}
}

func TestOpenStoreReturnsNilInterfaceOnFailure(t *testing.T) {
	st, err := openStore(context.Background(), "bogus://")
	if err == nil {
		t.Fatalf("expected error")
	}
	if st != nil {
		t.Fatalf("expected nil store, got %#v", st)
	}
}

func TestSessionSendsToPeer(t *testing.T) {
	peer := testutil.ListenPeer(t)
	cfg := testConfig(t)
	cfg.Connect = peer.Addr()
	session, err := Bootstrap(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Bootstrap() failed: %v", err)
	}
	defer session.Close()

	res := session.Scheduler.Tick()
	if err := res.Err(); err != nil {
		t.Fatalf("Tick() failed: %v", err)
	}
	if got := peer.ReadGrid(t, session.Endpoint.LocalAddr(), time.Second); !grid.Equal(got, session.Sheet.Grid()) {
		t.Fatalf("peer received %v, want %v", got, session.Sheet.Grid())
	}
}

func TestSessionIgnoresUnknownSender(t *testing.T) {
	stranger := testutil.ListenPeer(t)
	cfg := testConfig(t)
	session, err := Bootstrap(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Bootstrap() failed: %v", err)
	}
	defer session.Close()
	session.Scheduler.SetMode(scheduler.ModeReceive)
	before := session.Sheet.Grid()

	stranger.SendTo(t, session.Endpoint.LocalAddr(), grid.Grid{{"666", "injected"}})
	res := session.Scheduler.Tick()
	if res.Applied != 0 || res.Err() != nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if !grid.Equal(session.Sheet.Grid(), before) {
		t.Fatalf("grid replaced by an unknown sender: %v", session.Sheet.Grid())
	}
}

func TestSessionsSyncOverLoopback(t *testing.T) {
	ctx := context.Background()
	receiverCfg := testConfig(t)
	receiver, err := Bootstrap(ctx, receiverCfg)
	if err != nil {
		t.Fatalf("Bootstrap(receiver) failed: %v", err)
	}
	defer receiver.Close()
	receiver.Scheduler.SetMode(scheduler.ModeReceive)

	senderCfg := testConfig(t)
	senderCfg.Connect = receiver.Endpoint.LocalAddr()
	sender, err := Bootstrap(ctx, senderCfg)
	if err != nil {
		t.Fatalf("Bootstrap(sender) failed: %v", err)
	}
	defer sender.Close()
	if err := receiver.Endpoint.Reconnect(sender.Endpoint.LocalAddr()); err != nil {
		t.Fatalf("Reconnect() failed: %v", err)
	}

	if err := sender.Sheet.AddRow(); err != nil {
		t.Fatalf("AddRow() failed: %v", err)
	}
	if _, err := sender.Sheet.CommitCell(grid.CellRef{Row: 3, Col: 1}, "from sender"); err != nil {
		t.Fatalf("CommitCell() failed: %v", err)
	}

	res := receiver.Scheduler.Tick()
	if err := res.Err(); err != nil {
		t.Fatalf("receiver Tick() failed: %v", err)
	}
	if res.Applied != 1 {
		t.Fatalf("applied = %d, want 1", res.Applied)
	}
	if got, want := receiver.Sheet.Grid(), sender.Sheet.Grid(); !grid.Equal(got, want) {
		t.Fatalf("receiver grid = %v, want %v", got, want)
	}

	rows, err := receiver.Sheet.Store().ListRows(ctx)
	if err != nil {
		t.Fatalf("ListRows() failed: %v", err)
	}
	if len(rows) != len(store.SampleRows()) {
		t.Fatalf("receiver store has %d rows, received data must not be stored", len(rows))
	}
}
