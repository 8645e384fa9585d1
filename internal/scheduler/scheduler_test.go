package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/atomicstack/gridsync/internal/codec"
	"github.com/atomicstack/gridsync/internal/grid"
	"github.com/atomicstack/gridsync/internal/transport"
)

type fakeTransport struct {
	sends    []grid.Grid
	sendErr  error
	inbox    []any
	receives int
}

func (f *fakeTransport) Send(g grid.Grid) (int, error) {
	f.sends = append(f.sends, g)
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	return 10 * len(g), nil
}

// Receive pops the inbox: a grid.Grid is delivered, an error returned, and an
// empty inbox times out.
func (f *fakeTransport) Receive() (grid.Grid, error) {
	f.receives++
	if len(f.inbox) == 0 {
		return nil, transport.ErrTimeout
	}
	next := f.inbox[0]
	f.inbox = f.inbox[1:]
	switch v := next.(type) {
	case grid.Grid:
		return v, nil
	case error:
		return nil, v
	}
	panic("unexpected inbox item")
}

type fakeSheet struct {
	grid     grid.Grid
	replaced int
}

func (f *fakeSheet) Grid() grid.Grid { return f.grid.Clone() }

func (f *fakeSheet) Replace(g grid.Grid) error {
	f.grid = g.Clone()
	f.replaced++
	return nil
}

func TestDefaults(t *testing.T) {
	s := New(&fakeTransport{}, &fakeSheet{})
	if s.Mode() != ModeSend || !s.Editable() {
		t.Fatalf("expected editable send mode by default")
	}
	if s.Interval() != time.Second || s.ReceiveAttempts() != 2 {
		t.Fatalf("unexpected defaults %v %d", s.Interval(), s.ReceiveAttempts())
	}
	s = New(&fakeTransport{}, &fakeSheet{}, WithInterval(-1), WithReceiveAttempts(0))
	if s.Interval() != time.Second || s.ReceiveAttempts() != 2 {
		t.Fatalf("invalid options should be ignored")
	}
}

func TestSendModeSendsGridUnchanged(t *testing.T) {
	tx := &fakeTransport{}
	sh := &fakeSheet{grid: grid.Grid{{"1", "a"}, {"2", "b"}}}
	s := New(tx, sh)
	res := s.Tick()
	if res.Err() != nil || res.Sent != 20 || res.Mode != ModeSend {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(tx.sends) != 1 || !grid.Equal(tx.sends[0], sh.grid) {
		t.Fatalf("expected current grid sent once")
	}
	if tx.receives != 0 || sh.replaced != 0 {
		t.Fatalf("send mode must not receive or replace")
	}
}

func TestSendFailureIsReported(t *testing.T) {
	tx := &fakeTransport{sendErr: transport.ErrPartialSend}
	s := New(tx, &fakeSheet{grid: grid.Grid{{"1", "a"}}})
	res := s.Tick()
	if !errors.Is(res.Err(), transport.ErrPartialSend) {
		t.Fatalf("expected partial send, got %v", res.Err())
	}
	if s.Mode() != ModeSend {
		t.Fatalf("failure must not change mode")
	}
}

func TestReceiveModeDrainsAndApplies(t *testing.T) {
	first := grid.Grid{{"1", "x"}}
	second := grid.Grid{{"2", "y"}, {"3", "z"}}
	tx := &fakeTransport{inbox: []any{first, second, grid.Grid{{"never"}}}}
	sh := &fakeSheet{grid: grid.Grid{{"0", ""}}}
	s := New(tx, sh)
	if !s.SetMode(ModeReceive) {
		t.Fatalf("expected mode change")
	}
	if s.Editable() {
		t.Fatalf("receive mode must not be editable")
	}
	res := s.Tick()
	if res.Applied != 2 || res.Attempts != 2 || res.Err() != nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if !grid.Equal(sh.grid, second) {
		t.Fatalf("last received grid should win, got %#v", sh.grid)
	}
	if len(tx.sends) != 0 {
		t.Fatalf("receive mode must not send")
	}
}

func TestReceiveTimeoutEndsDrain(t *testing.T) {
	tx := &fakeTransport{}
	before := grid.Grid{{"1", "a"}}
	sh := &fakeSheet{grid: before}
	s := New(tx, sh, WithMode(ModeReceive), WithReceiveAttempts(5))
	res := s.Tick()
	if res.Attempts != 1 || tx.receives != 1 {
		t.Fatalf("timeout should stop the drain, made %d receives", tx.receives)
	}
	if res.Err() != nil || sh.replaced != 0 || !grid.Equal(sh.grid, before) {
		t.Fatalf("timeout must leave the grid untouched")
	}
}

func TestReceiveSkipsMalformedPayload(t *testing.T) {
	bad := errors.Join(transport.ErrTransport, codec.ErrDecode)
	good := grid.Grid{{"9", "ok"}}
	tx := &fakeTransport{inbox: []any{bad, good}}
	sh := &fakeSheet{}
	s := New(tx, sh, WithMode(ModeReceive))
	res := s.Tick()
	if res.Applied != 1 || !grid.Equal(sh.grid, good) {
		t.Fatalf("expected the good grid applied after a bad one, got %+v", res)
	}
	if !errors.Is(res.Err(), codec.ErrDecode) {
		t.Fatalf("expected decode error recorded, got %v", res.Err())
	}
	if s.Mode() != ModeReceive {
		t.Fatalf("failure must not change mode")
	}
}

func TestSetModeRejectsUnknownAndNoop(t *testing.T) {
	s := New(&fakeTransport{}, &fakeSheet{})
	if s.SetMode(ModeSend) {
		t.Fatalf("setting current mode should report no change")
	}
	if s.SetMode(Mode(7)) {
		t.Fatalf("unknown mode accepted")
	}
	if s.Mode() != ModeSend {
		t.Fatalf("mode changed to %v", s.Mode())
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("receive"); err != nil || m != ModeReceive {
		t.Fatalf("ParseMode(receive) = %v, %v", m, err)
	}
	if _, err := ParseMode("both"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected unknown mode, got %v", err)
	}
}
