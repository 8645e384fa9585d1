// Package scheduler runs one synchronization step per tick.
//
// In Send mode a tick pushes the current grid to the peer. In Receive mode a
// tick drains up to ReceiveAttempts messages and applies each one to the
// sheet. The mode only changes through SetMode.
package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/atomicstack/gridsync/internal/grid"
	"github.com/atomicstack/gridsync/internal/logging/events"
	"github.com/atomicstack/gridsync/internal/transport"
)

const (
	// DefaultInterval is the time between sync ticks.
	DefaultInterval = time.Second
	// DefaultReceiveAttempts bounds how many datagrams a receive tick reads
	// before yielding to the next tick.
	DefaultReceiveAttempts = 2
)

// ErrUnknownMode is returned by ParseMode for unrecognised names.
var ErrUnknownMode = errors.New("unknown sync mode")

// Mode selects the direction of synchronization.
type Mode int

const (
	ModeSend Mode = iota
	ModeReceive
)

func (m Mode) String() string {
	switch m {
	case ModeSend:
		return "send"
	case ModeReceive:
		return "receive"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m == ModeSend || m == ModeReceive }

// ParseMode maps "send" and "receive" to their modes.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "send":
		return ModeSend, nil
	case "receive":
		return ModeReceive, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Transport is the part of *transport.Transport the scheduler drives.
type Transport interface {
	Send(g grid.Grid) (int, error)
	Receive() (grid.Grid, error)
}

// Sheet is the part of *sheet.Sheet the scheduler drives.
type Sheet interface {
	Grid() grid.Grid
	Replace(g grid.Grid) error
}

// Result reports what a tick did.
type Result struct {
	Mode Mode
	// Sent is the byte count of a successful send.
	Sent int
	// Applied counts grids received and installed in the sheet.
	Applied int
	// Attempts counts receive calls made, including the one that timed out.
	Attempts int
	// Errors holds every non-timeout failure of the tick, in order.
	Errors []error
}

// Err returns the last failure of the tick, or nil.
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[len(r.Errors)-1]
}

// Scheduler owns the current mode.
type Scheduler struct {
	tx       Transport
	sheet    Sheet
	mode     Mode
	interval time.Duration
	attempts int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the period between ticks. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithReceiveAttempts bounds the receives per tick. Values below one are
// ignored.
func WithReceiveAttempts(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// WithMode sets the starting mode.
func WithMode(m Mode) Option {
	return func(s *Scheduler) {
		if m.Valid() {
			s.mode = m
		}
	}
}

// New returns a scheduler in Send mode.
func New(t Transport, sh Sheet, opts ...Option) *Scheduler {
	s := &Scheduler{
		tx:       t,
		sheet:    sh,
		mode:     ModeSend,
		interval: DefaultInterval,
		attempts: DefaultReceiveAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the current sync direction.
func (s *Scheduler) Mode() Mode { return s.mode }

// Interval returns the configured tick period.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// ReceiveAttempts returns how many reads a receive tick makes.
func (s *Scheduler) ReceiveAttempts() int { return s.attempts }

// Editable reports whether local editing is allowed, which is only the case
// in Send mode.
func (s *Scheduler) Editable() bool { return s.mode == ModeSend }

// SetMode switches the mode. It reports whether anything changed; unknown
// modes are ignored.
func (s *Scheduler) SetMode(m Mode) bool {
	if !m.Valid() || m == s.mode {
		return false
	}
	events.Sync.Mode(s.mode.String(), m.String())
	s.mode = m
	return true
}

// Tick performs one step for the current mode. It never changes the mode.
func (s *Scheduler) Tick() Result {
	if s.mode == ModeReceive {
		return s.receive()
	}
	return s.send()
}

func (s *Scheduler) send() Result {
	res := Result{Mode: ModeSend}
	g := s.sheet.Grid()
	n, err := s.tx.Send(g)
	if err != nil {
		events.Sync.SendFailed(err)
		res.Errors = append(res.Errors, err)
		return res
	}
	res.Sent = n
	events.Sync.Sent(n, g.Rows())
	return res
}

func (s *Scheduler) receive() Result {
	res := Result{Mode: ModeReceive}
	for attempt := 1; attempt <= s.attempts; attempt++ {
		res.Attempts = attempt
		g, err := s.tx.Receive()
		if err != nil {
			if transport.IsTimeout(err) {
				events.Sync.Idle(attempt)
				break
			}
			events.Sync.ReceiveFailed(attempt, err)
			res.Errors = append(res.Errors, err)
			continue
		}
		if err := s.sheet.Replace(g); err != nil {
			events.Sync.ReceiveFailed(attempt, err)
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Applied++
		events.Sync.Received(attempt, g.Rows(), g.Cols())
	}
	return res
}
