package backend

import (
	"context"
	"sync"
	"time"
)

// Kind represents the type of event emitted by the ticker.
type Kind int

const (
	KindTick Kind = iota
)

// Event marks one period of the sync loop.
type Event struct {
	Kind Kind
	At   time.Time
}

// Ticker posts tick events at a fixed interval. It never does any work
// itself; consumers handle each event on their own goroutine.
type Ticker struct {
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	events  chan Event
	wg      sync.WaitGroup
	dropped int64
	mu      sync.Mutex
}

// NewTicker starts a ticker that fires every interval.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	// One slot: a tick that has not been handled yet absorbs later ones.
	t := &Ticker{
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		events:   make(chan Event, 1),
	}

	t.wg.Add(1)
	go t.run()

	go func() {
		t.wg.Wait()
		close(t.events)
	}()

	return t
}

// Events returns the channel of tick events. It is closed after Stop once the
// goroutine has exited.
func (t *Ticker) Events() <-chan Event {
	return t.events
}

// Interval returns the tick period.
func (t *Ticker) Interval() time.Duration { return t.interval }

// Dropped counts ticks skipped because the previous one was still pending.
func (t *Ticker) Dropped() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Stop cancels the ticker.
func (t *Ticker) Stop() {
	t.cancel()
}

// Wait blocks until the goroutine has exited and the events channel is
// closed. Call after Stop when a clean shutdown is required.
func (t *Ticker) Wait() {
	t.wg.Wait()
}

func (t *Ticker) run() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case now := <-ticker.C:
			select {
			case t.events <- Event{Kind: KindTick, At: now}:
			default:
				t.mu.Lock()
				t.dropped++
				t.mu.Unlock()
			}
		}
	}
}
