// Package testutil provides a loopback UDP peer for tests that need the
// other side of a sync session.
package testutil

import (
	"testing"
	"time"

	"github.com/atomicstack/gridsync/internal/endpoint"
	"github.com/atomicstack/gridsync/internal/grid"
	"github.com/atomicstack/gridsync/internal/transport"
)

// placeholderRemote is the target a peer starts with until SendTo or ReadGrid
// names one.
const placeholderRemote = "127.0.0.1:9"

// Peer is a loopback endpoint speaking the grid framing.
type Peer struct {
	ep *endpoint.Endpoint
	tx *transport.Transport
}

// ListenPeer binds a peer on an ephemeral loopback port. It is closed when
// the test ends.
func ListenPeer(t *testing.T) *Peer {
	t.Helper()
	ep, err := endpoint.New("127.0.0.1:0", placeholderRemote)
	if err != nil {
		t.Fatalf("failed to bind peer: %v", err)
	}
	t.Cleanup(func() { ep.Close() })
	return &Peer{ep: ep, tx: transport.New(ep)}
}

// Addr returns the address other endpoints should target.
func (p *Peer) Addr() string { return p.ep.LocalAddr() }

// ReadGrid waits up to timeout for one grid sent from addr. Traffic from
// other sources is ignored.
func (p *Peer) ReadGrid(t *testing.T, from string, timeout time.Duration) grid.Grid {
	t.Helper()
	p.target(t, from)
	p.ep.SetTimeout(timeout)
	g, err := p.tx.Receive()
	if err != nil {
		t.Fatalf("peer receive failed: %v", err)
	}
	return g
}

// ExpectSilence fails the test if a datagram arrives within timeout.
func (p *Peer) ExpectSilence(t *testing.T, timeout time.Duration) {
	t.Helper()
	p.ep.SetTimeout(timeout)
	g, err := p.tx.Receive()
	if err == nil {
		t.Fatalf("expected no traffic, received %v", g)
	}
	if !transport.IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

// SendTo writes g to addr.
func (p *Peer) SendTo(t *testing.T, addr string, g grid.Grid) int {
	t.Helper()
	p.target(t, addr)
	n, err := p.tx.Send(g)
	if err != nil {
		t.Fatalf("peer send failed: %v", err)
	}
	return n
}

func (p *Peer) target(t *testing.T, addr string) {
	t.Helper()
	if err := p.ep.Reconnect(addr); err != nil {
		t.Fatalf("peer reconnect to %s failed: %v", addr, err)
	}
}
