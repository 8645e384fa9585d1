// Package endpoint owns the UDP socket used to talk to the remote peer.
//
// An Endpoint pairs one bound local socket with one remote target. Both can be
// replaced at runtime, and each replacement either fully succeeds or leaves
// the endpoint exactly as it was. Endpoints are owned by the UI loop and are
// not safe for concurrent use.
package endpoint

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// DefaultTimeout bounds every Read.
const DefaultTimeout = 100 * time.Millisecond

var (
	// ErrBind is returned when a local address cannot be bound.
	ErrBind = errors.New("bind failed")
	// ErrConnect is returned when a remote address cannot be used.
	ErrConnect = errors.New("connect failed")
	// ErrTimeout is returned by Read when nothing arrives before the deadline.
	ErrTimeout = errors.New("receive timed out")
	// ErrClosed is returned when the endpoint has been closed.
	ErrClosed = errors.New("endpoint closed")
)

// Endpoint is a bound UDP socket plus the remote target it sends to.
type Endpoint struct {
	conn    *net.UDPConn
	local   string
	remote  *net.UDPAddr
	target  string
	timeout time.Duration
}

// New binds local and targets remote.
func New(local, remote string) (*Endpoint, error) {
	raddr, err := resolveRemote(remote)
	if err != nil {
		return nil, err
	}
	conn, err := bind(local)
	if err != nil {
		return nil, err
	}
	return &Endpoint{
		conn:    conn,
		local:   conn.LocalAddr().String(),
		remote:  raddr,
		target:  remote,
		timeout: DefaultTimeout,
	}, nil
}

func bind(local string) (*net.UDPConn, error) {
	laddr, err := net.ResolveUDPAddr("udp", local)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %q: %v", ErrBind, local, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("%w: listen %q: %v", ErrBind, local, err)
	}
	return conn, nil
}

func resolveRemote(remote string) (*net.UDPAddr, error) {
	raddr, err := net.ResolveUDPAddr("udp", remote)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %q: %v", ErrConnect, remote, err)
	}
	if raddr.Port == 0 {
		return nil, fmt.Errorf("%w: %q has no port", ErrConnect, remote)
	}
	return raddr, nil
}

// LocalAddr returns the address the socket is actually bound to.
func (e *Endpoint) LocalAddr() string { return e.local }

// RemoteAddr returns the remote target as it was configured.
func (e *Endpoint) RemoteAddr() string { return e.target }

// Timeout returns the per-read deadline.
func (e *Endpoint) Timeout() time.Duration { return e.timeout }

// SetTimeout changes the per-read deadline. Non-positive values restore the
// default.
func (e *Endpoint) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	e.timeout = d
}

// Rebind moves the endpoint to a freshly bound socket at local, keeping the
// current remote target. The previous socket is closed only after the new
// one is bound; on failure nothing changes.
func (e *Endpoint) Rebind(local string) error {
	if e.conn == nil {
		return ErrClosed
	}
	conn, err := bind(local)
	if err != nil {
		return err
	}
	old := e.conn
	e.conn = conn
	e.local = conn.LocalAddr().String()
	_ = old.Close()
	return nil
}

// Reconnect points the endpoint at a new remote target. On failure the
// previous target is kept.
func (e *Endpoint) Reconnect(remote string) error {
	if e.conn == nil {
		return ErrClosed
	}
	raddr, err := resolveRemote(remote)
	if err != nil {
		return err
	}
	e.remote = raddr
	e.target = remote
	return nil
}

// Write sends p as a single datagram to the remote target.
func (e *Endpoint) Write(p []byte) (int, error) {
	if e.conn == nil {
		return 0, ErrClosed
	}
	return e.conn.WriteToUDP(p, e.remote)
}

// Read receives one datagram from the remote target into p, waiting at most
// Timeout in total. Datagrams from any other source are discarded, as a
// connected socket would.
func (e *Endpoint) Read(p []byte) (int, net.Addr, error) {
	if e.conn == nil {
		return 0, nil, ErrClosed
	}
	if err := e.conn.SetReadDeadline(time.Now().Add(e.timeout)); err != nil {
		return 0, nil, err
	}
	for {
		n, addr, err := e.conn.ReadFromUDP(p)
		if err != nil {
			if isTimeout(err) {
				return 0, nil, ErrTimeout
			}
			return n, nil, err
		}
		if sameAddr(addr, e.remote) {
			return n, addr, nil
		}
	}
}

func sameAddr(a, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Port == b.Port && a.IP.Equal(b.IP)
}

// Close releases the socket.
func (e *Endpoint) Close() error {
	if e.conn == nil {
		return nil
	}
	err := e.conn.Close()
	e.conn = nil
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
