// Package transport moves whole grids over a datagram connection.
//
// A grid is encoded into one frame (see package codec) and written as a run
// of datagrams no larger than the buffer size. The receiver knows the frame
// is complete once it holds the number of bytes declared in the frame header,
// so a final datagram that exactly fills the buffer needs no special case.
package transport

import (
	"errors"
	"fmt"
	"net"

	"github.com/atomicstack/gridsync/internal/codec"
	"github.com/atomicstack/gridsync/internal/endpoint"
	"github.com/atomicstack/gridsync/internal/grid"
)

// DefaultBufferSize is the largest datagram written or accepted.
const DefaultBufferSize = 4800

var (
	// ErrTransport marks send/receive failures other than a plain timeout.
	ErrTransport = errors.New("transport error")
	// ErrPartialSend is returned when fewer bytes were written than encoded.
	ErrPartialSend = fmt.Errorf("%w: partial send", ErrTransport)
	// ErrIncomplete is returned when a message stops arriving midway.
	ErrIncomplete = fmt.Errorf("%w: incomplete message", ErrTransport)
	// ErrTimeout is returned by Receive when nothing arrived at all.
	ErrTimeout = endpoint.ErrTimeout
)

// Conn is the datagram connection a Transport drives. *endpoint.Endpoint
// satisfies it.
type Conn interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, net.Addr, error)
}

// Transport sends and receives grids over a Conn.
type Transport struct {
	conn       Conn
	bufferSize int
}

// Option configures a Transport.
type Option func(*Transport)

// WithBufferSize overrides DefaultBufferSize. Sizes smaller than the frame
// header are ignored.
func WithBufferSize(n int) Option {
	return func(t *Transport) {
		if n >= codec.HeaderSize {
			t.bufferSize = n
		}
	}
}

// New wraps conn.
func New(conn Conn, opts ...Option) *Transport {
	t := &Transport{conn: conn, bufferSize: DefaultBufferSize}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// BufferSize returns the datagram size limit.
func (t *Transport) BufferSize() int { return t.bufferSize }

// Send encodes g and writes it as one or more datagrams. The returned count
// always equals the encoded length; anything else is reported as
// ErrPartialSend.
func (t *Transport) Send(g grid.Grid) (int, error) {
	frame, err := codec.Encode(g)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	sent := 0
	for off := 0; off < len(frame); off += t.bufferSize {
		end := off + t.bufferSize
		if end > len(frame) {
			end = len(frame)
		}
		chunk := frame[off:end]
		n, err := t.conn.Write(chunk)
		sent += n
		if err != nil {
			return sent, fmt.Errorf("%w: write after %d of %d bytes: %v", ErrTransport, sent, len(frame), err)
		}
		if n != len(chunk) {
			return sent, fmt.Errorf("%w: wrote %d of %d bytes", ErrPartialSend, sent, len(frame))
		}
	}
	if sent != len(frame) {
		return sent, fmt.Errorf("%w: wrote %d of %d bytes", ErrPartialSend, sent, len(frame))
	}
	return sent, nil
}

// Receive reads one message. It returns ErrTimeout when no datagram arrives
// within the connection's timeout, and an ErrTransport error for anything
// that arrived but could not be turned into a grid.
func (t *Transport) Receive() (grid.Grid, error) {
	// One spare byte reveals datagrams larger than the buffer.
	buf := make([]byte, t.bufferSize+1)
	n, err := t.read(buf)
	if err != nil {
		return nil, err
	}
	total, err := codec.FrameLength(buf[:n])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	msg := make([]byte, 0, total)
	msg = append(msg, buf[:n]...)
	for len(msg) < total {
		n, err = t.read(buf)
		if errors.Is(err, ErrTimeout) {
			return nil, fmt.Errorf("%w: have %d of %d bytes", ErrIncomplete, len(msg), total)
		}
		if err != nil {
			return nil, err
		}
		msg = append(msg, buf[:n]...)
	}
	if len(msg) > total {
		return nil, fmt.Errorf("%w: message overran declared length %d by %d bytes", ErrTransport, total, len(msg)-total)
	}
	g, err := codec.Decode(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return g, nil
}

func (t *Transport) read(buf []byte) (int, error) {
	n, _, err := t.conn.Read(buf)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return 0, ErrTimeout
		}
		return 0, fmt.Errorf("%w: read: %v", ErrTransport, err)
	}
	if n > t.bufferSize {
		return 0, fmt.Errorf("%w: datagram exceeds %d byte buffer", ErrTransport, t.bufferSize)
	}
	return n, nil
}

// IsTimeout reports whether err means nothing arrived.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
