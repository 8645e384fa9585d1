// Package codec converts grids to and from the framed byte payload exchanged
// with the remote peer.
//
// A frame is an 8-byte header followed by a JSON body:
//
//	0..3  magic "GSYN"
//	4..7  body length, big-endian uint32
//	8..   JSON array of arrays of strings
//
// The body keeps the array-of-arrays shape peers already understand; the
// header lets the receiver know when a message spread over several datagrams
// is complete.
package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/atomicstack/gridsync/internal/grid"
)

const (
	// HeaderSize is the fixed frame header length.
	HeaderSize = 8
	// MaxFrameSize bounds the declared length a receiver will accept.
	MaxFrameSize = 16 << 20
)

var magic = [4]byte{'G', 'S', 'Y', 'N'}

var (
	// ErrDecode marks payloads that are truncated or structurally invalid.
	ErrDecode = errors.New("malformed table payload")
	// ErrMalformedGrid is returned by Encode for grids with unequal rows or
	// cells that are not valid UTF-8.
	ErrMalformedGrid = errors.New("grid cannot be encoded")
)

// Encode serialises g into a frame. Encoding the same grid twice yields the
// same bytes.
func Encode(g grid.Grid) ([]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGrid, err)
	}
	rows := make([][]string, len(g))
	for i, row := range g {
		for j, cell := range row {
			// encoding/json would replace the bad bytes with U+FFFD.
			if !utf8.ValidString(cell) {
				return nil, fmt.Errorf("%w: cell %d,%d is not valid utf-8", ErrMalformedGrid, i, j)
			}
		}
		if row == nil {
			row = []string{}
		}
		rows[i] = row
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rows); err != nil {
		return nil, fmt.Errorf("encode grid: %w", err)
	}
	payload := bytes.TrimSuffix(body.Bytes(), []byte{'\n'})
	if HeaderSize+len(payload) > MaxFrameSize {
		return nil, fmt.Errorf("encoded grid is %d bytes, limit %d", HeaderSize+len(payload), MaxFrameSize)
	}

	frame := make([]byte, HeaderSize+len(payload))
	copy(frame, magic[:])
	binary.BigEndian.PutUint32(frame[4:HeaderSize], uint32(len(payload)))
	copy(frame[HeaderSize:], payload)
	return frame, nil
}

// FrameLength reads the total frame length (header included) declared by the
// header at the start of b.
func FrameLength(b []byte) (int, error) {
	if len(b) < HeaderSize {
		return 0, fmt.Errorf("%w: header needs %d bytes, got %d", ErrDecode, HeaderSize, len(b))
	}
	if !bytes.Equal(b[:4], magic[:]) {
		return 0, fmt.Errorf("%w: bad magic %q", ErrDecode, b[:4])
	}
	n := int(binary.BigEndian.Uint32(b[4:HeaderSize]))
	total := HeaderSize + n
	if total > MaxFrameSize {
		return 0, fmt.Errorf("%w: declared length %d exceeds limit %d", ErrDecode, n, MaxFrameSize)
	}
	return total, nil
}

// Decode is the inverse of Encode.
func Decode(b []byte) (grid.Grid, error) {
	total, err := FrameLength(b)
	if err != nil {
		return nil, err
	}
	if len(b) < total {
		return nil, fmt.Errorf("%w: truncated, have %d of %d bytes", ErrDecode, len(b), total)
	}
	if len(b) > total {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrDecode, len(b)-total)
	}
	body := b[HeaderSize:]
	if !utf8.Valid(body) {
		return nil, fmt.Errorf("%w: invalid utf-8", ErrDecode)
	}
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: body is not an array", ErrDecode)
	}
	// Pointers expose JSON nulls, which a plain [][]string would turn into
	// empty rows and cells.
	var rows []*[]*string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	g := make(grid.Grid, len(rows))
	for i, row := range rows {
		if row == nil {
			return nil, fmt.Errorf("%w: row %d is null", ErrDecode, i)
		}
		cells := make([]string, len(*row))
		for j, cell := range *row {
			if cell == nil {
				return nil, fmt.Errorf("%w: cell %d,%d is null", ErrDecode, i, j)
			}
			cells[j] = *cell
		}
		g[i] = cells
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return g, nil
}
