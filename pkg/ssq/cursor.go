// Package ssq implements the client side of the Source Server Query (A2S) protocol:
// datagram decoding, multi-packet reassembly, the challenge handshake and
// decoding of the A2S_PLAYER response.
package ssq

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Cursor is a bounded sequential reader over an immutable byte buffer.
// Every read checks the remaining length first and fails with ErrTruncated
// instead of reading past the end.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps buf. The buffer is not copied and must not be modified while in use.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, c.pos, c.Remaining())
	}

	b := c.buf[c.pos : c.pos+n]
	c.pos += n

	return b, nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	_, err := c.take(n)
	return err
}

// ReadBytes returns the next n bytes. The slice aliases the underlying buffer.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	return c.take(n)
}

// ReadUint8 reads one byte.
func (c *Cursor) ReadUint8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// ReadUint16 reads a little-endian uint16.
func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(b), nil
}

// ReadInt32 reads a little-endian int32.
func (c *Cursor) ReadInt32() (int32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}

	return int32(binary.LittleEndian.Uint32(b)), nil
}

// ReadFloat32 reads a little-endian IEEE-754 float32.
func (c *Cursor) ReadFloat32() (float32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}

	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// ReadCString reads bytes up to a NUL terminator and returns them without it.
// The cursor is advanced past the terminator. A missing terminator is ErrTruncated.
func (c *Cursor) ReadCString() (string, error) {
	end := bytes.IndexByte(c.buf[c.pos:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at offset %d", ErrTruncated, c.pos)
	}

	s := string(c.buf[c.pos : c.pos+end])
	c.pos += end + 1

	return s, nil
}
