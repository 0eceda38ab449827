package marshal

import (
	"encoding/binary"
	"fmt"
)

// Cursor is a sequential reader over an immutable byte buffer.
// The buffer is borrowed, not copied; the read position never exceeds
// the buffer length and reads past the end fail with ErrEndOfStream.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor returns a new cursor positioned at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the current read position.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// ReadBytes returns exactly n bytes and advances the position.
// A negative count fails with ErrMalformedContainer, a count larger than
// the remaining buffer with ErrEndOfStream; no partial read happens.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, errOffset(c.pos, ErrMalformedContainer, "negative byte count %d", n)
	}
	if n > c.Remaining() {
		return nil, errOffset(c.pos, ErrEndOfStream,
			"%d bytes requested, %d remaining", n, c.Remaining())
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadU8 reads one unsigned byte.
func (c *Cursor) ReadU8() (byte, error) {
	b, err := c.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads an unsigned 16 bit little endian value.
func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads an unsigned 32 bit little endian value.
func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads an unsigned 64 bit little endian value.
func (c *Cursor) ReadU64() (uint64, error) {
	b, err := c.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadI32 reads a signed 32 bit little endian value in two's complement.
func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// ReadI64 reads a signed 64 bit little endian value in two's complement.
func (c *Cursor) ReadI64() (int64, error) {
	v, err := c.ReadU64()
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

func (c *Cursor) String() string {
	return fmt.Sprintf("cursor at %d/%d", c.pos, len(c.data))
}
