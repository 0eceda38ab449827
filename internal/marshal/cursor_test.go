package marshal

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestCursorReadBytes(t *testing.T) {
	cursor := NewCursor([]byte{1, 2, 3, 4})

	b, err := cursor.ReadBytes(3)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)
	assert.Equal(t, 3, cursor.Pos())
	assert.Equal(t, 1, cursor.Remaining())

	_, err = cursor.ReadBytes(2)
	assert.True(t, errors.Is(err, ErrEndOfStream))
	assert.Equal(t, 3, cursor.Pos()) // failed read does not advance

	_, err = cursor.ReadBytes(-1)
	assert.True(t, errors.Is(err, ErrMalformedContainer))
}

func TestCursorFixedWidthReads(t *testing.T) {
	cursor := NewCursor([]byte{
		0xff,                   // u8
		0x34, 0x12,             // u16
		0x78, 0x56, 0x34, 0x12, // u32
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80, // u64
	})

	b, err := cursor.ReadU8()
	assert.NoError(t, err)
	assert.Equal(t, byte(0xff), b)

	u16, err := cursor.ReadU16()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := cursor.ReadU32()
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), u32)

	u64, err := cursor.ReadU64()
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x8000000000000001), u64)

	assert.Equal(t, 0, cursor.Remaining())
}

func TestCursorSignedReads(t *testing.T) {
	t.Run("i32 negative", func(t *testing.T) {
		cursor := NewCursor([]byte{0xff, 0xff, 0xff, 0xff})
		v, err := cursor.ReadI32()
		assert.NoError(t, err)
		assert.Equal(t, int32(-1), v)
	})

	t.Run("i32 positive with high magnitude", func(t *testing.T) {
		cursor := NewCursor([]byte{0xff, 0xff, 0xff, 0x7f})
		v, err := cursor.ReadI32()
		assert.NoError(t, err)
		assert.Equal(t, int32(2147483647), v)
	})

	t.Run("i64 negative", func(t *testing.T) {
		cursor := NewCursor([]byte{0xfe, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
		v, err := cursor.ReadI64()
		assert.NoError(t, err)
		assert.Equal(t, int64(-2), v)
	})
}

func TestCursorTruncatedFixedWidthRead(t *testing.T) {
	cursor := NewCursor([]byte{1, 2})
	_, err := cursor.ReadU32()
	assert.True(t, errors.Is(err, ErrEndOfStream))
}
