package marshal

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

// encodeLong serializes a digit count and 16 bit digits the way the
// byte stream stores them.
func encodeLong(count int32, digits []uint16) []byte {
	buf := make([]byte, 4, 4+2*len(digits))
	binary.LittleEndian.PutUint32(buf, uint32(count))
	for _, d := range digits {
		buf = binary.LittleEndian.AppendUint16(buf, d)
	}
	return buf
}

var sampleDigits = []uint16{3426, 15327, 31619, 23110, 15594, 17366, 11}

func TestReadLong(t *testing.T) {
	cursor := NewCursor(encodeLong(7, sampleDigits))

	result, err := readLong(cursor)
	assert.NoError(t, err)
	assert.Equal(t, "14273427342342384723428347234", result.String())
	assert.Equal(t, 0, cursor.Remaining())
}

func TestReadLongNegative(t *testing.T) {
	// the digit count carries the sign, its absolute value is the loop bound
	cursor := NewCursor(encodeLong(-7, sampleDigits))

	result, err := readLong(cursor)
	assert.NoError(t, err)
	assert.Equal(t, "-14273427342342384723428347234", result.String())
	assert.Equal(t, 0, cursor.Remaining())
}

func TestReadLongZero(t *testing.T) {
	// a zero digit count short-circuits without consuming further bytes
	cursor := NewCursor(append(encodeLong(0, nil), 0xaa, 0xbb))

	result, err := readLong(cursor)
	assert.NoError(t, err)
	assert.Equal(t, "0", result.String())
	assert.Equal(t, 2, cursor.Remaining())
}

func TestReadLongSingleDigit(t *testing.T) {
	cursor := NewCursor(encodeLong(1, []uint16{42}))

	result, err := readLong(cursor)
	assert.NoError(t, err)
	assert.Equal(t, "42", result.String())
}

func TestReadLongDigitOutOfRange(t *testing.T) {
	cursor := NewCursor(encodeLong(1, []uint16{0x8000}))

	_, err := readLong(cursor)
	assert.True(t, errors.Is(err, ErrMalformedContainer))
}

func TestReadLongTruncated(t *testing.T) {
	cursor := NewCursor(encodeLong(3, []uint16{1, 2}))

	_, err := readLong(cursor)
	assert.True(t, errors.Is(err, ErrEndOfStream))
}
