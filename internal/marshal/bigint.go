package marshal

import "math/big"

// longShift is the number of significant bits per serialized digit.
// Arbitrary precision integers are stored as a signed digit count
// followed by that many 16 bit words, each holding 15 bits, least
// significant digit first.
const longShift = 15

// longDigitMask masks the valid bits of a serialized digit.
const longDigitMask = 1<<longShift - 1

// readLong decodes an arbitrary precision integer from the cursor.
// A digit count of exactly zero short-circuits without consuming
// further bytes.
func readLong(c *Cursor) (*big.Int, error) {
	count, err := c.ReadI32()
	if err != nil {
		return nil, err
	}
	result := new(big.Int)
	if count == 0 {
		return result, nil
	}

	negative := count < 0
	digits := int(count)
	if negative {
		digits = -digits
	}

	digit := new(big.Int)
	for i := 0; i < digits; i++ {
		offset := c.Pos()
		d, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		if d > longDigitMask {
			return nil, errOffset(offset, ErrMalformedContainer,
				"long digit %d exceeds %d bits", d, longShift)
		}
		digit.SetUint64(uint64(d))
		digit.Lsh(digit, uint(longShift*i))
		result.Or(result, digit)
	}

	if negative {
		result.Neg(result)
	}
	return result, nil
}
