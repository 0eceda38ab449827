package marshal

import (
	"errors"
	"fmt"
)

// Error kinds of the unmarshaler. All of them are fatal: a deterministic
// byte stream parse cannot recover after a structural desync.
var (
	// ErrEndOfStream indicates a truncated buffer.
	ErrEndOfStream = errors.New("unexpected end of stream")
	// ErrUnknownTypeTag indicates an unrecognized marshal type byte,
	// either a format version mismatch or stream corruption.
	ErrUnknownTypeTag = errors.New("unknown type tag")
	// ErrDanglingReference indicates a back-reference to an index that
	// was never registered.
	ErrDanglingReference = errors.New("dangling reference")
	// ErrMalformedContainer indicates a structural count that is
	// inconsistent with the remaining buffer length.
	ErrMalformedContainer = errors.New("malformed container")
)

// errOffset wraps an error kind with the byte offset at which it occurred.
func errOffset(offset int, err error, format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	return fmt.Errorf("offset %d: %s: %w", offset, msg, err)
}
