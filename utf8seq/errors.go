package utf8seq

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedSequence is matched by errors reporting a continuation byte
	// where a sequence-initial byte was expected.
	ErrMalformedSequence = errors.New("malformed utf-8 sequence")

	// ErrTruncatedSequence is matched by errors reporting a sequence whose
	// classified length runs past the end of the buffer.
	ErrTruncatedSequence = errors.New("truncated utf-8 sequence")
)

// SequenceError describes where and why a sequence could not be decoded.
type SequenceError struct {
	Kind   error // ErrMalformedSequence or ErrTruncatedSequence
	Offset int   // position of the offending lead byte
	Lead   byte
	Need   int // classified sequence length
	Have   int // bytes remaining from Offset
}

func (e *SequenceError) Error() string {
	if e.Kind == ErrTruncatedSequence {
		return fmt.Sprintf("%v at offset %d: lead 0x%02x needs %d bytes, %d remain",
			e.Kind, e.Offset, e.Lead, e.Need, e.Have)
	}
	return fmt.Sprintf("%v at offset %d: unexpected continuation byte 0x%02x", e.Kind, e.Offset, e.Lead)
}

func (e *SequenceError) Unwrap() error {
	return e.Kind
}
