package utf8seq

import "io"

// ReverseInto writes the sequences of src into dst in reverse order, keeping
// the bytes of each sequence in their original order. dst must not overlap
// src and must hold at least len(src) bytes. It returns the number of bytes
// written, which is len(src) on success.
//
// On error dst may hold a partial result.
func ReverseInto(dst, src []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, io.ErrShortBuffer
	}

	fwd, bwd := 0, len(src)
	for fwd < len(src) {
		lead := src[fwd]
		if IsContinuation(lead) {
			return 0, &SequenceError{Kind: ErrMalformedSequence, Offset: fwd, Lead: lead, Need: 1, Have: len(src) - fwd}
		}
		n := Classify(lead)
		if fwd+n > len(src) {
			return 0, &SequenceError{Kind: ErrTruncatedSequence, Offset: fwd, Lead: lead, Need: n, Have: len(src) - fwd}
		}
		copy(dst[bwd-n:bwd], src[fwd:fwd+n])
		fwd += n
		bwd -= n
	}
	return len(src), nil
}

// Reverse reverses buf in place at sequence granularity. buf is left
// untouched if it contains a malformed or truncated sequence.
func Reverse(buf []byte) error {
	var stack [512]byte
	var scratch []byte
	if len(buf) <= len(stack) {
		scratch = stack[:len(buf)]
	} else {
		scratch = make([]byte, len(buf))
	}

	if _, err := ReverseInto(scratch, buf); err != nil {
		return err
	}
	copy(buf, scratch)
	return nil
}

// IncompleteTail returns how many bytes at the end of buf belong to a
// sequence whose lead promises more bytes than remain. It returns 0 when
// buf ends on a complete sequence, or when no lead byte is found within the
// last MaxSequenceLen bytes.
func IncompleteTail(buf []byte) int {
	for back := 1; back <= MaxSequenceLen && back <= len(buf); back++ {
		b := buf[len(buf)-back]
		if IsContinuation(b) {
			continue
		}
		if Classify(b) > back {
			return back
		}
		return 0
	}
	return 0
}
