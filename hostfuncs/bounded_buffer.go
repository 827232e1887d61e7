package hostfuncs

// DefaultCapacity is the reference size of both exchange buffers (512 bytes).
const DefaultCapacity = 512

// OutputBuffer is an append-only buffer with a fixed capacity.
// Bytes that would exceed the capacity are dropped, and the buffer remembers
// that a truncation happened until it is reset.
//
// Truncation can split a multi-byte UTF-8 sequence, so the contents are not
// guaranteed to be valid UTF-8 on their own.
type OutputBuffer struct {
	data      []byte
	truncated bool
}

// NewOutputBuffer creates an OutputBuffer holding at most capacity bytes.
func NewOutputBuffer(capacity int) *OutputBuffer {
	return &OutputBuffer{
		data: make([]byte, 0, max(capacity, 0)),
	}
}

// Append copies as much of p as fits and reports how many bytes were kept.
// truncated is true when some of p was dropped.
func (b *OutputBuffer) Append(p []byte) (n int, truncated bool) {
	n = min(len(p), b.Remaining())
	b.data = append(b.data, p[:n]...)
	if n < len(p) {
		b.truncated = true
		return n, true
	}
	return n, false
}

// Write implements io.Writer.
// It always reports len(p) so that formatted writers do not fail on a full
// buffer; the excess is silently discarded.
func (b *OutputBuffer) Write(p []byte) (int, error) {
	b.Append(p)
	return len(p), nil
}

// Bytes returns the buffer contents. The slice is only valid until the next
// Append or Reset.
func (b *OutputBuffer) Bytes() []byte {
	return b.data
}

// String returns the buffer contents as a string.
func (b *OutputBuffer) String() string {
	return string(b.data)
}

// Len returns the current length of the buffer.
func (b *OutputBuffer) Len() int {
	return len(b.data)
}

// Cap returns the fixed capacity of the buffer.
func (b *OutputBuffer) Cap() int {
	return cap(b.data)
}

// Remaining returns how many more bytes fit.
func (b *OutputBuffer) Remaining() int {
	return cap(b.data) - len(b.data)
}

// Truncated reports whether any bytes were dropped since the last Reset.
func (b *OutputBuffer) Truncated() bool {
	return b.truncated
}

// Reset empties the buffer and clears the truncation flag.
func (b *OutputBuffer) Reset() {
	b.data = b.data[:0]
	b.truncated = false
}
