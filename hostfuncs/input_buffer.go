package hostfuncs

// InputBuffer holds the input text of one invocation.
// It is filled once by Install and is read-only afterwards.
type InputBuffer struct {
	data []byte
	cap  int
}

// NewInputBuffer creates an empty InputBuffer holding at most capacity bytes.
func NewInputBuffer(capacity int) *InputBuffer {
	capacity = max(capacity, 0)
	return &InputBuffer{
		data: make([]byte, 0, capacity),
		cap:  capacity,
	}
}

// Install replaces the contents with a copy of text, cut to the capacity.
// It reports whether text had to be cut.
func (b *InputBuffer) Install(text []byte) (truncated bool) {
	n := min(len(text), b.cap)
	b.data = append(b.data[:0], text[:n]...)
	return n < len(text)
}

// Declared returns the full length of the installed input.
func (b *InputBuffer) Declared() int {
	return len(b.data)
}

// CopyTo copies up to len(dst) bytes of input into dst and returns the
// declared length, which may be larger than len(dst).
func (b *InputBuffer) CopyTo(dst []byte) int {
	copy(dst, b.data)
	return len(b.data)
}

// Cap returns the capacity of the buffer.
func (b *InputBuffer) Cap() int {
	return b.cap
}
