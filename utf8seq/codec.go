package utf8seq

// Codepoint is the decoded value of one UTF-8 sequence.
type Codepoint uint32

// ReplacementCodepoint is substituted by callers that choose to recover from
// a decode error instead of aborting.
const ReplacementCodepoint Codepoint = 0xFFFD

// MaxSequenceLen is the longest sequence Classify reports.
const MaxSequenceLen = 4

// Lead byte thresholds.
const (
	twoByteLead   = 0xC0
	threeByteLead = 0xE0
	fourByteLead  = 0xF0
)

// Payload masks for the lead byte, indexed by sequence length.
var leadMask = [MaxSequenceLen + 1]byte{0, 0xFF, 0x1F, 0x0F, 0x07}

// Classify returns the length of the sequence started by lead.
// Continuation bytes (0x80-0xBF) classify as 1; callers that care use
// IsContinuation first.
func Classify(lead byte) int {
	switch {
	case lead < twoByteLead:
		return 1
	case lead < threeByteLead:
		return 2
	case lead < fourByteLead:
		return 3
	default:
		return 4
	}
}

// IsContinuation reports whether b is a non-initial byte of a multi-byte
// sequence.
func IsContinuation(b byte) bool {
	return b&0xC0 == 0x80
}

// Decode decodes the sequence starting at buf[pos] and returns the codepoint
// and the position just past it. On error the returned position equals pos.
func Decode(buf []byte, pos int) (Codepoint, int, error) {
	if pos < 0 || pos >= len(buf) {
		return 0, pos, &SequenceError{Kind: ErrTruncatedSequence, Offset: pos, Need: 1}
	}

	lead := buf[pos]
	if IsContinuation(lead) {
		return 0, pos, &SequenceError{Kind: ErrMalformedSequence, Offset: pos, Lead: lead, Need: 1, Have: len(buf) - pos}
	}

	n := Classify(lead)
	if rem := len(buf) - pos; rem < n {
		return 0, pos, &SequenceError{Kind: ErrTruncatedSequence, Offset: pos, Lead: lead, Need: n, Have: rem}
	}

	cp := Codepoint(lead & leadMask[n])
	for _, b := range buf[pos+1 : pos+n] {
		cp = cp<<6 | Codepoint(b&0x3F)
	}
	return cp, pos + n, nil
}

// Cursor walks a buffer one sequence at a time. Every advance is checked
// against the end of the buffer.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the current byte offset.
func (c *Cursor) Pos() int { return c.pos }

// Done reports whether the cursor has reached the end of the buffer.
func (c *Cursor) Done() bool { return c.pos >= len(c.buf) }

// Next decodes the sequence under the cursor and advances past it.
// On error the cursor does not move.
func (c *Cursor) Next() (Codepoint, error) {
	cp, next, err := Decode(c.buf, c.pos)
	if err != nil {
		return 0, err
	}
	c.pos = next
	return cp, nil
}

// Skip advances the cursor by n bytes, clamped to the end of the buffer.
func (c *Cursor) Skip(n int) {
	c.pos = min(c.pos+n, len(c.buf))
}

// Codepoints decodes all of buf. It stops at the first error and returns the
// codepoints decoded so far together with that error.
func Codepoints(buf []byte) ([]Codepoint, error) {
	out := make([]Codepoint, 0, len(buf))
	c := NewCursor(buf)
	for !c.Done() {
		cp, err := c.Next()
		if err != nil {
			return out, err
		}
		out = append(out, cp)
	}
	return out, nil
}
