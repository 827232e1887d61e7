package hostfuncs

// WriteResult reports the effect of one write.
type WriteResult struct {
	// Appended is the number of bytes that made it into the output buffer.
	Appended int

	// Truncated is true when the write did not fit and bytes were dropped.
	Truncated bool
}

// Channel owns the input and output buffers of a single invocation.
//
// A Channel must not be shared between concurrent invocations. The
// dispatcher calls Reset before every invocation so nothing carries over
// from a previous one.
type Channel struct {
	in   *InputBuffer
	out  *OutputBuffer
	diag Diagnostics
}

// ChannelOption configures a Channel.
type ChannelOption func(*channelConfig)

type channelConfig struct {
	capacity int
	diag     Diagnostics
}

func defaultChannelConfig() channelConfig {
	return channelConfig{
		capacity: DefaultCapacity,
		diag:     NopDiagnostics{},
	}
}

// WithCapacity sets the capacity of both buffers (default 512 bytes).
func WithCapacity(n int) ChannelOption {
	return func(c *channelConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithDiagnostics sets the side channel notified of writes and truncation.
func WithDiagnostics(d Diagnostics) ChannelOption {
	return func(c *channelConfig) {
		if d != nil {
			c.diag = d
		}
	}
}

// NewChannel creates a Channel with empty buffers.
func NewChannel(opts ...ChannelOption) *Channel {
	cfg := defaultChannelConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Channel{
		in:   NewInputBuffer(cfg.capacity),
		out:  NewOutputBuffer(cfg.capacity),
		diag: cfg.diag,
	}
}

// Reset installs input for the next invocation and empties the output.
// It reports whether input was longer than the capacity and got cut.
func (c *Channel) Reset(input []byte) (inputTruncated bool) {
	c.out.Reset()
	return c.in.Install(input)
}

// Read copies min(len(dst), declared) bytes of input into dst and returns the
// declared input length. A return value larger than len(dst) tells the caller
// that it received a truncated copy. Read never fails.
func (c *Channel) Read(dst []byte) int {
	return c.in.CopyTo(dst)
}

// Write appends src to the output, dropping whatever exceeds the remaining
// capacity. Dropping is reported on the diagnostics channel and in the
// result, never as an error.
func (c *Channel) Write(src []byte) WriteResult {
	c.diag.Output(src)

	n, truncated := c.out.Append(src)
	if truncated {
		c.diag.Discarded(len(src) - n)
	}
	return WriteResult{Appended: n, Truncated: truncated}
}

// Declared returns the length of the installed input.
func (c *Channel) Declared() int {
	return c.in.Declared()
}

// Capacity returns the capacity of the buffers.
func (c *Channel) Capacity() int {
	return c.out.Cap()
}

// Remaining returns how many output bytes still fit.
func (c *Channel) Remaining() int {
	return c.out.Remaining()
}

// Output returns a copy of the output accumulated so far.
func (c *Channel) Output() []byte {
	return append([]byte(nil), c.out.Bytes()...)
}

// OutputTruncated reports whether any write dropped bytes.
func (c *Channel) OutputTruncated() bool {
	return c.out.Truncated()
}
