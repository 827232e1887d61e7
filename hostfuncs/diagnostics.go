package hostfuncs

import (
	"io"
	"log/slog"
	"sync"
)

// Diagnostics is the side channel notified of guest writes. It never feeds
// back into the guest; output is only delivered when the invocation ends.
type Diagnostics interface {
	// Output is called for every write with the bytes the guest passed,
	// before any truncation.
	Output(data []byte)

	// Discarded is called when a write did not fit and dropped bytes.
	Discarded(dropped int)
}

// NopDiagnostics ignores all notifications.
type NopDiagnostics struct{}

func (NopDiagnostics) Output([]byte) {}
func (NopDiagnostics) Discarded(int) {}

// StreamDiagnostics writes the line format of the command-line harness:
//
//	out: '<bytes>'
//	warning: discarding output bytes
//
// Each line is written in one call under a lock, so concurrent invocations
// sharing w never interleave within a line.
type StreamDiagnostics struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStreamDiagnostics returns a StreamDiagnostics writing to w.
func NewStreamDiagnostics(w io.Writer) *StreamDiagnostics {
	return &StreamDiagnostics{w: w}
}

func (d *StreamDiagnostics) Output(data []byte) {
	line := make([]byte, 0, len(data)+8)
	line = append(line, "out: '"...)
	line = append(line, data...)
	line = append(line, "'\n"...)
	d.write(line)
}

func (d *StreamDiagnostics) Discarded(int) {
	d.write([]byte("warning: discarding output bytes\n"))
}

func (d *StreamDiagnostics) write(line []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, _ = d.w.Write(line)
}

// LogDiagnostics reports through a structured logger.
// Writes go to debug level and truncation to warn.
type LogDiagnostics struct {
	Logger *slog.Logger
}

func (d LogDiagnostics) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d LogDiagnostics) Output(data []byte) {
	d.logger().Debug("guest output", "bytes", len(data), "data", string(data))
}

func (d LogDiagnostics) Discarded(dropped int) {
	d.logger().Warn("discarding output bytes", "dropped", dropped)
}
