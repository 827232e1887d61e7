// Package log builds the slog loggers used by the host and the
// command-line harness. Records are rendered by tint.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// HandlerOption configures the handler returned by NewHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level      slog.Level
	addSource  bool
	noColor    bool
	timeFormat string
}

func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level:      slog.LevelInfo,
		timeFormat: time.Kitchen,
	}
}

// WithLevel sets the minimum level to report.
func WithLevel(level slog.Level) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// WithColor enables or disables ANSI colors.
func WithColor(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.noColor = !enabled
	}
}

// WithTimeFormat sets the timestamp layout. An empty layout drops the
// timestamp altogether.
func WithTimeFormat(layout string) HandlerOption {
	return func(c *handlerConfig) {
		c.timeFormat = layout
	}
}

// NewHandler returns a tint handler writing to w.
func NewHandler(w io.Writer, opts ...HandlerOption) slog.Handler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	tintOpts := &tint.Options{
		Level:      cfg.level,
		AddSource:  cfg.addSource,
		NoColor:    cfg.noColor,
		TimeFormat: cfg.timeFormat,
	}
	if cfg.timeFormat == "" {
		tintOpts.ReplaceAttr = dropTime
	}
	return tint.NewHandler(w, tintOpts)
}

// New returns a logger backed by NewHandler.
func New(w io.Writer, opts ...HandlerOption) *slog.Logger {
	return slog.New(NewHandler(w, opts...))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return New(io.Discard, WithLevel(slog.LevelError+1))
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

// ParseLevel parses one of debug, info, warn or error, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
