package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Output(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, WithColor(false), WithTimeFormat(""))

	logger.Info("module loaded", "module", "rev", "reloaded", false)

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "INF module loaded"), "got %q", line)
	assert.Contains(t, line, "module=rev")
	assert.Contains(t, line, "reloaded=false")
	assert.NotContains(t, line, "\x1b[")
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, WithColor(false), WithLevel(slog.LevelWarn))

	logger.Info("hidden")
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("input truncated")
	assert.Contains(t, buf.String(), "WRN input truncated")
}

func TestNew_Color(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, WithColor(true), WithTimeFormat("")).Error("invocation faulted")
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(t.Context(), slog.LevelError))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"WARN", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
