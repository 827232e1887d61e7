package guest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorcio/wotto/hostfuncs"
	"github.com/sorcio/wotto/utf8seq"
)

const clock = "\xf0\x9f\x95\x90" // U+1F550

type recordingDiagnostics struct {
	writes []string
}

func (r *recordingDiagnostics) Output(data []byte) { r.writes = append(r.writes, string(data)) }
func (r *recordingDiagnostics) Discarded(int)      {}

func run(t *testing.T, entry EntryPoint, input string, opts ...hostfuncs.ChannelOption) (*hostfuncs.Channel, error) {
	t.Helper()
	ch := hostfuncs.NewChannel(opts...)
	ch.Reset([]byte(input))
	return ch, entry(context.Background(), ch)
}

func TestReverse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ascii", "abc", "cba"},
		{"sequence kept intact", clock + "cba", "abc" + clock},
		{"mixed widths", "a€ß" + clock, clock + "ß€a"},
		{"regional indicators swap", "\U0001F1EE\U0001F1F9", "\U0001F1F9\U0001F1EE"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := run(t, Reverse, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(ch.Output()))
		})
	}
}

func TestReverse_SingleWrite(t *testing.T) {
	diag := &recordingDiagnostics{}
	_, err := run(t, Reverse, "hello", hostfuncs.WithDiagnostics(diag))
	require.NoError(t, err)
	assert.Equal(t, []string{"olleh"}, diag.writes)
}

func TestReverse_Involution(t *testing.T) {
	input := "ça va? " + clock + " ok€"
	first, err := run(t, Reverse, input)
	require.NoError(t, err)
	second, err := run(t, Reverse, string(first.Output()))
	require.NoError(t, err)
	assert.Equal(t, input, string(second.Output()))
}

func TestReverse_DropsSequenceSeveredByCapacity(t *testing.T) {
	input := strings.Repeat("a", hostfuncs.DefaultCapacity-1) + "€"

	t.Run("input cut by the channel", func(t *testing.T) {
		ch, err := run(t, Reverse, input)
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("a", hostfuncs.DefaultCapacity-1), string(ch.Output()))
	})

	t.Run("input cut by the read buffer", func(t *testing.T) {
		ch, err := run(t, Reverse, input, hostfuncs.WithCapacity(1024))
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("a", hostfuncs.DefaultCapacity-1), string(ch.Output()))
	})
}

func TestReverse_MalformedInput(t *testing.T) {
	ch, err := run(t, Reverse, "a\x80b")
	require.Error(t, err)
	assert.ErrorIs(t, err, utf8seq.ErrMalformedSequence)
	assert.Empty(t, ch.Output())
}

func TestCodepoints(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ascii and euro", "A€", "65 8364"},
		{"single", "A", "65"},
		{"four byte", clock, "128336"},
		{"two byte", "é", "233"},
		{"stray continuation", "\x80A", "65533 65"},
		{"truncated tail", "A\xe2\x82", "65 65533"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := run(t, Codepoints, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(ch.Output()))
		})
	}
}

func TestCodepoints_WritesPerToken(t *testing.T) {
	diag := &recordingDiagnostics{}
	_, err := run(t, Codepoints, "A€", hostfuncs.WithDiagnostics(diag))
	require.NoError(t, err)
	assert.Equal(t, []string{"65", " ", "8364"}, diag.writes)
}

func TestCodepoints_EmptyInputWritesNothing(t *testing.T) {
	diag := &recordingDiagnostics{}
	ch, err := run(t, Codepoints, "", hostfuncs.WithDiagnostics(diag))
	require.NoError(t, err)
	assert.Empty(t, diag.writes)
	assert.Nil(t, ch.Output())
}

func TestCodepoints_OutputTruncation(t *testing.T) {
	ch, err := run(t, Codepoints, "AB", hostfuncs.WithCapacity(4))
	require.NoError(t, err)
	assert.Equal(t, "65 6", string(ch.Output()))
	assert.True(t, ch.OutputTruncated())
}
