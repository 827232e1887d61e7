package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sorcio/wotto/domain/entities"
	"github.com/sorcio/wotto/domain/ports"
)

const helpText = "commands: load <path|url> | run <module> <entry> [args...] | !<entry> [args] | !<module>.<entry> [args] | list | quit"

// LineReader yields input lines without their terminator. It returns
// io.EOF when input ends.
type LineReader interface {
	ReadLine() (string, error)
}

// ScannerReader reads lines from a plain stream.
type ScannerReader struct {
	s *bufio.Scanner
}

// NewScannerReader returns a LineReader over r.
func NewScannerReader(r io.Reader) *ScannerReader {
	return &ScannerReader{s: bufio.NewScanner(r)}
}

// ReadLine implements LineReader.
func (r *ScannerReader) ReadLine() (string, error) {
	if r.s.Scan() {
		return r.s.Text(), nil
	}
	if err := r.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Session runs commands read from a LineReader against an invoker.
type Session struct {
	invoker ports.Invoker
	in      LineReader
	out     io.Writer
	logger  *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a session reading from in and replying to out.
func NewSession(invoker ports.Invoker, in LineReader, out io.Writer, opts ...SessionOption) *Session {
	s := &Session{
		invoker: invoker,
		in:      in,
		out:     out,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes lines until quit, end of input or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := s.in.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read command: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := ParseCommand(line)
		if err != nil {
			s.fail(err)
			continue
		}
		if cmd.Kind == KindQuit {
			return nil
		}
		s.Execute(ctx, cmd)
	}
}

// Execute runs one command and writes its reply.
func (s *Session) Execute(ctx context.Context, cmd Command) {
	switch cmd.Kind {
	case KindLoad:
		var (
			name string
			err  error
		)
		if cmd.URL != "" {
			name, err = s.invoker.LoadModuleURL(ctx, cmd.URL)
		} else {
			name, err = s.invoker.LoadModuleFile(ctx, cmd.Path)
		}
		if err != nil {
			s.fail(err)
			return
		}
		s.ok("loaded " + name)
	case KindRun, KindCall:
		s.invoke(ctx, cmd)
	case KindList:
		s.ok(fmt.Sprintf("entry points: %s; modules: %s",
			joinOrNone(s.invoker.EntryPoints()), joinOrNone(s.invoker.Modules())))
	case KindHelp:
		s.ok(helpText)
	default:
		s.fail(ErrUnparsable)
	}
}

func (s *Session) invoke(ctx context.Context, cmd Command) {
	var (
		res *entities.Result
		err error
	)
	if cmd.Module == "" {
		res, err = s.invoker.Invoke(ctx, cmd.Entry, []byte(cmd.Args))
	} else {
		res, err = s.invoker.InvokeModule(ctx, cmd.Module, cmd.Entry, []byte(cmd.Args))
	}
	if err != nil {
		s.fail(err)
		return
	}
	if res.Faulted() {
		s.fail(res.Err)
		return
	}
	s.logger.DebugContext(ctx, "command completed",
		"entry", res.Entry, "module", res.Module, "duration", res.Duration)
	s.ok(string(res.Output))
}

func (s *Session) ok(msg string) {
	fmt.Fprintf(s.out, "++ %s\n", msg)
}

func (s *Session) fail(err error) {
	fmt.Fprintf(s.out, "!! %v\n", err)
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
