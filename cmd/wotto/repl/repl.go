// Package repl implements "wotto repl", the interactive shell.
package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"

	"github.com/sorcio/wotto/application/repl"
	"github.com/sorcio/wotto/cmd/internal/flags"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "Start an interactive shell",
		Description: `Read commands from the terminal, or from stdin when it is not one.
Type "help" for the command list.`,
		Flags: append([]cli.Flag{
			&cli.PathFlag{
				Name:  "history",
				Usage: "history file",
				Value: defaultHistory(),
			},
		}, flags.HostFlags()...),
		Action: Main,
	}
}

func Main(c *cli.Context) error {
	e, err := flags.Executor(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer func() { _ = e.Close(c.Context) }()

	var in repl.LineReader = repl.NewScannerReader(c.App.Reader)
	if f, ok := c.App.Reader.(*os.File); ok && readline.IsTerminal(int(f.Fd())) {
		rl, err := NewReadlineInput(c.Path("history"))
		if err != nil {
			return err
		}
		defer rl.Close()
		in = rl
		fmt.Fprintf(c.App.Writer, "wotto %s\n", c.App.Version)
	}

	return repl.NewSession(e, in, c.App.Writer).Run(c.Context)
}

// ReadlineInput is a repl.LineReader with line editing and history.
type ReadlineInput struct {
	rl *readline.Instance
}

// NewReadlineInput opens the terminal. An empty historyFile disables
// persistent history.
func NewReadlineInput(historyFile string) (*ReadlineInput, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            ">> ",
		HistoryFile:       historyFile,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open terminal: %w", err)
	}
	return &ReadlineInput{rl: rl}, nil
}

// ReadLine implements repl.LineReader. Ctrl-C on an empty line ends input.
func (r *ReadlineInput) ReadLine() (string, error) {
	for {
		line, err := r.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return "", io.EOF
			}
			continue
		}
		return line, err
	}
}

// Close restores the terminal.
func (r *ReadlineInput) Close() error {
	return r.rl.Close()
}

func defaultHistory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".wotto_history")
}
