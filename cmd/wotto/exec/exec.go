// Package exec implements "wotto exec", the one-shot harness: it runs a
// single entry point on one argument and prints what the guest wrote.
package exec

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/sorcio/wotto/application/repl"
	"github.com/sorcio/wotto/cmd/internal/flags"
	"github.com/sorcio/wotto/domain/entities"
	domainerrors "github.com/sorcio/wotto/domain/errors"
	"github.com/sorcio/wotto/domain/ports"
	"github.com/sorcio/wotto/host"
	"github.com/sorcio/wotto/hostfuncs"
)

// Exit codes.
const (
	ExitUsage   = 1
	ExitFaulted = 2
)

func Command() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		ArgsUsage: "<function> <text>",
		Usage:     "Run one entry point on a UTF-8 argument",
		Description: `Run a native entry point (rev, cp) or a module export (module.entry)
with <text> as input. Each guest write is echoed to stderr as it happens;
the final output is printed to stdout after "output:".

Examples:
  wotto exec rev 'hello'
  wotto exec cp 'A€'
  wotto exec --module examples/guest.wasm guest.echo 'hi'`,
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the result as a JSON object",
			},
		}, flags.HostFlags()...),
		Action: Main,
	}
}

func Main(c *cli.Context) error {
	if c.NArg() != 2 {
		fmt.Fprint(c.App.ErrWriter, "expected args: <function> <args>\n")
		return cli.Exit("", ExitUsage)
	}

	e, err := flags.Executor(c, host.WithDiagnostics(hostfuncs.NewStreamDiagnostics(c.App.ErrWriter)))
	if err != nil {
		return cli.Exit(err.Error(), ExitUsage)
	}
	defer func() { _ = e.Close(c.Context) }()

	h := Harness{Stdout: c.App.Writer, Stderr: c.App.ErrWriter, JSON: c.Bool("json")}
	return h.Run(c.Context, e, c.Args().Get(0), c.Args().Get(1))
}

// Harness runs one invocation and reports it.
type Harness struct {
	Stdout io.Writer
	Stderr io.Writer
	JSON   bool
}

// Run invokes function with text cut at its first NUL byte. It returns a
// cli.ExitCoder when the invocation could not be dispatched or faulted.
func (h Harness) Run(ctx context.Context, inv ports.Invoker, function, text string) error {
	input, _, _ := strings.Cut(text, "\x00")

	module, entry, err := repl.SplitName(function)
	if err != nil {
		return h.dispatchError(err)
	}

	var res *entities.Result
	if module == "" {
		res, err = inv.Invoke(ctx, entry, []byte(input))
	} else {
		res, err = inv.InvokeModule(ctx, module, entry, []byte(input))
	}
	if err != nil {
		return h.dispatchError(err)
	}

	if h.JSON {
		if err := h.writeJSON(newReport(res)); err != nil {
			return err
		}
	} else if res.Completed() {
		fmt.Fprintf(h.Stdout, "output:\n%s\n", res.Output)
	} else {
		fmt.Fprintf(h.Stderr, "fault: %v\n", res.Err)
	}

	if res.Faulted() {
		return cli.Exit("", ExitFaulted)
	}
	return nil
}

func (h Harness) dispatchError(err error) error {
	if h.JSON {
		if werr := h.writeJSON(report{State: "error", Error: domainerrors.ToErrorDetail(err)}); werr != nil {
			return werr
		}
		return cli.Exit("", ExitUsage)
	}
	return cli.Exit(err.Error(), ExitUsage)
}

func (h Harness) writeJSON(r report) error {
	enc := json.NewEncoder(h.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

// report is the JSON form of a result.
type report struct {
	Entry           string                `json:"entry,omitempty"`
	Module          string                `json:"module,omitempty"`
	State           string                `json:"state"`
	Output          string                `json:"output"`
	InputTruncated  bool                  `json:"input_truncated,omitempty"`
	OutputTruncated bool                  `json:"output_truncated,omitempty"`
	DurationMS      float64               `json:"duration_ms"`
	Error           *entities.ErrorDetail `json:"error,omitempty"`
}

func newReport(res *entities.Result) report {
	return report{
		Entry:           res.Entry,
		Module:          res.Module,
		State:           string(res.State),
		Output:          string(res.Output),
		InputTruncated:  res.InputTruncated,
		OutputTruncated: res.OutputTruncated,
		DurationMS:      float64(res.Duration.Microseconds()) / 1000,
		Error:           domainerrors.ToErrorDetail(res.Err),
	}
}
