package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	"github.com/sorcio/wotto/cmd/internal/flags"
	"github.com/sorcio/wotto/cmd/wotto/exec"
	"github.com/sorcio/wotto/cmd/wotto/list"
	"github.com/sorcio/wotto/cmd/wotto/repl"
	"github.com/sorcio/wotto/cmd/wotto/schema"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	app := &cli.App{
		Name:    "wotto",
		Usage:   "Run UTF-8 text through native and wasm guests",
		Version: version,
		Flags:   flags.LogFlags(),
		Before:  setup,
		Commands: []*cli.Command{
			exec.Command(),
			list.Command(),
			repl.Command(),
			schema.Command(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.ErrorContext(ctx, err.Error())
		os.Exit(1)
	}
}

func setup(c *cli.Context) error {
	_, err := flags.Logger(c, c.String("log-level"))
	return err
}
