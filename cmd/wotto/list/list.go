// Package list implements "wotto list".
package list

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/sorcio/wotto/cmd/internal/flags"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the native entry points and the exports of loaded modules",
		Description: `Print one invocable name per line: native entry points first, then
module.entry for every () -> () export of each --module.`,
		Flags:  flags.HostFlags(),
		Action: Main,
	}
}

func Main(c *cli.Context) error {
	e, err := flags.Executor(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer func() { _ = e.Close(c.Context) }()

	for _, name := range e.EntryPoints() {
		fmt.Fprintln(c.App.Writer, name)
	}
	for _, module := range e.Modules() {
		exports, err := e.ModuleEntryPoints(module)
		if err != nil {
			return err
		}
		for _, entry := range exports {
			fmt.Fprintf(c.App.Writer, "%s.%s\n", module, entry)
		}
	}
	return nil
}
