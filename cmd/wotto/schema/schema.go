// Package schema implements "wotto schema".
package schema

import (
	"fmt"

	"github.com/urfave/cli/v2"

	appschema "github.com/sorcio/wotto/application/schema"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:   "schema",
		Usage:  "Print the JSON Schema of the host configuration file",
		Action: Main,
	}
}

func Main(c *cli.Context) error {
	out, err := appschema.ConfigSchema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s\n", out)
	return err
}
