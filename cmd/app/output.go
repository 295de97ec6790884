package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// render prints v according to the --output flag. The table callback is
// invoked for the default human-readable format.
func render(cmd *cli.Command, v any, table func()) error {
	switch format := cmd.String("output"); format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(v)
	case "", "table":
		table()
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json, or yaml)", format)
	}
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}
