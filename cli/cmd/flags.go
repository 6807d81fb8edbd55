// Package cmd provides CLI commands for the cmdrelay binary.
package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/cmdrelay/cli/config"
)

// Shared flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// ConfigFlag points at a cmdrelay.yaml file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to cmdrelay.yaml (flags override its values)",
		EnvVars: []string{config.EnvConfig},
	}
)

// ReadOnlyFlags returns the shared flags for commands that only render output.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{FormatFlag}
}
