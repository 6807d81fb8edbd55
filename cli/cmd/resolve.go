package cmd

import (
	"time"

	"github.com/urfave/cli/v2"
)

// Precedence for every resolve helper: an explicitly set flag, then the
// config value, then the flag's default.

func resolveString(c *cli.Context, name, configValue string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	if configValue != "" {
		return configValue
	}
	return c.String(name)
}

func resolveBool(c *cli.Context, name string, configValue bool) bool {
	if c.IsSet(name) {
		return c.Bool(name)
	}
	return configValue || c.Bool(name)
}

func resolveInt64(c *cli.Context, name string, configValue int64) int64 {
	if c.IsSet(name) {
		return c.Int64(name)
	}
	if configValue != 0 {
		return configValue
	}
	return c.Int64(name)
}

func resolveDuration(c *cli.Context, name string, configValue time.Duration) time.Duration {
	if c.IsSet(name) {
		return c.Duration(name)
	}
	if configValue != 0 {
		return configValue
	}
	return c.Duration(name)
}
