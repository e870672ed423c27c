package config

import (
	"log/slog"

	"github.com/spf13/pflag"
)

// AddFlags registers command-line overrides on flagSet. The current values of
// c, normally read from the environment, become the flag defaults. Call
// Validate after parsing.
func (c *Config) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.Server.Addr, "addr", c.Server.Addr, "HTTP listen address")
	flagSet.DurationVar(&c.Server.ShutdownTimeout, "shutdown-timeout", c.Server.ShutdownTimeout, "grace period for in-flight requests on shutdown")
	flagSet.StringVar(&c.Storage.Backend, "storage-backend", c.Storage.Backend, "byte store: memory, file, redis, postgres or s3")
	flagSet.StringVar(&c.Storage.Key, "storage-key", c.Storage.Key, "key holding the persisted process collection")
	flagSet.StringVar(&c.Storage.DataDir, "data-dir", c.Storage.DataDir, "directory of the file backend")
	flagSet.StringVar(&c.TemplatesFile, "templates", c.TemplatesFile, "YAML file with per process type workflow nodes")
	flagSet.IntVar(&c.DataExpiryDays, "data-expiry-days", c.DataExpiryDays, "retention window applied when data expiry is enabled")
	flagSet.StringVar(&c.Log.Format, "log-format", c.Log.Format, "log output: text or json")
	flagSet.Var((*levelValue)(&c.Log.Level), "log-level", "minimum log level: debug, info, warn or error")
}

type levelValue slog.Level

func (l *levelValue) String() string { return slog.Level(*l).String() }

func (l *levelValue) Set(s string) error {
	return (*slog.Level)(l).UnmarshalText([]byte(s))
}

func (l *levelValue) Type() string { return "level" }
