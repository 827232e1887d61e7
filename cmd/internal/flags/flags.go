// Package flags holds the command-line flags shared by the wotto
// commands and turns them into a configured executor.
package flags

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/sorcio/wotto/domain/entities"
	"github.com/sorcio/wotto/host"
	"github.com/sorcio/wotto/log"
)

// LogFlags returns the logging flags, set on the application.
func LogFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "log-level",
			Category: "LOGGING",
			Usage:    "minimum log level: debug, info, warn or error",
			Value:    "info",
			EnvVars:  []string{"WOTTO_LOG_LEVEL"},
		},
		&cli.BoolFlag{
			Name:     "no-color",
			Category: "LOGGING",
			Usage:    "disable colored log output",
			EnvVars:  []string{"NO_COLOR"},
		},
	}
}

// HostFlags returns the flags that configure the executor.
func HostFlags() []cli.Flag {
	return []cli.Flag{
		&cli.PathFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Category: "HOST",
			Usage:    "load host settings from a YAML file",
			EnvVars:  []string{"WOTTO_CONFIG"},
		},
		&cli.StringSliceFlag{
			Name:     "module",
			Aliases:  []string{"m"},
			Category: "HOST",
			Usage:    "load a wasm module from a file or an allowed URL; may be repeated",
		},
		&cli.StringSliceFlag{
			Name:     "allow-origin",
			Category: "HOST",
			Usage:    "origin modules may be loaded from by URL; may be repeated",
			EnvVars:  []string{"WOTTO_ALLOWED_ORIGINS"},
		},
		&cli.Int64Flag{
			Name:     "max-module-size",
			Category: "HOST",
			Usage:    "largest module loaded by URL, in bytes",
			Value:    entities.DefaultConfig().MaxModuleSize,
		},
		&cli.IntFlag{
			Name:     "capacity",
			Category: "HOST",
			Usage:    "exchange buffer capacity in bytes",
			Value:    entities.DefaultConfig().Capacity,
		},
		&cli.DurationFlag{
			Name:     "timeout",
			Category: "HOST",
			Usage:    "per-invocation timeout, 0 disables it",
			Value:    entities.DefaultConfig().Timeout,
		},
		&cli.UintFlag{
			Name:     "memory-pages",
			Category: "HOST",
			Usage:    "guest memory limit in 64 KiB pages",
			Value:    uint(entities.DefaultConfig().MemoryLimitPages),
		},
		&cli.StringFlag{
			Name:     "host-module",
			Category: "HOST",
			Usage:    "import module name of the exchange functions",
			Value:    entities.DefaultConfig().HostModule,
		},
		&cli.Int64Flag{
			Name:     "concurrency",
			Category: "HOST",
			Usage:    "maximum concurrent invocations",
			Value:    entities.DefaultConfig().Concurrency,
		},
		&cli.BoolFlag{
			Name:     "sanitize",
			Category: "HOST",
			Usage:    "replace invalid UTF-8 in output with U+FFFD",
		},
		&cli.BoolFlag{
			Name:     "assemblyscript",
			Category: "HOST",
			Usage:    "provide the AssemblyScript print and abort imports",
		},
		&cli.BoolFlag{
			Name:     "allow-faults",
			Category: "HOST",
			Usage:    "register the fault-injection entry points",
			EnvVars:  []string{"WOTTO_ALLOW_FAULTS"},
		},
	}
}

// Config resolves the host configuration: defaults, then the --config
// file, then any flag set on the command line.
func Config(c *cli.Context) (entities.Config, error) {
	cfg := entities.DefaultConfig()
	if path := c.Path("config"); path != "" {
		loaded, err := host.NewLoader().LoadConfigFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	cfg = cfg.With(overrides(c)...)
	return cfg, cfg.Validate()
}

// overrides returns an option for every host flag set on the command line.
func overrides(c *cli.Context) []entities.ConfigOption {
	var opts []entities.ConfigOption
	if c.IsSet("capacity") {
		opts = append(opts, entities.WithCapacity(c.Int("capacity")))
	}
	if c.IsSet("timeout") {
		opts = append(opts, entities.WithTimeout(c.Duration("timeout")))
	}
	if c.IsSet("memory-pages") {
		opts = append(opts, entities.WithMemoryLimitPages(uint32(c.Uint("memory-pages")))) //nolint:gosec // G115: validated by Config
	}
	if c.IsSet("host-module") {
		opts = append(opts, entities.WithHostModule(c.String("host-module")))
	}
	if c.IsSet("concurrency") {
		opts = append(opts, entities.WithConcurrency(c.Int64("concurrency")))
	}
	if c.IsSet("sanitize") {
		opts = append(opts, entities.WithSanitizeOutput(c.Bool("sanitize")))
	}
	if c.IsSet("assemblyscript") {
		opts = append(opts, entities.WithAssemblyScript(c.Bool("assemblyscript")))
	}
	if c.IsSet("allow-faults") {
		opts = append(opts, entities.WithFaultInjection(c.Bool("allow-faults")))
	}
	if c.IsSet("allow-origin") {
		opts = append(opts, entities.WithAllowedOrigins(c.StringSlice("allow-origin")...))
	}
	if c.IsSet("max-module-size") {
		opts = append(opts, entities.WithMaxModuleSize(c.Int64("max-module-size")))
	}
	if c.IsSet("log-level") {
		opts = append(opts, entities.WithLogLevel(c.String("log-level")))
	}
	return opts
}

// Logger builds the logger for level and installs it as the slog default.
func Logger(c *cli.Context, level string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := log.New(c.App.ErrWriter,
		log.WithLevel(lvl),
		log.WithColor(!c.Bool("no-color")),
	)
	slog.SetDefault(logger)
	return logger, nil
}

// Executor builds an executor from the flags and loads every --module,
// by URL when it is one. The caller closes it.
func Executor(c *cli.Context, opts ...host.Option) (*host.Executor, error) {
	cfg, err := Config(c)
	if err != nil {
		return nil, err
	}
	logger, err := Logger(c, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	opts = append([]host.Option{host.WithConfig(cfg), host.WithLogger(logger)}, opts...)
	e, err := host.NewExecutor(c.Context, opts...)
	if err != nil {
		return nil, err
	}

	for _, src := range c.StringSlice("module") {
		if err := loadModule(c.Context, e, src); err != nil {
			_ = e.Close(c.Context)
			return nil, fmt.Errorf("loading %s: %w", src, err)
		}
	}
	return e, nil
}

func loadModule(ctx context.Context, e *host.Executor, src string) error {
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		_, err := e.LoadModuleURL(ctx, src)
		return err
	}
	_, err := e.LoadModuleFile(ctx, src)
	return err
}
