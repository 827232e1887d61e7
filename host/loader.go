package host

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/sorcio/wotto/domain/entities"
	domainerrors "github.com/sorcio/wotto/domain/errors"
	"github.com/sorcio/wotto/domain/ports"
	"github.com/sorcio/wotto/infrastructure/parser"
)

// loaderConfig holds configuration for the Loader.
type loaderConfig struct {
	parser ports.ConfigParser
	base   entities.Config
}

func defaultLoaderConfig() loaderConfig {
	return loaderConfig{
		parser: parser.NewYamlConfigParser(),
		base:   entities.DefaultConfig(),
	}
}

// Loader reads, parses and validates host configuration files.
type Loader struct {
	config loaderConfig
}

// LoaderOption configures the Loader.
type LoaderOption func(*loaderConfig)

// WithParser sets a custom config parser.
func WithParser(p ports.ConfigParser) LoaderOption {
	return func(c *loaderConfig) {
		if p != nil {
			c.parser = p
		}
	}
}

// WithBase sets the configuration that file values are applied over.
// The default is entities.DefaultConfig().
func WithBase(base entities.Config) LoaderOption {
	return func(c *loaderConfig) {
		c.base = base
	}
}

// NewLoader creates a new Loader with defaults.
func NewLoader(opts ...LoaderOption) *Loader {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Loader{config: cfg}
}

// LoadConfig parses raw over the base configuration and validates the
// result. Failures are returned as *errors.ConfigError.
func (l *Loader) LoadConfig(raw []byte) (entities.Config, error) {
	cfg, err := l.config.parser.Parse(raw, l.config.base)
	if err != nil {
		return l.config.base, &domainerrors.ConfigError{Err: fmt.Errorf("failed to parse config: %w", err)}
	}
	if err := cfg.Validate(); err != nil {
		return l.config.base, configError(err)
	}
	return cfg, nil
}

// LoadConfigFile reads and loads the config file at path.
func (l *Loader) LoadConfigFile(path string) (entities.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return l.config.base, &domainerrors.ConfigError{Err: err}
	}
	return l.LoadConfig(raw)
}

// configError wraps a validation failure, naming the first offending field.
func configError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &domainerrors.ConfigError{Field: verrs[0].Field(), Err: err}
	}
	return &domainerrors.ConfigError{Err: err}
}
