package entities

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config represents host settings.
// These settings apply to every invocation run by an executor.
type Config struct {
	// Capacity is the size in bytes of the input and output buffers.
	Capacity int `yaml:"capacity" json:"capacity" validate:"min=1,max=1048576" jsonschema:"minimum=1,maximum=1048576,default=512"`

	// Timeout bounds a single invocation. Zero disables the limit.
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gte=0"`

	// MemoryLimitPages caps guest linear memory, in 64 KiB pages.
	MemoryLimitPages uint32 `yaml:"memory_limit_pages" json:"memory_limit_pages" validate:"min=1,max=65536" jsonschema:"minimum=1,maximum=65536,default=16"`

	// HostModule is the import module name guests use for input and output.
	HostModule string `yaml:"host_module" json:"host_module" validate:"required,printascii" jsonschema:"default=wotto"`

	// Concurrency is how many invocations may run at once.
	Concurrency int64 `yaml:"concurrency" json:"concurrency" validate:"min=1" jsonschema:"minimum=1,default=1"`

	// LogLevel is the logging verbosity level.
	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`

	// SanitizeOutput replaces invalid UTF-8 in captured output with U+FFFD.
	SanitizeOutput bool `yaml:"sanitize_output" json:"sanitize_output"`

	// AssemblyScript exposes the print and env.abort imports that
	// AssemblyScript guests expect.
	AssemblyScript bool `yaml:"assemblyscript" json:"assemblyscript"`

	// AllowFaultInjection registers the fault-injection entry points.
	// Only meant for conformance testing of trap containment.
	AllowFaultInjection bool `yaml:"allow_fault_injection" json:"allow_fault_injection"`

	// AllowedOrigins lists the scheme://host[:port] origins modules may be
	// loaded from by URL. Empty disables loading by URL.
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins,omitempty" validate:"dive,url"`

	// MaxModuleSize caps the bytes fetched for a module loaded by URL.
	MaxModuleSize int64 `yaml:"max_module_size" json:"max_module_size" validate:"min=8" jsonschema:"minimum=8,default=4194304"`
}

// DefaultConfig returns the reference host configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:         512,
		Timeout:          5 * time.Second,
		MemoryLimitPages: 16,
		HostModule:       "wotto",
		Concurrency:      1,
		LogLevel:         "info",
		MaxModuleSize:    4 << 20,
	}
}

// ConfigOption is a functional option for configuring host settings.
// Options set values as given; Validate reports the ones out of range.
type ConfigOption func(*Config)

// WithCapacity sets the exchange buffer capacity.
func WithCapacity(n int) ConfigOption {
	return func(c *Config) {
		c.Capacity = n
	}
}

// WithTimeout sets the per-invocation timeout.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithMemoryLimitPages sets the guest memory limit.
func WithMemoryLimitPages(pages uint32) ConfigOption {
	return func(c *Config) {
		c.MemoryLimitPages = pages
	}
}

// WithHostModule sets the import module name exposed to guests.
func WithHostModule(name string) ConfigOption {
	return func(c *Config) {
		c.HostModule = name
	}
}

// WithConcurrency sets how many invocations may run at once.
func WithConcurrency(n int64) ConfigOption {
	return func(c *Config) {
		c.Concurrency = n
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level string) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// WithSanitizeOutput enables or disables output sanitization.
func WithSanitizeOutput(enabled bool) ConfigOption {
	return func(c *Config) {
		c.SanitizeOutput = enabled
	}
}

// WithAssemblyScript enables or disables the AssemblyScript imports.
func WithAssemblyScript(enabled bool) ConfigOption {
	return func(c *Config) {
		c.AssemblyScript = enabled
	}
}

// WithFaultInjection enables or disables the fault-injection entry points.
func WithFaultInjection(enabled bool) ConfigOption {
	return func(c *Config) {
		c.AllowFaultInjection = enabled
	}
}

// WithAllowedOrigins sets the origins modules may be loaded from by URL.
func WithAllowedOrigins(origins ...string) ConfigOption {
	return func(c *Config) {
		c.AllowedOrigins = append([]string(nil), origins...)
	}
}

// WithMaxModuleSize sets the size limit of modules loaded by URL.
func WithMaxModuleSize(n int64) ConfigOption {
	return func(c *Config) {
		c.MaxModuleSize = n
	}
}

// NewConfig returns DefaultConfig with opts applied.
func NewConfig(opts ...ConfigOption) Config {
	return DefaultConfig().With(opts...)
}

// With returns a copy of c with opts applied.
func (c Config) With(opts ...ConfigOption) Config {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// validate is a package-level singleton; building a validator is expensive.
// Field errors carry the yaml key rather than the Go field name.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}()

// Validate checks the configuration against its field constraints. The
// returned error wraps validator.ValidationErrors.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
