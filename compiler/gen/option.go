package gen

import (
	"go/token"
	"path"
	"runtime"

	"go.uber.org/zap"
)

// DefaultHeader is the first line of every generated file.
const DefaultHeader = "Code generated by dbmap. DO NOT EDIT."

// Config holds the code generation settings.
type Config struct {
	// Package is the import path of the package declaring the row types.
	// Generated files are part of this package.
	Package string
	// PackageName is the Go package name. Defaults to the last element
	// of Package.
	PackageName string
	// Target is the directory of Package on disk.
	Target string
	// Header is the comment at the top of each generated file.
	Header string
	// Workers bounds the number of files written in parallel.
	Workers int
	// Logger receives a debug entry per written file.
	Logger *zap.Logger
}

// Option configures code generation.
type Option func(*Config) error

// NewConfig returns a Config with defaults applied, then opts.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Header:  DefaultHeader,
		Workers: runtime.GOMAXPROCS(0),
		Logger:  zap.NewNop(),
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply applies opts in order and stops at the first error.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// validate checks that the required settings are present.
func (c *Config) validate() error {
	if c.Package == "" {
		return NewConfigError("Package", nil, "missing row type package in config")
	}
	if c.Target == "" {
		return NewConfigError("Target", nil, "missing target directory in config")
	}
	return nil
}

// name returns the Go package name of the generated files.
func (c *Config) name() string {
	if c.PackageName != "" {
		return c.PackageName
	}
	return path.Base(c.Package)
}

// WithPackage sets the import path of the row types package.
// For example: "github.com/org/project/shop".
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithPackageName overrides the package name derived from the import path.
func WithPackageName(name string) Option {
	return func(c *Config) error {
		if !token.IsIdentifier(name) {
			return NewConfigError("PackageName", name, "not a Go identifier")
		}
		c.PackageName = name
		return nil
	}
}

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithHeader sets the file header comment.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithWorkers sets the number of parallel writers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewConfigError("Workers", n, "must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}
