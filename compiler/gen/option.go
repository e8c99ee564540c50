package gen

import (
	"errors"
	"go/token"
	"maps"
	"slices"
	"strings"
)

// DefaultPackage is the package name of the generated files when none is
// configured.
const DefaultPackage = "graph"

// DefaultDataSource is the local type that backs every complex field. The
// stub file declares it.
const DefaultDataSource = "DataSource"

// DefaultHeader is written at the top of the main generated file.
const DefaultHeader = "Code generated by gqlbind, DO NOT EDIT."

// Config holds the generator configuration.
type Config struct {
	// Package is the Go package name of the generated files.
	Package string
	// DataSource names the type that implements the resolver methods,
	// either a local identifier ("DataSource") or a qualified one
	// ("github.com/org/app/backend.Handle").
	DataSource string
	// Scalars maps custom GraphQL scalars to qualified Go types, e.g.
	// "Time" to "time.Time". The built-in scalars cannot be remapped.
	Scalars map[string]string
	// Header is the comment written above the package clause of the main
	// file.
	Header string
}

// Option configures code generation.
type Option func(*Config) error

// WithPackage sets the package name of the generated files.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		if !token.IsIdentifier(pkg) {
			return NewConfigError("Package", pkg, "package must be a Go identifier")
		}
		c.Package = pkg
		return nil
	}
}

// WithDataSource sets the type that implements the resolver methods.
// For example: "DataSource" or "github.com/org/app/backend.Handle".
func WithDataSource(name string) Option {
	return func(c *Config) error {
		if _, _, err := parseQualified(name); err != nil {
			return NewConfigError("DataSource", name, err.Error())
		}
		c.DataSource = name
		return nil
	}
}

// WithScalar maps a custom scalar to a qualified Go type.
func WithScalar(scalar, goType string) Option {
	return func(c *Config) error {
		if scalar == "" {
			return NewConfigError("Scalars", nil, "scalar name cannot be empty")
		}
		if _, ok := builtinScalars[scalar]; ok {
			return NewConfigError("Scalars", scalar, "built-in scalars have a fixed mapping")
		}
		if _, _, err := parseQualified(goType); err != nil {
			return NewConfigError("Scalars", scalar, err.Error())
		}
		if c.Scalars == nil {
			c.Scalars = make(map[string]string)
		}
		c.Scalars[scalar] = goType
		return nil
	}
}

// WithScalars maps several custom scalars at once.
func WithScalars(scalars map[string]string) Option {
	return func(c *Config) error {
		for _, name := range slices.Sorted(maps.Keys(scalars)) {
			if err := WithScalar(name, scalars[name])(c); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithHeader sets the file header comment.
// The header is added at the top of the main generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	cc := *c
	cc.Scalars = maps.Clone(c.Scalars)
	return &cc
}

// NewConfig creates a new Config with defaults and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Package:    DefaultPackage,
		DataSource: DefaultDataSource,
		Header:     DefaultHeader,
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// parseQualified splits "path/to/pkg.Name" into its import path and
// identifier. Unqualified names return an empty path.
func parseQualified(s string) (path, name string, err error) {
	if s == "" {
		return "", "", errors.New("type name cannot be empty")
	}
	i := strings.LastIndex(s, ".")
	if i < 0 {
		name = s
	} else {
		path, name = s[:i], s[i+1:]
		if path == "" || strings.HasSuffix(path, "/") {
			return "", "", errors.New("missing import path in " + s)
		}
	}
	if !token.IsIdentifier(name) {
		return "", "", errors.New(name + " is not a Go identifier")
	}
	return path, name, nil
}
