// Package plugin defines the generator plugins and the registry that
// resolves them by name.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-kit/log"
	"gopkg.in/yaml.v3"

	"github.com/syssam/gqlbind"
	"github.com/syssam/gqlbind/compiler/load"
)

// Built-in plugin names.
const (
	NameResolvers     = "resolvers"
	NameIntrospection = "introspection"
	NameTypeDecl      = "typedecl"
	NameDocuments     = "documents"
)

// Plugin produces files for one configured output path.
type Plugin interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Output, error)
}

// Request is the input of a plugin run.
type Request struct {
	// Schema is the loaded schema.
	Schema *load.Schema
	// Output is the configured output path.
	Output string
	// Config is the plugin configuration of the output, if any.
	Config *yaml.Node
	// Documents are the resolved query document files (client mode).
	Documents []string
	// Logger is never nil once the request reaches a plugin.
	Logger log.Logger
}

// Decode decodes the output configuration into v. A missing configuration
// leaves v untouched.
func (r *Request) Decode(v any) error {
	if r.Config == nil || r.Config.Kind == 0 {
		return nil
	}
	if err := r.Config.Decode(v); err != nil {
		return fmt.Errorf("decode config for %s: %w", r.Output, err)
	}
	return nil
}

func (r *Request) logger() log.Logger {
	if r.Logger == nil {
		return log.NewNopLogger()
	}
	return r.Logger
}

// File is a generated file that still has to go through the write cycle.
type File struct {
	Path    string
	Content []byte
}

// Output is the result of a plugin run.
type Output struct {
	Files []File
	// Written lists files the plugin wrote itself.
	Written []string
}

// Factory creates a plugin instance.
type Factory func() Plugin

// Loader resolves plugins by name.
type Loader interface {
	// Load returns the plugin registered as name. An unknown name is
	// reported as a *gqlbind.PluginError.
	Load(name string) (Plugin, error)
}

// Registry is a Loader backed by a map of factories. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Default returns a registry holding the built-in plugins.
func Default() *Registry {
	r := NewRegistry()
	r.MustRegister(NameResolvers, func() Plugin { return Resolvers{} })
	r.MustRegister(NameIntrospection, func() Plugin { return Introspection{} })
	r.MustRegister(NameTypeDecl, func() Plugin { return TypeDecl{} })
	r.MustRegister(NameDocuments, func() Plugin { return Documents{} })
	return r
}

// Register adds a factory under name. Names are unique.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" {
		return errors.New("plugin: empty name")
	}
	if f == nil {
		return fmt.Errorf("plugin: nil factory for %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("plugin: %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Load implements Loader.
func (r *Registry) Load(name string) (Plugin, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, gqlbind.NewPluginError(name, "", nil)
	}
	return f(), nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve loads every named plugin for output. All failures are collected,
// so a configuration with several bad names reports each of them.
func Resolve(l Loader, output string, names []string) ([]Plugin, error) {
	if len(names) == 0 {
		return nil, gqlbind.NewPluginError("", output, errors.New("no plugins configured"))
	}
	var (
		plugins []Plugin
		errs    []error
	)
	for _, name := range names {
		p, err := l.Load(name)
		if err == nil {
			plugins = append(plugins, p)
			continue
		}
		var perr *gqlbind.PluginError
		if errors.As(err, &perr) {
			e := *perr
			e.Output = output
			errs = append(errs, &e)
		} else {
			errs = append(errs, gqlbind.NewPluginError(name, output, err))
		}
	}
	if err := gqlbind.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return plugins, nil
}
