// Package pipeline loads the project configuration, runs the configured
// plugins and writes their output.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/syssam/gqlbind/compiler/format"
	"github.com/syssam/gqlbind/compiler/plugin"
)

// DefaultConfigFile is the configuration file looked up by the CLI.
const DefaultConfigFile = "gqlbind.yml"

// BuiltinFormatter selects the in-process formatter instead of a command.
const BuiltinFormatter = "builtin"

// Config is the project configuration.
type Config struct {
	// Schema lists SDL file patterns.
	Schema StringList `yaml:"schema,omitempty"`
	// Documents lists query document patterns used in client mode.
	Documents StringList `yaml:"documents,omitempty"`
	// Formatter configures the formatter run on generated Go files.
	Formatter FormatterConfig `yaml:"formatter,omitempty"`
	// Server holds the outputs generated in server mode.
	Server Target `yaml:"server,omitempty"`
	// Client holds the outputs generated in client mode.
	Client Target `yaml:"client,omitempty"`

	// dir is the directory relative paths are resolved against.
	dir string
}

// FormatterConfig configures the formatter command.
type FormatterConfig struct {
	// Command defaults to gofmt. BuiltinFormatter formats in process.
	Command string        `yaml:"command,omitempty"`
	Args    []string      `yaml:"args,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Target maps output paths to the plugins generating them.
type Target struct {
	Generates map[string]Output `yaml:"generates,omitempty"`
}

// Output configures one output path.
type Output struct {
	Plugins StringList `yaml:"plugins"`
	// Config is decoded by each plugin of the output.
	Config yaml.Node `yaml:"config,omitempty"`
}

// StringList is a YAML type that can be either a string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler for StringList.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("expected string or list, got %v", node.Kind)
	}
}

// MarshalYAML implements yaml.Marshaler for StringList.
func (s StringList) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	return []string(s), nil
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	cfg := &Config{dir: "."}
	cfg.setDefaults()
	return cfg
}

// LoadConfig loads the configuration at path. A missing file yields the
// default configuration relative to the file's directory.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{dir: filepath.Dir(path)}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if len(c.Schema) == 0 {
		c.Schema = StringList{"schema.graphql"}
	}
	if len(c.Server.Generates) == 0 {
		c.Server.Generates = map[string]Output{
			"graph/generated.go":        {Plugins: StringList{plugin.NameResolvers}},
			"graph/model/models_gen.go": {Plugins: StringList{plugin.NameTypeDecl}},
			"graphql-schema.json":       {Plugins: StringList{plugin.NameIntrospection}},
		}
	}
	if len(c.Client.Generates) == 0 {
		c.Client.Generates = map[string]Output{
			"client/operations.go": {Plugins: StringList{plugin.NameDocuments}},
		}
	}
	if c.Formatter.Command == "" {
		gofmt := format.Gofmt()
		c.Formatter.Command, c.Formatter.Args = gofmt.Path, gofmt.Args
	}
	if c.Formatter.Timeout <= 0 {
		c.Formatter.Timeout = format.DefaultTimeout
	}
}

func (c *Config) validate() error {
	for _, t := range []Target{c.Server, c.Client} {
		for path, out := range t.Generates {
			if strings.TrimSpace(path) == "" {
				return fmt.Errorf("empty output path")
			}
			if len(out.Plugins) == 0 {
				return fmt.Errorf("output %s lists no plugins", path)
			}
		}
	}
	return nil
}

// Target returns the outputs generated in mode.
func (c *Config) Target(mode Mode) Target {
	if mode == ModeClient {
		return c.Client
	}
	return c.Server
}

// Outputs returns the output paths of t in sorted order.
func (t Target) Outputs() []string {
	paths := make([]string, 0, len(t.Generates))
	for p := range t.Generates {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Path resolves p against the configuration directory.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Paths resolves every entry of list against the configuration directory.
func (c *Config) Paths(list []string) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, c.Path(p))
	}
	return out
}

// NewFormatter returns the configured formatter.
func (c *Config) NewFormatter() format.Formatter {
	if c.Formatter.Command == BuiltinFormatter {
		return format.New("", nil, 0)
	}
	return format.New(c.Formatter.Command, c.Formatter.Args, c.Formatter.Timeout)
}
