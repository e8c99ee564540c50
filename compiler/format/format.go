// Package format runs source formatters on generated files and writes the
// results to disk.
package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/tools/imports"

	"github.com/syssam/gqlbind"
)

// DefaultTimeout bounds a single formatter run.
const DefaultTimeout = 30 * time.Second

// waitDelay bounds the wait for output pipes after the formatter was
// killed, in case it left children behind.
const waitDelay = 2 * time.Second

// Formatter formats the file at path in place.
type Formatter interface {
	Name() string
	Format(ctx context.Context, path string) error
}

// ErrTimeout is returned when a formatter does not finish in time. Unlike
// other formatter failures it aborts the run.
var ErrTimeout = errors.New("gqlbind: formatter timed out")

// Command runs an external formatter, e.g. "gofmt -w", with the file path
// appended to its arguments.
type Command struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

// Gofmt returns the default formatter, "gofmt -w".
func Gofmt() *Command {
	return &Command{Path: "gofmt", Args: []string{"-w"}, Timeout: DefaultTimeout}
}

// Name returns the command line without the file argument.
func (c *Command) Name() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Format runs the command on path and waits at most c.Timeout for it. A
// missing binary or a failing run is reported as a *gqlbind.FormatError.
func (c *Command) Format(ctx context.Context, path string) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string(nil), c.Args...), path)
	cmd := exec.CommandContext(ctx, c.Path, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = waitDelay
	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s on %s after %s", ErrTimeout, c.Name(), path, timeout)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err != nil {
		if msg := strings.TrimSpace(out.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return gqlbind.NewFormatError(c.Name(), path, err)
	}
	return nil
}

// Imports formats files in process with golang.org/x/tools/imports. It
// needs no external binary.
type Imports struct{}

// Name implements Formatter.
func (Imports) Name() string { return "goimports" }

// Format implements Formatter. Imports are only formatted, never resolved,
// so the result does not depend on the module environment.
func (Imports) Format(_ context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return gqlbind.NewFileError("read", path, err)
	}
	out, err := imports.Process(path, src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return gqlbind.NewFormatError("goimports", path, err)
	}
	if bytes.Equal(src, out) {
		return nil
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return gqlbind.NewFileError("write", path, err)
	}
	return nil
}

// New returns the formatter for a configured command. An empty command
// selects the in-process formatter.
func New(command string, args []string, timeout time.Duration) Formatter {
	if command == "" {
		return Imports{}
	}
	return &Command{Path: command, Args: args, Timeout: timeout}
}
