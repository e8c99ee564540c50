package format

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/syssam/gqlbind"
)

// Result describes one written file.
type Result struct {
	Path string
	// Formatted is set when the formatter ran successfully.
	Formatted bool
	// Wrote is false when the file already had the same content.
	Wrote bool
	// Warning holds the formatter failure when the content was written
	// unformatted.
	Warning error
}

// Writer writes generated files. Go files pass through the formatter on a
// temporary copy first.
type Writer struct {
	formatter Formatter
	logger    log.Logger
}

// NewWriter returns a writer. A nil formatter writes content as is and a
// nil logger discards log lines.
func NewWriter(f Formatter, logger log.Logger) *Writer {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Writer{formatter: f, logger: logger}
}

// Write formats content and stores it at path. Formatter failures are
// logged and the unformatted content is written; a formatter timeout and
// file system failures abort. Temporary files are removed on every path.
func (w *Writer) Write(ctx context.Context, path string, content []byte) (*Result, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, gqlbind.NewFileError("mkdir", dir, err)
	}
	res := &Result{Path: path}
	data := content
	if w.formatter != nil && filepath.Ext(path) == ".go" {
		formatted, err := w.format(ctx, dir, content)
		switch {
		case gqlbind.IsFormatError(err):
			level.Warn(w.logger).Log("msg", "formatter unavailable, writing unformatted output", "path", path, "formatter", w.formatter.Name(), "err", err)
			res.Warning = err
		case err != nil:
			return nil, err
		default:
			data, res.Formatted = formatted, true
		}
	}
	wrote, err := WriteFile(path, data)
	if err != nil {
		return nil, err
	}
	res.Wrote = wrote
	level.Debug(w.logger).Log("msg", "file written", "path", path, "bytes", len(data), "changed", wrote, "formatted", res.Formatted)
	return res, nil
}

// format runs the formatter on a temporary copy of content in dir and
// returns the formatted bytes.
func (w *Writer) format(ctx context.Context, dir string, content []byte) (_ []byte, err error) {
	tmp, err := os.CreateTemp(dir, ".gqlbind-*.go")
	if err != nil {
		return nil, gqlbind.NewFileError("create", dir, err)
	}
	name := tmp.Name()
	defer func() {
		if rerr := os.Remove(name); rerr != nil && !os.IsNotExist(rerr) && err == nil {
			err = gqlbind.NewFileError("remove", name, rerr)
		}
	}()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return nil, gqlbind.NewFileError("write", name, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, gqlbind.NewFileError("write", name, err)
	}
	if err := w.formatter.Format(ctx, name); err != nil {
		return nil, err
	}
	out, err := os.ReadFile(name)
	if err != nil {
		return nil, gqlbind.NewFileError("read", name, err)
	}
	return out, nil
}

// WriteFile atomically replaces path with data through a sibling temporary
// file. It reports false without touching the file when the content is
// unchanged.
func WriteFile(path string, data []byte) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, gqlbind.NewFileError("mkdir", filepath.Dir(path), err)
	}
	existing, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(existing, data):
		return false, nil
	case err != nil && !os.IsNotExist(err):
		return false, gqlbind.NewFileError("read", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return false, gqlbind.NewFileError("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return false, gqlbind.NewFileError("rename", path, err)
	}
	return true, nil
}
