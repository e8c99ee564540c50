package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/gqlbind/compiler/pipeline"
)

func execute(ctx context.Context, stderr io.Writer, args ...string) error {
	cmd := rootCommand()
	cmd.SetArgs(args)
	cmd.SetErr(stderr)
	cmd.SetOut(io.Discard)
	return cmd.ExecuteContext(ctx)
}

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.graphql"), []byte(`
type Game {
  id: ID!
  title: String!
}

type Query {
  games: [Game!]!
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, pipeline.DefaultConfigFile), []byte(`
formatter:
  command: builtin
server:
  generates:
    api/generated.go:
      plugins: resolvers
`), 0o644))
	return dir
}

func TestGenerate(t *testing.T) {
	dir := writeProject(t)
	var stderr bytes.Buffer
	err := execute(context.Background(), &stderr,
		"generate",
		"--config", filepath.Join(dir, pipeline.DefaultConfigFile),
		"--mode", "server",
		"--log.level", "debug",
	)
	require.NoError(t, err)

	src, err := os.ReadFile(filepath.Join(dir, "api", "generated.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package api")
	_, err = os.Stat(filepath.Join(dir, "api", "datasource_impl.go"))
	assert.NoError(t, err)

	assert.Contains(t, stderr.String(), "level=info")
	assert.Contains(t, stderr.String(), "level=debug")
	assert.Contains(t, stderr.String(), "run_id=")
}

func TestGenerateErrors(t *testing.T) {
	t.Run("bad log level", func(t *testing.T) {
		err := execute(context.Background(), io.Discard, "generate", "--log.level", "verbose")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--log.level")
	})

	t.Run("missing schema", func(t *testing.T) {
		dir := t.TempDir()
		err := execute(context.Background(), io.Discard, "generate", "--config", filepath.Join(dir, pipeline.DefaultConfigFile), "--mode", "server")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no schema files")
	})

	t.Run("unexpected argument", func(t *testing.T) {
		assert.Error(t, execute(context.Background(), io.Discard, "generate", "extra"))
	})
}

func TestLogLevelFilter(t *testing.T) {
	dir := writeProject(t)
	var stderr bytes.Buffer
	err := execute(context.Background(), &stderr,
		"generate",
		"--config", filepath.Join(dir, pipeline.DefaultConfigFile),
		"--mode", "server",
		"--log.level", "warn",
	)
	require.NoError(t, err)
	assert.Empty(t, stderr.String())
}
