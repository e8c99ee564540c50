package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/gqlbind/compiler/gen"
)

const gameQueries = `
query GetGame($id: ID!) {
  getGame(id: $id) {
    ...GameFields
  }
}

mutation CreateGameMutation($input: GameInput!) {
  createGame(input: $input) {
    id
  }
}

fragment GameFields on Game {
  id
  name
  sessions {
    ...SessionFields
  }
}
`

const sessionFragment = `
fragment SessionFields on Session {
  duration
}
`

func TestParseOperations(t *testing.T) {
	s := mustLoad(t, gamesSDL)

	t.Run("operations across files", func(t *testing.T) {
		ops, err := ParseOperations(s.AST,
			&ast.Source{Name: "games.graphql", Input: gameQueries},
			&ast.Source{Name: "sessions.graphql", Input: sessionFragment},
		)
		require.NoError(t, err)
		require.Len(t, ops, 2)

		get := ops[0]
		assert.Equal(t, "GetGame", get.Name)
		assert.Equal(t, ast.Query, get.Kind)
		assert.Equal(t, []string{"id"}, get.Variables)
		assert.Equal(t, "GetGameQuery", get.GoName())
		assert.Contains(t, get.Document, "query GetGame")
		assert.Contains(t, get.Document, "fragment GameFields on Game")
		assert.Contains(t, get.Document, "fragment SessionFields on Session")

		create := ops[1]
		assert.Equal(t, ast.Mutation, create.Kind)
		assert.Equal(t, "CreateGameMutation", create.GoName())
		assert.NotContains(t, create.Document, "fragment")
	})

	t.Run("validation error", func(t *testing.T) {
		_, err := ParseOperations(s.AST, &ast.Source{Name: "bad.graphql", Input: "query Bad { unknown }"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown")
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := ParseOperations(s.AST, &ast.Source{Name: "broken.graphql", Input: "query {"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken.graphql")
	})

	t.Run("anonymous operation", func(t *testing.T) {
		_, err := ParseOperations(s.AST, &ast.Source{Name: "anon.graphql", Input: "{ getGame(id: \"1\") { id } }"})
		require.Error(t, err)
		assert.True(t, gen.IsSchemaError(err))
		assert.Contains(t, err.Error(), "anon.graphql")
	})
}

func TestOperationsFile(t *testing.T) {
	t.Run("identifier collision", func(t *testing.T) {
		_, err := OperationsFile("client", gen.DefaultHeader, []*Operation{
			{Name: "getGame", Kind: ast.Query},
			{Name: "GetGame", Kind: ast.Query},
		})
		require.Error(t, err)
		assert.True(t, gen.IsSchemaError(err))
	})
}

func TestDocuments(t *testing.T) {
	dir := t.TempDir()
	games := filepath.Join(dir, "games.graphql")
	sessions := filepath.Join(dir, "sessions.graphql")
	require.NoError(t, os.WriteFile(games, []byte(gameQueries), 0o644))
	require.NoError(t, os.WriteFile(sessions, []byte(sessionFragment), 0o644))

	out, err := Documents{}.Generate(context.Background(), &Request{
		Schema:    mustLoad(t, gamesSDL),
		Output:    filepath.Join(dir, "client", "operations.go"),
		Documents: []string{games, sessions},
	})
	require.NoError(t, err)
	require.Len(t, out.Files, 1)
	src := string(out.Files[0].Content)
	assert.Contains(t, src, "// Code generated by gqlbind, DO NOT EDIT.")
	assert.Contains(t, src, "package client")
	assert.Contains(t, src, "type Operation struct")
	assert.Contains(t, src, "var GetGameQuery = Operation{")
	assert.Contains(t, src, `Variables: []string{"id"}`)
	assert.Contains(t, src, `"CreateGameMutation": CreateGameMutation`)

	t.Run("missing document", func(t *testing.T) {
		_, err := Documents{}.Generate(context.Background(), &Request{
			Schema:    mustLoad(t, gamesSDL),
			Output:    filepath.Join(dir, "client", "operations.go"),
			Documents: []string{filepath.Join(dir, "missing.graphql")},
		})
		assert.Error(t, err)
	})
}
