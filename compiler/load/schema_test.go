package load

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/gqlbind/schema"
)

func userTypeNames(s *schema.Schema) []string {
	var names []string
	for _, t := range s.Types {
		if !t.BuiltIn {
			names = append(names, t.Name)
		}
	}
	return names
}

func TestFiles(t *testing.T) {
	t.Run("loads types in declaration order", func(t *testing.T) {
		s, err := Files("testdata/games.graphql")
		require.NoError(t, err)
		require.NotNil(t, s.AST)
		assert.Equal(t, []string{"testdata/games.graphql"}, s.Files)
		assert.Equal(t,
			[]string{"Status", "Game", "Session", "GameInput", "Query", "Mutation"},
			userTypeNames(s.Model),
		)
	})

	t.Run("converts fields, arguments and wrappers", func(t *testing.T) {
		s, err := Files("testdata/games.graphql")
		require.NoError(t, err)

		game := s.Model.Type("Game")
		require.NotNil(t, game)
		assert.Equal(t, schema.KindObject, game.Kind)
		require.Len(t, game.Fields, 4)
		assert.Equal(t, "ID!", game.Field("id").Type.String())
		assert.Equal(t, "Status", game.Field("status").Type.String())

		sessions := game.Field("sessions")
		assert.Equal(t, "[Session!]!", sessions.Type.String())
		require.Len(t, sessions.Args, 1)
		assert.Equal(t, "first", sessions.Args[0].Name)
		assert.Equal(t, "Int", sessions.Args[0].Type.String())

		status := s.Model.Type("Status")
		assert.Equal(t, schema.KindEnum, status.Kind)
		assert.Equal(t, []string{"ACTIVE", "DONE"}, status.Values)

		input := s.Model.Type("GameInput")
		assert.Equal(t, schema.KindInputObject, input.Kind)
		assert.Equal(t, "[String!]", input.Field("tags").Type.String())
	})

	t.Run("resolves roots", func(t *testing.T) {
		s, err := Files("testdata/games.graphql")
		require.NoError(t, err)
		assert.Equal(t, "Query", s.Model.Query.Name)
		assert.Equal(t, "Mutation", s.Model.Mutation.Name)
		assert.Nil(t, s.Model.Subscription)
	})

	t.Run("merges several files", func(t *testing.T) {
		s, err := Files("testdata/games.graphql", "testdata/extra.graphql")
		require.NoError(t, err)
		assert.NotNil(t, s.Model.Query.Field("version"))
		assert.Equal(t, "Build", userTypeNames(s.Model)[len(userTypeNames(s.Model))-1])
	})

	t.Run("built-in scalars come last", func(t *testing.T) {
		s, err := Files("testdata/games.graphql")
		require.NoError(t, err)
		last := s.Model.Types[len(s.Model.Types)-1]
		assert.True(t, last.BuiltIn)
		assert.True(t, s.Model.Type("String").BuiltIn)
	})

	t.Run("fails on undefined types", func(t *testing.T) {
		_, err := Files("testdata/broken.graphql")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Player")
	})

	t.Run("fails without matches", func(t *testing.T) {
		_, err := Files(filepath.Join(t.TempDir(), "*.graphql"))
		require.Error(t, err)
	})
}

func TestFromAST(t *testing.T) {
	doc := gqlparser.MustLoadSchema(&ast.Source{Name: "inline.graphql", Input: `
		type Query { ping: String }
		enum Color { RED GREEN }
	`})

	s, err := FromAST(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Query", "Color"}, userTypeNames(s))
	assert.Equal(t, "Query", s.Query.Name)

	_, err = FromAST(nil)
	assert.Error(t, err)
}

func TestGlob(t *testing.T) {
	files, err := Glob("testdata/*.graphql", "testdata/games.graphql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"testdata/broken.graphql",
		"testdata/extra.graphql",
		"testdata/games.graphql",
	}, files)

	_, err = Glob("[")
	assert.Error(t, err)

	t.Run("recursive", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"root.graphql", "a/one.graphql", "a/b/two.graphql", "a/notes.txt"} {
			path := filepath.Join(dir, name)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
			require.NoError(t, os.WriteFile(path, nil, 0o644))
		}
		files, err := Glob(filepath.Join(dir, "**", "*.graphql"))
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a", "b", "two.graphql"),
			filepath.Join(dir, "a", "one.graphql"),
			filepath.Join(dir, "root.graphql"),
		}, files)
	})
}
