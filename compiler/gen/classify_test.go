package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/gqlbind/compiler/load"
	"github.com/syssam/gqlbind/schema"
)

func mustSchema(t *testing.T, sdl string) *schema.Schema {
	t.Helper()
	s, err := load.Sources(&ast.Source{Name: "schema.graphql", Input: sdl})
	require.NoError(t, err)
	return s.Model
}

func fieldNames(fields []*schema.Field) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}

func typeNames(types []*schema.Type) []string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.Name)
	}
	return names
}

const classifySDL = `
enum Status { ACTIVE DONE }

input GameInput { name: String! }

union Result = Game | Session

interface Node { id: ID! }

type Game implements Node {
	id: ID!
	name: String!
	status: Status
	tags: [String!]!
	sessions: [Session!]!
	best: Session
	results: [Result!]!
	owner: Node
}

type Session { duration: Int! }

type query { ping: String }

type Query {
	getGame(id: ID!): Game
	version: String!
	search: [Result!]!
}

type Mutation { createGame(input: GameInput!): Game! }
`

func TestClassify(t *testing.T) {
	s := mustSchema(t, classifySDL)
	c, err := Classify(s)
	require.NoError(t, err)

	t.Run("groups in declaration order", func(t *testing.T) {
		assert.Equal(t, []string{"Status"}, typeNames(c.Enums))
		assert.Equal(t, []string{"GameInput"}, typeNames(c.Inputs))
		require.Len(t, c.Objects, 2)
		assert.Equal(t, "Game", c.Objects[0].Type.Name)
		assert.Equal(t, "Session", c.Objects[1].Type.Name)
	})

	t.Run("partitions object fields", func(t *testing.T) {
		game := c.Objects[0]
		assert.Equal(t, []string{"id", "name", "status", "tags"}, fieldNames(game.Simple))
		assert.Equal(t, []string{"sessions", "best"}, fieldNames(game.Complex))
		assert.Equal(t, []string{"results", "owner"}, fieldNames(game.Excluded))
	})

	t.Run("root fields are complex unless excluded", func(t *testing.T) {
		require.NotNil(t, c.Query)
		assert.Equal(t, []string{"getGame", "version"}, fieldNames(c.Query.Fields))
		assert.Equal(t, []string{"search"}, fieldNames(c.Query.Excluded))
		require.NotNil(t, c.Mutation)
		assert.Equal(t, []string{"createGame"}, fieldNames(c.Mutation.Fields))
	})

	t.Run("skips root names in any case", func(t *testing.T) {
		for _, obj := range c.Objects {
			assert.NotEqual(t, "query", obj.Type.Name)
		}
	})
}

func TestClassifyPartitionProperty(t *testing.T) {
	s := mustSchema(t, classifySDL)
	c, err := Classify(s)
	require.NoError(t, err)

	for _, obj := range c.Objects {
		seen := make(map[*schema.Field]int)
		for _, group := range [][]*schema.Field{obj.Simple, obj.Complex, obj.Excluded} {
			for _, f := range group {
				seen[f]++
			}
		}
		assert.Len(t, seen, len(obj.Type.Fields), obj.Type.Name)
		for f, n := range seen {
			assert.Equal(t, 1, n, "%s.%s classified %d times", obj.Type.Name, f.Name, n)
		}
	}
}

func TestClassifyField(t *testing.T) {
	tests := []struct {
		name string
		ref  schema.TypeRef
		want FieldClass
	}{
		{"scalar", nonNull(named(idType)), FieldSimple},
		{"list of enums", listOf(named(statusType)), FieldSimple},
		{"object", named(gameType), FieldComplex},
		{"nested list of objects", listOf(listOf(nonNull(named(gameType)))), FieldComplex},
		{"union", nonNull(named(resultType)), FieldExcluded},
		{"list of interfaces", nonNull(listOf(nonNull(named(nodeType)))), FieldExcluded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyField(&schema.Field{Name: "f", Type: tt.ref})
			assert.Equal(t, tt.want, got, got.String())
		})
	}
}

func TestClassifyErrors(t *testing.T) {
	t.Run("unclassifiable field", func(t *testing.T) {
		s := schema.New()
		require.NoError(t, s.Add(&schema.Type{
			Name:   "Game",
			Kind:   schema.KindObject,
			Fields: []*schema.Field{{Name: "owner", Type: schema.NamedRef{}}},
		}))
		_, err := Classify(s)
		require.Error(t, err)
		assert.True(t, IsSchemaError(err))
		assert.Contains(t, err.Error(), "Game")
		assert.Contains(t, err.Error(), "owner")
	})

	t.Run("root must be an object", func(t *testing.T) {
		s := schema.New()
		q := &schema.Type{Name: "Query", Kind: schema.KindInputObject}
		require.NoError(t, s.Add(q))
		s.Query = q
		_, err := Classify(s)
		require.Error(t, err)
		assert.True(t, IsSchemaError(err))
	})
}
