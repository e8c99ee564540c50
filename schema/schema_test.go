package schema_test

import (
	"testing"

	"github.com/syssam/gqlbind/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce(t *testing.T) {
	game := &schema.Type{Name: "Game", Kind: schema.KindObject}

	tests := []struct {
		name string
		ref  schema.TypeRef
	}{
		{"named", schema.Named(game)},
		{"non-null", schema.NonNull(schema.Named(game))},
		{"list", schema.ListOf(schema.Named(game))},
		{"non-null list of non-null", schema.NonNull(schema.ListOf(schema.NonNull(schema.Named(game))))},
		{"nested lists", schema.ListOf(schema.ListOf(schema.NonNull(schema.Named(game))))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := schema.Reduce(tt.ref)
			assert.Same(t, game, got.Type)
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		for _, tt := range tests {
			once := schema.Reduce(tt.ref)
			assert.Equal(t, once, schema.Reduce(once), tt.name)
		}
	})
}

func TestTypeRefString(t *testing.T) {
	id := &schema.Type{Name: "ID", Kind: schema.KindScalar}

	assert.Equal(t, "ID", schema.Named(id).String())
	assert.Equal(t, "ID!", schema.NonNull(schema.Named(id)).String())
	assert.Equal(t, "[ID!]!", schema.NonNull(schema.ListOf(schema.NonNull(schema.Named(id)))).String())
	assert.Equal(t, "[[ID]]", schema.ListOf(schema.ListOf(schema.Named(id))).String())
}

func TestNonNullIsNotStacked(t *testing.T) {
	id := &schema.Type{Name: "ID", Kind: schema.KindScalar}
	ref := schema.NonNull(schema.NonNull(schema.Named(id)))

	nn, ok := ref.(schema.NonNullRef)
	require.True(t, ok)
	_, ok = nn.Of.(schema.NamedRef)
	assert.True(t, ok, "non-null must wrap the named type directly")
}

func TestSchemaAdd(t *testing.T) {
	t.Run("keeps declaration order", func(t *testing.T) {
		s := schema.New()
		require.NoError(t, s.Add(&schema.Type{Name: "B", Kind: schema.KindObject}))
		require.NoError(t, s.Add(&schema.Type{Name: "A", Kind: schema.KindEnum}))

		require.Len(t, s.Types, 2)
		assert.Equal(t, "B", s.Types[0].Name)
		assert.Equal(t, "A", s.Types[1].Name)
		assert.Equal(t, schema.KindEnum, s.Type("A").Kind)
		assert.Nil(t, s.Type("C"))
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		s := schema.New()
		require.NoError(t, s.Add(&schema.Type{Name: "A"}))
		assert.Error(t, s.Add(&schema.Type{Name: "A"}))
	})

	t.Run("rejects unnamed types", func(t *testing.T) {
		assert.Error(t, schema.New().Add(&schema.Type{}))
	})
}

func TestRoots(t *testing.T) {
	s := schema.New()
	root := &schema.Type{Name: "RootQuery", Kind: schema.KindObject}
	require.NoError(t, s.Add(root))
	s.Query = root

	assert.True(t, s.IsRoot(root))
	assert.True(t, s.IsRoot(&schema.Type{Name: "mutation"}))
	assert.True(t, s.IsRoot(&schema.Type{Name: "Subscription"}))
	assert.False(t, s.IsRoot(&schema.Type{Name: "Game"}))
	assert.False(t, s.IsRoot(nil))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "INPUT_OBJECT", schema.KindInputObject.String())
	assert.True(t, schema.KindEnum.IsLeaf())
	assert.True(t, schema.KindScalar.IsLeaf())
	assert.False(t, schema.KindObject.IsLeaf())
	assert.True(t, schema.KindUnion.IsAbstract())
	assert.True(t, schema.KindInterface.IsAbstract())
	assert.Equal(t, "Kind(42)", schema.Kind(42).String())
	assert.True(t, schema.IsIntrospection("__Type"))
	assert.False(t, schema.IsIntrospection("_Private"))
}
