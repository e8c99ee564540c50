package schema

// TypeRef is a reference to a named type, possibly wrapped in non-null and
// list modifiers. It is implemented only by NonNullRef, ListRef and NamedRef.
type TypeRef interface {
	// String returns the reference in SDL notation, e.g. "[Game!]!".
	String() string
	typeRef()
}

// NonNullRef marks the wrapped reference as non-nullable.
type NonNullRef struct {
	Of TypeRef
}

// ListRef is a list of the wrapped reference.
type ListRef struct {
	Of TypeRef
}

// NamedRef references a named type directly.
type NamedRef struct {
	Type *Type
}

func (NonNullRef) typeRef() {}
func (ListRef) typeRef()    {}
func (NamedRef) typeRef()   {}

// String implements TypeRef.
func (r NonNullRef) String() string { return r.Of.String() + "!" }

// String implements TypeRef.
func (r ListRef) String() string { return "[" + r.Of.String() + "]" }

// String implements TypeRef.
func (r NamedRef) String() string {
	if r.Type == nil {
		return "<nil>"
	}
	return r.Type.Name
}

// NonNull wraps of in a non-null modifier. Wrapping a non-null reference
// again returns it unchanged.
func NonNull(of TypeRef) TypeRef {
	if nn, ok := of.(NonNullRef); ok {
		return nn
	}
	return NonNullRef{Of: of}
}

// ListOf wraps of in a list modifier.
func ListOf(of TypeRef) TypeRef {
	return ListRef{Of: of}
}

// Named references t.
func Named(t *Type) TypeRef {
	return NamedRef{Type: t}
}

// Reduce strips non-null and list modifiers until the innermost named type
// remains. List nesting depth is discarded: [[T!]]! reduces to T.
func Reduce(ref TypeRef) NamedRef {
	for {
		switch r := ref.(type) {
		case NonNullRef:
			ref = r.Of
		case ListRef:
			ref = r.Of
		case NamedRef:
			return r
		default:
			return NamedRef{}
		}
	}
}
