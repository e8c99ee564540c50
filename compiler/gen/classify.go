package gen

import (
	"github.com/syssam/gqlbind/schema"
)

// FieldClass is the resolution strategy of an output field.
type FieldClass uint8

// Field classes.
const (
	// FieldSimple fields resolve to a scalar or enum and are materialized
	// on the model struct.
	FieldSimple FieldClass = iota
	// FieldComplex fields are computed on demand by the data source.
	FieldComplex
	// FieldExcluded fields are union or interface typed and not emitted.
	FieldExcluded
)

// String implements fmt.Stringer.
func (c FieldClass) String() string {
	switch c {
	case FieldSimple:
		return "simple"
	case FieldComplex:
		return "complex"
	case FieldExcluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// ClassifyField classifies an object field by its reduced type.
func ClassifyField(f *schema.Field) FieldClass {
	t := schema.Reduce(f.Type).Type
	switch {
	case t == nil:
		return FieldComplex
	case t.Kind.IsAbstract():
		return FieldExcluded
	case t.Kind.IsLeaf():
		return FieldSimple
	default:
		return FieldComplex
	}
}

// ObjectType is an output object with its fields partitioned by class.
// Every field of Type is in exactly one of the lists.
type ObjectType struct {
	Type     *schema.Type
	Simple   []*schema.Field
	Complex  []*schema.Field
	Excluded []*schema.Field
}

// RootType is the Query or Mutation root. All its fields are resolved by
// the data source, except excluded union and interface fields.
type RootType struct {
	Type     *schema.Type
	Fields   []*schema.Field
	Excluded []*schema.Field
}

// Classification partitions a schema into the groups the emitter handles.
// All lists keep declaration order.
type Classification struct {
	Enums    []*schema.Type
	Inputs   []*schema.Type
	Objects  []*ObjectType
	Query    *RootType
	Mutation *RootType
}

// Classify partitions s. Introspection types, the three root names in any
// case and the schema's actual root types are skipped; scalars, unions and
// interfaces produce no group of their own.
func Classify(s *schema.Schema) (*Classification, error) {
	c := &Classification{}
	for _, t := range s.Types {
		if schema.IsIntrospection(t.Name) || s.IsRoot(t) {
			continue
		}
		switch t.Kind {
		case schema.KindEnum:
			c.Enums = append(c.Enums, t)
		case schema.KindInputObject:
			if err := checkFields(t); err != nil {
				return nil, err
			}
			c.Inputs = append(c.Inputs, t)
		case schema.KindObject:
			if err := checkFields(t); err != nil {
				return nil, err
			}
			obj := &ObjectType{Type: t}
			for _, f := range t.Fields {
				switch ClassifyField(f) {
				case FieldSimple:
					obj.Simple = append(obj.Simple, f)
				case FieldComplex:
					obj.Complex = append(obj.Complex, f)
				default:
					obj.Excluded = append(obj.Excluded, f)
				}
			}
			c.Objects = append(c.Objects, obj)
		}
	}
	var err error
	if c.Query, err = classifyRoot(s.Query); err != nil {
		return nil, err
	}
	if c.Mutation, err = classifyRoot(s.Mutation); err != nil {
		return nil, err
	}
	return c, nil
}

func classifyRoot(t *schema.Type) (*RootType, error) {
	if t == nil {
		return nil, nil
	}
	if t.Kind != schema.KindObject {
		return nil, NewSchemaError(t.Name, "", "root type must be an object", nil)
	}
	if err := checkFields(t); err != nil {
		return nil, err
	}
	root := &RootType{Type: t}
	for _, f := range t.Fields {
		if ClassifyField(f) == FieldExcluded {
			root.Excluded = append(root.Excluded, f)
			continue
		}
		root.Fields = append(root.Fields, f)
	}
	return root, nil
}

// checkFields rejects fields whose reduced type is missing, which only
// happens for hand-built schemas.
func checkFields(t *schema.Type) error {
	for _, f := range t.Fields {
		if f.Type == nil || schema.Reduce(f.Type).Type == nil {
			return NewSchemaError(t.Name, f.Name, "field type cannot be classified", nil)
		}
		for _, a := range f.Args {
			if a.Type == nil || schema.Reduce(a.Type).Type == nil {
				return NewSchemaError(t.Name, f.Name, "argument "+a.Name+" type cannot be classified", nil)
			}
		}
	}
	return nil
}
