package gen

import (
	"slices"

	"github.com/syssam/gqlbind/schema"
)

// Support is a group of support declarations prepended to the main file.
type Support uint8

// Support groups, in the order they are emitted.
const (
	SupportEnums Support = iota
	SupportInputs
	SupportComplexObjects
	SupportSimpleObjects
)

// String implements fmt.Stringer.
func (s Support) String() string {
	switch s {
	case SupportEnums:
		return "enums"
	case SupportInputs:
		return "inputs"
	case SupportComplexObjects:
		return "complex-objects"
	case SupportSimpleObjects:
		return "simple-objects"
	default:
		return "unknown"
	}
}

// supportImports lists the imports each support group pulls in.
var supportImports = map[Support][]string{
	SupportEnums:          {"fmt", "io", "strconv"},
	SupportInputs:         {"encoding/json"},
	SupportComplexObjects: {"context"},
}

// DataSourceField is a field resolved by the data source.
type DataSourceField struct {
	Owner *schema.Type
	Field *schema.Field
	// Root is set for Query and Mutation fields.
	Root bool
}

// MethodName is the data source method that resolves the field.
func (f DataSourceField) MethodName() string {
	return f.Owner.Name + "_" + f.Field.Name
}

// EmissionContext accumulates what one generation run emitted. It is
// created by Generate and read by the support assembly and the stub
// generator of the same run.
type EmissionContext struct {
	HasEnums          bool
	HasInputObjects   bool
	HasSimpleObjects  bool
	HasComplexObjects bool

	// Fields lists every data source field in emission order.
	Fields []DataSourceField
	// Objects lists the emitted output object names.
	Objects []string
}

// NewEmissionContext returns an empty context.
func NewEmissionContext() *EmissionContext {
	return &EmissionContext{}
}

func (c *EmissionContext) addField(f DataSourceField) {
	c.HasComplexObjects = true
	c.Fields = append(c.Fields, f)
}

// Supports returns the support groups implied by the flags.
func (c *EmissionContext) Supports() []Support {
	var s []Support
	if c.HasEnums {
		s = append(s, SupportEnums)
	}
	if c.HasInputObjects {
		s = append(s, SupportInputs)
	}
	if c.HasComplexObjects {
		s = append(s, SupportComplexObjects)
	}
	if c.HasSimpleObjects {
		s = append(s, SupportSimpleObjects)
	}
	return s
}

// Imports returns the sorted import paths of the support declarations.
// dataSourcePath is the import path of a qualified data source handle.
func (c *EmissionContext) Imports(dataSourcePath string) []string {
	var paths []string
	for _, s := range c.Supports() {
		paths = append(paths, supportImports[s]...)
	}
	if c.HasComplexObjects && dataSourcePath != "" {
		paths = append(paths, dataSourcePath)
	}
	slices.Sort(paths)
	return slices.Compact(paths)
}

// MethodNames returns the data source method names in emission order.
func (c *EmissionContext) MethodNames() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.MethodName()
	}
	return names
}
