package gen

import (
	"bytes"
	"path/filepath"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/gqlbind/schema"
)

// Artifact is the output of one generation run.
type Artifact struct {
	// Main is the model and resolver source.
	Main []byte
	// Stub is the data source stub source.
	Stub []byte
	// Context records what the run emitted.
	Context *EmissionContext
	// Classification is the schema partition the run worked from.
	Classification *Classification
}

// Generate classifies s and renders the main file and the data source stub.
// Nothing is rendered when the schema contains a construct that cannot be
// expressed in Go; the returned SchemaError names it.
//
// Example:
//
//	cfg, err := gen.NewConfig(gen.WithPackage("graph"))
//	if err != nil {
//	    return err
//	}
//	art, err := gen.Generate(s, cfg)
func Generate(s *schema.Schema, cfg *Config) (*Artifact, error) {
	if s == nil {
		return nil, NewConfigError("Schema", nil, "schema cannot be nil")
	}
	c, err := Classify(s)
	if err != nil {
		return nil, err
	}
	e, err := NewEmitter(cfg)
	if err != nil {
		return nil, err
	}
	mainFile, err := e.Emit(c)
	if err != nil {
		return nil, err
	}
	stubFile, err := GenerateStub(cfg, e.Context())
	if err != nil {
		return nil, err
	}
	main, err := render(mainFile, "main")
	if err != nil {
		return nil, err
	}
	stub, err := render(stubFile, StubFilename)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Main:           main,
		Stub:           stub,
		Context:        e.Context(),
		Classification: c,
	}, nil
}

// render renders f. jennifer formats the source with go/format, so invalid
// output surfaces here instead of in the user's build.
func render(f *jen.File, name string) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, NewGenerationError("render", name, "generated source is invalid", err)
	}
	return buf.Bytes(), nil
}

// StubPath returns the stub location for the given main output path.
func StubPath(main string) string {
	return filepath.Join(filepath.Dir(main), StubFilename)
}
