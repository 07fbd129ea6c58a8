package datafile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/neurodesk/curly/pkg/curly"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema checks render data against a JSON Schema (draft 2020-12).
type Schema struct {
	path   string
	schema *jsonschema.Schema
}

// LoadSchema compiles a schema file. YAML schemas are accepted and converted
// to JSON first.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return CompileSchema(path, data)
}

// CompileSchema compiles a schema held in memory; name selects JSON or YAML
// by its extension.
func CompileSchema(name string, data []byte) (*Schema, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		v, err := ParseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		if data, err = json.Marshal(Plain(v)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	// references to other files or URLs are not followed
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("schema %s: external reference %s not allowed", name, url)
	}

	url := "schema://" + filepath.Base(name)
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	s, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	return &Schema{path: name, schema: s}, nil
}

// Validate reports the first schema violation in v, if any.
func (s *Schema) Validate(v curly.Value) error {
	if err := s.schema.Validate(Plain(v)); err != nil {
		return fmt.Errorf("data does not match %s: %w", s.path, err)
	}
	return nil
}

// ValidateSchema loads the schema at path and validates v against it.
func ValidateSchema(path string, v curly.Value) error {
	s, err := LoadSchema(path)
	if err != nil {
		return err
	}
	return s.Validate(v)
}
