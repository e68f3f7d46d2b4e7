// Package schema checks command parameters against the JSON Schemas
// embedded for each declared wire type.
package schema

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/unreal-mcp/ucmd/pkg/command"
)

//go:embed schemas/*.schema.json
var files embed.FS

const schemaSuffix = ".schema.json"

// ErrNoSchema is returned for wire types without an embedded schema.
var ErrNoSchema = errors.New("no schema for command type")

// Validator holds one compiled schema per wire type.
type Validator struct {
	schemas map[command.Type]*jsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	entries, err := fs.ReadDir(files, "schemas")
	if err != nil {
		return nil, fmt.Errorf("schema: read embedded schemas: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	v := &Validator{schemas: make(map[command.Type]*jsonschema.Schema, len(entries))}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, schemaSuffix) {
			continue
		}
		data, err := files.ReadFile(path.Join("schemas", name))
		if err != nil {
			return nil, fmt.Errorf("schema: read %s: %w", name, err)
		}
		t := command.Type(strings.TrimSuffix(name, schemaSuffix))
		url := fmt.Sprintf("https://ucmd.schemas.local/commands/%s%s", t, schemaSuffix)
		if err := c.AddResource(url, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("schema: load %s: %w", t, err)
		}
		compiled, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("schema: compile %s: %w", t, err)
		}
		v.schemas[t] = compiled
	}
	return v, nil
}

// Has reports whether t has a schema.
func (v *Validator) Has(t command.Type) bool {
	_, ok := v.schemas[t]
	return ok
}

// Validate checks params against the schema of t.
func (v *Validator) Validate(t command.Type, params map[string]any) error {
	s, ok := v.schemas[t]
	if !ok {
		return fmt.Errorf("%w %q", ErrNoSchema, t)
	}
	if params == nil {
		params = map[string]any{}
	}
	if err := s.Validate(params); err != nil {
		return fmt.Errorf("%s: schema validation failed: %w", t, err)
	}
	return nil
}

// ValidatePayload checks a decoded wire payload.
func (v *Validator) ValidatePayload(p *command.Payload) error {
	return v.Validate(p.Type, p.Params.Map())
}

// ValidateCommand checks the parameters of a built command.
func (v *Validator) ValidateCommand(c *command.Command) error {
	p := c.Payload()
	return v.ValidatePayload(&p)
}
