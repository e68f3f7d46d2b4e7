package blueprint

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/unreal-mcp/ucmd/pkg/command"
)

// ErrUnknownType is returned by Decode for wire types without a variant.
var ErrUnknownType = errors.New("unknown command type")

// Kind describes one declared variant.
type Kind struct {
	Name string
	Type command.Type
	// Required lists the parameters that must be non-blank.
	Required []string
	// Optional lists the parameters sent only when provided.
	Optional []string

	decode func(*command.Params) (command.Variant, error)
}

var kinds = []Kind{
	{
		Name:     "CreateBlueprint",
		Type:     TypeCreateBlueprint,
		Required: []string{"name", "parent_class"},
		decode:   decodeInto[CreateBlueprint],
	},
	{
		Name:     "AddComponentToBlueprint",
		Type:     TypeAddComponentToBlueprint,
		Required: []string{"blueprint_name", "component_type"},
		Optional: []string{"component_name"},
		decode:   decodeInto[AddComponentToBlueprint],
	},
	{
		Name:     "CompileBlueprint",
		Type:     TypeCompileBlueprint,
		Required: []string{"blueprint_name"},
		decode:   decodeInto[CompileBlueprint],
	},
	{
		Name:     "SetBlueprintProperty",
		Type:     TypeSetBlueprintProperty,
		Required: []string{"blueprint_name", "property_name"},
		Optional: []string{"property_value", "property_type"},
		decode:   decodeProperty,
	},
	{
		Name:     "SetStaticMeshProperties",
		Type:     TypeSetStaticMeshProperties,
		Required: []string{"blueprint_name", "component_name", "mesh_path"},
		Optional: []string{"location", "rotation", "scale"},
		decode:   decodeStaticMesh,
	},
}

// Kinds returns every declared variant in declaration order.
func Kinds() []Kind {
	return slices.Clone(kinds)
}

// Lookup returns the kind declared for t.
func Lookup(t command.Type) (Kind, bool) {
	for _, k := range kinds {
		if k.Type == t {
			return k, true
		}
	}
	return Kind{}, false
}

// Decode turns a wire payload back into its typed variant. Parameters the
// variant does not declare are rejected. The result still has to go through
// command.Build.
func Decode(p *command.Payload) (command.Variant, error) {
	if p == nil {
		return nil, fmt.Errorf("decode: nil payload")
	}
	k, ok := Lookup(p.Type)
	if !ok {
		return nil, fmt.Errorf("decode %q: %w", p.Type, ErrUnknownType)
	}
	params := p.Params
	if params == nil {
		params = command.NewParams()
	}
	v, err := k.decode(params)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", k.Name, err)
	}
	return v, nil
}

func decodeInto[T command.Variant](p *command.Params) (command.Variant, error) {
	var v T
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeProperty(p *command.Params) (command.Variant, error) {
	v, err := decodeInto[SetBlueprintProperty](p)
	if err != nil {
		return nil, err
	}
	s := v.(SetBlueprintProperty)
	if value, ok := p.Get("property_value"); ok {
		s = s.WithValue(value)
	}
	return s, nil
}

// decodeStaticMesh rejects vectors that do not carry all three axes, which
// would otherwise decode as zero.
func decodeStaticMesh(p *command.Params) (command.Variant, error) {
	r := &command.Report{}
	for _, field := range []string{"location", "rotation", "scale"} {
		value, ok := p.Get(field)
		if !ok || value == nil {
			continue
		}
		m, ok := value.(map[string]any)
		if !ok {
			r.Fail(field, command.CodeInvalidValue, command.ErrInvalidValue, "must be a mapping with x, y and z")
			continue
		}
		for _, axis := range []string{"x", "y", "z"} {
			if v, ok := m[axis]; !ok || v == nil {
				r.Fail(field, command.CodeInvalidValue, command.ErrInvalidValue, "missing %s component", axis)
			}
		}
	}
	if err := r.Err("SetStaticMeshProperties"); err != nil {
		return nil, err
	}
	return decodeInto[SetStaticMeshProperties](p)
}
