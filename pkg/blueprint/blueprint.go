// Package blueprint provides the Blueprint command variants: create a
// Blueprint class, add components, compile it, set properties and configure
// static mesh components.
//
//	cmd, warnings, err := command.Build(blueprint.NewCreateBlueprint("BP_Door"))
//	if err != nil {
//		return err
//	}
//	for _, w := range warnings {
//		slog.Warn("blueprint command", "warning", w.String())
//	}
//	payload, _ := cmd.JSON() // {"type":"create_blueprint","params":{...}}
package blueprint

import (
	"fmt"
	"math"

	"github.com/unreal-mcp/ucmd/pkg/command"
)

// Declared wire types.
const (
	TypeCreateBlueprint         command.Type = "create_blueprint"
	TypeAddComponentToBlueprint command.Type = "add_component_to_blueprint"
	TypeCompileBlueprint        command.Type = "compile_blueprint"
	TypeSetBlueprintProperty    command.Type = "set_blueprint_property"
	TypeSetStaticMeshProperties command.Type = "set_static_mesh_properties"
)

// DefaultParentClass is the parent used by NewCreateBlueprint.
const DefaultParentClass = "/Script/Engine.Actor"

// ScriptClassPrefix is the path prefix of native engine classes.
const ScriptClassPrefix = "/Script/"

// componentSuffixes are the class name endings the engine uses for types
// that can be attached to a Blueprint.
var componentSuffixes = []string{"Component", "Actor", "Object"}

// Vector is a coordinate-like triple used for location, rotation and scale.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec is shorthand for &Vector{x, y, z}.
func Vec(x, y, z float64) *Vector {
	return &Vector{X: x, Y: y, Z: z}
}

func (v *Vector) clone() *Vector {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// check fails field when any component is NaN or infinite.
func (v *Vector) check(r *command.Report, field string) {
	if v == nil {
		return
	}
	for i, f := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			r.Fail(field, command.CodeInvalidValue, command.ErrInvalidValue,
				"%s component must be finite, got %v", "xyz"[i:i+1], f)
			return
		}
	}
}

func (v *Vector) String() string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// setOptional writes value under key only when present is true.
func setOptional(p *command.Params, key string, value any, present bool) error {
	if !present {
		return nil
	}
	return p.Set(key, value)
}
