package blueprint

import (
	"strings"

	"github.com/unreal-mcp/ucmd/pkg/command"
)

// AddComponentToBlueprint adds a component to an existing Blueprint.
type AddComponentToBlueprint struct {
	BlueprintName string `json:"blueprint_name"`
	ComponentType string `json:"component_type"`
	// ComponentName is optional; the engine picks a name when it is empty.
	ComponentName string `json:"component_name,omitempty"`
}

func (AddComponentToBlueprint) VariantName() string { return "AddComponentToBlueprint" }

func (AddComponentToBlueprint) WireType() command.Type { return TypeAddComponentToBlueprint }

func (a AddComponentToBlueprint) Check(r *command.Report) {
	r.Require("blueprint_name", a.BlueprintName)
	if !r.Require("component_type", a.ComponentType) {
		return
	}
	for _, suffix := range componentSuffixes {
		if strings.HasSuffix(a.ComponentType, suffix) {
			return
		}
	}
	r.Warn("component_type", command.CodeUnusualValue,
		"%q may not be a valid component type (expected suffix %s)",
		a.ComponentType, strings.Join(componentSuffixes, ", "))
}

func (a AddComponentToBlueprint) EncodeParams(p *command.Params) error {
	if err := p.Set("blueprint_name", a.BlueprintName); err != nil {
		return err
	}
	if err := p.Set("component_type", a.ComponentType); err != nil {
		return err
	}
	return setOptional(p, "component_name", a.ComponentName, a.ComponentName != "")
}

func (a AddComponentToBlueprint) CloneVariant() command.Variant { return a }
