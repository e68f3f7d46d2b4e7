package blueprint

import "github.com/unreal-mcp/ucmd/pkg/command"

// CompileBlueprint compiles a Blueprint.
type CompileBlueprint struct {
	BlueprintName string `json:"blueprint_name"`
}

func (CompileBlueprint) VariantName() string { return "CompileBlueprint" }

func (CompileBlueprint) WireType() command.Type { return TypeCompileBlueprint }

func (c CompileBlueprint) Check(r *command.Report) {
	r.Require("blueprint_name", c.BlueprintName)
}

func (c CompileBlueprint) EncodeParams(p *command.Params) error {
	return p.Set("blueprint_name", c.BlueprintName)
}

func (c CompileBlueprint) CloneVariant() command.Variant { return c }
