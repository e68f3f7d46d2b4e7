package blueprint

import (
	"strings"

	"github.com/unreal-mcp/ucmd/pkg/command"
)

// CreateBlueprint creates a new Blueprint class.
type CreateBlueprint struct {
	Name        string `json:"name"`
	ParentClass string `json:"parent_class"`
}

// NewCreateBlueprint returns a CreateBlueprint deriving from Actor.
func NewCreateBlueprint(name string) CreateBlueprint {
	return CreateBlueprint{Name: name, ParentClass: DefaultParentClass}
}

func (CreateBlueprint) VariantName() string { return "CreateBlueprint" }

func (CreateBlueprint) WireType() command.Type { return TypeCreateBlueprint }

func (c CreateBlueprint) Check(r *command.Report) {
	r.Require("name", c.Name)
	if !r.Require("parent_class", c.ParentClass) {
		return
	}
	if !strings.HasPrefix(c.ParentClass, ScriptClassPrefix) {
		r.Warn("parent_class", command.CodeUnusualValue,
			"%q may not be a valid engine class path (expected %s prefix)", c.ParentClass, ScriptClassPrefix)
	}
}

func (c CreateBlueprint) EncodeParams(p *command.Params) error {
	if err := p.Set("name", c.Name); err != nil {
		return err
	}
	return p.Set("parent_class", c.ParentClass)
}

func (c CreateBlueprint) CloneVariant() command.Variant { return c }
