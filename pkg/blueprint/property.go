package blueprint

import "github.com/unreal-mcp/ucmd/pkg/command"

// SetBlueprintProperty sets a property on a Blueprint's class defaults.
//
// A non-nil PropertyValue is always sent. HasValue is only needed to send an
// explicit null; WithValue sets both.
type SetBlueprintProperty struct {
	BlueprintName string `json:"blueprint_name"`
	PropertyName  string `json:"property_name"`
	PropertyValue any    `json:"property_value,omitempty"`
	HasValue      bool   `json:"-"`
	// PropertyType is an optional type hint such as "float" or "bool".
	PropertyType string `json:"property_type,omitempty"`
}

// WithValue returns a copy of s carrying v as the property value.
func (s SetBlueprintProperty) WithValue(v any) SetBlueprintProperty {
	s.PropertyValue = v
	s.HasValue = true
	return s
}

func (SetBlueprintProperty) VariantName() string { return "SetBlueprintProperty" }

func (SetBlueprintProperty) WireType() command.Type { return TypeSetBlueprintProperty }

func (s SetBlueprintProperty) Check(r *command.Report) {
	r.Require("blueprint_name", s.BlueprintName)
	r.Require("property_name", s.PropertyName)
}

func (s SetBlueprintProperty) EncodeParams(p *command.Params) error {
	if err := p.Set("blueprint_name", s.BlueprintName); err != nil {
		return err
	}
	if err := p.Set("property_name", s.PropertyName); err != nil {
		return err
	}
	if err := setOptional(p, "property_value", s.PropertyValue, s.HasValue || s.PropertyValue != nil); err != nil {
		return err
	}
	return setOptional(p, "property_type", s.PropertyType, s.PropertyType != "")
}

// CloneVariant deep copies PropertyValue through its JSON form. A value that
// cannot be encoded is kept as is; Build rejects it anyway.
func (s SetBlueprintProperty) CloneVariant() command.Variant {
	if v, err := command.Normalize(s.PropertyValue); err == nil {
		s.PropertyValue = v
	}
	return s
}
