package blueprint

import "github.com/unreal-mcp/ucmd/pkg/command"

// SetStaticMeshProperties configures a StaticMeshComponent of a Blueprint.
// Location, Rotation and Scale are optional and only sent when non-nil.
type SetStaticMeshProperties struct {
	BlueprintName string  `json:"blueprint_name"`
	ComponentName string  `json:"component_name"`
	MeshPath      string  `json:"mesh_path"`
	Location      *Vector `json:"location,omitempty"`
	Rotation      *Vector `json:"rotation,omitempty"`
	Scale         *Vector `json:"scale,omitempty"`
}

func (SetStaticMeshProperties) VariantName() string { return "SetStaticMeshProperties" }

func (SetStaticMeshProperties) WireType() command.Type { return TypeSetStaticMeshProperties }

func (s SetStaticMeshProperties) Check(r *command.Report) {
	r.Require("blueprint_name", s.BlueprintName)
	r.Require("component_name", s.ComponentName)
	r.Require("mesh_path", s.MeshPath)
	s.Location.check(r, "location")
	s.Rotation.check(r, "rotation")
	s.Scale.check(r, "scale")
}

func (s SetStaticMeshProperties) EncodeParams(p *command.Params) error {
	for _, kv := range []struct {
		key   string
		value string
	}{
		{"blueprint_name", s.BlueprintName},
		{"component_name", s.ComponentName},
		{"mesh_path", s.MeshPath},
	} {
		if err := p.Set(kv.key, kv.value); err != nil {
			return err
		}
	}
	for _, kv := range []struct {
		key string
		vec *Vector
	}{
		{"location", s.Location},
		{"rotation", s.Rotation},
		{"scale", s.Scale},
	} {
		if err := setOptional(p, kv.key, kv.vec, kv.vec != nil); err != nil {
			return err
		}
	}
	return nil
}

func (s SetStaticMeshProperties) CloneVariant() command.Variant {
	s.Location = s.Location.clone()
	s.Rotation = s.Rotation.clone()
	s.Scale = s.Scale.clone()
	return s
}
