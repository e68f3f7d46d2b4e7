package blueprint_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unreal-mcp/ucmd/pkg/blueprint"
	"github.com/unreal-mcp/ucmd/pkg/command"
)

func mustBuild(t *testing.T, v command.Variant) *command.Command {
	t.Helper()
	c, _, err := command.Build(v)
	require.NoError(t, err)
	return c
}

func failedFields(t *testing.T, err error) []string {
	t.Helper()
	var be *command.BuildError
	require.ErrorAs(t, err, &be)
	fields := make([]string, 0, len(be.Errors))
	for _, ve := range be.Errors {
		fields = append(fields, ve.Field)
	}
	return fields
}

func TestDeclaredTypesMatchVariantNames(t *testing.T) {
	variants := []command.Variant{
		blueprint.CreateBlueprint{},
		blueprint.AddComponentToBlueprint{},
		blueprint.CompileBlueprint{},
		blueprint.SetBlueprintProperty{},
		blueprint.SetStaticMeshProperties{},
	}
	require.Len(t, blueprint.Kinds(), len(variants), "every variant must be registered")

	for _, v := range variants {
		t.Run(v.VariantName(), func(t *testing.T) {
			assert.Equal(t, command.DeriveWireType(v.VariantName()+"Command"), v.WireType())

			k, ok := blueprint.Lookup(v.WireType())
			require.True(t, ok)
			assert.Equal(t, v.VariantName(), k.Name)
		})
	}
}

func TestKnownWireTypes(t *testing.T) {
	assert.Equal(t, command.Type("create_blueprint"), blueprint.CreateBlueprint{}.WireType())
	assert.Equal(t, command.Type("add_component_to_blueprint"), blueprint.AddComponentToBlueprint{}.WireType())
	assert.Equal(t, command.Type("set_static_mesh_properties"), blueprint.SetStaticMeshProperties{}.WireType())
}

func TestCreateBlueprint(t *testing.T) {
	cmd, warnings, err := command.Build(blueprint.NewCreateBlueprint("BP_Door"))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	out, err := cmd.JSON()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"create_blueprint","params":{"name":"BP_Door","parent_class":"/Script/Engine.Actor"}}`, out)
}

func TestCreateBlueprint_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		variant blueprint.CreateBlueprint
		field   string
	}{
		{"empty name", blueprint.CreateBlueprint{ParentClass: blueprint.DefaultParentClass}, "name"},
		{"blank name", blueprint.CreateBlueprint{Name: " \t ", ParentClass: blueprint.DefaultParentClass}, "name"},
		{"empty parent", blueprint.CreateBlueprint{Name: "BP_Door"}, "parent_class"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _, err := command.Build(tt.variant)
			require.Error(t, err)
			assert.Nil(t, cmd)
			assert.ErrorIs(t, err, command.ErrRequiredField)
			assert.Contains(t, err.Error(), "CreateBlueprint validation failed")
			assert.Contains(t, err.Error(), tt.field)
			assert.Contains(t, failedFields(t, err), tt.field)
		})
	}
}

func TestCreateBlueprint_UnusualParentWarns(t *testing.T) {
	cmd, warnings, err := command.Build(blueprint.CreateBlueprint{Name: "BP_Door", ParentClass: "Actor"})
	require.NoError(t, err)
	require.NotNil(t, cmd)
	require.Len(t, warnings, 1)
	assert.Equal(t, "parent_class", warnings[0].Field)
	assert.Equal(t, command.CodeUnusualValue, warnings[0].Code)
	assert.Contains(t, warnings[0].Message, "/Script/")
}

func TestAddComponentToBlueprint(t *testing.T) {
	cmd, warnings, err := command.Build(blueprint.AddComponentToBlueprint{
		BlueprintName: "BP_Door",
		ComponentType: "StaticMeshComponent",
		ComponentName: "Frame",
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	out, _ := cmd.JSON()
	assert.Equal(t, `{"type":"add_component_to_blueprint","params":{"blueprint_name":"BP_Door","component_type":"StaticMeshComponent","component_name":"Frame"}}`, out)
}

func TestAddComponentToBlueprint_OptionalNameOmitted(t *testing.T) {
	cmd, _, err := command.Build(blueprint.AddComponentToBlueprint{BlueprintName: "BP_Door", ComponentType: "PointLightComponent"})
	require.NoError(t, err)
	assert.False(t, cmd.Params().Has("component_name"))
}

func TestAddComponentToBlueprint_UnrecognizedSuffixWarns(t *testing.T) {
	cmd, warnings, err := command.Build(blueprint.AddComponentToBlueprint{BlueprintName: "BP_Door", ComponentType: "Widget"})
	require.NoError(t, err)
	require.NotNil(t, cmd)
	require.Len(t, warnings, 1)
	assert.Equal(t, "component_type", warnings[0].Field)

	for _, ok := range []string{"SceneComponent", "CameraActor", "DataObject"} {
		_, warnings, err := command.Build(blueprint.AddComponentToBlueprint{BlueprintName: "BP_Door", ComponentType: ok})
		require.NoError(t, err)
		assert.Empty(t, warnings, ok)
	}
}

func TestAddComponentToBlueprint_RequiredFields(t *testing.T) {
	_, _, err := command.Build(blueprint.AddComponentToBlueprint{ComponentType: ""})
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"blueprint_name", "component_type"}, failedFields(t, err))
}

func TestCompileBlueprint(t *testing.T) {
	cmd, _, err := command.Build(blueprint.CompileBlueprint{BlueprintName: "BP_Door"})
	require.NoError(t, err)
	assert.Equal(t, "compile_blueprint command with 1 parameters", cmd.String())

	_, _, err = command.Build(blueprint.CompileBlueprint{})
	assert.ErrorIs(t, err, command.ErrRequiredField)
}

func TestSetBlueprintProperty(t *testing.T) {
	base := blueprint.SetBlueprintProperty{BlueprintName: "BP_Door", PropertyName: "MaxHealth"}

	cmd, _, err := command.Build(base)
	require.NoError(t, err)
	assert.False(t, cmd.Params().Has("property_value"))
	assert.False(t, cmd.Params().Has("property_type"))

	cmd, _, err = command.Build(base.WithValue(nil))
	require.NoError(t, err)
	out, _ := cmd.JSON()
	assert.Equal(t, `{"type":"set_blueprint_property","params":{"blueprint_name":"BP_Door","property_name":"MaxHealth","property_value":null}}`, out)

	typed := base.WithValue(100.5)
	typed.PropertyType = "float"
	cmd, _, err = command.Build(typed)
	require.NoError(t, err)
	out, _ = cmd.JSON()
	assert.Equal(t, `{"type":"set_blueprint_property","params":{"blueprint_name":"BP_Door","property_name":"MaxHealth","property_value":100.5,"property_type":"float"}}`, out)
}

func TestSetBlueprintProperty_StructLiteralSendsValue(t *testing.T) {
	cmd, _, err := command.Build(blueprint.SetBlueprintProperty{
		BlueprintName: "BP",
		PropertyName:  "MaxHealth",
		PropertyValue: 100.0,
		PropertyType:  "float",
	})
	require.NoError(t, err)
	out, _ := cmd.JSON()
	assert.Equal(t, `{"type":"set_blueprint_property","params":{"blueprint_name":"BP","property_name":"MaxHealth","property_value":100,"property_type":"float"}}`, out)

	cmd, _, err = command.Build(blueprint.SetBlueprintProperty{BlueprintName: "BP", PropertyName: "Visible", PropertyValue: false})
	require.NoError(t, err)
	v, ok := cmd.Params().Get("property_value")
	require.True(t, ok, "a zero but non-nil value is still sent")
	assert.Equal(t, false, v)
}

func TestSetBlueprintProperty_Failures(t *testing.T) {
	_, _, err := command.Build(blueprint.SetBlueprintProperty{BlueprintName: "BP_Door"})
	assert.ErrorIs(t, err, command.ErrRequiredField)

	self := map[string]any{}
	self["self"] = self
	_, _, err = command.Build(blueprint.SetBlueprintProperty{BlueprintName: "BP_Door", PropertyName: "Data"}.WithValue(self))
	require.Error(t, err)
	assert.ErrorIs(t, err, command.ErrCircularReference)
	assert.Contains(t, err.Error(), "SetBlueprintProperty validation failed: property_value")

	_, _, err = command.Build(blueprint.SetBlueprintProperty{BlueprintName: "BP_Door", PropertyName: "Speed"}.WithValue(math.NaN()))
	assert.ErrorIs(t, err, command.ErrNotSerializable)
}

func TestSetStaticMeshProperties_OptionalVectorsAbsent(t *testing.T) {
	cmd, _, err := command.Build(blueprint.SetStaticMeshProperties{
		BlueprintName: "BP_Door",
		ComponentName: "Frame",
		MeshPath:      "/Game/Meshes/Door",
	})
	require.NoError(t, err)

	params := cmd.ToMap()["params"].(map[string]any)
	_, hasLocation := params["location"]
	assert.False(t, hasLocation, "location must be absent, not null")
	assert.NotContains(t, params, "rotation")
	assert.NotContains(t, params, "scale")
	assert.Len(t, params, 3)
}

func TestSetStaticMeshProperties_WithVectors(t *testing.T) {
	cmd, _, err := command.Build(blueprint.SetStaticMeshProperties{
		BlueprintName: "BP_Door",
		ComponentName: "Frame",
		MeshPath:      "/Game/Meshes/Door",
		Location:      blueprint.Vec(0, 10, -2.5),
		Scale:         blueprint.Vec(1, 1, 1),
	})
	require.NoError(t, err)
	out, _ := cmd.JSON()
	assert.Equal(t, `{"type":"set_static_mesh_properties","params":{"blueprint_name":"BP_Door","component_name":"Frame","mesh_path":"/Game/Meshes/Door","location":{"x":0,"y":10,"z":-2.5},"scale":{"x":1,"y":1,"z":1}}}`, out)
}

func TestSetStaticMeshProperties_NonFiniteVector(t *testing.T) {
	_, _, err := command.Build(blueprint.SetStaticMeshProperties{
		BlueprintName: "BP_Door",
		ComponentName: "Frame",
		MeshPath:      "/Game/Meshes/Door",
		Rotation:      blueprint.Vec(0, math.Inf(1), 0),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, command.ErrInvalidValue)
	assert.Contains(t, err.Error(), "rotation: y component must be finite")
}

func TestClone_VectorsAreNotShared(t *testing.T) {
	loc := blueprint.Vec(1, 2, 3)
	orig := mustBuild(t, blueprint.SetStaticMeshProperties{
		BlueprintName: "BP_Door",
		ComponentName: "Frame",
		MeshPath:      "/Game/Meshes/Door",
		Location:      loc,
	})
	loc.X = 100

	dup, err := orig.Clone()
	require.NoError(t, err)
	assert.Equal(t, orig.ToMap(), dup.ToMap())

	v := dup.Variant().(blueprint.SetStaticMeshProperties)
	v.Location.X = -1
	again := orig.Variant().(blueprint.SetStaticMeshProperties)
	assert.Equal(t, 1.0, again.Location.X)

	require.NoError(t, dup.Set("mesh_path", "/Game/Meshes/Window"))
	p, _ := orig.Params().Get("mesh_path")
	assert.Equal(t, "/Game/Meshes/Door", p)
}

func TestGoString(t *testing.T) {
	cmd := mustBuild(t, blueprint.CompileBlueprint{BlueprintName: "BP_Door"})
	assert.Equal(t, `CompileBlueprint(type="compile_blueprint", params={"blueprint_name":"BP_Door"})`, cmd.GoString())
}

func TestDecode_RoundTripsEveryVariant(t *testing.T) {
	variants := []command.Variant{
		blueprint.NewCreateBlueprint("BP_Door"),
		blueprint.AddComponentToBlueprint{BlueprintName: "BP_Door", ComponentType: "StaticMeshComponent"},
		blueprint.CompileBlueprint{BlueprintName: "BP_Door"},
		blueprint.SetBlueprintProperty{BlueprintName: "BP_Door", PropertyName: "Tags"}.WithValue([]any{"a", 1}),
		blueprint.SetStaticMeshProperties{BlueprintName: "BP_Door", ComponentName: "Frame", MeshPath: "/Game/M", Rotation: blueprint.Vec(0, 90, 0)},
	}
	for _, v := range variants {
		t.Run(v.VariantName(), func(t *testing.T) {
			cmd := mustBuild(t, v)
			text, err := cmd.JSON()
			require.NoError(t, err)

			payload, err := command.ParsePayload([]byte(text))
			require.NoError(t, err)
			decoded, err := blueprint.Decode(payload)
			require.NoError(t, err)
			assert.IsType(t, v, decoded)

			rebuilt, _, err := command.Build(decoded)
			require.NoError(t, err)
			assert.Equal(t, cmd.ToMap(), rebuilt.ToMap())
		})
	}
}

func TestDecode_PropertyNullIsKept(t *testing.T) {
	payload, err := command.ParsePayload([]byte(`{"type":"set_blueprint_property","params":{"blueprint_name":"BP","property_name":"Target","property_value":null}}`))
	require.NoError(t, err)
	v, err := blueprint.Decode(payload)
	require.NoError(t, err)
	s := v.(blueprint.SetBlueprintProperty)
	assert.True(t, s.HasValue)
	assert.Nil(t, s.PropertyValue)
}

func TestDecode_Errors(t *testing.T) {
	_, err := blueprint.Decode(&command.Payload{Type: "spawn_actor"})
	assert.ErrorIs(t, err, blueprint.ErrUnknownType)

	p := command.NewParams()
	require.NoError(t, p.Set("blueprint_name", "BP"))
	require.NoError(t, p.Set("blueprnt_typo", "x"))
	_, err = blueprint.Decode(&command.Payload{Type: blueprint.TypeCompileBlueprint, Params: p})
	assert.Error(t, err)

	bad := command.NewParams()
	require.NoError(t, bad.Set("blueprint_name", json.Number("5")))
	_, err = blueprint.Decode(&command.Payload{Type: blueprint.TypeCompileBlueprint, Params: bad})
	assert.Error(t, err)
}

func TestDecode_StaticMeshRejectsPartialVectors(t *testing.T) {
	tests := map[string]struct {
		params string
		want   string
	}{
		"missing axes":  {`{"location":{"x":5}}`, "location: missing y component"},
		"null axis":     {`{"scale":{"x":1,"y":null,"z":1}}`, "scale: missing y component"},
		"not a mapping": {`{"rotation":[0,90,0]}`, "rotation: must be a mapping"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			params := command.NewParams()
			require.NoError(t, json.Unmarshal([]byte(tt.params), params))
			require.NoError(t, params.Set("blueprint_name", "BP_Door"))
			require.NoError(t, params.Set("component_name", "Frame"))

			v, err := blueprint.Decode(&command.Payload{Type: blueprint.TypeSetStaticMeshProperties, Params: params})
			require.Error(t, err)
			assert.Nil(t, v)
			assert.ErrorIs(t, err, command.ErrInvalidValue)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	params := command.NewParams()
	require.NoError(t, json.Unmarshal([]byte(`{"blueprint_name":"BP_Door","component_name":"Frame","location":{"x":5,"y":0,"z":-1},"scale":null}`), params))
	v, err := blueprint.Decode(&command.Payload{Type: blueprint.TypeSetStaticMeshProperties, Params: params})
	require.NoError(t, err)
	assert.Equal(t, blueprint.Vec(5, 0, -1), v.(blueprint.SetStaticMeshProperties).Location)
}
