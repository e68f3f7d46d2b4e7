package command_test

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/unreal-mcp/ucmd/pkg/command"
)

// TestWireTypeDerivationProperties checks determinism and that derived
// types are fixed points of the derivation.
func TestWireTypeDerivationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("derivation is deterministic", prop.ForAll(
		func(name string) bool {
			return command.DeriveWireType(name) == command.DeriveWireType(name)
		},
		gen.AnyString(),
	))

	properties.Property("derived types are lowercase fixed points", prop.ForAll(
		func(words []string) bool {
			name := ""
			for _, w := range words {
				if w == "" {
					continue
				}
				name += string(w[0]-'a'+'A') + w[1:]
			}
			name += "Command"
			once := command.DeriveWireType(name)
			return command.DeriveWireType(string(once)) == once && once.Valid()
		},
		gen.SliceOf(gen.Identifier()).SuchThat(func(words []string) bool { return len(words) > 0 }),
	))

	properties.TestingRun(t)
}

// TestPayloadRoundTripProperties checks that parsing the JSON text of a
// command reproduces its mapping form, and that ToMap hands out copies.
func TestPayloadRoundTripProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("parse(serialize(cmd)) == cmd", prop.ForAll(
		func(names map[string]string, numbers map[string]float64) bool {
			params := map[string]any{}
			for k, v := range names {
				params["s_"+k] = v
			}
			for k, v := range numbers {
				params["n_"+k] = v
			}
			cmd, _, err := command.Build(command.Raw{Type: "generated", Params: params})
			if err != nil {
				return false
			}
			text, err := cmd.JSON()
			if err != nil {
				return false
			}
			parsed, err := command.ParsePayload([]byte(text))
			if err != nil {
				return false
			}
			return reflect.DeepEqual(cmd.ToMap(), parsed.ToMap())
		},
		gen.MapOf(gen.Identifier(), gen.AnyString()),
		gen.MapOf(gen.Identifier(), gen.Float64Range(-1e12, 1e12)),
	))

	properties.Property("mutating ToMap never changes the command", prop.ForAll(
		func(names map[string]string) bool {
			cmd, _, err := command.Build(command.Raw{Type: "generated", Params: names})
			if err != nil {
				return false
			}
			before := cmd.ToMap()
			m := cmd.ToMap()
			params := m["params"].(map[string]any)
			for k := range params {
				params[k] = "changed"
			}
			params["injected"] = true
			return reflect.DeepEqual(before, cmd.ToMap())
		},
		gen.MapOf(gen.Identifier(), gen.AlphaString()),
	))

	properties.TestingRun(t)
}
