// Package command defines the wire contract shared by every engine command:
// a declared wire type, an ordered parameter mapping, validation with fatal
// errors and advisory warnings, and the {"type", "params"} JSON payload.
//
// Commands are built in two phases. The caller fills in a Variant value
// (a plain struct of typed fields), then calls Build, which runs the
// variant's own checks, projects its fields into Params and runs the base
// encodability checks. Build either returns a usable *Command or a
// *BuildError; there is no partially constructed state.
package command

import (
	"regexp"
	"strings"
)

// Type is the wire identifier of a command variant, e.g. "create_blueprint".
type Type string

func (t Type) String() string { return string(t) }

// commandSuffix is stripped from variant names before conversion.
const commandSuffix = "Command"

var (
	wordBoundary  = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	lowerToUpper  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	validWireType = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)
)

// DeriveWireType converts a CamelCase variant name into its wire type.
//
//	CreateBlueprintCommand         -> create_blueprint
//	AddComponentToBlueprintCommand -> add_component_to_blueprint
//	GetHTTPResponseCommand         -> get_http_response
//
// A trailing "Command" is always removed, so "Command" alone derives the
// empty (invalid) type.
func DeriveWireType(name string) Type {
	name = strings.TrimSuffix(name, commandSuffix)
	snake := wordBoundary.ReplaceAllString(name, "${1}_${2}")
	snake = lowerToUpper.ReplaceAllString(snake, "${1}_${2}")
	return Type(strings.ToLower(snake))
}

// Valid reports whether t is a non-empty lowercase, underscore separated
// identifier.
func (t Type) Valid() bool {
	return validWireType.MatchString(string(t))
}
