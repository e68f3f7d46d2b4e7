package command

import (
	"fmt"
	"unicode/utf8"

	"github.com/unreal-mcp/ucmd/pkg/canonicalize"
)

// previewLimit caps the parameter preview in GoString.
const previewLimit = 100

// Variant is one concrete kind of command. Implementations are plain
// structs of typed fields; Build turns them into a *Command.
type Variant interface {
	// VariantName is the display name of the variant, e.g. "CreateBlueprint".
	VariantName() string
	// WireType is the declared wire identifier.
	WireType() Type
	// Check records required-field and format findings.
	Check(r *Report)
	// EncodeParams writes the variant's fields into p. Unset optional
	// fields are left out entirely.
	EncodeParams(p *Params) error
	// CloneVariant returns a deep copy of the typed fields.
	CloneVariant() Variant
}

// Command is a built, validated command. Its parameters can be extended
// with Set; everything else is fixed at build time.
type Command struct {
	variant Variant
	params  *Params
	extra   []string // keys written through Set, re-applied by Clone
}

// Build validates v and projects it into a Command. On failure it returns a
// *BuildError naming the variant and every fatal finding. Warnings are
// returned alongside a successful build.
func Build(v Variant) (*Command, []Warning, error) {
	if v == nil {
		return nil, nil, fmt.Errorf("command: nil variant")
	}
	r := &Report{}
	v.Check(r)

	t := v.WireType()
	if !t.Valid() {
		r.Fail("type", CodeInvalidValue, ErrInvalidValue, "wire type %q is not a lowercase underscore identifier", t)
	}

	params := NewParams()
	if r.OK() {
		r.Merge(v.EncodeParams(params))
	}

	if err := r.Err(v.VariantName()); err != nil {
		return nil, nil, err
	}
	return &Command{variant: v.CloneVariant(), params: params}, r.Warnings(), nil
}

// Name returns the variant name.
func (c *Command) Name() string { return c.variant.VariantName() }

// Type returns the wire type.
func (c *Command) Type() Type { return c.variant.WireType() }

// Variant returns a copy of the typed fields the command was built from.
func (c *Command) Variant() Variant { return c.variant.CloneVariant() }

// Params returns a copy of the parameter mapping.
func (c *Command) Params() *Params { return c.params.Clone() }

// Set adds or overwrites a parameter. An unencodable value is rejected and
// leaves the command unchanged.
func (c *Command) Set(key string, value any) error {
	if err := c.params.Set(key, value); err != nil {
		return &BuildError{Variant: c.Name(), Errors: []*ValidationError{asValidationError(key, err)}}
	}
	for _, k := range c.extra {
		if k == key {
			return nil
		}
	}
	c.extra = append(c.extra, key)
	return nil
}

// Payload returns the wire form. The params are a copy.
func (c *Command) Payload() Payload {
	return Payload{Type: c.Type(), Params: c.params.Clone()}
}

// ToMap returns {"type": ..., "params": ...} as plain maps. Mutating the
// result never affects c.
func (c *Command) ToMap() map[string]any {
	return map[string]any{
		"type":   string(c.Type()),
		"params": c.params.Map(),
	}
}

// MarshalJSON encodes the wire payload.
func (c *Command) MarshalJSON() ([]byte, error) {
	return c.Payload().MarshalJSON()
}

// JSON returns the wire payload as text.
func (c *Command) JSON() (string, error) {
	b, err := c.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("%s: encode payload: %w", c.Name(), err)
	}
	return string(b), nil
}

// Canonical returns the RFC 8785 form of the payload.
func (c *Command) Canonical() ([]byte, error) {
	b, err := c.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return canonicalize.Transform(b)
}

// Fingerprint is the SHA-256 hex digest of the canonical payload.
func (c *Command) Fingerprint() (string, error) {
	return canonicalize.CanonicalHash(c)
}

// Clone rebuilds the command from a deep copy of its typed fields, so every
// build-time check runs again, then re-applies parameters added with Set.
func (c *Command) Clone() (*Command, error) {
	dup, _, err := Build(c.variant.CloneVariant())
	if err != nil {
		return nil, err
	}
	for _, k := range c.extra {
		v, _ := c.params.Get(k)
		if err := dup.Set(k, v); err != nil {
			return nil, err
		}
	}
	return dup, nil
}

// String is a short summary, e.g. "compile_blueprint command with 1 parameters".
func (c *Command) String() string {
	return fmt.Sprintf("%s command with %d parameters", c.Type(), c.params.Len())
}

// GoString renders the variant, wire type and a capped parameter preview.
func (c *Command) GoString() string {
	preview := "<unprintable params>"
	if b, err := c.params.MarshalJSON(); err == nil {
		preview = string(b)
		if len(preview) > previewLimit {
			cut := previewLimit - 3
			for cut > 0 && !utf8.RuneStart(preview[cut]) {
				cut--
			}
			preview = preview[:cut] + "..."
		}
	}
	return fmt.Sprintf("%s(type=%q, params=%s)", c.Name(), c.Type(), preview)
}

func asValidationError(field string, err error) *ValidationError {
	if ve, ok := err.(*ValidationError); ok {
		return ve
	}
	return &ValidationError{Field: field, Code: CodeNotJSON, Message: err.Error(), cause: ErrNotSerializable}
}
