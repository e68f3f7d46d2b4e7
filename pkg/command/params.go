package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

// Params is an ordered mapping from parameter names to JSON values.
//
// Values are normalized on Set, so a Params never holds a value that cannot
// be encoded and never aliases memory owned by the caller. The zero value is
// an empty mapping ready for use.
type Params struct {
	keys   []string
	values map[string]any
}

// NewParams returns an empty mapping.
func NewParams() *Params {
	return &Params{values: make(map[string]any)}
}

// ParamsFrom builds a mapping from a container accepted by CheckParams.
// Keys of a plain map are added in sorted order.
func ParamsFrom(container any) (*Params, error) {
	if err := CheckParams(container); err != nil {
		return nil, err
	}
	switch t := container.(type) {
	case nil:
		return NewParams(), nil
	case *Params:
		return t.Clone(), nil
	}
	norm, err := normalize("params", container)
	if err != nil {
		return nil, err
	}
	m, _ := norm.(map[string]any)
	p := NewParams()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		p.put(k, m[k])
	}
	return p, nil
}

// Set adds or overwrites key. Overwriting keeps the key's original position.
func (p *Params) Set(key string, value any) error {
	norm, err := normalize(key, value)
	if err != nil {
		return err
	}
	p.put(key, norm)
	return nil
}

func (p *Params) put(key string, value any) {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns a copy of the value stored under key.
func (p *Params) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[key]
	return deepCopy(v), ok
}

// Has reports whether key is present. A key holding null is present.
func (p *Params) Has(key string) bool {
	if p == nil {
		return false
	}
	_, ok := p.values[key]
	return ok
}

// Len returns the number of entries.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	return slices.Clone(p.keys)
}

// All iterates entries in insertion order. Yielded values are copies.
func (p *Params) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if p == nil {
			return
		}
		for _, k := range p.keys {
			if !yield(k, deepCopy(p.values[k])) {
				return
			}
		}
	}
}

// Map returns an independent copy as a plain map.
func (p *Params) Map() map[string]any {
	out := make(map[string]any, p.Len())
	if p == nil {
		return out
	}
	for k, v := range p.values {
		out[k] = deepCopy(v)
	}
	return out
}

// Clone returns an independent copy preserving key order.
func (p *Params) Clone() *Params {
	c := NewParams()
	if p == nil {
		return c
	}
	for _, k := range p.keys {
		c.put(k, deepCopy(p.values[k]))
	}
	return c
}

// MarshalJSON writes the entries in insertion order. A nil mapping encodes
// as {}.
func (p *Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if p != nil {
		for i, k := range p.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := encode(k)
			if err != nil {
				return nil, err
			}
			vb, err := encode(p.values[k])
			if err != nil {
				return nil, fmt.Errorf("encode %q: %w", k, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			buf.Write(vb)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping the key order of the input.
// Numbers are kept as json.Number.
func (p *Params) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return &ValidationError{
			Field:   "params",
			Code:    CodeNotMapping,
			Message: fmt.Sprintf("params must be a JSON object, got %s", bytes.TrimSpace(data)),
			cause:   ErrNotMapping,
		}
	}
	*p = Params{values: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		p.put(key, v)
	}
	_, err = dec.Token()
	return err
}

// encode marshals v without HTML escaping and without a trailing newline.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
