package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingType is returned by ParsePayload when "type" is absent or empty.
var ErrMissingType = errors.New("payload type is required")

// Payload is the wire envelope: {"type": ..., "params": {...}}.
type Payload struct {
	Type   Type    `json:"type"`
	Params *Params `json:"params"`
}

// MarshalJSON always writes both keys; nil params encode as {}.
func (p Payload) MarshalJSON() ([]byte, error) {
	tb, err := encode(string(p.Type))
	if err != nil {
		return nil, err
	}
	pb, err := p.Params.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(tb) + len(pb) + 21)
	buf.WriteString(`{"type":`)
	buf.Write(tb)
	buf.WriteString(`,"params":`)
	buf.Write(pb)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ToMap returns the payload as plain maps.
func (p Payload) ToMap() map[string]any {
	return map[string]any{
		"type":   string(p.Type),
		"params": p.Params.Map(),
	}
}

// ParsePayload decodes a wire payload. Missing params decode as an empty
// mapping; params that are not an object fail with ErrNotMapping.
func ParsePayload(data []byte) (*Payload, error) {
	var envelope struct {
		Type   Type            `json:"type"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	if envelope.Type == "" {
		return nil, ErrMissingType
	}
	p := &Payload{Type: envelope.Type, Params: NewParams()}
	if len(envelope.Params) > 0 && !bytes.Equal(bytes.TrimSpace(envelope.Params), []byte("null")) {
		if err := p.Params.UnmarshalJSON(envelope.Params); err != nil {
			return nil, fmt.Errorf("parse payload %s: %w", envelope.Type, err)
		}
	}
	return p, nil
}
