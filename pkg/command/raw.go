package command

// Raw is a command without typed fields: a declared wire type plus an
// arbitrary initial parameter container. It covers engine commands that
// have no dedicated variant yet.
//
//	cmd, _, err := command.Build(command.Raw{Type: "spawn_actor", Params: map[string]any{"name": "Door"}})
type Raw struct {
	// Label is used in error messages and GoString; defaults to "Raw".
	Label string
	// Type is the wire type. When empty it is derived from Label.
	Type Type
	// Params must be a map keyed by strings, a *Params, or nil.
	Params any
}

func (r Raw) VariantName() string {
	if r.Label == "" {
		return "Raw"
	}
	return r.Label
}

func (r Raw) WireType() Type {
	if r.Type != "" {
		return r.Type
	}
	return DeriveWireType(r.VariantName())
}

func (r Raw) Check(rep *Report) {
	rep.Merge(CheckParams(r.Params))
}

func (r Raw) EncodeParams(p *Params) error {
	src, err := ParamsFrom(r.Params)
	if err != nil {
		// Already reported by Check.
		return nil
	}
	for k, v := range src.All() {
		p.put(k, v)
	}
	return nil
}

func (r Raw) CloneVariant() Variant {
	c := r
	if r.Params != nil {
		if p, err := ParamsFrom(r.Params); err == nil {
			c.Params = p
		}
	}
	return c
}
