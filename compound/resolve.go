package compound

// resolution is the outcome of looking a name up on a host.
type resolution struct {
	op   *Operation
	self *Self
}

func (r resolution) invoke(args []any, kwargs map[string]any, block Block) (any, error) {
	return r.op.Fn(r.self, args, kwargs, block)
}

// A resolver claims a name or passes. trusted is set for self-sends and
// forwarded calls.
type resolver func(h *Host, name string, trusted bool) (resolution, bool)

// resolvers run in priority order: native operations always win over
// delegated ones.
var resolvers = []resolver{
	resolveNative,
	resolveParts,
}

func (h *Host) resolve(name string, trusted bool) (resolution, bool) {
	for _, r := range resolvers {
		if res, ok := r(h, name, trusted); ok {
			return res, true
		}
	}
	return resolution{}, false
}

// resolveNative covers the host's singleton operations and its class chain.
// A private native shadows class operations of the same name; untrusted
// callers then fall through to the parts.
func resolveNative(h *Host, name string, trusted bool) (resolution, bool) {
	op, ok := h.singleton.Lookup(name)
	if !ok || (op.Private && !trusted) {
		return resolution{}, false
	}
	return resolution{op: op, self: &Self{host: h, module: op.Owner}}, true
}

// resolveParts picks the most recently attached part exposing name. Private
// module operations are never resolved here, trusted or not.
func resolveParts(h *Host, name string, _ bool) (resolution, bool) {
	p, ok := h.registry.findPublic(name)
	if !ok {
		return resolution{}, false
	}
	op, _ := p.module.Lookup(name)
	return resolution{op: op, self: p.self(op)}, true
}
