package compound

import "fmt"

// Forwarder receives the calls a Part cannot satisfy itself.
type Forwarder interface {
	Invoke(name string, args []any, kwargs map[string]any, block Block) (any, error)
}

// Part is the live binding of one Module to one Host. It owns the ivars and
// typed state of that module on that host and nothing else.
type Part struct {
	host   *Host
	owner  Forwarder
	module *Module
	ivars  map[string]any
	state  any
}

func newPart(host *Host, owner Forwarder, mod *Module) *Part {
	p := &Part{
		host:   host,
		owner:  owner,
		module: mod,
		ivars:  make(map[string]any),
	}
	if mod.NewState != nil {
		p.state = mod.NewState()
	}
	return p
}

func (p *Part) Module() *Module { return p.module }

// Host returns the owning host, or nil when the part was bound with Extend.
func (p *Part) Host() *Host { return p.host }

// Invoke self-sends name on the part. Operations the module defines run
// here regardless of visibility; anything else goes to the owner.
func (p *Part) Invoke(name string, args []any, kwargs map[string]any, block Block) (any, error) {
	if op, ok := p.module.Lookup(name); ok {
		return op.Fn(p.self(op), args, kwargs, block)
	}
	if p.host != nil {
		return p.host.send(name, args, kwargs, block)
	}
	if p.owner == nil {
		return nil, &NoOperationError{Name: name, Receiver: p.String()}
	}
	return p.owner.Invoke(name, args, kwargs, block)
}

func (p *Part) Call(name string, args ...any) (any, error) {
	return p.Invoke(name, args, nil, nil)
}

// Method returns a reference to an operation the module itself defines.
// Names supplied by the host or by other parts are not visible here.
func (p *Part) Method(name string) (*Method, error) {
	op, ok := p.module.Lookup(name)
	if !ok {
		return nil, &NoOperationError{Name: name, Receiver: p.String()}
	}
	return newMethod(op, p.self(op)), nil
}

// RespondTo reports whether the module exposes name publicly.
func (p *Part) RespondTo(name string) bool {
	return p.module.Exposes(name)
}

func (p *Part) Defines(name string) bool {
	return p.module.Defines(name)
}

func (p *Part) Get(key string) any {
	return p.ivars[key]
}

func (p *Part) Set(key string, val any) {
	p.ivars[key] = val
}

// Ivars returns a copy of the part's instance variables.
func (p *Part) Ivars() map[string]any {
	out := make(map[string]any, len(p.ivars))
	for k, v := range p.ivars {
		out[k] = v
	}
	return out
}

func (p *Part) State() any { return p.state }

// Attached reports whether p is still in its host's registry.
func (p *Part) Attached() bool {
	if p.host == nil {
		return false
	}
	current, ok := p.host.registry.Part(p.module)
	return ok && current == p
}

func (p *Part) String() string {
	if p.host == nil {
		return fmt.Sprintf("#<Part %s>", p.module)
	}
	return fmt.Sprintf("#<Part %s of %s>", p.module, p.host)
}

func (p *Part) self(op *Operation) *Self {
	return &Self{host: p.host, part: p, module: op.Owner}
}
