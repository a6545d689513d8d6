package compound

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Option configures a Host at construction.
type Option func(*Host)

// WithClass shares a module of native operations between hosts. Operations
// defined on the host itself still take priority over the class.
func WithClass(class *Module) Option {
	return func(h *Host) {
		if class != nil {
			h.class = class
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithWarner replaces the advisory sink used for guarded modules.
func WithWarner(w Warner) Option {
	return func(h *Host) {
		if w != nil {
			h.warner = w
		}
	}
}

func WithID(id string) Option {
	return func(h *Host) {
		if id != "" {
			h.id = id
		}
	}
}

// Host is the composite object. It answers for its own native operations
// and, through its Registry, for the public operations of every attached
// module.
type Host struct {
	id        string
	kind      string
	class     *Module
	singleton *Module
	registry  *Registry
	ivars     map[string]any
	logger    *zap.Logger
	warner    Warner
}

func NewHost(kind string, opts ...Option) *Host {
	if kind == "" {
		kind = "Host"
	}
	h := &Host{
		id:     uuid.NewString(),
		kind:   kind,
		ivars:  make(map[string]any),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.class == nil {
		h.class = NewModule(kind)
	}
	if h.warner == nil {
		h.warner = NewLogWarner(h.logger)
	}
	h.singleton = NewModule(fmt.Sprintf("#<Class:%s>", kind)).Include(h.class)
	h.registry = &Registry{host: h}
	return h
}

func (h *Host) ID() string   { return h.id }
func (h *Host) Kind() string { return h.kind }

// Class returns the module holding the operations shared by hosts of this
// kind.
func (h *Host) Class() *Module { return h.class }

// Registry exposes the host's parts and the multicast utilities to trusted
// extension code. None of it is reachable through Call or Invoke.
func (h *Host) Registry() *Registry { return h.registry }

// Define adds a native operation on this host only.
func (h *Host) Define(name string, fn Func) *Host {
	h.singleton.Define(name, fn)
	return h
}

// DefinePrivate adds a native operation reachable only from the host's own
// operations and from the parts it forwards for. Outside callers do not see
// it, so once a module exposing the same name is attached, Call reaches the
// module's operation instead of failing.
func (h *Host) DefinePrivate(name string, fn Func) *Host {
	h.singleton.DefinePrivate(name, fn)
	return h
}

// Undefine removes a native operation defined with Define or DefinePrivate.
func (h *Host) Undefine(name string) bool {
	return h.singleton.Remove(name)
}

// Attach binds mod to the host. Attaching a module that is already attached
// replaces its part with a fresh one at the highest priority.
func (h *Host) Attach(mod *Module) (*Module, error) {
	return h.registry.attach(mod)
}

// Detach removes the part bound to exactly mod. It reports false when there
// was nothing to remove.
func (h *Host) Detach(mod *Module) (*Module, bool) {
	return h.registry.detach(mod)
}

func (h *Host) Call(name string, args ...any) (any, error) {
	return h.Invoke(name, args, nil, nil)
}

// Invoke resolves name the way an outside caller sees the host: public
// native operations first, then the public operations of attached modules.
func (h *Host) Invoke(name string, args []any, kwargs map[string]any, block Block) (any, error) {
	res, ok := h.resolve(name, false)
	if !ok {
		h.logger.Debug("operation not resolved", zap.String("operation", name), zap.String("host", h.String()))
		return nil, &NoOperationError{Name: name, Receiver: h.String()}
	}
	return res.invoke(args, kwargs, block)
}

// send is the trusted path used by the host's own operations and by the
// parts forwarding to it. Private native operations are visible here;
// private module operations never are.
func (h *Host) send(name string, args []any, kwargs map[string]any, block Block) (any, error) {
	res, ok := h.resolve(name, true)
	if !ok {
		h.logger.Debug("forwarded operation not resolved", zap.String("operation", name), zap.String("host", h.String()))
		return nil, &NoOperationError{Name: name, Receiver: h.String()}
	}
	return res.invoke(args, kwargs, block)
}

// RespondTo reports whether Call would find name.
func (h *Host) RespondTo(name string) bool {
	_, ok := h.resolve(name, false)
	return ok
}

// Method returns a callable reference to name with the same priority as
// Call. Delegated methods report the defining module as their owner.
func (h *Host) Method(name string) (*Method, error) {
	res, ok := h.resolve(name, false)
	if !ok {
		return nil, &NoOperationError{Name: name, Receiver: h.String()}
	}
	return newMethod(res.op, res.self), nil
}

// IsA reports whether the host is an instance of mod: its own class and
// what the class includes, or exactly one of the attached modules.
func (h *Host) IsA(mod *Module) bool {
	if mod == nil {
		return false
	}
	for _, native := range h.singleton.Ancestors() {
		if native == mod {
			return true
		}
	}
	_, ok := h.registry.Part(mod)
	return ok
}

func (h *Host) KindOf(mod *Module) bool { return h.IsA(mod) }

// Ancestors lists the lookup chain: the host's own operations, the
// attached modules by priority, then the class chain.
func (h *Host) Ancestors() []*Module {
	out := []*Module{h.singleton}
	out = append(out, h.registry.Modules()...)
	return append(out, h.class.Ancestors()...)
}

// Operations returns the sorted public native operation names. Delegated
// operations are not listed.
func (h *Host) Operations() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, mod := range h.singleton.Ancestors() {
		for _, name := range mod.Operations() {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			if h.singleton.Exposes(name) {
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

func (h *Host) Get(key string) any { return h.ivars[key] }

func (h *Host) Set(key string, val any) { h.ivars[key] = val }

func (h *Host) String() string {
	short := h.id
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s(%s)", h.kind, short)
}
