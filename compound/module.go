package compound

import (
	"fmt"
	"slices"
	"sort"
)

// Block is the trailing callback an operation may receive.
type Block func(args ...any) (any, error)

// Func implements an operation. self is the receiver the operation runs
// against: the Part for module operations, the Host for native ones.
type Func func(self *Self, args []any, kwargs map[string]any, block Block) (any, error)

// AttachHook runs after a module's Part has been inserted into a host's
// registry. A non-nil error aborts the attach.
type AttachHook func(host *Host, part *Part) error

// Operation is one entry of a module's operation table.
type Operation struct {
	Name    string
	Fn      Func
	Private bool
	Owner   *Module
}

type guardMode int

const (
	guardNone guardMode = iota
	guardStandalone
	guardAttach
)

// Module is a capability: a named bundle of operations. Its identity is the
// pointer; two modules with the same name are different modules. The
// operation table may change at any time and resolution always reads the
// current table.
type Module struct {
	Name string
	// NewState, when set, builds the typed state each Part owns.
	NewState func() any

	ops      map[string]*Operation
	includes []*Module
	onAttach AttachHook
	guard    guardMode
}

// NewModule returns an empty module named name.
func NewModule(name string) *Module {
	return &Module{
		Name: name,
		ops:  make(map[string]*Operation),
	}
}

// Define adds or replaces a public operation.
func (m *Module) Define(name string, fn Func) *Module {
	m.define(name, fn, false)
	return m
}

// DefinePrivate adds or replaces an operation callable only from within the
// module itself.
func (m *Module) DefinePrivate(name string, fn Func) *Module {
	m.define(name, fn, true)
	return m
}

func (m *Module) define(name string, fn Func, private bool) {
	if fn == nil {
		panic(fmt.Sprintf("compound: nil func for operation %q on %s", name, m))
	}
	if m.ops == nil {
		m.ops = make(map[string]*Operation)
	}
	m.ops[name] = &Operation{Name: name, Fn: fn, Private: private, Owner: m}
}

// Remove deletes an operation defined directly on m.
func (m *Module) Remove(name string) bool {
	if _, ok := m.ops[name]; !ok {
		return false
	}
	delete(m.ops, name)
	return true
}

// SetPrivate changes the visibility of an operation defined directly on m.
func (m *Module) SetPrivate(name string, private bool) bool {
	op, ok := m.ops[name]
	if !ok {
		return false
	}
	m.ops[name] = &Operation{Name: op.Name, Fn: op.Fn, Private: private, Owner: m}
	return true
}

// Include mixes other modules into m. Later includes take priority over
// earlier ones, and all of them rank below m's own operations.
func (m *Module) Include(others ...*Module) *Module {
	for _, other := range others {
		if other == nil || other == m {
			continue
		}
		m.includes = append(m.includes, other)
	}
	return m
}

// SetIncludes replaces everything m includes.
func (m *Module) SetIncludes(others ...*Module) *Module {
	m.includes = nil
	return m.Include(others...)
}

// Includes returns the modules m includes directly, in include order.
func (m *Module) Includes() []*Module {
	out := make([]*Module, len(m.includes))
	copy(out, m.includes)
	return out
}

// OnAttach registers the lifecycle hook run when m is attached to a host.
func (m *Module) OnAttach(hook AttachHook) *Module {
	m.onAttach = hook
	return m
}

// HasOnAttach reports whether m registered an attach hook.
func (m *Module) HasOnAttach() bool {
	return m.onAttach != nil
}

// Ancestors returns m followed by everything it includes, in lookup order.
// Each include splices its own ancestors in right after m, skipping modules
// already present, so a module shared by two includes sits below both.
func (m *Module) Ancestors() []*Module {
	return m.ancestors(make(map[*Module]struct{}))
}

func (m *Module) ancestors(visiting map[*Module]struct{}) []*Module {
	visiting[m] = struct{}{}
	defer delete(visiting, m)

	out := []*Module{m}
	for _, inc := range m.includes {
		if _, ok := visiting[inc]; ok {
			continue
		}
		pos := 1
		for _, mod := range inc.ancestors(visiting) {
			if i := slices.Index(out, mod); i >= 0 {
				pos = i + 1
				continue
			}
			out = slices.Insert(out, pos, mod)
			pos++
		}
	}
	return out
}

// Lookup finds name on m or anything m includes, regardless of visibility.
func (m *Module) Lookup(name string) (*Operation, bool) {
	if op, ok := m.ops[name]; ok {
		return op, true
	}
	if len(m.includes) == 0 {
		return nil, false
	}
	for _, mod := range m.Ancestors()[1:] {
		if op, ok := mod.ops[name]; ok {
			return op, true
		}
	}
	return nil, false
}

// Exposes reports whether name currently resolves to a public operation.
func (m *Module) Exposes(name string) bool {
	op, ok := m.Lookup(name)
	return ok && !op.Private
}

// Defines reports whether name resolves on m at any visibility.
func (m *Module) Defines(name string) bool {
	_, ok := m.Lookup(name)
	return ok
}

// Operations returns the sorted names of the operations defined directly on m.
func (m *Module) Operations() []string {
	return m.names(func(*Operation) bool { return true })
}

// PublicOperations returns the sorted public names defined directly on m.
func (m *Module) PublicOperations() []string {
	return m.names(func(op *Operation) bool { return !op.Private })
}

// PrivateOperations returns the sorted private names defined directly on m.
func (m *Module) PrivateOperations() []string {
	return m.names(func(op *Operation) bool { return op.Private })
}

func (m *Module) names(keep func(*Operation) bool) []string {
	out := make([]string, 0, len(m.ops))
	for name, op := range m.ops {
		if keep(op) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (m *Module) String() string {
	if m == nil {
		return "<nil module>"
	}
	if m.Name == "" {
		return fmt.Sprintf("#<Module %p>", m)
	}
	return m.Name
}
