package compound

import "fmt"

// Method is a callable reference to a resolved operation. Owner is the
// module that actually defines it, which for delegated operations is the
// attached module rather than the host.
type Method struct {
	Name  string
	Owner *Module

	op   *Operation
	self *Self
}

func newMethod(op *Operation, self *Self) *Method {
	return &Method{Name: op.Name, Owner: op.Owner, op: op, self: self}
}

func (m *Method) Private() bool { return m.op.Private }

func (m *Method) Call(args ...any) (any, error) {
	return m.Invoke(args, nil, nil)
}

func (m *Method) Invoke(args []any, kwargs map[string]any, block Block) (any, error) {
	return m.op.Fn(m.self, args, kwargs, block)
}

func (m *Method) String() string {
	return fmt.Sprintf("#<Method: %s#%s>", m.Owner, m.Name)
}
