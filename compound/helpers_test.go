package compound

import (
	"errors"
	"testing"
)

func constOp(val any) Func {
	return func(*Self, []any, map[string]any, Block) (any, error) {
		return val, nil
	}
}

func callOp(name string) Func {
	return func(self *Self, args []any, kwargs map[string]any, block Block) (any, error) {
		return self.Invoke(name, args, kwargs, block)
	}
}

func newFoo() *Module { return NewModule("Foo").Define("foo", constOp("foo")) }
func newBar() *Module { return NewModule("Bar").Define("bar", constOp("bar")) }
func newBaz() *Module { return NewModule("Baz").Define("baz", constOp("baz")) }

func mustAttach(t *testing.T, h *Host, mods ...*Module) {
	t.Helper()
	for _, mod := range mods {
		if _, err := h.Attach(mod); err != nil {
			t.Fatalf("attach %s: %v", mod, err)
		}
	}
}

func mustCall(t *testing.T, h *Host, name string, args ...any) any {
	t.Helper()
	val, err := h.Call(name, args...)
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	return val
}

func requireNoOperation(t *testing.T, err error, name string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected undefined operation error for %s", name)
	}
	if !errors.Is(err, ErrNoOperation) {
		t.Fatalf("expected ErrNoOperation, got %v", err)
	}
	var noOp *NoOperationError
	if !errors.As(err, &noOp) || noOp.Name != name {
		t.Fatalf("expected NoOperationError for %s, got %#v", name, err)
	}
}
