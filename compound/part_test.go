package compound

import (
	"errors"
	"slices"
	"testing"
)

type recordingForwarder struct {
	calls []string
	args  [][]any
}

func (f *recordingForwarder) Invoke(name string, args []any, _ map[string]any, _ Block) (any, error) {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return "forwarded " + name, nil
}

func TestPartUsesModuleOperationWhenDefined(t *testing.T) {
	h := NewHost("Widget")
	mod := NewModule("Mod").Define("foo", func(self *Self, args []any, _ map[string]any, _ Block) (any, error) {
		return args[0], nil
	})
	mustAttach(t, h, mod)
	part, _ := h.Registry().Part(mod)

	m, err := part.Method("foo")
	if err != nil {
		t.Fatalf("method foo: %v", err)
	}
	if m.Owner != mod {
		t.Fatalf("expected Mod to own foo, got %v", m.Owner)
	}
	if got, _ := part.Call("foo", 7); got != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
}

func TestPartForwardsMissingCallsToOwner(t *testing.T) {
	owner := &recordingForwarder{}
	mod := NewModule("Mod").Define("foo", constOp(nil))
	part, err := Extend(owner, mod, nil)
	if err != nil {
		t.Fatalf("extend failed: %v", err)
	}

	_, err = part.Method("bar")
	requireNoOperation(t, err, "bar")

	got, err := part.Call("bar", 1, 2)
	if err != nil {
		t.Fatalf("call bar: %v", err)
	}
	if got != "forwarded bar" || len(owner.calls) != 1 || len(owner.args[0]) != 2 {
		t.Fatalf("expected bar to be forwarded verbatim, got %v %v", got, owner.args)
	}
	if part.Host() != nil || part.Attached() {
		t.Fatalf("extended part should not belong to a host")
	}
}

func TestPartWithoutOwnerFails(t *testing.T) {
	part, err := Extend(nil, NewModule("Mod"), nil)
	if err != nil {
		t.Fatalf("extend failed: %v", err)
	}
	_, err = part.Call("anything")
	requireNoOperation(t, err, "anything")
}

func TestPartMethodIgnoresHostAndSiblingOperations(t *testing.T) {
	h := NewHost("Widget")
	h.Define("native", constOp(nil))
	foo, bar := newFoo(), newBar()
	mustAttach(t, h, foo, bar)
	foo.DefinePrivate("helper", constOp("help"))
	part, _ := h.Registry().Part(foo)

	m, err := part.Method("helper")
	if err != nil {
		t.Fatalf("private method should be visible on its own part: %v", err)
	}
	if !m.Private() {
		t.Fatalf("expected helper to be private")
	}
	for _, name := range []string{"native", "bar"} {
		_, err := part.Method(name)
		requireNoOperation(t, err, name)
	}
	if got, _ := part.Call("bar"); got != "bar" {
		t.Fatalf("calls should still forward, got %v", got)
	}
}

func TestPartIvarsAreCopied(t *testing.T) {
	h := NewHost("Widget")
	foo := newFoo()
	mustAttach(t, h, foo)
	part, _ := h.Registry().Part(foo)
	part.Set("k", 1)

	ivars := part.Ivars()
	ivars["k"] = 2
	if part.Get("k") != 1 {
		t.Fatalf("Ivars should return a copy")
	}
}

func TestPartSelfReportsDefiningModule(t *testing.T) {
	h := NewHost("Widget")
	base := NewModule("Base").Define("who", func(self *Self, _ []any, _ map[string]any, _ Block) (any, error) {
		return self.Module(), nil
	})
	mod := NewModule("Mod").Include(base)
	mustAttach(t, h, mod)

	got := mustCall(t, h, "who")
	if got != base {
		t.Fatalf("expected Base, got %v", got)
	}
}

func TestModuleVisibilityChanges(t *testing.T) {
	h := NewHost("Widget")
	foo := newFoo()
	mustAttach(t, h, foo)

	if !foo.SetPrivate("foo", true) {
		t.Fatalf("expected foo to exist")
	}
	_, err := h.Call("foo")
	if !errors.Is(err, ErrNoOperation) {
		t.Fatalf("expected private foo to be hidden, got %v", err)
	}
	foo.SetPrivate("foo", false)
	if got := mustCall(t, h, "foo"); got != "foo" {
		t.Fatalf("expected foo again, got %v", got)
	}
	if foo.SetPrivate("missing", true) || foo.Remove("missing") {
		t.Fatalf("missing operations should report false")
	}
}

func TestModuleIncludeOrder(t *testing.T) {
	a := NewModule("A").Define("x", constOp("a"))
	b := NewModule("B").Define("x", constOp("b"))
	mod := NewModule("M").Include(a, b, nil)
	mod.Include(mod)

	op, ok := mod.Lookup("x")
	if !ok || op.Owner != b {
		t.Fatalf("later include should win, got %v", op)
	}
	if len(mod.Ancestors()) != 3 || len(mod.Includes()) != 2 {
		t.Fatalf("unexpected ancestors %v", mod.Ancestors())
	}
	mod.Define("x", constOp("m"))
	if op, _ := mod.Lookup("x"); op.Owner != mod {
		t.Fatalf("own operation should win over includes")
	}

	d := NewModule("D").Define("who", constOp("D"))
	left := NewModule("B").Define("who", constOp("B")).Include(d)
	right := NewModule("C").Include(d)
	top := NewModule("A").Include(left, right)

	got := top.Ancestors()
	want := []*Module{top, right, left, d}
	if !slices.Equal(got, want) {
		t.Fatalf("diamond ancestors = %v, want %v", got, want)
	}
	if op, _ := top.Lookup("who"); op.Owner != left {
		t.Fatalf("shared include should rank below both includers, got %v", op.Owner)
	}
}

func TestModuleDefineNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for nil func")
		}
	}()
	NewModule("M").Define("x", nil)
}
