package manifest

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/mgomes/compound/compound"
	"go.uber.org/zap"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*(@?[A-Za-z0-9_.-]+)\s*\}\}`)

// Set is the result of building a manifest: its modules by name and the
// host, when the manifest declares one.
type Set struct {
	Modules map[string]*compound.Module
	Host    *compound.Host

	order   []string
	hostOps []string
	logger  *zap.Logger
}

// Build validates m and turns it into live modules. When m declares a host,
// the host is created and the listed modules are attached in order.
func (m *Manifest) Build(logger *zap.Logger) (*Set, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	set := &Set{
		Modules: make(map[string]*compound.Module, len(m.Modules)),
		logger:  logger,
	}
	set.apply(m)

	if m.Host != nil {
		h := compound.NewHost(m.Host.Kind, compound.WithLogger(logger))
		set.Host = h
		set.applyHost(m.Host)
		for _, name := range m.Host.Attach {
			if _, err := h.Attach(set.Modules[name]); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// Apply redefines the operations of the set's modules in place from m.
// Attached parts see the new operations on their next call. New modules
// are added; the host's attachments are left alone.
func (s *Set) Apply(m *Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.apply(m)
	if s.Host != nil && m.Host != nil {
		s.applyHost(m.Host)
	}
	s.logger.Debug("applied manifest", zap.Int("modules", len(m.Modules)))
	return nil
}

// Module returns the module declared under name.
func (s *Set) Module(name string) (*compound.Module, bool) {
	mod, ok := s.Modules[name]
	return mod, ok
}

// Names returns the module names in declaration order.
func (s *Set) Names() []string {
	return slices.Clone(s.order)
}

func (s *Set) apply(m *Manifest) {
	for _, spec := range m.Modules {
		if _, ok := s.Modules[spec.Name]; !ok {
			s.Modules[spec.Name] = compound.NewModule(spec.Name)
			s.order = append(s.order, spec.Name)
		}
	}
	for _, spec := range m.Modules {
		mod := s.Modules[spec.Name]
		includes := make([]*compound.Module, 0, len(spec.Include))
		for _, name := range spec.Include {
			includes = append(includes, s.Modules[name])
		}
		mod.SetIncludes(includes...)

		switch spec.Guard {
		case guardStandalone:
			compound.Guard(mod)
		case guardAttach:
			compound.GuardAgainst(mod)
		default:
			compound.Unguard(mod)
		}

		keep := make(map[string]struct{}, len(spec.Operations))
		for _, op := range spec.Operations {
			keep[op.Name] = struct{}{}
			if op.Private {
				mod.DefinePrivate(op.Name, compileOperation(op))
			} else {
				mod.Define(op.Name, compileOperation(op))
			}
		}
		for _, name := range mod.Operations() {
			if _, ok := keep[name]; !ok {
				mod.Remove(name)
			}
		}
	}
}

func (s *Set) applyHost(spec *HostSpec) {
	keep := make(map[string]struct{}, len(spec.Operations))
	for _, op := range spec.Operations {
		keep[op.Name] = struct{}{}
		if op.Private {
			s.Host.DefinePrivate(op.Name, compileOperation(op))
		} else {
			s.Host.Define(op.Name, compileOperation(op))
		}
	}
	for _, name := range s.hostOps {
		if _, ok := keep[name]; !ok {
			s.Host.Undefine(name)
		}
	}
	s.hostOps = s.hostOps[:0]
	for _, op := range spec.Operations {
		s.hostOps = append(s.hostOps, op.Name)
	}
}

// compileOperation turns the declared steps into an operation. The result
// of the last step is the operation's result.
func compileOperation(spec OperationSpec) compound.Func {
	steps := slices.Clone(spec.Steps)
	return func(self *compound.Self, args []any, kwargs map[string]any, block compound.Block) (any, error) {
		sc := &scope{self: self, args: args, kwargs: kwargs}
		for _, step := range steps {
			switch {
			case step.Call != "":
				callArgs := make([]any, len(step.Args))
				for i, raw := range step.Args {
					callArgs[i] = sc.expand(raw)
				}
				val, err := self.Invoke(step.Call, callArgs, nil, block)
				if err != nil {
					return nil, err
				}
				sc.last = val
			case step.Get != "":
				sc.last = self.Get(step.Get)
			case step.Set != "":
				val := sc.last
				if step.Value != nil {
					val = sc.expand(*step.Value)
				}
				self.Set(step.Set, val)
				sc.last = val
			case step.Value != nil:
				sc.last = sc.expand(*step.Value)
			}
		}
		return sc.last, nil
	}
}

type scope struct {
	self   *compound.Self
	args   []any
	kwargs map[string]any
	last   any
}

// expand substitutes {{_}}, {{0}}, {{@ivar}} and {{kwarg}} placeholders. A
// value that is exactly one placeholder keeps the referenced value's type.
func (sc *scope) expand(raw string) any {
	if m := placeholderPattern.FindStringSubmatchIndex(raw); m != nil && m[0] == 0 && m[1] == len(raw) {
		return sc.lookup(raw[m[2]:m[3]])
	}
	return placeholderPattern.ReplaceAllStringFunc(raw, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		val := sc.lookup(name)
		if val == nil {
			return ""
		}
		return fmt.Sprint(val)
	})
}

func (sc *scope) lookup(name string) any {
	switch {
	case name == "_":
		return sc.last
	case strings.HasPrefix(name, "@"):
		return sc.self.Get(name[1:])
	}
	if idx, err := strconv.Atoi(name); err == nil {
		if idx < 0 || idx >= len(sc.args) {
			return nil
		}
		return sc.args[idx]
	}
	return sc.kwargs[name]
}
