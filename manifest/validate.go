package manifest

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

const (
	guardStandalone = "standalone"
	guardAttach     = "attach"
)

// Validate reports every problem in m at once.
func (m *Manifest) Validate() error {
	var errs error
	specs := make(map[string]*ModuleSpec, len(m.Modules))
	for i := range m.Modules {
		spec := &m.Modules[i]
		if strings.TrimSpace(spec.Name) == "" {
			errs = multierr.Append(errs, fmt.Errorf("module #%d: name is required", i+1))
			continue
		}
		if _, dup := specs[spec.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("module %q: declared more than once", spec.Name))
			continue
		}
		specs[spec.Name] = spec
	}

	for _, name := range sortedNames(specs) {
		spec := specs[name]
		where := fmt.Sprintf("module %q", spec.Name)
		switch spec.Guard {
		case "", guardStandalone, guardAttach:
		default:
			errs = multierr.Append(errs, fmt.Errorf("%s: unknown guard %q", where, spec.Guard))
		}
		for _, name := range spec.Include {
			if _, ok := specs[name]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("%s: includes unknown module %q", where, name))
			}
		}
		errs = multierr.Append(errs, validateOperations(where, spec.Operations))
	}
	errs = multierr.Append(errs, includeCycles(specs))

	if m.Host != nil {
		for _, name := range m.Host.Attach {
			if _, ok := specs[name]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("host: attaches unknown module %q", name))
			}
		}
		errs = multierr.Append(errs, validateOperations("host", m.Host.Operations))
	}
	return errs
}

func validateOperations(where string, ops []OperationSpec) error {
	var errs error
	seen := make(map[string]struct{}, len(ops))
	for i, op := range ops {
		if strings.TrimSpace(op.Name) == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s: operation #%d: name is required", where, i+1))
			continue
		}
		if _, dup := seen[op.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%s: operation %q declared more than once", where, op.Name))
		}
		seen[op.Name] = struct{}{}
		for j, step := range op.Steps {
			if err := step.validate(); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: operation %q: step #%d: %w", where, op.Name, j+1, err))
			}
		}
	}
	return errs
}

func (s StepSpec) validate() error {
	actions := 0
	for _, set := range []bool{s.Call != "", s.Get != "", s.Set != "", s.Value != nil && s.Set == ""} {
		if set {
			actions++
		}
	}
	switch {
	case actions == 0:
		return fmt.Errorf("no action given")
	case actions > 1:
		return fmt.Errorf("more than one action given")
	case len(s.Args) > 0 && s.Call == "":
		return fmt.Errorf("args given without call")
	}
	return nil
}

func includeCycles(specs map[string]*ModuleSpec) error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(specs))
	var errs error
	var visit func(name string, path []string)
	visit = func(name string, path []string) {
		spec, ok := specs[name]
		if !ok {
			return
		}
		switch state[name] {
		case visiting:
			errs = multierr.Append(errs, fmt.Errorf("include cycle: %s", strings.Join(append(path, name), " -> ")))
			return
		case done:
			return
		}
		state[name] = visiting
		next := append(slices.Clone(path), name)
		for _, inc := range spec.Include {
			visit(inc, next)
		}
		state[name] = done
	}
	for _, name := range sortedNames(specs) {
		visit(name, nil)
	}
	return errs
}

func sortedNames(specs map[string]*ModuleSpec) []string {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
