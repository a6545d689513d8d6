package compound

import (
	"fmt"
	"iter"
	"slices"

	"go.uber.org/zap"
)

// Registry is the ordered set of Parts a Host owns, most recently attached
// first. It holds at most one Part per Module.
//
// Mutations replace the backing slice rather than editing it, so a sequence
// that is already being ranged over keeps seeing the parts it started with.
type Registry struct {
	host  *Host
	parts []*Part
}

func (r *Registry) attach(mod *Module) (*Module, error) {
	if mod == nil {
		return nil, ErrNilModule
	}
	prev := r.parts
	replaced := slices.IndexFunc(prev, func(p *Part) bool { return p.module == mod })
	part := newPart(r.host, r.host, mod)
	next := make([]*Part, 0, len(prev)+1)
	next = append(next, part)
	for _, p := range prev {
		if p.module != mod {
			next = append(next, p)
		}
	}
	r.parts = next

	if mod.guard == guardAttach {
		r.host.warner.Warn(mod.String())
	}
	if mod.onAttach != nil {
		if err := mod.onAttach(r.host, part); err != nil {
			r.undoAttach(part, prev, replaced)
			return nil, fmt.Errorf("compound: attach %s: %w", mod, err)
		}
	}
	r.host.logger.Debug("attached module",
		zap.String("module", mod.String()),
		zap.String("host", r.host.String()),
		zap.Int("parts", len(r.parts)),
		zap.Bool("replaced", replaced >= 0),
	)
	return mod, nil
}

// undoAttach takes part back out after its hook failed and restores the
// part it replaced, if any. Parts the hook attached on its own stay.
func (r *Registry) undoAttach(part *Part, prev []*Part, replaced int) {
	next := slices.DeleteFunc(slices.Clone(r.parts), func(p *Part) bool { return p == part })
	if replaced >= 0 && !slices.ContainsFunc(next, func(p *Part) bool { return p.module == part.module }) {
		pos := len(next)
		for _, after := range prev[replaced+1:] {
			if i := slices.Index(next, after); i >= 0 {
				pos = i
				break
			}
		}
		next = slices.Insert(next, pos, prev[replaced])
	}
	r.parts = next
}

func (r *Registry) detach(mod *Module) (*Module, bool) {
	for i, p := range r.parts {
		if p.module != mod {
			continue
		}
		next := make([]*Part, 0, len(r.parts)-1)
		next = append(next, r.parts[:i]...)
		next = append(next, r.parts[i+1:]...)
		r.parts = next
		r.host.logger.Debug("detached module",
			zap.String("module", mod.String()),
			zap.String("host", r.host.String()),
			zap.Int("parts", len(r.parts)),
		)
		return mod, true
	}
	return nil, false
}

// findPublic returns the highest-priority part currently exposing name.
func (r *Registry) findPublic(name string) (*Part, bool) {
	for _, p := range r.parts {
		if p.module.Exposes(name) {
			return p, true
		}
	}
	return nil, false
}

// findAny is findPublic without the visibility check. Only the host's own
// utilities use it; forwarding never does.
func (r *Registry) findAny(name string) (*Part, bool) {
	for _, p := range r.parts {
		if p.module.Defines(name) {
			return p, true
		}
	}
	return nil, false
}

// Definer returns the highest-priority part defining name at any
// visibility. It is meant for tooling that reports where behaviour lives.
func (r *Registry) Definer(name string) (*Part, bool) {
	return r.findAny(name)
}

// Parts yields the parts in priority order.
func (r *Registry) Parts() iter.Seq[*Part] {
	return func(yield func(*Part) bool) {
		for _, p := range r.parts {
			if !yield(p) {
				return
			}
		}
	}
}

// Pairs yields each module with its part, in priority order.
func (r *Registry) Pairs() iter.Seq2[*Module, *Part] {
	return func(yield func(*Module, *Part) bool) {
		for _, p := range r.parts {
			if !yield(p.module, p) {
				return
			}
		}
	}
}

func (r *Registry) Len() int { return len(r.parts) }

// Modules returns the attached modules in priority order.
func (r *Registry) Modules() []*Module {
	out := make([]*Module, len(r.parts))
	for i, p := range r.parts {
		out[i] = p.module
	}
	return out
}

// Part returns the part bound to exactly mod.
func (r *Registry) Part(mod *Module) (*Part, bool) {
	for _, p := range r.parts {
		if p.module == mod {
			return p, true
		}
	}
	return nil, false
}

// SendToParts invokes name, public or private, on every part that defines
// it and collects the results by module. Parts without name are skipped.
func (r *Registry) SendToParts(name string, args []any, kwargs map[string]any, block Block) (map[*Module]any, error) {
	out := make(map[*Module]any)
	for _, p := range r.parts {
		if !p.Defines(name) {
			continue
		}
		val, err := p.Invoke(name, args, kwargs, block)
		if err != nil {
			return out, fmt.Errorf("compound: send %s to %s: %w", name, p.module, err)
		}
		out[p.module] = val
	}
	return out, nil
}

// SendToPart self-sends name on the part bound to exactly mod.
func (r *Registry) SendToPart(mod *Module, name string, args []any, kwargs map[string]any, block Block) (any, error) {
	p, ok := r.Part(mod)
	if !ok {
		return nil, &ModuleNotFoundError{Module: mod.String(), Host: r.host.String()}
	}
	return p.Invoke(name, args, kwargs, block)
}
