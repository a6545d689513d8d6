package compound

import "go.uber.org/zap"

// Warner receives advisories about modules used outside their intended
// composition path. Warnings never change behaviour.
type Warner interface {
	Warn(subject string)
}

// WarnFunc adapts a function to Warner.
type WarnFunc func(subject string)

func (f WarnFunc) Warn(subject string) { f(subject) }

type logWarner struct {
	logger *zap.Logger
}

// NewLogWarner returns the default Warner, which logs at warn level.
func NewLogWarner(logger *zap.Logger) Warner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logWarner{logger: logger}
}

func (w logWarner) Warn(subject string) {
	w.logger.Warn(subject+" is intended only for use in a compound part",
		zap.String("subject", subject),
		zap.String("hint", "use Host.Attach instead of binding the module directly"),
	)
}

// Guard marks mod as meant to be used only through Host.Attach. Binding it
// with Extend emits a warning.
func Guard(mod *Module) *Module {
	mod.guard = guardStandalone
	return mod
}

// GuardAgainst marks mod as not meant to be attached at all. Every attach
// emits a warning just before the module's OnAttach hook runs.
func GuardAgainst(mod *Module) *Module {
	mod.guard = guardAttach
	return mod
}

// Unguard clears any mark set by Guard or GuardAgainst.
func Unguard(mod *Module) *Module {
	mod.guard = guardNone
	return mod
}

// Extend binds mod directly to target, bypassing any host registry. Calls
// the module cannot satisfy are forwarded to target. A Guard-marked module
// still works but reports itself to w, unless target is itself a Part.
func Extend(target Forwarder, mod *Module, w Warner) (*Part, error) {
	if mod == nil {
		return nil, ErrNilModule
	}
	if _, isPart := target.(*Part); mod.guard == guardStandalone && w != nil && !isPart {
		w.Warn(mod.String())
	}
	// Without a host the part forwards through target's public surface.
	return newPart(nil, target, mod), nil
}
