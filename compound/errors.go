package compound

import (
	"errors"
	"fmt"
)

var (
	// ErrNoOperation is matched by every NoOperationError.
	ErrNoOperation = errors.New("undefined operation")
	// ErrModuleNotFound is matched by every ModuleNotFoundError.
	ErrModuleNotFound = errors.New("module not attached")
	ErrNilModule      = errors.New("compound: nil module")
)

// NoOperationError reports a name no reachable module, nor the receiver
// itself, defines.
type NoOperationError struct {
	Name     string
	Receiver string
}

func (e *NoOperationError) Error() string {
	return fmt.Sprintf("undefined operation `%s' for %s", e.Name, e.Receiver)
}

func (e *NoOperationError) Is(target error) bool {
	return target == ErrNoOperation
}

// ModuleNotFoundError reports a module with no Part on the host.
type ModuleNotFoundError struct {
	Module string
	Host   string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module %s is not attached to %s", e.Module, e.Host)
}

func (e *ModuleNotFoundError) Is(target error) bool {
	return target == ErrModuleNotFound
}
