package compound

// Self is the receiver handle passed to every operation. Inside a module
// operation it refers to the module's Part; inside a native operation it
// refers to the Host and Part returns nil.
type Self struct {
	host   *Host
	part   *Part
	module *Module
}

// Call self-sends name: the receiver's own operations of any visibility
// first, then the host.
func (s *Self) Call(name string, args ...any) (any, error) {
	return s.Invoke(name, args, nil, nil)
}

func (s *Self) Invoke(name string, args []any, kwargs map[string]any, block Block) (any, error) {
	if s.part != nil {
		return s.part.Invoke(name, args, kwargs, block)
	}
	return s.host.send(name, args, kwargs, block)
}

func (s *Self) Get(key string) any {
	if s.part != nil {
		return s.part.Get(key)
	}
	return s.host.Get(key)
}

func (s *Self) Set(key string, val any) {
	if s.part != nil {
		s.part.Set(key, val)
		return
	}
	s.host.Set(key, val)
}

// Host returns the owning host, or nil for a part bound with Extend.
func (s *Self) Host() *Host { return s.host }

func (s *Self) Part() *Part { return s.part }

// Module returns the module that defines the running operation.
func (s *Self) Module() *Module { return s.module }

// State returns the part's typed state, or nil for native operations.
func (s *Self) State() any {
	if s.part == nil {
		return nil
	}
	return s.part.state
}

// StateOf returns the part's typed state as T.
func StateOf[T any](s *Self) (T, bool) {
	val, ok := s.State().(T)
	return val, ok
}
