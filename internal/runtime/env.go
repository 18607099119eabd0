package runtime

// Environment represents a variable scope with a parent chain. Closures hold
// on to the environment they were created in, so a scope lives as long as
// anything still references it.
type Environment struct {
	values map[string]Value
	parent *Environment
}

// NewEnvironment creates a new environment with an optional parent scope.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: parent,
	}
}

// Define binds name in this scope. Redefinition overwrites, which the REPL
// relies on for globals.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Get looks up a variable by walking the scope chain.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if val, exists := env.values[name]; exists {
			return val, true
		}
	}
	return nil, false
}

// Assign updates an existing variable somewhere on the chain. It reports
// false if no scope defines name.
func (e *Environment) Assign(name string, value Value) bool {
	for env := e; env != nil; env = env.parent {
		if _, exists := env.values[name]; exists {
			env.values[name] = value
			return true
		}
	}
	return false
}

// GetAt reads name from the scope exactly distance hops up the chain.
func (e *Environment) GetAt(distance int, name string) (Value, bool) {
	val, ok := e.ancestor(distance).values[name]
	return val, ok
}

// AssignAt writes name in the scope exactly distance hops up the chain.
func (e *Environment) AssignAt(distance int, name string, value Value) {
	e.ancestor(distance).values[name] = value
}

func (e *Environment) ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance; i++ {
		env = env.parent
	}
	return env
}

// Names returns the names defined directly in this scope.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	return names
}
