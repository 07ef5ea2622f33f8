package runtime

import "github.com/tscore-lang/tscore/pkg/ident"

// Environment is a lexical scope: a case-insensitive variable store chained
// to an enclosing (outer) scope. Closures (including async arrow functions)
// capture the Environment active at their creation point.
type Environment struct {
	store *ident.Map[Value]
	outer *Environment
}

// NewEnvironment creates a root environment with no outer scope.
func NewEnvironment() *Environment {
	return &Environment{store: ident.NewMap[Value]()}
}

// NewEnclosedEnvironment creates a scope nested inside outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{store: ident.NewMap[Value](), outer: outer}
}

// Get searches this scope, then each enclosing scope in turn.
func (e *Environment) Get(name string) (Value, bool) {
	if v, ok := e.store.Get(name); ok {
		return v, true
	}
	if e.outer != nil {
		return e.outer.Get(name)
	}
	return nil, false
}

// Define creates (or overwrites) a binding in this scope specifically,
// regardless of whether an outer scope already defines the same name
// (shadowing).
func (e *Environment) Define(name string, value Value) {
	e.store.Set(name, value)
}

// Set assigns to the nearest scope (this one or an outer one) that already
// defines name. Returns false if name is undefined in the whole chain.
func (e *Environment) Set(name string, value Value) bool {
	if e.store.Has(name) {
		e.store.Set(name, value)
		return true
	}
	if e.outer != nil {
		return e.outer.Set(name, value)
	}
	return false
}
