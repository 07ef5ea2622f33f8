package runtime

import "github.com/tscore-lang/tscore/internal/errors"

// Context threads the pieces of state that travel with one logical call:
// the current lexical scope, the call stack (for error reporting), and a
// callback into the Engine for operations that need the class registry
// (construction, virtual dispatch, calling a free function by name).
//
// Context decouples runtime (Value/Environment/Instance) from the compiler
// package that actually implements Engine, avoiding an import cycle.
type Context struct {
	Env       *Environment
	CallStack errors.StackTrace
	Engine    Engine
}

// NewContext creates a root context bound to env and engine.
func NewContext(env *Environment, engine Engine) *Context {
	return &Context{Env: env, Engine: engine}
}

// WithEnv returns a copy of the context using a different lexical scope
// (e.g. a freshly enclosed block scope), sharing the same call stack slice
// header and engine.
func (c *Context) WithEnv(env *Environment) *Context {
	cp := *c
	cp.Env = env
	return &cp
}

// PushFrame returns a copy of the context with one more call-stack frame.
func (c *Context) PushFrame(frame errors.StackFrame) *Context {
	cp := *c
	cp.CallStack = append(append(errors.StackTrace{}, c.CallStack...), frame)
	return &cp
}

// MethodHandle is an executable method/constructor/accessor body, produced
// by the method emitter or the async lowering. self is Undefined for static
// methods and free functions.
type MethodHandle func(ctx *Context, self Value, args []Value) (Value, *errors.RuntimeError)

// Engine is the subset of the compiler's Program the runtime value layer
// needs to call back into: constructing instances and resolving virtual
// dispatch both require the class registry, which lives above runtime in
// the package graph.
type Engine interface {
	// NewInstance runs the full constructor chain for className and
	// returns the new Instance.
	NewInstance(ctx *Context, className string, args []Value) (Value, *errors.RuntimeError)
	// CallFunction invokes a top-level function by name.
	CallFunction(ctx *Context, name string, args []Value) (Value, *errors.RuntimeError)
	// ResolveVirtual looks up the dispatch target for a method name on an
	// instance's class, walking the superclass chain (late binding).
	ResolveVirtual(instance *Instance, name string) (MethodHandle, *errors.RuntimeError)
	// ResolveGetter/ResolveSetter mirror ResolveVirtual for accessors.
	ResolveGetter(instance *Instance, name string) (MethodHandle, *errors.RuntimeError)
	ResolveSetter(instance *Instance, name string) (MethodHandle, *errors.RuntimeError)
}
