package runtime

import "github.com/tscore-lang/tscore/internal/errors"

// Closure is a first-class function value: an arrow function (possibly
// async) with its defining environment already captured inside Handle by
// the compiler at the point the ArrowFn expression was evaluated. Handle
// needs no access to the captured Environment through the Context passed at
// call time — it closes over it directly, like any Go closure.
type Closure struct {
	Handle MethodHandle
	Label  string // for diagnostics, e.g. "<arrow>" or a named function
}

func (c *Closure) Type() string   { return "closure" }
func (c *Closure) String() string { return "[Function: " + c.Label + "]" }

// Call invokes the closure with the given arguments. ctx supplies the call
// stack and engine only; the closure's own lexical environment is already
// bound inside Handle.
func (c *Closure) Call(ctx *Context, args []Value) (Value, *errors.RuntimeError) {
	return c.Handle(ctx, UndefinedValue, args)
}
