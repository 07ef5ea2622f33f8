package runtime

import (
	"fmt"

	"github.com/tscore-lang/tscore/internal/errors"
	"github.com/tscore-lang/tscore/pkg/ast"
)

// BuiltinMethod is a host-implemented method, used for the built-ins the
// core exposes on the Promise object (array and task methods are dispatched
// by name in the compiler instead).
type BuiltinMethod struct {
	Name    string
	Arity   int // maximum accepted argument count
	MinArgs int // minimum required argument count
	Body    func(ctx *Context, self Value, args []Value) (Value, *errors.RuntimeError)
}

func (b *BuiltinMethod) Type() string   { return "builtin" }
func (b *BuiltinMethod) String() string { return "[native function: " + b.Name + "]" }

// Call validates arity and invokes Body.
func (b *BuiltinMethod) Call(ctx *Context, self Value, args []Value) (Value, *errors.RuntimeError) {
	if len(args) < b.MinArgs || len(args) > b.Arity {
		return nil, errors.NewRuntimeError("TypeError", ast.Position{},
			fmt.Sprintf("%s expects between %d and %d arguments, got %d", b.Name, b.MinArgs, b.Arity, len(args)),
			ctx.CallStack)
	}
	return b.Body(ctx, self, args)
}
