// Package compiler implements the compilation pipeline: class
// registration, the synchronous method emitter, and the async lowering that
// turns an async method body into a state machine driven by the task
// runtime. Expression evaluation (this file) is shared between the
// synchronous executor (sync_exec.go) and the async state machine driver
// (machine.go) — both call Eval for anything that is not itself a
// suspension point.
package compiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tscore-lang/tscore/internal/errors"
	"github.com/tscore-lang/tscore/internal/runtime"
	"github.com/tscore-lang/tscore/pkg/ast"
)

func typeError(ctx *runtime.Context, pos ast.Position, format string, args ...any) (runtime.Value, *errors.RuntimeError) {
	return nil, errors.NewRuntimeError("TypeError", pos, fmt.Sprintf(format, args...), ctx.CallStack)
}

// Eval evaluates expr in ctx.Env and returns its value, or a RuntimeError.
// AwaitExpr is deliberately unhandled here: it is only meaningful inside an
// async lowering's opAwait, so encountering one here means it slipped past
// an async-context check.
func Eval(ctx *runtime.Context, expr ast.Expression) (runtime.Value, *errors.RuntimeError) {
	switch e := expr.(type) {
	case *ast.Literal:
		return evalLiteral(e), nil

	case *ast.Identifier:
		if v, ok := ctx.Env.Get(e.Name); ok {
			return v, nil
		}
		return typeError(ctx, e.Position, "%s is not defined", e.Name)

	case *ast.BinaryExpr:
		return evalBinary(ctx, e)

	case *ast.UnaryExpr:
		return evalUnary(ctx, e)

	case *ast.CallExpr:
		return evalCall(ctx, e)

	case *ast.MemberAccess:
		obj, rerr := Eval(ctx, e.Object)
		if rerr != nil {
			return nil, rerr
		}
		return readMember(ctx, e.Position, obj, e.Name)

	case *ast.IndexExpr:
		obj, rerr := Eval(ctx, e.Object)
		if rerr != nil {
			return nil, rerr
		}
		idx, rerr := Eval(ctx, e.Index)
		if rerr != nil {
			return nil, rerr
		}
		return readIndex(ctx, e.Position, obj, idx)

	case *ast.NewExpr:
		args, rerr := evalArgs(ctx, e.Args)
		if rerr != nil {
			return nil, rerr
		}
		return ctx.Engine.NewInstance(ctx, e.ClassName, args)

	case *ast.SuperExpr:
		return typeError(ctx, e.Position, "super is only valid as a call target")

	case *ast.ArrayLit:
		elems := make([]runtime.Value, len(e.Elements))
		for i, el := range e.Elements {
			v, rerr := Eval(ctx, el)
			if rerr != nil {
				return nil, rerr
			}
			elems[i] = v
		}
		return runtime.NewArray(elems), nil

	case *ast.ObjectLit:
		obj := runtime.NewObject()
		for _, p := range e.Properties {
			v, rerr := Eval(ctx, p.Value)
			if rerr != nil {
				return nil, rerr
			}
			obj.Set(p.Key, v)
		}
		return obj, nil

	case *ast.ArrowFn:
		return compileArrowFn(ctx, e), nil

	case *ast.TemplateLit:
		var sb strings.Builder
		for _, part := range e.Parts {
			if part.Expr == nil {
				sb.WriteString(part.Literal)
				continue
			}
			v, rerr := Eval(ctx, part.Expr)
			if rerr != nil {
				return nil, rerr
			}
			sb.WriteString(v.String())
		}
		return runtime.StringOf(sb.String()), nil

	case *ast.AssertExpr:
		return Eval(ctx, e.Value)

	case *ast.NonNullExpr:
		return Eval(ctx, e.Value)

	case *ast.CastExpr:
		return Eval(ctx, e.Value)

	case *ast.AwaitExpr:
		return typeError(ctx, e.Position, "await is only valid inside an async function")

	default:
		return typeError(ctx, expr.Pos(), "unsupported expression node %T", expr)
	}
}

func evalLiteral(l *ast.Literal) runtime.Value {
	switch l.Kind {
	case ast.LiteralUndefined:
		return runtime.UndefinedValue
	case ast.LiteralNull:
		return runtime.NullValue
	case ast.LiteralBool:
		return runtime.BoolOf(l.Bool)
	case ast.LiteralNumber:
		return runtime.NumberOf(l.Number)
	case ast.LiteralString:
		return runtime.StringOf(l.String)
	default:
		return runtime.UndefinedValue
	}
}

func evalArgs(ctx *runtime.Context, exprs []ast.Expression) ([]runtime.Value, *errors.RuntimeError) {
	args := make([]runtime.Value, len(exprs))
	for i, a := range exprs {
		v, rerr := Eval(ctx, a)
		if rerr != nil {
			return nil, rerr
		}
		args[i] = v
	}
	return args, nil
}

func asNumber(ctx *runtime.Context, pos ast.Position, v runtime.Value) (float64, *errors.RuntimeError) {
	switch n := v.(type) {
	case runtime.Number:
		return n.Value, nil
	case runtime.Str:
		f, ok := parseFloat(n.Value)
		if ok {
			return f, nil
		}
		return math.NaN(), nil
	case runtime.Bool:
		if n.Value {
			return 1, nil
		}
		return 0, nil
	case runtime.Undefined:
		return math.NaN(), nil
	case runtime.Null:
		return 0, nil
	default:
		return math.NaN(), nil
	}
}

func evalUnary(ctx *runtime.Context, u *ast.UnaryExpr) (runtime.Value, *errors.RuntimeError) {
	v, rerr := Eval(ctx, u.Operand)
	if rerr != nil {
		return nil, rerr
	}
	switch u.Op {
	case "!":
		return runtime.BoolOf(runtime.IsFalsey(v)), nil
	case "-":
		n, rerr := asNumber(ctx, u.Position, v)
		if rerr != nil {
			return nil, rerr
		}
		return runtime.NumberOf(-n), nil
	case "+":
		n, rerr := asNumber(ctx, u.Position, v)
		if rerr != nil {
			return nil, rerr
		}
		return runtime.NumberOf(n), nil
	case "typeof":
		return runtime.StringOf(jsTypeOf(v)), nil
	default:
		return typeError(ctx, u.Position, "unsupported unary operator %q", u.Op)
	}
}

func jsTypeOf(v runtime.Value) string {
	switch v.(type) {
	case runtime.Undefined, nil:
		return "undefined"
	case runtime.Bool:
		return "boolean"
	case runtime.Number:
		return "number"
	case runtime.Str:
		return "string"
	case *runtime.Closure, *runtime.BuiltinMethod:
		return "function"
	default:
		return "object"
	}
}

func evalBinary(ctx *runtime.Context, b *ast.BinaryExpr) (runtime.Value, *errors.RuntimeError) {
	switch b.Op {
	case "=":
		v, rerr := Eval(ctx, b.Right)
		if rerr != nil {
			return nil, rerr
		}
		if rerr := assign(ctx, b.Left, v); rerr != nil {
			return nil, rerr
		}
		return v, nil

	case "+=", "-=", "*=", "/=", "%=":
		cur, rerr := Eval(ctx, b.Left)
		if rerr != nil {
			return nil, rerr
		}
		rhs, rerr := Eval(ctx, b.Right)
		if rerr != nil {
			return nil, rerr
		}
		result, rerr := applyCompound(ctx, b.Position, b.Op, cur, rhs)
		if rerr != nil {
			return nil, rerr
		}
		if rerr := assign(ctx, b.Left, result); rerr != nil {
			return nil, rerr
		}
		return result, nil

	case "&&":
		left, rerr := Eval(ctx, b.Left)
		if rerr != nil {
			return nil, rerr
		}
		if runtime.IsFalsey(left) {
			return left, nil
		}
		return Eval(ctx, b.Right)

	case "||":
		left, rerr := Eval(ctx, b.Left)
		if rerr != nil {
			return nil, rerr
		}
		if !runtime.IsFalsey(left) {
			return left, nil
		}
		return Eval(ctx, b.Right)

	case "??":
		left, rerr := Eval(ctx, b.Left)
		if rerr != nil {
			return nil, rerr
		}
		if _, isUndef := left.(runtime.Undefined); isUndef {
			return Eval(ctx, b.Right)
		}
		if _, isNull := left.(runtime.Null); isNull {
			return Eval(ctx, b.Right)
		}
		return left, nil
	}

	left, rerr := Eval(ctx, b.Left)
	if rerr != nil {
		return nil, rerr
	}
	right, rerr := Eval(ctx, b.Right)
	if rerr != nil {
		return nil, rerr
	}
	return applyBinary(ctx, b.Position, b.Op, left, right)
}

func applyCompound(ctx *runtime.Context, pos ast.Position, op string, left, right runtime.Value) (runtime.Value, *errors.RuntimeError) {
	base := strings.TrimSuffix(op, "=")
	return applyBinary(ctx, pos, base, left, right)
}

func applyBinary(ctx *runtime.Context, pos ast.Position, op string, left, right runtime.Value) (runtime.Value, *errors.RuntimeError) {
	switch op {
	case "+":
		if ls, ok := left.(runtime.Str); ok {
			return runtime.StringOf(ls.Value + right.String()), nil
		}
		if rs, ok := right.(runtime.Str); ok {
			return runtime.StringOf(left.String() + rs.Value), nil
		}
		ln, rerr := asNumber(ctx, pos, left)
		if rerr != nil {
			return nil, rerr
		}
		rn, rerr := asNumber(ctx, pos, right)
		if rerr != nil {
			return nil, rerr
		}
		return runtime.NumberOf(ln + rn), nil
	case "-", "*", "/", "%":
		ln, rerr := asNumber(ctx, pos, left)
		if rerr != nil {
			return nil, rerr
		}
		rn, rerr := asNumber(ctx, pos, right)
		if rerr != nil {
			return nil, rerr
		}
		switch op {
		case "-":
			return runtime.NumberOf(ln - rn), nil
		case "*":
			return runtime.NumberOf(ln * rn), nil
		case "/":
			// Division by zero is not an error: produces +/-Inf or NaN,
			// matching IEEE-754 float division.
			return runtime.NumberOf(ln / rn), nil
		case "%":
			return runtime.NumberOf(math.Mod(ln, rn)), nil
		}
	case "==", "===":
		return runtime.BoolOf(valuesEqual(left, right)), nil
	case "!=", "!==":
		return runtime.BoolOf(!valuesEqual(left, right)), nil
	case "<", ">", "<=", ">=":
		if ls, ok := left.(runtime.Str); ok {
			if rs, ok := right.(runtime.Str); ok {
				return runtime.BoolOf(compareStrings(op, ls.Value, rs.Value)), nil
			}
		}
		ln, rerr := asNumber(ctx, pos, left)
		if rerr != nil {
			return nil, rerr
		}
		rn, rerr := asNumber(ctx, pos, right)
		if rerr != nil {
			return nil, rerr
		}
		return runtime.BoolOf(compareNumbers(op, ln, rn)), nil
	}
	return typeError(ctx, pos, "unsupported binary operator %q", op)
}

func compareStrings(op, l, r string) bool {
	switch op {
	case "<":
		return l < r
	case ">":
		return l > r
	case "<=":
		return l <= r
	case ">=":
		return l >= r
	}
	return false
}

func compareNumbers(op string, l, r float64) bool {
	switch op {
	case "<":
		return l < r
	case ">":
		return l > r
	case "<=":
		return l <= r
	case ">=":
		return l >= r
	}
	return false
}

func valuesEqual(left, right runtime.Value) bool {
	switch l := left.(type) {
	case runtime.Undefined:
		_, ok := right.(runtime.Undefined)
		return ok
	case runtime.Null:
		_, ok := right.(runtime.Null)
		return ok
	case runtime.Bool:
		r, ok := right.(runtime.Bool)
		return ok && l.Value == r.Value
	case runtime.Number:
		r, ok := right.(runtime.Number)
		return ok && l.Value == r.Value
	case runtime.Str:
		r, ok := right.(runtime.Str)
		return ok && l.Value == r.Value
	default:
		return left == right // reference identity for Array/Object/Instance/Closure/Task
	}
}

// readMember implements property reads, including getter dispatch: getters
// are looked up by property name in the class's getter table, which is kept
// apart from the vtable (accessors are not reachable as get_<prop>/set_<prop>
// methods).
func readMember(ctx *runtime.Context, pos ast.Position, obj runtime.Value, name string) (runtime.Value, *errors.RuntimeError) {
	switch v := obj.(type) {
	case runtime.Undefined, runtime.Null, nil:
		return typeError(ctx, pos, "cannot read property %q of %s", name, obj.Type())
	case *runtime.Instance:
		if getter, ok := v.Class.LookupGetter(name); ok {
			return getter(ctx, v, nil)
		}
		if f, ok := v.GetField(name); ok {
			return f, nil
		}
		if handle, _, ok := v.Class.LookupMethod(name); ok {
			return &runtime.Closure{Handle: bindSelf(handle, v), Label: name}, nil
		}
		return runtime.UndefinedValue, nil
	case *runtime.Object:
		if f, ok := v.Get(name); ok {
			return f, nil
		}
		return runtime.UndefinedValue, nil
	case *runtime.Array:
		if name == "length" {
			return runtime.NumberOf(float64(v.Len())), nil
		}
		return runtime.UndefinedValue, nil
	case runtime.Str:
		if name == "length" {
			return runtime.NumberOf(float64(len([]rune(v.Value)))), nil
		}
		return runtime.UndefinedValue, nil
	default:
		return runtime.UndefinedValue, nil
	}
}

func bindSelf(handle runtime.MethodHandle, self runtime.Value) runtime.MethodHandle {
	return func(ctx *runtime.Context, _ runtime.Value, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
		return handle(ctx, self, args)
	}
}

func readIndex(ctx *runtime.Context, pos ast.Position, obj, idx runtime.Value) (runtime.Value, *errors.RuntimeError) {
	switch v := obj.(type) {
	case *runtime.Array:
		n, rerr := asNumber(ctx, pos, idx)
		if rerr != nil {
			return nil, rerr
		}
		return v.Get(int(n)), nil
	case *runtime.Object:
		key := idx.String()
		val, _ := v.Get(key)
		return val, nil
	case runtime.Str:
		n, rerr := asNumber(ctx, pos, idx)
		if rerr != nil {
			return nil, rerr
		}
		runes := []rune(v.Value)
		i := int(n)
		if i < 0 || i >= len(runes) {
			return runtime.UndefinedValue, nil
		}
		return runtime.StringOf(string(runes[i])), nil
	case runtime.Undefined, runtime.Null, nil:
		return typeError(ctx, pos, "cannot read index of %s", obj.Type())
	default:
		return runtime.UndefinedValue, nil
	}
}

// assign writes v through the lvalue expression target: an Identifier,
// MemberAccess, or IndexExpr (the only expression shapes the language
// allows on the left of `=`).
func assign(ctx *runtime.Context, target ast.Expression, v runtime.Value) *errors.RuntimeError {
	switch t := target.(type) {
	case *ast.Identifier:
		if !ctx.Env.Set(t.Name, v) {
			ctx.Env.Define(t.Name, v)
		}
		return nil
	case *ast.MemberAccess:
		obj, rerr := Eval(ctx, t.Object)
		if rerr != nil {
			return rerr
		}
		return writeMember(ctx, t.Position, obj, t.Name, v)
	case *ast.IndexExpr:
		obj, rerr := Eval(ctx, t.Object)
		if rerr != nil {
			return rerr
		}
		idx, rerr := Eval(ctx, t.Index)
		if rerr != nil {
			return rerr
		}
		return writeIndex(ctx, t.Position, obj, idx, v)
	default:
		_, rerr := typeError(ctx, target.Pos(), "invalid assignment target")
		return rerr
	}
}

func writeMember(ctx *runtime.Context, pos ast.Position, obj runtime.Value, name string, v runtime.Value) *errors.RuntimeError {
	switch o := obj.(type) {
	case *runtime.Instance:
		if setter, ok := o.Class.LookupSetter(name); ok {
			_, rerr := setter(ctx, o, []runtime.Value{v})
			return rerr
		}
		o.SetField(name, v)
		return nil
	case *runtime.Object:
		o.Set(name, v)
		return nil
	case runtime.Undefined, runtime.Null, nil:
		_, rerr := typeError(ctx, pos, "cannot set property %q of %s", name, obj.Type())
		return rerr
	default:
		return nil
	}
}

func writeIndex(ctx *runtime.Context, pos ast.Position, obj, idx, v runtime.Value) *errors.RuntimeError {
	switch o := obj.(type) {
	case *runtime.Array:
		n, rerr := asNumber(ctx, pos, idx)
		if rerr != nil {
			return rerr
		}
		o.Set(int(n), v)
		return nil
	case *runtime.Object:
		o.Set(idx.String(), v)
		return nil
	default:
		_, rerr := typeError(ctx, pos, "cannot index into %s", obj.Type())
		return rerr
	}
}

func evalCall(ctx *runtime.Context, c *ast.CallExpr) (runtime.Value, *errors.RuntimeError) {
	args, rerr := evalArgs(ctx, c.Args)
	if rerr != nil {
		return nil, rerr
	}

	switch callee := c.Callee.(type) {
	case *ast.SuperExpr:
		return typeError(ctx, c.Position, "super(...) is only valid as the first statement of a constructor")

	case *ast.MemberAccess:
		// super.method(...) dispatches starting at the superclass vtable.
		if _, isSuper := callee.Object.(*ast.SuperExpr); isSuper {
			self, ok := ctx.Env.Get("this")
			if !ok {
				return typeError(ctx, c.Position, "super used outside an instance method")
			}
			inst, ok := self.(*runtime.Instance)
			if !ok {
				return typeError(ctx, c.Position, "super used outside an instance method")
			}
			super := inst.Class.Superclass()
			if super == nil {
				return typeError(ctx, c.Position, "no superclass for %s", inst.Class.Name())
			}
			handle, _, ok := super.LookupMethod(callee.Name)
			if !ok {
				return typeError(ctx, c.Position, "method %q not found on superclass", callee.Name)
			}
			return handle(ctx, inst, args)
		}

		obj, rerr := Eval(ctx, callee.Object)
		if rerr != nil {
			return nil, rerr
		}
		return callMethod(ctx, c.Position, obj, callee.Name, args)

	default:
		fn, rerr := Eval(ctx, c.Callee)
		if rerr != nil {
			return nil, rerr
		}
		return callValue(ctx, c.Position, fn, args)
	}
}

func callMethod(ctx *runtime.Context, pos ast.Position, obj runtime.Value, name string, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
	switch v := obj.(type) {
	case *runtime.Instance:
		handle, _, ok := v.Class.LookupMethod(name)
		if !ok {
			return typeError(ctx, pos, "method %q not found on %s", name, v.Class.Name())
		}
		return handle(ctx, v, args)
	case *runtime.Array:
		return callArrayMethod(ctx, pos, v, name, args)
	case *runtime.Task:
		return callTaskMethod(ctx, pos, v, name, args)
	case *runtime.Object:
		f, ok := v.Get(name)
		if !ok {
			return typeError(ctx, pos, "method %q not found", name)
		}
		return callValue(ctx, pos, f, args)
	case runtime.Undefined, runtime.Null, nil:
		return typeError(ctx, pos, "Object not instantiated")
	default:
		return typeError(ctx, pos, "method %q not found for type %s", name, obj.Type())
	}
}

func callValue(ctx *runtime.Context, pos ast.Position, fn runtime.Value, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
	switch f := fn.(type) {
	case *runtime.Closure:
		return f.Call(ctx, args)
	case *runtime.BuiltinMethod:
		return f.Call(ctx, runtime.UndefinedValue, args)
	default:
		return typeError(ctx, pos, "value of type %s is not callable", fn.Type())
	}
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
