package compiler

import (
	"github.com/tscore-lang/tscore/internal/errors"
	"github.com/tscore-lang/tscore/internal/runtime"
	"github.com/tscore-lang/tscore/internal/task"
	"github.com/tscore-lang/tscore/pkg/ast"
)

// callArrayMethod implements the handful of Array.prototype members this
// core supports (push/map/filter/forEach and the usual read-only
// companions). Anything beyond this modest set is out of scope.
func callArrayMethod(ctx *runtime.Context, pos ast.Position, a *runtime.Array, name string, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
	switch name {
	case "push":
		a.Push(args...)
		return runtime.NumberOf(float64(a.Len())), nil

	case "join":
		sep := ","
		if len(args) > 0 {
			if s, ok := args[0].(runtime.Str); ok {
				sep = s.Value
			}
		}
		out := ""
		for i, el := range a.Elements {
			if i > 0 {
				out += sep
			}
			if _, isUndef := el.(runtime.Undefined); isUndef {
				continue
			}
			if _, isNull := el.(runtime.Null); isNull {
				continue
			}
			out += el.String()
		}
		return runtime.StringOf(out), nil

	case "includes":
		if len(args) == 0 {
			return runtime.False, nil
		}
		for _, el := range a.Elements {
			if valuesEqual(el, args[0]) {
				return runtime.True, nil
			}
		}
		return runtime.False, nil

	case "indexOf":
		if len(args) == 0 {
			return runtime.NumberOf(-1), nil
		}
		for i, el := range a.Elements {
			if valuesEqual(el, args[0]) {
				return runtime.NumberOf(float64(i)), nil
			}
		}
		return runtime.NumberOf(-1), nil

	case "slice":
		start, end := 0, a.Len()
		if len(args) > 0 {
			start = clampIndex(args[0], a.Len())
		}
		if len(args) > 1 {
			end = clampIndex(args[1], a.Len())
		}
		if start > end {
			start = end
		}
		out := make([]runtime.Value, end-start)
		copy(out, a.Elements[start:end])
		return runtime.NewArray(out), nil

	case "map":
		if len(args) == 0 {
			return typeError(ctx, pos, "Array.map requires a callback")
		}
		out := make([]runtime.Value, a.Len())
		for i, el := range a.Elements {
			v, rerr := callValue(ctx, pos, args[0], []runtime.Value{el, runtime.NumberOf(float64(i))})
			if rerr != nil {
				return nil, rerr
			}
			out[i] = v
		}
		return runtime.NewArray(out), nil

	case "filter":
		if len(args) == 0 {
			return typeError(ctx, pos, "Array.filter requires a callback")
		}
		var out []runtime.Value
		for i, el := range a.Elements {
			v, rerr := callValue(ctx, pos, args[0], []runtime.Value{el, runtime.NumberOf(float64(i))})
			if rerr != nil {
				return nil, rerr
			}
			if !runtime.IsFalsey(v) {
				out = append(out, el)
			}
		}
		return runtime.NewArray(out), nil

	case "forEach":
		if len(args) == 0 {
			return typeError(ctx, pos, "Array.forEach requires a callback")
		}
		for i, el := range a.Elements {
			if _, rerr := callValue(ctx, pos, args[0], []runtime.Value{el, runtime.NumberOf(float64(i))}); rerr != nil {
				return nil, rerr
			}
		}
		return runtime.UndefinedValue, nil

	default:
		return typeError(ctx, pos, "Array has no method %q", name)
	}
}

func clampIndex(v runtime.Value, length int) int {
	n, ok := v.(runtime.Number)
	if !ok {
		return 0
	}
	i := int(n.Value)
	if i < 0 {
		i += length
	}
	if i < 0 {
		i = 0
	}
	if i > length {
		i = length
	}
	return i
}

// callTaskMethod implements .then/.catch chaining on a Task value, built
// directly on internal/task's combinators — the minimal supplement that
// lets async code interoperate with ordinary function values as callbacks,
// short of a full Promise surface.
func callTaskMethod(ctx *runtime.Context, pos ast.Position, t *runtime.Task, name string, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
	switch name {
	case "then":
		var onFulfilled, onRejected runtime.Value
		if len(args) > 0 {
			onFulfilled = args[0]
		}
		if len(args) > 1 {
			onRejected = args[1]
		}
		return runtime.NewTask(chainTask(ctx, t.Handle, onFulfilled, onRejected)), nil

	case "catch":
		var onRejected runtime.Value
		if len(args) > 0 {
			onRejected = args[0]
		}
		return runtime.NewTask(chainTask(ctx, t.Handle, nil, onRejected)), nil

	default:
		return typeError(ctx, pos, "Task has no method %q", name)
	}
}

// installBuiltins populates env with the host-implemented globals every
// compiled program sees: the Promise namespace object carrying allSettled,
// all, and race, plus the resolve/reject convenience constructors a real
// Promise surface needs.
func installBuiltins(env *runtime.Environment) {
	promise := runtime.NewObject()
	promise.Set("allSettled", &runtime.BuiltinMethod{
		Name: "Promise.allSettled", Arity: 1, MinArgs: 1,
		Body: func(ctx *runtime.Context, self runtime.Value, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
			elems, rerr := asElementSlice(ctx, args[0])
			if rerr != nil {
				return nil, rerr
			}
			return runtime.NewTask(promiseAllSettled(ctx, elems)), nil
		},
	})
	promise.Set("all", &runtime.BuiltinMethod{
		Name: "Promise.all", Arity: 1, MinArgs: 1,
		Body: func(ctx *runtime.Context, self runtime.Value, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
			elems, rerr := asElementSlice(ctx, args[0])
			if rerr != nil {
				return nil, rerr
			}
			return runtime.NewTask(task.WhenAll(toHandles(elems))), nil
		},
	})
	promise.Set("race", &runtime.BuiltinMethod{
		Name: "Promise.race", Arity: 1, MinArgs: 1,
		Body: func(ctx *runtime.Context, self runtime.Value, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
			elems, rerr := asElementSlice(ctx, args[0])
			if rerr != nil {
				return nil, rerr
			}
			return runtime.NewTask(task.Race(toHandles(elems))), nil
		},
	})
	promise.Set("resolve", &runtime.BuiltinMethod{
		Name: "Promise.resolve", Arity: 1, MinArgs: 0,
		Body: func(ctx *runtime.Context, self runtime.Value, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
			var v runtime.Value = runtime.UndefinedValue
			if len(args) > 0 {
				v = args[0]
			}
			if t, ok := v.(*runtime.Task); ok {
				return t, nil
			}
			return runtime.NewTask(task.Resolved(v)), nil
		},
	})
	promise.Set("reject", &runtime.BuiltinMethod{
		Name: "Promise.reject", Arity: 1, MinArgs: 1,
		Body: func(ctx *runtime.Context, self runtime.Value, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
			return runtime.NewTask(task.RejectedHandle(args[0])), nil
		},
	})
	env.Define("Promise", promise)
}

// asElementSlice reads an Array argument's elements — the only iterable
// the value model offers; there is no general iterator protocol.
func asElementSlice(ctx *runtime.Context, v runtime.Value) ([]runtime.Value, *errors.RuntimeError) {
	a, ok := v.(*runtime.Array)
	if !ok {
		_, rerr := typeError(ctx, ast.Position{}, "expected an array of promises")
		return nil, rerr
	}
	out := make([]runtime.Value, len(a.Elements))
	copy(out, a.Elements)
	return out, nil
}

// toHandles lifts each element to a task.Handle, resolving non-Task values
// immediately — Promise.all/race accept a mix of tasks and plain values
// the same way allSettled's per-element machine does.
func toHandles(elems []runtime.Value) []*task.Handle {
	out := make([]*task.Handle, len(elems))
	for i, el := range elems {
		if t, ok := el.(*runtime.Task); ok {
			out[i] = t.Handle
		} else {
			out[i] = task.Resolved(el)
		}
	}
	return out
}

// processElementSettled awaits elem if it is Task-like, then produces a
// {status,value} or {status,reason} record. This machine never rejects —
// every failure is converted into a fulfilled settled-record, which is
// what lets the aggregate's WhenAll always resolve.
func processElementSettled(elem runtime.Value) *task.Handle {
	out, completer := task.Create()

	settle := func(h *task.Handle) {
		if h.State() == task.Rejected {
			msg := runtime.Message(h.Err().(runtime.Value))
			completer.SetValue(runtime.NewRecord("status", runtime.StringOf("rejected"), "reason", runtime.StringOf(msg)))
			return
		}
		v, _ := h.Value().(runtime.Value)
		completer.SetValue(runtime.NewRecord("status", runtime.StringOf("fulfilled"), "value", v))
	}

	if t, ok := elem.(*runtime.Task); ok {
		t.Handle.OnCompleted(settle)
	} else {
		settle(task.Resolved(elem))
	}
	return out
}

// promiseAllSettled settles every element, bulk-awaits them (guaranteed to
// resolve since no element task ever rejects), and collects the ordered
// settled-record array.
func promiseAllSettled(ctx *runtime.Context, elements []runtime.Value) *task.Handle {
	agg, completer := task.Create()

	if len(elements) == 0 {
		completer.SetValue(runtime.NewArray(nil))
		return agg
	}

	perElement := make([]*task.Handle, len(elements))
	for i, el := range elements {
		perElement[i] = processElementSettled(el)
	}

	bulk := task.WhenAll(perElement)
	bulk.OnCompleted(func(h *task.Handle) {
		results, _ := h.Value().([]any)
		out := make([]runtime.Value, len(results))
		for i, r := range results {
			out[i] = r.(runtime.Value)
		}
		completer.SetValue(runtime.NewArray(out))
	})
	return agg
}

func chainTask(ctx *runtime.Context, h *task.Handle, onFulfilled, onRejected runtime.Value) *task.Handle {
	next, completer := task.Create()
	h.OnCompleted(func(settled *task.Handle) {
		if settled.State() == task.Rejected {
			if onRejected == nil {
				completer.SetError(settled.Err())
				return
			}
			v, rerr := callValue(ctx, ast.Position{}, onRejected, []runtime.Value{settled.Err().(runtime.Value)})
			if rerr != nil {
				completer.SetError(valueFromRuntimeError(rerr))
				return
			}
			completer.SetValue(v)
			return
		}
		if onFulfilled == nil {
			completer.SetValue(settled.Value())
			return
		}
		v, rerr := callValue(ctx, ast.Position{}, onFulfilled, []runtime.Value{settled.Value().(runtime.Value)})
		if rerr != nil {
			completer.SetError(valueFromRuntimeError(rerr))
			return
		}
		completer.SetValue(v)
	})
	return next
}
