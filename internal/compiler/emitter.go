package compiler

import (
	"github.com/tscore-lang/tscore/internal/errors"
	"github.com/tscore-lang/tscore/internal/runtime"
	"github.com/tscore-lang/tscore/pkg/ast"
)

// bindParams implements parameter binding: positional
// arguments fill declared parameters left to right; a missing trailing
// argument falls back to its default-value expression (evaluated in the
// callee's own environment, so defaults may reference earlier parameters);
// a parameter with neither an argument nor a default binds undefined.
func bindParams(ctx *runtime.Context, env *runtime.Environment, params []ast.Param, args []runtime.Value) *errors.RuntimeError {
	inner := ctx.WithEnv(env)
	for i, p := range params {
		if i < len(args) {
			if _, isUndef := args[i].(runtime.Undefined); !isUndef {
				env.Define(p.Name, args[i])
				continue
			}
		}
		if p.Default != nil {
			v, rerr := Eval(inner, p.Default)
			if rerr != nil {
				return rerr
			}
			env.Define(p.Name, v)
			continue
		}
		env.Define(p.Name, runtime.UndefinedValue)
	}
	return nil
}

// emitMethodBody builds the MethodHandle for a synchronous method/function
// body: bind parameters into a fresh scope, tree-walk the statements, and
// apply the language's default return value (undefined) when the body
// falls off the end without an explicit return.
func emitMethodBody(params []ast.Param, body []ast.Statement) runtime.MethodHandle {
	return func(ctx *runtime.Context, self runtime.Value, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
		env := runtime.NewEnclosedEnvironment(ctx.Env)
		env.Define("this", self)
		if rerr := bindParams(ctx, env, params, args); rerr != nil {
			return nil, rerr
		}
		inner := ctx.WithEnv(env)
		res, rerr := ExecBlock(inner, body)
		if rerr != nil {
			return nil, rerr
		}
		if res.kind == execThrow {
			return nil, errors.NewRuntimeError("UserError", ast.Position{}, runtime.Message(res.thrown), ctx.CallStack)
		}
		if res.kind == execReturn {
			return res.value, nil
		}
		return runtime.UndefinedValue, nil
	}
}

// emitAccessor builds a getter/setter MethodHandle the same way, except a
// getter with no explicit return yields undefined and a setter's return
// value is always discarded by the caller (writeMember ignores it).
func emitAccessor(params []ast.Param, body []ast.Statement) runtime.MethodHandle {
	return emitMethodBody(params, body)
}

// compileArrowFn compiles an arrow function expression into a Closure value
// at the point it is evaluated, capturing ctx.Env exactly as it stands —
// the defining environment, matching the Closure value's capture semantics.
func compileArrowFn(ctx *runtime.Context, fn *ast.ArrowFn) runtime.Value {
	capturedEnv := ctx.Env
	var handle runtime.MethodHandle
	if fn.IsAsync {
		prog := lowerAsyncBody(fn.Body, fn.Params)
		inner := newAsyncInvoker(prog)
		handle = func(innerCtx *runtime.Context, self runtime.Value, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
			return inner(innerCtx.WithEnv(capturedEnv), self, args)
		}
	} else {
		body := emitMethodBody(fn.Params, fn.Body)
		handle = func(innerCtx *runtime.Context, self runtime.Value, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
			return body(innerCtx.WithEnv(capturedEnv), self, args)
		}
	}
	return &runtime.Closure{Handle: handle, Label: "<arrow>"}
}
