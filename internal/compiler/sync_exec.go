package compiler

import (
	"github.com/tscore-lang/tscore/internal/errors"
	"github.com/tscore-lang/tscore/internal/runtime"
	"github.com/tscore-lang/tscore/pkg/ast"
)

// execKind tags how a statement sequence exited: straight off the end,
// via return, or via an uncaught throw. The synchronous executor threads
// this by hand instead of using Go panic/recover so that it shares exactly
// the same "thrown value is a runtime.Value" contract the async machine
// uses (errors.go's RuntimeError carries host-raised faults, and a user
// throw only once it escapes a method body as a UserError).
type execKind int

const (
	execNormal execKind = iota
	execReturn
	execThrow
)

type execResult struct {
	kind  execKind
	value runtime.Value // meaningful for execReturn
	thrown runtime.Value // meaningful for execThrow
}

var normalResult = execResult{kind: execNormal}

// ExecBlock runs stmts directly by tree-walking: the synchronous fast path
// for a method body with no await sites, which never touches the task
// runtime or the state machine at all.
func ExecBlock(ctx *runtime.Context, stmts []ast.Statement) (execResult, *errors.RuntimeError) {
	for _, stmt := range stmts {
		res, rerr := execStmt(ctx, stmt)
		if rerr != nil {
			return execResult{}, rerr
		}
		if res.kind != execNormal {
			return res, nil
		}
	}
	return normalResult, nil
}

func execStmt(ctx *runtime.Context, stmt ast.Statement) (execResult, *errors.RuntimeError) {
	switch s := stmt.(type) {
	case *ast.Block:
		return ExecBlock(ctx, s.Statements)

	case *ast.VarDecl:
		var v runtime.Value = runtime.UndefinedValue
		if s.Initializer != nil {
			var rerr *errors.RuntimeError
			v, rerr = Eval(ctx, s.Initializer)
			if rerr != nil {
				return execResult{}, rerr
			}
		}
		ctx.Env.Define(s.Name, v)
		return normalResult, nil

	case *ast.ExpressionStmt:
		if _, rerr := Eval(ctx, s.Value); rerr != nil {
			return execResult{}, rerr
		}
		return normalResult, nil

	case *ast.IfStmt:
		cond, rerr := Eval(ctx, s.Cond)
		if rerr != nil {
			return execResult{}, rerr
		}
		if !runtime.IsFalsey(cond) {
			return ExecBlock(ctx, s.Then)
		}
		if s.Else != nil {
			return ExecBlock(ctx, s.Else)
		}
		return normalResult, nil

	case *ast.WhileStmt:
		for {
			cond, rerr := Eval(ctx, s.Cond)
			if rerr != nil {
				return execResult{}, rerr
			}
			if runtime.IsFalsey(cond) {
				return normalResult, nil
			}
			res, rerr := ExecBlock(ctx, s.Body)
			if rerr != nil {
				return execResult{}, rerr
			}
			if res.kind != execNormal {
				return res, nil
			}
		}

	case *ast.ForStmt:
		if s.Init != nil {
			if _, rerr := execStmt(ctx, s.Init); rerr != nil {
				return execResult{}, rerr
			}
		}
		for {
			if s.Cond != nil {
				cond, rerr := Eval(ctx, s.Cond)
				if rerr != nil {
					return execResult{}, rerr
				}
				if runtime.IsFalsey(cond) {
					return normalResult, nil
				}
			}
			res, rerr := ExecBlock(ctx, s.Body)
			if rerr != nil {
				return execResult{}, rerr
			}
			if res.kind != execNormal {
				return res, nil
			}
			if s.Post != nil {
				if _, rerr := execStmt(ctx, s.Post); rerr != nil {
					return execResult{}, rerr
				}
			}
		}

	case *ast.ReturnStmt:
		var v runtime.Value = runtime.UndefinedValue
		if s.Value != nil {
			var rerr *errors.RuntimeError
			v, rerr = Eval(ctx, s.Value)
			if rerr != nil {
				return execResult{}, rerr
			}
		}
		return execResult{kind: execReturn, value: v}, nil

	case *ast.ThrowStmt:
		v, rerr := Eval(ctx, s.Value)
		if rerr != nil {
			return execResult{}, rerr
		}
		return execResult{kind: execThrow, thrown: v}, nil

	case *ast.TryStmt:
		return execTry(ctx, s)

	default:
		_, rerr := typeError(ctx, stmt.Pos(), "unsupported statement node %T", stmt)
		return execResult{}, rerr
	}
}

func execTry(ctx *runtime.Context, s *ast.TryStmt) (execResult, *errors.RuntimeError) {
	res, rerr := ExecBlock(ctx, s.Body)

	if rerr != nil {
		// A host-raised fault (TypeError etc.) is catchable like any other
		// thrown value: thrown values are message-only records.
		res = execResult{kind: execThrow, thrown: valueFromRuntimeError(rerr)}
		rerr = nil
	}

	if res.kind == execThrow && s.Catch != nil && s.Catch.Body != nil {
		catchEnv := runtime.NewEnclosedEnvironment(ctx.Env)
		if s.Catch.Name != "" {
			catchEnv.Define(s.Catch.Name, res.thrown)
		}
		catchCtx := ctx.WithEnv(catchEnv)
		res, rerr = ExecBlock(catchCtx, s.Catch.Body)
		if rerr != nil {
			res = execResult{kind: execThrow, thrown: valueFromRuntimeError(rerr)}
			rerr = nil
		}
	}

	if s.Finally != nil {
		finallyRes, frerr := ExecBlock(ctx, s.Finally)
		if frerr != nil {
			return execResult{}, frerr
		}
		// A finally that itself completes abruptly (return/throw) supersedes
		// whatever the try/catch was about to do.
		if finallyRes.kind != execNormal {
			return finallyRes, nil
		}
	}

	return res, rerr
}

// valueFromRuntimeError converts a host-raised RuntimeError into a catchable
// user-level value: a plain record carrying name/message, since this
// language has no built-in Error class of its own — exception identity is
// message-only.
func valueFromRuntimeError(rerr *errors.RuntimeError) runtime.Value {
	return runtime.NewRecord("name", runtime.StringOf(rerr.Kind), "message", runtime.StringOf(rerr.Message))
}
