package compiler

import (
	"github.com/tscore-lang/tscore/internal/errors"
	"github.com/tscore-lang/tscore/internal/runtime"
	"github.com/tscore-lang/tscore/internal/task"
	"github.com/tscore-lang/tscore/pkg/ast"
)

// machine is one activation of a lowered async body: the state-machine
// object holding the locals environment, the current resume state, and
// the Completer that drives the produced Task.
//
// state: -1 before the first MoveNext call and immediately after each
// resume, a non-negative await-site index while suspended, -2 once the
// body has run to completion (return or an uncaught throw).
type machine struct {
	ctx       *runtime.Context
	env       *runtime.Environment
	prog      *asyncProgram
	completer *task.Completer
	state     int
}

const stateNotStarted = -1
const stateFinished = -2

// newAsyncInvoker builds the MethodHandle the method emitter installs for an
// async method/function/arrow body: calling it allocates a fresh machine,
// binds parameters (with default-parameter checks, same as the synchronous
// emitter), runs the synchronous fast path up to the first suspension, and
// always returns a Task immediately.
func newAsyncInvoker(prog *asyncProgram) runtime.MethodHandle {
	return func(ctx *runtime.Context, self runtime.Value, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
		env := runtime.NewEnclosedEnvironment(ctx.Env)
		env.Define("this", self)
		if rerr := bindParams(ctx, env, prog.params, args); rerr != nil {
			return runtime.NewTask(task.RejectedHandle(valueFromRuntimeError(rerr))), nil
		}

		h, completer := task.Create()
		m := &machine{
			ctx:       ctx.WithEnv(env),
			env:       env,
			prog:      prog,
			completer: completer,
			state:     stateNotStarted,
		}
		m.runFrom(0)
		return runtime.NewTask(h), nil
	}
}

// runFrom is the MoveNext body: execute ops starting at pc until the method
// completes (return/uncaught-throw) or suspends on a not-yet-ready await.
func (m *machine) runFrom(pc int) {
	for {
		if pc >= len(m.prog.ops) {
			m.complete(runtime.UndefinedValue, nil)
			return
		}

		o := m.prog.ops[pc]
		switch o.kind {
		case opExprStmt:
			if _, rerr := Eval(m.ctx, o.expr); rerr != nil {
				next, ok := m.raise(pc, valueFromRuntimeError(rerr))
				if !ok {
					return
				}
				pc = next
				continue
			}
			pc++

		case opVarDecl:
			var v runtime.Value = runtime.UndefinedValue
			if o.expr != nil {
				var rerr *errors.RuntimeError
				v, rerr = Eval(m.ctx, o.expr)
				if rerr != nil {
					next, ok := m.raise(pc, valueFromRuntimeError(rerr))
					if !ok {
						return
					}
					pc = next
					continue
				}
			}
			m.env.Define(o.name, v)
			pc++

		case opReturn:
			var v runtime.Value = runtime.UndefinedValue
			if o.expr != nil {
				var rerr *errors.RuntimeError
				v, rerr = Eval(m.ctx, o.expr)
				if rerr != nil {
					next, ok := m.raise(pc, valueFromRuntimeError(rerr))
					if !ok {
						return
					}
					pc = next
					continue
				}
			}
			m.complete(v, nil)
			return

		case opThrow:
			v, rerr := Eval(m.ctx, o.expr)
			if rerr != nil {
				v = valueFromRuntimeError(rerr)
			}
			next, ok := m.raise(pc, v)
			if !ok {
				return
			}
			pc = next

		case opJump:
			pc = o.target

		case opJumpIfFalse:
			cond, rerr := Eval(m.ctx, o.expr)
			if rerr != nil {
				next, ok := m.raise(pc, valueFromRuntimeError(rerr))
				if !ok {
					return
				}
				pc = next
				continue
			}
			if runtime.IsFalsey(cond) {
				pc = o.target
			} else {
				pc++
			}

		case opAwait:
			awaited, rerr := Eval(m.ctx, o.expr)
			if rerr != nil {
				next, ok := m.raise(pc, valueFromRuntimeError(rerr))
				if !ok {
					return
				}
				pc = next
				continue
			}

			h, isTask := awaited.(*runtime.Task)
			if !isTask {
				// Awaiting a direct (non-task) value resolves immediately —
				// the synchronous fast path applies per await site, not
				// just to the whole method.
				if o.name != "" {
					m.env.Define(o.name, awaited)
				}
				pc++
				continue
			}

			if h.Handle.IsCompleted() {
				if settled := h.Handle; settled.State() == task.Rejected {
					next, ok := m.raise(pc, settled.Err().(runtime.Value))
					if !ok {
						return
					}
					pc = next
					continue
				}
				if o.name != "" {
					m.env.Define(o.name, h.Handle.Value().(runtime.Value))
				}
				pc++
				continue
			}

			// Suspend: the state IS this op's index, satisfying "distinct
			// await sites receive distinct non-negative integer states".
			m.state = pc
			resumePC := pc
			bindName := o.name
			h.Handle.OnCompleted(func(settled *task.Handle) {
				m.state = stateNotStarted
				if settled.State() == task.Rejected {
					next, ok := m.raise(resumePC, settled.Err().(runtime.Value))
					if !ok {
						return
					}
					m.runFrom(next)
					return
				}
				if bindName != "" {
					m.env.Define(bindName, settled.Value().(runtime.Value))
				}
				m.runFrom(resumePC + 1)
			})
			return
		}
	}
}

// raise routes a thrown value through dispatch. It reports (nextPC, true)
// when execution should resume at nextPC (a catch handler claimed it), or
// (0, false) when the machine is already complete — either because the
// exception escaped uncaught (raise completes it as an error itself) or
// because a finally block superseded it with a return.
func (m *machine) raise(pc int, thrown runtime.Value) (int, bool) {
	next, outcome, final := m.dispatch(pc, thrown)
	switch outcome {
	case dispatchRoute:
		return next, true
	case dispatchHandled:
		return 0, false
	default:
		m.completeError(final)
		return 0, false
	}
}

// runFinally executes a finally block synchronously (no await is permitted
// inside one — this is a deliberate, documented simplification: await
// suspension would require the finally block to itself be PC-addressable
// and re-entrant across the very propagation it is meant to guard). It
// reuses the same tree-walking executor the synchronous method emitter
// uses. The bool return reports whether the finally completed abruptly
// (return or throw), superseding whatever was propagating through it —
// matching sync_exec.go's execTry, which gives return the same priority.
func (m *machine) runFinally(stmts []ast.Statement) (execResult, bool) {
	res, rerr := ExecBlock(m.ctx, stmts)
	if rerr != nil {
		return execResult{kind: execThrow, thrown: valueFromRuntimeError(rerr)}, true
	}
	if res.kind == execThrow || res.kind == execReturn {
		return res, true
	}
	return execResult{}, false
}

func (m *machine) complete(v runtime.Value, _ *errors.RuntimeError) {
	m.state = stateFinished
	m.completer.SetValue(v)
}

func (m *machine) completeError(thrown runtime.Value) {
	m.state = stateFinished
	m.completer.SetError(thrown)
}
