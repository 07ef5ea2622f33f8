// Package compiler ties the class registry, method emitter, and async
// lowering together into a runnable Program: compile a parsed ast.Program
// once, then invoke entry points by name, synchronously or asynchronously,
// any number of times.
package compiler

import (
	"fmt"

	"github.com/tscore-lang/tscore/internal/classreg"
	"github.com/tscore-lang/tscore/internal/errors"
	"github.com/tscore-lang/tscore/internal/runtime"
	"github.com/tscore-lang/tscore/internal/task"
	"github.com/tscore-lang/tscore/pkg/ast"
)

// Program is a compiled unit: a populated class registry plus every
// top-level function bound into a shared global environment. It implements
// runtime.Engine so Eval can call back into class construction and virtual
// dispatch without runtime importing compiler.
type Program struct {
	registry *classreg.Registry
	global   *runtime.Environment
	classes  []*classreg.ClassDescriptor
}

// Compile builds a Program from a parsed AST: declare and define every
// class (two-pass, per compileClasses), bind every top-level function into
// the global environment, then run static field initializers in
// declaration order.
func Compile(prog *ast.Program) (*Program, error) {
	p := &Program{
		registry: classreg.NewRegistry(),
		global:   runtime.NewEnvironment(),
	}

	descs, err := compileClasses(p.registry, prog.Classes)
	if err != nil {
		return nil, err
	}
	p.classes = descs

	for _, fn := range prog.Functions {
		handle, err := compileFunctionBody(fn)
		if err != nil {
			return nil, err
		}
		p.global.Define(fn.Name, &runtime.Closure{Handle: handle, Label: fn.Name})
	}

	installBuiltins(p.global)

	if err := p.runStaticInitializers(prog.Classes); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Program) rootContext() *runtime.Context {
	return runtime.NewContext(p.global, p)
}

func (p *Program) runStaticInitializers(decls []*ast.ClassDecl) error {
	for i, cd := range decls {
		desc := p.classes[i]
		ctx := p.rootContext()
		for _, f := range cd.Fields {
			if !f.IsStatic || f.Initializer == nil {
				continue
			}
			v, rerr := Eval(ctx, f.Initializer)
			if rerr != nil {
				return rerr
			}
			if slot, ok := desc.LookupStaticField(f.Name); ok {
				*slot = v
			}
		}
	}
	return nil
}

// Invoke runs a top-level function synchronously: if it is async, the
// produced task's outcome is read once the call returns, collapsing the
// Promise into a plain result-or-error the way a top-level `await` at the
// host boundary would. Invoke does not wait: a task still pending at that
// point is reported as an error (see drainTask).
func (p *Program) Invoke(name string, args []runtime.Value) (runtime.Value, error) {
	ctx := p.rootContext()
	v, rerr := p.CallFunction(ctx, name, args)
	if rerr != nil {
		return nil, rerr
	}
	if t, ok := v.(*runtime.Task); ok {
		return drainTask(t.Handle)
	}
	return v, nil
}

// RunAsync runs a top-level function and returns its task handle without
// blocking for completion — the caller drives the event loop (here, just
// the continuation chain) itself, or settles it via drainTask later.
func (p *Program) RunAsync(name string, args []runtime.Value) (*task.Handle, error) {
	ctx := p.rootContext()
	v, rerr := p.CallFunction(ctx, name, args)
	if rerr != nil {
		return nil, rerr
	}
	if t, ok := v.(*runtime.Task); ok {
		return t.Handle, nil
	}
	return task.Resolved(v), nil
}

// drainTask reads a settled task's result. Because scheduling is
// single-threaded and cooperative, by the time the call stack
// that created a task unwinds back to the host boundary, every synchronous
// continuation chain reachable from it has already run; a task still
// pending here would mean the program awaits an external event the host
// never supplied, which is reported as a deadlock rather than blocking.
func drainTask(h *task.Handle) (runtime.Value, error) {
	if !h.IsCompleted() {
		return nil, fmt.Errorf("task never settled (awaiting unresolved external completion)")
	}
	if h.State() == task.Rejected {
		thrown, _ := h.Err().(runtime.Value)
		return nil, fmt.Errorf("uncaught exception: %s", runtime.Message(thrown))
	}
	v, _ := h.Value().(runtime.Value)
	return v, nil
}

// NewInstance implements runtime.Engine: allocate the instance (the field
// map exists before the constructor — and therefore before any
// super(...) call — runs), then run its constructor chain.
func (p *Program) NewInstance(ctx *runtime.Context, className string, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
	desc, ok := p.registry.Lookup(className)
	if !ok {
		return nil, errors.NewRuntimeError("TypeError", ast.Position{}, fmt.Sprintf("class %q not found", className), ctx.CallStack)
	}
	if desc.IsAbstract() {
		return nil, errors.NewRuntimeError("TypeError", ast.Position{}, fmt.Sprintf("cannot instantiate abstract class %q", className), ctx.CallStack)
	}
	inst := runtime.NewInstance(desc)
	if ctor := desc.Constructor(); ctor != nil {
		if _, rerr := ctor(ctx, inst, args); rerr != nil {
			return nil, rerr
		}
	}
	return inst, nil
}

// CallFunction implements runtime.Engine: invoke a top-level function by
// name from the global environment.
func (p *Program) CallFunction(ctx *runtime.Context, name string, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
	v, ok := p.global.Get(name)
	if !ok {
		return nil, errors.NewRuntimeError("TypeError", ast.Position{}, fmt.Sprintf("function %q not found", name), ctx.CallStack)
	}
	closure, ok := v.(*runtime.Closure)
	if !ok {
		return nil, errors.NewRuntimeError("TypeError", ast.Position{}, fmt.Sprintf("%q is not a function", name), ctx.CallStack)
	}
	return closure.Call(ctx, args)
}

// ResolveVirtual implements runtime.Engine.
func (p *Program) ResolveVirtual(instance *runtime.Instance, name string) (runtime.MethodHandle, *errors.RuntimeError) {
	h, _, ok := instance.Class.LookupMethod(name)
	if !ok {
		return nil, errors.NewRuntimeError("TypeError", ast.Position{}, fmt.Sprintf("method %q not found on %s", name, instance.Class.Name()), nil)
	}
	return h, nil
}

// ResolveGetter implements runtime.Engine.
func (p *Program) ResolveGetter(instance *runtime.Instance, name string) (runtime.MethodHandle, *errors.RuntimeError) {
	h, ok := instance.Class.LookupGetter(name)
	if !ok {
		return nil, errors.NewRuntimeError("TypeError", ast.Position{}, fmt.Sprintf("no getter %q on %s", name, instance.Class.Name()), nil)
	}
	return h, nil
}

// ResolveSetter implements runtime.Engine.
func (p *Program) ResolveSetter(instance *runtime.Instance, name string) (runtime.MethodHandle, *errors.RuntimeError) {
	h, ok := instance.Class.LookupSetter(name)
	if !ok {
		return nil, errors.NewRuntimeError("TypeError", ast.Position{}, fmt.Sprintf("no setter %q on %s", name, instance.Class.Name()), nil)
	}
	return h, nil
}
