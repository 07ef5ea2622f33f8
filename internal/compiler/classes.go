package compiler

import (
	"github.com/tscore-lang/tscore/internal/classreg"
	"github.com/tscore-lang/tscore/internal/errors"
	"github.com/tscore-lang/tscore/internal/runtime"
	"github.com/tscore-lang/tscore/pkg/ast"
)

// pendingMember is a declared-but-not-yet-defined class member awaiting its
// body in the define pass.
type pendingMember struct {
	ref  *classreg.MethodRef
	kind string // "method", "getter", "setter", "constructor"
	decl any
}

// compileClasses runs the two-pass compilation this language's class
// semantics require: first declare every class and every member's signature (so forward and
// mutually-recursive references resolve), then define every body. Bodies
// are the last thing to run because an accessor or method emitted early may
// call another method that is only declared, not yet defined, at that
// point — classreg's MethodRef trampoline is what makes that safe.
func compileClasses(reg *classreg.Registry, decls []*ast.ClassDecl) ([]*classreg.ClassDescriptor, error) {
	descs := make([]*classreg.ClassDescriptor, len(decls))

	for i, cd := range decls {
		desc, err := reg.DeclareClass(cd.Position, cd.Name, cd.Superclass, cd.IsAbstract, toClassregGenerics(cd.GenericParams))
		if err != nil {
			return nil, err
		}
		descs[i] = desc
	}

	pendingByClass := make([][]pendingMember, len(decls))
	for i, cd := range decls {
		desc := descs[i]
		var pending []pendingMember

		for _, f := range cd.Fields {
			if f.IsStatic {
				reg.DeclareStaticField(desc, f.Name)
			} else {
				reg.DeclareField(desc, f.Name)
			}
		}

		hasCtor := false
		for mi := range cd.Methods {
			m := &cd.Methods[mi]
			if m.Name == "constructor" {
				hasCtor = true
				ref, err := reg.DeclareConstructor(m.Position, desc, m.IsOverride)
				if err != nil {
					return nil, err
				}
				pending = append(pending, pendingMember{ref: ref, kind: "constructor", decl: m})
				continue
			}
			ref, err := reg.DeclareMethod(m.Position, desc, m.Name, m.IsStatic, m.IsAbstract, m.IsOverride)
			if err != nil {
				return nil, err
			}
			pending = append(pending, pendingMember{ref: ref, kind: "method", decl: m})
		}
		if !hasCtor {
			ref, err := reg.DeclareConstructor(cd.Position, desc, false)
			if err != nil {
				return nil, err
			}
			pending = append(pending, pendingMember{ref: ref, kind: "constructor", decl: (*ast.MethodDecl)(nil)})
		}

		for ai := range cd.Accessors {
			a := &cd.Accessors[ai]
			ref, err := reg.DeclareAccessor(a.Position, desc, a.Kind, a.Name, a.IsAbstract)
			if err != nil {
				return nil, err
			}
			kind := "getter"
			if a.Kind == ast.AccessorSet {
				kind = "setter"
			}
			pending = append(pending, pendingMember{ref: ref, kind: kind, decl: a})
		}

		pendingByClass[i] = pending
	}

	for i, cd := range decls {
		if err := defineClassBodies(descs[i], cd, pendingByClass[i]); err != nil {
			return nil, err
		}
	}

	return descs, nil
}

func defineClassBodies(desc *classreg.ClassDescriptor, cd *ast.ClassDecl, pending []pendingMember) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewCompilerError("Type Error", cd.Position, panicMessage(r), "")
		}
	}()

	for _, pm := range pending {
		switch pm.kind {
		case "method":
			m := pm.decl.(*ast.MethodDecl)
			if m.IsAbstract {
				continue // leave the trampoline un-defined: dispatch raises AbstractMethodError
			}
			if m.IsAsync {
				prog := lowerAsyncBody(m.Body, m.Params)
				pm.ref.Define(newAsyncInvoker(prog))
			} else {
				pm.ref.Define(emitMethodBody(m.Params, m.Body))
			}

		case "getter", "setter":
			a := pm.decl.(*ast.AccessorDecl)
			if a.IsAbstract {
				continue
			}
			params := []ast.Param(nil)
			if a.Kind == ast.AccessorSet {
				params = []ast.Param{{Name: a.SetterParam}}
			}
			pm.ref.Define(emitAccessor(params, a.Body))

		case "constructor":
			m, _ := pm.decl.(*ast.MethodDecl)
			pm.ref.Define(emitConstructor(desc, cd, m))
		}
	}
	return nil
}

// compileFunctionBody lowers a top-level function's body into a
// MethodHandle, recovering from the same async-lowering panics
// (mustNotAwait/mustNotAwaitStmts) that defineClassBodies recovers from for
// method bodies — a function declared outside any class goes through the
// identical lowering and deserves the identical CompilerError instead of a
// raw panic escaping Compile.
func compileFunctionBody(fn *ast.FunctionDecl) (handle runtime.MethodHandle, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewCompilerError("Type Error", fn.Position, panicMessage(r), "")
		}
	}()
	if fn.IsAsync {
		return newAsyncInvoker(lowerAsyncBody(fn.Body, fn.Params)), nil
	}
	return emitMethodBody(fn.Params, fn.Body), nil
}

func panicMessage(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	if s, ok := r.(string); ok {
		return s
	}
	return "internal compiler error"
}

func toClassregGenerics(gs []ast.GenericParam) []classreg.GenericParam {
	out := make([]classreg.GenericParam, len(gs))
	for i, g := range gs {
		out[i] = classreg.GenericParam{Name: g.Name, Constraint: g.Constraint}
	}
	return out
}

// emitConstructor builds the constructor handle, enforcing the required
// emission order: the superclass constructor runs first (explicitly via a
// leading `super(...)` statement, or implicitly with no arguments if the
// class has a superclass and never writes one), then this class's own
// field initializers, then the remaining body statements. decl is nil for
// a class that declares no constructor of its own.
func emitConstructor(desc *classreg.ClassDescriptor, cd *ast.ClassDecl, decl *ast.MethodDecl) runtime.MethodHandle {
	var params []ast.Param
	var body []ast.Statement
	if decl != nil {
		params = decl.Params
		body = decl.Body
	}

	explicitSuperArgs, rest, hasExplicitSuper := splitLeadingSuperCall(body)

	fieldInits := make([]ast.FieldDecl, 0, len(cd.Fields))
	for _, f := range cd.Fields {
		if !f.IsStatic {
			fieldInits = append(fieldInits, f)
		}
	}

	return func(ctx *runtime.Context, self runtime.Value, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
		inst := self.(*runtime.Instance)
		env := runtime.NewEnclosedEnvironment(ctx.Env)
		env.Define("this", self)
		if rerr := bindParams(ctx, env, params, args); rerr != nil {
			return nil, rerr
		}
		inner := ctx.WithEnv(env)

		super := desc.SuperclassDescriptor()
		if super != nil {
			var superArgs []runtime.Value
			if hasExplicitSuper {
				var rerr *errors.RuntimeError
				superArgs, rerr = evalArgs(inner, explicitSuperArgs)
				if rerr != nil {
					return nil, rerr
				}
			}
			if ctor := super.Constructor(); ctor != nil {
				if _, rerr := ctor(ctx, inst, superArgs); rerr != nil {
					return nil, rerr
				}
			}
		}

		for _, f := range fieldInits {
			var v runtime.Value = runtime.UndefinedValue
			if f.Initializer != nil {
				var rerr *errors.RuntimeError
				v, rerr = Eval(inner, f.Initializer)
				if rerr != nil {
					return nil, rerr
				}
			}
			inst.SetField(f.Name, v)
		}

		res, rerr := ExecBlock(inner, rest)
		if rerr != nil {
			return nil, rerr
		}
		if res.kind == execThrow {
			return nil, errors.NewRuntimeError("UserError", ast.Position{}, runtime.Message(res.thrown), ctx.CallStack)
		}
		return self, nil
	}
}

// splitLeadingSuperCall recognizes `super(...)` as the first statement of a
// constructor body and splits it off. ok is false if body does not start
// with one (the caller then synthesizes a no-argument super call instead,
// when a superclass exists).
func splitLeadingSuperCall(body []ast.Statement) (args []ast.Expression, rest []ast.Statement, ok bool) {
	if len(body) == 0 {
		return nil, body, false
	}
	es, isExprStmt := body[0].(*ast.ExpressionStmt)
	if !isExprStmt {
		return nil, body, false
	}
	call, isCall := es.Value.(*ast.CallExpr)
	if !isCall {
		return nil, body, false
	}
	if _, isSuper := call.Callee.(*ast.SuperExpr); !isSuper {
		return nil, body, false
	}
	return call.Args, body[1:], true
}
