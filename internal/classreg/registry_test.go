package classreg

import (
	"testing"

	"github.com/tscore-lang/tscore/internal/errors"
	"github.com/tscore-lang/tscore/internal/runtime"
	"github.com/tscore-lang/tscore/pkg/ast"
)

func newTestContext() *runtime.Context {
	return runtime.NewContext(runtime.NewEnvironment(), nil)
}

func TestDeclareClassDuplicateRejected(t *testing.T) {
	r := NewRegistry()
	if _, err := r.DeclareClass(ast.Position{}, "Shape", "", false, nil); err != nil {
		t.Fatalf("first declare: %v", err)
	}
	if _, err := r.DeclareClass(ast.Position{}, "Shape", "", false, nil); err == nil {
		t.Fatal("expected duplicate class declaration to fail")
	}
}

func TestDeclareClassUnknownSuperclassRejected(t *testing.T) {
	r := NewRegistry()
	if _, err := r.DeclareClass(ast.Position{}, "Dog", "Animal", false, nil); err == nil {
		t.Fatal("expected unknown superclass to be rejected")
	}
}

func TestOverrideWithoutSuperclassRejected(t *testing.T) {
	r := NewRegistry()
	root, _ := r.DeclareClass(ast.Position{}, "Root", "", false, nil)
	if _, err := r.DeclareMethod(ast.Position{}, root, "getValue", false, false, true); err == nil {
		t.Fatal("expected override with no superclass to be rejected")
	}
}

func TestOverrideOnStaticRejected(t *testing.T) {
	r := NewRegistry()
	if _, err := r.DeclareClass(ast.Position{}, "A", "", false, nil); err != nil {
		t.Fatal(err)
	}
	b, _ := r.DeclareClass(ast.Position{}, "B", "A", false, nil)
	if _, err := r.DeclareMethod(ast.Position{}, b, "helper", true, false, true); err == nil {
		t.Fatal("expected override on a static method to be rejected")
	}
}

func TestOverrideOnConstructorRejected(t *testing.T) {
	r := NewRegistry()
	a, _ := r.DeclareClass(ast.Position{}, "A", "", false, nil)
	if _, err := r.DeclareConstructor(ast.Position{}, a, true); err == nil {
		t.Fatal("expected override on a constructor to be rejected")
	}
}

func TestOverrideMismatchRejected(t *testing.T) {
	r := NewRegistry()
	a, _ := r.DeclareClass(ast.Position{}, "A", "", false, nil)
	b, _ := r.DeclareClass(ast.Position{}, "B", "A", false, nil)
	if _, err := r.DeclareMethod(ast.Position{}, a, "getValue", false, false, false); err != nil {
		t.Fatalf("declare A.getValue: %v", err)
	}
	// B overrides a method A never declared.
	_, err := r.DeclareMethod(ast.Position{}, b, "other", false, false, true)
	if err == nil {
		t.Fatal("expected override mismatch to be rejected")
	}
	if _, ok := err.(*errors.OverrideMismatchError); !ok {
		t.Fatalf("expected *errors.OverrideMismatchError, got %T", err)
	}
}

// TestOverrideMultilevelResolution covers a three-level chain:
// A{getValue->1}, B extends A without redeclaring getValue, C extends B
// {override->3}; resolving on a C instance must yield C's handle (a
// skip-level override across B), and a class extending B with no override
// of its own must still reach A's original.
func TestOverrideMultilevelResolution(t *testing.T) {
	r := NewRegistry()
	a, _ := r.DeclareClass(ast.Position{}, "A", "", false, nil)
	_, _ = r.DeclareClass(ast.Position{}, "B", "A", false, nil)
	c, _ := r.DeclareClass(ast.Position{}, "C", "B", false, nil)

	refA, err := r.DeclareMethod(ast.Position{}, a, "getValue", false, false, false)
	if err != nil {
		t.Fatal(err)
	}
	refA.Define(constHandle(1))

	refC, err := r.DeclareMethod(ast.Position{}, c, "getValue", false, false, true)
	if err != nil {
		t.Fatal(err)
	}
	refC.Define(constHandle(3))

	inst := runtime.NewInstance(c)
	handle, err := ResolveVirtual(inst, "getValue")
	if err != nil {
		t.Fatalf("ResolveVirtual: %v", err)
	}
	v, rerr := handle(newTestContext(), inst, nil)
	if rerr != nil {
		t.Fatalf("dispatch: %v", rerr)
	}
	if n, ok := v.(runtime.Number); !ok || n.Value != 3 {
		t.Fatalf("got %v, want 3 (C's override, not A's)", v)
	}

	// A "D extends B" with no override of its own should still see A's
	// original value via the skip-level ancestor chain.
	d, _ := r.DeclareClass(ast.Position{}, "D", "B", false, nil)
	instD := runtime.NewInstance(d)
	handleD, err := ResolveVirtual(instD, "getValue")
	if err != nil {
		t.Fatalf("ResolveVirtual(D): %v", err)
	}
	vD, _ := handleD(newTestContext(), instD, nil)
	if n, ok := vD.(runtime.Number); !ok || n.Value != 1 {
		t.Fatalf("got %v, want 1 (A's original, skip-level)", vD)
	}
}

func TestAbstractDispatchRaises(t *testing.T) {
	r := NewRegistry()
	shape, _ := r.DeclareClass(ast.Position{}, "Shape", "", true, nil)
	if _, err := r.DeclareMethod(ast.Position{}, shape, "area", false, true, false); err != nil {
		t.Fatal(err)
	}

	inst := runtime.NewInstance(shape)
	handle, err := ResolveVirtual(inst, "area")
	if err != nil {
		t.Fatalf("ResolveVirtual: %v", err)
	}
	_, rerr := handle(newTestContext(), inst, nil)
	if rerr == nil {
		t.Fatal("expected abstract dispatch to raise an error")
	}
	if rerr.Kind != "AbstractMethodError" {
		t.Fatalf("Kind = %q, want AbstractMethodError", rerr.Kind)
	}
}

func TestResolveVirtualNotFound(t *testing.T) {
	r := NewRegistry()
	shape, _ := r.DeclareClass(ast.Position{}, "Shape", "", false, nil)
	inst := runtime.NewInstance(shape)
	if _, err := ResolveVirtual(inst, "missing"); err == nil {
		t.Fatal("expected NotFound for an undeclared method")
	}
}

func constHandle(n float64) runtime.MethodHandle {
	return func(ctx *runtime.Context, self runtime.Value, args []runtime.Value) (runtime.Value, *errors.RuntimeError) {
		return runtime.Number{Value: n}, nil
	}
}
