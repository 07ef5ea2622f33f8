package compiler_test

import (
	"testing"

	"github.com/tscore-lang/tscore/internal/compiler"
	"github.com/tscore-lang/tscore/internal/runtime"
	"github.com/tscore-lang/tscore/internal/task"
	"github.com/tscore-lang/tscore/pkg/ast"
)

func num(n float64) *ast.Literal { return &ast.Literal{Kind: ast.LiteralNumber, Number: n} }
func str(s string) *ast.Literal  { return &ast.Literal{Kind: ast.LiteralString, String: s} }
func ident(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

// TestOverrideMultilevel covers a three-level override chain: A.getValue->1,
// B overrides ->2, C overrides ->3; new C().getValue() must dispatch to
// C's handle.
func TestOverrideMultilevel(t *testing.T) {
	ret := func(n float64) []ast.Statement {
		return []ast.Statement{&ast.ReturnStmt{Value: num(n)}}
	}
	prog := &ast.Program{
		Classes: []*ast.ClassDecl{
			{Name: "A", Methods: []ast.MethodDecl{{Name: "getValue", Body: ret(1)}}},
			{Name: "B", Superclass: "A", Methods: []ast.MethodDecl{{Name: "getValue", IsOverride: true, Body: ret(2)}}},
			{Name: "C", Superclass: "B", Methods: []ast.MethodDecl{{Name: "getValue", IsOverride: true, Body: ret(3)}}},
		},
		Functions: []*ast.FunctionDecl{
			{Name: "main", Body: []ast.Statement{
				&ast.ReturnStmt{Value: &ast.CallExpr{
					Callee: &ast.MemberAccess{Object: &ast.NewExpr{ClassName: "C"}, Name: "getValue"},
				}},
			}},
		},
	}

	p, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	v, err := p.Invoke("main", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	n, ok := v.(runtime.Number)
	if !ok || n.Value != 3 {
		t.Fatalf("got %v, want 3", v)
	}
}

// TestAbstractArea covers an abstract Shape.area and a Circle override
// computing r*r*3 for r=10 -> 300.
func TestAbstractArea(t *testing.T) {
	prog := &ast.Program{
		Classes: []*ast.ClassDecl{
			{Name: "Shape", IsAbstract: true, Methods: []ast.MethodDecl{
				{Name: "area", IsAbstract: true},
			}},
			{Name: "Circle", Superclass: "Shape", Fields: []ast.FieldDecl{{Name: "r"}},
				Methods: []ast.MethodDecl{
					{Name: "constructor", Params: []ast.Param{{Name: "r"}}, Body: []ast.Statement{
						&ast.ExpressionStmt{Value: &ast.BinaryExpr{Op: "=",
							Left:  &ast.MemberAccess{Object: ident("this"), Name: "r"},
							Right: ident("r")}},
					}},
					{Name: "area", IsOverride: true, Body: []ast.Statement{
						&ast.ReturnStmt{Value: &ast.BinaryExpr{Op: "*",
							Left: &ast.BinaryExpr{Op: "*", Left: &ast.MemberAccess{Object: ident("this"), Name: "r"}, Right: &ast.MemberAccess{Object: ident("this"), Name: "r"}},
							Right: num(3)}},
					}},
				}},
		},
		Functions: []*ast.FunctionDecl{
			{Name: "main", Body: []ast.Statement{
				&ast.ReturnStmt{Value: &ast.CallExpr{
					Callee: &ast.MemberAccess{Object: &ast.NewExpr{ClassName: "Circle", Args: []ast.Expression{num(10)}}, Name: "area"},
				}},
			}},
		},
	}

	p, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	v, err := p.Invoke("main", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if n, ok := v.(runtime.Number); !ok || n.Value != 300 {
		t.Fatalf("got %v, want 300", v)
	}
}

// TestConstructorFieldInit covers class K{x=1;
// constructor(v){this.y=v+this.x;}}; new K(10).y must be 11 — the field map
// (and x's initializer) must exist before the constructor body runs.
func TestConstructorFieldInit(t *testing.T) {
	prog := &ast.Program{
		Classes: []*ast.ClassDecl{
			{Name: "K",
				Fields: []ast.FieldDecl{{Name: "x", Initializer: num(1)}},
				Methods: []ast.MethodDecl{
					{Name: "constructor", Params: []ast.Param{{Name: "v"}}, Body: []ast.Statement{
						&ast.ExpressionStmt{Value: &ast.BinaryExpr{Op: "=",
							Left: &ast.MemberAccess{Object: ident("this"), Name: "y"},
							Right: &ast.BinaryExpr{Op: "+", Left: ident("v"), Right: &ast.MemberAccess{Object: ident("this"), Name: "x"}},
						}},
					}},
				}},
		},
		Functions: []*ast.FunctionDecl{
			{Name: "main", Body: []ast.Statement{
				&ast.ReturnStmt{Value: &ast.MemberAccess{Object: &ast.NewExpr{ClassName: "K", Args: []ast.Expression{num(10)}}, Name: "y"}},
			}},
		},
	}

	p, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	v, err := p.Invoke("main", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if n, ok := v.(runtime.Number); !ok || n.Value != 11 {
		t.Fatalf("got %v, want 11", v)
	}
}

// TestAwaitCatch covers an async function that awaits a
// rejected task inside try/catch and returns "got "+e.message, exercising
// the state machine's exception-table dispatch across a suspension.
func TestAwaitCatch(t *testing.T) {
	prog := &ast.Program{
		Functions: []*ast.FunctionDecl{
			{Name: "reject", IsAsync: true, Params: []ast.Param{{Name: "msg"}}, Body: []ast.Statement{
				&ast.ThrowStmt{Value: &ast.ObjectLit{Properties: []ast.ObjectProperty{{Key: "message", Value: ident("msg")}}}},
			}},
			{Name: "f", IsAsync: true, Body: []ast.Statement{
				&ast.TryStmt{
					Body: []ast.Statement{
						&ast.ExpressionStmt{Value: &ast.AwaitExpr{Value: &ast.CallExpr{Callee: ident("reject"), Args: []ast.Expression{str("e")}}}},
						&ast.ReturnStmt{Value: str("X")},
					},
					Catch: &ast.CatchClause{Name: "e", Body: []ast.Statement{
						&ast.ReturnStmt{Value: &ast.BinaryExpr{Op: "+", Left: str("got "), Right: &ast.MemberAccess{Object: ident("e"), Name: "message"}}},
					}},
				},
			}},
		},
	}

	p, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	v, err := p.Invoke("f", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	s, ok := v.(runtime.Str)
	if !ok || s.Value != "got e" {
		t.Fatalf("got %v, want %q", v, "got e")
	}
}

// TestSyncFastPath covers the case where every task an
// async body awaits is already terminal at the await site, the task
// RunAsync hands back is itself already terminal — no suspension occurs.
func TestSyncFastPath(t *testing.T) {
	prog := &ast.Program{
		Functions: []*ast.FunctionDecl{
			{Name: "g", IsAsync: true, Body: []ast.Statement{
				&ast.ReturnStmt{Value: &ast.AwaitExpr{Value: &ast.CallExpr{
					Callee: &ast.MemberAccess{Object: ident("Promise"), Name: "resolve"},
					Args:   []ast.Expression{num(5)},
				}}},
			}},
		},
	}

	p, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	h, err := p.RunAsync("g", nil)
	if err != nil {
		t.Fatalf("RunAsync: %v", err)
	}
	if !h.IsCompleted() {
		t.Fatalf("expected an already-terminal task, got state %v", h.State())
	}
	n, ok := h.Value().(runtime.Number)
	if !ok || n.Value != 5 {
		t.Fatalf("got %v, want 5", h.Value())
	}
}

// TestPromiseAllSettledEmpty covers Promise.allSettled([])
// settling immediately with an empty array.
func TestPromiseAllSettledEmpty(t *testing.T) {
	prog := &ast.Program{
		Functions: []*ast.FunctionDecl{
			{Name: "g", IsAsync: true, Body: []ast.Statement{
				&ast.ReturnStmt{Value: &ast.AwaitExpr{Value: &ast.CallExpr{
					Callee: &ast.MemberAccess{Object: ident("Promise"), Name: "allSettled"},
					Args:   []ast.Expression{&ast.ArrayLit{}},
				}}},
			}},
		},
	}

	p, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	v, err := p.Invoke("g", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	a, ok := v.(*runtime.Array)
	if !ok || a.Len() != 0 {
		t.Fatalf("got %v, want an empty array", v)
	}
}

// TestPromiseAllSettledMixed covers a fulfilled value, a
// rejected task, and a plain (non-task) value all settling into {status,
// value|reason} records in input order, with allSettled itself never
// rejecting.
func TestPromiseAllSettledMixed(t *testing.T) {
	prog := &ast.Program{
		Functions: []*ast.FunctionDecl{
			{Name: "g", IsAsync: true, Body: []ast.Statement{
				&ast.ReturnStmt{Value: &ast.AwaitExpr{Value: &ast.CallExpr{
					Callee: &ast.MemberAccess{Object: ident("Promise"), Name: "allSettled"},
					Args: []ast.Expression{&ast.ArrayLit{Elements: []ast.Expression{
						&ast.CallExpr{Callee: &ast.MemberAccess{Object: ident("Promise"), Name: "resolve"}, Args: []ast.Expression{num(1)}},
						&ast.CallExpr{Callee: &ast.MemberAccess{Object: ident("Promise"), Name: "reject"}, Args: []ast.Expression{str("bad")}},
						num(2),
					}}},
				}}},
			}},
		},
	}

	p, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	v, err := p.Invoke("g", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	a, ok := v.(*runtime.Array)
	if !ok || a.Len() != 3 {
		t.Fatalf("got %v, want a 3-element array", v)
	}

	rec0, ok := a.Get(0).(*runtime.Object)
	if !ok {
		t.Fatalf("element 0: got %v, want a record", a.Get(0))
	}
	if status, _ := rec0.Get("status"); status.String() != "fulfilled" {
		t.Fatalf("element 0 status: got %v, want fulfilled", status)
	}
	if value, _ := rec0.Get("value"); value.(runtime.Number).Value != 1 {
		t.Fatalf("element 0 value: got %v, want 1", value)
	}

	rec1, ok := a.Get(1).(*runtime.Object)
	if !ok {
		t.Fatalf("element 1: got %v, want a record", a.Get(1))
	}
	if status, _ := rec1.Get("status"); status.String() != "rejected" {
		t.Fatalf("element 1 status: got %v, want rejected", status)
	}
	if reason, _ := rec1.Get("reason"); reason.(runtime.Str).Value != "bad" {
		t.Fatalf("element 1 reason: got %v, want bad", reason)
	}

	rec2, ok := a.Get(2).(*runtime.Object)
	if !ok {
		t.Fatalf("element 2: got %v, want a record", a.Get(2))
	}
	if status, _ := rec2.Get("status"); status.String() != "fulfilled" {
		t.Fatalf("element 2 status: got %v, want fulfilled", status)
	}
	if value, _ := rec2.Get("value"); value.(runtime.Number).Value != 2 {
		t.Fatalf("element 2 value: got %v, want 2", value)
	}
}

// TestArrayBuiltinsChain grounds the array builtin method set (push, map,
// filter, join) against a plain literal array — no class or async
// machinery involved, just the shared callArrayMethod dispatch.
func TestArrayBuiltinsChain(t *testing.T) {
	prog := &ast.Program{
		Functions: []*ast.FunctionDecl{
			{Name: "double", Params: []ast.Param{{Name: "x"}}, Body: []ast.Statement{
				&ast.ReturnStmt{Value: &ast.BinaryExpr{Op: "*", Left: ident("x"), Right: num(2)}},
			}},
			{Name: "isEven", Params: []ast.Param{{Name: "x"}}, Body: []ast.Statement{
				&ast.ReturnStmt{Value: &ast.BinaryExpr{Op: "==",
					Left:  &ast.BinaryExpr{Op: "%", Left: ident("x"), Right: num(2)},
					Right: num(0)}},
			}},
			{Name: "main", Body: []ast.Statement{
				&ast.VarDecl{Name: "xs", Initializer: &ast.ArrayLit{Elements: []ast.Expression{num(1), num(2), num(3)}}},
				&ast.ExpressionStmt{Value: &ast.CallExpr{
					Callee: &ast.MemberAccess{Object: ident("xs"), Name: "push"},
					Args:   []ast.Expression{num(4)},
				}},
				&ast.VarDecl{Name: "doubled", Initializer: &ast.CallExpr{
					Callee: &ast.MemberAccess{Object: ident("xs"), Name: "map"},
					Args:   []ast.Expression{ident("double")},
				}},
				&ast.VarDecl{Name: "evens", Initializer: &ast.CallExpr{
					Callee: &ast.MemberAccess{Object: ident("doubled"), Name: "filter"},
					Args:   []ast.Expression{ident("isEven")},
				}},
				&ast.ReturnStmt{Value: &ast.CallExpr{
					Callee: &ast.MemberAccess{Object: ident("evens"), Name: "join"},
					Args:   []ast.Expression{str(",")},
				}},
			}},
		},
	}

	p, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	v, err := p.Invoke("main", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	s, ok := v.(runtime.Str)
	if !ok || s.Value != "2,4,6,8" {
		t.Fatalf("got %v, want \"2,4,6,8\"", v)
	}
}

// TestFinallyReturnSupersedesAsyncException covers an async function whose
// finally block returns while an exception from the try body is still
// propagating: the finally's return must win, yielding a fulfilled task
// rather than a rejected one.
func TestFinallyReturnSupersedesAsyncException(t *testing.T) {
	prog := &ast.Program{
		Functions: []*ast.FunctionDecl{
			{Name: "reject", IsAsync: true, Body: []ast.Statement{
				&ast.ThrowStmt{Value: str("boom")},
			}},
			{Name: "f", IsAsync: true, Body: []ast.Statement{
				&ast.TryStmt{
					Body: []ast.Statement{
						&ast.ExpressionStmt{Value: &ast.AwaitExpr{Value: &ast.CallExpr{Callee: ident("reject")}}},
					},
					Finally: []ast.Statement{
						&ast.ReturnStmt{Value: str("recovered")},
					},
				},
			}},
		},
	}

	p, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	h, err := p.RunAsync("f", nil)
	if err != nil {
		t.Fatalf("RunAsync: %v", err)
	}
	if h.State() != task.Fulfilled {
		t.Fatalf("got state %v, want Fulfilled", h.State())
	}
	s, ok := h.Value().(runtime.Str)
	if !ok || s.Value != "recovered" {
		t.Fatalf("got %v, want %q", h.Value(), "recovered")
	}
}

// TestAwaitInFinallyRejected covers that an await anywhere inside a
// finally block — even nested inside an if — is rejected at compile time,
// rather than behaving differently depending on whether the finally is
// reached by fallthrough or by exception unwinding.
func TestAwaitInFinallyRejected(t *testing.T) {
	prog := &ast.Program{
		Functions: []*ast.FunctionDecl{
			{Name: "f", IsAsync: true, Body: []ast.Statement{
				&ast.TryStmt{
					Body: []ast.Statement{
						&ast.ExpressionStmt{Value: num(1)},
					},
					Finally: []ast.Statement{
						&ast.IfStmt{Cond: ident("cond"), Then: []ast.Statement{
							&ast.ExpressionStmt{Value: &ast.AwaitExpr{Value: ident("p")}},
						}},
					},
				},
			}},
		},
	}

	if _, err := compiler.Compile(prog); err == nil {
		t.Fatal("expected an await inside a finally block to be rejected at compile time")
	}
}

