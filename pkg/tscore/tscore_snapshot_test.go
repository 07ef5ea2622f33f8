package tscore_test

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/tscore-lang/tscore/pkg/ast"
	"github.com/tscore-lang/tscore/pkg/tscore"
)

func num(n float64) *ast.Literal { return &ast.Literal{Kind: ast.LiteralNumber, Number: n} }

// TestWorkedScenarios snapshots the rendered result of a few representative
// scenarios through the public Compile/Invoke path, the same
// build-once-snapshot-the-rendered-output style used elsewhere in this
// tree's CLI/interpreter output tests.
func TestWorkedScenarios(t *testing.T) {
	scenarios := map[string]*ast.Program{
		"override_dispatch": {
			Classes: []*ast.ClassDecl{
				{Name: "A", Methods: []ast.MethodDecl{{Name: "getValue", Body: []ast.Statement{&ast.ReturnStmt{Value: num(1)}}}}},
				{Name: "B", Superclass: "A", Methods: []ast.MethodDecl{{Name: "getValue", IsOverride: true, Body: []ast.Statement{&ast.ReturnStmt{Value: num(2)}}}}},
			},
			Functions: []*ast.FunctionDecl{
				{Name: "main", Body: []ast.Statement{
					&ast.ReturnStmt{Value: &ast.CallExpr{Callee: &ast.MemberAccess{Object: &ast.NewExpr{ClassName: "B"}, Name: "getValue"}}},
				}},
			},
		},
		"promise_all_settled_empty": {
			Functions: []*ast.FunctionDecl{
				{Name: "main", IsAsync: true, Body: []ast.Statement{
					&ast.ReturnStmt{Value: &ast.AwaitExpr{Value: &ast.CallExpr{
						Callee: &ast.MemberAccess{Object: &ast.Identifier{Name: "Promise"}, Name: "allSettled"},
						Args:   []ast.Expression{&ast.ArrayLit{}},
					}}},
				}},
			},
		},
	}

	for name, prog := range scenarios {
		p, err := tscore.Compile(prog)
		if err != nil {
			t.Fatalf("%s: Compile: %v", name, err)
		}
		v, err := p.Invoke("main", nil)
		if err != nil {
			t.Fatalf("%s: Invoke: %v", name, err)
		}
		snaps.MatchSnapshot(t, name, v.String())
	}
}
