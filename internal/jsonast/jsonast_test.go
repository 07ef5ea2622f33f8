package jsonast

import (
	"testing"

	"github.com/tscore-lang/tscore/pkg/ast"
)

func TestLoadEmptyDocument(t *testing.T) {
	prog, err := Load([]byte(`{}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(prog.Classes) != 0 || len(prog.Functions) != 0 {
		t.Fatalf("got %+v, want an empty program", prog)
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	if _, err := Load([]byte(``)); err == nil {
		t.Fatal("expected an error for an empty byte slice")
	}
}

func TestLoadFunctionRoundTrip(t *testing.T) {
	doc := []byte(`{
		"functions": [
			{
				"name": "add",
				"is_async": false,
				"params": [{"name": "a"}, {"name": "b", "default": {"kind": "number", "value": 1}}],
				"body": [
					{"kind": "return", "value": {
						"kind": "binary", "op": "+",
						"left": {"kind": "ident", "name": "a"},
						"right": {"kind": "ident", "name": "b"}
					}}
				]
			}
		]
	}`)

	prog, err := Load(doc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(prog.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(prog.Functions))
	}
	fn := prog.Functions[0]
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("got %+v", fn)
	}
	if fn.Params[1].Default == nil {
		t.Fatal("expected the second parameter to carry a default expression")
	}
	if len(fn.Body) != 1 {
		t.Fatalf("got %d statements, want 1", len(fn.Body))
	}
	ret, ok := fn.Body[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.ReturnStmt", fn.Body[0])
	}
	bin, ok := ret.Value.(*ast.BinaryExpr)
	if !ok || bin.Op != "+" {
		t.Fatalf("got %+v, want a + binary expression", ret.Value)
	}
}

func TestLoadClassWithAbstractMethodAndAccessor(t *testing.T) {
	doc := []byte(`{
		"classes": [
			{
				"name": "Shape",
				"is_abstract": true,
				"fields": [{"name": "label", "initializer": {"kind": "string", "value": "shape"}}],
				"methods": [{"name": "area", "is_abstract": true}],
				"accessors": [{"kind": "get", "name": "label", "is_abstract": false,
					"body": [{"kind": "return", "value": {"kind": "member", "object": {"kind": "ident", "name": "this"}, "name": "label"}}]}]
			}
		]
	}`)

	prog, err := Load(doc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(prog.Classes) != 1 {
		t.Fatalf("got %d classes, want 1", len(prog.Classes))
	}
	cls := prog.Classes[0]
	if !cls.IsAbstract || cls.Name != "Shape" {
		t.Fatalf("got %+v", cls)
	}
	if len(cls.Methods) != 1 || !cls.Methods[0].IsAbstract || cls.Methods[0].Body != nil {
		t.Fatalf("got %+v, want one abstract method with no body", cls.Methods)
	}
	if len(cls.Accessors) != 1 || cls.Accessors[0].Kind != ast.AccessorGet {
		t.Fatalf("got %+v", cls.Accessors)
	}
}

func TestLoadUnknownStatementKind(t *testing.T) {
	doc := []byte(`{"functions": [{"name": "f", "body": [{"kind": "bogus"}]}]}`)
	if _, err := Load(doc); err == nil {
		t.Fatal("expected an error for an unrecognized statement kind")
	}
}

func TestLoadUnknownExpressionKind(t *testing.T) {
	doc := []byte(`{"functions": [{"name": "f", "body": [{"kind": "expr", "value": {"kind": "bogus"}}]}]}`)
	if _, err := Load(doc); err == nil {
		t.Fatal("expected an error for an unrecognized expression kind")
	}
}
