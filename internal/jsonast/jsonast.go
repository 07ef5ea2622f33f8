// Package jsonast loads a JSON-encoded program tree into pkg/ast types. This
// is the wire format a real lexer/parser front end would hand the core, and
// the permissive-read counterpart of the cmd/tscore --trace flag's
// tidwall/sjson writes.
//
// gjson is used instead of encoding/json so that optional fields
// (is_override, is_abstract, default-parameter expressions, ...) can be
// read without requiring every producer to populate a fully-typed struct.
package jsonast

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/tscore-lang/tscore/pkg/ast"
)

// Load parses a JSON document into a *ast.Program.
func Load(data []byte) (*ast.Program, error) {
	root := gjson.ParseBytes(data)
	if !root.Exists() {
		return nil, fmt.Errorf("jsonast: empty or invalid JSON document")
	}

	prog := &ast.Program{}

	for _, c := range root.Get("classes").Array() {
		cd, err := decodeClass(c)
		if err != nil {
			return nil, err
		}
		prog.Classes = append(prog.Classes, cd)
	}

	for _, f := range root.Get("functions").Array() {
		fd, err := decodeFunction(f)
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fd)
	}

	return prog, nil
}

func pos(r gjson.Result) ast.Position {
	return ast.Position{
		Line:   int(r.Get("line").Int()),
		Column: int(r.Get("column").Int()),
	}
}

func decodeClass(r gjson.Result) (*ast.ClassDecl, error) {
	cd := &ast.ClassDecl{
		Position:   pos(r),
		Name:       r.Get("name").String(),
		Superclass: r.Get("superclass").String(),
		IsAbstract: r.Get("is_abstract").Bool(),
	}
	for _, g := range r.Get("generic_params").Array() {
		cd.GenericParams = append(cd.GenericParams, ast.GenericParam{
			Name:       g.Get("name").String(),
			Constraint: g.Get("constraint").String(),
		})
	}
	for _, f := range r.Get("fields").Array() {
		fd := ast.FieldDecl{
			Position: pos(f),
			Name:     f.Get("name").String(),
			IsStatic: f.Get("is_static").Bool(),
		}
		if init := f.Get("initializer"); init.Exists() {
			expr, err := decodeExpr(init)
			if err != nil {
				return nil, err
			}
			fd.Initializer = expr
		}
		cd.Fields = append(cd.Fields, fd)
	}
	for _, m := range r.Get("methods").Array() {
		md, err := decodeMethod(m)
		if err != nil {
			return nil, err
		}
		cd.Methods = append(cd.Methods, *md)
	}
	for _, a := range r.Get("accessors").Array() {
		ad, err := decodeAccessor(a)
		if err != nil {
			return nil, err
		}
		cd.Accessors = append(cd.Accessors, *ad)
	}
	return cd, nil
}

func decodeParams(r gjson.Result) ([]ast.Param, error) {
	var out []ast.Param
	for _, p := range r.Array() {
		param := ast.Param{Name: p.Get("name").String()}
		if def := p.Get("default"); def.Exists() {
			expr, err := decodeExpr(def)
			if err != nil {
				return nil, err
			}
			param.Default = expr
		}
		out = append(out, param)
	}
	return out, nil
}

func decodeMethod(r gjson.Result) (*ast.MethodDecl, error) {
	params, err := decodeParams(r.Get("params"))
	if err != nil {
		return nil, err
	}
	md := &ast.MethodDecl{
		Position:   pos(r),
		Name:       r.Get("name").String(),
		Params:     params,
		IsStatic:   r.Get("is_static").Bool(),
		IsAsync:    r.Get("is_async").Bool(),
		IsAbstract: r.Get("is_abstract").Bool(),
		IsOverride: r.Get("is_override").Bool(),
	}
	if !md.IsAbstract {
		body, err := decodeStatements(r.Get("body"))
		if err != nil {
			return nil, err
		}
		md.Body = body
	}
	return md, nil
}

func decodeAccessor(r gjson.Result) (*ast.AccessorDecl, error) {
	kind := ast.AccessorGet
	if r.Get("kind").String() == "set" {
		kind = ast.AccessorSet
	}
	ad := &ast.AccessorDecl{
		Position:    pos(r),
		Kind:        kind,
		Name:        r.Get("name").String(),
		SetterParam: r.Get("setter_param").String(),
		IsAbstract:  r.Get("is_abstract").Bool(),
	}
	if !ad.IsAbstract {
		body, err := decodeStatements(r.Get("body"))
		if err != nil {
			return nil, err
		}
		ad.Body = body
	}
	return ad, nil
}

func decodeFunction(r gjson.Result) (*ast.FunctionDecl, error) {
	params, err := decodeParams(r.Get("params"))
	if err != nil {
		return nil, err
	}
	body, err := decodeStatements(r.Get("body"))
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDecl{
		Position: pos(r),
		Name:     r.Get("name").String(),
		Params:   params,
		Body:     body,
		IsAsync:  r.Get("is_async").Bool(),
	}, nil
}

func decodeStatements(r gjson.Result) ([]ast.Statement, error) {
	var out []ast.Statement
	for _, s := range r.Array() {
		stmt, err := decodeStatement(s)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

func decodeStatement(r gjson.Result) (ast.Statement, error) {
	switch kind := r.Get("kind").String(); kind {
	case "block":
		stmts, err := decodeStatements(r.Get("statements"))
		if err != nil {
			return nil, err
		}
		return &ast.Block{Position: pos(r), Statements: stmts}, nil

	case "var":
		v := &ast.VarDecl{Position: pos(r), Name: r.Get("name").String()}
		if init := r.Get("initializer"); init.Exists() {
			expr, err := decodeExpr(init)
			if err != nil {
				return nil, err
			}
			v.Initializer = expr
		}
		return v, nil

	case "return":
		rs := &ast.ReturnStmt{Position: pos(r)}
		if v := r.Get("value"); v.Exists() {
			expr, err := decodeExpr(v)
			if err != nil {
				return nil, err
			}
			rs.Value = expr
		}
		return rs, nil

	case "if":
		cond, err := decodeExpr(r.Get("cond"))
		if err != nil {
			return nil, err
		}
		then, err := decodeStatements(r.Get("then"))
		if err != nil {
			return nil, err
		}
		var els []ast.Statement
		if e := r.Get("else"); e.Exists() {
			els, err = decodeStatements(e)
			if err != nil {
				return nil, err
			}
		}
		return &ast.IfStmt{Position: pos(r), Cond: cond, Then: then, Else: els}, nil

	case "while":
		cond, err := decodeExpr(r.Get("cond"))
		if err != nil {
			return nil, err
		}
		body, err := decodeStatements(r.Get("body"))
		if err != nil {
			return nil, err
		}
		return &ast.WhileStmt{Position: pos(r), Cond: cond, Body: body}, nil

	case "for":
		fs := &ast.ForStmt{Position: pos(r)}
		if init := r.Get("init"); init.Exists() {
			s, err := decodeStatement(init)
			if err != nil {
				return nil, err
			}
			fs.Init = s
		}
		if cond := r.Get("cond"); cond.Exists() {
			e, err := decodeExpr(cond)
			if err != nil {
				return nil, err
			}
			fs.Cond = e
		}
		if post := r.Get("post"); post.Exists() {
			s, err := decodeStatement(post)
			if err != nil {
				return nil, err
			}
			fs.Post = s
		}
		body, err := decodeStatements(r.Get("body"))
		if err != nil {
			return nil, err
		}
		fs.Body = body
		return fs, nil

	case "throw":
		v, err := decodeExpr(r.Get("value"))
		if err != nil {
			return nil, err
		}
		return &ast.ThrowStmt{Position: pos(r), Value: v}, nil

	case "try":
		ts := &ast.TryStmt{Position: pos(r)}
		body, err := decodeStatements(r.Get("body"))
		if err != nil {
			return nil, err
		}
		ts.Body = body
		if c := r.Get("catch"); c.Exists() {
			catchBody, err := decodeStatements(c.Get("body"))
			if err != nil {
				return nil, err
			}
			ts.Catch = &ast.CatchClause{Name: c.Get("name").String(), Body: catchBody}
		}
		if f := r.Get("finally"); f.Exists() {
			finallyBody, err := decodeStatements(f)
			if err != nil {
				return nil, err
			}
			ts.Finally = finallyBody
		}
		return ts, nil

	case "expr":
		v, err := decodeExpr(r.Get("value"))
		if err != nil {
			return nil, err
		}
		return &ast.ExpressionStmt{Position: pos(r), Value: v}, nil

	default:
		return nil, fmt.Errorf("jsonast: unknown statement kind %q", kind)
	}
}

func decodeExpr(r gjson.Result) (ast.Expression, error) {
	switch kind := r.Get("kind").String(); kind {
	case "undefined":
		return &ast.Literal{Position: pos(r), Kind: ast.LiteralUndefined}, nil
	case "null":
		return &ast.Literal{Position: pos(r), Kind: ast.LiteralNull}, nil
	case "bool":
		return &ast.Literal{Position: pos(r), Kind: ast.LiteralBool, Bool: r.Get("value").Bool()}, nil
	case "number":
		return &ast.Literal{Position: pos(r), Kind: ast.LiteralNumber, Number: r.Get("value").Float()}, nil
	case "string":
		return &ast.Literal{Position: pos(r), Kind: ast.LiteralString, String: r.Get("value").String()}, nil

	case "ident":
		return &ast.Identifier{Position: pos(r), Name: r.Get("name").String()}, nil

	case "binary":
		left, err := decodeExpr(r.Get("left"))
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(r.Get("right"))
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Position: pos(r), Op: r.Get("op").String(), Left: left, Right: right}, nil

	case "unary":
		operand, err := decodeExpr(r.Get("operand"))
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Position: pos(r), Op: r.Get("op").String(), Operand: operand}, nil

	case "call":
		callee, err := decodeExpr(r.Get("callee"))
		if err != nil {
			return nil, err
		}
		args, err := decodeExprList(r.Get("args"))
		if err != nil {
			return nil, err
		}
		return &ast.CallExpr{Position: pos(r), Callee: callee, Args: args}, nil

	case "member":
		obj, err := decodeExpr(r.Get("object"))
		if err != nil {
			return nil, err
		}
		return &ast.MemberAccess{Position: pos(r), Object: obj, Name: r.Get("name").String()}, nil

	case "index":
		obj, err := decodeExpr(r.Get("object"))
		if err != nil {
			return nil, err
		}
		idx, err := decodeExpr(r.Get("index"))
		if err != nil {
			return nil, err
		}
		return &ast.IndexExpr{Position: pos(r), Object: obj, Index: idx}, nil

	case "await":
		v, err := decodeExpr(r.Get("value"))
		if err != nil {
			return nil, err
		}
		return &ast.AwaitExpr{Position: pos(r), Value: v}, nil

	case "new":
		args, err := decodeExprList(r.Get("args"))
		if err != nil {
			return nil, err
		}
		return &ast.NewExpr{Position: pos(r), ClassName: r.Get("class_name").String(), Args: args}, nil

	case "super":
		return &ast.SuperExpr{Position: pos(r)}, nil

	case "array":
		elems, err := decodeExprList(r.Get("elements"))
		if err != nil {
			return nil, err
		}
		return &ast.ArrayLit{Position: pos(r), Elements: elems}, nil

	case "object":
		var props []ast.ObjectProperty
		for _, p := range r.Get("properties").Array() {
			v, err := decodeExpr(p.Get("value"))
			if err != nil {
				return nil, err
			}
			props = append(props, ast.ObjectProperty{Key: p.Get("key").String(), Value: v})
		}
		return &ast.ObjectLit{Position: pos(r), Properties: props}, nil

	case "arrow":
		params, err := decodeParams(r.Get("params"))
		if err != nil {
			return nil, err
		}
		body, err := decodeStatements(r.Get("body"))
		if err != nil {
			return nil, err
		}
		return &ast.ArrowFn{Position: pos(r), Params: params, Body: body, IsAsync: r.Get("is_async").Bool()}, nil

	case "template":
		var parts []ast.TemplatePart
		for _, p := range r.Get("parts").Array() {
			if e := p.Get("expr"); e.Exists() {
				expr, err := decodeExpr(e)
				if err != nil {
					return nil, err
				}
				parts = append(parts, ast.TemplatePart{Expr: expr})
				continue
			}
			parts = append(parts, ast.TemplatePart{Literal: p.Get("literal").String()})
		}
		return &ast.TemplateLit{Position: pos(r), Parts: parts}, nil

	case "assert":
		v, err := decodeExpr(r.Get("value"))
		if err != nil {
			return nil, err
		}
		return &ast.AssertExpr{Position: pos(r), Value: v}, nil

	case "nonnull":
		v, err := decodeExpr(r.Get("value"))
		if err != nil {
			return nil, err
		}
		return &ast.NonNullExpr{Position: pos(r), Value: v}, nil

	case "cast":
		v, err := decodeExpr(r.Get("value"))
		if err != nil {
			return nil, err
		}
		return &ast.CastExpr{Position: pos(r), Value: v, TypeName: r.Get("type_name").String()}, nil

	default:
		return nil, fmt.Errorf("jsonast: unknown expression kind %q", kind)
	}
}

func decodeExprList(r gjson.Result) ([]ast.Expression, error) {
	var out []ast.Expression
	for _, e := range r.Array() {
		expr, err := decodeExpr(e)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}
