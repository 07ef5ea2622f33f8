package compiler

import (
	"strconv"

	"github.com/tscore-lang/tscore/internal/runtime"
	"github.com/tscore-lang/tscore/pkg/ast"
)

// opKind tags one instruction in a lowered async body. Expression evaluation
// itself still tree-walks through Eval; only control flow and suspension
// points are flattened into this linear, program-counter-addressed form —
// the state machine needs an explicit, resumable "where am I" that a plain
// Go call stack cannot give it across an await.
type opKind int

const (
	opExprStmt opKind = iota
	opVarDecl
	opReturn
	opThrow
	opJump
	opJumpIfFalse
	opAwait
)

// tryFrame is one lexically nested try/catch/finally construct reachable
// from the ops it protects. Ops are tagged with the innermost frame
// enclosing them (frame.parent walks outward) so exception dispatch can
// find the right handler purely from the current program counter — no
// runtime protected-region stack needs to be rebuilt on resume.
type tryFrame struct {
	parent     *tryFrame
	hasCatch   bool
	catchVar   string
	catchPC    int
	hasFinally bool
	finally    []ast.Statement // run synchronously; see machine.go's runFinally
}

// op is one instruction of a lowered body. inCatch is true for ops lowered
// from a catch body: this frame's own catch has already been used, so
// dispatch from here skips straight to running finally (if any) and
// propagating out.
type op struct {
	kind    opKind
	expr    ast.Expression // opExprStmt/opThrow/opJumpIfFalse condition/opAwait/opReturn
	name    string         // opVarDecl name, opAwait bind name
	target  int            // opJump/opJumpIfFalse destination
	inCatch bool
	frame   *tryFrame
}

// asyncProgram is the compiled instruction list for one async method,
// function, or arrow function body.
type asyncProgram struct {
	ops     []op
	params  []ast.Param
	tempSeq int
}

// newTemp returns a fresh synthetic local name for staging an awaited value
// through a larger expression (e.g. `return await p` becomes "await into a
// temp, then return the temp").
func (p *asyncProgram) newTemp() string {
	p.tempSeq++
	return "$await" + strconv.Itoa(p.tempSeq)
}

// asBareAwait reports whether expr is exactly an AwaitExpr with nothing else
// around it — the only shape lowerStatement expands specially. Anything
// more deeply nested (an await as a sub-expression of a call argument, a
// binary operand, etc.) is rejected by mustNotAwait at lowering time: only
// statement-level await is supported by this lowering.
func asBareAwait(expr ast.Expression) (*ast.AwaitExpr, bool) {
	a, ok := expr.(*ast.AwaitExpr)
	return a, ok
}

// mustNotAwait panics (recovered by defineClassBodies for method bodies and
// by compileFunctionBody for top-level functions, both turning it into a
// CompilerError) if expr contains an AwaitExpr anywhere other than the bare
// top-level position lowerStatement already handles. It does not descend
// into nested ArrowFn bodies — their own awaits lower independently.
func mustNotAwait(expr ast.Expression) {
	if expr != nil && containsAwait(expr) {
		panic("compiler: await is only supported as the entire right-hand side of a statement (var declaration, return, throw, assignment, or condition)")
	}
}

// isAssignOp reports whether op is a (possibly compound) assignment
// operator, the only BinaryExpr shape whose Right side lowerStatement will
// unwrap a bare await from.
func isAssignOp(op string) bool {
	switch op {
	case "=", "+=", "-=", "*=", "/=", "%=":
		return true
	default:
		return false
	}
}

func containsAwait(expr ast.Expression) bool {
	switch e := expr.(type) {
	case *ast.AwaitExpr:
		return true
	case *ast.BinaryExpr:
		return containsAwait(e.Left) || containsAwait(e.Right)
	case *ast.UnaryExpr:
		return containsAwait(e.Operand)
	case *ast.CallExpr:
		if containsAwait(e.Callee) {
			return true
		}
		for _, a := range e.Args {
			if containsAwait(a) {
				return true
			}
		}
		return false
	case *ast.MemberAccess:
		return containsAwait(e.Object)
	case *ast.IndexExpr:
		return containsAwait(e.Object) || containsAwait(e.Index)
	case *ast.NewExpr:
		for _, a := range e.Args {
			if containsAwait(a) {
				return true
			}
		}
		return false
	case *ast.ArrayLit:
		for _, el := range e.Elements {
			if containsAwait(el) {
				return true
			}
		}
		return false
	case *ast.ObjectLit:
		for _, prop := range e.Properties {
			if containsAwait(prop.Value) {
				return true
			}
		}
		return false
	case *ast.TemplateLit:
		for _, part := range e.Parts {
			if part.Expr != nil && containsAwait(part.Expr) {
				return true
			}
		}
		return false
	case *ast.AssertExpr:
		return containsAwait(e.Value)
	case *ast.NonNullExpr:
		return containsAwait(e.Value)
	case *ast.CastExpr:
		return containsAwait(e.Value)
	default:
		return false
	}
}

// lowerAsyncBody compiles stmts into a linear instruction list. Every
// distinct opAwait instruction's index IS its resume state: distinct await
// sites get distinct non-negative integer states trivially, since indices
// are unique by construction.
func lowerAsyncBody(stmts []ast.Statement, params []ast.Param) *asyncProgram {
	p := &asyncProgram{params: params}
	lowerStatements(p, stmts, nil, false)
	return p
}

func (p *asyncProgram) emit(o op) int {
	p.ops = append(p.ops, o)
	return len(p.ops) - 1
}

// lowerStatements appends ops for stmts, tagging each with frame (and
// inCatch, for ops belonging to a catch body specifically).
func lowerStatements(p *asyncProgram, stmts []ast.Statement, frame *tryFrame, inCatch bool) {
	for _, s := range stmts {
		lowerStatement(p, s, frame, inCatch)
	}
}

func lowerStatement(p *asyncProgram, stmt ast.Statement, frame *tryFrame, inCatch bool) {
	switch s := stmt.(type) {
	case *ast.Block:
		lowerStatements(p, s.Statements, frame, inCatch)

	case *ast.VarDecl:
		if aw, ok := asBareAwait(s.Initializer); ok {
			p.emit(op{kind: opAwait, expr: aw.Value, name: s.Name, frame: frame, inCatch: inCatch})
			return
		}
		mustNotAwait(s.Initializer)
		p.emit(op{kind: opVarDecl, name: s.Name, expr: s.Initializer, frame: frame, inCatch: inCatch})

	case *ast.ExpressionStmt:
		if aw, ok := asBareAwait(s.Value); ok {
			p.emit(op{kind: opAwait, expr: aw.Value, frame: frame, inCatch: inCatch})
			return
		}
		if b, ok := s.Value.(*ast.BinaryExpr); ok && isAssignOp(b.Op) {
			if aw, ok := asBareAwait(b.Right); ok {
				temp := p.newTemp()
				p.emit(op{kind: opAwait, expr: aw.Value, name: temp, frame: frame, inCatch: inCatch})
				assignExpr := &ast.BinaryExpr{Op: b.Op, Left: b.Left, Right: &ast.Identifier{Name: temp}}
				p.emit(op{kind: opExprStmt, expr: assignExpr, frame: frame, inCatch: inCatch})
				return
			}
		}
		mustNotAwait(s.Value)
		p.emit(op{kind: opExprStmt, expr: s.Value, frame: frame, inCatch: inCatch})

	case *ast.ReturnStmt:
		if aw, ok := asBareAwait(s.Value); ok {
			temp := p.newTemp()
			p.emit(op{kind: opAwait, expr: aw.Value, name: temp, frame: frame, inCatch: inCatch})
			p.emit(op{kind: opReturn, expr: &ast.Identifier{Name: temp}, frame: frame, inCatch: inCatch})
			return
		}
		mustNotAwait(s.Value)
		p.emit(op{kind: opReturn, expr: s.Value, frame: frame, inCatch: inCatch})

	case *ast.ThrowStmt:
		if aw, ok := asBareAwait(s.Value); ok {
			temp := p.newTemp()
			p.emit(op{kind: opAwait, expr: aw.Value, name: temp, frame: frame, inCatch: inCatch})
			p.emit(op{kind: opThrow, expr: &ast.Identifier{Name: temp}, frame: frame, inCatch: inCatch})
			return
		}
		mustNotAwait(s.Value)
		p.emit(op{kind: opThrow, expr: s.Value, frame: frame, inCatch: inCatch})

	case *ast.IfStmt:
		cond := s.Cond
		if aw, ok := asBareAwait(cond); ok {
			temp := p.newTemp()
			p.emit(op{kind: opAwait, expr: aw.Value, name: temp, frame: frame, inCatch: inCatch})
			cond = &ast.Identifier{Name: temp}
		} else {
			mustNotAwait(cond)
		}
		jf := p.emit(op{kind: opJumpIfFalse, expr: cond, frame: frame, inCatch: inCatch})
		lowerStatements(p, s.Then, frame, inCatch)
		if len(s.Else) == 0 {
			p.ops[jf].target = len(p.ops)
			return
		}
		jEnd := p.emit(op{kind: opJump, frame: frame, inCatch: inCatch})
		p.ops[jf].target = len(p.ops)
		lowerStatements(p, s.Else, frame, inCatch)
		p.ops[jEnd].target = len(p.ops)

	case *ast.WhileStmt:
		condPC := len(p.ops)
		cond := s.Cond
		if aw, ok := asBareAwait(cond); ok {
			temp := p.newTemp()
			p.emit(op{kind: opAwait, expr: aw.Value, name: temp, frame: frame, inCatch: inCatch})
			cond = &ast.Identifier{Name: temp}
		} else {
			mustNotAwait(cond)
		}
		jf := p.emit(op{kind: opJumpIfFalse, expr: cond, frame: frame, inCatch: inCatch})
		lowerStatements(p, s.Body, frame, inCatch)
		p.emit(op{kind: opJump, target: condPC, frame: frame, inCatch: inCatch})
		p.ops[jf].target = len(p.ops)

	case *ast.ForStmt:
		if s.Init != nil {
			lowerStatement(p, s.Init, frame, inCatch)
		}
		condPC := len(p.ops)
		var jf int
		hasCond := s.Cond != nil
		if hasCond {
			mustNotAwait(s.Cond) // a for-condition's await would need re-evaluation semantics this lowering doesn't define
			jf = p.emit(op{kind: opJumpIfFalse, expr: s.Cond, frame: frame, inCatch: inCatch})
		}
		lowerStatements(p, s.Body, frame, inCatch)
		if s.Post != nil {
			lowerStatement(p, s.Post, frame, inCatch)
		}
		p.emit(op{kind: opJump, target: condPC, frame: frame, inCatch: inCatch})
		if hasCond {
			p.ops[jf].target = len(p.ops)
		}

	case *ast.TryStmt:
		lowerTry(p, s, frame, inCatch)

	default:
		panic("compiler: unsupported statement in async body")
	}
}

func lowerTry(p *asyncProgram, s *ast.TryStmt, outer *tryFrame, outerInCatch bool) {
	hasCatch := s.Catch != nil && s.Catch.Body != nil
	hasFinally := len(s.Finally) > 0

	this := &tryFrame{
		parent:     outer,
		hasCatch:   hasCatch,
		hasFinally: hasFinally,
		finally:    s.Finally,
	}
	if hasCatch {
		this.catchVar = s.Catch.Name
	}

	lowerStatements(p, s.Body, this, false)

	var jPastCatch int
	if hasCatch {
		jPastCatch = p.emit(op{kind: opJump, frame: outer, inCatch: outerInCatch})
	}

	if hasCatch {
		this.catchPC = len(p.ops)
		lowerStatements(p, s.Catch.Body, this, true)
		p.ops[jPastCatch].target = len(p.ops)
	}

	if hasFinally {
		mustNotAwaitStmts(s.Finally)
		lowerStatements(p, s.Finally, outer, outerInCatch)
	}
}

// mustNotAwaitStmts panics (recovered the same way as mustNotAwait) if any
// statement in stmts contains an await anywhere,
// including nested blocks/if/while/for/try. A finally block runs
// synchronously via the tree-walking executor on every path — both the
// normal-fallthrough lowering above and machine.go's runFinally during
// exception unwinding — so it can never suspend; rejecting await here at
// lowering time keeps both paths consistent instead of one silently
// raising a spurious TypeError.
func mustNotAwaitStmts(stmts []ast.Statement) {
	for _, s := range stmts {
		mustNotAwaitStmt(s)
	}
}

func mustNotAwaitStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Block:
		mustNotAwaitStmts(s.Statements)
	case *ast.VarDecl:
		mustNotAwait(s.Initializer)
	case *ast.ExpressionStmt:
		mustNotAwait(s.Value)
	case *ast.ReturnStmt:
		mustNotAwait(s.Value)
	case *ast.ThrowStmt:
		mustNotAwait(s.Value)
	case *ast.IfStmt:
		mustNotAwait(s.Cond)
		mustNotAwaitStmts(s.Then)
		mustNotAwaitStmts(s.Else)
	case *ast.WhileStmt:
		mustNotAwait(s.Cond)
		mustNotAwaitStmts(s.Body)
	case *ast.ForStmt:
		if s.Init != nil {
			mustNotAwaitStmt(s.Init)
		}
		mustNotAwait(s.Cond)
		if s.Post != nil {
			mustNotAwaitStmt(s.Post)
		}
		mustNotAwaitStmts(s.Body)
	case *ast.TryStmt:
		mustNotAwaitStmts(s.Body)
		if s.Catch != nil {
			mustNotAwaitStmts(s.Catch.Body)
		}
		mustNotAwaitStmts(s.Finally)
	}
}

// dispatchOutcome tags how dispatch resolved a thrown value.
type dispatchOutcome int

const (
	// dispatchRoute means pc is a catch handler to resume at.
	dispatchRoute dispatchOutcome = iota
	// dispatchEscape means no frame claimed the exception; thrown (as
	// returned) is the final value to complete the machine with as an
	// error.
	dispatchEscape
	// dispatchHandled means a finally block completed abruptly with a
	// return, which the machine has already been completed with — the
	// caller must simply stop, not treat this as an escaping exception.
	dispatchHandled
)

// dispatch finds where an exception raised while executing pc should route
// to. It walks the frame chain recorded on ops[pc], running every finally it
// passes over on the way out. A finally that itself throws replaces the
// propagating value; a finally that returns supersedes the exception
// entirely, completing the machine directly (dispatchHandled).
func (m *machine) dispatch(pc int, thrown runtime.Value) (int, dispatchOutcome, runtime.Value) {
	frame := m.prog.ops[pc].frame
	inCatch := m.prog.ops[pc].inCatch
	for frame != nil {
		if !inCatch && frame.hasCatch {
			if frame.catchVar != "" {
				m.env.Define(frame.catchVar, thrown)
			}
			return frame.catchPC, dispatchRoute, nil
		}
		if frame.hasFinally {
			if res, overridden := m.runFinally(frame.finally); overridden {
				if res.kind == execReturn {
					m.complete(res.value, nil)
					return 0, dispatchHandled, nil
				}
				thrown = res.thrown
			}
		}
		inCatch = false
		frame = frame.parent
	}
	return 0, dispatchEscape, thrown
}
