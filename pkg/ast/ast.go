// Package ast defines the node types the front end (lexer/parser, out of
// scope for this core) hands to the compiler: the statement and expression
// shapes enumerated in the core specification's external-interfaces section.
package ast

// Position locates a node in the original source text. The front end is
// responsible for filling it in; the core only ever reads it back for error
// reporting.
type Position struct {
	Line   int
	Column int
}

// Node is implemented by every statement and expression.
type Node interface {
	Pos() Position
}

// Statement is implemented by every statement node.
type Statement interface {
	Node
	statementNode()
}

// Expression is implemented by every expression node.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root of a compiled unit: a set of class declarations and
// top-level function declarations.
type Program struct {
	Position
	Classes   []*ClassDecl
	Functions []*FunctionDecl
}

func (p *Program) Pos() Position { return p.Position }

// GenericParam describes one generic type parameter on a class.
type GenericParam struct {
	Name       string
	Constraint string // empty if unconstrained
}

// FieldDecl is an instance or static field declaration inside a class body.
type FieldDecl struct {
	Position
	Name        string
	Initializer Expression // nil if no initializer
	IsStatic    bool
}

// Param is a formal parameter of a function, method, constructor, or arrow
// function. Default may be nil.
type Param struct {
	Name    string
	Default Expression
}

// MethodDecl is a method, constructor, or static method declaration.
// Name == "constructor" marks the constructor.
type MethodDecl struct {
	Position
	Name       string
	Params     []Param
	Body       []Statement // nil for abstract methods
	IsStatic   bool
	IsAsync    bool
	IsAbstract bool
	IsOverride bool
}

// AccessorKind distinguishes get/set accessors.
type AccessorKind int

const (
	AccessorGet AccessorKind = iota
	AccessorSet
)

// AccessorDecl is a `get`/`set` property accessor declaration.
type AccessorDecl struct {
	Position
	Kind        AccessorKind
	Name        string // property name, e.g. "area" for get area()
	SetterParam string // parameter name for set accessors
	Body        []Statement
	IsAbstract  bool
}

// ClassDecl is a class declaration.
type ClassDecl struct {
	Position
	Name         string
	Superclass   string // empty if no superclass
	IsAbstract   bool
	GenericParams []GenericParam
	Fields       []FieldDecl
	Methods      []MethodDecl
	Accessors    []AccessorDecl
}

func (c *ClassDecl) Pos() Position { return c.Position }

// FunctionDecl is a top-level (non-method) function declaration.
type FunctionDecl struct {
	Position
	Name    string
	Params  []Param
	Body    []Statement
	IsAsync bool
}

func (f *FunctionDecl) Pos() Position { return f.Position }
