package errors

import (
	"fmt"
	"strings"

	"github.com/tscore-lang/tscore/pkg/ast"
)

// CompilerError is raised by the class registry / compiler at program-load
// time: duplicate classes, misuse of `override`, unresolved overrides. It
// carries enough context to point at the offending source line.
type CompilerError struct {
	Phase   string // "Parse Error" or "Type Error"
	Message string
	Source  string
	Pos     ast.Position
}

// NewCompilerError builds a load-time error for the given phase.
func NewCompilerError(phase string, pos ast.Position, message, source string) *CompilerError {
	return &CompilerError{Phase: phase, Pos: pos, Message: message, Source: source}
}

// Error implements the error interface.
func (e *CompilerError) Error() string {
	return e.Format()
}

// Format renders the error with a source line and a caret pointing at the
// column.
func (e *CompilerError) Format() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s at line %d:%d\n", e.Phase, e.Pos.Line, e.Pos.Column))

	if line := sourceLine(e.Source, e.Pos.Line); line != "" {
		prefix := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+e.Pos.Column-1))
		sb.WriteString("^\n")
	}

	sb.WriteString(e.Message)
	return sb.String()
}

func sourceLine(source string, lineNum int) string {
	if source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// RuntimeError is a value-carrying runtime failure: TypeError on bad
// property/call targets, abstract-method dispatch, or a user `throw`. Every
// runtime error surfaces a plain Message string.
type RuntimeError struct {
	Kind      string // "TypeError", "AbstractMethodError", "UserError", ...
	Message   string
	Pos       ast.Position
	CallStack StackTrace
}

// NewRuntimeError builds a runtime error with the given kind and message.
func NewRuntimeError(kind string, pos ast.Position, message string, stack StackTrace) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: message, Pos: pos, CallStack: stack}
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errors returned by the class registry.
var (
	ErrDuplicateClass    = "class %q is already declared"
	ErrOverrideNoParent  = "method %q marked override has no superclass to override"
	ErrOverrideOnStatic  = "static method %q cannot be marked override"
	ErrOverrideOnCtor    = "constructor cannot be marked override"
	ErrOverrideMismatch  = "method %q marked override has no matching method in any ancestor of %q"
)

// NotFoundError reports that a named class, method, or property could not be
// resolved.
type NotFoundError struct {
	Kind string // "class", "method", "property", "constructor"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// AbstractDispatchError reports a virtual dispatch that resolved to an
// abstract method/accessor with no body.
type AbstractDispatchError struct {
	Name string
}

func (e *AbstractDispatchError) Error() string {
	return fmt.Sprintf("abstract method invoked: %s", e.Name)
}

// OverrideMismatchError reports an `override` declaration rejected at class
// definition time because no ancestor declares the same-named method.
type OverrideMismatchError struct {
	Method string
	Class  string
}

func (e *OverrideMismatchError) Error() string {
	return fmt.Sprintf(ErrOverrideMismatch, e.Method, e.Class)
}
