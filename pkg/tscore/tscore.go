// Package tscore is the public entry point: compile a parsed ast.Program
// once, then invoke entry points by name either synchronously or as a task.
package tscore

import (
	"github.com/tscore-lang/tscore/internal/compiler"
	"github.com/tscore-lang/tscore/internal/runtime"
	"github.com/tscore-lang/tscore/internal/task"
	"github.com/tscore-lang/tscore/pkg/ast"
)

// Value is the host-facing alias for a compiled value — re-exported so
// callers never need to import internal/runtime directly.
type Value = runtime.Value

// Program is a compiled unit ready to be invoked.
type Program struct {
	inner *compiler.Program
}

// Compile builds a Program from a parsed AST.
func Compile(prog *ast.Program) (*Program, error) {
	inner, err := compiler.Compile(prog)
	if err != nil {
		return nil, err
	}
	return &Program{inner: inner}, nil
}

// Invoke runs a top-level function — if it is async, Invoke returns the
// fulfilled value or the rejection's error of the produced task; it does
// not wait, so a task still pending when the call returns is reported as an
// error.
func (p *Program) Invoke(name string, args []Value) (Value, error) {
	return p.inner.Invoke(name, args)
}

// RunAsync runs a top-level function and returns its task handle
// immediately, without waiting for it to settle.
func (p *Program) RunAsync(name string, args []Value) (*task.Handle, error) {
	return p.inner.RunAsync(name, args)
}
