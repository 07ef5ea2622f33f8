// Package errors provides the error taxonomy described in the core
// specification's error-handling design: load-time compiler errors with
// source-pointing formatting, and runtime stack traces attached to thrown
// values.
package errors

import (
	"fmt"
	"strings"

	"github.com/tscore-lang/tscore/pkg/ast"
)

// StackFrame is one frame of a call stack, captured at the point a runtime
// error is raised.
type StackFrame struct {
	Position     ast.Position
	FunctionName string
}

// String renders "FunctionName [line: N, column: M]".
func (sf StackFrame) String() string {
	return fmt.Sprintf("%s [line: %d, column: %d]", sf.FunctionName, sf.Position.Line, sf.Position.Column)
}

// StackTrace is a call stack, ordered oldest (bottom) to newest (top).
type StackTrace []StackFrame

// String renders the trace most-recent-frame-first.
func (st StackTrace) String() string {
	if len(st) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := len(st) - 1; i >= 0; i-- {
		sb.WriteString(st[i].String())
		if i > 0 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Top returns the most recently pushed frame, or nil if the trace is empty.
func (st StackTrace) Top() *StackFrame {
	if len(st) == 0 {
		return nil
	}
	return &st[len(st)-1]
}

// Depth returns the number of frames.
func (st StackTrace) Depth() int {
	return len(st)
}
