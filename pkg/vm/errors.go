// Package vm - runtime error reporting with call-stack traces.
package vm

import (
	"fmt"
	"strings"
)

// StackFrame captures one call frame's position at the moment a runtime
// error was raised: the human-readable name of the function executing
// (or "script" for the top-level frame) and the source line its
// instruction pointer had reached.
type StackFrame struct {
	Name string
	Line int
}

// RuntimeError is a runtime fault raised by the VM's dispatch loop: an
// arithmetic type mismatch, an undefined global, an arity mismatch on a
// call, and so on. Its Error() rendering is what the CLI prints to
// stderr before exiting with status 70.
type RuntimeError struct {
	Message string
	Frames  []StackFrame
}

// Error formats the message followed by one "[line L] in <name>" line
// per call frame, innermost first, the same order the stack unwinds
// in and the same shape a user expects from reading a traceback.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.Frames {
		b.WriteByte('\n')
		fmt.Fprintf(&b, "[line %d] in %s", f.Line, f.Name)
	}
	return b.String()
}

func newRuntimeError(message string, frames []StackFrame) *RuntimeError {
	return &RuntimeError{Message: message, Frames: frames}
}
