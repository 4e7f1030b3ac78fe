// Package vm implements the stack-based bytecode interpreter: a value
// stack, a call-frame stack with frame-relative local slots, a global
// variable table, and a string-interning pool, driving a single
// dispatch loop over a compiled chunk.Chunk.
//
// There is deliberately no garbage collector. Every string the VM or
// compiler interns is threaded onto an intrusive linked list via
// value.Object's Next/SetNext (see pkg/intern.Pool.Objects) so the whole
// set could be walked and freed in one pass at process exit, a
// bulk-deallocation shape that is never actually exercised here since
// the Go runtime's own collector already reclaims everything once a VM
// value is dropped.
package vm

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/loxvm/loxvm/pkg/chunk"
	"github.com/loxvm/loxvm/pkg/compiler"
	"github.com/loxvm/loxvm/pkg/disasm"
	"github.com/loxvm/loxvm/pkg/intern"
	"github.com/loxvm/loxvm/pkg/table"
	"github.com/loxvm/loxvm/pkg/value"
)

// framesMax bounds call depth; exceeding it raises a "Stack overflow."
// runtime error rather than growing without limit.
const framesMax = 64

// stackMax is the value stack's fixed capacity: framesMax frames, each
// assumed to need no more slots than a single chunk's locals array.
const stackMax = framesMax * 256

// CallFrame is one activation record: the function executing, its
// instruction pointer into that function's own chunk, and the base
// index into the VM's value stack where slot 0 (the callee itself) and
// its parameters/locals begin.
type CallFrame struct {
	function  *chunk.ObjFunction
	ip        int
	slotsBase int
}

// VM is a single bytecode interpreter instance: its value stack, call
// frames, global-variable table, and string-interning pool. A VM is not
// safe for concurrent use; execution is strictly single-threaded, with
// instance fields standing in for interpreter state that would
// otherwise have to live at process scope.
type VM struct {
	stack  []value.Value
	frames []CallFrame

	globals *table.Table
	pool    *intern.Pool

	out   io.Writer
	trace io.Writer
}

// New creates a VM that interns strings through pool and writes `print`
// output to stdout. The CLI's REPL loop passes the same pool to every
// compiler.Compile call across the session, so a global defined on one
// line resolves correctly when referenced on the next. See package
// intern's doc comment.
func New(stdout io.Writer, pool *intern.Pool) *VM {
	vm := &VM{
		stack:   make([]value.Value, 0, stackMax),
		frames:  make([]CallFrame, 0, framesMax),
		globals: table.New(),
		pool:    pool,
		out:     stdout,
	}
	vm.defineNatives()
	return vm
}

// SetTrace enables or disables per-instruction execution tracing,
// written to w. Passing nil disables tracing.
func (vm *VM) SetTrace(w io.Writer) {
	vm.trace = w
}

// Interpret compiles source and runs it to completion. A compile
// failure surfaces as a *compiler.CompileError; a failure during
// execution surfaces as a *RuntimeError. Callers distinguish the two
// with errors.As to choose the right process exit status.
func (vm *VM) Interpret(source string) error {
	function, err := compiler.Compile(source, vm.pool)
	if err != nil {
		return err
	}
	if err := vm.run(function); err != nil {
		vm.resetStack()
		return err
	}
	return nil
}

// resetStack clears the value and frame stacks after a runtime error, so
// a VM reused across multiple Interpret calls (the REPL) starts the next
// one from a clean slate rather than with whatever was left mid-dispatch
// when the error was raised.
func (vm *VM) resetStack() {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
}

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

// run pushes function as the implicit top-level call and executes the
// dispatch loop until that call returns.
func (vm *VM) run(function *chunk.ObjFunction) error {
	vm.push(value.ObjValue(function))
	if err := vm.call(function, 0); err != nil {
		return err
	}
	return vm.dispatch()
}

// dispatch is the VM's core instruction loop. Each opcode is a case in
// a single switch rather than threaded function pointers or
// macro-expanded duplicate loops: Go has neither computed gotos nor a
// preprocessor, and a switch over a byte compiles to the same jump-table
// shape, with the arithmetic opcodes spelled out individually instead of
// hidden behind a shared binary-op macro.
func (vm *VM) dispatch() error {
	frame := &vm.frames[len(vm.frames)-1]

	for {
		if vm.trace != nil {
			vm.printTrace(frame)
		}

		op := chunk.Op(vm.readByte(frame))
		switch op {
		case chunk.OpConstant:
			vm.push(vm.readConstant(frame))

		case chunk.OpNil:
			vm.push(value.NilValue)
		case chunk.OpTrue:
			vm.push(value.BoolValue(true))
		case chunk.OpFalse:
			vm.push(value.BoolValue(false))

		case chunk.OpPop:
			vm.pop()

		case chunk.OpGetLocal:
			slot := int(vm.readByte(frame))
			vm.push(vm.stack[frame.slotsBase+slot])

		case chunk.OpSetLocal:
			slot := int(vm.readByte(frame))
			vm.stack[frame.slotsBase+slot] = vm.peek(0)

		case chunk.OpGetGlobal:
			name := vm.readConstant(frame).Obj.(*value.ObjString)
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError(frame, "Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)

		case chunk.OpDefineGlobal:
			name := vm.readConstant(frame).Obj.(*value.ObjString)
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case chunk.OpSetGlobal:
			name := vm.readConstant(frame).Obj.(*value.ObjString)
			if isNew := vm.globals.Set(name, vm.peek(0)); isNew {
				vm.globals.Delete(name)
				return vm.runtimeError(frame, "Undefined variable '%s'.", name.Chars)
			}

		case chunk.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.BoolValue(value.Equal(a, b)))

		case chunk.OpGreater, chunk.OpLess, chunk.OpSubtract, chunk.OpMultiply, chunk.OpDivide:
			if err := vm.binaryNumberOp(frame, op); err != nil {
				return err
			}

		case chunk.OpAdd:
			if err := vm.add(frame); err != nil {
				return err
			}

		case chunk.OpNot:
			vm.push(value.BoolValue(value.IsFalsey(vm.pop())))

		case chunk.OpNegate:
			if vm.peek(0).Type != value.Number {
				return vm.runtimeError(frame, "Operand must be a number.")
			}
			v := vm.pop()
			vm.push(value.NumberValue(-v.Number))

		case chunk.OpPrint:
			fmt.Fprintln(vm.out, vm.pop().String())

		case chunk.OpJump:
			offset := vm.readShort(frame)
			frame.ip += offset

		case chunk.OpJumpIfFalse:
			offset := vm.readShort(frame)
			if value.IsFalsey(vm.peek(0)) {
				frame.ip += offset
			}

		case chunk.OpLoop:
			offset := vm.readShort(frame)
			frame.ip -= offset

		case chunk.OpCall:
			argCount := int(vm.readByte(frame))
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			frame = &vm.frames[len(vm.frames)-1]

		case chunk.OpReturn:
			result := vm.pop()
			finished := vm.popFrame()
			if finished {
				return nil
			}
			vm.stack = vm.stack[:frame.slotsBase]
			vm.push(result)
			frame = &vm.frames[len(vm.frames)-1]

		default:
			return vm.runtimeError(frame, "Unknown opcode %d.", byte(op))
		}
	}
}

func (vm *VM) readByte(frame *CallFrame) byte {
	b := frame.function.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func (vm *VM) readShort(frame *CallFrame) int {
	hi := vm.readByte(frame)
	lo := vm.readByte(frame)
	return int(hi)<<8 | int(lo)
}

func (vm *VM) readConstant(frame *CallFrame) value.Value {
	idx := vm.readByte(frame)
	return frame.function.Chunk.Constants[idx]
}

// add implements OP_ADD's two legal operand shapes: number+number, and
// string+string via interned concatenation. Any other combination is a
// runtime type error.
func (vm *VM) add(frame *CallFrame) error {
	b := vm.peek(0)
	a := vm.peek(1)

	switch {
	case a.Type == value.Number && b.Type == value.Number:
		vm.pop()
		vm.pop()
		vm.push(value.NumberValue(a.Number + b.Number))
		return nil

	case isString(a) && isString(b):
		vm.pop()
		vm.pop()
		as := a.Obj.(*value.ObjString)
		bs := b.Obj.(*value.ObjString)
		vm.push(value.ObjValue(vm.internString(as.Chars + bs.Chars)))
		return nil

	default:
		return vm.runtimeError(frame, "Operands must be two numbers or two strings.")
	}
}

func isString(v value.Value) bool {
	if v.Type != value.Obj {
		return false
	}
	_, ok := v.Obj.(*value.ObjString)
	return ok
}

// binaryNumberOp implements every binary opcode whose operands must
// both be numbers: subtraction, multiplication, division, and the two
// primitive comparisons (greater, less) that `!=`/`>=`/`<=` compile down
// to.
func (vm *VM) binaryNumberOp(frame *CallFrame, op chunk.Op) error {
	b := vm.peek(0)
	a := vm.peek(1)
	if a.Type != value.Number || b.Type != value.Number {
		return vm.runtimeError(frame, "Operands must be numbers.")
	}
	vm.pop()
	vm.pop()

	switch op {
	case chunk.OpSubtract:
		vm.push(value.NumberValue(a.Number - b.Number))
	case chunk.OpMultiply:
		vm.push(value.NumberValue(a.Number * b.Number))
	case chunk.OpDivide:
		vm.push(value.NumberValue(a.Number / b.Number))
	case chunk.OpGreater:
		vm.push(value.BoolValue(a.Number > b.Number))
	case chunk.OpLess:
		vm.push(value.BoolValue(a.Number < b.Number))
	}
	return nil
}

// callValue dispatches a call to whatever's in callee: a compiled
// function pushes a new CallFrame, a native function is invoked
// immediately since it has no bytecode of its own to step through.
// Anything else (calling a number, a string) is a runtime error.
func (vm *VM) callValue(callee value.Value, argCount int) error {
	if callee.Type != value.Obj {
		return vm.runtimeErrorNoFrame("Can only call functions.")
	}

	switch fn := callee.Obj.(type) {
	case *chunk.ObjFunction:
		return vm.call(fn, argCount)
	case *value.ObjNative:
		args := vm.stack[len(vm.stack)-argCount:]
		result := fn.Function(argCount, args)
		vm.stack = vm.stack[:len(vm.stack)-argCount-1]
		vm.push(result)
		return nil
	default:
		return vm.runtimeErrorNoFrame("Can only call functions.")
	}
}

// call pushes a new CallFrame for fn, whose parameters and locals begin
// at the stack slot argCount+1 below the current top (slot 0 holds the
// callee itself, unused by this language but kept for the same
// slot-numbering the compiler assumes for locals).
func (vm *VM) call(fn *chunk.ObjFunction, argCount int) error {
	if argCount != fn.Arity {
		return vm.runtimeErrorNoFrame(fmt.Sprintf("Expected %d arguments but got %d.", fn.Arity, argCount))
	}
	if len(vm.frames) == framesMax {
		return vm.runtimeErrorNoFrame("Stack overflow.")
	}

	vm.frames = append(vm.frames, CallFrame{
		function:  fn,
		ip:        0,
		slotsBase: len(vm.stack) - argCount - 1,
	})
	return nil
}

// popFrame pops the innermost call frame and reports whether that was
// the outermost (top-level script) frame, meaning execution is done.
func (vm *VM) popFrame() bool {
	vm.frames = vm.frames[:len(vm.frames)-1]
	return len(vm.frames) == 0
}

// runtimeError builds a *RuntimeError from the live frame stack. frame
// is accepted (but not separately consulted) for call-site symmetry
// with binaryNumberOp/add, which already hold a *CallFrame; the frame
// stack itself is the source of truth since frame.ip has already been
// advanced past the offending opcode by readByte/readConstant.
func (vm *VM) runtimeError(frame *CallFrame, format string, args ...interface{}) error {
	_ = frame
	return vm.runtimeErrorNoFrame(fmt.Sprintf(format, args...))
}

// runtimeErrorNoFrame builds the error from vm.frames directly, used by
// call paths (call/callValue) that run before dispatch's local frame
// pointer has been refreshed.
func (vm *VM) runtimeErrorNoFrame(message string) error {
	frames := make([]StackFrame, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		name := "script"
		if f.function.Name != nil {
			name = f.function.Name.Chars
		}
		line := 0
		if f.ip > 0 && f.ip-1 < len(f.function.Chunk.Lines) {
			line = f.function.Chunk.Lines[f.ip-1]
		}
		frames = append(frames, StackFrame{Name: name, Line: line})
	}
	return errors.WithStack(newRuntimeError(message, frames))
}

// internString returns the canonical *value.ObjString for chars via the
// shared pool. Every string the VM produces at runtime (concatenation
// results) goes through this path so value.Equal's pointer comparison
// stays valid against compile-time-interned strings.
func (vm *VM) internString(chars string) *value.ObjString {
	return vm.pool.Intern(chars)
}

func (vm *VM) printTrace(frame *CallFrame) {
	fmt.Fprint(vm.trace, "          ")
	for _, v := range vm.stack {
		fmt.Fprintf(vm.trace, "[ %s ]", v.String())
	}
	fmt.Fprintln(vm.trace)

	var b strings.Builder
	disasm.Instruction(&b, frame.function.Chunk, frame.ip)
	fmt.Fprint(vm.trace, b.String())
}
