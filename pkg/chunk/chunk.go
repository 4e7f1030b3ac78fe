// Package chunk defines the bytecode buffer the compiler emits into and
// the VM executes, plus the compiled-function object that owns one.
//
// A Chunk is a flat byte array (the actual instruction stream), a
// parallel array mapping each byte back to the source line that emitted
// it, and a constant pool of literal Values referenced by index from
// PUSH-style instructions. Keeping instructions as raw bytes rather than
// a slice of structs gives a compact wire format: one-byte opcodes, u8
// or big-endian-u16 immediate operands, so jump patching can reach back
// into already-emitted code and rewrite two bytes in place.
package chunk

import (
	"fmt"

	"github.com/loxvm/loxvm/pkg/value"
)

// Op is a single-byte bytecode instruction opcode.
type Op byte

// Opcodes, grouped by the kind of work they do.
const (
	// Literal/constant operations.
	OpConstant Op = iota
	OpNil
	OpTrue
	OpFalse

	// Stack operations.
	OpPop

	// Variable operations.
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal

	// Comparison and equality.
	OpEqual
	OpGreater
	OpLess

	// Arithmetic.
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate

	// I/O.
	OpPrint

	// Control flow.
	OpJump
	OpJumpIfFalse
	OpLoop
	OpCall
	OpReturn
)

// String names op for disassembly and error messages.
func (op Op) String() string {
	switch op {
	case OpConstant:
		return "OP_CONSTANT"
	case OpNil:
		return "OP_NIL"
	case OpTrue:
		return "OP_TRUE"
	case OpFalse:
		return "OP_FALSE"
	case OpPop:
		return "OP_POP"
	case OpGetLocal:
		return "OP_GET_LOCAL"
	case OpSetLocal:
		return "OP_SET_LOCAL"
	case OpGetGlobal:
		return "OP_GET_GLOBAL"
	case OpDefineGlobal:
		return "OP_DEFINE_GLOBAL"
	case OpSetGlobal:
		return "OP_SET_GLOBAL"
	case OpEqual:
		return "OP_EQUAL"
	case OpGreater:
		return "OP_GREATER"
	case OpLess:
		return "OP_LESS"
	case OpAdd:
		return "OP_ADD"
	case OpSubtract:
		return "OP_SUBTRACT"
	case OpMultiply:
		return "OP_MULTIPLY"
	case OpDivide:
		return "OP_DIVIDE"
	case OpNot:
		return "OP_NOT"
	case OpNegate:
		return "OP_NEGATE"
	case OpPrint:
		return "OP_PRINT"
	case OpJump:
		return "OP_JUMP"
	case OpJumpIfFalse:
		return "OP_JUMP_IF_FALSE"
	case OpLoop:
		return "OP_LOOP"
	case OpCall:
		return "OP_CALL"
	case OpReturn:
		return "OP_RETURN"
	default:
		return "OP_UNKNOWN"
	}
}

// MaxConstants is the one-byte operand limit on OP_CONSTANT's index.
const MaxConstants = 256

// Chunk is a growable bytecode buffer: the instruction stream, a
// same-length line table, and a constant pool.
//
// Invariant: len(Code) == len(Lines) always.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

// New creates an empty chunk.
func New() *Chunk {
	return &Chunk{}
}

// WriteByte appends a raw byte to the instruction stream, recording line
// as the source line that produced it.
func (c *Chunk) WriteByte(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends v to the constant pool and returns its index.
// Callers must check the returned index against MaxConstants themselves
// before emitting an OP_CONSTANT. The chunk has no opinion about what a
// full pool means to the compiler (a compile error with source-position
// context); it just stores values.
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// ObjFunction is a compiled function: its own Chunk, its declared arity,
// and an optional name (nil for the implicit top-level script function).
//
// ObjFunction lives in package chunk rather than package value because it
// owns a *Chunk; value.ObjString and value.ObjNative have no such
// dependency and stay in package value. It still satisfies
// value.Object, so a Value carrying a function handle is
// indistinguishable in shape from one carrying a string or a native.
type ObjFunction struct {
	value.Header
	Arity int
	Name  *value.ObjString
	Chunk *Chunk
}

// NewObjFunction constructs a function object around a fresh chunk.
func NewObjFunction(name *value.ObjString, arity int) *ObjFunction {
	f := &ObjFunction{Arity: arity, Name: name, Chunk: New()}
	f.Typ = value.ObjTypeFunction
	return f
}

// String implements fmt.Stringer so value.ObjectString's fallback case
// renders functions the way `print` would: `<fn name>` or `<script>` for
// the unnamed top-level function.
func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}
