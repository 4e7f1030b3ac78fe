// Package disasm renders a chunk.Chunk's bytecode as human-readable
// text, one instruction per line. It exists so tracing execution (the
// CLI's -trace flag) and inspecting a compiled chunk cost nothing on the
// path that doesn't use them: pkg/compiler does not import this package,
// and pkg/vm calls it only from its trace mode.
package disasm

import (
	"fmt"
	"strings"

	"github.com/loxvm/loxvm/pkg/chunk"
)

// Chunk renders every instruction in c under a `== name ==` header,
// matching the classic disassembleChunk layout: offset, source line (or
// "|" when it repeats the previous instruction's line), opcode name,
// and any operand.
func Chunk(c *chunk.Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)

	for offset := 0; offset < len(c.Code); {
		line, next := Instruction(&b, c, offset)
		offset = next
		_ = line
	}
	return b.String()
}

// Instruction writes a single disassembled instruction at offset to b
// and returns offset itself followed by the offset of the next
// instruction. It is exported
// separately from Chunk so the VM's trace mode can print one line per
// step without re-walking the whole chunk.
func Instruction(b *strings.Builder, c *chunk.Chunk, offset int) (int, int) {
	fmt.Fprintf(b, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(b, "%4d ", c.Lines[offset])
	}

	op := chunk.Op(c.Code[offset])
	switch op {
	case chunk.OpConstant:
		return constantInstruction(b, c, offset)
	case chunk.OpGetLocal, chunk.OpSetLocal, chunk.OpCall:
		return byteInstruction(b, c, offset)
	case chunk.OpGetGlobal, chunk.OpDefineGlobal, chunk.OpSetGlobal:
		return constantInstruction(b, c, offset)
	case chunk.OpJump, chunk.OpJumpIfFalse:
		return jumpInstruction(b, c, offset, 1)
	case chunk.OpLoop:
		return jumpInstruction(b, c, offset, -1)
	default:
		return simpleInstruction(b, op, offset)
	}
}

func simpleInstruction(b *strings.Builder, op chunk.Op, offset int) (int, int) {
	fmt.Fprintf(b, "%s\n", op)
	return offset, offset + 1
}

func byteInstruction(b *strings.Builder, c *chunk.Chunk, offset int) (int, int) {
	op := chunk.Op(c.Code[offset])
	slot := c.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d\n", op, slot)
	return offset, offset + 2
}

func constantInstruction(b *strings.Builder, c *chunk.Chunk, offset int) (int, int) {
	op := chunk.Op(c.Code[offset])
	idx := c.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d '%s'\n", op, idx, c.Constants[idx])
	return offset, offset + 2
}

func jumpInstruction(b *strings.Builder, c *chunk.Chunk, offset, sign int) (int, int) {
	op := chunk.Op(c.Code[offset])
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	target := offset + 3 + sign*jump
	fmt.Fprintf(b, "%-16s %4d -> %d\n", op, offset, target)
	return offset, offset + 3
}

// Line reports the source line offset belongs to, the value behind the
// `%4d ` / `   | ` column Chunk prints, without rendering the
// instruction itself.
func Line(c *chunk.Chunk, offset int) int {
	return c.Lines[offset]
}
