package disasm

import (
	"strings"
	"testing"

	"github.com/loxvm/loxvm/pkg/chunk"
	"github.com/loxvm/loxvm/pkg/value"
)

func TestChunkRendersHeaderAndInstructions(t *testing.T) {
	c := chunk.New()
	idx := c.AddConstant(value.NumberValue(1.5))
	c.WriteByte(byte(chunk.OpConstant), 1)
	c.WriteByte(byte(idx), 1)
	c.WriteByte(byte(chunk.OpReturn), 1)

	out := Chunk(c, "test")
	if !strings.Contains(out, "== test ==") {
		t.Errorf("missing header: %q", out)
	}
	if !strings.Contains(out, "OP_CONSTANT") {
		t.Errorf("missing OP_CONSTANT: %q", out)
	}
	if !strings.Contains(out, "1.5") {
		t.Errorf("missing constant value: %q", out)
	}
	if !strings.Contains(out, "OP_RETURN") {
		t.Errorf("missing OP_RETURN: %q", out)
	}
}

func TestInstructionRepeatedLineUsesPipe(t *testing.T) {
	c := chunk.New()
	c.WriteByte(byte(chunk.OpNil), 3)
	c.WriteByte(byte(chunk.OpNil), 3)

	var b strings.Builder
	Instruction(&b, c, 0)
	Instruction(&b, c, 1)
	out := b.String()
	if !strings.Contains(out, "   | ") {
		t.Errorf("expected repeated-line marker, got %q", out)
	}
}

func TestJumpInstructionShowsTarget(t *testing.T) {
	c := chunk.New()
	c.WriteByte(byte(chunk.OpJump), 1)
	c.WriteByte(0, 1)
	c.WriteByte(2, 1)
	c.WriteByte(byte(chunk.OpNil), 1)
	c.WriteByte(byte(chunk.OpNil), 1)

	var b strings.Builder
	Instruction(&b, c, 0)
	if !strings.Contains(b.String(), "-> 5") {
		t.Errorf("expected jump target 5, got %q", b.String())
	}
}
