package chunk

import (
	"testing"

	"github.com/loxvm/loxvm/pkg/value"
)

func TestWriteByteKeepsCodeAndLinesInLockstep(t *testing.T) {
	c := New()
	c.WriteByte(byte(OpNil), 1)
	c.WriteByte(byte(OpReturn), 1)
	c.WriteByte(byte(OpPop), 2)

	if len(c.Code) != len(c.Lines) {
		t.Fatalf("len(Code)=%d != len(Lines)=%d", len(c.Code), len(c.Lines))
	}
	if c.Lines[0] != 1 || c.Lines[2] != 2 {
		t.Fatalf("unexpected line table: %v", c.Lines)
	}
}

func TestAddConstantReturnsIndex(t *testing.T) {
	c := New()
	i0 := c.AddConstant(value.NumberValue(1))
	i1 := c.AddConstant(value.NumberValue(2))
	if i0 != 0 || i1 != 1 {
		t.Fatalf("got indices %d, %d; want 0, 1", i0, i1)
	}
	if c.Constants[i0] != value.NumberValue(1) {
		t.Fatalf("constant 0 = %v", c.Constants[i0])
	}
}

func TestObjFunctionStringRendersNameOrScript(t *testing.T) {
	top := NewObjFunction(nil, 0)
	if got := top.String(); got != "<script>" {
		t.Errorf("unnamed function String() = %q, want <script>", got)
	}

	named := NewObjFunction(value.NewObjString("add", value.FNV1aHash("add")), 2)
	if got := named.String(); got != "<fn add>" {
		t.Errorf("named function String() = %q, want <fn add>", got)
	}
}

func TestOpStringNamesEveryOpcode(t *testing.T) {
	for op := OpConstant; op <= OpReturn; op++ {
		if got := op.String(); got == "OP_UNKNOWN" {
			t.Errorf("opcode %d has no name", byte(op))
		}
	}
}
