package vm

import (
	"strings"
	"testing"
)

func TestRuntimeErrorFormatsMessageAndFrames(t *testing.T) {
	err := newRuntimeError("boom", []StackFrame{
		{Name: "fib", Line: 3},
		{Name: "script", Line: 7},
	})
	got := err.Error()
	if !strings.HasPrefix(got, "boom") {
		t.Fatalf("expected message prefix, got %q", got)
	}
	if !strings.Contains(got, "[line 3] in fib") {
		t.Errorf("missing inner frame, got %q", got)
	}
	if !strings.Contains(got, "[line 7] in script") {
		t.Errorf("missing outer frame, got %q", got)
	}
}

func TestRuntimeErrorWithNoFramesStillFormatsMessage(t *testing.T) {
	err := newRuntimeError("boom", nil)
	if err.Error() != "boom" {
		t.Errorf("got %q, want %q", err.Error(), "boom")
	}
}
