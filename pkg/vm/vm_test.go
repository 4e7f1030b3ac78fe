package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxvm/loxvm/pkg/intern"
)

// run compiles and executes source against a fresh VM, returning
// whatever it printed and the error Interpret returned (nil on success).
func run(t *testing.T, source string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	machine := New(&out, intern.New())
	err := machine.Interpret(source)
	return out.String(), err
}

// TestEndToEndScenarios exercises a range of small programs end to end,
// checking each one's printed output against the expected text.
func TestEndToEndScenarios(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"arithmetic precedence", `print 1 + 2 * 3;`, "7\n"},
		{"interned string equality", `var a = "hi"; var b = "hi"; print a == b;`, "true\n"},
		{"for loop accumulation", `var x = 0; for (var i = 0; i < 5; i = i + 1) x = x + i; print x;`, "10\n"},
		{"recursive fibonacci", `fun fib(n){ if (n < 2) return n; return fib(n-1) + fib(n-2); } print fib(10);`, "55\n"},
		{"string concatenation", `print "foo" + "bar";`, "foobar\n"},
		{"block scoping and shadowing", `{ var a = 1; { var a = 2; print a; } print a; }`, "2\n1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, err := run(t, `print undefined_var;`)
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "Undefined variable 'undefined_var'.")
	require.Len(t, rerr.Frames, 1)
	assert.Equal(t, "script", rerr.Frames[0].Name)
}

func TestAddTypeMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `print 1 + "x";`)
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Operands must be two numbers or two strings.", rerr.Message)
}

// TestAssignToUndefinedGlobalDoesNotDefineIt checks SET_GLOBAL semantics:
// assigning to an undefined global is a runtime error and must not leave
// the global defined afterward.
func TestAssignToUndefinedGlobalDoesNotDefineIt(t *testing.T) {
	var out bytes.Buffer
	machine := New(&out, intern.New())

	err := machine.Interpret(`ghost = 1;`)
	require.Error(t, err)

	err = machine.Interpret(`print ghost;`)
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestStackOverflowOnDeepRecursion(t *testing.T) {
	_, err := run(t, `fun recurse() { return recurse(); } print recurse();`)
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Stack overflow.", rerr.Message)
	assert.LessOrEqual(t, len(rerr.Frames), framesMax)
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `fun add(a, b) { return a + b; } add(1);`)
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Expected 2 arguments but got 1.", rerr.Message)
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	_, err := run(t, `var x = 1; x();`)
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Can only call functions.", rerr.Message)
}

func TestClockNativeReturnsIncreasingNumber(t *testing.T) {
	out, err := run(t, `var a = clock(); var b = clock(); print a >= 0; print b >= a;`)
	require.NoError(t, err)
	assert.Equal(t, "true\ntrue\n", out)
}

// TestNestedCallsUnwindStackDepthCorrectly checks the call/RETURN
// invariant indirectly: a chain of calls must leave the VM able to keep
// running (no leaked frames, no corrupted stack) and print the expected
// final value.
func TestNestedCallsUnwindStackDepthCorrectly(t *testing.T) {
	source := `
		fun a() { return 1; }
		fun b() { return a() + 1; }
		fun c() { return b() + 1; }
		print c();
	`
	out, err := run(t, source)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestCompileErrorProducesNoOutput(t *testing.T) {
	out, err := run(t, `var;`)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Error"))
	assert.Empty(t, out)
}

func TestWhileLoop(t *testing.T) {
	out, err := run(t, `var i = 0; var sum = 0; while (i < 4) { sum = sum + i; i = i + 1; } print sum;`)
	require.NoError(t, err)
	assert.Equal(t, "6\n", out)
}

func TestLogicalAndOrShortCircuit(t *testing.T) {
	out, err := run(t, `fun boom() { print "boom"; return true; } print false and boom(); print true or boom();`)
	require.NoError(t, err)
	assert.Equal(t, "false\ntrue\n", out)
}

func TestTraceWritesToConfiguredWriter(t *testing.T) {
	var out, trace bytes.Buffer
	machine := New(&out, intern.New())
	machine.SetTrace(&trace)
	err := machine.Interpret(`print 1;`)
	require.NoError(t, err)
	assert.NotEmpty(t, trace.String())
}
