package vm

import (
	"time"

	"github.com/loxvm/loxvm/pkg/value"
)

// startTime anchors clock()'s return value to process start, close
// enough for script-level timing without depending on cgo.
var startTime = time.Now()

// defineNatives registers the VM's built-in callables as globals, the
// same path a DEFINE_GLOBAL opcode would populate, so a Lox script calls
// them exactly like a user-defined function.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", clockNative)
}

func (vm *VM) defineNative(name string, fn value.NativeFn) {
	obj := vm.internString(name)
	vm.globals.Set(obj, value.ObjValue(value.NewObjNative(name, fn)))
}

// clockNative returns the number of wall-clock seconds elapsed since
// process start (startTime), close enough to a process CPU-time clock for timing loops in
// test scripts.
func clockNative(argCount int, args []value.Value) value.Value {
	return value.NumberValue(time.Since(startTime).Seconds())
}
