// Command lox is the driver for the bytecode compiler and VM in
// pkg/compiler and pkg/vm: a file runner and a REPL, with a shared
// flag for per-instruction execution tracing.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/loxvm/loxvm/pkg/compiler"
	"github.com/loxvm/loxvm/pkg/intern"
	"github.com/loxvm/loxvm/pkg/vm"
)

// Exit codes: a clean run is 0, a compile-time error is 65, a runtime
// error is 70.
const (
	exitOK           = 0
	exitCompileError = 65
	exitRuntimeError = 70
)

func main() {
	trace := flag.Bool("trace", false, "print each dispatched instruction and stack snapshot before executing it")
	flag.Parse()

	args := flag.Args()
	switch len(args) {
	case 0:
		runREPL(*trace)
	case 1:
		os.Exit(runFile(args[0], *trace))
	default:
		fmt.Fprintln(os.Stderr, "Usage: lox [-trace] [path]")
		os.Exit(64)
	}
}

// runFile reads, compiles, and executes a single source file, returning
// the process exit code that maps to the result.
func runFile(path string, trace bool) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		return exitCompileError
	}

	pool := intern.New()
	machine := vm.New(os.Stdout, pool)
	if trace {
		machine.SetTrace(os.Stderr)
	}

	return interpret(machine, string(data))
}

// runREPL starts an interactive read-eval-print loop. A single VM and
// intern pool persist across lines so a global defined on one line is
// visible on the next.
func runREPL(trace bool) {
	fmt.Println("lox REPL")
	fmt.Println("Type Ctrl-D to exit.")
	fmt.Println()

	pool := intern.New()
	machine := vm.New(os.Stdout, pool)
	if trace {
		machine.SetTrace(os.Stderr)
	}

	reader := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !reader.Scan() {
			fmt.Println()
			return
		}
		line := reader.Text()
		if line == "" {
			continue
		}
		interpret(machine, line)
	}
}

// interpret runs source against machine and prints any error to stderr,
// returning 0 on success, 65 on a compile error, or 70 on a runtime
// error.
func interpret(machine *vm.VM, source string) int {
	err := machine.Interpret(source)
	if err == nil {
		return exitOK
	}

	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		fmt.Fprintln(os.Stderr, compileErr.Error())
		return exitCompileError
	}

	fmt.Fprintln(os.Stderr, err.Error())
	return exitRuntimeError
}
