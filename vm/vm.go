package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/antbuild/golox/debug"
	e "github.com/antbuild/golox/errors"
)

// StackMax is the operand stack's fixed capacity; a push past this is a
// runtime error, not a silent grow.
const StackMax = 256

// Status is the VM's terminal outcome, matching the driver's exit-code
// contract (Ok/CompileError/RuntimeError -> exit codes 0/65/70).
type Status int

const (
	StatusOk Status = iota
	StatusCompileError
	StatusRuntimeError
)

// VM is a stack machine executing one Chunk at a time against a fixed
// operand stack, with shared references to a string arena and globals
// table that outlive any single interpret call.
type VM struct {
	chunk *Chunk
	ip    int

	stack    [StackMax]Value
	stackTop int

	arena   *StringArena
	globals *Globals

	// Stdout is where Print writes; Stderr is where diagnostics go. Both
	// default to the real streams but are swappable so tests and the
	// REPL can capture output.
	Stdout io.Writer
	Stderr io.Writer
}

func NewVM() *VM {
	return &VM{
		arena:   NewStringArena(),
		globals: NewGlobals(),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

func (vm *VM) push(val Value) bool {
	if vm.stackTop >= StackMax {
		return false
	}
	vm.stack[vm.stackTop] = val
	vm.stackTop++
	return true
}

func (vm *VM) pop() Value {
	debug.Assertf(vm.stackTop > 0, "pop on empty stack")
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) Value { return vm.stack[vm.stackTop-1-distance] }

// Interpret compiles src and, if compilation succeeds, runs the resulting
// chunk. A single Interpret call fully completes its compile phase before
// run begins; the two phases never interleave.
func (vm *VM) Interpret(src string) Status {
	parser := NewParser()
	chunk, ok := parser.Compile(src, vm.arena)
	if !ok {
		for _, err := range parser.Errors() {
			if ce, ok := err.(*e.CompilationError); ok {
				fmt.Fprintln(vm.Stderr, ce.Diagnostic())
			} else {
				fmt.Fprintln(vm.Stderr, err)
			}
		}
		return StatusCompileError
	}

	vm.chunk = chunk
	vm.ip = 0
	vm.stackTop = 0

	if err := vm.run(); err != nil {
		if re, ok := err.(*e.RuntimeError); ok {
			fmt.Fprintln(vm.Stderr, re.Diagnostic())
		} else {
			fmt.Fprintln(vm.Stderr, err)
		}
		return StatusRuntimeError
	}
	return StatusOk
}

// run executes vm.chunk from vm.ip until Return or a runtime error.
// Each arithmetic/comparison op peeks its operands before popping so a
// failed type check leaves the stack and globals untouched apart from the
// op's own (never-mutated) operands.
func (vm *VM) run() error {
	readByte := func() (res byte) {
		res = vm.chunk.Code()[vm.ip]
		vm.ip++
		return
	}

	runtimeErr := func(format string, a ...any) *e.RuntimeError {
		return &e.RuntimeError{Line: vm.chunk.Line(vm.ip - 1), Reason: fmt.Sprintf(format, a...)}
	}

	// push reports a stack-overflow runtime error instead of silently
	// discarding the value.
	push := func(val Value) error {
		if !vm.push(val) {
			return runtimeErr("Stack overflow.")
		}
		return nil
	}

	binaryNumeric := func(apply func(a, b Value) (Value, bool), typeErr string) error {
		if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
			return runtimeErr(typeErr)
		}
		b, a := vm.pop(), vm.pop()
		res, _ := apply(a, b)
		return push(res)
	}

	for {
		if debug.DEBUG {
			logrus.Debugln(vm.stackTrace())
			instDump, _ := vm.chunk.DisassembleInst(vm.ip)
			logrus.Debugln(instDump)
		}

		switch inst := OpCode(readByte()); inst {
		case OpConstant:
			if err := push(vm.chunk.Const(readByte())); err != nil {
				return err
			}

		case OpNil:
			if err := push(NilValue()); err != nil {
				return err
			}
		case OpTrue:
			if err := push(BoolValue(true)); err != nil {
				return err
			}
		case OpFalse:
			if err := push(BoolValue(false)); err != nil {
				return err
			}

		case OpPop:
			vm.pop()

		case OpNegate:
			if !vm.peek(0).IsNumber() {
				return runtimeErr("Operand must be a number.")
			}
			res, _ := Neg(vm.pop())
			if err := push(res); err != nil {
				return err
			}

		case OpNot:
			if err := push(Not(vm.pop())); err != nil {
				return err
			}

		case OpAdd:
			if !(vm.peek(0).IsNumber() && vm.peek(1).IsNumber()) &&
				!(vm.peek(0).IsString() && vm.peek(1).IsString()) {
				return runtimeErr("Operands must be two numbers or two strings.")
			}
			b, a := vm.pop(), vm.pop()
			res, _ := Add(a, b, vm.arena)
			if err := push(res); err != nil {
				return err
			}

		case OpSubtract:
			if err := binaryNumeric(Sub, "Operands must be numbers."); err != nil {
				return err
			}
		case OpMultiply:
			if err := binaryNumeric(Mul, "Operands must be numbers."); err != nil {
				return err
			}
		case OpDivide:
			if err := binaryNumeric(Div, "Operands must be numbers."); err != nil {
				return err
			}
		case OpGreater:
			if err := binaryNumeric(Greater, "Operands must be numbers."); err != nil {
				return err
			}
		case OpLess:
			if err := binaryNumeric(Less, "Operands must be numbers."); err != nil {
				return err
			}

		case OpEqual:
			b, a := vm.pop(), vm.pop()
			if err := push(BoolValue(Eq(a, b))); err != nil {
				return err
			}

		case OpPrint:
			fmt.Fprintf(vm.Stdout, "%s\n", ValueStr(vm.pop(), vm.arena))

		case OpDefineGlobal:
			name := vm.chunk.Const(readByte())
			vm.globals.Set(name.AsStringID(), vm.pop())

		case OpGetGlobal:
			name := vm.chunk.Const(readByte())
			val, ok := vm.globals.Get(name.AsStringID())
			if !ok {
				return runtimeErr("Undefined variable '%s'.", vm.arena.Text(name.AsStringID()))
			}
			if err := push(val); err != nil {
				return err
			}

		case OpReturn:
			return nil

		default:
			return runtimeErr("unknown instruction '%d'", inst)
		}
	}
}

func (vm *VM) stackTrace() string {
	res := "          "
	for i := 0; i < vm.stackTop; i++ {
		res += fmt.Sprintf("[ %s ]", ValueStr(vm.stack[i], vm.arena))
	}
	return res
}
