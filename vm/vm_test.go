package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/stretchr/testify/assert"

	"github.com/antbuild/golox/vm"
)

// run compiles and executes src against a fresh VM, returning captured
// stdout, captured stderr, and the terminal status. There is no
// expression-echoing REPL mode to account for — only `print` produces
// output.
func run(t *testing.T, src string) (stdout, stderr string, status vm.Status) {
	t.Helper()
	v := vm.NewVM()
	var out, errOut bytes.Buffer
	v.Stdout = &out
	v.Stderr = &errOut
	status = v.Interpret(src)
	return out.String(), errOut.String(), status
}

// program runs each stmt against one shared VM in turn, returning the
// last statement's status; out/errOut are reset before each statement so
// callers can inspect just the final statement's output.
func program(t *testing.T, v *vm.VM, out, errOut *bytes.Buffer, stmts ...string) vm.Status {
	t.Helper()
	var status vm.Status
	for _, stmt := range stmts {
		out.Reset()
		errOut.Reset()
		status = v.Interpret(stmt)
	}
	return status
}

func TestArithmetic(t *testing.T) {
	cases := []struct{ src, want string }{
		{"print 1 + 2;", "3\n"},
		{"print 2 + 2;", "4\n"},
		{"print 11.4 + 5.14 / 19198.10;", "11.400267734827926\n"},
		{"print -6 *(-4+ -3) == 6*4 + 2 *((((9))));", "true\n"},
	}
	for _, c := range cases {
		out, stderr, status := run(t, c.src)
		assert.Equal(t, vm.StatusOk, status, "stderr: %s", stderr)
		assert.Equal(t, c.want, out)
	}
}

func TestStringConcat(t *testing.T) {
	out, stderr, status := run(t, `print "st" + "ri" + "ng";`)
	assert.Equal(t, vm.StatusOk, status, "stderr: %s", stderr)
	assert.Equal(t, "string\n", out)
}

func TestGlobals(t *testing.T) {
	v := vm.NewVM()
	var out, errOut bytes.Buffer
	v.Stdout, v.Stderr = &out, &errOut

	status := program(t, v, &out, &errOut,
		"var x = 10;",
		"print x * 4 + 2;",
	)
	assert.Equal(t, vm.StatusOk, status, "stderr: %s", errOut.String())
	assert.Equal(t, "42\n", out.String())
}

func TestGlobalRedefinitionOverwrites(t *testing.T) {
	v := vm.NewVM()
	var out, errOut bytes.Buffer
	v.Stdout, v.Stderr = &out, &errOut

	program(t, v, &out, &errOut, "var foo = 2;")
	program(t, v, &out, &errOut, "var foo = foo + 40;")
	status := program(t, v, &out, &errOut, "print foo;")
	assert.Equal(t, vm.StatusOk, status, "stderr: %s", errOut.String())
	assert.Equal(t, "42\n", out.String())
}

func TestVarWithoutInitializerIsNil(t *testing.T) {
	v := vm.NewVM()
	var out, errOut bytes.Buffer
	v.Stdout, v.Stderr = &out, &errOut

	program(t, v, &out, &errOut, "var bar;")
	status := program(t, v, &out, &errOut, "print bar;")
	assert.Equal(t, vm.StatusOk, status, "stderr: %s", errOut.String())
	assert.Equal(t, "nil\n", out.String())
}

func TestLogicalNotAndComparison(t *testing.T) {
	out, stderr, status := run(t, `print !(5 - 4 > 3 * 2 == !nil);`)
	assert.Equal(t, vm.StatusOk, status, "stderr: %s", stderr)
	assert.Equal(t, "true\n", out)
}

func TestBooleanLiterals(t *testing.T) {
	cases := []struct{ src, want string }{
		{"print true;", "true\n"},
		{"print false;", "false\n"},
		{"print nil;", "nil\n"},
		{"print !true;", "false\n"},
		{"print !false;", "true\n"},
		{"print !nil;", "true\n"},
	}
	for _, c := range cases {
		out, stderr, status := run(t, c.src)
		assert.Equal(t, vm.StatusOk, status, "stderr: %s", stderr)
		assert.Equal(t, c.want, out)
	}
}

func TestNaNInequality(t *testing.T) {
	// IEEE semantics: NaN != NaN, even against itself.
	out, stderr, status := run(t, `print (0.0/0.0) == (0.0/0.0);`)
	assert.Equal(t, vm.StatusOk, status, "stderr: %s", stderr)
	assert.Equal(t, "false\n", out)
}

func TestUndefinedGlobalRead(t *testing.T) {
	out, stderr, status := run(t, "print y;")
	assert.Equal(t, vm.StatusRuntimeError, status)
	assert.Equal(t, "", out)
	assert.Contains(t, stderr, "Undefined variable 'y'.")
}

func TestMixedArithmeticTypeError(t *testing.T) {
	out, stderr, status := run(t, `print 1 + "a";`)
	assert.Equal(t, vm.StatusRuntimeError, status)
	assert.Equal(t, "", out)
	assert.Contains(t, stderr, "Operands must be two numbers or two strings.")
}

func TestNegateNonNumber(t *testing.T) {
	out, stderr, status := run(t, `print -"a";`)
	assert.Equal(t, vm.StatusRuntimeError, status)
	assert.Equal(t, "", out)
	assert.Contains(t, stderr, "Operand must be a number.")
}

func TestUnterminatedGroupingIsCompileError(t *testing.T) {
	out, stderr, status := run(t, "print (;")
	assert.Equal(t, vm.StatusCompileError, status)
	assert.Equal(t, "", out, "the VM must not run when compilation fails")
	assert.Contains(t, stderr, "expect expression")
}

func TestInvalidAssignmentTarget(t *testing.T) {
	_, stderr, status := run(t, "1 + 2 = 3;")
	assert.Equal(t, vm.StatusCompileError, status)
	assert.Contains(t, stderr, "invalid assignment target")
}

func TestPanicModeRecoversAtNextStatement(t *testing.T) {
	// A malformed first statement shouldn't cascade into the second.
	out, stderr, status := run(t, heredoc.Doc(`
		print );
		print 1 + 1;
	`))
	assert.Equal(t, vm.StatusCompileError, status)
	assert.Equal(t, "", out, "errors suppress chunk execution entirely")
	assert.LessOrEqual(t, strings.Count(stderr, "[line"), 1, "sync() must stop the cascade: %q", stderr)
}

func TestTooManyConstantsIsCompileError(t *testing.T) {
	var b strings.Builder
	// Each declaration interns a fresh identifier into its own constant
	// pool slot; 257 distinct globals overflow the 256-entry pool.
	for i := 0; i < 257; i++ {
		b.WriteString("var v")
		b.WriteString(strings.Repeat("0", i))
		b.WriteString(" = nil;\n")
	}
	_, stderr, status := run(t, b.String())
	assert.Equal(t, vm.StatusCompileError, status)
	assert.Contains(t, stderr, "too many constants in one chunk")
}

func TestExactly256ConstantsAccepted(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 256; i++ {
		b.WriteString("var v")
		b.WriteString(strings.Repeat("0", i))
		b.WriteString(" = nil;\n")
	}
	_, stderr, status := run(t, b.String())
	assert.Equal(t, vm.StatusOk, status, "stderr: %s", stderr)
}
