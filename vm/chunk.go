package vm

import (
	"fmt"

	"github.com/antbuild/golox/debug"
)

//go:generate stringer -type=OpCode
type OpCode byte

const (
	OpReturn OpCode = iota
	OpConstant
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpNegate
	OpNot
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpEqual
	OpGreater
	OpLess
	OpPrint
	OpDefineGlobal
	OpGetGlobal
)

// MaxConsts is the largest number of distinct constants one Chunk may hold;
// OpConstant/OpDefineGlobal/OpGetGlobal address the constant pool with a
// single byte operand.
const MaxConsts = 256

type Chunk struct {
	code []byte
	// Contract: len(lines) == len(code)
	lines  []int
	consts []Value
}

func NewChunk() *Chunk { return &Chunk{} }

func (c *Chunk) Write(b byte, line int) {
	c.code = append(c.code, b)
	c.lines = append(c.lines, line)
	debug.AssertEq(len(c.code), len(c.lines))
}

// AddConst appends const_ to the pool and returns its index. Callers that
// must fit the index into a single byte operand are responsible for
// checking against MaxConsts (see Parser.makeConst).
func (c *Chunk) AddConst(const_ Value) (idx int) {
	idx = len(c.consts)
	c.consts = append(c.consts, const_)
	return
}

func (c *Chunk) Code() []byte       { return c.code }
func (c *Chunk) Line(i int) int     { return c.lines[i] }
func (c *Chunk) Const(i byte) Value { return c.consts[i] }

func (c *Chunk) DisassembleInst(offset int) (res string, newOffset int) {
	sprintf := func(format string, a ...any) { res += fmt.Sprintf(format, a...) }

	sprintf("%04d ", offset)
	if offset > 0 && c.lines[offset] == c.lines[offset-1] {
		sprintf("   | ")
	} else {
		sprintf("%4d ", c.lines[offset])
	}

	switch inst := OpCode(c.code[offset]); inst {
	// Unary operators: a single constant-pool index operand.
	case OpConstant, OpDefineGlobal, OpGetGlobal:
		const_ := c.code[offset+1]
		sprintf("%-16s %4d '%s'", inst, const_, c.consts[const_])
		return res, offset + 2
	// Nullary operators.
	default:
		sprintf("%s", inst)
		return res, offset + 1
	}
}

func (c *Chunk) Disassemble(name string) (res string) {
	res = fmt.Sprintf("== %s ==\n", name)
	for i := 0; i < len(c.code); {
		var delta string
		delta, i = c.DisassembleInst(i)
		res += delta + "\n"
	}
	return res
}
