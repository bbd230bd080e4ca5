package vm

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/antbuild/golox/debug"
	e "github.com/antbuild/golox/errors"
)

// Parser is the single-pass Pratt compiler's whole mutable state: the
// token stream it pulls from, the chunk it's building, and panic-mode
// bookkeeping. Its lifetime is exactly one compilation.
type Parser struct {
	*Scanner
	chunk *Chunk
	arena *StringArena

	prev, curr Token

	errors    *multierror.Error
	panicMode bool
}

func NewParser() *Parser { return &Parser{} }

// Compile translates src into a chunk against the shared arena in a
// single forward pass: the final emitted instruction is always Return,
// and ok is true iff no errors were recorded. Callers must not execute
// chunk when ok is false.
func (p *Parser) Compile(src string, arena *StringArena) (chunk *Chunk, ok bool) {
	p.chunk = NewChunk()
	p.arena = arena
	p.Scanner = NewScanner(src)
	p.errors = nil
	p.panicMode = false

	p.advance()
	for !p.match(TEOF) {
		p.decl()
	}
	p.endCompiler()

	if debug.DEBUG {
		logrus.Debugln(p.chunk.Disassemble("<script>"))
	}
	return p.chunk, p.errors == nil
}

// Errors returns the accumulated compile-time diagnostics from the most
// recent Compile call, each renderable via its Diagnostic() method.
func (p *Parser) Errors() []error {
	if p.errors == nil {
		return nil
	}
	return p.errors.Errors
}

/* Prefix productions */

func (p *Parser) num(_canAssign bool) {
	val, err := strconv.ParseFloat(p.prev.String(), 64)
	if err != nil {
		p.Error("invalid number literal")
		return
	}
	p.emitConst(Number(val))
}

func (p *Parser) grouping(_canAssign bool) {
	p.expr()
	p.consume(TRParen, "expect ')' after expression")
}

func (p *Parser) lit(_canAssign bool) {
	switch p.prev.Type {
	case TFalse:
		p.emitBytes(byte(OpFalse))
	case TNil:
		p.emitBytes(byte(OpNil))
	case TTrue:
		p.emitBytes(byte(OpTrue))
	default:
		panic(e.Unreachable)
	}
}

func (p *Parser) str(_canAssign bool) {
	runes := p.prev.Runes
	// Strip the surrounding quotes and intern the interior bytes.
	unquoted := string(runes[1 : len(runes)-1])
	p.emitConst(Obj(p.arena.InternString(unquoted)))
}

// variable is the Identifier prefix production. This language has no
// assignment-expression opcode, so a bare identifier always reads; a
// trailing '=' is left for parsePrec's own stray-assignment check to
// report as "invalid assignment target".
func (p *Parser) variable(_canAssign bool) {
	arg := p.identConst(&p.prev)
	p.emitBytes(byte(OpGetGlobal), arg)
}

func (p *Parser) unary(_canAssign bool) {
	op := p.prev.Type

	// Compile the operand.
	p.parsePrec(PrecUnary)

	switch op {
	case TBang:
		p.emitBytes(byte(OpNot))
	case TMinus:
		p.emitBytes(byte(OpNegate))
	default:
		panic(e.Unreachable)
	}
}

/* Infix production */

func (p *Parser) binary(_canAssign bool) {
	op := p.prev.Type
	rule := parseRules[op]

	// Compile the RHS at one precedence tighter than this operator, so
	// the operator is left-associative.
	p.parsePrec(rule.Prec + 1)

	switch op {
	case TBangEqual:
		p.emitBytes(byte(OpEqual), byte(OpNot))
	case TEqualEqual:
		p.emitBytes(byte(OpEqual))
	case TGreater:
		p.emitBytes(byte(OpGreater))
	case TGreaterEqual:
		p.emitBytes(byte(OpLess), byte(OpNot))
	case TLess:
		p.emitBytes(byte(OpLess))
	case TLessEqual:
		p.emitBytes(byte(OpGreater), byte(OpNot))
	case TPlus:
		p.emitBytes(byte(OpAdd))
	case TMinus:
		p.emitBytes(byte(OpSubtract))
	case TStar:
		p.emitBytes(byte(OpMultiply))
	case TSlash:
		p.emitBytes(byte(OpDivide))
	default:
		panic(e.Unreachable)
	}
}

/* Statements and declarations */

func (p *Parser) expr() { p.parsePrec(PrecAssign) }

func (p *Parser) exprStmt() {
	p.expr()
	p.consume(TSemi, "expect ';' after value")
	p.emitBytes(byte(OpPop))
}

func (p *Parser) printStmt() {
	p.expr()
	p.consume(TSemi, "expect ';' after value")
	p.emitBytes(byte(OpPrint))
}

func (p *Parser) stmt() {
	switch {
	case p.match(TPrint):
		p.printStmt()
	default:
		p.exprStmt()
	}
}

func (p *Parser) varDecl() {
	target := p.consume(TIdent, "expect variable name")
	var global byte
	validName := target != nil
	if validName {
		global = p.identConst(target)
	}

	switch {
	case p.match(TEqual):
		p.expr()
	default:
		p.emitBytes(byte(OpNil))
	}
	p.consume(TSemi, "expect ';' after variable declaration")

	if validName {
		p.emitBytes(byte(OpDefineGlobal), global)
	}
}

func (p *Parser) decl() {
	switch {
	case p.match(TVar):
		p.varDecl()
	default:
		p.stmt()
	}
	if p.panicMode {
		p.sync()
	}
}

/* Pratt parse-rule table */

// ParseFn is a parser action: either a prefix production (operates purely
// on what follows) or an infix production (combines with the already
// parsed LHS held in p.prev/the chunk so far). canAssign tells a prefix
// production whether it's allowed to consume a trailing '=' itself.
type ParseFn = func(p *Parser, canAssign bool)

type ParseRule struct {
	Prefix, Infix ParseFn
	Prec          Prec
}

var parseRules []ParseRule

func init() {
	parseRules = []ParseRule{
		TLParen:       {(*Parser).grouping, nil, PrecNone},
		TMinus:        {(*Parser).unary, (*Parser).binary, PrecTerm},
		TPlus:         {nil, (*Parser).binary, PrecTerm},
		TSlash:        {nil, (*Parser).binary, PrecFactor},
		TStar:         {nil, (*Parser).binary, PrecFactor},
		TBang:         {(*Parser).unary, nil, PrecNone},
		TBangEqual:    {nil, (*Parser).binary, PrecEqual},
		TEqualEqual:   {nil, (*Parser).binary, PrecEqual},
		TGreater:      {nil, (*Parser).binary, PrecComp},
		TGreaterEqual: {nil, (*Parser).binary, PrecComp},
		TLess:         {nil, (*Parser).binary, PrecComp},
		TLessEqual:    {nil, (*Parser).binary, PrecComp},
		TIdent:        {(*Parser).variable, nil, PrecNone},
		TStr:          {(*Parser).str, nil, PrecNone},
		TNum:          {(*Parser).num, nil, PrecNone},
		TFalse:        {(*Parser).lit, nil, PrecNone},
		TNil:          {(*Parser).lit, nil, PrecNone},
		TTrue:         {(*Parser).lit, nil, PrecNone},
		TEOF:          {},
	}
}

func (p *Parser) ruleFor(ty TokenType) ParseRule {
	if int(ty) >= len(parseRules) {
		return ParseRule{}
	}
	return parseRules[ty]
}

// parsePrec implements precedence climbing: advance, run the
// previous token's prefix production, then keep consuming infix
// productions as long as the current token's rule precedence is at least
// prec. Net stack effect on completion is +1 value.
func (p *Parser) parsePrec(prec Prec) {
	p.advance()

	prefix := p.ruleFor(p.prev.Type).Prefix
	if prefix == nil {
		p.Error("expect expression")
		return
	}
	canAssign := prec <= PrecAssign
	prefix(p, canAssign)

	for {
		rule := p.ruleFor(p.curr.Type)
		if rule.Prec < prec {
			break
		}
		p.advance()
		if rule.Infix == nil {
			panic(e.Unreachable)
		}
		rule.Infix(p, canAssign)
	}

	if canAssign && p.match(TEqual) {
		p.Error("invalid assignment target")
		p.advance()
	}
}

/* Parsing helpers */

func (p *Parser) check(ty TokenType) bool { return p.curr.Type == ty }

func (p *Parser) advance() {
	p.prev = p.curr
	for {
		// Skip past TErr tokens, reporting each as a parse error.
		if p.curr = p.ScanToken(); !p.check(TErr) {
			break
		}
		p.errorAtCurrLexical(p.curr.String())
	}
}

func (p *Parser) match(ty TokenType) (matched bool) {
	if !p.check(ty) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(ty TokenType, errorMsg string) *Token {
	if !p.check(ty) {
		p.ErrorAtCurr(errorMsg)
		return nil
	}
	p.advance()
	return &p.prev
}

/* Compiling helpers */

func (p *Parser) emitBytes(bs ...byte) {
	for _, b := range bs {
		p.chunk.Write(b, p.prev.Line)
	}
}

func (p *Parser) emitConst(val Value) { p.emitBytes(byte(OpConstant), p.makeConst(val)) }

// makeConst appends val to the chunk's constant pool, reporting a
// compile error instead of overflowing the 8-bit operand when the pool
// would grow past MaxConsts entries.
func (p *Parser) makeConst(val Value) byte {
	idx := p.chunk.AddConst(val)
	if idx >= MaxConsts {
		p.Error("too many constants in one chunk")
		return 0
	}
	return byte(idx)
}

func (p *Parser) identConst(name *Token) byte { return p.makeConst(Obj(p.arena.InternString(name.String()))) }

func (p *Parser) emitReturn() { p.emitBytes(byte(OpReturn)) }

func (p *Parser) endCompiler() { p.emitReturn() }

/* Precedence */

//go:generate stringer -type=Prec
type Prec int

const (
	PrecNone   Prec = iota
	PrecAssign      // =
	PrecOr          // or
	PrecAnd         // and
	PrecEqual       // == !=
	PrecComp        // < > <= >=
	PrecTerm        // + -
	PrecFactor      // * /
	PrecUnary       // ! -
	PrecCall        // . ()
	PrecPrimary
)

/* Error handling: panic-mode recovery */

// sync advances past tokens until either the previous token was a ';' or
// the current token begins a new statement, so one error doesn't cascade
// into a flood of spurious follow-on errors.
func (p *Parser) sync() {
	p.panicMode = false
	for !p.check(TEOF) && p.prev.Type != TSemi {
		switch p.curr.Type {
		case TClass, TFun, TVar, TFor, TIf, TWhile, TPrint, TReturn:
			return
		default:
			p.advance()
		}
	}
}

// ErrorAt records a compile error at tk, formatted the way the driver
// writes it to stderr. Only the first error before the next sync() is
// recorded; cascades while panicMode is set are suppressed.
func (p *Parser) ErrorAt(tk Token, reason string) {
	if p.panicMode {
		return
	}
	p.panicMode = true

	var at string
	switch tk.Type {
	case TEOF:
		at = " at end"
	case TErr:
		at = ""
	default:
		at = fmt.Sprintf(" at '%s'", tk.String())
	}

	var msg string
	if at == "" {
		msg = fmt.Sprintf("Error: %s", reason)
	} else {
		msg = fmt.Sprintf("Error%s: %s", at, reason)
	}

	err := &e.CompilationError{Line: tk.Line, Reason: msg}
	if debug.DEBUG {
		logrus.Debugln(p.chunk.Disassemble("<error>"))
		logrus.Debugln(err)
	}
	p.errors = multierror.Append(p.errors, err)
}

func (p *Parser) Error(reason string)       { p.ErrorAt(p.prev, reason) }
func (p *Parser) ErrorAtCurr(reason string) { p.ErrorAt(p.curr, reason) }

// errorAtCurrLexical reports a scanner-produced TErr token; its lexeme
// already holds the diagnostic and no "at '<lexeme>'" clause is printed.
func (p *Parser) errorAtCurrLexical(reason string) { p.ErrorAt(p.curr, reason) }

func (p *Parser) HadError() bool { return p.errors != nil }
