package vm

import "fmt"

// ValueType tags the payload carried by a Value.
type ValueType byte

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
	ValObj
)

// Value is a plain copyable tagged union: Nil, Bool, Number (float64), or
// Obj (a non-owning StringID into the shared string arena). Object payloads
// are ids, never inline heap pointers, so copying a Value is O(1) and the
// operand stack can stay a flat array of these.
type Value struct {
	typ ValueType
	num float64
	b   bool
	str StringID
}

func NilValue() Value        { return Value{typ: ValNil} }
func BoolValue(b bool) Value { return Value{typ: ValBool, b: b} }
func Number(n float64) Value { return Value{typ: ValNumber, num: n} }
func Obj(id StringID) Value  { return Value{typ: ValObj, str: id} }

func (v Value) Type() ValueType      { return v.typ }
func (v Value) IsNil() bool          { return v.typ == ValNil }
func (v Value) IsBool() bool         { return v.typ == ValBool }
func (v Value) IsNumber() bool       { return v.typ == ValNumber }
func (v Value) IsString() bool       { return v.typ == ValObj }
func (v Value) AsBool() bool         { return v.b }
func (v Value) AsNumber() float64    { return v.num }
func (v Value) AsStringID() StringID { return v.str }

// String renders v for contexts with no arena at hand (tests, %v
// formatting). String Values render as a placeholder showing only the id;
// callers that can reach the shared arena should prefer ValueStr.
func (v Value) String() string {
	switch v.typ {
	case ValNil:
		return "nil"
	case ValBool:
		return fmt.Sprintf("%t", v.b)
	case ValNumber:
		return fmt.Sprintf("%g", v.num)
	case ValObj:
		return fmt.Sprintf("<str#%d>", v.str)
	default:
		return "<invalid value>"
	}
}

// ValueStr renders v the way the VM's Print opcode and its debug stack
// trace show it, resolving any string payload through arena.
func ValueStr(v Value, arena *StringArena) string {
	if v.typ == ValObj {
		return string(arena.Bytes(v.str))
	}
	return v.String()
}

/* Arithmetic and comparison: free functions operating on the tagged union.
Each returns (result, ok); ok == false means the operands didn't
type-check and the caller (the VM dispatch loop) must raise a runtime
error instead of pushing the result. */

// Add implements the Add opcode: numeric addition, or string concatenation
// (interning the result) when both operands are strings.
func Add(a, b Value, arena *StringArena) (res Value, ok bool) {
	switch {
	case a.typ == ValNumber && b.typ == ValNumber:
		return Number(a.num + b.num), true
	case a.typ == ValObj && b.typ == ValObj:
		concat := append(append([]byte{}, arena.Bytes(a.str)...), arena.Bytes(b.str)...)
		return Obj(arena.Intern(concat)), true
	default:
		return NilValue(), false
	}
}

func Sub(a, b Value) (res Value, ok bool) {
	if a.typ == ValNumber && b.typ == ValNumber {
		return Number(a.num - b.num), true
	}
	return NilValue(), false
}

func Mul(a, b Value) (res Value, ok bool) {
	if a.typ == ValNumber && b.typ == ValNumber {
		return Number(a.num * b.num), true
	}
	return NilValue(), false
}

func Div(a, b Value) (res Value, ok bool) {
	if a.typ == ValNumber && b.typ == ValNumber {
		return Number(a.num / b.num), true
	}
	return NilValue(), false
}

func Greater(a, b Value) (res Value, ok bool) {
	if a.typ == ValNumber && b.typ == ValNumber {
		return BoolValue(a.num > b.num), true
	}
	return NilValue(), false
}

func Less(a, b Value) (res Value, ok bool) {
	if a.typ == ValNumber && b.typ == ValNumber {
		return BoolValue(a.num < b.num), true
	}
	return NilValue(), false
}

func Neg(a Value) (res Value, ok bool) {
	if a.typ == ValNumber {
		return Number(-a.num), true
	}
	return NilValue(), false
}

// Truthy follows spec: Nil and Bool(false) are falsey, everything else
// (including 0 and the empty string) is truthy.
func Truthy(v Value) bool {
	switch v.typ {
	case ValBool:
		return v.b
	case ValNil:
		return false
	default:
		return true
	}
}

// Not implements the ! operator in terms of Truthy.
func Not(v Value) Value { return BoolValue(!Truthy(v)) }

// Eq follows IEEE semantics for numbers (NaN != NaN, including against
// itself); strings compare by arena identity, which is always consistent
// with byte equality once interned.
func Eq(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case ValNil:
		return true
	case ValBool:
		return a.b == b.b
	case ValNumber:
		return a.num == b.num
	case ValObj:
		return a.str == b.str
	default:
		return false
	}
}
