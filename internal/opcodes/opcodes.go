// Package opcodes provides the static, versioned opcode tables that the
// disassembler consumes through the capability flag contract. The tables
// are data, resolved once per decode session; the decoder itself never
// hardcodes opcode knowledge.
package opcodes

import (
	"errors"
	"fmt"

	"github.com/retroenv/pycgodisasm/internal/pyver"
)

// ErrUnsupportedVersion indicates that no opcode table exists for the
// requested format version.
var ErrUnsupportedVersion = errors.New("unsupported bytecode version")

// caps is the capability flag set of an opcode.
type caps uint16

const (
	capHasArg caps = 1 << iota
	capJumpRel
	capJumpAbs
	capConst
	capName
	capLocal
	capFree
	capCompare
	capExtendedArg
	capMakeFunction
)

// Opcode describes one instruction of a specific format version.
type Opcode struct {
	Code byte
	Name string

	caps caps
}

// TakesArg returns whether the instruction word carries an argument.
func (o Opcode) TakesArg() bool { return o.caps&capHasArg != 0 }

// IsRelativeJump returns whether the argument is a relative jump delta.
func (o Opcode) IsRelativeJump() bool { return o.caps&capJumpRel != 0 }

// IsAbsoluteJump returns whether the argument is an absolute jump target.
func (o Opcode) IsAbsoluteJump() bool { return o.caps&capJumpAbs != 0 }

// HasConst returns whether the argument indexes the constant pool.
func (o Opcode) HasConst() bool { return o.caps&capConst != 0 }

// HasName returns whether the argument indexes the name pool.
func (o Opcode) HasName() bool { return o.caps&capName != 0 }

// HasLocal returns whether the argument indexes the local variable pool.
func (o Opcode) HasLocal() bool { return o.caps&capLocal != 0 }

// HasFree returns whether the argument indexes the free/cell variable pool.
func (o Opcode) HasFree() bool { return o.caps&capFree != 0 }

// IsComparison returns whether the argument indexes the comparison
// operator table.
func (o Opcode) IsComparison() bool { return o.caps&capCompare != 0 }

// IsExtendedArg returns whether the instruction extends the argument
// range of the following instruction word.
func (o Opcode) IsExtendedArg() bool { return o.caps&capExtendedArg != 0 }

// IsMakeFunction returns whether the argument is a MAKE_FUNCTION flag set.
func (o Opcode) IsMakeFunction() bool { return o.caps&capMakeFunction != 0 }

// CmpOps are the comparison operator names indexed by a COMPARE_OP
// argument.
var CmpOps = []string{
	"<", "<=", "==", "!=", ">", ">=",
	"in", "not in", "is", "is not",
	"exception match", "BAD",
}

// MakeFunctionFlags are the MAKE_FUNCTION argument bits in order.
var MakeFunctionFlags = []string{
	"defaults", "kwdefaults", "annotations", "closure",
}

// haveArgument is the first opcode value that carries an argument.
const haveArgument = 90

// Table is the opcode table of one format version.
type Table struct {
	version pyver.Version
	ops     [256]*Opcode
}

// ForVersion returns the opcode table for the given format version.
// Versions predating the fixed width wordcode layout are rejected; an
// alternate variable width decoder would be selected here.
func ForVersion(v pyver.Version) (*Table, error) {
	if v.Major != 3 || v.Minor < 6 || v.Minor > 8 {
		return nil, fmt.Errorf("version %s: %w", v, ErrUnsupportedVersion)
	}

	ops := baseOpcodes36()
	if v.AtLeast(3, 7) {
		delete(ops, 127) // STORE_ANNOTATION
		ops[160] = def("LOAD_METHOD", capName)
		ops[161] = def("CALL_METHOD", capHasArg)
	}
	if v.AtLeast(3, 8) {
		delete(ops, 80)  // BREAK_LOOP
		delete(ops, 119) // CONTINUE_LOOP
		delete(ops, 120) // SETUP_LOOP
		delete(ops, 121) // SETUP_EXCEPT
		ops[6] = def("ROT_FOUR", 0)
		ops[53] = def("BEGIN_FINALLY", 0)
		ops[54] = def("END_ASYNC_FOR", 0)
		ops[162] = def("CALL_FINALLY", capJumpRel)
		ops[163] = def("POP_FINALLY", capHasArg)
	}

	table := &Table{version: v}
	for code, op := range ops {
		op.Code = code
		if code >= haveArgument {
			op.caps |= capHasArg
		}
		table.ops[code] = op
	}
	return table, nil
}

// Version returns the format version the table was built for.
func (t *Table) Version() pyver.Version {
	return t.version
}

// Lookup resolves a numeric opcode. The second return value is false for
// opcodes absent from this version's table.
func (t *Table) Lookup(code byte) (Opcode, bool) {
	op := t.ops[code]
	if op == nil {
		return Opcode{}, false
	}
	return *op, true
}

// Placeholder returns a raw unknown-opcode placeholder for a numeric
// opcode absent from the table. Argument presence is inferred from the
// argument threshold so that partial disassembly can continue.
func (t *Table) Placeholder(code byte) Opcode {
	op := Opcode{
		Code: code,
		Name: fmt.Sprintf("<%d>", code),
	}
	if code >= haveArgument {
		op.caps |= capHasArg
	}
	return op
}

func def(name string, c caps) *Opcode {
	return &Opcode{Name: name, caps: c}
}

// baseOpcodes36 returns the 3.6 opcode set that the later versions are
// derived from.
func baseOpcodes36() map[byte]*Opcode {
	return map[byte]*Opcode{
		1:  def("POP_TOP", 0),
		2:  def("ROT_TWO", 0),
		3:  def("ROT_THREE", 0),
		4:  def("DUP_TOP", 0),
		5:  def("DUP_TOP_TWO", 0),
		9:  def("NOP", 0),
		10: def("UNARY_POSITIVE", 0),
		11: def("UNARY_NEGATIVE", 0),
		12: def("UNARY_NOT", 0),
		15: def("UNARY_INVERT", 0),
		16: def("BINARY_MATRIX_MULTIPLY", 0),
		17: def("INPLACE_MATRIX_MULTIPLY", 0),
		19: def("BINARY_POWER", 0),
		20: def("BINARY_MULTIPLY", 0),
		22: def("BINARY_MODULO", 0),
		23: def("BINARY_ADD", 0),
		24: def("BINARY_SUBTRACT", 0),
		25: def("BINARY_SUBSCR", 0),
		26: def("BINARY_FLOOR_DIVIDE", 0),
		27: def("BINARY_TRUE_DIVIDE", 0),
		28: def("INPLACE_FLOOR_DIVIDE", 0),
		29: def("INPLACE_TRUE_DIVIDE", 0),
		50: def("GET_AITER", 0),
		51: def("GET_ANEXT", 0),
		52: def("BEFORE_ASYNC_WITH", 0),
		55: def("INPLACE_ADD", 0),
		56: def("INPLACE_SUBTRACT", 0),
		57: def("INPLACE_MULTIPLY", 0),
		59: def("INPLACE_MODULO", 0),
		60: def("STORE_SUBSCR", 0),
		61: def("DELETE_SUBSCR", 0),
		62: def("BINARY_LSHIFT", 0),
		63: def("BINARY_RSHIFT", 0),
		64: def("BINARY_AND", 0),
		65: def("BINARY_XOR", 0),
		66: def("BINARY_OR", 0),
		67: def("INPLACE_POWER", 0),
		68: def("GET_ITER", 0),
		69: def("GET_YIELD_FROM_ITER", 0),
		70: def("PRINT_EXPR", 0),
		71: def("LOAD_BUILD_CLASS", 0),
		72: def("YIELD_FROM", 0),
		73: def("GET_AWAITABLE", 0),
		75: def("INPLACE_LSHIFT", 0),
		76: def("INPLACE_RSHIFT", 0),
		77: def("INPLACE_AND", 0),
		78: def("INPLACE_XOR", 0),
		79: def("INPLACE_OR", 0),
		80: def("BREAK_LOOP", 0),
		81: def("WITH_CLEANUP_START", 0),
		82: def("WITH_CLEANUP_FINISH", 0),
		83: def("RETURN_VALUE", 0),
		84: def("IMPORT_STAR", 0),
		85: def("SETUP_ANNOTATIONS", 0),
		86: def("YIELD_VALUE", 0),
		87: def("POP_BLOCK", 0),
		88: def("END_FINALLY", 0),
		89: def("POP_EXCEPT", 0),

		90:  def("STORE_NAME", capName),
		91:  def("DELETE_NAME", capName),
		92:  def("UNPACK_SEQUENCE", 0),
		93:  def("FOR_ITER", capJumpRel),
		94:  def("UNPACK_EX", 0),
		95:  def("STORE_ATTR", capName),
		96:  def("DELETE_ATTR", capName),
		97:  def("STORE_GLOBAL", capName),
		98:  def("DELETE_GLOBAL", capName),
		100: def("LOAD_CONST", capConst),
		101: def("LOAD_NAME", capName),
		102: def("BUILD_TUPLE", 0),
		103: def("BUILD_LIST", 0),
		104: def("BUILD_SET", 0),
		105: def("BUILD_MAP", 0),
		106: def("LOAD_ATTR", capName),
		107: def("COMPARE_OP", capCompare),
		108: def("IMPORT_NAME", capName),
		109: def("IMPORT_FROM", capName),
		110: def("JUMP_FORWARD", capJumpRel),
		111: def("JUMP_IF_FALSE_OR_POP", capJumpAbs),
		112: def("JUMP_IF_TRUE_OR_POP", capJumpAbs),
		113: def("JUMP_ABSOLUTE", capJumpAbs),
		114: def("POP_JUMP_IF_FALSE", capJumpAbs),
		115: def("POP_JUMP_IF_TRUE", capJumpAbs),
		116: def("LOAD_GLOBAL", capName),
		119: def("CONTINUE_LOOP", capJumpAbs),
		120: def("SETUP_LOOP", capJumpRel),
		121: def("SETUP_EXCEPT", capJumpRel),
		122: def("SETUP_FINALLY", capJumpRel),
		124: def("LOAD_FAST", capLocal),
		125: def("STORE_FAST", capLocal),
		126: def("DELETE_FAST", capLocal),
		127: def("STORE_ANNOTATION", capName),
		130: def("RAISE_VARARGS", 0),
		131: def("CALL_FUNCTION", 0),
		132: def("MAKE_FUNCTION", capMakeFunction),
		133: def("BUILD_SLICE", 0),
		135: def("LOAD_CLOSURE", capFree),
		136: def("LOAD_DEREF", capFree),
		137: def("STORE_DEREF", capFree),
		138: def("DELETE_DEREF", capFree),
		141: def("CALL_FUNCTION_KW", 0),
		142: def("CALL_FUNCTION_EX", 0),
		143: def("SETUP_WITH", capJumpRel),
		144: def("EXTENDED_ARG", capExtendedArg),
		145: def("LIST_APPEND", 0),
		146: def("SET_ADD", 0),
		147: def("MAP_ADD", 0),
		148: def("LOAD_CLASSDEREF", capFree),
		149: def("BUILD_LIST_UNPACK", 0),
		150: def("BUILD_MAP_UNPACK", 0),
		151: def("BUILD_MAP_UNPACK_WITH_CALL", 0),
		152: def("BUILD_TUPLE_UNPACK", 0),
		153: def("BUILD_SET_UNPACK", 0),
		154: def("SETUP_ASYNC_WITH", capJumpRel),
		155: def("FORMAT_VALUE", 0),
		156: def("BUILD_CONST_KEY_MAP", 0),
		157: def("BUILD_STRING", 0),
		158: def("BUILD_TUPLE_UNPACK_WITH_CALL", 0),
	}
}
