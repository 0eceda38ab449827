package disasm

import (
	"strconv"
	"strings"

	"github.com/retroenv/pycgodisasm/internal/marshal"
	"github.com/retroenv/pycgodisasm/internal/opcodes"
)

// annotate resolves the argument of a decoded word into a human
// meaningful value and its textual representation, based on the opcode's
// capability flags. It is a pure function of the opcode, the argument
// and the code object's side tables.
func (d *Disasm) annotate(w word) (any, string) {
	if !w.hasArg {
		return nil, ""
	}

	arg := w.arg
	switch {
	case w.opcode.HasConst():
		return d.constInfo(arg)
	case w.opcode.HasName():
		return nameInfo(arg, d.names)
	case w.opcode.HasLocal():
		return nameInfo(arg, d.varNames)
	case w.opcode.HasFree():
		return nameInfo(arg, d.freeVars)
	case w.opcode.IsComparison():
		return cmpInfo(arg)
	case w.opcode.IsMakeFunction():
		return arg, makeFunctionInfo(arg)
	default:
		// no special representation, raw numeric value only
		return arg, ""
	}
}

// constInfo dereferences the constant pool, falling back to the raw
// index if the pool is unavailable.
func (d *Disasm) constInfo(index int) (any, string) {
	if d.code.Consts == nil || index < 0 || index >= len(d.code.Consts.Items) {
		return index, strconv.Itoa(index)
	}
	constant := d.code.Consts.Items[index]
	return constant, marshal.Repr(constant)
}

// nameInfo dereferences a name pool, returning the bare name. It falls
// back to the raw index and its numeric representation if the pool is
// unavailable.
func nameInfo(index int, pool []string) (any, string) {
	if index < 0 || index >= len(pool) {
		return index, strconv.Itoa(index)
	}
	name := pool[index]
	return name, name
}

// cmpInfo dereferences the fixed comparison operator table.
func cmpInfo(index int) (any, string) {
	if index < 0 || index >= len(opcodes.CmpOps) {
		return index, strconv.Itoa(index)
	}
	op := opcodes.CmpOps[index]
	return op, "'" + op + "'"
}

// makeFunctionInfo decodes a MAKE_FUNCTION argument as a bitmask over
// the fixed ordered flag name list.
func makeFunctionInfo(arg int) string {
	var names []string
	for i, name := range opcodes.MakeFunctionFlags {
		if arg&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}
