package disasm

import (
	"fmt"

	"github.com/retroenv/pycgodisasm/internal/opcodes"
	"github.com/retroenv/retrogolib/set"
)

// instructionWidth is the fixed width of one instruction word:
// opcode byte + operand byte.
const instructionWidth = 2

// word is one decoded instruction word with its extended argument
// already resolved.
type word struct {
	offset int
	opcode opcodes.Opcode
	arg    int
	hasArg bool
}

// unpacker walks the fixed width instruction stream and resolves
// EXTENDED_ARG chaining into full width operands. It is a one pass,
// finite, non restartable iterator; a new pass needs a new unpacker.
type unpacker struct {
	code   []byte
	table  *opcodes.Table
	strict bool

	pos         int
	extendedArg int
}

func newUnpacker(code []byte, table *opcodes.Table, strict bool) *unpacker {
	return &unpacker{
		code:  code,
		table: table,
		// strict mode fails on opcodes absent from the version's table
		// instead of rendering a placeholder
		strict: strict,
	}
}

// Next returns the next instruction word. The second return value is
// false once the stream is exhausted.
func (u *unpacker) Next() (word, bool, error) {
	if u.pos+instructionWidth > len(u.code) {
		return word{}, false, nil
	}

	offset := u.pos
	opByte := u.code[offset]
	operand := u.code[offset+1]
	u.pos += instructionWidth

	opcode, known := u.table.Lookup(opByte)
	if !known {
		if u.strict {
			return word{}, false, fmt.Errorf("offset %d: opcode %d: %w",
				offset, opByte, ErrUnsupportedOpcode)
		}
		opcode = u.table.Placeholder(opByte)
	}

	w := word{
		offset: offset,
		opcode: opcode,
	}
	if opcode.TakesArg() {
		w.arg = int(operand) | u.extendedArg
		w.hasArg = true
		if opcode.IsExtendedArg() {
			// this word only widens the next word's argument range
			u.extendedArg = w.arg << 8
		} else {
			u.extendedArg = 0
		}
	} else {
		u.extendedArg = 0
	}
	return w, true, nil
}

// jumpTargets computes the set of byte offsets that are branch targets,
// in a fresh pass independent of the final annotation pass.
func jumpTargets(code []byte, table *opcodes.Table, strict bool) (set.Set[int], error) {
	targets := set.New[int]()

	u := newUnpacker(code, table, strict)
	for {
		w, ok, err := u.Next()
		if err != nil {
			return targets, err
		}
		if !ok {
			return targets, nil
		}
		if !w.hasArg {
			continue
		}

		switch {
		case w.opcode.IsRelativeJump():
			targets.Add(w.offset + instructionWidth + w.arg)
		case w.opcode.IsAbsoluteJump():
			targets.Add(w.arg)
		}
	}
}
