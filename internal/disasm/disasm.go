// Package disasm turns a decoded code object into an ordered sequence of
// fully annotated instructions.
package disasm

import (
	"errors"
	"fmt"

	"github.com/retroenv/pycgodisasm/internal/marshal"
	"github.com/retroenv/pycgodisasm/internal/opcodes"
	"github.com/retroenv/pycgodisasm/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// ErrUnsupportedOpcode indicates a numeric opcode that is absent from
// the opcode table of the selected format version.
var ErrUnsupportedOpcode = errors.New("unsupported opcode")

// Instruction is one fully annotated instruction of the listing.
// Instances are produced in one pass, ordered by ascending offset, and
// immutable after construction.
type Instruction struct {
	Offset int
	Opcode opcodes.Opcode

	Line    int
	HasLine bool

	Arg      int
	HasArg   bool
	ArgValue any    // resolved argument value
	ArgRepr  string // human readable representation, may be empty

	IsJumpTarget bool
}

// Disasm disassembles a single code object. Each instance owns its own
// decode state; instances are not shared between code objects.
type Disasm struct {
	logger  *log.Logger
	options options.Disassembler

	code  *marshal.Code
	table *opcodes.Table

	names    []string
	varNames []string
	freeVars []string // cellvars concatenated with freevars, cellvars first
}

// New creates a disassembler for one code object using the opcode table
// of the configured format version.
func New(logger *log.Logger, code *marshal.Code, table *opcodes.Table,
	opts options.Disassembler) *Disasm {

	freeVars := append(code.CellVars.StringItems(), code.FreeVars.StringItems()...)

	return &Disasm{
		logger:   logger,
		options:  opts,
		code:     code,
		table:    table,
		names:    code.Names.StringItems(),
		varNames: code.VarNames.StringItems(),
		freeVars: freeVars,
	}
}

// Disassemble produces the ordered annotated instruction sequence.
// It runs three strictly ordered phases: jump target resolution over the
// full stream, line table decoding, and a final pass merging line info,
// jump target flags and annotated arguments.
func (d *Disasm) Disassemble() ([]Instruction, error) {
	targets, err := jumpTargets(d.code.Code, d.table, d.options.StrictOpcodes)
	if err != nil {
		return nil, fmt.Errorf("resolving jump targets: %w", err)
	}

	lines := decodeLineTable(d.code.FirstLineNo, d.code.LNoTab)

	d.logger.Debug("Disassembling code object",
		log.String("name", d.code.Name),
		log.Int("code_size", len(d.code.Code)),
		log.Int("jump_targets", len(targets)),
		log.Int("line_entries", lines.Len()))

	instructions := make([]Instruction, 0, len(d.code.Code)/instructionWidth)

	u := newUnpacker(d.code.Code, d.table, d.options.StrictOpcodes)
	for {
		w, ok, err := u.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return instructions, nil
		}

		instruction := Instruction{
			Offset:       w.offset,
			Opcode:       w.opcode,
			Arg:          w.arg,
			HasArg:       w.hasArg,
			IsJumpTarget: targets.Contains(w.offset),
		}
		if line, ok := lines.Start(w.offset); ok {
			instruction.Line = line
			instruction.HasLine = true
		}
		instruction.ArgValue, instruction.ArgRepr = d.annotate(w)

		instructions = append(instructions, instruction)
	}
}

// LineTableOf exposes the decoded line table of a code object for
// consumers that need a line for an arbitrary offset.
func LineTableOf(code *marshal.Code) *LineTable {
	return decodeLineTable(code.FirstLineNo, code.LNoTab)
}
