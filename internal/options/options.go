// Package options contains the program options.
package options

import (
	"github.com/retroenv/pycgodisasm/internal/pyver"
)

// Program options of the command line interface.
type Program struct {
	Input  string // compiled artifact to disassemble
	Output string // output listing file, stdout if empty

	PyVersion string // bytecode format version override, e.g. "3.7"

	Debug     bool
	Quiet     bool
	NoRecurse bool // do not disassemble nested code objects
	Strict    bool // fail on opcodes unknown to the version's table
}

// Disassembler defines options to control the disassembler.
type Disassembler struct {
	Version pyver.Version // bytecode format version

	Recurse       bool // disassemble code objects found in constant pools
	StrictOpcodes bool // fail on unknown opcodes instead of rendering a placeholder
	CurrentOffset int  // instruction offset to mark with -->, -1 for none
}

// NewDisassembler returns a new options instance with default options.
func NewDisassembler(opts Program) Disassembler {
	return Disassembler{
		Recurse:       !opts.NoRecurse,
		StrictOpcodes: opts.Strict,
		CurrentOffset: -1,
	}
}
