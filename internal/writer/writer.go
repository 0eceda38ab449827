// Package writer renders annotated instruction sequences as a human
// readable disassembly listing.
package writer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/retroenv/pycgodisasm/internal/disasm"
	"github.com/retroenv/pycgodisasm/internal/marshal"
	"github.com/retroenv/pycgodisasm/internal/options"
)

// Column widths of the listing, matching the conventional layout.
const (
	opNameWidth = 20
	opArgWidth  = 5

	defaultLineNoWidth = 3
	defaultOffsetWidth = 4
)

// Writer renders listings to an output stream.
type Writer struct {
	out     io.Writer
	options options.Disassembler
}

// New creates a new listing writer.
func New(out io.Writer, opts options.Disassembler) *Writer {
	return &Writer{
		out:     out,
		options: opts,
	}
}

// WriteHeader writes the title line for a nested code object listing,
// separated from the previous listing by a blank line.
func (w *Writer) WriteHeader(code *marshal.Code) error {
	_, err := fmt.Fprintf(w.out, "\nDisassembly of %s:\n", marshal.Repr(code))
	return err
}

// WriteListing renders one code object's instruction sequence. The line
// number and offset columns widen when the maximum values outgrow the
// default widths.
func (w *Writer) WriteListing(code *marshal.Code, instructions []disasm.Instruction) error {
	lineNoWidth := defaultLineNoWidth
	if maxLine := maxLineNumber(instructions); maxLine >= 1000 {
		lineNoWidth = len(strconv.Itoa(maxLine))
	}
	offsetWidth := defaultOffsetWidth
	if maxOffset := len(code.Code) - 2; maxOffset >= 10000 {
		offsetWidth = len(strconv.Itoa(maxOffset))
	}

	for _, instruction := range instructions {
		if instruction.HasLine && instruction.Offset > 0 {
			if _, err := fmt.Fprintln(w.out); err != nil {
				return err
			}
		}

		markCurrent := instruction.Offset == w.options.CurrentOffset
		line := formatInstruction(instruction, lineNoWidth, markCurrent, offsetWidth)
		if _, err := fmt.Fprintln(w.out, line); err != nil {
			return err
		}
	}
	return nil
}

// formatInstruction formats one instruction row: source line, current
// instruction marker, jump target marker, offset, opcode name, raw
// argument and its resolved representation.
func formatInstruction(instruction disasm.Instruction, lineNoWidth int,
	markCurrent bool, offsetWidth int) string {

	fields := make([]string, 0, 7)

	if lineNoWidth > 0 {
		if instruction.HasLine {
			fields = append(fields, fmt.Sprintf("%*d", lineNoWidth, instruction.Line))
		} else {
			fields = append(fields, strings.Repeat(" ", lineNoWidth))
		}
	}

	if markCurrent {
		fields = append(fields, "-->")
	} else {
		fields = append(fields, "   ")
	}

	if instruction.IsJumpTarget {
		fields = append(fields, ">>")
	} else {
		fields = append(fields, "  ")
	}

	fields = append(fields, fmt.Sprintf("%*d", offsetWidth, instruction.Offset))
	fields = append(fields, fmt.Sprintf("%-*s", opNameWidth, instruction.Opcode.Name))

	if instruction.HasArg {
		fields = append(fields, fmt.Sprintf("%*d", opArgWidth, instruction.Arg))
		if instruction.ArgRepr != "" {
			fields = append(fields, "("+instruction.ArgRepr+")")
		}
	}

	return strings.TrimRight(strings.Join(fields, " "), " ")
}

func maxLineNumber(instructions []disasm.Instruction) int {
	maxLine := 0
	for _, instruction := range instructions {
		if instruction.HasLine && instruction.Line > maxLine {
			maxLine = instruction.Line
		}
	}
	return maxLine
}
