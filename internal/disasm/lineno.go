package disasm

import "sort"

// LineTable is a sparse mapping from bytecode byte offset to source line
// number. Only offsets where the line changes are present. It is built
// once per code object and read only afterwards.
type LineTable struct {
	starts  map[int]int
	offsets []int // emitted offsets in ascending order
}

// decodeLineTable expands the delta compressed line table. The table is
// consumed as (byteDelta, lineDelta) byte pairs: an entry is emitted
// before advancing the byte address whenever the running line changed
// since the last emit; the line delta is always applied, with byte
// values >= 128 folded to their signed interpretation. Chained
// (0, bigLineDelta) and (255, 0) pairs need no special casing, the same
// fold handles them.
func decodeLineTable(firstLine int, lnotab []byte) *LineTable {
	table := &LineTable{
		starts: map[int]int{},
	}

	addr := 0
	line := firstLine
	lastLine := -1
	emitted := false

	for i := 0; i+1 < len(lnotab); i += 2 {
		byteDelta := int(lnotab[i])
		lineDelta := int(lnotab[i+1])

		if byteDelta != 0 {
			if !emitted || lastLine != line {
				table.emit(addr, line)
				lastLine = line
				emitted = true
			}
			addr += byteDelta
		}

		if lineDelta >= 0x80 {
			lineDelta -= 0x100
		}
		line += lineDelta
	}

	if !emitted || lastLine != line {
		table.emit(addr, line)
	}
	return table
}

func (t *LineTable) emit(offset, line int) {
	if _, exists := t.starts[offset]; !exists {
		t.offsets = append(t.offsets, offset)
	}
	t.starts[offset] = line
}

// Start returns the line starting exactly at the given offset.
func (t *LineTable) Start(offset int) (int, bool) {
	line, ok := t.starts[offset]
	return line, ok
}

// LineAt returns the line covering an arbitrary offset, taken from the
// greatest emitted offset not exceeding it.
func (t *LineTable) LineAt(offset int) (int, bool) {
	idx := sort.SearchInts(t.offsets, offset+1)
	if idx == 0 {
		return 0, false
	}
	return t.starts[t.offsets[idx-1]], true
}

// MaxLine returns the highest emitted line number.
func (t *LineTable) MaxLine() int {
	maxLine := 0
	for _, line := range t.starts {
		if line > maxLine {
			maxLine = line
		}
	}
	return maxLine
}

// Len returns the number of emitted entries.
func (t *LineTable) Len() int {
	return len(t.offsets)
}
