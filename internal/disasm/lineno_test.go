package disasm

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDecodeLineTable(t *testing.T) {
	// encoding of the mapping {0:1, 3:2, 10:3, 44:25, 366:64, 390:298}:
	// the byte increment 322 is chained as (255, 0) (67, 39) and the
	// line increment 234 as (24, 127) (0, 107)
	lnotab := []byte{3, 1, 7, 1, 34, 22, 255, 0, 67, 39, 24, 127, 0, 107}

	table := decodeLineTable(1, lnotab)

	want := map[int]int{0: 1, 3: 2, 10: 3, 44: 25, 366: 64, 390: 298}
	assert.Equal(t, len(want), table.Len())
	for offset, line := range want {
		got, ok := table.Start(offset)
		assert.True(t, ok)
		assert.Equal(t, line, got)
	}
}

func TestDecodeLineTableChainedPairs(t *testing.T) {
	// chained (0, lineDelta) and (255, 0) pairs fall out of the same
	// fold, no special casing: only line changes are emitted
	table := decodeLineTable(1, []byte{0, 1, 3, 1, 7, 1, 34, 22, 255, 0, 77, 39, 0, 127, 24, 97})

	tests := []struct {
		offset int
		line   int
	}{
		{offset: 0, line: 2},
		{offset: 3, line: 3},
		{offset: 10, line: 4},
		{offset: 44, line: 26},
		{offset: 376, line: 192},
		{offset: 400, line: 289},
	}
	assert.Equal(t, len(tests), table.Len())
	for _, tt := range tests {
		line, ok := table.Start(tt.offset)
		assert.True(t, ok)
		assert.Equal(t, tt.line, line)
	}
	// offset 299, reached through the (255, 0) chain pair, emits nothing
	_, ok := table.Start(299)
	assert.False(t, ok)
}

func TestDecodeLineTableNegativeDelta(t *testing.T) {
	// line deltas >= 128 fold to their signed interpretation
	table := decodeLineTable(10, []byte{2, 246}) // -10

	line, ok := table.Start(0)
	assert.True(t, ok)
	assert.Equal(t, 10, line)

	line, ok = table.Start(2)
	assert.True(t, ok)
	assert.Equal(t, 0, line)
}

func TestDecodeLineTableEmpty(t *testing.T) {
	table := decodeLineTable(5, nil)

	line, ok := table.Start(0)
	assert.True(t, ok)
	assert.Equal(t, 5, line)
	assert.Equal(t, 1, table.Len())
}

func TestLineTableLineAt(t *testing.T) {
	table := decodeLineTable(1, []byte{4, 1, 4, 1})

	tests := []struct {
		offset   int
		wantLine int
		wantOK   bool
	}{
		{offset: 0, wantLine: 1, wantOK: true},
		{offset: 2, wantLine: 1, wantOK: true},
		{offset: 4, wantLine: 2, wantOK: true},
		{offset: 7, wantLine: 2, wantOK: true},
		{offset: 8, wantLine: 3, wantOK: true},
		{offset: 100, wantLine: 3, wantOK: true},
		{offset: -1, wantOK: false},
	}

	for _, tt := range tests {
		line, ok := table.LineAt(tt.offset)
		assert.Equal(t, tt.wantOK, ok)
		if ok {
			assert.Equal(t, tt.wantLine, line)
		}
	}
}

func TestLineTableMaxLine(t *testing.T) {
	table := decodeLineTable(1, []byte{4, 1, 4, 1})
	assert.Equal(t, 3, table.MaxLine())
}
