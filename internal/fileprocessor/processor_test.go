package fileprocessor

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/pycgodisasm/internal/options"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func TestProcessFile(t *testing.T) {
	tests := []struct {
		name         string
		noRecurse    bool
		expectNested bool
	}{
		{name: "recursive", expectNested: true},
		{name: "norecurse", noRecurse: true, expectNested: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			input := filepath.Join(dir, "test.pyc")
			output := filepath.Join(dir, "test.lst")
			assert.NoError(t, os.WriteFile(input, createTestArtifact(), 0o644))

			opts := options.Program{
				Input:     input,
				Output:    output,
				NoRecurse: tt.noRecurse,
				Quiet:     true,
			}
			disasmOptions := options.NewDisassembler(opts)

			logger := log.NewTestLogger(t)
			err := ProcessFile(context.Background(), logger, opts, disasmOptions)
			assert.NoError(t, err)

			listing, err := os.ReadFile(output)
			assert.NoError(t, err)
			verifyListing(t, string(listing), tt.expectNested)
		})
	}
}

func TestProcessFileVersionOverride(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "test.pyc")
	output := filepath.Join(dir, "test.lst")
	assert.NoError(t, os.WriteFile(input, createTestArtifact(), 0o644))

	opts := options.Program{
		Input:     input,
		Output:    output,
		PyVersion: "3.5",
		Quiet:     true,
	}
	disasmOptions := options.NewDisassembler(opts)
	disasmOptions.Version.Major = 3
	disasmOptions.Version.Minor = 5

	logger := log.NewTestLogger(t)
	// 3.5 predates the supported format versions
	err := ProcessFile(context.Background(), logger, opts, disasmOptions)
	assert.Error(t, err)
}

func verifyListing(t *testing.T, listing string, expectNested bool) {
	t.Helper()

	assert.True(t, len(listing) > 0, "listing should not be empty")
	assert.True(t, strings.Contains(listing, "LOAD_CONST"))
	assert.True(t, strings.Contains(listing, "RETURN_VALUE"))

	hasNested := strings.Contains(listing, "Disassembly of <code object inner")
	assert.Equal(t, expectNested, hasNested, "nested listing presence mismatch")
}

// createTestArtifact builds a minimal compiled artifact in memory: a
// timestamp based container header followed by a marshaled module code
// object holding one nested code object in its constant pool.
func createTestArtifact() []byte {
	inner := marshalCode("inner", [][]byte{{'N'}})
	module := marshalCode("<module>", [][]byte{{'N'}, inner})

	data := []byte{0x33, 0x0d, '\r', '\n'} // magic 3379, format version 3.6
	data = append(data, u32(1600000000)...)
	data = append(data, u32(42)...)
	return append(data, module...)
}

// marshalCode encodes a code object that loads its first constant and
// returns it. Constants are provided pre-marshaled.
func marshalCode(name string, consts [][]byte) []byte {
	var buf bytes.Buffer

	buf.WriteByte('c')
	for _, scalar := range []uint32{0, 0, 0, 2, 64} {
		buf.Write(u32(scalar))
	}

	bytecode := []byte{100, 0, 83, 0} // LOAD_CONST 0, RETURN_VALUE
	buf.WriteByte('s')
	buf.Write(u32(uint32(len(bytecode))))
	buf.Write(bytecode)

	buf.WriteByte('(')
	buf.Write(u32(uint32(len(consts))))
	for _, c := range consts {
		buf.Write(c)
	}

	for i := 0; i < 4; i++ { // names, varnames, freevars, cellvars
		buf.WriteByte('(')
		buf.Write(u32(0))
	}

	for _, s := range []string{"test.py", name} {
		buf.WriteByte('u')
		buf.Write(u32(uint32(len(s))))
		buf.WriteString(s)
	}

	buf.Write(u32(1)) // first line number
	buf.WriteByte('s')
	buf.Write(u32(0)) // empty line number table

	return buf.Bytes()
}

func u32(value uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	return buf[:]
}
