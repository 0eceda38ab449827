package cli

import (
	"os"
	"testing"

	"github.com/retroenv/pycgodisasm/internal/options"
	"github.com/retroenv/pycgodisasm/internal/pyver"
	"github.com/retroenv/retrogolib/assert"
)

func TestParseFlags_DisasmOptions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options.Disassembler
	}{
		{
			name: "default flags",
			args: []string{"prog", "test.pyc"},
			want: options.Disassembler{Recurse: true, CurrentOffset: -1},
		},
		{
			name: "norecurse flag",
			args: []string{"prog", "-norecurse", "test.pyc"},
			want: options.Disassembler{CurrentOffset: -1},
		},
		{
			name: "strict flag",
			args: []string{"prog", "-strict", "test.pyc"},
			want: options.Disassembler{Recurse: true, StrictOpcodes: true, CurrentOffset: -1},
		},
		{
			name: "pyversion flag",
			args: []string{"prog", "-pyversion", "3.7", "test.pyc"},
			want: options.Disassembler{
				Recurse:       true,
				CurrentOffset: -1,
				Version:       pyver.Version{Major: 3, Minor: 7},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			t.Cleanup(func() { os.Args = oldArgs })

			os.Args = tt.args

			_, got, err := ParseFlags()
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFlags_Input(t *testing.T) {
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })

	os.Args = []string{"prog", "test.pyc"}
	opts, _, err := ParseFlags()
	assert.NoError(t, err)
	assert.Equal(t, "test.pyc", opts.Input)

	os.Args = []string{"prog", "-i", "other.pyc"}
	opts, _, err = ParseFlags()
	assert.NoError(t, err)
	assert.Equal(t, "other.pyc", opts.Input)
}

func TestParseFlags_InvalidVersion(t *testing.T) {
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })

	os.Args = []string{"prog", "-pyversion", "latest", "test.pyc"}
	_, _, err := ParseFlags()
	assert.Error(t, err)
}

func TestValidateArgs(t *testing.T) {
	assert.NoError(t, validateArgs([]string{"test.pyc"}))

	err := validateArgs([]string{"test.pyc", "-strict"})
	assert.True(t, err != nil)
}
