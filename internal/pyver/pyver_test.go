package pyver

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Version
		wantErr bool
	}{
		{input: "3.6", want: Version{Major: 3, Minor: 6}},
		{input: "3.8", want: Version{Major: 3, Minor: 8}},
		{input: "3.10", want: Version{Major: 3, Minor: 10}},
		{input: "3", wantErr: true},
		{input: "", wantErr: true},
		{input: "a.b", wantErr: true},
		{input: "3.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			version, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, version)
		})
	}
}

func TestAtLeast(t *testing.T) {
	v37 := Version{Major: 3, Minor: 7}

	assert.True(t, v37.AtLeast(3, 7))
	assert.True(t, v37.AtLeast(3, 6))
	assert.True(t, v37.AtLeast(2, 9))
	assert.False(t, v37.AtLeast(3, 8))
	assert.False(t, v37.AtLeast(4, 0))
}

func TestIsZero(t *testing.T) {
	assert.True(t, Version{}.IsZero())
	assert.False(t, Version{Major: 3, Minor: 6}.IsZero())
}

func TestString(t *testing.T) {
	assert.Equal(t, "3.8", Version{Major: 3, Minor: 8}.String())
}
