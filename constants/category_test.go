package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		input string
		want  Category
		match bool
	}{
		{"Elektronika", Elektronika, true},
		{"elektronika", Elektronika, true},
		{"televizor", Elektronika, true},
		{"  Sport  ", Sport, true},
		{"auto dijelovi", AutoDijelovi, true},
		{"nepoznata kategorija", Ostalo, false},
		{"", Ostalo, false},
	}
	for _, tt := range tests {
		got, ok := Canonicalize(tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, tt.match, ok, "input %q", tt.input)
	}
}

func TestExtAllowed(t *testing.T) {
	assert.True(t, ExtAllowed(".JPG"))
	assert.True(t, ExtAllowed("png"))
	assert.False(t, ExtAllowed(".exe"))
	assert.False(t, ExtAllowed(""))
}
