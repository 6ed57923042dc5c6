package identity_test

import (
	"testing"

	"github.com/aretw0/lendflow/internal/identity"
	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"ABCDE1234F", true},
		{"abcde1234f", true},
		{"  ABCDE1234F\n", true},
		{"ABCD1234F", false},
		{"ABCDE12345", false},
		{"ABCDE1234FG", false},
		{"1BCDE1234F", false},
		{"ABCDE 1234F", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, identity.Valid(tt.input))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ABCDE1234F", identity.Normalize(" abcde1234f "))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "XXXXX1234X", identity.Mask("ABCDE1234F"))
	assert.Equal(t, "XXXXX1234X", identity.Mask("abcde1234f"))
	assert.Equal(t, "XXXX", identity.Mask("abcd"))
	assert.Equal(t, "", identity.Mask(""))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "my pan is XXXXX1234X, thanks", identity.Redact("my pan is abcde1234f, thanks"))
	assert.Equal(t, "no tokens here", identity.Redact("no tokens here"))
	assert.Equal(t, "XABCDE1234F", identity.Redact("XABCDE1234F"))
}
