package ponumber

import (
	"testing"

	e "github.com/inkbridge/settlement/internal/settlement/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"PO-12345", true},
		{"abc", true},
		{"A1_b2-C3", true},
		{"  PO-77  ", true},
		{"ab", false},
		{"", false},
		{"-starts-with-hyphen", false},
		{"has space", false},
		{"po#123", false},
		{"A123456789012345678901234567890123456789012345678", true},  // 49 chars
		{"A1234567890123456789012345678901234567890123456789", false}, // 50 chars
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Validate(tt.in), "Validate(%q)", tt.in)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "PO-12A", Normalize("  po-12a "))
}

func TestGenerateMatchesValidation(t *testing.T) {
	got := Generate("BPI", "j1042")
	assert.Equal(t, "BPI-J1042", got)
	assert.True(t, Validate(got), "generated numbers must pass validation")
}

func TestResolvePrecedence(t *testing.T) {
	// Manual wins over extracted.
	got, err := Resolve("man-1", "ext-1", "BPI", "1042")
	require.NoError(t, err)
	assert.Equal(t, "MAN-1", got)

	// Extracted wins over generated.
	got, err = Resolve("", "ext-1", "BPI", "1042")
	require.NoError(t, err)
	assert.Equal(t, "EXT-1", got)

	// Invalid extracted falls through to generated.
	got, err = Resolve("", "!!", "BPI", "1042")
	require.NoError(t, err)
	assert.Equal(t, "BPI-1042", got)

	// No manual, no extracted: generated fallback.
	got, err = Resolve("", "", "BPI", "1042")
	require.NoError(t, err)
	assert.Equal(t, "BPI-1042", got)
}

func TestResolveRejectsBadManualNumber(t *testing.T) {
	_, err := Resolve("bad number!", "", "BPI", "1042")
	assert.ErrorIs(t, err, e.ErrValidation)
}
