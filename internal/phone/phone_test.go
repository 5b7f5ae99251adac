package phone

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"+15551234567", true},
		{"+1234567", true},         // 7 digits, shortest allowed
		{"+123456789012345", true}, // 15 digits, longest allowed
		{"+123456", false},
		{"+1234567890123456", false},
		{"", false},
		{"+", false},
		{"15551234567", false},
		{"+1 555 123 4567", false},
		{"+1555-123-4567", false},
		{"++15551234567", false},
		{"+1555123456a", false},
		{"+１５５５１２３４５６７", false}, // fullwidth digits are not ASCII
		{" +15551234567", false},
		{"+12345", false}, // accepted by the older length>5 rule
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValid(tt.in), "IsValid(%q)", tt.in)
	}
}

func TestIsValidMatchesPattern(t *testing.T) {
	re := regexp.MustCompile(`^\+\d{7,15}$`)
	alphabet := []string{"+", "0", "5", "9", "a", " ", "-"}

	// Exhaustive over short strings plus digit runs around the length bounds.
	var inputs []string
	var gen func(prefix string, depth int)
	gen = func(prefix string, depth int) {
		inputs = append(inputs, prefix)
		if depth == 0 {
			return
		}
		for _, c := range alphabet {
			gen(prefix+c, depth-1)
		}
	}
	gen("", 3)
	for n := 0; n <= 18; n++ {
		digits := strings.Repeat("7", n)
		inputs = append(inputs, "+"+digits, digits, "+"+digits+"x", "x+"+digits)
	}

	for _, in := range inputs {
		assert.Equal(t, re.MatchString(in), IsValid(in), "IsValid(%q)", in)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw, region, want string
	}{
		{"+15551234567", "", "+15551234567"},
		{"+1 (650) 253-0000", "", "+16502530000"},
		{"(650) 253-0000", "US", "+16502530000"},
		{"650.253.0000", "us", "+16502530000"},
		{"+44 20 7946 0958", "US", "+442079460958"},
		{"+1+16502530000", "", "+16502530000"},
		{"  +16502530000 ", "", "+16502530000"},
	}

	for _, tt := range tests {
		got, err := Normalize(tt.raw, tt.region)
		require.NoError(t, err, "Normalize(%q, %q)", tt.raw, tt.region)
		assert.Equal(t, tt.want, got)
		assert.True(t, IsValid(got))
	}
}

func TestNormalizeRejects(t *testing.T) {
	for _, raw := range []string{"", "hello", "6502530000", "+"} {
		_, err := Normalize(raw, "")
		assert.ErrorIs(t, err, ErrInvalid, "Normalize(%q)", raw)
	}
}
