package platform

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain title", "My Video", "My Video"},
		{"path separators", "a/b\\c", "a_b_c"},
		{"reserved characters", `x<y>z:"q"|?*`, "x_y_z__q____"},
		{"ampersand", "Tom & Jerry", "Tom and Jerry"},
		{"plus", "C++", "C_plus__plus_"},
		{"dropped symbols", "#1 100% $money @home!", "1 100 money home"},
		{"collapsed whitespace", "  lots   of\tspace \n", "lots of space"},
		{"empty", "", DefaultFilename},
		{"only symbols", "#$%@!", DefaultFilename},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilename_Truncates(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("a", 150))

	assert.Equal(t, MaxFilenameLength, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, TruncationMarker))

	wide := SanitizeFilename(strings.Repeat("ж", 150))
	assert.Equal(t, MaxFilenameLength, utf8.RuneCountInString(wide))
	assert.True(t, utf8.ValidString(wide))
}

func TestSanitizeFilename_Idempotent(t *testing.T) {
	inputs := []string{
		"Tom & Jerry # Episode 1",
		"a  #  b",
		strings.Repeat("word ", 40),
		"<<>>",
		"Rock + Roll: Live!",
	}

	for _, in := range inputs {
		once := SanitizeFilename(in)
		assert.Equal(t, once, SanitizeFilename(once), "input %q", in)
		assert.NotContains(t, once, "/")
		assert.NotContains(t, once, "  ")
		assert.LessOrEqual(t, utf8.RuneCountInString(once), MaxFilenameLength)
	}
}
