package sanitizer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trim spaces", "  room 1  ", "room 1"},
		{"collapse inner whitespace", "room \t\n 1", "room 1"},
		{"empty", "", ""},
		{"only whitespace", " \t\n ", ""},
		{"unicode", " חדר ישיבות ", "חדר ישיבות"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrimAndNormalize(tt.input))
		})
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	assert.Equal(t, "alice", SanitizeIdentifier("  alice\n"))
	assert.Equal(t, "room\x001", SanitizeIdentifier("room\x001"), "control characters are kept for validation")
	assert.Equal(t, "", SanitizeIdentifier("   "))
}

func TestSanitizeNote(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "bring snacks", "bring snacks"},
		{"trimmed", "  bring snacks \n", "bring snacks"},
		{"keeps inner newlines", "line 1\nline 2", "line 1\nline 2"},
		{"drops control characters", "bell\x07 and null\x00", "bell and null"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeNote(tt.input))
		})
	}
}

func TestSanitizeNote_Truncates(t *testing.T) {
	long := strings.Repeat("é", MaxNoteLength+10)
	got := SanitizeNote(long)
	assert.Equal(t, MaxNoteLength, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}

func TestSanitizers_AreIdempotent(t *testing.T) {
	inputs := []string{"  a  b ", "x\x01y\n", strings.Repeat("ab ", 600)}
	for _, in := range inputs {
		once := SanitizeNote(in)
		assert.Equal(t, once, SanitizeNote(once))

		norm := TrimAndNormalize(in)
		assert.Equal(t, norm, TrimAndNormalize(norm))

		id := SanitizeIdentifier(in)
		assert.Equal(t, id, SanitizeIdentifier(id))
	}
}
