package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// MaxNoteLength caps a note in runes.
const MaxNoteLength = 1024

func dropControl(keepNewlines bool) Strategy {
	return func(s string) string {
		return strings.Map(func(r rune) rune {
			if keepNewlines && (r == '\n' || r == '\t') {
				return r
			}
			if unicode.IsControl(r) {
				return -1
			}
			return r
		}, s)
	}
}

func truncate(limit int) Strategy {
	return func(s string) string {
		if len(s) <= limit {
			return s
		}
		runes := []rune(s)
		if len(runes) <= limit {
			return s
		}
		return strings.TrimSpace(string(runes[:limit]))
	}
}

// TrimAndNormalize trims s and collapses every run of whitespace to one space.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SanitizeIdentifier trims a user or resource id. Control characters are left
// in place so that validation can reject them.
func SanitizeIdentifier(id string) string {
	return strings.TrimSpace(id)
}

// SanitizeNote strips control characters other than newlines and tabs, trims
// the result and caps it at MaxNoteLength runes.
func SanitizeNote(note string) string {
	p := Pipeline{
		dropControl(true),
		strings.TrimSpace,
		truncate(MaxNoteLength),
	}
	return p.Apply(note)
}
