package command

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

// phoneticCode returns the Double Metaphone primary code for one word.
// Words the coder cannot encode (digits, symbols) fall back to their
// uppercased letters so exact restatements still compare equal.
func phoneticCode(word string) string {
	primary, _ := matchr.DoubleMetaphone(word)
	if primary != "" {
		return primary
	}
	return strings.ToUpper(strings.TrimFunc(word, unicode.IsPunct))
}

// phoneticCodes maps every whitespace-separated word of a phrase to its code.
func phoneticCodes(phrase string) []string {
	fields := strings.Fields(phrase)
	codes := make([]string, 0, len(fields))
	for _, field := range fields {
		codes = append(codes, phoneticCode(field))
	}
	return codes
}

// metaphoneLength is Double Metaphone's output truncation length.
const metaphoneLength = 4

// codesEqual compares two phonetic codes. A code that reached the coder's
// truncation length may have lost its tail, so it equals any code it
// prefixes; a shorter code was emitted whole and must match exactly,
// otherwise a two-letter fragment like TR would swallow everything starting
// with it.
func codesEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	return len(shorter) == metaphoneLength && strings.HasPrefix(longer, shorter)
}
