// Package textproc implements the text analysis behind incremental
// dictation: sentence-boundary scanning, word-level prefix matching, and
// cleanup of decoder artifacts such as duplicated sentences and phrase loops.
package textproc

import (
	"strings"
	"unicode"
)

// wordSpan is a whitespace-delimited word together with its byte offsets in
// the source string, so callers can slice the original text instead of
// reassembling it.
type wordSpan struct {
	text  string
	start int
	end   int // one past the last byte of the word
}

// splitWords tokenizes s on runs of whitespace. Any whitespace run counts as
// a single separator, so tabs and double spaces in model output do not shift
// offsets.
func splitWords(s string) []wordSpan {
	var spans []wordSpan
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, wordSpan{text: s[start:i], start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, wordSpan{text: s[start:], start: start, end: len(s)})
	}
	return spans
}

// normalizeWord lowercases a word and strips leading/trailing punctuation so
// that "Hello," and "hello" compare equal.
func normalizeWord(w string) string {
	w = strings.TrimFunc(w, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return strings.ToLower(w)
}

// wordsEqualFold reports whether two word sequences are equal under
// normalizeWord comparison.
func wordsEqualFold(a, b []wordSpan) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if normalizeWord(a[i].text) != normalizeWord(b[i].text) {
			return false
		}
	}
	return true
}
