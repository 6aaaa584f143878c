package textproc

import (
	"unicode"
	"unicode/utf8"
)

// SentenceBoundary returns the byte offset just past the last complete
// sentence in text: the position after a '.', '!' or '?' and any whitespace
// that follows it. Terminal punctuation at the very end of the string also
// counts. Returns 0 when no boundary exists, meaning nothing in the text is
// safe to commit yet.
//
// Punctuation followed directly by more text ("3.5") is not a boundary.
func SentenceBoundary(text string) int {
	boundary := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i + utf8.RuneLen(r)
		k := j
		for k < len(text) {
			r2, size := utf8.DecodeRuneInString(text[k:])
			if !unicode.IsSpace(r2) {
				break
			}
			k += size
		}
		if k == j && k < len(text) {
			continue
		}
		boundary = k
	}
	return boundary
}
