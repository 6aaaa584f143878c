package textproc

// PrefixMatch reports whether every word of committed matches, in order, the
// leading words of current. Words are compared case-insensitively with
// leading/trailing punctuation stripped, so "Hello," matches "hello".
//
// On success it returns the byte offset in current immediately after the last
// matched word, trailing whitespace excluded but trailing punctuation
// included. The punctuation is included deliberately: the remainder of
// current then starts at its own separator and can be appended to the
// committed text as-is. An offset that stopped before the punctuation
// would leave the matched word's "." in the remainder and double it on
// every boundary-terminated append. A failed or empty match returns 0: a
// single revised word anywhere in the committed region invalidates the
// whole match.
func PrefixMatch(committed, current string) int {
	cw := splitWords(committed)
	xw := splitWords(current)
	if len(cw) == 0 || len(cw) > len(xw) {
		return 0
	}
	for i := range cw {
		if normalizeWord(cw[i].text) != normalizeWord(xw[i].text) {
			return 0
		}
	}
	return xw[len(cw)-1].end
}
