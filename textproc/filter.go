package textproc

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Clean removes decoder artifacts from transcribed text. Three conservative
// passes run in order: consecutive duplicate sentences, a trailing echo of
// the preceding words, and a trailing phrase loop. Each pass only touches
// trailing or duplicated structure; interior well-formed content is never
// altered, so a missed artifact is possible but deleted speech is not.
//
// Clean is idempotent: running it on already-cleaned text returns the text
// unchanged.
func Clean(text string) string {
	text = norm.NFC.String(text)
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = dropRepeatedSentences(text)
	text = dropTrailingEcho(text)
	text = collapseTrailingLoop(text)
	return strings.TrimSpace(text)
}

// splitSentences splits text on terminal punctuation, keeping the delimiter
// attached to the preceding sentence. Punctuation only ends a sentence when
// followed by whitespace or end-of-string, the same rule SentenceBoundary
// applies, so "3.5" and "v1.2.3" stay whole. A trailing fragment without
// terminal punctuation is kept as its own entry.
func splitSentences(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i + utf8.RuneLen(r)
		if j < len(s) {
			next, _ := utf8.DecodeRuneInString(s[j:])
			if !unicode.IsSpace(next) {
				continue
			}
		}
		out = append(out, s[start:j])
		start = j
	}
	if strings.TrimSpace(s[start:]) != "" {
		out = append(out, s[start:])
	}
	return out
}

// dropRepeatedSentences removes any sentence that exactly duplicates the
// immediately preceding kept sentence, ignoring case. When nothing is
// dropped the input is returned verbatim; only a deduplicated result is
// reassembled.
func dropRepeatedSentences(text string) string {
	sentences := splitSentences(text)
	if len(sentences) < 2 {
		return text
	}
	kept := sentences[:1]
	dropped := false
	for _, s := range sentences[1:] {
		prev := kept[len(kept)-1]
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(prev)) {
			dropped = true
			continue
		}
		kept = append(kept, s)
	}
	if !dropped {
		return text
	}
	var b strings.Builder
	for i, s := range kept {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.TrimSpace(s))
	}
	return b.String()
}

// minEchoWords is the shortest suffix considered an echo. Shorter repeats
// ("the the") are left to the phrase-loop pass, which has stricter rules.
const minEchoWords = 3

// dropTrailingEcho removes a trailing word sequence that exactly echoes the
// words immediately preceding it. The longest plausible echo (half the text)
// is tried first.
func dropTrailingEcho(text string) string {
	words := splitWords(text)
	for n := len(words) / 2; n >= minEchoWords; n-- {
		tail := words[len(words)-n:]
		prior := words[len(words)-2*n : len(words)-n]
		if wordsEqualFold(tail, prior) {
			return strings.TrimRight(text[:tail[0].start], " \t\r\n")
		}
	}
	return text
}

// collapseTrailingLoop collapses a phrase repeated contiguously at the end of
// the text to a single occurrence. Multi-word phrases collapse at 2
// repetitions; single words require 3, so intentional emphasis ("very very")
// survives.
func collapseTrailingLoop(text string) string {
	words := splitWords(text)
	for size := 1; size <= 4; size++ {
		if len(words) < size*2 {
			continue
		}
		phrase := words[len(words)-size:]
		reps := 1
		for {
			lo := len(words) - size*(reps+1)
			if lo < 0 {
				break
			}
			if !wordsEqualFold(words[lo:lo+size], phrase) {
				break
			}
			reps++
		}
		need := 2
		if size == 1 {
			need = 3
		}
		if reps >= need {
			cut := words[len(words)-size*(reps-1)].start
			return strings.TrimRight(text[:cut], " \t\r\n")
		}
	}
	return text
}
