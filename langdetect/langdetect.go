// Package langdetect identifies the language of finished transcripts. The
// result feeds back into the next session as a decoding hint, which beats
// re-running auto-detection on every short utterance.
package langdetect

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// The model set is restricted to languages Whisper handles well; a smaller
// candidate pool also makes lingua considerably more accurate on short text.
var candidates = []lingua.Language{
	lingua.English,
	lingua.German,
	lingua.French,
	lingua.Spanish,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Russian,
	lingua.Japanese,
	lingua.Korean,
	lingua.Chinese,
}

var (
	once     sync.Once
	detector lingua.LanguageDetector
)

// Detect returns the ISO 639-1 code for the text's language, lowercase.
// ok is false when the text is too short or ambiguous to classify. The
// underlying models load lazily on first call.
func Detect(text string) (code string, ok bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	once.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(candidates...).
			Build()
	})

	lang, found := detector.DetectLanguageOf(text)
	if !found {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
