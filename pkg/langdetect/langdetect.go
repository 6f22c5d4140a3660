// Package langdetect wraps lingua for best-effort language detection over a
// text sample. Detection failure is not an error; it returns an empty string.
package langdetect

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

// sampleLimit caps how much text is handed to the detector. The first 1000
// characters are plenty for a confident guess and keep detection cheap.
const sampleLimit = 1000

var (
	buildOnce sync.Once
	detector  lingua.LanguageDetector
)

// candidateLanguages keeps the model small. Building a detector over every
// language lingua knows costs hundreds of MB of ngram data.
var candidateLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Russian,
	lingua.Japanese,
	lingua.Chinese,
	lingua.Korean,
	lingua.Arabic,
}

func get() lingua.LanguageDetector {
	buildOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(candidateLanguages...).
			Build()
	})
	return detector
}

// Detect returns the ISO 639-1 code of the sample's language, or "" when the
// sample is empty or no language can be determined.
func Detect(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}
	if len(sample) > sampleLimit {
		cut := sampleLimit
		for cut > 0 && !utf8.RuneStart(sample[cut]) {
			cut--
		}
		sample = sample[:cut]
	}

	language, ok := get().DetectLanguageOf(sample)
	if !ok {
		return ""
	}
	return strings.ToLower(language.IsoCode639_1().String())
}
