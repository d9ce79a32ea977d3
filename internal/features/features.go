// Package features extracts per-token feature dicts for sequence tagging.
package features

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/happyhackingspace/seqtag/crf"
	"github.com/happyhackingspace/seqtag/internal/textutil"
)

// Token extracts features for the token at position i of the sentence:
// the lowercased word, short affixes, orthographic flags, a digit-shape
// pattern, and the neighbouring words.
func Token(tokens []string, i int) map[string]any {
	word := tokens[i]
	lower := textutil.Normalize(word)

	feat := map[string]any{
		"bias":     true,
		"word":     lower,
		"prefixes": affixes(lower, true),
		"suffixes": affixes(lower, false),
	}

	if utf8.RuneCountInString(lower) > 4 {
		feat["char-ngrams"] = textutil.Ngrams(lower, 3, 3)
	}

	if isUpper(word) {
		feat["all-caps"] = true
	}
	if len(word) > 0 && unicode.IsUpper([]rune(word)[0]) {
		feat["title-case"] = true
	}
	if strings.ContainsRune(word, '-') {
		feat["has-hyphen"] = true
	}
	if isDigits(word) {
		feat["all-digits"] = true
	}
	if pattern := textutil.NumberPattern(word, 0.3); pattern != "" {
		feat["num-pattern"] = pattern
	}

	if i == 0 {
		feat["bos"] = true
	} else {
		feat["prev-word"] = textutil.Normalize(tokens[i-1])
	}
	if i == len(tokens)-1 {
		feat["eos"] = true
	} else {
		feat["next-word"] = textutil.Normalize(tokens[i+1])
	}

	return feat
}

// Sequence extracts attribute dicts for every token of the sentence,
// ready for use as crf.TrainingSequence features.
func Sequence(tokens []string) []map[string]float64 {
	out := make([]map[string]float64, len(tokens))
	for i := range tokens {
		out[i] = crf.FeaturesToAttributes(Token(tokens, i))
	}
	return out
}

// affixes returns the 1..3-rune prefixes or suffixes of the word.
func affixes(word string, prefix bool) []string {
	runes := []rune(word)
	var out []string
	for n := 1; n <= 3 && n <= len(runes); n++ {
		if prefix {
			out = append(out, string(runes[:n]))
		} else {
			out = append(out, string(runes[len(runes)-n:]))
		}
	}
	return out
}

func isUpper(word string) bool {
	hasLetter := false
	for _, r := range word {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func isDigits(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
