package features

import (
	"reflect"
	"testing"
)

func TestToken(t *testing.T) {
	tokens := []string{"The", "IBM-360", "arrived", "in", "1965"}

	feat := Token(tokens, 0)
	if feat["word"] != "the" {
		t.Errorf("word = %v, want the", feat["word"])
	}
	if feat["bos"] != true {
		t.Error("expected bos on first token")
	}
	if feat["title-case"] != true {
		t.Error("expected title-case for The")
	}
	if feat["next-word"] != "ibm-360" {
		t.Errorf("next-word = %v", feat["next-word"])
	}
	if _, ok := feat["prev-word"]; ok {
		t.Error("first token should not have prev-word")
	}

	feat = Token(tokens, 1)
	if feat["has-hyphen"] != true {
		t.Error("expected has-hyphen for IBM-360")
	}
	if feat["num-pattern"] != "CCC-XXX" {
		t.Errorf("num-pattern = %v, want CCC-XXX", feat["num-pattern"])
	}

	feat = Token(tokens, 2)
	grams, ok := feat["char-ngrams"].([]string)
	if !ok || len(grams) != 5 || grams[0] != "arr" {
		t.Errorf("char-ngrams = %v, want 5 trigrams starting with arr", feat["char-ngrams"])
	}
	if _, ok := Token(tokens, 3)["char-ngrams"]; ok {
		t.Error("short word should not get char-ngrams")
	}

	feat = Token(tokens, 4)
	if feat["all-digits"] != true {
		t.Error("expected all-digits for 1965")
	}
	if feat["eos"] != true {
		t.Error("expected eos on last token")
	}
	if feat["prev-word"] != "in" {
		t.Errorf("prev-word = %v, want in", feat["prev-word"])
	}
}

func TestAffixes(t *testing.T) {
	tests := []struct {
		word   string
		prefix bool
		want   []string
	}{
		{"walking", false, []string{"g", "ng", "ing"}},
		{"walking", true, []string{"w", "wa", "wal"}},
		{"at", false, []string{"t", "at"}},
		{"", true, nil},
	}
	for _, tt := range tests {
		got := affixes(tt.word, tt.prefix)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("affixes(%q, %v) = %v, want %v", tt.word, tt.prefix, got, tt.want)
		}
	}
}

func TestSequence(t *testing.T) {
	attrs := Sequence([]string{"Dogs", "bark"})
	if len(attrs) != 2 {
		t.Fatalf("got %d positions, want 2", len(attrs))
	}
	if attrs[0]["word=dogs"] != 1.0 {
		t.Error("expected word=dogs attribute")
	}
	if attrs[0]["suffixes:gs"] != 1.0 {
		t.Error("expected suffixes:gs attribute")
	}
	if attrs[1]["prev-word=dogs"] != 1.0 {
		t.Error("expected prev-word=dogs attribute")
	}
	if attrs[0]["bias"] != 1.0 {
		t.Error("expected bias attribute")
	}
}
