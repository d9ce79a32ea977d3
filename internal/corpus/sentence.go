// Package corpus provides access to labeled token sequences for sequence
// tagger training.
package corpus

// Sentence is one labeled training sequence: parallel token and label
// slices plus the source document it came from.
type Sentence struct {
	Tokens []string
	Labels []string
	Doc    string // source file name, used for grouped cross-validation
}

// Stats summarizes a corpus.
type Stats struct {
	Sentences   int
	Tokens      int
	Documents   int
	LabelCounts map[string]int
}

// Summarize computes corpus statistics over the given sentences.
func Summarize(sentences []Sentence) Stats {
	stats := Stats{LabelCounts: make(map[string]int)}
	docs := make(map[string]bool)
	for _, sent := range sentences {
		stats.Sentences++
		stats.Tokens += len(sent.Tokens)
		docs[sent.Doc] = true
		for _, label := range sent.Labels {
			stats.LabelCounts[label]++
		}
	}
	stats.Documents = len(docs)
	return stats
}
