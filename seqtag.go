// Package seqtag trains and applies linear-chain CRF sequence taggers.
//
// Models are trained by stochastic gradient ascent from column-format
// corpus files (one "token<TAB>label" per line, blank line between
// sentences):
//
//	tagger, _ := seqtag.Train("data", nil)
//	labels, _ := tagger.Tag([]string{"The", "wind", "blows"})
//	fmt.Println(labels) // ["DET" "NOUN" "VERB"]
package seqtag

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/happyhackingspace/seqtag/crf"
	"github.com/happyhackingspace/seqtag/internal/features"
)

// Tagger wraps a trained CRF tagging model.
type Tagger struct {
	model *crf.Model
}

// New loads the tagger from "model.json", searching the current directory
// and parent directories up to the module root (where go.mod lives).
func New() (*Tagger, error) {
	path, err := findModel("model.json")
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}
	return Load(path)
}

func findModel(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		// Stop at module root
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%s not found", name)
}

// Load loads a trained tagger from a model file.
func Load(path string) (*Tagger, error) {
	model, err := crf.LoadModel(path)
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}
	return &Tagger{model: model}, nil
}

// Save writes the tagger to a model file.
func (t *Tagger) Save(path string) error {
	if t.model == nil {
		return fmt.Errorf("seqtag: tagger not initialized")
	}
	if err := crf.SaveModel(t.model, path); err != nil {
		return fmt.Errorf("seqtag: %w", err)
	}
	return nil
}

// Model returns the underlying CRF model.
func (t *Tagger) Model() *crf.Model {
	return t.model
}

// Tag labels the token sequence with the most likely label path.
func (t *Tagger) Tag(tokens []string) ([]string, error) {
	if t.model == nil {
		return nil, fmt.Errorf("seqtag: tagger not initialized")
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("seqtag: empty token sequence")
	}
	return t.model.Predict(features.Sequence(tokens)), nil
}

// TagProba returns per-token posterior label probabilities.
func (t *Tagger) TagProba(tokens []string) ([]map[string]float64, error) {
	if t.model == nil {
		return nil, fmt.Errorf("seqtag: tagger not initialized")
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("seqtag: empty token sequence")
	}
	return t.model.PredictMarginals(features.Sequence(tokens)), nil
}
