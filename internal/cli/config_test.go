package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/happyhackingspace/seqtag"
)

func TestApplyConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.yaml")
	content := `learning_rate: 0.05
max_iterations: 42
search_rate: false
seed: 7
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := seqtag.DefaultTrainConfig()
	if err := applyConfigFile(path, cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.LearningRate != 0.05 {
		t.Errorf("LearningRate = %v, want 0.05", cfg.LearningRate)
	}
	if cfg.MaxIterations != 42 {
		t.Errorf("MaxIterations = %d, want 42", cfg.MaxIterations)
	}
	if cfg.SearchRate {
		t.Error("SearchRate = true, want false")
	}
	if cfg.Seed != 7 {
		t.Errorf("Seed = %d, want 7", cfg.Seed)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Epsilon != 1e-3 {
		t.Errorf("Epsilon = %v, want 1e-3", cfg.Epsilon)
	}
	if cfg.SearchSampleSize != 100 {
		t.Errorf("SearchSampleSize = %d, want 100", cfg.SearchSampleSize)
	}
}

func TestApplyConfigFileErrors(t *testing.T) {
	cfg := seqtag.DefaultTrainConfig()
	if err := applyConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), cfg); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("learning_rate: [not a number"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := applyConfigFile(path, cfg); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
