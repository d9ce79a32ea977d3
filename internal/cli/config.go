package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/happyhackingspace/seqtag"
)

// fileConfig is the YAML training-config file format. Absent fields
// keep their current values.
type fileConfig struct {
	LearningRate     *float64 `yaml:"learning_rate"`
	MaxIterations    *int     `yaml:"max_iterations"`
	Epsilon          *float64 `yaml:"epsilon"`
	SearchRate       *bool    `yaml:"search_rate"`
	SearchSampleSize *int     `yaml:"search_sample_size"`
	Seed             *int64   `yaml:"seed"`
}

// applyConfigFile overlays the YAML file at path onto cfg.
func applyConfigFile(path string, cfg *seqtag.TrainConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.LearningRate != nil {
		cfg.LearningRate = *fc.LearningRate
	}
	if fc.MaxIterations != nil {
		cfg.MaxIterations = *fc.MaxIterations
	}
	if fc.Epsilon != nil {
		cfg.Epsilon = *fc.Epsilon
	}
	if fc.SearchRate != nil {
		cfg.SearchRate = *fc.SearchRate
	}
	if fc.SearchSampleSize != nil {
		cfg.SearchSampleSize = *fc.SearchSampleSize
	}
	if fc.Seed != nil {
		cfg.Seed = *fc.Seed
	}
	return nil
}
