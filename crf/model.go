package crf

import (
	"encoding/json"
	"fmt"
	"os"
)

// SaveModel serializes the model to JSON.
func SaveModel(model *Model, path string) error {
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadModel deserializes a model from JSON and validates its layout.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalModel(data)
}

// MarshalModel serializes the model to JSON bytes.
func MarshalModel(model *Model) ([]byte, error) {
	return json.Marshal(model)
}

// UnmarshalModel deserializes a model from JSON bytes and validates
// that the weight vector and frozen mask match the declared layout.
func UnmarshalModel(data []byte) (*Model, error) {
	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}
	if model.Labels == nil || model.Attributes == nil {
		return nil, fmt.Errorf("crf: model is missing alphabets")
	}
	if model.NumLabels != model.Labels.Size() {
		return nil, fmt.Errorf("crf: num_labels %d does not match label alphabet size %d", model.NumLabels, model.Labels.Size())
	}
	if len(model.Weights) != model.NumWeights() {
		return nil, fmt.Errorf("crf: %d weights for layout of %d", len(model.Weights), model.NumWeights())
	}
	if model.Frozen != nil && len(model.Frozen) != model.NumWeights() {
		return nil, fmt.Errorf("crf: frozen mask length %d does not match %d weights", len(model.Frozen), model.NumWeights())
	}
	return &model, nil
}
