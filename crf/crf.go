// Package crf implements a linear-chain Conditional Random Field trained
// by stochastic gradient ascent on the conditional log-likelihood.
package crf

import "fmt"

// Alphabet maps between string labels/attributes and integer IDs.
type Alphabet struct {
	ToID  map[string]int `json:"to_id"`
	ToStr []string       `json:"to_str"`
}

// NewAlphabet creates an empty alphabet.
func NewAlphabet() *Alphabet {
	return &Alphabet{
		ToID: make(map[string]int),
	}
}

// Add adds a string to the alphabet if not already present, returns its ID.
func (a *Alphabet) Add(s string) int {
	if id, ok := a.ToID[s]; ok {
		return id
	}
	id := len(a.ToStr)
	a.ToID[s] = id
	a.ToStr = append(a.ToStr, s)
	return id
}

// Get returns the ID for a string, or -1 if not found.
func (a *Alphabet) Get(s string) int {
	if id, ok := a.ToID[s]; ok {
		return id
	}
	return -1
}

// Size returns the number of entries.
func (a *Alphabet) Size() int {
	return len(a.ToStr)
}

// Model holds the CRF structure and its parameters.
type Model struct {
	Labels     *Alphabet `json:"labels"`
	Attributes *Alphabet `json:"attributes"`
	Weights    []float64 `json:"weights"`
	NumLabels  int       `json:"num_labels"`
	// Frozen marks weight slots that updates must leave unchanged.
	// Empty means no slot is frozen.
	Frozen []bool `json:"frozen,omitempty"`
	// Weight layout: [state_features... | transition_features...]
	// State feature index: attrID * numLabels + labelID
	// Transition feature index: transOffset + fromLabelID * numLabels + toLabelID
}

// NewModel creates a new empty model.
func NewModel() *Model {
	return &Model{
		Labels:     NewAlphabet(),
		Attributes: NewAlphabet(),
	}
}

// TransOffset returns the offset where transition features start in the weight vector.
func (m *Model) TransOffset() int {
	return m.Attributes.Size() * m.NumLabels
}

// NumWeights returns the total number of weights.
func (m *Model) NumWeights() int {
	return m.TransOffset() + m.NumLabels*m.NumLabels
}

// StateFeatureIndex returns the weight index for a state feature.
func (m *Model) StateFeatureIndex(attrID, labelID int) int {
	return attrID*m.NumLabels + labelID
}

// TransFeatureIndex returns the weight index for a transition feature.
func (m *Model) TransFeatureIndex(fromLabelID, toLabelID int) int {
	return m.TransOffset() + fromLabelID*m.NumLabels + toLabelID
}

// FreezeStateFeature marks one (attribute, label) weight as frozen.
func (m *Model) FreezeStateFeature(attrID, labelID int) {
	m.freeze(m.StateFeatureIndex(attrID, labelID))
}

// FreezeTransFeature marks one (from, to) transition weight as frozen.
func (m *Model) FreezeTransFeature(fromLabelID, toLabelID int) {
	m.freeze(m.TransFeatureIndex(fromLabelID, toLabelID))
}

func (m *Model) freeze(idx int) {
	if m.Frozen == nil {
		m.Frozen = make([]bool, m.NumWeights())
	}
	m.Frozen[idx] = true
}

// FeatureValue is one active attribute at a sequence position.
type FeatureValue struct {
	Attr  int
	Value float64
}

// FeatureVector is the set of active attributes at one position.
type FeatureVector []FeatureValue

// Instance is a training sequence compiled against a model's alphabets:
// per-position feature vectors plus, for supervised use, the gold label
// IDs. Instances are read-only to the trainer.
type Instance struct {
	Features []FeatureVector
	Labels   []int // nil for unlabeled instances
}

// TrainingSequence represents a labeled sequence for training.
type TrainingSequence struct {
	Features []map[string]float64 // per-position feature dicts
	Labels   []string             // gold labels
	Group    int                  // for grouped cross-validation
}

// Compile converts a labeled sequence to an Instance, resolving attribute
// and label strings against the model alphabets. Attributes missing from
// the alphabet are dropped; an unknown label is an error.
func (m *Model) Compile(seq TrainingSequence) (Instance, error) {
	if len(seq.Labels) != len(seq.Features) {
		return Instance{}, fmt.Errorf("crf: %d labels for %d positions", len(seq.Labels), len(seq.Features))
	}
	inst := Instance{
		Features: m.CompileFeatures(seq.Features),
		Labels:   make([]int, len(seq.Labels)),
	}
	for t, label := range seq.Labels {
		id := m.Labels.Get(label)
		if id < 0 {
			return Instance{}, fmt.Errorf("crf: unknown label %q at position %d", label, t)
		}
		inst.Labels[t] = id
	}
	return inst, nil
}

// CompileFeatures converts per-position feature dicts to feature vectors,
// dropping attributes absent from the model alphabet.
func (m *Model) CompileFeatures(features []map[string]float64) []FeatureVector {
	out := make([]FeatureVector, len(features))
	for t, feats := range features {
		for attr, val := range feats {
			attrID := m.Attributes.Get(attr)
			if attrID >= 0 {
				out[t] = append(out[t], FeatureValue{Attr: attrID, Value: val})
			}
		}
	}
	return out
}

// ComputeStateScores computes state feature scores for each position and label.
// Returns [T][L] matrix where T is sequence length and L is number of labels.
func (m *Model) ComputeStateScores(features []map[string]float64) [][]float64 {
	return m.stateScores(m.CompileFeatures(features))
}

func (m *Model) stateScores(features []FeatureVector) [][]float64 {
	T := len(features)
	L := m.NumLabels
	scores := make([][]float64, T)
	for t := 0; t < T; t++ {
		scores[t] = make([]float64, L)
		for _, fv := range features[t] {
			for y := 0; y < L; y++ {
				idx := m.StateFeatureIndex(fv.Attr, y)
				if idx < len(m.Weights) {
					scores[t][y] += m.Weights[idx] * fv.Value
				}
			}
		}
	}
	return scores
}

// ComputeTransScores returns the [L][L] transition score matrix.
func (m *Model) ComputeTransScores() [][]float64 {
	L := m.NumLabels
	trans := make([][]float64, L)
	for i := 0; i < L; i++ {
		trans[i] = make([]float64, L)
		for j := 0; j < L; j++ {
			idx := m.TransFeatureIndex(i, j)
			if idx < len(m.Weights) {
				trans[i][j] = m.Weights[idx]
			}
		}
	}
	return trans
}
