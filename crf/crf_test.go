package crf

import (
	"math"
	"math/rand"
	"testing"
)

func TestAlphabet(t *testing.T) {
	a := NewAlphabet()
	id0 := a.Add("hello")
	id1 := a.Add("world")
	id2 := a.Add("hello") // duplicate

	if id0 != 0 || id1 != 1 || id2 != 0 {
		t.Errorf("IDs: %d, %d, %d; want 0, 1, 0", id0, id1, id2)
	}
	if a.Size() != 2 {
		t.Errorf("Size = %d, want 2", a.Size())
	}
	if a.Get("missing") != -1 {
		t.Error("Get missing should return -1")
	}
}

func TestFeaturesToAttributes(t *testing.T) {
	features := map[string]any{
		"word":     "walk",
		"suffixes": []string{"k", "lk"},
		"is-first": true,
		"is-last":  false,
		"bias":     1,
		"word-len": 4.0,
	}
	attrs := FeaturesToAttributes(features)

	if attrs["word=walk"] != 1.0 {
		t.Error("expected word=walk")
	}
	if attrs["suffixes:k"] != 1.0 {
		t.Error("expected suffixes:k")
	}
	if attrs["suffixes:lk"] != 1.0 {
		t.Error("expected suffixes:lk")
	}
	if attrs["is-first"] != 1.0 {
		t.Error("expected is-first=1.0")
	}
	if _, ok := attrs["is-last"]; ok {
		t.Error("is-last=false should not be in attrs")
	}
	if attrs["bias"] != 1.0 {
		t.Error("expected bias=1.0")
	}
	if attrs["word-len"] != 4.0 {
		t.Error("expected word-len=4.0")
	}
}

func TestCompile(t *testing.T) {
	m := newTestModel()

	seq := TrainingSequence{
		Features: []map[string]float64{{"w0": 1.0, "unseen": 1.0}, {"w1": 2.0}},
		Labels:   []string{"A", "B"},
	}
	inst, err := m.Compile(seq)
	if err != nil {
		t.Fatal(err)
	}
	if len(inst.Features[0]) != 1 {
		t.Errorf("unseen attribute not dropped: %v", inst.Features[0])
	}
	if inst.Labels[0] != 0 || inst.Labels[1] != 1 {
		t.Errorf("labels = %v, want [0 1]", inst.Labels)
	}

	seq.Labels = []string{"A", "C"}
	if _, err := m.Compile(seq); err == nil {
		t.Error("expected error for unknown label")
	}

	seq.Labels = []string{"A"}
	if _, err := m.Compile(seq); err == nil {
		t.Error("expected error for label length mismatch")
	}
}

func TestViterbiSimple(t *testing.T) {
	// 2 positions, 2 labels
	stateScores := [][]float64{
		{1.0, 0.5},
		{0.3, 2.0},
	}
	transScores := [][]float64{
		{0.1, 0.2},
		{0.3, 0.1},
	}

	path, score := Viterbi(stateScores, transScores)
	if len(path) != 2 {
		t.Fatalf("path length = %d, want 2", len(path))
	}

	// Verify: best path should be [0, 1]
	// Score: 1.0 + 0.2 + 2.0 = 3.2
	// vs [0,0]: 1.0 + 0.1 + 0.3 = 1.4
	// vs [1,0]: 0.5 + 0.3 + 0.3 = 1.1
	// vs [1,1]: 0.5 + 0.1 + 2.0 = 2.6
	if path[0] != 0 || path[1] != 1 {
		t.Errorf("path = %v, want [0, 1]", path)
	}
	if math.Abs(score-3.2) > 1e-10 {
		t.Errorf("score = %v, want 3.2", score)
	}
}

func TestPredictMarginals(t *testing.T) {
	m := newTestModel()
	features := []map[string]float64{{"w0": 1.0}, {"w1": 1.0}}

	marginals := m.PredictMarginals(features)
	if len(marginals) != 2 {
		t.Fatalf("marginals length = %d, want 2", len(marginals))
	}
	for pos, marg := range marginals {
		sum := marg["A"] + marg["B"]
		if math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("marginals at pos=%d sum to %v, want 1.0", pos, sum)
		}
	}
	// Position 1 strongly prefers B (state weight 2.0 vs 0.3).
	if marginals[1]["B"] <= marginals[1]["A"] {
		t.Errorf("pos 1: P(B)=%v not greater than P(A)=%v", marginals[1]["B"], marginals[1]["A"])
	}
}

func TestTrainSimple(t *testing.T) {
	// Simple toy training: predict A->B or B->A
	sequences := []TrainingSequence{
		{
			Features: []map[string]float64{
				{"word=hello": 1.0, "bias": 1.0},
				{"word=world": 1.0, "bias": 1.0},
			},
			Labels: []string{"A", "B"},
		},
		{
			Features: []map[string]float64{
				{"word=world": 1.0, "bias": 1.0},
				{"word=hello": 1.0, "bias": 1.0},
			},
			Labels: []string{"B", "A"},
		},
	}

	model := BuildModel(sequences)
	instances, err := model.CompileAll(sequences)
	if err != nil {
		t.Fatal(err)
	}

	trainer := NewTrainer(model, 0.5)
	trainer.SetRand(rand.New(rand.NewSource(42)))
	if _, err := trainer.Train(instances, 50); err != nil {
		t.Fatal(err)
	}

	// Model should predict correctly on training data
	pred := model.Predict(sequences[0].Features)
	if len(pred) != 2 {
		t.Fatalf("prediction length = %d, want 2", len(pred))
	}
	if pred[0] != "A" || pred[1] != "B" {
		t.Errorf("prediction %v, want [A B]", pred)
	}
	pred = model.Predict(sequences[1].Features)
	if pred[0] != "B" || pred[1] != "A" {
		t.Errorf("prediction %v, want [B A]", pred)
	}
}

func TestModelSaveLoad(t *testing.T) {
	model := NewModel()
	model.Labels.Add("A")
	model.Labels.Add("B")
	model.Attributes.Add("bias")
	model.NumLabels = 2
	model.Weights = []float64{1.0, -0.5, 0.3, 0.1, 0.2, -0.1}
	model.Frozen = make([]bool, 6)
	model.Frozen[2] = true

	data, err := MarshalModel(model)
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := UnmarshalModel(data)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.NumLabels != model.NumLabels {
		t.Errorf("NumLabels mismatch: %d vs %d", loaded.NumLabels, model.NumLabels)
	}
	if len(loaded.Weights) != len(model.Weights) {
		t.Errorf("Weights length mismatch: %d vs %d", len(loaded.Weights), len(model.Weights))
	}
	for i := range model.Weights {
		if loaded.Weights[i] != model.Weights[i] {
			t.Errorf("Weight[%d] mismatch: %v vs %v", i, loaded.Weights[i], model.Weights[i])
		}
	}
	if !loaded.Frozen[2] {
		t.Error("frozen mask not round-tripped")
	}
}

func TestUnmarshalModelRejectsBadLayout(t *testing.T) {
	model := NewModel()
	model.Labels.Add("A")
	model.Labels.Add("B")
	model.Attributes.Add("bias")
	model.NumLabels = 2
	model.Weights = []float64{1.0, 2.0} // layout needs 6

	data, err := MarshalModel(model)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := UnmarshalModel(data); err == nil {
		t.Error("expected error for truncated weight vector")
	}
}
