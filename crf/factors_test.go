package crf

import (
	"math"
	"testing"
)

func TestFactorsZero(t *testing.T) {
	m := newTestModel()
	f := NewFactors(m)
	for i := range f.Weights {
		f.Weights[i] = float64(i) + 0.5
	}
	f.Total = 42.0

	f.Zero()

	for i, w := range f.Weights {
		if w != 0 {
			t.Errorf("Weights[%d] = %v after Zero", i, w)
		}
	}
	if f.Total != 0 {
		t.Errorf("Total = %v after Zero", f.Total)
	}
	if len(f.Weights) != m.NumWeights() {
		t.Errorf("Zero changed layout: %d slots, want %d", len(f.Weights), m.NumWeights())
	}
}

func TestFactorsStructureMatches(t *testing.T) {
	m := newTestModel()
	a := NewFactors(m)
	b := NewFactors(m)
	if !a.StructureMatches(b) {
		t.Error("factors from the same model should match")
	}

	other := NewModel()
	other.Labels.Add("X")
	other.Labels.Add("Y")
	other.Labels.Add("Z")
	other.Attributes.Add("w0")
	other.NumLabels = 3
	c := NewFactors(other)
	if a.StructureMatches(c) {
		t.Error("factors from different models should not match")
	}
}

func TestPlusEqualsZeroScaleIsNoop(t *testing.T) {
	m := newTestModel()
	f := m.ParameterFactors()
	before := make([]float64, len(f.Weights))
	copy(before, f.Weights)

	g := NewFactors(m)
	for i := range g.Weights {
		g.Weights[i] = 7.0
	}

	f.PlusEquals(g, 0, false)

	for i := range before {
		if f.Weights[i] != before[i] {
			t.Errorf("slot %d changed: %v -> %v", i, before[i], f.Weights[i])
		}
	}
}

func TestPlusEqualsRespectsFrozen(t *testing.T) {
	m := newTestModel()
	m.FreezeStateFeature(0, 0) // slot 0
	m.FreezeTransFeature(1, 1) // last slot
	f := m.ParameterFactors()

	before := make([]float64, len(f.Weights))
	copy(before, f.Weights)

	g := NewFactors(m)
	for i := range g.Weights {
		g.Weights[i] = 1.0
	}

	const scale = 0.25
	f.PlusEquals(g, scale, true)

	frozen := map[int]bool{0: true, m.TransFeatureIndex(1, 1): true}
	for i := range f.Weights {
		if frozen[i] {
			if f.Weights[i] != before[i] {
				t.Errorf("frozen slot %d changed: %v -> %v", i, before[i], f.Weights[i])
			}
			continue
		}
		want := before[i] + scale*g.Weights[i]
		if math.Abs(f.Weights[i]-want) > 1e-12 {
			t.Errorf("slot %d = %v, want %v", i, f.Weights[i], want)
		}
	}
}

func TestPlusEqualsIgnoresMaskWhenDisabled(t *testing.T) {
	m := newTestModel()
	m.FreezeStateFeature(0, 0)
	f := m.ParameterFactors()
	before := f.Weights[0]

	g := NewFactors(m)
	g.Weights[0] = 2.0

	// Gradient arithmetic on scratch accumulators must not consult the
	// frozen mask; only the live-parameter step does.
	f.PlusEquals(g, 1.0, false)

	if f.Weights[0] != before+2.0 {
		t.Errorf("slot 0 = %v, want %v", f.Weights[0], before+2.0)
	}
}

func TestParameterFactorsSharesBacking(t *testing.T) {
	m := newTestModel()
	f := m.ParameterFactors()
	g := NewFactors(m)
	g.Weights[3] = 1.0

	f.PlusEquals(g, 2.0, false)

	if m.Weights[3] != 2.0+2.0 {
		t.Errorf("model weight = %v, want %v; view must share the model's slice", m.Weights[3], 4.0)
	}
}
