package crf

import "gonum.org/v1/gonum/floats"

// Factors is a weight vector mirroring a Model's parameter layout. The
// same type serves as the live model parameters and as the scratch
// accumulators (constraints, expectations) the trainer zeroes before
// every gradient step.
type Factors struct {
	NumLabels int
	NumAttrs  int
	Weights   []float64
	// Total accumulates the scalar total log-weight gathered during a
	// lattice evaluation.
	Total float64
	// Frozen is the frozen-slot mask, set only on the live parameters.
	Frozen []bool
}

// NewFactors allocates a zeroed Factors with the model's layout.
func NewFactors(m *Model) *Factors {
	return &Factors{
		NumLabels: m.NumLabels,
		NumAttrs:  m.Attributes.Size(),
		Weights:   make([]float64, m.NumWeights()),
	}
}

// ParameterFactors returns a Factors view over the model's live weights.
// The backing slice is shared: PlusEquals on the view mutates the model.
func (m *Model) ParameterFactors() *Factors {
	return &Factors{
		NumLabels: m.NumLabels,
		NumAttrs:  m.Attributes.Size(),
		Weights:   m.Weights,
		Frozen:    m.Frozen,
	}
}

func (f *Factors) transOffset() int {
	return f.NumAttrs * f.NumLabels
}

// Zero resets every weight slot and the total accumulator to 0. The
// slot layout is preserved; nothing is reallocated.
func (f *Factors) Zero() {
	for i := range f.Weights {
		f.Weights[i] = 0
	}
	f.Total = 0
}

// StructureMatches reports whether two Factors share the same layout:
// same label count, attribute count and weight dimensionality.
func (f *Factors) StructureMatches(o *Factors) bool {
	return f.NumLabels == o.NumLabels &&
		f.NumAttrs == o.NumAttrs &&
		len(f.Weights) == len(o.Weights)
}

// PlusEquals adds scale*other into f slot by slot, in place. When
// respectFrozen is set, slots marked frozen in f are left unchanged.
// The layouts must match; this is checked by the trainer up front.
func (f *Factors) PlusEquals(o *Factors, scale float64, respectFrozen bool) {
	if respectFrozen && f.Frozen != nil {
		for i, w := range o.Weights {
			if f.Frozen[i] {
				continue
			}
			f.Weights[i] += scale * w
		}
		return
	}
	floats.AddScaled(f.Weights, scale, o.Weights)
}

// Incrementor is a write-only view the lattice uses to accumulate
// expected feature counts into exactly one Factors.
type Incrementor struct {
	f *Factors
}

// Incrementor returns the write-only accumulation view for f.
func (f *Factors) Incrementor() Incrementor {
	return Incrementor{f: f}
}

// IncState adds v to the (attribute, label) state weight slot.
func (inc Incrementor) IncState(attrID, labelID int, v float64) {
	inc.f.Weights[attrID*inc.f.NumLabels+labelID] += v
}

// IncTrans adds v to the (from, to) transition weight slot.
func (inc Incrementor) IncTrans(fromLabelID, toLabelID int, v float64) {
	inc.f.Weights[inc.f.transOffset()+fromLabelID*inc.f.NumLabels+toLabelID] += v
}

// IncTotal adds v to the scalar total log-weight accumulator.
func (inc Incrementor) IncTotal(v float64) {
	inc.f.Total += v
}
