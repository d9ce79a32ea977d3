package crf

import (
	"fmt"
	"math"
)

// latticeTables holds the scaled forward-backward tables for one sequence.
// Scaling keeps the sums in linear space without underflowing on long
// sequences; the log partition function is recovered from the scale
// factors.
type latticeTables struct {
	expState [][]float64 // [T][L] exp state scores, masked in constrained mode
	expTrans [][]float64 // [L][L] exp transition scores
	alpha    [][]float64 // [T][L] scaled forward variables
	beta     [][]float64 // [T][L] scaled backward variables
	scale    []float64   // [T] scaling factors
	logZ     float64
}

// runLattice fills the forward-backward tables. A non-nil labels slice
// constrains position t to the single label labels[t]; all other states
// get zero mass and the log total collapses to the fixed path's score.
func runLattice(stateScores, transScores [][]float64, labels []int) latticeTables {
	T := len(stateScores)
	L := len(stateScores[0])

	expState := make([][]float64, T)
	for t := 0; t < T; t++ {
		expState[t] = make([]float64, L)
		for y := 0; y < L; y++ {
			if labels != nil && labels[t] != y {
				continue
			}
			expState[t][y] = math.Exp(stateScores[t][y])
		}
	}

	expTrans := make([][]float64, L)
	for i := 0; i < L; i++ {
		expTrans[i] = make([]float64, L)
		for j := 0; j < L; j++ {
			expTrans[i][j] = math.Exp(transScores[i][j])
		}
	}

	// Forward pass with scaling
	alpha := make([][]float64, T)
	scale := make([]float64, T)

	// t = 0
	alpha[0] = make([]float64, L)
	var sum float64
	for y := 0; y < L; y++ {
		alpha[0][y] = expState[0][y]
		sum += alpha[0][y]
	}
	if sum == 0 {
		scale[0] = 1.0
	} else {
		scale[0] = 1.0 / sum
	}
	for y := 0; y < L; y++ {
		alpha[0][y] *= scale[0]
	}

	// t = 1..T-1
	for t := 1; t < T; t++ {
		alpha[t] = make([]float64, L)
		sum = 0
		for y := 0; y < L; y++ {
			var s float64
			for yp := 0; yp < L; yp++ {
				s += alpha[t-1][yp] * expTrans[yp][y]
			}
			alpha[t][y] = s * expState[t][y]
			sum += alpha[t][y]
		}
		if sum == 0 {
			scale[t] = 1.0
		} else {
			scale[t] = 1.0 / sum
		}
		for y := 0; y < L; y++ {
			alpha[t][y] *= scale[t]
		}
	}

	// Backward pass with the same scale factors
	beta := make([][]float64, T)

	// t = T-1
	beta[T-1] = make([]float64, L)
	for y := 0; y < L; y++ {
		beta[T-1][y] = scale[T-1]
	}

	// t = T-2..0
	for t := T - 2; t >= 0; t-- {
		beta[t] = make([]float64, L)
		for y := 0; y < L; y++ {
			var s float64
			for yn := 0; yn < L; yn++ {
				s += expTrans[y][yn] * expState[t+1][yn] * beta[t+1][yn]
			}
			beta[t][y] = s * scale[t]
		}
	}

	// logZ = -sum(log(scale_factors))
	logZ := 0.0
	for t := 0; t < T; t++ {
		logZ -= math.Log(scale[t])
	}

	return latticeTables{
		expState: expState,
		expTrans: expTrans,
		alpha:    alpha,
		beta:     beta,
		scale:    scale,
		logZ:     logZ,
	}
}

// stateMarginals returns the [T][L] posterior P(y_t=j|x).
func (lt *latticeTables) stateMarginals() [][]float64 {
	T := len(lt.alpha)
	L := len(lt.alpha[0])
	marginals := make([][]float64, T)
	for t := 0; t < T; t++ {
		marginals[t] = make([]float64, L)
		for y := 0; y < L; y++ {
			marginals[t][y] = lt.alpha[t][y] * lt.beta[t][y] / lt.scale[t]
		}
	}
	return marginals
}

// SumLattice runs forward-backward over one sequence and accumulates the
// expected feature counts into inc. With labels == nil all label paths
// are summed and the returned value is the log partition function. With
// a full label sequence the path is fixed: marginals collapse to 0/1,
// the accumulator receives the empirical feature counts, and the
// returned value is the log-score of that exact path.
//
// The model parameters are read-only during evaluation; writing into
// inc is the only side effect. The caller owns zeroing the accumulator.
func SumLattice(m *Model, features []FeatureVector, labels []int, inc Incrementor) (float64, error) {
	T := len(features)
	if T == 0 {
		return 0, fmt.Errorf("crf: empty sequence")
	}
	if labels != nil && len(labels) != T {
		return 0, fmt.Errorf("crf: %d fixed labels for %d positions", len(labels), T)
	}
	L := m.NumLabels
	if inc.f == nil || inc.f.NumLabels != L || len(inc.f.Weights) != m.NumWeights() {
		return 0, fmt.Errorf("crf: accumulator layout does not match model")
	}
	numAttrs := m.Attributes.Size()
	for t, fvs := range features {
		for _, fv := range fvs {
			if fv.Attr < 0 || fv.Attr >= numAttrs {
				return 0, fmt.Errorf("crf: attribute %d out of range at position %d", fv.Attr, t)
			}
		}
	}
	for t, y := range labels {
		if y < 0 || y >= L {
			return 0, fmt.Errorf("crf: label %d out of range at position %d", y, t)
		}
	}

	lt := runLattice(m.stateScores(features), m.ComputeTransScores(), labels)

	// State feature expectations: marginal * feature value
	for t := 0; t < T; t++ {
		for y := 0; y < L; y++ {
			marg := lt.alpha[t][y] * lt.beta[t][y] / lt.scale[t]
			if marg == 0 {
				continue
			}
			for _, fv := range features[t] {
				inc.IncState(fv.Attr, y, marg*fv.Value)
			}
		}
	}

	// Transition expectations: P(y_t=i, y_{t+1}=j | x)
	for t := 0; t < T-1; t++ {
		for i := 0; i < L; i++ {
			if lt.alpha[t][i] == 0 {
				continue
			}
			for j := 0; j < L; j++ {
				p := lt.alpha[t][i] * lt.expTrans[i][j] * lt.expState[t+1][j] * lt.beta[t+1][j]
				if p != 0 {
					inc.IncTrans(i, j, p)
				}
			}
		}
	}

	inc.IncTotal(lt.logZ)
	return lt.logZ, nil
}
