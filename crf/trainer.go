package crf

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// EpochEvaluator observes the trainer after each completed training
// epoch. Evaluators are purely observational; their return value, if
// any, is not consumed.
type EpochEvaluator func(t *Trainer)

// Trainer estimates CRF parameters by stochastic gradient ascent on the
// conditional log-likelihood: one instance at a time, stepping the live
// parameters by rate * (empirical - expected feature counts) under the
// decaying schedule rate = 1/(lambda*t). Most effective on large
// training sets.
type Trainer struct {
	model      *Model
	parameters *Factors // live view over model.Weights

	constraints  *Factors
	expectations *Factors

	learningRate float64
	// t is the virtual time of the decay schedule; it grows by one per
	// instance update and is never reset within a session. lambda is
	// 1/|trainingSet|.
	t, lambda float64

	iterationCount int
	converged      bool

	// Epsilon is the absolute epoch-to-epoch log-likelihood change
	// below which training is considered converged.
	Epsilon float64

	rng        *rand.Rand
	evaluators []EpochEvaluator
}

// NewTrainer creates a stochastic-gradient trainer for the model with
// the given initial learning rate. The model's alphabets must be final:
// the accumulators are sized once, here.
func NewTrainer(m *Model, learningRate float64) *Trainer {
	if m.Weights == nil {
		m.Weights = make([]float64, m.NumWeights())
	}
	return &Trainer{
		model:        m,
		parameters:   m.ParameterFactors(),
		constraints:  NewFactors(m),
		expectations: NewFactors(m),
		learningRate: learningRate,
		Epsilon:      1e-3,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the random source used for epoch shuffling. Fix the
// seed for reproducible training runs.
func (tr *Trainer) SetRand(rng *rand.Rand) {
	tr.rng = rng
}

// AddEvaluator registers a per-epoch evaluator hook.
func (tr *Trainer) AddEvaluator(e EpochEvaluator) {
	tr.evaluators = append(tr.evaluators, e)
}

// Model returns the model being trained.
func (tr *Trainer) Model() *Model {
	return tr.model
}

// Iteration returns the number of completed training epochs across the
// trainer's lifetime.
func (tr *Trainer) Iteration() int {
	return tr.iterationCount
}

// IsConverged reports whether the last Train call detected convergence.
func (tr *Trainer) IsConverged() bool {
	return tr.converged
}

// LearningRate returns the current learning rate.
func (tr *Trainer) LearningRate() float64 {
	return tr.learningRate
}

// SetLearningRate sets the learning rate used to seed the decay schedule.
func (tr *Trainer) SetLearningRate(r float64) {
	tr.learningRate = r
}

func (tr *Trainer) checkStructure() error {
	if !tr.constraints.StructureMatches(tr.parameters) ||
		!tr.expectations.StructureMatches(tr.parameters) {
		return fmt.Errorf("crf: accumulator structure does not match model parameters")
	}
	return nil
}

// Train runs up to numIterations epochs of stochastic gradient over the
// training set, shuffling the instance order afresh each epoch. It
// returns whether the epoch log-likelihood converged (absolute change
// below Epsilon) before the iteration budget ran out.
func (tr *Trainer) Train(trainingSet []Instance, numIterations int) (bool, error) {
	if err := tr.checkStructure(); err != nil {
		return false, err
	}
	if len(trainingSet) == 0 {
		return false, fmt.Errorf("crf: empty training set")
	}
	tr.lambda = 1.0 / float64(len(trainingSet))
	tr.t = 1.0 / (tr.lambda * tr.learningRate)
	tr.converged = false

	indices := make([]int, len(trainingSet))
	for i := range indices {
		indices[i] = i
	}

	oldLoglik := math.Inf(-1)
	for ; numIterations > 0; numIterations-- {
		tr.iterationCount++

		tr.rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		loglik := 0.0
		for _, idx := range indices {
			tr.learningRate = 1.0 / (tr.lambda * tr.t)
			v, err := tr.trainSingle(trainingSet[idx], tr.learningRate)
			if err != nil {
				return false, err
			}
			loglik += v
			tr.t += 1.0
		}

		slog.Debug("CRF training epoch", "iteration", tr.iterationCount, "loglikelihood", loglik)

		if math.IsNaN(loglik) || math.IsInf(loglik, 0) {
			return false, fmt.Errorf("crf: log-likelihood diverged at iteration %d (%v); lower the learning rate", tr.iterationCount, loglik)
		}

		if math.Abs(loglik-oldLoglik) < tr.Epsilon {
			tr.converged = true
			break
		}
		oldLoglik = loglik

		for _, eval := range tr.evaluators {
			eval(tr)
		}
	}

	return tr.converged, nil
}

// TrainIncremental runs exactly one epoch over the batch. A single
// epoch is no evidence of convergence, so it always reports false;
// streaming callers manage their own stopping criterion.
func (tr *Trainer) TrainIncremental(trainingSet []Instance) (bool, error) {
	if _, err := tr.Train(trainingSet, 1); err != nil {
		return false, err
	}
	return false, nil
}

// TrainIncrementalSingle applies one gradient step for one instance at
// the current learning rate. Always reports not converged.
func (tr *Trainer) TrainIncrementalSingle(inst Instance) (bool, error) {
	if err := tr.checkStructure(); err != nil {
		return false, err
	}
	if _, err := tr.trainSingle(inst, tr.learningRate); err != nil {
		return false, err
	}
	return false, nil
}

// trainSingle performs one stochastic gradient step: empirical feature
// counts from the constrained lattice, expected counts from the free
// lattice, gradient = constraints - expectations, parameters +=
// rate * gradient (frozen slots excluded). Returns the instance's
// log-likelihood contribution.
func (tr *Trainer) trainSingle(inst Instance, rate float64) (float64, error) {
	if inst.Labels == nil {
		return 0, fmt.Errorf("crf: unlabeled instance in supervised training")
	}
	tr.constraints.Zero()
	tr.expectations.Zero()

	constrained, err := SumLattice(tr.model, inst.Features, inst.Labels, tr.constraints.Incrementor())
	if err != nil {
		return 0, err
	}
	free, err := SumLattice(tr.model, inst.Features, nil, tr.expectations.Incrementor())
	if err != nil {
		return 0, err
	}

	// Gradient direction: constraints - expectations
	tr.constraints.PlusEquals(tr.expectations, -1, false)
	// Step the live parameters, obeying the frozen mask
	tr.parameters.PlusEquals(tr.constraints, rate, true)

	return constrained - free, nil
}

// ChooseLearningRateByLikelihood grid-searches an initial learning rate
// on a training sample: candidates double from 5e-11 up to 1, each is
// trialed on a zeroed model for a few epochs, and the rate with the
// largest likelihood gain wins. The trial parameters are discarded and
// half the best rate is set. Expensive; intended as one-time calibration.
func (tr *Trainer) ChooseLearningRateByLikelihood(trainingSample []Instance) error {
	if err := tr.checkStructure(); err != nil {
		return err
	}
	if len(trainingSample) == 0 {
		return fmt.Errorf("crf: empty training sample")
	}
	const numIterations = 10
	bestLearningRate := math.Inf(-1)
	bestLikelihoodChange := math.Inf(-1)

	currLearningRate := 5e-11
	for currLearningRate < 1 {
		currLearningRate *= 2
		tr.parameters.Zero()
		beforeLikelihood, err := tr.computeLikelihood(trainingSample)
		if err != nil {
			return err
		}
		afterLikelihood, err := tr.trainSample(trainingSample, numIterations, currLearningRate)
		if err != nil {
			return err
		}
		likelihoodChange := afterLikelihood - beforeLikelihood
		slog.Debug("learning rate candidate", "rate", currLearningRate, "likelihood_change", likelihoodChange)

		if likelihoodChange > bestLikelihoodChange {
			bestLikelihoodChange = likelihoodChange
			bestLearningRate = currLearningRate
		}
	}

	// Discard the trial parameters
	tr.parameters.Zero()
	bestLearningRate /= 2
	slog.Info("Setting learning rate", "rate", bestLearningRate)
	tr.SetLearningRate(bestLearningRate)
	return nil
}

// trainSample runs a fixed number of epochs at the candidate rate with
// its own decaying schedule, independent of the trainer's session
// schedule. Instances are visited in order: the search must be
// deterministic so repeated calls pick the same candidate.
func (tr *Trainer) trainSample(trainingSample []Instance, numIterations int, rate float64) (float64, error) {
	lambda := float64(len(trainingSample))
	t := 1 / (lambda * rate)

	loglik := math.Inf(-1)
	for i := 0; i < numIterations; i++ {
		loglik = 0.0
		for j := range trainingSample {
			rate = 1 / (lambda * t)
			v, err := tr.trainSingle(trainingSample[j], rate)
			if err != nil {
				return 0, err
			}
			loglik += v
			t += 1.0
		}
	}

	return loglik, nil
}

// computeLikelihood sums the per-instance log-likelihood over the sample
// without touching the parameters. The scratch accumulators are reused
// and zeroed afterwards.
func (tr *Trainer) computeLikelihood(trainingSample []Instance) (float64, error) {
	loglik := 0.0
	for _, inst := range trainingSample {
		constrained, err := SumLattice(tr.model, inst.Features, inst.Labels, tr.constraints.Incrementor())
		if err != nil {
			return 0, err
		}
		free, err := SumLattice(tr.model, inst.Features, nil, tr.expectations.Incrementor())
		if err != nil {
			return 0, err
		}
		loglik += constrained - free
	}

	tr.constraints.Zero()
	tr.expectations.Zero()

	return loglik, nil
}
