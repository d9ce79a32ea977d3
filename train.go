package seqtag

import (
	"fmt"
	"log/slog"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/happyhackingspace/seqtag/crf"
	"github.com/happyhackingspace/seqtag/internal/corpus"
	"github.com/happyhackingspace/seqtag/internal/features"
)

// TrainConfig holds configuration for training.
type TrainConfig struct {
	// LearningRate seeds the decaying schedule. Ignored when SearchRate
	// is set, which calibrates the rate on a training sample first.
	LearningRate     float64
	MaxIterations    int
	Epsilon          float64 // epoch log-likelihood convergence threshold
	SearchRate       bool
	SearchSampleSize int
	Seed             int64 // 0 means time-seeded shuffling
	Verbose          bool
	// EpochHook, if set, is called after each completed training epoch.
	EpochHook func(iteration, maxIterations int)
}

// DefaultTrainConfig returns the default training configuration.
func DefaultTrainConfig() *TrainConfig {
	return &TrainConfig{
		LearningRate:     0.1,
		MaxIterations:    100,
		Epsilon:          1e-3,
		SearchRate:       true,
		SearchSampleSize: 100,
	}
}

// EvalConfig holds configuration for evaluation.
type EvalConfig struct {
	Folds int
	Seed  int64
	Train *TrainConfig // per-fold training config; nil means defaults without rate search
}

// EvalResult holds cross-validation evaluation results.
type EvalResult struct {
	TokenAccuracy    float64
	SentenceAccuracy float64
	MeanFoldAccuracy float64 // mean of per-fold token accuracies
	TokenCorrect     int
	TokenTotal       int
	SentenceCorrect  int
	SentenceTotal    int
}

// Train trains a tagger on the corpus in the given data directory.
func Train(dataDir string, config *TrainConfig) (*Tagger, error) {
	if config == nil {
		config = DefaultTrainConfig()
	}

	opts := corpus.DefaultIterOptions()
	opts.Verbose = config.Verbose
	sentences, err := corpus.New(dataDir).ReadSentences(opts)
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}
	if len(sentences) == 0 {
		return nil, fmt.Errorf("seqtag: no sentences found in %s", dataDir)
	}

	return TrainSequences(buildSequences(sentences), config)
}

// TrainSequences trains a tagger on pre-extracted training sequences.
func TrainSequences(sequences []crf.TrainingSequence, config *TrainConfig) (*Tagger, error) {
	if config == nil {
		config = DefaultTrainConfig()
	}

	model := crf.BuildModel(sequences)
	instances, err := model.CompileAll(sequences)
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}

	slog.Debug("Built CRF model",
		"labels", model.NumLabels,
		"attributes", model.Attributes.Size(),
		"weights", model.NumWeights(),
		"sequences", len(instances))

	trainer := crf.NewTrainer(model, config.LearningRate)
	if config.Epsilon > 0 {
		trainer.Epsilon = config.Epsilon
	}
	if config.Seed != 0 {
		trainer.SetRand(rand.New(rand.NewSource(config.Seed)))
	}
	if config.EpochHook != nil {
		maxIter := config.MaxIterations
		trainer.AddEvaluator(func(tr *crf.Trainer) {
			config.EpochHook(tr.Iteration(), maxIter)
		})
	}

	if config.SearchRate {
		sample := instances
		if config.SearchSampleSize > 0 && len(sample) > config.SearchSampleSize {
			sample = sample[:config.SearchSampleSize]
		}
		if err := trainer.ChooseLearningRateByLikelihood(sample); err != nil {
			return nil, fmt.Errorf("seqtag: %w", err)
		}
	}

	converged, err := trainer.Train(instances, config.MaxIterations)
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}
	slog.Info("Training finished",
		"iterations", trainer.Iteration(),
		"converged", converged,
		"learning_rate", trainer.LearningRate())

	return &Tagger{model: model}, nil
}

// Evaluate runs grouped cross-validation on the corpus: sentences from
// the same document never appear in both a fold's training and test set.
func Evaluate(dataDir string, config *EvalConfig) (*EvalResult, error) {
	nFolds := 10
	var trainConfig *TrainConfig
	var seed int64
	if config != nil {
		if config.Folds > 0 {
			nFolds = config.Folds
		}
		trainConfig = config.Train
		seed = config.Seed
	}
	if trainConfig == nil {
		trainConfig = DefaultTrainConfig()
		trainConfig.SearchRate = false
	}
	if trainConfig.Seed == 0 {
		trainConfig.Seed = seed
	}

	sentences, err := corpus.New(dataDir).ReadSentences(corpus.DefaultIterOptions())
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}
	if len(sentences) == 0 {
		return nil, fmt.Errorf("seqtag: no sentences found in %s", dataDir)
	}

	sequences := buildSequences(sentences)
	groups := make([]int, len(sequences))
	for i, seq := range sequences {
		groups[i] = seq.Group
	}
	folds := groupKFold(groups, nFolds)

	result := &EvalResult{}
	var foldAccuracies []float64

	for _, testIdx := range folds {
		if len(testIdx) == 0 || len(testIdx) == len(sequences) {
			continue
		}
		testSet := make([]bool, len(sequences))
		for _, idx := range testIdx {
			testSet[idx] = true
		}
		var trainSeqs []crf.TrainingSequence
		for i, seq := range sequences {
			if !testSet[i] {
				trainSeqs = append(trainSeqs, seq)
			}
		}

		tagger, err := TrainSequences(trainSeqs, trainConfig)
		if err != nil {
			return nil, err
		}

		foldCorrect, foldTotal := 0, 0
		for _, idx := range testIdx {
			seq := sequences[idx]
			pred := tagger.model.Predict(seq.Features)
			allCorrect := true
			for j := range seq.Labels {
				if j < len(pred) && pred[j] == seq.Labels[j] {
					result.TokenCorrect++
					foldCorrect++
				} else {
					allCorrect = false
				}
				result.TokenTotal++
				foldTotal++
			}
			if allCorrect {
				result.SentenceCorrect++
			}
			result.SentenceTotal++
		}
		if foldTotal > 0 {
			foldAccuracies = append(foldAccuracies, float64(foldCorrect)/float64(foldTotal))
		}
	}

	if result.TokenTotal > 0 {
		result.TokenAccuracy = float64(result.TokenCorrect) / float64(result.TokenTotal)
	}
	if result.SentenceTotal > 0 {
		result.SentenceAccuracy = float64(result.SentenceCorrect) / float64(result.SentenceTotal)
	}
	if len(foldAccuracies) > 0 {
		result.MeanFoldAccuracy = stat.Mean(foldAccuracies, nil)
	}

	return result, nil
}

// buildSequences extracts features for every sentence and assigns group
// IDs by source document.
func buildSequences(sentences []corpus.Sentence) []crf.TrainingSequence {
	docToGroup := make(map[string]int)
	sequences := make([]crf.TrainingSequence, len(sentences))
	for i, sent := range sentences {
		group, ok := docToGroup[sent.Doc]
		if !ok {
			group = len(docToGroup)
			docToGroup[sent.Doc] = group
		}
		sequences[i] = crf.TrainingSequence{
			Features: features.Sequence(sent.Tokens),
			Labels:   sent.Labels,
			Group:    group,
		}
	}
	return sequences
}

func groupKFold(groups []int, nFolds int) [][]int {
	uniqueGroups := make(map[int]bool)
	for _, g := range groups {
		uniqueGroups[g] = true
	}

	if nFolds > len(uniqueGroups) {
		nFolds = len(uniqueGroups)
	}

	groupToFold := make(map[int]int)
	for _, g := range groups {
		if _, ok := groupToFold[g]; !ok {
			groupToFold[g] = len(groupToFold) % nFolds
		}
	}

	folds := make([][]int, nFolds)
	for i, g := range groups {
		fold := groupToFold[g]
		folds[fold] = append(folds[fold], i)
	}
	return folds
}
