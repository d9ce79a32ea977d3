package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/seqtag"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var dataFolder string
	var cvFolds int
	var seed int64

	cmd := &cobra.Command{
		Use:     "evaluate",
		Short:   "Evaluate tagging accuracy via grouped cross-validation",
		Example: `  seqtag evaluate --data-folder data --cv 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Info("Evaluating", "folds", cvFolds, "data-folder", dataFolder)
			start := time.Now()
			result, err := seqtag.Evaluate(dataFolder, &seqtag.EvalConfig{
				Folds: cvFolds,
				Seed:  seed,
			})
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))

			fmt.Printf("Token accuracy: %.1f%% (%d/%d)\n",
				result.TokenAccuracy*100, result.TokenCorrect, result.TokenTotal)
			fmt.Printf("Sentence accuracy: %.1f%% (%d/%d)\n",
				result.SentenceAccuracy*100, result.SentenceCorrect, result.SentenceTotal)
			fmt.Printf("Mean fold accuracy: %.1f%%\n", result.MeanFoldAccuracy*100)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataFolder, "data-folder", "data", "Path to corpus data folder")
	cmd.Flags().IntVar(&cvFolds, "cv", 10, "Number of cross-validation folds")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for per-fold training")
	return cmd
}
