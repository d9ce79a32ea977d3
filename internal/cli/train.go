package cli

import (
	"log/slog"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/happyhackingspace/seqtag"
)

func (c *CLI) newTrainCommand() *cobra.Command {
	var dataFolder string
	var configPath string
	var iterations int
	var rate float64
	var searchRate bool
	var seed int64

	cmd := &cobra.Command{
		Use:   "train <modelfile>",
		Short: "Train a tagging model on a corpus folder",
		Args:  cobra.ExactArgs(1),
		Example: `  seqtag train model.json --data-folder data
  seqtag train model.json --config train.yaml
  seqtag train model.json --iterations 200 --no-search-rate --rate 0.01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			modelPath := args[0]

			config := seqtag.DefaultTrainConfig()
			config.Verbose = c.verbose
			if configPath != "" {
				if err := applyConfigFile(configPath, config); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("iterations") {
				config.MaxIterations = iterations
			}
			if cmd.Flags().Changed("rate") {
				config.LearningRate = rate
			}
			if cmd.Flags().Changed("no-search-rate") {
				config.SearchRate = !searchRate
			}
			if cmd.Flags().Changed("seed") {
				config.Seed = seed
			}

			var bar *pb.ProgressBar
			if !c.silent && !c.verbose {
				bar = pb.StartNew(config.MaxIterations)
				config.EpochHook = func(iteration, maxIterations int) {
					bar.SetCurrent(int64(iteration))
				}
			}

			slog.Info("Training tagger", "data-folder", dataFolder, "output", modelPath)
			start := time.Now()
			tagger, err := seqtag.Train(dataFolder, config)
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return err
			}
			slog.Debug("Training completed", "duration", time.Since(start))
			if err := tagger.Save(modelPath); err != nil {
				return err
			}
			slog.Info("Model saved", "path", modelPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataFolder, "data-folder", "data", "Path to corpus data folder")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML training config")
	cmd.Flags().IntVar(&iterations, "iterations", 100, "Maximum training epochs")
	cmd.Flags().Float64Var(&rate, "rate", 0.1, "Initial learning rate")
	cmd.Flags().BoolVar(&searchRate, "no-search-rate", false, "Skip the learning-rate search")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for epoch shuffling (0 = time-based)")
	return cmd
}
