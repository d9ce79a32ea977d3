package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/seqtag/internal/corpus"
)

func (c *CLI) newDataCommand() *cobra.Command {
	var dataFolder string

	cmd := &cobra.Command{
		Use:     "data",
		Short:   "Show statistics for a corpus folder",
		Example: `  seqtag data --data-folder data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := corpus.DefaultIterOptions()
			opts.Verbose = c.verbose
			sentences, err := corpus.New(dataFolder).ReadSentences(opts)
			if err != nil {
				return err
			}

			stats := corpus.Summarize(sentences)
			fmt.Printf("Documents: %d\n", stats.Documents)
			fmt.Printf("Sentences: %d\n", stats.Sentences)
			fmt.Printf("Tokens: %d\n", stats.Tokens)

			labels := make([]string, 0, len(stats.LabelCounts))
			for label := range stats.LabelCounts {
				labels = append(labels, label)
			}
			sort.Slice(labels, func(i, j int) bool {
				if stats.LabelCounts[labels[i]] != stats.LabelCounts[labels[j]] {
					return stats.LabelCounts[labels[i]] > stats.LabelCounts[labels[j]]
				}
				return labels[i] < labels[j]
			})
			fmt.Println("Labels:")
			for _, label := range labels {
				fmt.Printf("  %-12s %d\n", label, stats.LabelCounts[label])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataFolder, "data-folder", "data", "Path to corpus data folder")
	return cmd
}
