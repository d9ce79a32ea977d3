package cli

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/seqtag"
)

func (c *CLI) newTagCommand() *cobra.Command {
	var modelPath string
	var proba bool

	cmd := &cobra.Command{
		Use:   "tag [tokens...]",
		Short: "Tag a token sequence, or sentences from stdin",
		Example: `  # Tag a single sentence
  seqtag tag The wind blows

  # Tag one sentence per stdin line
  cat sentences.txt | seqtag tag

  # Show per-token label probabilities
  seqtag tag --proba The wind blows

  # Use a custom model file
  seqtag tag --model my-model.json The wind blows`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var tagger *seqtag.Tagger
			var err error
			if modelPath != "" {
				tagger, err = seqtag.Load(modelPath)
			} else {
				tagger, err = seqtag.New()
			}
			if err != nil {
				return err
			}

			if len(args) > 0 {
				return tagSentence(tagger, args, proba)
			}

			scanner := bufio.NewScanner(os.Stdin)
			first := true
			for scanner.Scan() {
				tokens := strings.Fields(scanner.Text())
				if len(tokens) == 0 {
					continue
				}
				if !first {
					fmt.Println()
				}
				first = false
				if err := tagSentence(tagger, tokens, proba); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Path to model file (default: search for model.json)")
	cmd.Flags().BoolVar(&proba, "proba", false, "Show per-token label probabilities")
	return cmd
}

func tagSentence(tagger *seqtag.Tagger, tokens []string, proba bool) error {
	if proba {
		dists, err := tagger.TagProba(tokens)
		if err != nil {
			return err
		}
		for i, dist := range dists {
			fmt.Printf("%s\t%s\n", tokens[i], formatDist(dist))
		}
		return nil
	}

	labels, err := tagger.Tag(tokens)
	if err != nil {
		return err
	}
	for i, label := range labels {
		fmt.Printf("%s\t%s\n", tokens[i], label)
	}
	return nil
}

// formatDist renders a label distribution as "label=p" pairs, most
// probable first.
func formatDist(dist map[string]float64) string {
	labels := make([]string, 0, len(dist))
	for label := range dist {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if dist[labels[i]] != dist[labels[j]] {
			return dist[labels[i]] > dist[labels[j]]
		}
		return labels[i] < labels[j]
	})

	parts := make([]string, len(labels))
	for i, label := range labels {
		parts[i] = fmt.Sprintf("%s=%.3f", label, dist[label])
	}
	return strings.Join(parts, " ")
}
