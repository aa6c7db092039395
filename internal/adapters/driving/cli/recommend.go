package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
)

var (
	recommendLimit int
	recommendKind  string
	recommendJSON  bool
	recommendAll   bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [user-id]",
	Short: "Recommend content for a learner",
	Long: `Scores unvisited content units for a learner against the centroid of
their completed content. Learners with no completed content get a
difficulty-ordered listing instead.

With --all, runs one warm pass over every active learner and exits.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().IntVarP(&recommendLimit, "limit", "n", 0, "maximum recommendations (0 = configured default)")
	recommendCmd.Flags().StringVar(&recommendKind, "kind", string(domain.RecommendationNextContent), "recommendation kind")
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false, "output recommendations as JSON")
	recommendCmd.Flags().BoolVar(&recommendAll, "all", false, "warm recommendations for all active learners")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	if recommendAll {
		if schedulerService == nil {
			return errors.New("scheduler service not configured")
		}
		cmd.Println("Warming recommendations for all active learners...")
		if err := schedulerService.WarmAll(context.Background()); err != nil {
			return fmt.Errorf("warm pass failed: %w", err)
		}
		cmd.Println("Done.")
		return nil
	}

	if recommendService == nil {
		return errors.New("recommendation service not configured")
	}
	if len(args) == 0 {
		return errors.New("user-id is required unless --all is given")
	}

	scores, err := recommendService.Recommend(context.Background(), args[0],
		domain.RecommendationKind(recommendKind), recommendLimit)
	if err != nil {
		return fmt.Errorf("recommend failed: %w", err)
	}

	if recommendJSON {
		data, err := json.MarshalIndent(scores, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal recommendations: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(scores) == 0 {
		cmd.Println("No recommendations available.")
		return nil
	}

	cmd.Printf("Recommendations for %s:\n\n", args[0])
	for i, s := range scores {
		cmd.Printf("  [%d] %s (%.2f, %s)\n", i+1, s.UnitID, s.Score, s.Rationale)
	}
	return nil
}
