package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
)

var (
	askK      int
	askModule string
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the course material",
	Long: `Answers a single question grounded in the indexed course content.
The answer cites the content units it was built from. Use --module to
restrict retrieval to one part of the course.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "k", "n", 0, "number of context chunks (0 = configured default)")
	askCmd.Flags().StringVar(&askModule, "module", "", "restrict retrieval to a module path")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if assistantService == nil {
		return errors.New("assistant service not configured")
	}

	answer, err := assistantService.Answer(context.Background(), args[0], nil, driving.AnswerOptions{
		K:          askK,
		ModulePath: askModule,
	})
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	return outputAnswerText(cmd, answer)
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) error {
	cmd.Println(answer.Text)

	if answer.Unavailable {
		return nil
	}
	if answer.NoContext {
		cmd.Println()
		cmd.Println("(not grounded in course material)")
		return nil
	}
	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, id := range answer.Citations {
			cmd.Printf("  [%d] %s\n", i+1, id)
		}
	}
	return nil
}
