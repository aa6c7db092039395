package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
)

var (
	quizCount      int
	quizDifficulty string
	quizAnswers    bool
	quizTake       bool
	quizJSON       bool
)

var quizCmd = &cobra.Command{
	Use:   "quiz [unit-id]",
	Short: "Generate a multiple-choice quiz from a content unit",
	Long: `Generates a multiple-choice quiz grounded in one content unit's
material. By default the questions are printed without answers; use
--answers to reveal them, or --take to answer interactively and get
feedback per question.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuiz,
}

func init() {
	quizCmd.Flags().IntVarP(&quizCount, "count", "n", 0,
		"number of questions (default 5)")
	quizCmd.Flags().StringVar(&quizDifficulty, "difficulty", "",
		"difficulty level (beginner|intermediate|advanced)")
	quizCmd.Flags().BoolVar(&quizAnswers, "answers", false,
		"print answers and explanations")
	quizCmd.Flags().BoolVar(&quizTake, "take", false,
		"answer interactively with feedback")
	quizCmd.Flags().BoolVar(&quizJSON, "json", false,
		"output as JSON")
	rootCmd.AddCommand(quizCmd)
}

func runQuiz(cmd *cobra.Command, args []string) error {
	if quizService == nil {
		return errors.New("quiz service not configured")
	}

	difficulty := domain.Difficulty(quizDifficulty)
	if quizDifficulty != "" && difficulty.Rank() > domain.DifficultyAdvanced.Rank() {
		return fmt.Errorf("unknown difficulty: %s", quizDifficulty)
	}

	quiz, err := quizService.Generate(cmd.Context(), args[0], driving.QuizOptions{
		Questions:  quizCount,
		Difficulty: difficulty,
	})
	if err != nil {
		return fmt.Errorf("quiz failed: %w", err)
	}

	if quizJSON {
		data, err := json.MarshalIndent(quiz, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}
	if quizTake {
		return takeQuiz(cmd, quiz)
	}

	printQuiz(cmd, quiz)
	return nil
}

func printQuiz(cmd *cobra.Command, quiz *domain.Quiz) {
	cmd.Printf("Quiz for %s (%s):\n\n", quiz.UnitID, quiz.Difficulty)
	for i, q := range quiz.Questions {
		cmd.Printf("%d. %s\n", i+1, q.Question)
		for j, opt := range q.Options {
			cmd.Printf("   %c) %s\n", 'a'+j, opt)
		}
		if quizAnswers {
			cmd.Printf("   Answer: %s\n", q.Answer)
			if q.Explanation != "" {
				cmd.Printf("   %s\n", q.Explanation)
			}
		}
		cmd.Println()
	}
}

// takeQuiz walks through the questions, grading each answer and showing
// the generated feedback.
func takeQuiz(cmd *cobra.Command, quiz *domain.Quiz) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	correct := 0

	cmd.Printf("Quiz for %s (%s). Answer with a letter or the full option.\n\n",
		quiz.UnitID, quiz.Difficulty)

	for i, q := range quiz.Questions {
		cmd.Printf("%d. %s\n", i+1, q.Question)
		for j, opt := range q.Options {
			cmd.Printf("   %c) %s\n", 'a'+j, opt)
		}
		cmd.Print("Your answer: ")

		answer := readLine(reader)
		if len(answer) == 1 {
			idx := int(answer[0]|0x20) - 'a'
			if idx >= 0 && idx < len(q.Options) {
				answer = q.Options[idx]
			}
		}

		feedback, err := quizService.Evaluate(cmd.Context(), q.Question, answer, q.Answer)
		if err != nil {
			return fmt.Errorf("feedback failed: %w", err)
		}
		if feedback.Correct {
			correct++
			cmd.Println("Correct!")
		} else {
			cmd.Printf("Not quite, the answer is: %s\n", q.Answer)
		}
		cmd.Printf("%s\n\n", feedback.Feedback)
	}

	cmd.Printf("Score: %d/%d\n", correct, len(quiz.Questions))
	return nil
}
