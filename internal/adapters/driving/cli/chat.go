package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/studyloop/studyloop-cli/internal/adapters/driving/tui"
)

var chatModule string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive study session",
	Long: `Launch an interactive chat session with the study assistant.

Each answer is grounded in the indexed course material and cites the
content units it was built from. The conversation history stays on this
machine and feeds back into follow-up questions.

Controls:
  Enter    - Send question
  ↑/↓      - Scroll the conversation
  Ctrl+C   - Quit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatModule, "module", "", "restrict retrieval to a module path")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if assistantService == nil {
		return fmt.Errorf("assistant service not configured")
	}

	// Panic recovery keeps a stack trace visible after the alt screen
	// is torn down.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app := tui.NewChat(assistantService, chatModule)
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}
	return nil
}
