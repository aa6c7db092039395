package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains the pre-configured lipgloss styles for the chat view.
type Styles struct {
	// Title styles the header line.
	Title lipgloss.Style

	// Learner styles the learner's questions in the transcript.
	Learner lipgloss.Style

	// Assistant styles the assistant's answers.
	Assistant lipgloss.Style

	// Muted is for citations, hints and status text.
	Muted lipgloss.Style

	// Warning is for ungrounded or degraded answers.
	Warning lipgloss.Style

	// Error is for failures.
	Error lipgloss.Style

	// InputField frames the question input.
	InputField lipgloss.Style
}

// NewStyles creates the default chat styles.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")), // Purple

		Learner: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#06B6D4")), // Cyan

		Assistant: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")), // Light gray

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")), // Medium gray

		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9E2AF")), // Yellow

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")), // Red

		InputField: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1),
	}
}
