// Package tui provides the interactive chat session for the studyloop CLI.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
)

// historyWindow is how many of the most recent turns are sent back to the
// assistant with each question. The assistant applies its own character
// budget on top.
const historyWindow = 12

// answerReceived carries the assistant's response back into the update
// loop.
type answerReceived struct {
	query  string
	answer *domain.Answer
	err    error
}

// Chat is the bubbletea model for an interactive study session. History
// stays in this process; the assistant receives a sliding window of the
// most recent turns.
type Chat struct {
	assistant  driving.Assistant
	modulePath string
	ctx        context.Context
	styles     *Styles

	input    textinput.Model
	viewport viewport.Model

	history    []domain.ChatTurn
	transcript []string
	waiting    bool
	ready      bool
	width      int
	height     int
}

// NewChat creates a chat session over the given assistant. modulePath
// restricts retrieval to one part of the course when non-empty.
func NewChat(assistant driving.Assistant, modulePath string) *Chat {
	input := textinput.New()
	input.Placeholder = "Ask about the course material..."
	input.Focus()
	input.CharLimit = 2000

	return &Chat{
		assistant:  assistant,
		modulePath: modulePath,
		ctx:        context.Background(),
		styles:     NewStyles(),
		input:      input,
		viewport:   viewport.New(80, 20),
		width:      80,
		height:     24,
	}
}

// WithContext sets the context used for assistant calls.
func (c *Chat) WithContext(ctx context.Context) *Chat {
	if ctx != nil {
		c.ctx = ctx
	}
	return c
}

// Init starts the cursor blink.
func (c *Chat) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (c *Chat) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width = msg.Width
		c.height = msg.Height
		c.viewport.Width = msg.Width
		c.viewport.Height = max(msg.Height-6, 3)
		c.input.Width = max(msg.Width-6, 20)
		c.ready = true
		c.refreshViewport()
		return c, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return c, tea.Quit
		case tea.KeyEnter:
			return c, c.submit()
		}

	case answerReceived:
		c.waiting = false
		c.appendExchange(msg)
		return c, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	cmds = append(cmds, cmd)
	c.viewport, cmd = c.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return c, tea.Batch(cmds...)
}

// submit sends the current input to the assistant.
func (c *Chat) submit() tea.Cmd {
	if c.waiting {
		return nil
	}
	query := strings.TrimSpace(c.input.Value())
	if query == "" {
		return nil
	}

	c.input.Reset()
	c.waiting = true

	history := c.recentHistory()
	return func() tea.Msg {
		answer, err := c.assistant.Answer(c.ctx, query, history, driving.AnswerOptions{
			ModulePath: c.modulePath,
		})
		return answerReceived{query: query, answer: answer, err: err}
	}
}

// recentHistory returns the sliding window of turns sent to the assistant.
func (c *Chat) recentHistory() []domain.ChatTurn {
	if len(c.history) <= historyWindow {
		return c.history
	}
	return c.history[len(c.history)-historyWindow:]
}

// appendExchange records the question and its outcome in the history and
// the rendered transcript.
func (c *Chat) appendExchange(msg answerReceived) {
	var b strings.Builder
	b.WriteString(c.styles.Learner.Render("You: "))
	b.WriteString(msg.query)
	b.WriteString("\n")

	if msg.err != nil {
		b.WriteString(c.styles.Error.Render("Error: " + msg.err.Error()))
		c.transcript = append(c.transcript, b.String())
		c.refreshViewport()
		return
	}

	answer := msg.answer
	b.WriteString(c.styles.Assistant.Render(answer.Text))

	switch {
	case answer.Unavailable:
		b.WriteString("\n")
		b.WriteString(c.styles.Warning.Render("(assistant unavailable, try again shortly)"))
	case answer.NoContext:
		b.WriteString("\n")
		b.WriteString(c.styles.Muted.Render("(not grounded in course material)"))
	case len(answer.Citations) > 0:
		b.WriteString("\n")
		b.WriteString(c.styles.Muted.Render("Sources: " + strings.Join(answer.Citations, ", ")))
	}
	c.transcript = append(c.transcript, b.String())

	// Unavailable answers carry a notice, not an answer; keeping them out
	// of the history avoids feeding the notice back into later prompts.
	if !answer.Unavailable {
		now := time.Now()
		c.history = append(c.history,
			domain.ChatTurn{Role: domain.RoleUser, Text: msg.query, Timestamp: now},
			domain.ChatTurn{
				Role:      domain.RoleAssistant,
				Text:      answer.Text,
				Citations: answer.Citations,
				Timestamp: now,
			},
		)
	}
	c.refreshViewport()
}

// refreshViewport re-renders the transcript and scrolls to the bottom.
func (c *Chat) refreshViewport() {
	c.viewport.SetContent(strings.Join(c.transcript, "\n\n"))
	c.viewport.GotoBottom()
}

// View renders the chat.
func (c *Chat) View() string {
	if !c.ready {
		return "Loading..."
	}

	title := c.styles.Title.Render("Studyloop Chat")
	if c.modulePath != "" {
		title += c.styles.Muted.Render("  [" + c.modulePath + "]")
	}

	status := c.styles.Muted.Render("Enter to send, Esc to quit")
	if c.waiting {
		status = c.styles.Muted.Render("Thinking...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		c.viewport.View(),
		c.styles.InputField.Width(c.width-2).Render(c.input.View()),
		status,
	)
}
