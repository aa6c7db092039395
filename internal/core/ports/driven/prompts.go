package driven

// Prompt names used by the assistant. Each maps to a user-editable
// template file managed by the PromptStore implementation.
const (
	// PromptAnswerSystem is the system prompt for grounded answering.
	PromptAnswerSystem = "answer_system"

	// PromptGeneralSystem is the system prompt used when no relevant
	// content is found and the general-knowledge policy is active.
	PromptGeneralSystem = "general_system"

	// PromptDecline is the canned reply sent when no relevant content
	// is found and the decline policy is active.
	PromptDecline = "decline"

	// PromptQuizSystem is the system prompt for quiz generation.
	PromptQuizSystem = "quiz_system"

	// PromptFeedbackSystem is the system prompt for grading feedback.
	PromptFeedbackSystem = "feedback_system"
)

// PromptStore provides access to LLM prompt templates.
// Implementations may load from files, embedded defaults, or both.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns an error if the prompt doesn't exist.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads.
	Reload()
}
