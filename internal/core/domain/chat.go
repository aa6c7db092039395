package domain

import "time"

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is one turn of an assistant conversation. The session itself is
// owned by the chat collaborator outside the pipeline; the assistant only
// consumes recent turns as context and returns the data to build the next
// one.
type ChatTurn struct {
	// Role is RoleUser or RoleAssistant.
	Role string

	// Text is the turn's content.
	Text string

	// Citations are the content unit IDs that grounded an assistant turn.
	Citations []string

	// Timestamp is when the turn was produced.
	Timestamp time.Time
}

// ContextPolicy decides what the assistant does when retrieval finds no
// sufficiently similar course material.
type ContextPolicy string

// Available context policies.
const (
	// ContextPolicyDecline instructs the model to say the course material
	// does not cover the question. This is the default.
	ContextPolicyDecline ContextPolicy = "decline"

	// ContextPolicyGeneral permits a general-knowledge answer with a
	// disclaimer that it is not grounded in course material.
	ContextPolicyGeneral ContextPolicy = "general"
)

// IsValid returns true if the policy is recognised.
func (p ContextPolicy) IsValid() bool {
	return p == ContextPolicyDecline || p == ContextPolicyGeneral
}

// Answer is the assistant's grounded response to a query.
type Answer struct {
	// Text is the completion text shown to the learner.
	Text string

	// Citations are the content unit IDs actually included as context,
	// in rank order, deduplicated. Independent of whether the model
	// mentioned them.
	Citations []string

	// NoContext is true when no retrieved chunk met the similarity
	// threshold and the configured context policy was applied.
	NoContext bool

	// Unavailable is true when the generation backend failed even after
	// the degraded retry. Text carries the user-visible notice.
	Unavailable bool
}
