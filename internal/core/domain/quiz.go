package domain

// QuizQuestion is one generated multiple-choice question.
type QuizQuestion struct {
	// Question is the question text.
	Question string

	// Options are the answer choices, in presentation order.
	Options []string

	// Answer is the correct option, verbatim from Options.
	Answer string

	// Explanation says why the answer is correct.
	Explanation string
}

// Quiz is a generated set of questions over one content unit.
type Quiz struct {
	// UnitID is the content unit the quiz was generated from.
	UnitID string

	// Difficulty is the requested difficulty level.
	Difficulty Difficulty

	// Questions are the generated questions.
	Questions []QuizQuestion
}

// QuizFeedback is the tutor's response to a learner's answer.
type QuizFeedback struct {
	// Correct reports whether the learner's answer matched.
	Correct bool

	// Feedback is the generated explanation.
	Feedback string
}
