// Package domain contains the core evaluation model: answer records,
// judge decisions, pairwise comparison results, and the Elo rating engine.
// It has no dependencies on infrastructure and is safe to use from tests
// without any live LLM provider.
package domain

// Winner identifies which side of a pairwise comparison the judge preferred.
// The labels refer to presentation order: "A" is always the first response
// shown to the judge, regardless of which participant actually produced it.
type Winner string

const (
	// WinnerA indicates the first presented response was judged better.
	WinnerA Winner = "A"

	// WinnerB indicates the second presented response was judged better.
	WinnerB Winner = "B"

	// WinnerTie indicates the judge found the responses materially equivalent.
	WinnerTie Winner = "Tie"
)

// Valid reports whether w is one of the three recognized outcomes.
func (w Winner) Valid() bool {
	return w == WinnerA || w == WinnerB || w == WinnerTie
}

// Swapped maps a winner observed under reversed presentation order back to
// the original labeling: the judge's "A" was really B and vice versa.
// Tie is a fixed point. Applying Swapped twice yields the original value.
func (w Winner) Swapped() Winner {
	switch w {
	case WinnerA:
		return WinnerB
	case WinnerB:
		return WinnerA
	default:
		return w
	}
}

// Score converts a winner into A's realized match score for rating updates:
// 1.0 for a win, 0.0 for a loss, 0.5 for a tie.
func (w Winner) Score() float64 {
	switch w {
	case WinnerA:
		return 1.0
	case WinnerB:
		return 0.0
	default:
		return 0.5
	}
}

// AnswerRecord is one question/answer pair from a participant's answer set.
// All three fields are non-empty after a successful load.
type AnswerRecord struct {
	// QuestionID uniquely identifies the question within one answer set.
	QuestionID string `json:"question_id"`

	// Question is the text the participant was asked.
	Question string `json:"question"`

	// Response is the participant's answer being evaluated.
	Response string `json:"response"`
}

// Decision is the immutable outcome of a single judge call.
type Decision struct {
	// Winner is the judge's verdict in presentation-order terms.
	Winner Winner `json:"winner" validate:"required,oneof=A B Tie"`

	// Explanation is the judge's short rationale for the verdict.
	Explanation string `json:"explanation" validate:"required"`
}

// ComparisonResult is one appended entry of the per-comparison report.
// Two entries exist per question per pair: one for the natural presentation
// order and one for the swapped order. Entries are never mutated.
type ComparisonResult struct {
	QuestionID string `json:"question_id"`

	// ModelA and ModelB name the participants in presentation order,
	// so on a swapped entry ModelA is the pair's second participant.
	ModelA string `json:"model_a"`
	ModelB string `json:"model_b"`

	ResponseA string `json:"response_a"`
	ResponseB string `json:"response_b"`

	// JudgeDecision is the raw verdict as the judge saw the responses.
	JudgeDecision    Winner `json:"judge_decision"`
	JudgeExplanation string `json:"judge_explanation"`

	// Swapped records whether the responses were presented in reversed order.
	Swapped bool `json:"swapped"`

	// RealWinner is only set on swapped entries: the verdict remapped back
	// to the original participant labeling.
	RealWinner Winner `json:"real_winner,omitempty"`
}
