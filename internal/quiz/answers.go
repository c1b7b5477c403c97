package quiz

import (
	"fmt"
	"strings"
)

// EvaluateSubmission decides correctness of sub against q. A multiple-choice
// submission must name one of the question's choices unless it timed out with
// no choice at all, which counts as incorrect.
func EvaluateSubmission(q Question, sub Submission) (bool, error) {
	switch q.Type {
	case TypeMultipleChoice:
		choiceID := strings.TrimSpace(sub.ChoiceID)
		if choiceID == "" {
			if sub.TimedOut {
				return false, nil
			}
			return false, fmt.Errorf("%w: no choice selected for %s", ErrChoiceNotFound, q.QuestionID)
		}
		choice, ok := q.choice(choiceID)
		if !ok {
			return false, fmt.Errorf("%w: %s on question %s", ErrChoiceNotFound, choiceID, q.QuestionID)
		}
		return choice.IsCorrect, nil
	case TypeShortAnswer:
		return MatchesAcceptable(q.Answers, sub.Text), nil
	default:
		return false, fmt.Errorf("%w: %s: unknown type %q", ErrInvalidQuestion, q.QuestionID, q.Type)
	}
}

// MatchesAcceptable reports whether text matches any acceptable answer. Exact
// answers need literal equality; the others ignore case and surrounding space.
func MatchesAcceptable(answers []AcceptableAnswer, text string) bool {
	normalized := normalizeAnswer(text)
	for _, answer := range answers {
		if answer.ExactMatch {
			if text == answer.Text {
				return true
			}
			continue
		}
		if normalized != "" && normalized == normalizeAnswer(answer.Text) {
			return true
		}
	}
	return false
}

func normalizeAnswer(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
