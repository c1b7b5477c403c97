package quiz

import (
	"context"
	"fmt"
)

// PracticeExamBuilder materializes the fixed question set of a practice exam.
type PracticeExamBuilder struct {
	questions QuestionStore
	rng       *lockedRand
}

func NewPracticeExamBuilder(questions QuestionStore, opts ...Option) *PracticeExamBuilder {
	o := buildOptions(opts)
	return &PracticeExamBuilder{
		questions: questions,
		rng:       o.rng,
	}
}

// Build samples up to requestedCount active questions from scope without
// replacement. topicIDs, when non-empty, replaces the scope's topic filter.
// Fewer available questions than requested returns all of them; none returns
// an empty slice.
func (b *PracticeExamBuilder) Build(ctx context.Context, scope Scope, topicIDs []string, requestedCount int, isPremiumUser bool) ([]Question, error) {
	if len(topicIDs) > 0 {
		scope.TopicIDs = topicIDs
	}

	eligible, err := b.questions.FindEligible(ctx, scope, isPremiumUser)
	if err != nil {
		return nil, fmt.Errorf("find practice questions: %w", err)
	}
	eligible = filterServable(eligible, isPremiumUser)

	if requestedCount < 0 {
		requestedCount = 0
	}

	drawn := make([]Question, len(eligible))
	copy(drawn, eligible)
	b.rng.Shuffle(len(drawn), func(i, j int) { drawn[i], drawn[j] = drawn[j], drawn[i] })
	if requestedCount > len(drawn) {
		requestedCount = len(drawn)
	}
	return drawn[:requestedCount], nil
}
