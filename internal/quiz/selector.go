package quiz

import (
	"context"
	"fmt"
	"sort"
)

// Success-rate thresholds that switch the ranking strategy.
const (
	doingWellAbove   = 0.7
	strugglingBelow  = 0.5
	coldStartSuccess = 0.5
)

type Strategy string

const (
	StrategyDoingWell  Strategy = "doing_well"
	StrategyStruggling Strategy = "struggling"
	StrategyBalanced   Strategy = "balanced"
)

func StrategyFor(successRate float64) Strategy {
	switch {
	case successRate > doingWellAbove:
		return StrategyDoingWell
	case successRate < strugglingBelow:
		return StrategyStruggling
	default:
		return StrategyBalanced
	}
}

// Selector builds the prioritized pool a quiz draws from.
type Selector struct {
	questions QuestionStore
	history   HistoryStore
	rng       *lockedRand
}

func NewSelector(questions QuestionStore, history HistoryStore, opts ...Option) *Selector {
	o := buildOptions(opts)
	return &Selector{
		questions: questions,
		history:   history,
		rng:       o.rng,
	}
}

// SelectPool returns at most min(cfg.QuestionCount, 30) eligible questions,
// ranked by the user's history. When every eligible question fits, the whole
// set comes back in random order. An empty bank yields an empty pool, not an error.
func (s *Selector) SelectPool(ctx context.Context, cfg QuizConfig, userID string, isPremiumUser bool) ([]Question, error) {
	count := cfg.ClampedCount()

	eligible, err := s.questions.FindEligible(ctx, cfg.EffectiveScope(), cfg.AllowsPremium(isPremiumUser))
	if err != nil {
		return nil, fmt.Errorf("find eligible questions: %w", err)
	}
	eligible = filterServable(eligible, cfg.AllowsPremium(isPremiumUser))

	if len(eligible) <= count {
		s.rng.Shuffle(len(eligible), func(i, j int) {
			eligible[i], eligible[j] = eligible[j], eligible[i]
		})
		return eligible, nil
	}

	ids := make([]string, 0, len(eligible))
	for _, question := range eligible {
		ids = append(ids, question.QuestionID)
	}
	history, err := s.history.GetUserHistory(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", userID, err)
	}

	ranked := RankQuestions(eligible, history, s.rng.Float64)
	return ranked[:count], nil
}

// SuccessRate is correct/total over history, or 0.5 when history is empty.
func SuccessRate(history []HistoryRecord) float64 {
	if len(history) == 0 {
		return coldStartSuccess
	}
	correct := 0
	for _, record := range history {
		if record.WasCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(history))
}

type rankedQuestion struct {
	question  Question
	attempted bool
	// lastIncorrect is true when the most recent attempt was wrong.
	lastIncorrect bool
	weight        int
	draw          float64
}

// RankQuestions orders eligible questions by the strategy the user's success
// rate selects. History outside eligible is ignored. draw supplies the
// tie-break value, one call per question in input order.
func RankQuestions(eligible []Question, history []HistoryRecord, draw func() float64) []Question {
	inPool := make(map[string]struct{}, len(eligible))
	for _, question := range eligible {
		inPool[question.QuestionID] = struct{}{}
	}

	relevant := make([]HistoryRecord, 0, len(history))
	latest := make(map[string]HistoryRecord, len(history))
	for _, record := range history {
		if _, ok := inPool[record.QuestionID]; !ok {
			continue
		}
		relevant = append(relevant, record)
		if prev, ok := latest[record.QuestionID]; !ok || !record.AnsweredAt.Before(prev.AnsweredAt) {
			latest[record.QuestionID] = record
		}
	}

	strategy := StrategyFor(SuccessRate(relevant))

	items := make([]rankedQuestion, 0, len(eligible))
	for _, question := range eligible {
		last, attempted := latest[question.QuestionID]
		items = append(items, rankedQuestion{
			question:      question,
			attempted:     attempted,
			lastIncorrect: attempted && !last.WasCorrect,
			weight:        question.Difficulty.Weight(),
			draw:          draw(),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return rankBefore(strategy, items[i], items[j])
	})

	out := make([]Question, 0, len(items))
	for _, item := range items {
		out = append(out, item.question)
	}
	return out
}

func rankBefore(strategy Strategy, a, b rankedQuestion) bool {
	switch strategy {
	case StrategyDoingWell:
		// Unseen first, then harder first.
		if a.attempted != b.attempted {
			return !a.attempted
		}
		if a.weight != b.weight {
			return a.weight > b.weight
		}
	case StrategyStruggling:
		// Recently missed first, then easier first.
		if a.lastIncorrect != b.lastIncorrect {
			return a.lastIncorrect
		}
		if a.weight != b.weight {
			return a.weight < b.weight
		}
	default:
		if a.attempted != b.attempted {
			return !a.attempted
		}
		if a.lastIncorrect != b.lastIncorrect {
			return a.lastIncorrect
		}
	}
	return a.draw < b.draw
}

// filterServable drops inactive questions and, unless allowPremium, premium ones.
func filterServable(questions []Question, allowPremium bool) []Question {
	out := questions[:0:0]
	for _, question := range questions {
		if !question.Active {
			continue
		}
		if question.Premium && !allowPremium {
			continue
		}
		out = append(out, question)
	}
	return out
}
