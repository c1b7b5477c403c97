package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"
)

var errStoreDown = errors.New("store unreachable")

func mcQuestion(id string, difficulty Difficulty) Question {
	return Question{
		QuestionID:   id,
		Text:         "Question " + id,
		Type:         TypeMultipleChoice,
		Difficulty:   difficulty,
		Active:       true,
		CurriculumID: "cur",
		SubjectID:    "math",
		TopicID:      "algebra",
		Choices: []Choice{
			{ChoiceID: "a", Text: "right", IsCorrect: true},
			{ChoiceID: "b", Text: "wrong"},
			{ChoiceID: "c", Text: "also wrong"},
			{ChoiceID: "d", Text: "still wrong"},
		},
	}
}

func shortQuestion(id string, answers ...AcceptableAnswer) Question {
	return Question{
		QuestionID:   id,
		Text:         "Question " + id,
		Type:         TypeShortAnswer,
		Difficulty:   DifficultyMedium,
		Active:       true,
		CurriculumID: "cur",
		SubjectID:    "math",
		TopicID:      "algebra",
		Answers:      answers,
	}
}

// numberedQuestions returns n medium questions q01..qNN.
func numberedQuestions(n int) []Question {
	out := make([]Question, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, mcQuestion(fmt.Sprintf("q%02d", i), DifficultyMedium))
	}
	return out
}

func ids(questions []Question) []string {
	out := make([]string, 0, len(questions))
	for _, question := range questions {
		out = append(out, question.QuestionID)
	}
	return out
}

func seeded(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("attempt-%d", n)
	}
}

func generalConfig(count int) QuizConfig {
	return QuizConfig{
		QuizID:        "quiz-1",
		Title:         "Algebra drill",
		Kind:          KindGeneral,
		Scope:         Scope{CurriculumID: "cur", SubjectID: "math"},
		QuestionCount: count,
		PassingScore:  50,
	}
}

func practiceConfig(count int) QuizConfig {
	cfg := generalConfig(count)
	cfg.QuizID = "exam-1"
	cfg.Kind = KindPractice
	return cfg
}

func newTestService(t *testing.T, store *MemoryStore, questions ...Question) *Service {
	t.Helper()
	if err := store.AddQuestions(questions...); err != nil {
		t.Fatalf("AddQuestions failed: %v", err)
	}
	return NewService(store, store, store, store, store,
		seeded(7),
		WithClock(tickingClock()),
		WithIDGenerator(sequentialIDs()),
	)
}

// staticQuestionStore returns a fixed slice regardless of filters.
type staticQuestionStore struct {
	questions []Question
	err       error

	findCalls          int
	lastIncludePremium bool
}

func (s *staticQuestionStore) FindEligible(_ context.Context, _ Scope, includePremium bool) ([]Question, error) {
	s.findCalls++
	s.lastIncludePremium = includePremium
	if s.err != nil {
		return nil, s.err
	}
	return append([]Question(nil), s.questions...), nil
}

func (s *staticQuestionStore) GetQuestion(_ context.Context, questionID string) (Question, error) {
	if s.err != nil {
		return Question{}, s.err
	}
	for _, question := range s.questions {
		if question.QuestionID == questionID {
			return question, nil
		}
	}
	return Question{}, ErrQuestionNotFound
}

type staticHistoryStore struct {
	records []HistoryRecord
	err     error

	calls           int
	lastUserID      string
	lastQuestionIDs []string
}

func (s *staticHistoryStore) GetUserHistory(_ context.Context, userID string, questionIDs []string) ([]HistoryRecord, error) {
	s.calls++
	s.lastUserID = userID
	s.lastQuestionIDs = questionIDs
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}
