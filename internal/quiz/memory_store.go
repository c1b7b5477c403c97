package quiz

import (
	"context"
	"sort"
	"sync"
	"time"
)

var (
	_ QuestionStore      = (*MemoryStore)(nil)
	_ HistoryStore       = (*MemoryStore)(nil)
	_ AttemptStore       = (*MemoryStore)(nil)
	_ ConfigStore        = (*MemoryStore)(nil)
	_ EntitlementChecker = (*MemoryStore)(nil)
)

// MemoryStore keeps the bank, attempts and entitlements in process memory.
// It implements every store interface the Service consumes.
type MemoryStore struct {
	mu sync.Mutex

	questions map[string]Question
	configs   map[string]QuizConfig
	attempts  map[string]Attempt
	// answers per attempt, in insertion order.
	answers map[string][]QuestionAttempt
	premium map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		questions: make(map[string]Question),
		configs:   make(map[string]QuizConfig),
		attempts:  make(map[string]Attempt),
		answers:   make(map[string][]QuestionAttempt),
		premium:   make(map[string]bool),
	}
}

// AddQuestions validates and stores questions, replacing any with the same ID.
func (m *MemoryStore) AddQuestions(questions ...Question) error {
	for _, question := range questions {
		if err := question.Validate(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, question := range questions {
		m.questions[question.QuestionID] = cloneQuestion(question)
	}
	return nil
}

func (m *MemoryStore) SetPremium(userID string, premium bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.premium[userID] = premium
}

func (m *MemoryStore) IsPremium(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.premium[userID], nil
}

func (m *MemoryStore) FindEligible(_ context.Context, scope Scope, includePremium bool) ([]Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Question, 0)
	for _, question := range m.questions {
		if !question.Active || (question.Premium && !includePremium) || !scope.Matches(question) {
			continue
		}
		out = append(out, cloneQuestion(question))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (m *MemoryStore) GetQuestion(_ context.Context, questionID string) (Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	question, ok := m.questions[questionID]
	if !ok {
		return Question{}, ErrQuestionNotFound
	}
	return cloneQuestion(question), nil
}

func (m *MemoryStore) GetUserHistory(_ context.Context, userID string, questionIDs []string) ([]HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		wanted[id] = struct{}{}
	}

	history := make([]HistoryRecord, 0)
	for _, answers := range m.answers {
		for _, answer := range answers {
			if answer.UserID != userID {
				continue
			}
			if _, ok := wanted[answer.QuestionID]; !ok {
				continue
			}
			history = append(history, HistoryRecord{
				QuestionID: answer.QuestionID,
				WasCorrect: answer.IsCorrect,
				AnsweredAt: answer.AnsweredAt,
			})
		}
	}
	sort.SliceStable(history, func(i, j int) bool { return history[i].AnsweredAt.Before(history[j].AnsweredAt) })
	return history, nil
}

func (m *MemoryStore) CreateAttempt(_ context.Context, attempt Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[attempt.AttemptID] = cloneAttempt(attempt)
	return nil
}

func (m *MemoryStore) GetAttempt(_ context.Context, attemptID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	attempt, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return cloneAttempt(attempt), nil
}

func (m *MemoryStore) FinishAttempt(_ context.Context, attemptID string, status AttemptStatus, completedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	attempt, ok := m.attempts[attemptID]
	if !ok {
		return false, ErrAttemptNotFound
	}
	if attempt.Status.Terminal() {
		return false, nil
	}
	attempt.Status = status
	attempt.CompletedAt = &completedAt
	m.attempts[attemptID] = attempt
	return true, nil
}

func (m *MemoryStore) SaveAnswer(_ context.Context, answer QuestionAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	attempt, ok := m.attempts[answer.AttemptID]
	if !ok {
		return ErrAttemptNotFound
	}
	for _, existing := range m.answers[answer.AttemptID] {
		if existing.QuestionID == answer.QuestionID {
			return ErrDuplicateAnswer
		}
	}

	m.answers[answer.AttemptID] = append(m.answers[answer.AttemptID], answer)
	if answer.IsCorrect {
		attempt.CorrectAnswers++
		m.attempts[answer.AttemptID] = attempt
	}
	return nil
}

func (m *MemoryStore) ListQuestionAttempts(_ context.Context, attemptID string) ([]QuestionAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]QuestionAttempt(nil), m.answers[attemptID]...), nil
}

func (m *MemoryStore) ListFinishedAttempts(_ context.Context, quizID string) ([]Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Attempt, 0)
	for _, attempt := range m.attempts {
		if attempt.QuizID == quizID && attempt.Status.Terminal() {
			out = append(out, cloneAttempt(attempt))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptID < out[j].AttemptID })
	return out, nil
}

func (m *MemoryStore) SaveQuizConfig(_ context.Context, cfg QuizConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg.Scope.TopicIDs = append([]string(nil), cfg.Scope.TopicIDs...)
	m.configs[cfg.QuizID] = cfg
	return nil
}

func (m *MemoryStore) GetQuizConfig(_ context.Context, quizID string) (QuizConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, ok := m.configs[quizID]
	if !ok {
		return QuizConfig{}, ErrQuizNotFound
	}
	cfg.Scope.TopicIDs = append([]string(nil), cfg.Scope.TopicIDs...)
	return cfg, nil
}

func (m *MemoryStore) ListQuizConfigs(_ context.Context, limit int) ([]QuizConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]QuizConfig, 0, len(m.configs))
	for _, cfg := range m.configs {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuizID < out[j].QuizID })
	if limit > 0 && limit < len(out) {
		return out[:limit], nil
	}
	return out, nil
}

func cloneQuestion(q Question) Question {
	q.Choices = append([]Choice(nil), q.Choices...)
	q.Answers = append([]AcceptableAnswer(nil), q.Answers...)
	return q
}

func cloneAttempt(a Attempt) Attempt {
	a.QuestionIDs = append([]string(nil), a.QuestionIDs...)
	a.Config.Scope.TopicIDs = append([]string(nil), a.Config.Scope.TopicIDs...)
	if a.CompletedAt != nil {
		completedAt := *a.CompletedAt
		a.CompletedAt = &completedAt
	}
	return a
}
