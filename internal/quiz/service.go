package quiz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Service drives the attempt lifecycle. Calls for one attempt must be
// serialized by the caller; different attempts are independent.
type Service struct {
	questions    QuestionStore
	history      HistoryStore
	attempts     AttemptStore
	configs      ConfigStore
	entitlements EntitlementChecker

	selector *Selector
	exams    *PracticeExamBuilder
	rng      *lockedRand
	now      func() time.Time
	newID    func() string
}

func NewService(questions QuestionStore, history HistoryStore, attempts AttemptStore, configs ConfigStore, entitlements EntitlementChecker, opts ...Option) *Service {
	o := buildOptions(opts)
	return &Service{
		questions:    questions,
		history:      history,
		attempts:     attempts,
		configs:      configs,
		entitlements: entitlements,
		selector:     &Selector{questions: questions, history: history, rng: o.rng},
		exams:        &PracticeExamBuilder{questions: questions, rng: o.rng},
		rng:          o.rng,
		now:          o.now,
		newID:        o.newID,
	}
}

func (s *Service) Selector() *Selector { return s.selector }

func (s *Service) PracticeExams() *PracticeExamBuilder { return s.exams }

// StartQuiz loads the stored configuration for quizID and starts an attempt.
func (s *Service) StartQuiz(ctx context.Context, userID, quizID string) (Attempt, error) {
	if s.configs == nil {
		return Attempt{}, errors.New("quiz configuration store is not configured")
	}
	cfg, err := s.configs.GetQuizConfig(ctx, strings.TrimSpace(quizID))
	if err != nil {
		return Attempt{}, err
	}
	return s.Start(ctx, userID, cfg)
}

// Start creates an in-progress attempt. TotalQuestions is
// min(cfg.QuestionCount, 30, available). Adaptive quizzes with nothing
// available start with zero questions; practice exams with nothing available
// are completed immediately.
func (s *Service) Start(ctx context.Context, userID string, cfg QuizConfig) (Attempt, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Attempt{}, ErrInvalidUser
	}
	if err := cfg.Validate(); err != nil {
		return Attempt{}, err
	}

	isPremium, err := s.isPremium(ctx, userID)
	if err != nil {
		return Attempt{}, err
	}

	attempt := Attempt{
		AttemptID: s.newID(),
		UserID:    userID,
		QuizID:    cfg.QuizID,
		Config:    cfg,
		Status:    StatusInProgress,
		StartedAt: s.now(),
	}

	if cfg.Kind == KindPractice {
		planned, err := s.exams.Build(ctx, cfg.Scope, nil, cfg.ClampedCount(), cfg.AllowsPremium(isPremium))
		if err != nil {
			return Attempt{}, err
		}
		attempt.QuestionIDs = make([]string, 0, len(planned))
		for _, question := range planned {
			attempt.QuestionIDs = append(attempt.QuestionIDs, question.QuestionID)
		}
		attempt.TotalQuestions = len(planned)
		if attempt.TotalQuestions == 0 {
			completedAt := attempt.StartedAt
			attempt.Status = StatusCompleted
			attempt.CompletedAt = &completedAt
		}
	} else {
		pool, err := s.selector.SelectPool(ctx, cfg, userID, isPremium)
		if err != nil {
			return Attempt{}, err
		}
		attempt.TotalQuestions = len(pool)
	}

	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return Attempt{}, fmt.Errorf("create attempt: %w", err)
	}
	return attempt, nil
}

// NextQuestion returns the next question owed by the attempt, or false when
// nothing more is owed. Terminal attempts owe nothing.
func (s *Service) NextQuestion(ctx context.Context, attemptID string) (Question, bool, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return Question{}, false, err
	}
	if attempt.Status.Terminal() {
		return Question{}, false, nil
	}

	answered, err := s.answeredSet(ctx, attempt.AttemptID)
	if err != nil {
		return Question{}, false, err
	}
	if attempt.TotalQuestions-len(answered) <= 0 {
		return Question{}, false, nil
	}

	isPremium, err := s.isPremium(ctx, attempt.UserID)
	if err != nil {
		return Question{}, false, err
	}
	allowPremium := attempt.Config.AllowsPremium(isPremium)

	var remaining []Question
	if attempt.IsPractice() {
		remaining, err = s.remainingPlanned(ctx, attempt, answered, allowPremium)
	} else {
		remaining, err = s.remainingEligible(ctx, attempt, answered, allowPremium)
	}
	if err != nil {
		return Question{}, false, err
	}
	if len(remaining) == 0 {
		return Question{}, false, nil
	}

	if attempt.Config.RandomizeQuestions {
		return remaining[s.rng.Intn(len(remaining))], true, nil
	}
	return remaining[0], true, nil
}

// remainingPlanned keeps the practice plan order.
func (s *Service) remainingPlanned(ctx context.Context, attempt Attempt, answered map[string]struct{}, allowPremium bool) ([]Question, error) {
	out := make([]Question, 0, len(attempt.QuestionIDs))
	for _, questionID := range attempt.QuestionIDs {
		if _, done := answered[questionID]; done {
			continue
		}
		question, err := s.questions.GetQuestion(ctx, questionID)
		if errors.Is(err, ErrQuestionNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load planned question %s: %w", questionID, err)
		}
		out = append(out, question)
	}
	return filterServable(out, allowPremium), nil
}

// remainingEligible re-queries the bank so adaptive quizzes see fresh data,
// ordered by question ID.
func (s *Service) remainingEligible(ctx context.Context, attempt Attempt, answered map[string]struct{}, allowPremium bool) ([]Question, error) {
	eligible, err := s.questions.FindEligible(ctx, attempt.Config.EffectiveScope(), allowPremium)
	if err != nil {
		return nil, fmt.Errorf("find eligible questions: %w", err)
	}

	out := make([]Question, 0, len(eligible))
	for _, question := range filterServable(eligible, allowPremium) {
		if _, done := answered[question.QuestionID]; done {
			continue
		}
		out = append(out, question)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

// RecordAnswer scores sub and persists it. It never changes the attempt's
// status; completion is a separate call.
func (s *Service) RecordAnswer(ctx context.Context, attemptID, questionID string, sub Submission) (QuestionAttempt, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return QuestionAttempt{}, err
	}
	if attempt.Status.Terminal() {
		return QuestionAttempt{}, fmt.Errorf("%w: attempt %s is %s", ErrInvalidState, attempt.AttemptID, attempt.Status)
	}

	questionID = strings.TrimSpace(questionID)
	if attempt.IsPractice() && !containsID(attempt.QuestionIDs, questionID) {
		return QuestionAttempt{}, fmt.Errorf("%w: %s is not part of attempt %s", ErrQuestionNotFound, questionID, attempt.AttemptID)
	}

	question, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return QuestionAttempt{}, err
	}
	if err := s.checkServable(ctx, attempt, question); err != nil {
		return QuestionAttempt{}, err
	}

	answered, err := s.answeredSet(ctx, attempt.AttemptID)
	if err != nil {
		return QuestionAttempt{}, err
	}
	if _, dup := answered[question.QuestionID]; dup {
		return QuestionAttempt{}, ErrDuplicateAnswer
	}
	if len(answered) >= attempt.TotalQuestions {
		return QuestionAttempt{}, fmt.Errorf("%w: attempt %s already has %d answers", ErrInvalidState, attempt.AttemptID, len(answered))
	}

	correct, err := EvaluateSubmission(question, sub)
	if err != nil {
		return QuestionAttempt{}, err
	}

	timeSpent := sub.TimeSpentSeconds
	if timeSpent < 0 {
		timeSpent = 0
	}
	record := QuestionAttempt{
		AttemptID:        attempt.AttemptID,
		QuestionID:       question.QuestionID,
		UserID:           attempt.UserID,
		IsCorrect:        correct,
		TimeSpentSeconds: timeSpent,
		TimedOut:         sub.TimedOut,
		AnsweredAt:       s.now(),
	}
	switch question.Type {
	case TypeMultipleChoice:
		record.SelectedChoiceID = strings.TrimSpace(sub.ChoiceID)
	case TypeShortAnswer:
		record.TextAnswer = sub.Text
	}

	// The store's uniqueness on (attempt, question) is authoritative; the
	// check above only avoids a write in the common case.
	if err := s.attempts.SaveAnswer(ctx, record); err != nil {
		return QuestionAttempt{}, err
	}
	return record, nil
}

// checkServable rejects questions NextQuestion could not have served for the
// attempt: inactive ones, premium ones without a current entitlement, and for
// adaptive quizzes anything outside the configured scope.
func (s *Service) checkServable(ctx context.Context, attempt Attempt, question Question) error {
	if !question.Active {
		return fmt.Errorf("%w: %s is inactive", ErrQuestionNotFound, question.QuestionID)
	}
	if !attempt.IsPractice() && !attempt.Config.EffectiveScope().Matches(question) {
		return fmt.Errorf("%w: %s is outside quiz %s", ErrQuestionNotFound, question.QuestionID, attempt.QuizID)
	}
	if !question.Premium {
		return nil
	}
	isPremium, err := s.isPremium(ctx, attempt.UserID)
	if err != nil {
		return err
	}
	if !attempt.Config.AllowsPremium(isPremium) {
		return fmt.Errorf("%w: %s is not available to %s", ErrQuestionNotFound, question.QuestionID, attempt.UserID)
	}
	return nil
}

func (s *Service) Complete(ctx context.Context, attemptID string) (Attempt, error) {
	return s.finish(ctx, attemptID, StatusCompleted)
}

func (s *Service) TimeOut(ctx context.Context, attemptID string) (Attempt, error) {
	return s.finish(ctx, attemptID, StatusTimedOut)
}

func (s *Service) Abandon(ctx context.Context, attemptID string) (Attempt, error) {
	return s.finish(ctx, attemptID, StatusAbandoned)
}

// finish is a no-op on terminal attempts.
func (s *Service) finish(ctx context.Context, attemptID string, status AttemptStatus) (Attempt, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if attempt.Status.Terminal() {
		return attempt, nil
	}

	if _, err := s.attempts.FinishAttempt(ctx, attempt.AttemptID, status, s.now()); err != nil {
		return Attempt{}, fmt.Errorf("finish attempt %s: %w", attempt.AttemptID, err)
	}
	// Re-read so a concurrent finisher's status wins consistently.
	return s.attempts.GetAttempt(ctx, attempt.AttemptID)
}

func (s *Service) GetAttempt(ctx context.Context, attemptID string) (Attempt, error) {
	return s.attempts.GetAttempt(ctx, attemptID)
}

// Review lists the attempt's answers in the order they were given.
func (s *Service) Review(ctx context.Context, attemptID string) (Attempt, []QuestionAttempt, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, nil, err
	}
	answers, err := s.attempts.ListQuestionAttempts(ctx, attempt.AttemptID)
	if err != nil {
		return Attempt{}, nil, fmt.Errorf("list answers for %s: %w", attempt.AttemptID, err)
	}
	sort.SliceStable(answers, func(i, j int) bool { return answers[i].AnsweredAt.Before(answers[j].AnsweredAt) })
	return attempt, answers, nil
}

func (s *Service) Summary(ctx context.Context, attemptID string) (AttemptSummary, error) {
	attempt, answers, err := s.Review(ctx, attemptID)
	if err != nil {
		return AttemptSummary{}, err
	}

	timedOut := 0
	for _, answer := range answers {
		if answer.TimedOut {
			timedOut++
		}
	}
	return AttemptSummary{
		Attempt:         attempt,
		Answered:        len(answers),
		TimedOutAnswers: timedOut,
		ScorePercent:    attempt.ScorePercent(),
		Passed:          attempt.Passed(),
		Duration:        attempt.Duration(s.now()),
	}, nil
}

// PresentChoices orders a question's choices for display inside an attempt.
// Randomized orders are seeded by (attempt, question) and repeat on resume.
func (s *Service) PresentChoices(attempt Attempt, question Question) []Choice {
	if question.Type != TypeMultipleChoice {
		return []Choice{}
	}
	if !attempt.Config.RandomizeChoices {
		return append([]Choice(nil), question.Choices...)
	}
	seed := PresentationSeed(attempt.AttemptID, question.QuestionID)
	return ShuffleChoices(question, &seed)
}

func (s *Service) SaveQuizConfig(ctx context.Context, cfg QuizConfig) error {
	if s.configs == nil {
		return errors.New("quiz configuration store is not configured")
	}
	cfg.QuizID = strings.TrimSpace(cfg.QuizID)
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.configs.SaveQuizConfig(ctx, cfg)
}

func (s *Service) ListQuizConfigs(ctx context.Context, limit int) ([]QuizConfig, error) {
	if s.configs == nil {
		return nil, errors.New("quiz configuration store is not configured")
	}
	return s.configs.ListQuizConfigs(ctx, limit)
}

func (s *Service) isPremium(ctx context.Context, userID string) (bool, error) {
	if s.entitlements == nil {
		return false, nil
	}
	premium, err := s.entitlements.IsPremium(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("check entitlement for %s: %w", userID, err)
	}
	return premium, nil
}

func (s *Service) answeredSet(ctx context.Context, attemptID string) (map[string]struct{}, error) {
	answers, err := s.attempts.ListQuestionAttempts(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers for %s: %w", attemptID, err)
	}
	set := make(map[string]struct{}, len(answers))
	for _, answer := range answers {
		set[answer.QuestionID] = struct{}{}
	}
	return set, nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
