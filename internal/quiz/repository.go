package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrQuizNotFound     = fmt.Errorf("quiz %w", ErrNotFound)
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	ErrAttemptNotFound  = fmt.Errorf("attempt %w", ErrNotFound)
	ErrChoiceNotFound   = fmt.Errorf("choice %w", ErrNotFound)

	ErrDuplicateAnswer = errors.New("question already answered in this attempt")
	ErrInvalidState    = errors.New("attempt is not in progress")
	ErrInvalidQuestion = errors.New("invalid question")
	ErrInvalidConfig   = errors.New("invalid quiz configuration")
	ErrInvalidUser     = errors.New("invalid user")
)

// QuestionStore is read-only access to the question bank.
type QuestionStore interface {
	// FindEligible returns active questions matching scope, ordered by question ID.
	// Premium questions are returned only when includePremium is true.
	FindEligible(ctx context.Context, scope Scope, includePremium bool) ([]Question, error)
	GetQuestion(ctx context.Context, questionID string) (Question, error)
}

type HistoryStore interface {
	GetUserHistory(ctx context.Context, userID string, questionIDs []string) ([]HistoryRecord, error)
}

type AttemptStore interface {
	CreateAttempt(ctx context.Context, attempt Attempt) error
	GetAttempt(ctx context.Context, attemptID string) (Attempt, error)
	// FinishAttempt moves an in-progress attempt to a terminal status. It reports
	// false without error when the attempt was already terminal.
	FinishAttempt(ctx context.Context, attemptID string, status AttemptStatus, completedAt time.Time) (bool, error)
	// SaveAnswer inserts the question attempt and bumps the parent's correct
	// counter atomically. (attempt, question) is unique; a second insert fails
	// with ErrDuplicateAnswer and changes nothing.
	SaveAnswer(ctx context.Context, answer QuestionAttempt) error
	ListQuestionAttempts(ctx context.Context, attemptID string) ([]QuestionAttempt, error)
	ListFinishedAttempts(ctx context.Context, quizID string) ([]Attempt, error)
}

type ConfigStore interface {
	SaveQuizConfig(ctx context.Context, cfg QuizConfig) error
	GetQuizConfig(ctx context.Context, quizID string) (QuizConfig, error)
	ListQuizConfigs(ctx context.Context, limit int) ([]QuizConfig, error)
}

// EntitlementChecker answers whether a user currently holds premium access.
type EntitlementChecker interface {
	IsPremium(ctx context.Context, userID string) (bool, error)
}
