package quiz

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MaxQuestionsPerAttempt bounds every attempt regardless of configuration.
const MaxQuestionsPerAttempt = 30

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeShortAnswer    QuestionType = "short_answer"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Weight maps easy, medium and hard to 1, 2 and 3. Unknown values count as medium.
func (d Difficulty) Weight() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyHard:
		return 3
	default:
		return 2
	}
}

type Choice struct {
	ChoiceID  string `json:"choice_id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// AcceptableAnswer is one accepted text for a short-answer question. Non-exact
// answers compare case-insensitively after trimming surrounding whitespace.
type AcceptableAnswer struct {
	Text       string `json:"text"`
	ExactMatch bool   `json:"exact_match"`
}

type Question struct {
	QuestionID   string
	Text         string
	Type         QuestionType
	Difficulty   Difficulty
	Active       bool
	Premium      bool
	CurriculumID string
	ClassLevelID string
	SubjectID    string
	TopicID      string
	SubtopicID   string
	Explanation  string
	Choices      []Choice
	Answers      []AcceptableAnswer
}

// Validate checks the ownership invariants: a multiple-choice question has
// exactly one correct choice and no acceptable answers; a short-answer question
// has at least one acceptable answer and no choices.
func (q Question) Validate() error {
	if strings.TrimSpace(q.QuestionID) == "" {
		return fmt.Errorf("%w: question id is required", ErrInvalidQuestion)
	}

	switch q.Type {
	case TypeMultipleChoice:
		if len(q.Answers) > 0 {
			return fmt.Errorf("%w: %s: multiple-choice question has acceptable answers", ErrInvalidQuestion, q.QuestionID)
		}
		correct := 0
		seen := make(map[string]struct{}, len(q.Choices))
		for _, choice := range q.Choices {
			if _, dup := seen[choice.ChoiceID]; dup || choice.ChoiceID == "" {
				return fmt.Errorf("%w: %s: choice ids must be unique and non-empty", ErrInvalidQuestion, q.QuestionID)
			}
			seen[choice.ChoiceID] = struct{}{}
			if choice.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("%w: %s: expected exactly one correct choice, got %d", ErrInvalidQuestion, q.QuestionID, correct)
		}
	case TypeShortAnswer:
		if len(q.Choices) > 0 {
			return fmt.Errorf("%w: %s: short-answer question has choices", ErrInvalidQuestion, q.QuestionID)
		}
		if len(q.Answers) == 0 {
			return fmt.Errorf("%w: %s: short-answer question needs an acceptable answer", ErrInvalidQuestion, q.QuestionID)
		}
	default:
		return fmt.Errorf("%w: %s: unknown type %q", ErrInvalidQuestion, q.QuestionID, q.Type)
	}
	return nil
}

func (q Question) choice(choiceID string) (Choice, bool) {
	for _, choice := range q.Choices {
		if choice.ChoiceID == choiceID {
			return choice, true
		}
	}
	return Choice{}, false
}

type QuizKind string

const (
	KindGeneral  QuizKind = "general"
	KindTopic    QuizKind = "topic"
	KindPractice QuizKind = "practice"
)

// Scope selects the slice of the bank a quiz draws from. Empty fields match
// everything. TopicIDs only restrict topic and practice quizzes.
type Scope struct {
	CurriculumID string   `json:"curriculum_id,omitempty"`
	ClassLevelID string   `json:"class_level_id,omitempty"`
	SubjectID    string   `json:"subject_id,omitempty"`
	TopicIDs     []string `json:"topic_ids,omitempty"`
}

// Matches reports whether q belongs to the scope. Activity and premium
// filtering are separate.
func (s Scope) Matches(q Question) bool {
	if s.CurriculumID != "" && q.CurriculumID != s.CurriculumID {
		return false
	}
	if s.ClassLevelID != "" && q.ClassLevelID != s.ClassLevelID {
		return false
	}
	if s.SubjectID != "" && q.SubjectID != s.SubjectID {
		return false
	}
	if len(s.TopicIDs) == 0 {
		return true
	}
	for _, topicID := range s.TopicIDs {
		if q.TopicID == topicID {
			return true
		}
	}
	return false
}

type QuizConfig struct {
	QuizID             string   `json:"quiz_id" validate:"required"`
	Title              string   `json:"title"`
	Kind               QuizKind `json:"kind" validate:"required,oneof=general topic practice"`
	Scope              Scope    `json:"scope"`
	QuestionCount      int      `json:"question_count" validate:"gte=0"`
	TimeLimitSeconds   int      `json:"time_limit_seconds" validate:"gte=0"`
	RandomizeQuestions bool     `json:"randomize_questions"`
	RandomizeChoices   bool     `json:"randomize_choices"`
	PassingScore       int      `json:"passing_score" validate:"gte=0,lte=100"`
	IncludePremium     bool     `json:"include_premium"`
}

var configValidator = validator.New()

func (c QuizConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Kind == KindTopic && len(c.Scope.TopicIDs) == 0 {
		return fmt.Errorf("%w: topic quiz needs at least one topic", ErrInvalidConfig)
	}
	return nil
}

// ClampedCount is the configured question count bounded by MaxQuestionsPerAttempt.
func (c QuizConfig) ClampedCount() int {
	return clampCount(c.QuestionCount)
}

// EffectiveScope drops the topic filter from general quizzes.
func (c QuizConfig) EffectiveScope() Scope {
	scope := c.Scope
	if c.Kind == KindGeneral {
		scope.TopicIDs = nil
	}
	return scope
}

// AllowsPremium reports whether premium questions are eligible for this user.
func (c QuizConfig) AllowsPremium(isPremiumUser bool) bool {
	return c.IncludePremium && isPremiumUser
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxQuestionsPerAttempt {
		return MaxQuestionsPerAttempt
	}
	return n
}

type AttemptStatus string

const (
	StatusInProgress AttemptStatus = "in_progress"
	StatusCompleted  AttemptStatus = "completed"
	StatusTimedOut   AttemptStatus = "timed_out"
	StatusAbandoned  AttemptStatus = "abandoned"
)

func (s AttemptStatus) String() string { return string(s) }

func (s AttemptStatus) Valid() bool {
	switch s {
	case StatusInProgress, StatusCompleted, StatusTimedOut, StatusAbandoned:
		return true
	default:
		return false
	}
}

func (s AttemptStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusTimedOut || s == StatusAbandoned
}

func (s *AttemptStatus) Scan(value any) error {
	switch v := value.(type) {
	case string:
		*s = AttemptStatus(v)
	case []byte:
		*s = AttemptStatus(string(v))
	default:
		return fmt.Errorf("unsupported type for AttemptStatus: %T", value)
	}
	if !s.Valid() {
		return fmt.Errorf("invalid AttemptStatus: %q", *s)
	}
	return nil
}

func (s AttemptStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid AttemptStatus: %q", s)
	}
	return string(s), nil
}

type Attempt struct {
	AttemptID      string
	UserID         string
	QuizID         string
	Config         QuizConfig
	Status         AttemptStatus
	StartedAt      time.Time
	CompletedAt    *time.Time
	TotalQuestions int
	CorrectAnswers int
	// QuestionIDs is the fixed plan of a practice exam; empty for adaptive quizzes.
	QuestionIDs []string
}

// ScorePercent is round(100 * correct / total), 0 when the attempt has no questions.
func (a Attempt) ScorePercent() int {
	if a.TotalQuestions <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(a.CorrectAnswers) / float64(a.TotalQuestions)))
}

func (a Attempt) Passed() bool {
	return a.ScorePercent() >= a.Config.PassingScore
}

// Duration runs from start to completion, or to now while in progress.
func (a Attempt) Duration(now time.Time) time.Duration {
	end := now
	if a.CompletedAt != nil {
		end = *a.CompletedAt
	}
	if end.Before(a.StartedAt) {
		return 0
	}
	return end.Sub(a.StartedAt)
}

func (a Attempt) IsPractice() bool {
	return a.Config.Kind == KindPractice
}

type QuestionAttempt struct {
	AttemptID        string
	QuestionID       string
	UserID           string
	SelectedChoiceID string
	TextAnswer       string
	IsCorrect        bool
	TimeSpentSeconds int
	TimedOut         bool
	AnsweredAt       time.Time
}

type HistoryRecord struct {
	QuestionID string
	WasCorrect bool
	AnsweredAt time.Time
}

// Submission is what a learner sends for a served question. ChoiceID applies to
// multiple-choice questions and Text to short-answer ones.
type Submission struct {
	ChoiceID         string
	Text             string
	TimeSpentSeconds int
	TimedOut         bool
}

type AttemptSummary struct {
	Attempt         Attempt
	Answered        int
	TimedOutAnswers int
	ScorePercent    int
	Passed          bool
	Duration        time.Duration
}
