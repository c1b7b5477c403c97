package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"adaptive-quiz/internal/quiz"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
		_ = os.Remove(path)
		_ = os.Remove(path + "-journal")
	})
	return store
}

func sampleQuestions() []quiz.Question {
	return []quiz.Question{
		{
			QuestionID:   "q1",
			Text:         "2+2?",
			Type:         quiz.TypeMultipleChoice,
			Difficulty:   quiz.DifficultyEasy,
			Active:       true,
			CurriculumID: "cur",
			SubjectID:    "math",
			TopicID:      "arithmetic",
			Choices: []quiz.Choice{
				{ChoiceID: "a", Text: "4", IsCorrect: true},
				{ChoiceID: "b", Text: "3"},
			},
		},
		{
			QuestionID:   "q2",
			Text:         "Capital of Ghana?",
			Type:         quiz.TypeShortAnswer,
			Difficulty:   quiz.DifficultyMedium,
			Active:       true,
			CurriculumID: "cur",
			SubjectID:    "geo",
			TopicID:      "capitals",
			Explanation:  "Accra has been the capital since 1877.",
			Answers:      []quiz.AcceptableAnswer{{Text: "Accra"}},
		},
		{
			QuestionID:   "q3",
			Text:         "Integral of x?",
			Type:         quiz.TypeMultipleChoice,
			Difficulty:   quiz.DifficultyHard,
			Active:       true,
			Premium:      true,
			CurriculumID: "cur",
			SubjectID:    "math",
			TopicID:      "calculus",
			Choices: []quiz.Choice{
				{ChoiceID: "a", Text: "x^2/2", IsCorrect: true},
				{ChoiceID: "b", Text: "x"},
			},
		},
		{
			QuestionID:   "q4",
			Text:         "Retired question",
			Type:         quiz.TypeMultipleChoice,
			Difficulty:   quiz.DifficultyEasy,
			Active:       false,
			CurriculumID: "cur",
			SubjectID:    "math",
			TopicID:      "arithmetic",
			Choices:      []quiz.Choice{{ChoiceID: "a", Text: "yes", IsCorrect: true}},
		},
	}
}

func questionIDs(questions []quiz.Question) []string {
	out := make([]string, 0, len(questions))
	for _, question := range questions {
		out = append(out, question.QuestionID)
	}
	return out
}

func seedQuestions(t *testing.T, store *SQLiteStore) {
	t.Helper()
	if err := store.UpsertQuestions(context.Background(), sampleQuestions()); err != nil {
		t.Fatalf("UpsertQuestions failed: %v", err)
	}
}

func TestSQLiteStoreQuestionRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	seedQuestions(t, store)

	got, err := store.GetQuestion(ctx, "q2")
	if err != nil {
		t.Fatalf("GetQuestion failed: %v", err)
	}
	want := sampleQuestions()[1]
	if got.Text != want.Text || got.Type != want.Type || got.Difficulty != want.Difficulty || got.Explanation != want.Explanation {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
	if got.SubjectID != "geo" || got.TopicID != "capitals" || !got.Active || got.Premium {
		t.Fatalf("scope fields not preserved: %+v", got)
	}
	if !reflect.DeepEqual(got.Answers, want.Answers) || len(got.Choices) != 0 {
		t.Fatalf("answers/choices mismatch: %+v", got)
	}

	if _, err := store.GetQuestion(ctx, "missing"); !errors.Is(err, quiz.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}

	count, err := store.CountQuestions(ctx)
	if err != nil || count != 4 {
		t.Fatalf("CountQuestions = %d, %v; want 4", count, err)
	}

	// Re-importing is an upsert, not a duplicate.
	updated := sampleQuestions()[:1]
	updated[0].Text = "Two plus two?"
	if err := store.UpsertQuestions(ctx, updated); err != nil {
		t.Fatalf("UpsertQuestions update failed: %v", err)
	}
	got, _ = store.GetQuestion(ctx, "q1")
	if got.Text != "Two plus two?" {
		t.Fatalf("expected updated prompt, got %q", got.Text)
	}
	if count, _ := store.CountQuestions(ctx); count != 4 {
		t.Fatalf("expected 4 questions after upsert, got %d", count)
	}
}

func TestSQLiteStoreRejectsInvalidQuestions(t *testing.T) {
	store := newTestSQLiteStore(t)

	invalid := quiz.Question{QuestionID: "bad", Type: quiz.TypeMultipleChoice, Choices: []quiz.Choice{{ChoiceID: "a"}}}
	if err := store.UpsertQuestions(context.Background(), []quiz.Question{invalid}); !errors.Is(err, quiz.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
}

func TestSQLiteStoreFindEligible(t *testing.T) {
	store := newTestSQLiteStore(t)
	seedQuestions(t, store)

	tests := []struct {
		name           string
		scope          quiz.Scope
		includePremium bool
		want           []string
	}{
		{name: "whole bank free", scope: quiz.Scope{}, want: []string{"q1", "q2"}},
		{name: "whole bank premium", scope: quiz.Scope{}, includePremium: true, want: []string{"q1", "q2", "q3"}},
		{name: "subject", scope: quiz.Scope{SubjectID: "math"}, includePremium: true, want: []string{"q1", "q3"}},
		{name: "topics", scope: quiz.Scope{TopicIDs: []string{"capitals", "calculus"}}, includePremium: true, want: []string{"q2", "q3"}},
		{name: "no match", scope: quiz.Scope{CurriculumID: "other"}, want: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.FindEligible(context.Background(), tc.scope, tc.includePremium)
			if err != nil {
				t.Fatalf("FindEligible failed: %v", err)
			}
			if ids := questionIDs(got); !reflect.DeepEqual(ids, tc.want) {
				t.Fatalf("FindEligible = %v, want %v", ids, tc.want)
			}
		})
	}
}

func TestSQLiteStoreAttemptLifecycle(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	seedQuestions(t, store)

	startedAt := time.Unix(1700000000, 123).UTC()
	attempt := quiz.Attempt{
		AttemptID: "attempt-1",
		UserID:    "alice",
		QuizID:    "exam-1",
		Config: quiz.QuizConfig{
			QuizID:        "exam-1",
			Kind:          quiz.KindPractice,
			QuestionCount: 2,
			PassingScore:  60,
		},
		Status:         quiz.StatusInProgress,
		StartedAt:      startedAt,
		TotalQuestions: 2,
		QuestionIDs:    []string{"q2", "q1"},
	}
	if err := store.CreateAttempt(ctx, attempt); err != nil {
		t.Fatalf("CreateAttempt failed: %v", err)
	}

	got, err := store.GetAttempt(ctx, "attempt-1")
	if err != nil {
		t.Fatalf("GetAttempt failed: %v", err)
	}
	if !reflect.DeepEqual(got, attempt) {
		t.Fatalf("attempt mismatch:\n got %+v\nwant %+v", got, attempt)
	}

	answer := quiz.QuestionAttempt{
		AttemptID:        "attempt-1",
		QuestionID:       "q2",
		UserID:           "alice",
		TextAnswer:       "accra",
		IsCorrect:        true,
		TimeSpentSeconds: 12,
		AnsweredAt:       startedAt.Add(time.Minute),
	}
	if err := store.SaveAnswer(ctx, answer); err != nil {
		t.Fatalf("SaveAnswer failed: %v", err)
	}

	duplicate := answer
	duplicate.TextAnswer = "kumasi"
	duplicate.IsCorrect = true
	if err := store.SaveAnswer(ctx, duplicate); !errors.Is(err, quiz.ErrDuplicateAnswer) {
		t.Fatalf("expected ErrDuplicateAnswer, got %v", err)
	}

	wrong := quiz.QuestionAttempt{
		AttemptID:        "attempt-1",
		QuestionID:       "q1",
		UserID:           "alice",
		SelectedChoiceID: "b",
		TimedOut:         true,
		AnsweredAt:       startedAt.Add(2 * time.Minute),
	}
	if err := store.SaveAnswer(ctx, wrong); err != nil {
		t.Fatalf("SaveAnswer wrong failed: %v", err)
	}

	got, _ = store.GetAttempt(ctx, "attempt-1")
	if got.CorrectAnswers != 1 {
		t.Fatalf("correct = %d, want 1", got.CorrectAnswers)
	}

	answers, err := store.ListQuestionAttempts(ctx, "attempt-1")
	if err != nil {
		t.Fatalf("ListQuestionAttempts failed: %v", err)
	}
	if !reflect.DeepEqual(answers, []quiz.QuestionAttempt{answer, wrong}) {
		t.Fatalf("answers mismatch:\n got %+v", answers)
	}

	completedAt := startedAt.Add(3 * time.Minute)
	changed, err := store.FinishAttempt(ctx, "attempt-1", quiz.StatusCompleted, completedAt)
	if err != nil || !changed {
		t.Fatalf("FinishAttempt = %v, %v; want true", changed, err)
	}
	changed, err = store.FinishAttempt(ctx, "attempt-1", quiz.StatusAbandoned, completedAt.Add(time.Hour))
	if err != nil || changed {
		t.Fatalf("second FinishAttempt = %v, %v; want false", changed, err)
	}

	got, _ = store.GetAttempt(ctx, "attempt-1")
	if got.Status != quiz.StatusCompleted || got.CompletedAt == nil || !got.CompletedAt.Equal(completedAt) {
		t.Fatalf("terminal state changed: %+v", got)
	}

	finished, err := store.ListFinishedAttempts(ctx, "exam-1")
	if err != nil || len(finished) != 1 || finished[0].AttemptID != "attempt-1" {
		t.Fatalf("ListFinishedAttempts = %+v, %v", finished, err)
	}
}

func TestSQLiteStoreMissingAttempt(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, err := store.GetAttempt(ctx, "missing"); !errors.Is(err, quiz.ErrAttemptNotFound) {
		t.Fatalf("GetAttempt: expected ErrAttemptNotFound, got %v", err)
	}
	if _, err := store.FinishAttempt(ctx, "missing", quiz.StatusCompleted, time.Now()); !errors.Is(err, quiz.ErrAttemptNotFound) {
		t.Fatalf("FinishAttempt: expected ErrAttemptNotFound, got %v", err)
	}
}

func TestSQLiteStoreUserHistory(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	seedQuestions(t, store)

	base := time.Unix(1700000000, 0).UTC()
	for _, id := range []string{"a1", "a2", "b1"} {
		userID := "alice"
		if id == "b1" {
			userID = "bob"
		}
		if err := store.CreateAttempt(ctx, quiz.Attempt{
			AttemptID:      id,
			UserID:         userID,
			QuizID:         "quiz-1",
			Config:         quiz.QuizConfig{QuizID: "quiz-1", Kind: quiz.KindGeneral, QuestionCount: 3},
			Status:         quiz.StatusInProgress,
			StartedAt:      base,
			TotalQuestions: 3,
		}); err != nil {
			t.Fatalf("CreateAttempt(%s) failed: %v", id, err)
		}
	}

	answers := []quiz.QuestionAttempt{
		{AttemptID: "a2", QuestionID: "q1", UserID: "alice", IsCorrect: true, AnsweredAt: base.Add(3 * time.Minute)},
		{AttemptID: "a1", QuestionID: "q1", UserID: "alice", IsCorrect: false, AnsweredAt: base.Add(time.Minute)},
		{AttemptID: "a1", QuestionID: "q2", UserID: "alice", IsCorrect: true, AnsweredAt: base.Add(2 * time.Minute)},
		{AttemptID: "b1", QuestionID: "q1", UserID: "bob", IsCorrect: true, AnsweredAt: base},
	}
	for _, answer := range answers {
		if err := store.SaveAnswer(ctx, answer); err != nil {
			t.Fatalf("SaveAnswer failed: %v", err)
		}
	}

	history, err := store.GetUserHistory(ctx, "alice", []string{"q1", "q3"})
	if err != nil {
		t.Fatalf("GetUserHistory failed: %v", err)
	}
	want := []quiz.HistoryRecord{
		{QuestionID: "q1", WasCorrect: false, AnsweredAt: base.Add(time.Minute)},
		{QuestionID: "q1", WasCorrect: true, AnsweredAt: base.Add(3 * time.Minute)},
	}
	if !reflect.DeepEqual(history, want) {
		t.Fatalf("history = %+v, want %+v", history, want)
	}

	empty, err := store.GetUserHistory(ctx, "alice", nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty history for no questions, got %v, %v", empty, err)
	}
}

func TestSQLiteStoreQuizConfigs(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	cfg := quiz.QuizConfig{
		QuizID:             "topic-1",
		Title:              "Capitals",
		Kind:               quiz.KindTopic,
		Scope:              quiz.Scope{SubjectID: "geo", TopicIDs: []string{"capitals"}},
		QuestionCount:      10,
		TimeLimitSeconds:   300,
		RandomizeQuestions: true,
		RandomizeChoices:   true,
		PassingScore:       70,
		IncludePremium:     true,
	}
	if err := store.SaveQuizConfig(ctx, cfg); err != nil {
		t.Fatalf("SaveQuizConfig failed: %v", err)
	}

	got, err := store.GetQuizConfig(ctx, "topic-1")
	if err != nil {
		t.Fatalf("GetQuizConfig failed: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Fatalf("config mismatch:\n got %+v\nwant %+v", got, cfg)
	}

	if _, err := store.GetQuizConfig(ctx, "missing"); !errors.Is(err, quiz.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}

	listed, err := store.ListQuizConfigs(ctx, 0)
	if err != nil || len(listed) != 1 || listed[0].QuizID != "topic-1" {
		t.Fatalf("ListQuizConfigs = %+v, %v", listed, err)
	}
}

func TestSQLiteStorePremiumGrants(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	check := func(userID string, want bool) {
		t.Helper()
		got, err := store.IsPremium(ctx, userID)
		if err != nil {
			t.Fatalf("IsPremium(%s) failed: %v", userID, err)
		}
		if got != want {
			t.Fatalf("IsPremium(%s) = %v, want %v", userID, got, want)
		}
	}

	check("alice", false)

	if err := store.GrantPremium(ctx, "alice", nil); err != nil {
		t.Fatalf("GrantPremium failed: %v", err)
	}
	check("alice", true)

	expired := time.Now().Add(-time.Hour)
	if err := store.GrantPremium(ctx, "bob", &expired); err != nil {
		t.Fatalf("GrantPremium expired failed: %v", err)
	}
	check("bob", false)

	future := time.Now().Add(time.Hour)
	if err := store.GrantPremium(ctx, "bob", &future); err != nil {
		t.Fatalf("GrantPremium renew failed: %v", err)
	}
	check("bob", true)

	if err := store.RevokePremium(ctx, "alice"); err != nil {
		t.Fatalf("RevokePremium failed: %v", err)
	}
	check("alice", false)

	if err := store.GrantPremium(ctx, " ", nil); err == nil {
		t.Fatalf("expected error for blank user id")
	}
}

func TestSQLiteStoreDrivesService(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	seedQuestions(t, store)
	if err := store.GrantPremium(ctx, "alice", nil); err != nil {
		t.Fatalf("GrantPremium failed: %v", err)
	}

	svc := quiz.NewService(store, store, store, store, store)
	cfg := quiz.QuizConfig{QuizID: "math-1", Kind: quiz.KindGeneral, Scope: quiz.Scope{SubjectID: "math"}, QuestionCount: 5, IncludePremium: true}

	attempt, err := svc.Start(ctx, "alice", cfg)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if attempt.TotalQuestions != 2 {
		t.Fatalf("total = %d, want 2", attempt.TotalQuestions)
	}

	for {
		question, ok, err := svc.NextQuestion(ctx, attempt.AttemptID)
		if err != nil {
			t.Fatalf("NextQuestion failed: %v", err)
		}
		if !ok {
			break
		}
		if _, err := svc.RecordAnswer(ctx, attempt.AttemptID, question.QuestionID, quiz.Submission{ChoiceID: "a"}); err != nil {
			t.Fatalf("RecordAnswer failed: %v", err)
		}
	}

	completed, err := svc.Complete(ctx, attempt.AttemptID)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if completed.ScorePercent() != 100 || completed.Status != quiz.StatusCompleted {
		t.Fatalf("unexpected completed attempt: %+v", completed)
	}

	board, err := svc.Leaderboard(ctx, "math-1", 10)
	if err != nil || len(board) != 1 || board[0].UserID != "alice" {
		t.Fatalf("Leaderboard = %+v, %v", board, err)
	}
}
