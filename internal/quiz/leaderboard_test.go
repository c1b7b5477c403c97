package quiz

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type failingAttemptStore struct {
	*MemoryStore
	err error
}

func (f failingAttemptStore) ListFinishedAttempts(context.Context, string) ([]Attempt, error) {
	return nil, f.err
}

func finishedAttempt(id, userID, quizID string, status AttemptStatus, correct, total int, completedAt time.Time) Attempt {
	return Attempt{
		AttemptID:      id,
		UserID:         userID,
		QuizID:         quizID,
		Config:         generalConfig(total),
		Status:         status,
		StartedAt:      completedAt.Add(-time.Minute),
		CompletedAt:    &completedAt,
		TotalQuestions: total,
		CorrectAnswers: correct,
	}
}

func TestLeaderboardRanksBestCompletedAttemptPerUser(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	attempts := []Attempt{
		finishedAttempt("a1", "alice", "quiz-1", StatusCompleted, 2, 4, base),
		finishedAttempt("a2", "alice", "quiz-1", StatusCompleted, 4, 4, base.Add(time.Hour)),
		finishedAttempt("b1", "bob", "quiz-1", StatusCompleted, 4, 4, base.Add(30*time.Minute)),
		finishedAttempt("c1", "carol", "quiz-1", StatusTimedOut, 4, 4, base),
		finishedAttempt("d1", "dave", "quiz-1", StatusCompleted, 3, 4, base),
		finishedAttempt("e1", "erin", "quiz-2", StatusCompleted, 4, 4, base),
	}
	for _, attempt := range attempts {
		if err := store.CreateAttempt(context.Background(), attempt); err != nil {
			t.Fatalf("CreateAttempt failed: %v", err)
		}
	}
	svc := newTestService(t, store)

	entries, err := svc.Leaderboard(context.Background(), "quiz-1", 0)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}

	got := make([]string, 0, len(entries))
	for _, entry := range entries {
		got = append(got, entry.UserID+":"+entry.AttemptID)
	}
	// bob finished his perfect run before alice did.
	want := []string{"bob:b1", "alice:a2", "dave:d1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("leaderboard = %v, want %v", got, want)
	}
	if entries[2].ScorePercent != 75 || entries[2].Correct != 3 || entries[2].Total != 4 {
		t.Fatalf("unexpected entry: %+v", entries[2])
	}

	limited, err := svc.Leaderboard(context.Background(), "quiz-1", 2)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	if len(limited) != 2 || limited[0].UserID != "bob" {
		t.Fatalf("unexpected limited leaderboard: %+v", limited)
	}
}

func TestLeaderboardBreaksFullTiesByUserID(t *testing.T) {
	a := LeaderboardEntry{UserID: "amy", ScorePercent: 80}
	b := LeaderboardEntry{UserID: "ben", ScorePercent: 80}

	if !leaderboardBefore(a, b) || leaderboardBefore(b, a) {
		t.Fatalf("expected lexical user order on full tie")
	}
}

func TestLeaderboardPropagatesStoreError(t *testing.T) {
	store := NewMemoryStore()
	attempts := failingAttemptStore{MemoryStore: store, err: errStoreDown}
	svc := NewService(store, store, attempts, store, store)

	if _, err := svc.Leaderboard(context.Background(), "quiz-1", 5); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestApplyLeaderboardLimit(t *testing.T) {
	entries := []LeaderboardEntry{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}}

	tests := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: 3},
		{limit: -1, want: 3},
		{limit: 2, want: 2},
		{limit: 10, want: 3},
	}
	for _, tc := range tests {
		if got := len(applyLeaderboardLimit(entries, tc.limit)); got != tc.want {
			t.Fatalf("applyLeaderboardLimit(%d) returned %d entries, want %d", tc.limit, got, tc.want)
		}
	}
}
