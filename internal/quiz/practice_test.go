package quiz

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
)

func TestPracticeBuildReturnsAllWhenFewerThanRequested(t *testing.T) {
	store := NewMemoryStore()
	if err := store.AddQuestions(numberedQuestions(5)...); err != nil {
		t.Fatalf("AddQuestions failed: %v", err)
	}

	drawn, err := NewPracticeExamBuilder(store, seeded(1)).Build(context.Background(), Scope{SubjectID: "math"}, nil, 40, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	got := ids(drawn)
	sort.Strings(got)
	if want := []string{"q01", "q02", "q03", "q04", "q05"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("drawn = %v, want %v", got, want)
	}
}

func TestPracticeBuildSamplesWithoutReplacement(t *testing.T) {
	store := NewMemoryStore()
	if err := store.AddQuestions(numberedQuestions(20)...); err != nil {
		t.Fatalf("AddQuestions failed: %v", err)
	}

	drawn, err := NewPracticeExamBuilder(store, seeded(9)).Build(context.Background(), Scope{}, nil, 8, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(drawn) != 8 {
		t.Fatalf("drawn %d questions, want 8", len(drawn))
	}
	seen := make(map[string]struct{})
	for _, question := range drawn {
		if _, dup := seen[question.QuestionID]; dup {
			t.Fatalf("question %s drawn twice", question.QuestionID)
		}
		seen[question.QuestionID] = struct{}{}
	}
}

func TestPracticeBuildEmptyScope(t *testing.T) {
	drawn, err := NewPracticeExamBuilder(NewMemoryStore()).Build(context.Background(), Scope{SubjectID: "history"}, nil, 10, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if drawn == nil || len(drawn) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", drawn)
	}
}

func TestPracticeBuildTopicOverride(t *testing.T) {
	geometry := mcQuestion("g1", DifficultyEasy)
	geometry.TopicID = "geometry"
	store := NewMemoryStore()
	if err := store.AddQuestions(mcQuestion("a1", DifficultyEasy), mcQuestion("a2", DifficultyEasy), geometry); err != nil {
		t.Fatalf("AddQuestions failed: %v", err)
	}

	scope := Scope{TopicIDs: []string{"algebra"}}
	drawn, err := NewPracticeExamBuilder(store, seeded(1)).Build(context.Background(), scope, []string{"geometry"}, 10, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := ids(drawn); !reflect.DeepEqual(got, []string{"g1"}) {
		t.Fatalf("drawn = %v, want [g1]", got)
	}
}

func TestPracticeBuildExcludesPremiumAndInactive(t *testing.T) {
	questions := numberedQuestions(4)
	questions[0].Premium = true
	questions[1].Active = false
	source := &staticQuestionStore{questions: questions}

	drawn, err := NewPracticeExamBuilder(source, seeded(1)).Build(context.Background(), Scope{}, nil, 10, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	got := ids(drawn)
	sort.Strings(got)
	if want := []string{"q03", "q04"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("drawn = %v, want %v", got, want)
	}
}

func TestPracticeBuildPropagatesStoreError(t *testing.T) {
	_, err := NewPracticeExamBuilder(&staticQuestionStore{err: errStoreDown}).Build(context.Background(), Scope{}, nil, 5, false)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
