package userclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestDoJSONReturnsServiceUnavailable(t *testing.T) {
	client := NewHTTPClient("http://example.test", "token", &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial error")
		}),
	})

	err := client.doJSON(context.Background(), http.MethodGet, "/healthz", nil, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable wrapper, got %v", err)
	}
}

func TestDoJSONReturnsAPIErrorMessageFromBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "bad request payload"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "token", server.Client())
	err := client.doJSON(context.Background(), http.MethodGet, "/anything", nil, nil)
	if err == nil {
		t.Fatalf("expected API error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", apiErr.StatusCode, http.StatusBadRequest)
	}
	if apiErr.Message != "bad request payload" {
		t.Fatalf("message = %q, want %q", apiErr.Message, "bad request payload")
	}
}

func TestDoJSONSendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/quizzes" || r.URL.Query().Get("limit") != "10" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"quizzes":[{"quiz_id":"math","kind":"general","question_count":5}]}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL+"/", " secret-token ", server.Client())
	quizzes, err := client.ListQuizzes(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListQuizzes failed: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0].QuizID != "math" || quizzes[0].QuestionCount != 5 {
		t.Fatalf("unexpected quizzes: %+v", quizzes)
	}
}

func TestNextQuestionReportsDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/attempts/a%2F1/next" && r.URL.RawPath != "/attempts/a%2F1/next" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"attempt_id":"a/1","done":true,"status":"in_progress"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "token", server.Client())
	_, ok, err := client.NextQuestion(context.Background(), "a/1")
	if err != nil {
		t.Fatalf("NextQuestion failed: %v", err)
	}
	if ok {
		t.Fatalf("expected no question once done")
	}
}

func TestStartAttemptRequiresQuizID(t *testing.T) {
	client := NewHTTPClient("", "token", nil)
	if _, err := client.StartAttempt(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty quiz id")
	}
	if client.baseURL != defaultServer {
		t.Fatalf("baseURL = %q, want %q", client.baseURL, defaultServer)
	}
}
