package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"adaptive-quiz/internal/quiz"
)

var ErrServiceUnavailable = errors.New("quiz service unavailable")

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// HTTPClient talks to the quiz service on behalf of one bearer token.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type attemptItem struct {
	AttemptID      string     `json:"attempt_id"`
	QuizID         string     `json:"quiz_id"`
	Kind           string     `json:"kind"`
	Status         string     `json:"status"`
	TotalQuestions int        `json:"total_questions"`
	CorrectAnswers int        `json:"correct_answers"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

type summaryItem struct {
	attemptItem
	Answered        int     `json:"answered"`
	TimedOutAnswers int     `json:"timed_out_answers"`
	ScorePercent    int     `json:"score_percent"`
	Passed          bool    `json:"passed"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type choiceItem struct {
	ChoiceID string `json:"choice_id"`
	Text     string `json:"text"`
}

// questionItem is the /next payload. Done is set instead of the question
// fields once the attempt owes nothing more.
type questionItem struct {
	AttemptID        string       `json:"attempt_id"`
	QuestionID       string       `json:"question_id"`
	Text             string       `json:"text"`
	Type             string       `json:"type"`
	Difficulty       string       `json:"difficulty"`
	Choices          []choiceItem `json:"choices"`
	TimeLimitSeconds int          `json:"time_limit_seconds"`
	Done             bool         `json:"done"`
	Status           string       `json:"status"`
}

type answerRequest struct {
	QuestionID       string `json:"question_id"`
	ChoiceID         string `json:"choice_id,omitempty"`
	Text             string `json:"text,omitempty"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
	TimedOut         bool   `json:"timed_out"`
}

type answerResult struct {
	QuestionID string `json:"question_id"`
	IsCorrect  bool   `json:"is_correct"`
	TimedOut   bool   `json:"timed_out"`
}

type quizzesResponse struct {
	Quizzes []quiz.QuizConfig `json:"quizzes"`
}

type leaderboardEntryItem struct {
	Rank         int       `json:"rank"`
	UserID       string    `json:"user_id"`
	ScorePercent int       `json:"score_percent"`
	Correct      int       `json:"correct"`
	Total        int       `json:"total"`
	CompletedAt  time.Time `json:"completed_at"`
}

type leaderboardResponse struct {
	QuizID      string                 `json:"quiz_id"`
	Leaderboard []leaderboardEntryItem `json:"leaderboard"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPClient(baseURL, token string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultServer
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
	}
}

func (c *HTTPClient) ListQuizzes(ctx context.Context, limit int) ([]quiz.QuizConfig, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var payload quizzesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/quizzes?"+query.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Quizzes, nil
}

func (c *HTTPClient) SaveQuiz(ctx context.Context, cfg quiz.QuizConfig) error {
	return c.doJSON(ctx, http.MethodPost, "/quizzes", cfg, nil)
}

func (c *HTTPClient) GetLeaderboard(ctx context.Context, quizID string, limit int) ([]leaderboardEntryItem, error) {
	if strings.TrimSpace(quizID) == "" {
		return nil, errors.New("quiz_id is required")
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	path := "/quizzes/" + url.PathEscape(quizID) + "/leaderboard?" + query.Encode()

	var payload leaderboardResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Leaderboard, nil
}

func (c *HTTPClient) StartAttempt(ctx context.Context, quizID string) (attemptItem, error) {
	if strings.TrimSpace(quizID) == "" {
		return attemptItem{}, errors.New("quiz_id is required")
	}

	var payload attemptItem
	path := "/quizzes/" + url.PathEscape(quizID) + "/attempts"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &payload); err != nil {
		return attemptItem{}, err
	}
	return payload, nil
}

// NextQuestion returns false once the attempt owes no more questions.
func (c *HTTPClient) NextQuestion(ctx context.Context, attemptID string) (questionItem, bool, error) {
	var payload questionItem
	if err := c.doJSON(ctx, http.MethodGet, attemptPath(attemptID, "/next"), nil, &payload); err != nil {
		return questionItem{}, false, err
	}
	if payload.Done {
		return questionItem{}, false, nil
	}
	return payload, true, nil
}

func (c *HTTPClient) SubmitAnswer(ctx context.Context, attemptID string, answer answerRequest) (answerResult, error) {
	var payload answerResult
	if err := c.doJSON(ctx, http.MethodPost, attemptPath(attemptID, "/answers"), answer, &payload); err != nil {
		return answerResult{}, err
	}
	return payload, nil
}

// Finish moves the attempt to a terminal status. action is one of
// "complete", "timeout" or "abandon".
func (c *HTTPClient) Finish(ctx context.Context, attemptID, action string) (attemptItem, error) {
	var payload attemptItem
	if err := c.doJSON(ctx, http.MethodPost, attemptPath(attemptID, "/"+action), nil, &payload); err != nil {
		return attemptItem{}, err
	}
	return payload, nil
}

func (c *HTTPClient) Summary(ctx context.Context, attemptID string) (summaryItem, error) {
	var payload summaryItem
	if err := c.doJSON(ctx, http.MethodGet, attemptPath(attemptID, ""), nil, &payload); err != nil {
		return summaryItem{}, err
	}
	return payload, nil
}

func attemptPath(attemptID, suffix string) string {
	return "/attempts/" + url.PathEscape(attemptID) + suffix
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
			apiErr.Message = payload.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}
