package httpapi

import (
	"time"

	"adaptive-quiz/internal/quiz"
)

type quizzesResponse struct {
	Quizzes []quiz.QuizConfig `json:"quizzes"`
}

type attemptResponse struct {
	AttemptID      string     `json:"attempt_id"`
	QuizID         string     `json:"quiz_id"`
	UserID         string     `json:"user_id"`
	Kind           string     `json:"kind"`
	Status         string     `json:"status"`
	TotalQuestions int        `json:"total_questions"`
	CorrectAnswers int        `json:"correct_answers"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

type summaryResponse struct {
	attemptResponse
	Answered        int     `json:"answered"`
	TimedOutAnswers int     `json:"timed_out_answers"`
	ScorePercent    int     `json:"score_percent"`
	Passed          bool    `json:"passed"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// choiceResponse omits the correct flag of served questions.
type choiceResponse struct {
	ChoiceID string `json:"choice_id"`
	Text     string `json:"text"`
}

type questionResponse struct {
	AttemptID        string           `json:"attempt_id"`
	QuestionID       string           `json:"question_id"`
	Text             string           `json:"text"`
	Type             string           `json:"type"`
	Difficulty       string           `json:"difficulty"`
	Choices          []choiceResponse `json:"choices"`
	TimeLimitSeconds int              `json:"time_limit_seconds,omitempty"`
}

type doneResponse struct {
	AttemptID string `json:"attempt_id"`
	Done      bool   `json:"done"`
	Status    string `json:"status"`
}

type answerRequest struct {
	QuestionID       string `json:"question_id" binding:"required"`
	ChoiceID         string `json:"choice_id"`
	Text             string `json:"text"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
	TimedOut         bool   `json:"timed_out"`
}

type answerResponse struct {
	AttemptID        string    `json:"attempt_id"`
	QuestionID       string    `json:"question_id"`
	SelectedChoiceID string    `json:"selected_choice_id,omitempty"`
	TextAnswer       string    `json:"text_answer,omitempty"`
	IsCorrect        bool      `json:"is_correct"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	TimedOut         bool      `json:"timed_out"`
	AnsweredAt       time.Time `json:"answered_at"`
}

type reviewResponse struct {
	Attempt attemptResponse  `json:"attempt"`
	Answers []answerResponse `json:"answers"`
}

type leaderboardEntryResponse struct {
	Rank         int       `json:"rank"`
	UserID       string    `json:"user_id"`
	AttemptID    string    `json:"attempt_id"`
	ScorePercent int       `json:"score_percent"`
	Correct      int       `json:"correct"`
	Total        int       `json:"total"`
	CompletedAt  time.Time `json:"completed_at"`
}

type leaderboardResponse struct {
	QuizID      string                     `json:"quiz_id"`
	Leaderboard []leaderboardEntryResponse `json:"leaderboard"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toAttemptResponse(attempt quiz.Attempt) attemptResponse {
	return attemptResponse{
		AttemptID:      attempt.AttemptID,
		QuizID:         attempt.QuizID,
		UserID:         attempt.UserID,
		Kind:           string(attempt.Config.Kind),
		Status:         attempt.Status.String(),
		TotalQuestions: attempt.TotalQuestions,
		CorrectAnswers: attempt.CorrectAnswers,
		StartedAt:      attempt.StartedAt,
		CompletedAt:    attempt.CompletedAt,
	}
}

func toAnswerResponse(answer quiz.QuestionAttempt) answerResponse {
	return answerResponse{
		AttemptID:        answer.AttemptID,
		QuestionID:       answer.QuestionID,
		SelectedChoiceID: answer.SelectedChoiceID,
		TextAnswer:       answer.TextAnswer,
		IsCorrect:        answer.IsCorrect,
		TimeSpentSeconds: answer.TimeSpentSeconds,
		TimedOut:         answer.TimedOut,
		AnsweredAt:       answer.AnsweredAt,
	}
}

func toQuestionResponse(attempt quiz.Attempt, question quiz.Question, choices []quiz.Choice) questionResponse {
	response := questionResponse{
		AttemptID:        attempt.AttemptID,
		QuestionID:       question.QuestionID,
		Text:             question.Text,
		Type:             string(question.Type),
		Difficulty:       string(question.Difficulty),
		Choices:          make([]choiceResponse, 0, len(choices)),
		TimeLimitSeconds: attempt.Config.TimeLimitSeconds,
	}
	for _, choice := range choices {
		response.Choices = append(response.Choices, choiceResponse{ChoiceID: choice.ChoiceID, Text: choice.Text})
	}
	return response
}
