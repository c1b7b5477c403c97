package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"adaptive-quiz/internal/quiz"
)

const (
	defaultListLimit        = 10
	defaultLeaderboardLimit = 10
)

func (a *API) HandleListQuizzes(c *gin.Context) {
	limit, err := parseIntParam(c, "limit", defaultListLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	configs, err := a.service.ListQuizConfigs(c.Request.Context(), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizzesResponse{Quizzes: configs})
}

func (a *API) HandleSaveQuiz(c *gin.Context) {
	var cfg quiz.QuizConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if err := a.service.SaveQuizConfig(c.Request.Context(), cfg); err != nil {
		writeServiceError(c, err)
		return
	}
	cfg.QuizID = strings.TrimSpace(cfg.QuizID)
	c.JSON(http.StatusCreated, cfg)
}

func (a *API) HandleStartAttempt(c *gin.Context) {
	attempt, err := a.service.StartQuiz(c.Request.Context(), currentUser(c), c.Param("quiz_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAttemptResponse(attempt))
}

func (a *API) HandleSummary(c *gin.Context) {
	attempt, ok := a.ownedAttempt(c)
	if !ok {
		return
	}
	summary, err := a.service.Summary(c.Request.Context(), attempt.AttemptID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaryResponse{
		attemptResponse: toAttemptResponse(summary.Attempt),
		Answered:        summary.Answered,
		TimedOutAnswers: summary.TimedOutAnswers,
		ScorePercent:    summary.ScorePercent,
		Passed:          summary.Passed,
		DurationSeconds: summary.Duration.Seconds(),
	})
}

func (a *API) HandleNextQuestion(c *gin.Context) {
	attempt, ok := a.ownedAttempt(c)
	if !ok {
		return
	}
	question, found, err := a.service.NextQuestion(c.Request.Context(), attempt.AttemptID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, doneResponse{AttemptID: attempt.AttemptID, Done: true, Status: attempt.Status.String()})
		return
	}
	c.JSON(http.StatusOK, toQuestionResponse(attempt, question, a.service.PresentChoices(attempt, question)))
}

func (a *API) HandleRecordAnswer(c *gin.Context) {
	attempt, ok := a.ownedAttempt(c)
	if !ok {
		return
	}

	var request answerRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "question_id is required"})
		return
	}

	answer, err := a.service.RecordAnswer(c.Request.Context(), attempt.AttemptID, request.QuestionID, quiz.Submission{
		ChoiceID:         request.ChoiceID,
		Text:             request.Text,
		TimeSpentSeconds: request.TimeSpentSeconds,
		TimedOut:         request.TimedOut,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAnswerResponse(answer))
}

func (a *API) HandleComplete(c *gin.Context) { a.handleFinish(c, a.service.Complete) }

func (a *API) HandleTimeOut(c *gin.Context) { a.handleFinish(c, a.service.TimeOut) }

func (a *API) HandleAbandon(c *gin.Context) { a.handleFinish(c, a.service.Abandon) }

func (a *API) handleFinish(c *gin.Context, finish func(context.Context, string) (quiz.Attempt, error)) {
	attempt, ok := a.ownedAttempt(c)
	if !ok {
		return
	}
	finished, err := finish(c.Request.Context(), attempt.AttemptID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAttemptResponse(finished))
}

func (a *API) HandleReview(c *gin.Context) {
	attempt, ok := a.ownedAttempt(c)
	if !ok {
		return
	}
	reviewed, answers, err := a.service.Review(c.Request.Context(), attempt.AttemptID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response := reviewResponse{
		Attempt: toAttemptResponse(reviewed),
		Answers: make([]answerResponse, 0, len(answers)),
	}
	for _, answer := range answers {
		response.Answers = append(response.Answers, toAnswerResponse(answer))
	}
	c.JSON(http.StatusOK, response)
}

func (a *API) HandleLeaderboard(c *gin.Context) {
	quizID := strings.TrimSpace(c.Param("quiz_id"))
	limit, err := parseLeaderboardLimit(c, defaultLeaderboardLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	entries, err := a.service.Leaderboard(c.Request.Context(), quizID, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	items := make([]leaderboardEntryResponse, 0, len(entries))
	for idx, entry := range entries {
		items = append(items, leaderboardEntryResponse{
			Rank:         idx + 1,
			UserID:       entry.UserID,
			AttemptID:    entry.AttemptID,
			ScorePercent: entry.ScorePercent,
			Correct:      entry.Correct,
			Total:        entry.Total,
			CompletedAt:  entry.CompletedAt,
		})
	}
	c.JSON(http.StatusOK, leaderboardResponse{QuizID: quizID, Leaderboard: items})
}

// ownedAttempt loads the path's attempt and hides attempts of other users
// behind a 404.
func (a *API) ownedAttempt(c *gin.Context) (quiz.Attempt, bool) {
	attempt, err := a.service.GetAttempt(c.Request.Context(), strings.TrimSpace(c.Param("attempt_id")))
	if err != nil {
		writeServiceError(c, err)
		return quiz.Attempt{}, false
	}
	if attempt.UserID != currentUser(c) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "attempt not found"})
		return quiz.Attempt{}, false
	}
	return attempt, true
}
