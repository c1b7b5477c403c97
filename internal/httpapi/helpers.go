package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"adaptive-quiz/internal/quiz"
)

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, quiz.ErrChoiceNotFound):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "choice not found"})
	case errors.Is(err, quiz.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "quiz not found"})
	case errors.Is(err, quiz.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "attempt not found"})
	case errors.Is(err, quiz.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "question not found"})
	case errors.Is(err, quiz.ErrDuplicateAnswer):
		c.JSON(http.StatusConflict, errorResponse{Error: "question already answered in this attempt"})
	case errors.Is(err, quiz.ErrInvalidState):
		c.JSON(http.StatusConflict, errorResponse{Error: "attempt does not accept answers"})
	case errors.Is(err, quiz.ErrInvalidConfig), errors.Is(err, quiz.ErrInvalidQuestion), errors.Is(err, quiz.ErrInvalidUser):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

func parseIntParam(c *gin.Context, key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, errors.New(key + " must be a positive integer")
	}
	return parsed, nil
}

func parseLeaderboardLimit(c *gin.Context, defaultValue int) (int, error) {
	value := strings.TrimSpace(c.Query("limit"))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	// <=0 means "entire leaderboard".
	return parsed, nil
}
