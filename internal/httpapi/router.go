package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"adaptive-quiz/internal/quiz"
)

const maxLoggedBodyBytes = 512

type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
	// AdminUsers may create or replace quiz configurations. Empty allows any user.
	AdminUsers []string
}

func NewRouter(service *quiz.Service, cfg RouterConfig) http.Handler {
	api := NewAPI(service)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), logFailures(maxLoggedBodyBytes))
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	authed := r.Group("/", RequireUser(cfg.JWTSecret))
	{
		authed.GET("/quizzes", api.HandleListQuizzes)
		authed.POST("/quizzes", RequireAdmin(cfg.AdminUsers), api.HandleSaveQuiz)
		authed.GET("/quizzes/:quiz_id/leaderboard", api.HandleLeaderboard)
		authed.POST("/quizzes/:quiz_id/attempts", api.HandleStartAttempt)

		authed.GET("/attempts/:attempt_id", api.HandleSummary)
		authed.GET("/attempts/:attempt_id/next", api.HandleNextQuestion)
		authed.POST("/attempts/:attempt_id/answers", api.HandleRecordAnswer)
		authed.POST("/attempts/:attempt_id/complete", api.HandleComplete)
		authed.POST("/attempts/:attempt_id/timeout", api.HandleTimeOut)
		authed.POST("/attempts/:attempt_id/abandon", api.HandleAbandon)
		authed.GET("/attempts/:attempt_id/review", api.HandleReview)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
