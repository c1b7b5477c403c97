package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"adaptive-quiz/internal/config"
	"adaptive-quiz/internal/userclient"
)

func main() {
	config.LoadEnv()
	token := flag.String("token", config.GetEnv("QUIZ_TOKEN"), "bearer token (required; see quiz-token)")
	server := flag.String("server", "http://127.0.0.1:8080", "quiz service base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "HTTP timeout")
	quizID := flag.String("quiz", "", "play this quiz once and exit")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "error: --token is required")
		os.Exit(1)
	}

	err := userclient.Run(context.Background(), os.Stdin, os.Stdout, userclient.Config{
		Token:       *token,
		ServerURL:   *server,
		HTTPTimeout: *timeout,
		QuizID:      *quizID,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
