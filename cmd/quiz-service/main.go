package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	"adaptive-quiz/internal/config"
	"adaptive-quiz/internal/httpapi"
	"adaptive-quiz/internal/opentdb"
	"adaptive-quiz/internal/quiz"
	"adaptive-quiz/internal/quiz/sqlite"
)

const defaultQuizID = "general"

func main() {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	store, err := sqlite.NewSQLiteStore(*dbPath)
	if err != nil {
		log.Fatalf("[ERROR] open store %s: %v", *dbPath, err)
	}
	defer store.Close()

	ctx := context.Background()
	source := opentdb.NewClientWithBaseURL(cfg.OpenTDBURL, &http.Client{Timeout: cfg.HTTPTimeout})
	if err := seedBank(ctx, store, source, cfg.SeedAmount); err != nil {
		log.Printf("[WARN] seeding question bank failed: %v", err)
	}

	service := quiz.NewService(store, store, store, store, store)
	if err := ensureDefaultQuiz(ctx, service); err != nil {
		log.Fatalf("[ERROR] default quiz: %v", err)
	}

	server := &http.Server{
		Addr: *addr,
		Handler: httpapi.NewRouter(service, httpapi.RouterConfig{
			JWTSecret:      cfg.JWTSecret,
			AllowedOrigins: cfg.AllowedOrigins,
			AdminUsers:     cfg.AdminUsers,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("[INFO] quiz-service listening on %s", *addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[ERROR] server failed: %v", err)
	}
}

// seedBank fills an empty question bank from OpenTDB.
func seedBank(ctx context.Context, store *sqlite.SQLiteStore, source *opentdb.Client, amount int) error {
	if amount <= 0 {
		return nil
	}
	count, err := store.CountQuestions(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Printf("[INFO] question bank has %d questions, skipping seed", count)
		return nil
	}

	raw, err := source.FetchQuestions(ctx, amount)
	if err != nil {
		return err
	}
	questions := quiz.BuildQuestions(raw, quiz.ImportScope{}, nil)
	if err := store.UpsertQuestions(ctx, questions); err != nil {
		return err
	}
	log.Printf("[INFO] seeded %d questions", len(questions))
	return nil
}

func ensureDefaultQuiz(ctx context.Context, service *quiz.Service) error {
	configs, err := service.ListQuizConfigs(ctx, 1)
	if err != nil || len(configs) > 0 {
		return err
	}
	return service.SaveQuizConfig(ctx, quiz.QuizConfig{
		QuizID:             defaultQuizID,
		Title:              "General knowledge",
		Kind:               quiz.KindGeneral,
		QuestionCount:      10,
		RandomizeQuestions: true,
		RandomizeChoices:   true,
		PassingScore:       60,
	})
}
