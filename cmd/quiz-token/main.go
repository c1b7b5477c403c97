package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"adaptive-quiz/internal/config"
	"adaptive-quiz/internal/httpapi"
	"adaptive-quiz/internal/quiz/sqlite"
)

func main() {
	config.LoadEnv()
	userID := flag.String("user", "", "user id to put in the token subject (required)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	premium := flag.Bool("premium", false, "also grant premium access in the quiz database")
	premiumFor := flag.Duration("premium-for", 0, "premium duration; 0 grants it indefinitely")
	dbPath := flag.String("db", config.GetEnv("DB_PATH", config.DefaultDBPath), "SQLite database path for -premium")
	flag.Parse()

	secret := config.GetEnv("JWT_SECRET")
	if *userID == "" || secret == "" {
		fmt.Fprintln(os.Stderr, "error: --user and JWT_SECRET are required")
		os.Exit(1)
	}

	if *premium {
		if err := grantPremium(*dbPath, *userID, *premiumFor); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}

	token, err := httpapi.IssueToken(secret, *userID, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func grantPremium(dbPath, userID string, duration time.Duration) error {
	store, err := sqlite.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var expiresAt *time.Time
	if duration > 0 {
		at := time.Now().UTC().Add(duration)
		expiresAt = &at
	}
	return store.GrantPremium(context.Background(), userID, expiresAt)
}
