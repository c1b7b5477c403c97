package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"adaptive-quiz/internal/quiz"
)

var (
	_ quiz.QuestionStore      = (*SQLiteStore)(nil)
	_ quiz.HistoryStore       = (*SQLiteStore)(nil)
	_ quiz.AttemptStore       = (*SQLiteStore)(nil)
	_ quiz.ConfigStore        = (*SQLiteStore)(nil)
	_ quiz.EntitlementChecker = (*SQLiteStore)(nil)
)

// SQLiteStore persists the question bank, quiz configurations, attempts and
// premium grants. It implements every store interface of package quiz.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "quiz.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
