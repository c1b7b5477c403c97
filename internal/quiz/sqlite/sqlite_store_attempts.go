package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"adaptive-quiz/internal/quiz"
)

const attemptColumns = `attempt_id, user_id, quiz_id, config_json, status, started_at_unix,
	completed_at_unix, total_questions, correct_answers`

// CreateAttempt writes the attempt and, for practice exams, its question plan
// in one transaction.
func (s *SQLiteStore) CreateAttempt(ctx context.Context, attempt quiz.Attempt) error {
	if attempt.AttemptID == "" {
		return errors.New("attempt id is required")
	}

	configJSON, err := json.Marshal(attempt.Config)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO quiz_attempts (`+attemptColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.AttemptID,
		attempt.UserID,
		attempt.QuizID,
		string(configJSON),
		attempt.Status,
		attempt.StartedAt.UTC().UnixNano(),
		unixNanoOrNil(attempt.CompletedAt),
		attempt.TotalQuestions,
		attempt.CorrectAnswers,
	)
	if err != nil {
		return err
	}

	for idx, questionID := range attempt.QuestionIDs {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO attempt_questions (attempt_id, question_id, position) VALUES (?, ?, ?)`,
			attempt.AttemptID,
			questionID,
			idx,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetAttempt(ctx context.Context, attemptID string) (quiz.Attempt, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts WHERE attempt_id = ?`,
		attemptID,
	)
	attempt, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Attempt{}, quiz.ErrAttemptNotFound
		}
		return quiz.Attempt{}, err
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT question_id FROM attempt_questions WHERE attempt_id = ? ORDER BY position ASC`,
		attemptID,
	)
	if err != nil {
		return quiz.Attempt{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var questionID string
		if err := rows.Scan(&questionID); err != nil {
			return quiz.Attempt{}, err
		}
		attempt.QuestionIDs = append(attempt.QuestionIDs, questionID)
	}
	return attempt, rows.Err()
}

// FinishAttempt only updates rows still in progress, so repeated or racing
// terminal transitions keep the first status and completion time.
func (s *SQLiteStore) FinishAttempt(ctx context.Context, attemptID string, status quiz.AttemptStatus, completedAt time.Time) (bool, error) {
	result, err := s.db.ExecContext(
		ctx,
		`UPDATE quiz_attempts
		 SET status = ?, completed_at_unix = ?
		 WHERE attempt_id = ? AND status = ?`,
		status,
		completedAt.UTC().UnixNano(),
		attemptID,
		quiz.StatusInProgress,
	)
	if err != nil {
		return false, err
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if updated > 0 {
		return true, nil
	}

	var found int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM quiz_attempts WHERE attempt_id = ?`, attemptID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, quiz.ErrAttemptNotFound
	}
	return false, err
}

// SaveAnswer runs as a single transaction so duplicate detection and the
// correct-answer counter stay consistent.
//
// Invariants:
//   - (attempt_id, question_id) is unique in question_attempts.
//   - An existing answer is never overwritten and the counter moves only
//     when a new row was inserted.
func (s *SQLiteStore) SaveAnswer(ctx context.Context, answer quiz.QuestionAttempt) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertResult, err := tx.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO question_attempts
			(attempt_id, question_id, user_id, selected_choice_id, text_answer, is_correct, time_spent_seconds, timed_out, answered_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		answer.AttemptID,
		answer.QuestionID,
		answer.UserID,
		answer.SelectedChoiceID,
		answer.TextAnswer,
		answer.IsCorrect,
		answer.TimeSpentSeconds,
		answer.TimedOut,
		answer.AnsweredAt.UTC().UnixNano(),
	)
	if err != nil {
		return err
	}

	inserted, err := insertResult.RowsAffected()
	if err != nil {
		return err
	}
	if inserted == 0 {
		return quiz.ErrDuplicateAnswer
	}

	if answer.IsCorrect {
		updateResult, err := tx.ExecContext(
			ctx,
			`UPDATE quiz_attempts SET correct_answers = correct_answers + 1 WHERE attempt_id = ?`,
			answer.AttemptID,
		)
		if err != nil {
			return err
		}
		if updated, err := updateResult.RowsAffected(); err != nil {
			return err
		} else if updated == 0 {
			return quiz.ErrAttemptNotFound
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) ListQuestionAttempts(ctx context.Context, attemptID string) ([]quiz.QuestionAttempt, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT attempt_id, question_id, user_id, selected_choice_id, text_answer, is_correct,
			time_spent_seconds, timed_out, answered_at_unix
		 FROM question_attempts
		 WHERE attempt_id = ?
		 ORDER BY answered_at_unix ASC, rowid ASC`,
		attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := make([]quiz.QuestionAttempt, 0)
	for rows.Next() {
		var (
			answer         quiz.QuestionAttempt
			answeredAtUnix int64
		)
		if err := rows.Scan(
			&answer.AttemptID,
			&answer.QuestionID,
			&answer.UserID,
			&answer.SelectedChoiceID,
			&answer.TextAnswer,
			&answer.IsCorrect,
			&answer.TimeSpentSeconds,
			&answer.TimedOut,
			&answeredAtUnix,
		); err != nil {
			return nil, err
		}
		answer.AnsweredAt = time.Unix(0, answeredAtUnix).UTC()
		answers = append(answers, answer)
	}
	return answers, rows.Err()
}

func (s *SQLiteStore) GetUserHistory(ctx context.Context, userID string, questionIDs []string) ([]quiz.HistoryRecord, error) {
	if len(questionIDs) == 0 {
		return []quiz.HistoryRecord{}, nil
	}

	args := make([]any, 0, len(questionIDs)+1)
	args = append(args, userID)
	for _, questionID := range questionIDs {
		args = append(args, questionID)
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT question_id, is_correct, answered_at_unix
		 FROM question_attempts
		 WHERE user_id = ? AND question_id IN (`+placeholders(len(questionIDs))+`)
		 ORDER BY answered_at_unix ASC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]quiz.HistoryRecord, 0)
	for rows.Next() {
		var (
			record         quiz.HistoryRecord
			answeredAtUnix int64
		)
		if err := rows.Scan(&record.QuestionID, &record.WasCorrect, &answeredAtUnix); err != nil {
			return nil, err
		}
		record.AnsweredAt = time.Unix(0, answeredAtUnix).UTC()
		history = append(history, record)
	}
	return history, rows.Err()
}

func (s *SQLiteStore) ListFinishedAttempts(ctx context.Context, quizID string) ([]quiz.Attempt, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+attemptColumns+`
		 FROM quiz_attempts
		 WHERE quiz_id = ? AND status != ?
		 ORDER BY completed_at_unix ASC, attempt_id ASC`,
		quizID,
		quiz.StatusInProgress,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := make([]quiz.Attempt, 0)
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

func scanAttempt(row rowScanner) (quiz.Attempt, error) {
	var (
		attempt         quiz.Attempt
		configJSON      string
		startedAtUnix   int64
		completedAtUnix sql.NullInt64
	)
	if err := row.Scan(
		&attempt.AttemptID,
		&attempt.UserID,
		&attempt.QuizID,
		&configJSON,
		&attempt.Status,
		&startedAtUnix,
		&completedAtUnix,
		&attempt.TotalQuestions,
		&attempt.CorrectAnswers,
	); err != nil {
		return quiz.Attempt{}, err
	}

	if err := json.Unmarshal([]byte(configJSON), &attempt.Config); err != nil {
		return quiz.Attempt{}, err
	}
	attempt.StartedAt = time.Unix(0, startedAtUnix).UTC()
	if completedAtUnix.Valid {
		completedAt := time.Unix(0, completedAtUnix.Int64).UTC()
		attempt.CompletedAt = &completedAt
	}
	return attempt, nil
}

func unixNanoOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().UnixNano()
}
