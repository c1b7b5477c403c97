package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"adaptive-quiz/internal/quiz"
)

const questionColumns = `question_id, prompt, question_type, difficulty, active, premium,
	curriculum_id, class_level_id, subject_id, topic_id, subtopic_id, explanation,
	choices_json, answers_json`

// UpsertQuestions validates and writes questions in one transaction.
func (s *SQLiteStore) UpsertQuestions(ctx context.Context, questions []quiz.Question) error {
	for _, question := range questions {
		if err := question.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().UnixNano()
	for _, question := range questions {
		choicesJSON, err := json.Marshal(nonNilChoices(question.Choices))
		if err != nil {
			return err
		}
		answersJSON, err := json.Marshal(nonNilAnswers(question.Answers))
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO questions (`+questionColumns+`, created_at_unix)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(question_id) DO UPDATE SET
				prompt = excluded.prompt,
				question_type = excluded.question_type,
				difficulty = excluded.difficulty,
				active = excluded.active,
				premium = excluded.premium,
				curriculum_id = excluded.curriculum_id,
				class_level_id = excluded.class_level_id,
				subject_id = excluded.subject_id,
				topic_id = excluded.topic_id,
				subtopic_id = excluded.subtopic_id,
				explanation = excluded.explanation,
				choices_json = excluded.choices_json,
				answers_json = excluded.answers_json`,
			question.QuestionID,
			question.Text,
			string(question.Type),
			string(question.Difficulty),
			question.Active,
			question.Premium,
			question.CurriculumID,
			question.ClassLevelID,
			question.SubjectID,
			question.TopicID,
			question.SubtopicID,
			question.Explanation,
			string(choicesJSON),
			string(answersJSON),
			now,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) CountQuestions(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}

func (s *SQLiteStore) FindEligible(ctx context.Context, scope quiz.Scope, includePremium bool) ([]quiz.Question, error) {
	var (
		clauses = []string{"active = 1"}
		args    []any
	)
	if !includePremium {
		clauses = append(clauses, "premium = 0")
	}
	if scope.CurriculumID != "" {
		clauses = append(clauses, "curriculum_id = ?")
		args = append(args, scope.CurriculumID)
	}
	if scope.ClassLevelID != "" {
		clauses = append(clauses, "class_level_id = ?")
		args = append(args, scope.ClassLevelID)
	}
	if scope.SubjectID != "" {
		clauses = append(clauses, "subject_id = ?")
		args = append(args, scope.SubjectID)
	}
	if len(scope.TopicIDs) > 0 {
		clauses = append(clauses, "topic_id IN ("+placeholders(len(scope.TopicIDs))+")")
		for _, topicID := range scope.TopicIDs {
			args = append(args, topicID)
		}
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE `+strings.Join(clauses, " AND ")+`
		 ORDER BY question_id ASC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]quiz.Question, 0)
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

func (s *SQLiteStore) GetQuestion(ctx context.Context, questionID string) (quiz.Question, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+questionColumns+` FROM questions WHERE question_id = ?`,
		questionID,
	)
	question, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Question{}, quiz.ErrQuestionNotFound
		}
		return quiz.Question{}, err
	}
	return question, nil
}

func (s *SQLiteStore) SaveQuizConfig(ctx context.Context, cfg quiz.QuizConfig) error {
	if cfg.QuizID == "" {
		return errors.New("quiz id is required")
	}
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO quizzes (quiz_id, config_json, updated_at_unix) VALUES (?, ?, ?)
		 ON CONFLICT(quiz_id) DO UPDATE SET
			config_json = excluded.config_json,
			updated_at_unix = excluded.updated_at_unix`,
		cfg.QuizID,
		string(configJSON),
		time.Now().UTC().UnixNano(),
	)
	return err
}

func (s *SQLiteStore) GetQuizConfig(ctx context.Context, quizID string) (quiz.QuizConfig, error) {
	var configJSON string
	err := s.db.QueryRowContext(ctx, `SELECT config_json FROM quizzes WHERE quiz_id = ?`, quizID).Scan(&configJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.QuizConfig{}, quiz.ErrQuizNotFound
		}
		return quiz.QuizConfig{}, err
	}

	var cfg quiz.QuizConfig
	if err := json.Unmarshal([]byte(configJSON), &cfg); err != nil {
		return quiz.QuizConfig{}, err
	}
	return cfg, nil
}

func (s *SQLiteStore) ListQuizConfigs(ctx context.Context, limit int) ([]quiz.QuizConfig, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT config_json FROM quizzes ORDER BY updated_at_unix DESC, quiz_id ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make([]quiz.QuizConfig, 0)
	for rows.Next() {
		var configJSON string
		if err := rows.Scan(&configJSON); err != nil {
			return nil, err
		}
		var cfg quiz.QuizConfig
		if err := json.Unmarshal([]byte(configJSON), &cfg); err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (quiz.Question, error) {
	var (
		question     quiz.Question
		questionType string
		difficulty   string
		choicesJSON  string
		answersJSON  string
	)
	if err := row.Scan(
		&question.QuestionID,
		&question.Text,
		&questionType,
		&difficulty,
		&question.Active,
		&question.Premium,
		&question.CurriculumID,
		&question.ClassLevelID,
		&question.SubjectID,
		&question.TopicID,
		&question.SubtopicID,
		&question.Explanation,
		&choicesJSON,
		&answersJSON,
	); err != nil {
		return quiz.Question{}, err
	}

	question.Type = quiz.QuestionType(questionType)
	question.Difficulty = quiz.Difficulty(difficulty)
	if err := json.Unmarshal([]byte(choicesJSON), &question.Choices); err != nil {
		return quiz.Question{}, err
	}
	if err := json.Unmarshal([]byte(answersJSON), &question.Answers); err != nil {
		return quiz.Question{}, err
	}
	return question, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nonNilChoices(choices []quiz.Choice) []quiz.Choice {
	if choices == nil {
		return []quiz.Choice{}
	}
	return choices
}

func nonNilAnswers(answers []quiz.AcceptableAnswer) []quiz.AcceptableAnswer {
	if answers == nil {
		return []quiz.AcceptableAnswer{}
	}
	return answers
}
