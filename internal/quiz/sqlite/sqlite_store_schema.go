package sqlite

import (
	"context"
)

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS questions (
			question_id TEXT PRIMARY KEY,
			prompt TEXT NOT NULL,
			question_type TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			premium INTEGER NOT NULL DEFAULT 0,
			curriculum_id TEXT NOT NULL DEFAULT '',
			class_level_id TEXT NOT NULL DEFAULT '',
			subject_id TEXT NOT NULL DEFAULT '',
			topic_id TEXT NOT NULL DEFAULT '',
			subtopic_id TEXT NOT NULL DEFAULT '',
			explanation TEXT NOT NULL DEFAULT '',
			choices_json TEXT NOT NULL,
			answers_json TEXT NOT NULL,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS quizzes (
			quiz_id TEXT PRIMARY KEY,
			config_json TEXT NOT NULL,
			updated_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS quiz_attempts (
			attempt_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			quiz_id TEXT NOT NULL,
			config_json TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at_unix INTEGER NOT NULL,
			completed_at_unix INTEGER,
			total_questions INTEGER NOT NULL,
			correct_answers INTEGER NOT NULL DEFAULT 0
		);`,
		// Fixed plan of practice exams.
		`CREATE TABLE IF NOT EXISTS attempt_questions (
			attempt_id TEXT NOT NULL,
			question_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (attempt_id, position),
			UNIQUE (attempt_id, question_id)
		);`,
		`CREATE TABLE IF NOT EXISTS question_attempts (
			attempt_id TEXT NOT NULL,
			question_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			selected_choice_id TEXT NOT NULL DEFAULT '',
			text_answer TEXT NOT NULL DEFAULT '',
			is_correct INTEGER NOT NULL,
			time_spent_seconds INTEGER NOT NULL DEFAULT 0,
			timed_out INTEGER NOT NULL DEFAULT 0,
			answered_at_unix INTEGER NOT NULL,
			PRIMARY KEY (attempt_id, question_id)
		);`,
		`CREATE TABLE IF NOT EXISTS premium_users (
			user_id TEXT PRIMARY KEY,
			expires_at_unix INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_scope ON questions(curriculum_id, class_level_id, subject_id, topic_id);`,
		`CREATE INDEX IF NOT EXISTS idx_question_attempts_user ON question_attempts(user_id, question_id);`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_attempts_quiz_status ON quiz_attempts(quiz_id, status);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
