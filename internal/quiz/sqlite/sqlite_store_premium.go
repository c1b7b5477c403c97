package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// GrantPremium gives userID premium access until expiresAt, or indefinitely
// when expiresAt is nil.
func (s *SQLiteStore) GrantPremium(ctx context.Context, userID string, expiresAt *time.Time) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("user id is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO premium_users (user_id, expires_at_unix) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET expires_at_unix = excluded.expires_at_unix`,
		userID,
		unixNanoOrNil(expiresAt),
	)
	return err
}

func (s *SQLiteStore) RevokePremium(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM premium_users WHERE user_id = ?`, userID)
	return err
}

func (s *SQLiteStore) IsPremium(ctx context.Context, userID string) (bool, error) {
	var expiresAtUnix sql.NullInt64
	err := s.db.QueryRowContext(
		ctx,
		`SELECT expires_at_unix FROM premium_users WHERE user_id = ?`,
		userID,
	).Scan(&expiresAtUnix)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if !expiresAtUnix.Valid {
		return true, nil
	}
	return time.Now().UTC().UnixNano() < expiresAtUnix.Int64, nil
}
