package quiz

import (
	"context"
	"fmt"
	"sort"
	"time"
)

type LeaderboardEntry struct {
	UserID       string
	AttemptID    string
	ScorePercent int
	Correct      int
	Total        int
	CompletedAt  time.Time
}

// Leaderboard ranks each user's best completed attempt at quizID. limit <= 0
// returns every entry.
func (s *Service) Leaderboard(ctx context.Context, quizID string, limit int) ([]LeaderboardEntry, error) {
	finished, err := s.attempts.ListFinishedAttempts(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list finished attempts for %s: %w", quizID, err)
	}

	best := make(map[string]LeaderboardEntry)
	for _, attempt := range finished {
		if attempt.Status != StatusCompleted || attempt.CompletedAt == nil {
			continue
		}
		entry := LeaderboardEntry{
			UserID:       attempt.UserID,
			AttemptID:    attempt.AttemptID,
			ScorePercent: attempt.ScorePercent(),
			Correct:      attempt.CorrectAnswers,
			Total:        attempt.TotalQuestions,
			CompletedAt:  *attempt.CompletedAt,
		}
		if current, ok := best[entry.UserID]; !ok || leaderboardBefore(entry, current) {
			best[entry.UserID] = entry
		}
	}

	entries := make([]LeaderboardEntry, 0, len(best))
	for _, entry := range best {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return leaderboardBefore(entries[i], entries[j]) })
	return applyLeaderboardLimit(entries, limit), nil
}

func leaderboardBefore(a, b LeaderboardEntry) bool {
	// Ranking policy:
	// 1) higher score first
	// 2) earlier completion wins ties
	// 3) user ID lexical order for deterministic output
	if a.ScorePercent != b.ScorePercent {
		return a.ScorePercent > b.ScorePercent
	}
	if !a.CompletedAt.Equal(b.CompletedAt) {
		return a.CompletedAt.Before(b.CompletedAt)
	}
	return a.UserID < b.UserID
}

func applyLeaderboardLimit(entries []LeaderboardEntry, limit int) []LeaderboardEntry {
	if limit <= 0 || limit >= len(entries) {
		return entries
	}
	return entries[:limit]
}
