package userclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"adaptive-quiz/internal/quiz"
)

const (
	defaultServer            = "http://127.0.0.1:8080"
	defaultListLimit         = 10
	defaultLeaderboardLimit  = 10
	defaultQuestionCount     = 10
	defaultHTTPTimeout       = 5 * time.Second
	defaultMaxInvalidAnswers = 3
)

type Config struct {
	Token             string
	ServerURL         string
	ListLimit         int
	LeaderboardLimit  int
	MaxInvalidAnswers int
	HTTPTimeout       time.Duration
	// QuizID, when set, is played once without entering the command loop.
	QuizID string
}

func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return errors.New("token is required")
	}

	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultServer
	}

	listLimit := cfg.ListLimit
	if listLimit <= 0 {
		listLimit = defaultListLimit
	}
	leaderboardLimit := cfg.LeaderboardLimit
	if leaderboardLimit == 0 {
		leaderboardLimit = defaultLeaderboardLimit
	}
	maxInvalidAnswers := cfg.MaxInvalidAnswers
	if maxInvalidAnswers <= 0 {
		maxInvalidAnswers = defaultMaxInvalidAnswers
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	client := NewHTTPClient(serverURL, token, &http.Client{Timeout: timeout})
	reader := bufio.NewReader(in)

	if quizID := strings.TrimSpace(cfg.QuizID); quizID != "" {
		return describeClientError(runPlay(ctx, reader, out, client, quizID, maxInvalidAnswers), serverURL)
	}

	fmt.Fprintf(out, "quiz-user-service\nserver=%s\n\n", serverURL)
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])

		switch command {
		case "help":
			printHelp(out)
		case "exit":
			return nil
		case "quizzes":
			limit, parseErr := parsePositiveLimit(args, 1, listLimit)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid quizzes limit: %v\n", parseErr)
				continue
			}
			if err := runList(ctx, out, client, limit); err != nil {
				fmt.Fprintf(out, "error: %v\n", describeClientError(err, serverURL))
			}
		case "leaderboard":
			if len(args) < 2 {
				fmt.Fprintln(out, "usage: leaderboard <quiz_id> [limit]")
				continue
			}
			limit, parseErr := parseSignedLimit(args, 2, leaderboardLimit)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid leaderboard limit: %v\n", parseErr)
				continue
			}
			if err := runLeaderboard(ctx, out, client, args[1], limit); err != nil {
				fmt.Fprintf(out, "error: %v\n", describeClientError(err, serverURL))
			}
		case "play":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: play <quiz_id>")
				continue
			}
			if err := runPlay(ctx, reader, out, client, args[1], maxInvalidAnswers); err != nil {
				fmt.Fprintf(out, "error: %v\n", describeClientError(err, serverURL))
			}
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}
	}
}

func runList(ctx context.Context, out io.Writer, client *HTTPClient, limit int) error {
	quizzes, err := client.ListQuizzes(ctx, limit)
	if err != nil {
		return err
	}

	if len(quizzes) == 0 {
		fmt.Fprintln(out, "No quizzes.")
		return nil
	}

	fmt.Fprintln(out, "Quizzes:")
	for idx, item := range quizzes {
		title := item.Title
		if title == "" {
			title = item.QuizID
		}
		fmt.Fprintf(out, "%d. %s [%s] %s, %d questions\n",
			idx+1,
			item.QuizID,
			item.Kind,
			title,
			item.ClampedCount(),
		)
	}
	return nil
}

func runLeaderboard(ctx context.Context, out io.Writer, client *HTTPClient, quizID string, limit int) error {
	entries, err := client.GetLeaderboard(ctx, quizID, limit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No leaderboard entries for quiz %s.\n", quizID)
		return nil
	}

	fmt.Fprintf(out, "Leaderboard for %s:\n", quizID)
	for _, entry := range entries {
		fmt.Fprintf(out, "%d. %s score=%d%% (%d/%d) completed=%s\n",
			entry.Rank,
			entry.UserID,
			entry.ScorePercent,
			entry.Correct,
			entry.Total,
			entry.CompletedAt.Format(time.RFC3339),
		)
	}
	return nil
}

func runPlay(ctx context.Context, reader *bufio.Reader, out io.Writer, client *HTTPClient, quizID string, maxInvalidAnswers int) error {
	attempt, err := client.StartAttempt(ctx, quizID)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			return err
		}

		createNew, promptErr := promptYesNo(reader, out, "quiz not found. create a general quiz with this id? (yes/no): ")
		if promptErr != nil {
			return promptErr
		}
		if !createNew {
			return nil
		}
		if err := client.SaveQuiz(ctx, quiz.QuizConfig{
			QuizID:             quizID,
			Title:              quizID,
			Kind:               quiz.KindGeneral,
			QuestionCount:      defaultQuestionCount,
			RandomizeQuestions: true,
		}); err != nil {
			return err
		}
		if attempt, err = client.StartAttempt(ctx, quizID); err != nil {
			return err
		}
	}
	return playAttempt(ctx, reader, out, client, attempt, maxInvalidAnswers)
}

func playAttempt(ctx context.Context, reader *bufio.Reader, out io.Writer, client *HTTPClient, attempt attemptItem, maxInvalidAnswers int) error {
	fmt.Fprintf(out, "quiz_id=%s attempt_id=%s questions=%d\n", attempt.QuizID, attempt.AttemptID, attempt.TotalQuestions)

	for number := 1; ; number++ {
		question, ok, err := client.NextQuestion(ctx, attempt.AttemptID)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		printQuestion(out, number, question)
		started := time.Now()
		answer, answered := readAnswer(reader, out, question, maxInvalidAnswers)
		answer.QuestionID = question.QuestionID
		answer.TimeSpentSeconds = int(time.Since(started).Seconds())
		if limit := question.TimeLimitSeconds; limit > 0 && answer.TimeSpentSeconds > limit {
			answer.TimedOut = true
		}
		if !answered {
			answer.TimedOut = true
			fmt.Fprintln(out, "Out of tries, question recorded as timed out.")
		}

		result, err := client.SubmitAnswer(ctx, attempt.AttemptID, answer)
		if err != nil {
			return err
		}
		if result.IsCorrect {
			fmt.Fprintln(out, "Correct!")
		} else {
			fmt.Fprintln(out, "Wrong.")
		}
	}

	if _, err := client.Finish(ctx, attempt.AttemptID, "complete"); err != nil {
		return err
	}
	summary, err := client.Summary(ctx, attempt.AttemptID)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Score: %d/%d (%d%%)\n", summary.CorrectAnswers, summary.TotalQuestions, summary.ScorePercent)
	if summary.Passed {
		fmt.Fprintln(out, "Passed.")
	} else {
		fmt.Fprintln(out, "Not passed.")
	}
	return nil
}

// readAnswer prompts until a valid answer is given or maxInvalidAnswers is
// reached.
func readAnswer(reader *bufio.Reader, out io.Writer, question questionItem, maxInvalidAnswers int) (answerRequest, bool) {
	for invalidCount := 1; ; invalidCount++ {
		if question.Type == string(quiz.TypeShortAnswer) {
			if text, ok := promptText(reader, out); ok {
				return answerRequest{Text: text}, true
			}
		} else if letter, ok := promptAnswer(reader, out, len(question.Choices)); ok {
			return answerRequest{ChoiceID: question.Choices[letter[0]-'A'].ChoiceID}, true
		}

		if invalidCount >= maxInvalidAnswers {
			return answerRequest{}, false
		}
		fmt.Fprintf(out, "Invalid input. Attempts remaining: %d\n", maxInvalidAnswers-invalidCount)
	}
}
