package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"adaptive-quiz/internal/opentdb"
	"adaptive-quiz/internal/quiz"
)

const (
	maxAttempts   = 3
	questionCount = 10
	localUserID   = "local"
	localQuizID   = "trivia"
)

// QuestionSource supplies raw questions for a local session.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, amount int) ([]opentdb.RawQuestion, error)
}

// Run plays one adaptive quiz in the terminal against an in-memory bank
// filled from source.
func Run(ctx context.Context, in io.Reader, out io.Writer, source QuestionSource) error {
	rawQuestions, err := source.FetchQuestions(ctx, questionCount)
	if err != nil {
		return err
	}

	store := quiz.NewMemoryStore()
	if err := store.AddQuestions(quiz.BuildQuestions(rawQuestions, quiz.ImportScope{}, nil)...); err != nil {
		return err
	}
	service := quiz.NewService(store, store, store, store, store)
	if err := service.SaveQuizConfig(ctx, quiz.QuizConfig{
		QuizID:             localQuizID,
		Title:              "Trivia",
		Kind:               quiz.KindGeneral,
		QuestionCount:      questionCount,
		RandomizeQuestions: true,
	}); err != nil {
		return err
	}

	attempt, err := service.StartQuiz(ctx, localUserID, localQuizID)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(in)
	for number := 1; ; number++ {
		question, ok, err := service.NextQuestion(ctx, attempt.AttemptID)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		choices := service.PresentChoices(attempt, question)
		printQuestion(out, number, question, choices)

		started := time.Now()
		chosenIndex, answered := getAnswer(reader, out, len(choices))
		fmt.Fprintln(out)

		submission := quiz.Submission{TimeSpentSeconds: int(time.Since(started).Seconds())}
		if answered {
			submission.ChoiceID = choices[chosenIndex].ChoiceID
		} else {
			submission.TimedOut = true
		}

		result, err := service.RecordAnswer(ctx, attempt.AttemptID, question.QuestionID, submission)
		if err != nil {
			return err
		}

		correctText := correctChoiceText(choices)
		switch {
		case !answered:
			fmt.Fprintf(out, "Out of tries, question recorded as timed out. Correct answer was %s\n", correctText)
		case result.IsCorrect:
			fmt.Fprintln(out, "Correct!")
		default:
			fmt.Fprintf(out, "Wrong. Correct answer was %s\n", correctText)
		}
		fmt.Fprintln(out)
	}

	if _, err := service.Complete(ctx, attempt.AttemptID); err != nil {
		return err
	}
	summary, err := service.Summary(ctx, attempt.AttemptID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nFinal score: %d/%d (%d%%)\n",
		summary.Attempt.CorrectAnswers, summary.Attempt.TotalQuestions, summary.ScorePercent)
	if summary.TimedOutAnswers > 0 {
		fmt.Fprintf(out, "Timed out: %d\n", summary.TimedOutAnswers)
	}
	return nil
}

func printQuestion(out io.Writer, number int, question quiz.Question, choices []quiz.Choice) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Q%d: %s\n\n", number, question.Text)
	for idx, choice := range choices {
		fmt.Fprintf(out, "%c. %s\n", 'A'+idx, choice.Text)
	}
	fmt.Fprintf(out, "Answer with a letter. After %d invalid tries the question times out.\n\n", maxAttempts)
}

func getAnswer(reader *bufio.Reader, out io.Writer, optionCount int) (int, bool) {
	if optionCount < 1 {
		return -1, false
	}

	maxLetter := byte('A' + optionCount - 1)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		userAnswer, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || userAnswer == "") {
			return -1, false
		}

		userAnswer = strings.ToUpper(strings.TrimSpace(userAnswer))
		if len(userAnswer) == 1 {
			letter := userAnswer[0]
			if letter >= 'A' && letter <= maxLetter {
				return int(letter - 'A'), true
			}
		}

		if attempt < maxAttempts {
			fmt.Fprintf(out, "\nInvalid input. Please enter a letter A-%c.\n", maxLetter)
		}
	}

	return -1, false
}

func correctChoiceText(choices []quiz.Choice) string {
	for _, choice := range choices {
		if choice.IsCorrect {
			return choice.Text
		}
	}
	return ""
}
