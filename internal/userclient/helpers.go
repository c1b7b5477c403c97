package userclient

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

func printQuestion(out io.Writer, number int, question questionItem) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Q%d (%s): %s\n\n", number, question.Difficulty, question.Text)
	for idx, choice := range question.Choices {
		fmt.Fprintf(out, "%c. %s\n", 'A'+idx, choice.Text)
	}
	if question.TimeLimitSeconds > 0 {
		fmt.Fprintf(out, "(time limit: %ds)\n", question.TimeLimitSeconds)
	}
	fmt.Fprintln(out)
}

func promptAnswer(reader *bufio.Reader, out io.Writer, optionCount int) (string, bool) {
	if optionCount < 1 {
		return "", false
	}

	maxLetter := byte('A' + optionCount - 1)
	fmt.Fprintf(out, "Your answer (A-%c): ", maxLetter)

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}

	answer := strings.ToUpper(strings.TrimSpace(line))
	if len(answer) != 1 {
		return "", false
	}
	letter := answer[0]
	if letter < 'A' || letter > maxLetter {
		return "", false
	}

	return answer, true
}

func promptText(reader *bufio.Reader, out io.Writer) (string, bool) {
	fmt.Fprint(out, "Your answer: ")
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	answer := strings.TrimSpace(line)
	return answer, answer != ""
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  quizzes [limit]")
	fmt.Fprintln(out, "  leaderboard <quiz_id> [limit]")
	fmt.Fprintln(out, "  play <quiz_id>")
	fmt.Fprintln(out, "  exit")
}

func parsePositiveLimit(args []string, index int, defaultValue int) (int, error) {
	if len(args) <= index {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(args[index])
	if err != nil || value <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return value, nil
}

func parseSignedLimit(args []string, index int, defaultValue int) (int, error) {
	if len(args) <= index {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(args[index])
	if err != nil {
		return 0, errors.New("must be an integer")
	}
	return value, nil
}

func promptYesNo(reader *bufio.Reader, out io.Writer, prompt string) (bool, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}

func describeClientError(err error, serverURL string) error {
	if errors.Is(err, ErrServiceUnavailable) {
		return fmt.Errorf("quiz service unavailable at %s", serverURL)
	}
	return err
}
