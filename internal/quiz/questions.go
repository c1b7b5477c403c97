package quiz

import (
	"crypto/sha1"
	"encoding/hex"
	"html"
	"math/rand"
	"strconv"
	"strings"

	"adaptive-quiz/internal/opentdb"
)

// ImportScope tags questions imported from an external bank.
type ImportScope struct {
	CurriculumID string
	ClassLevelID string
	Premium      bool
}

// BuildQuestions converts OpenTDB payloads into active multiple-choice bank
// questions. The category becomes the subject. Choice order is shuffled with
// rnd, or the global source when nil.
func BuildQuestions(raw []opentdb.RawQuestion, scope ImportScope, rnd *rand.Rand) []Question {
	shuffle := rand.Shuffle
	if rnd != nil {
		shuffle = rnd.Shuffle
	}

	questions := make([]Question, 0, len(raw))
	for _, item := range raw {
		questions = append(questions, buildQuestion(item, scope, shuffle))
	}
	return questions
}

// MakeQuestionID derives a stable ID from the prompt and choice texts in order.
func MakeQuestionID(question Question) string {
	var keyBuilder strings.Builder
	keyBuilder.WriteString(question.Text)
	for _, choice := range question.Choices {
		keyBuilder.WriteString("|")
		keyBuilder.WriteString(choice.Text)
	}
	for _, answer := range question.Answers {
		keyBuilder.WriteString("|=")
		keyBuilder.WriteString(answer.Text)
	}

	hash := sha1.Sum([]byte(keyBuilder.String()))
	return "q_" + hex.EncodeToString(hash[:6])
}

// Slugify turns a display name into a lowercase, dash-separated identifier.
func Slugify(name string) string {
	var builder strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			builder.WriteRune(r)
			lastDash = false
		case !lastDash:
			builder.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(builder.String(), "-")
}

func buildQuestion(raw opentdb.RawQuestion, scope ImportScope, shuffle func(n int, swap func(i, j int))) Question {
	choices := make([]Choice, 0, len(raw.IncorrectAnswers)+1)
	for _, incorrect := range raw.IncorrectAnswers {
		choices = append(choices, Choice{
			Text:      html.UnescapeString(incorrect),
			IsCorrect: false,
		})
	}
	choices = append(choices, Choice{
		Text:      html.UnescapeString(raw.CorrectAnswer),
		IsCorrect: true,
	})

	question := Question{
		Text:         html.UnescapeString(raw.Question),
		Type:         TypeMultipleChoice,
		Difficulty:   parseDifficulty(raw.Difficulty),
		Active:       true,
		Premium:      scope.Premium,
		CurriculumID: scope.CurriculumID,
		ClassLevelID: scope.ClassLevelID,
		SubjectID:    Slugify(html.UnescapeString(raw.Category)),
		Choices:      choices,
	}
	// The ID is taken before shuffling so re-importing a question is idempotent.
	question.QuestionID = MakeQuestionID(question)

	shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})
	for idx := range choices {
		choices[idx].ChoiceID = strconv.Itoa(idx + 1)
	}
	return question
}

func parseDifficulty(value string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(value))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}
