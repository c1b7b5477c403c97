package quiz

import (
	"hash/fnv"
	"math/rand"
	"time"
)

// ShuffleChoices returns the question's choices in random order. A non-nil
// seed makes the order reproducible. Non multiple-choice questions yield an
// empty slice.
func ShuffleChoices(question Question, seed *int64) []Choice {
	if question.Type != TypeMultipleChoice {
		return []Choice{}
	}

	var r *rand.Rand
	if seed != nil {
		r = rand.New(rand.NewSource(*seed))
	} else {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	out := append([]Choice(nil), question.Choices...)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// PresentationSeed derives a stable shuffle seed for a question inside an
// attempt, so a resumed attempt shows the same choice order.
func PresentationSeed(attemptID, questionID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(attemptID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(questionID))
	return int64(h.Sum64())
}
