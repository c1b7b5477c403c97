package quiz

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

type options struct {
	rng   *lockedRand
	now   func() time.Time
	newID func() string
}

type Option func(*options)

// WithRand injects the randomness source used for tie-breaks, sampling and
// random picks. Tests pass a seeded source to get exact orderings.
func WithRand(rnd *rand.Rand) Option {
	return func(o *options) {
		o.rng = newLockedRand(rnd)
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		if newID != nil {
			o.newID = newID
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = newLockedRand(nil)
	}
	return o
}
