package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Jitter pauses for a uniformly random duration inside a range, so page loads
// do not arrive at a fixed cadence.
type Jitter struct {
	mu    sync.Mutex
	randN func(n int64) int64
	sleep func(ctx context.Context, d time.Duration) error
}

// NewJitter creates a Jitter backed by math/rand/v2 and a real timer
func NewJitter() *Jitter {
	return &Jitter{randN: rand.Int64N, sleep: sleepCtx}
}

// NewJitterWithSource creates a Jitter with a caller-supplied random source and sleeper.
// Either may be nil to keep the default.
func NewJitterWithSource(int64n func(n int64) int64, sleep func(ctx context.Context, d time.Duration) error) *Jitter {
	j := NewJitter()
	if int64n != nil {
		j.randN = int64n
	}
	if sleep != nil {
		j.sleep = sleep
	}
	return j
}

// Duration picks a duration in [min, max]
func (j *Jitter) Duration(min, max time.Duration) time.Duration {
	if max < min {
		max = min
	}
	if min < 0 {
		min = 0
	}
	span := int64(max - min)
	if span <= 0 {
		return min
	}
	j.mu.Lock()
	n := j.randN(span + 1)
	j.mu.Unlock()
	return min + time.Duration(n)
}

// Pause blocks for a random duration in [min, max]. It returns ctx.Err() if ctx
// is done first.
func (j *Jitter) Pause(ctx context.Context, min, max time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d := j.Duration(min, max)
	log.Debug().Dur("pause", d).Msg("Pacing")
	return j.sleep(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
