// Package backoff provides the single retry helper used by all network
// callers: bounded exponential backoff with jitter.
package backoff

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Permanent wraps an error that must not be retried.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string { return p.Err.Error() }
func (p *Permanent) Unwrap() error { return p.Err }

// Abort marks err as permanent so Do returns it without further attempts.
func Abort(err error) error {
	return &Permanent{Err: err}
}

// Do invokes fn up to attempts times, sleeping base*2^n plus up to base of
// jitter between tries. Context cancellation and Permanent errors stop the
// loop immediately; the last error is returned when all attempts fail.
func Do(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			delay := base<<(i-1) + time.Duration(rand.Int63n(int64(base)+1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err = fn(); err == nil {
			return nil
		}

		var perm *Permanent
		if errors.As(err, &perm) {
			return perm.Err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return err
}
