package fetcher

import (
	"context"
	"time"
)

// Class is the outcome classification a retry policy acts on.
type Class int

const (
	// ClassOK means the attempt succeeded.
	ClassOK Class = iota

	// ClassNetwork is a transient network failure (timeout, DNS, reset).
	// Retried with linear backoff.
	ClassNetwork

	// ClassBlocked is a bot-detection rejection (403/429 or a challenge
	// fingerprint). Retried with exponential backoff and a fresh identity.
	ClassBlocked

	// ClassChallenge is a CDN-edge bot challenge (Cloudflare-style).
	// Same policy as ClassBlocked with a doubled backoff base.
	ClassChallenge

	// ClassFatal is not retryable; the attempt's error is surfaced as-is
	// without consuming further attempts.
	ClassFatal
)

// BackoffFunc maps (class, attempt) to a wait duration. Attempts are 1-based.
type BackoffFunc func(class Class, attempt int) time.Duration

// Policy parameterizes the shared retry loop.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc

	// sleep is an injection point for tests; nil means real sleeping.
	sleep func(ctx context.Context, d time.Duration) error
}

// Do runs op until it succeeds, returns a fatal class, or exhausts
// MaxAttempts. The classifier decides retryability; Do owns the waiting.
// This is the single retry loop shared by page fetches and asset downloads.
func Do[T any](ctx context.Context, p Policy, op func(attempt int) (T, Class, error)) (T, error) {
	var zero T
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, class, err := op(attempt)
		switch class {
		case ClassOK:
			return result, nil
		case ClassFatal:
			return zero, err
		}

		lastErr = err
		if attempt == p.MaxAttempts {
			break
		}
		if err := sleep(ctx, p.Backoff(class, attempt)); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

// defaultBackoff implements the fetcher's wait schedule. Attempts 1..3 for
// blocked responses wait 2s, 4s, 8s; challenge blocks double that; network
// errors back off linearly at 1s per attempt.
func defaultBackoff(class Class, attempt int) time.Duration {
	switch class {
	case ClassBlocked:
		return time.Duration(1<<attempt) * time.Second
	case ClassChallenge:
		return time.Duration(1<<attempt) * 2 * time.Second
	default:
		return time.Duration(attempt) * time.Second
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
