// internal/retry/retry.go
//
// Reusable bounded-retry policy.
//
// Context
// -------
// Every upstream call in the orchestration layer retries the same way:
// a fixed attempt cap with exponential backoff (1s, 2s, 4s, …) and a
// caller-supplied predicate deciding which errors are worth another try.
// Rather than hand-rolling that loop at each call site, callers build a
// Policy value once and pass it to Do together with the predicate.
//
// The engine is cenkalti/backoff; randomization is disabled so the
// schedule is deterministic (2^attempt seconds, capped at MaxDelay).
//
// Notes
// -----
// • A nil predicate means “retry everything”.
// • Context cancellation aborts the wait between attempts immediately.

package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes one retry regime: how many attempts in total, the
// first backoff delay, and the cap the exponential schedule saturates at.
type Policy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // ceiling for the exponential schedule
}

// DefaultUpstream is the regime observed for upstream 5xx/429 handling:
// three retries after the initial attempt, starting at one second.
var DefaultUpstream = Policy{
	MaxAttempts: 4,
	BaseDelay:   time.Second,
	MaxDelay:    30 * time.Second,
}

// Do runs fn until it succeeds, the policy is exhausted, or retryable
// rejects the error.  The last error is returned verbatim on failure so
// callers can still branch on sentinel or typed errors.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.RandomizationFactor = 0 // deterministic schedule, no jitter
	bo.Multiplier = 2
	bo.MaxInterval = p.MaxDelay
	bo.MaxElapsedTime = 0 // attempts, not wall clock, bound the loop

	op := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	attempts := uint64(0)
	if p.MaxAttempts > 1 {
		attempts = uint64(p.MaxAttempts - 1)
	}
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, attempts), ctx))
}
