// internal/retry/retry_test.go
//
// Unit-tests for the bounded-retry policy.
//
// Run: go test ./internal/retry -v

package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFlaky = errors.New("transient upstream hiccup")

// fast is a millisecond-scale policy so tests finish quickly.
func fast(attempts int) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 8 * time.Millisecond}
}

func TestDo_StopsAtMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast(4), nil, func() error {
		calls++
		return errFlaky
	})
	if !errors.Is(err, errFlaky) {
		t.Fatalf("err = %v, want errFlaky", err)
	}
	if calls != 4 {
		t.Fatalf("calls = %d, want 4", calls)
	}
}

func TestDo_SucceedsMidway(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast(4), nil, func() error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDo_PermanentErrorShortCircuits(t *testing.T) {
	fatal := errors.New("validation failed")
	calls := 0
	err := Do(context.Background(), fast(4), func(e error) bool { return errors.Is(e, errFlaky) }, func() error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("err = %v, want fatal", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on non-retryable error)", calls)
	}
}

func TestDo_ContextCancelAbortsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := Policy{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
	err := Do(ctx, p, nil, func() error {
		calls++
		cancel()
		return errFlaky
	})
	if err == nil {
		t.Fatal("err = nil, want cancellation")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
