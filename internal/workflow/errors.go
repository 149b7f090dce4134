// internal/workflow/errors.go
//
// Coded terminal errors for the orchestration workflows.
//
// Context
// -------
// User-visible failure text stays generic; the machine-readable code rides
// along so the API layer and the UI can branch programmatically.  Internal
// retry and reconciliation loops never leak here: only terminal outcomes
// carry one of these.

package workflow

import "fmt"

// CodedError pairs a stable machine code with a human message.  Compare
// with errors.Is against the package sentinels; wrap causes with %w.
type CodedError struct {
	Code    string
	Message string
}

func (e *CodedError) Error() string { return e.Code + ": " + e.Message }

// Sentinels the API layer pattern-matches into HTTP statuses.
var (
	// ErrNoFreeSubdomain: the allocator ran out of attempts without the
	// upstream confirming any candidate free.
	ErrNoFreeSubdomain = &CodedError{
		Code:    "NO_FREE_SUBDOMAIN",
		Message: "could not allocate a free subdomain",
	}

	// ErrSubdomainCollision: every creation attempt collided; maps to 409.
	ErrSubdomainCollision = &CodedError{
		Code:    "SUBDOMAIN_COLLISION",
		Message: "all creation attempts collided on subdomain",
	}

	// ErrBadResponse: the upstream reported success but omitted a field the
	// workflow cannot proceed without.  Fatal, never retried; silently
	// proceeding would corrupt the persisted record.
	ErrBadResponse = &CodedError{
		Code:    "BAD_RESPONSE",
		Message: "upstream response missing required data",
	}
)

// ValidationError reports malformed caller input.  Fatal, maps to 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}
