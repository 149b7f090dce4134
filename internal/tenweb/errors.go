// internal/tenweb/errors.go
//
// Error taxonomy for the upstream site-builder API.
//
// Context
// -------
// The single most important contract in the orchestration layer is that a
// timeout is not proof of failure: the upstream call may have completed
// server-side.  The client therefore surfaces deadline expiry as the
// distinct sentinel ErrAborted, never as a generic transport error, so the
// creation workflow can reconcile instead of retrying blind.
//
// HTTP failures carry the parsed error body as *APIError.  Where the body
// matches the documented `{error: {code, message}}` envelope the code is
// lifted out for branching; otherwise the raw body rides along opaquely.

package tenweb

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAborted reports that a call hit its deadline before the upstream
// answered.  The outcome upstream is unknown; callers must reconcile.
var ErrAborted = errors.New("tenweb: call aborted by timeout")

// Error codes the workflow branches on.  The upstream is not perfectly
// consistent about codes versus prose, so SubdomainTaken also sniffs the
// message text.
const (
	CodeSubdomainInUse = "subdomain_in_use"
)

// APIError is a non-2xx response from the site-builder API.
type APIError struct {
	Status  int    // HTTP status
	Path    string // request path, for logs
	Code    string // machine code from the error envelope, may be empty
	Message string // human message from the error envelope, may be empty
	Body    []byte // raw body, kept for forward compatibility
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tenweb %s: %d %s (%s)", e.Path, e.Status, e.Code, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("tenweb %s: %d %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("tenweb %s: HTTP %d", e.Path, e.Status)
}

// SubdomainTaken reports whether err is the named “subdomain already in
// use” collision.
func SubdomainTaken(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	if ae.Code == CodeSubdomainInUse {
		return true
	}
	msg := strings.ToLower(ae.Message)
	return strings.Contains(msg, "subdomain") && strings.Contains(msg, "in use")
}

// Retryable reports whether err is worth another attempt: HTTP 429 or any
// 5xx.  Timeouts are deliberately excluded; they go through reconciliation
// on mutating calls and through the caller's own policy on reads.
func Retryable(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Status == 429 || ae.Status >= 500
}
