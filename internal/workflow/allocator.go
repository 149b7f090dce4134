// internal/workflow/allocator.go
//
// Subdomain allocation: probe the candidate, fall back to upstream-
// generated names, give up after a fixed bound.
//
// The bound matters.  An always-colliding upstream must produce
// ErrNoFreeSubdomain after SubdomainAttempts probes, never an infinite
// loop and never a silent success.

package workflow

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sitewright/sitewright/internal/slug"
	"github.com/sitewright/sitewright/internal/tenweb"
)

// CheckSubdomainResult answers the check-subdomain action.
type CheckSubdomainResult struct {
	Subdomain string `json:"subdomain"`
	Available bool   `json:"available"`
}

// CheckSubdomain derives the slug for name and asks the upstream whether
// it is free.  A taken name is a normal answer, not an error.
func (e *Engine) CheckSubdomain(ctx context.Context, name string) (*CheckSubdomainResult, error) {
	if name == "" {
		return nil, &ValidationError{Field: "business_name", Reason: "must not be empty"}
	}
	sub := slug.Make(name)
	err := e.up.CheckSubdomain(ctx, sub)
	if err == nil {
		return &CheckSubdomainResult{Subdomain: sub, Available: true}, nil
	}
	if tenweb.SubdomainTaken(err) {
		return &CheckSubdomainResult{Subdomain: sub, Available: false}, nil
	}
	return nil, err
}

// allocate secures a free subdomain starting from candidate.  Each failed
// probe consumes one attempt and swaps in an upstream-generated candidate.
func (e *Engine) allocate(ctx context.Context, candidate string) (string, error) {
	sub := candidate
	for attempt := 1; attempt <= e.limits.SubdomainAttempts; attempt++ {
		err := e.up.CheckSubdomain(ctx, sub)
		if err == nil {
			zap.S().Debugw("subdomain allocated", "subdomain", sub, "attempt", attempt)
			return sub, nil
		}
		if !tenweb.SubdomainTaken(err) && !tenweb.Retryable(err) && !errors.Is(err, tenweb.ErrAborted) {
			// auth failures and the like: no point generating more names
			return "", err
		}
		zap.S().Infow("subdomain unavailable, generating alternative",
			"subdomain", sub, "attempt", attempt, "err", err)

		next, genErr := e.up.GenerateSubdomain(ctx)
		if genErr != nil {
			return "", genErr
		}
		sub = next
	}
	return "", ErrNoFreeSubdomain
}
