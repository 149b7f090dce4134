// internal/workflow/steps.go
//
// Shared plumbing for pipeline steps: record loading and uniform failure
// handling.  Every step failure is logged with the step name and the site
// identifiers before it is propagated; nothing is silently discarded.

package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sitewright/sitewright/internal/metrics"
	"github.com/sitewright/sitewright/internal/site"
)

// loadLinked fetches the record and requires an upstream link, which every
// step after creation depends on.
func (e *Engine) loadLinked(ctx context.Context, siteID string) (*site.Record, error) {
	if siteID == "" {
		return nil, &ValidationError{Field: "site_id", Reason: "must not be empty"}
	}
	rec, err := e.store.ByID(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if rec.TenWebID == nil {
		return nil, &ValidationError{Field: "site_id", Reason: "site has no upstream website yet"}
	}
	return rec, nil
}

// stepFailed records the failure and returns it wrapped with the step name.
func (e *Engine) stepFailed(ctx context.Context, siteID, step string, err error) error {
	metrics.PipelineStepsTotal.WithLabelValues(step, "error").Inc()
	zap.S().Errorw("pipeline step failed", "step", step, "site_id", siteID, "err", err)
	e.store.Append(ctx, siteID, step+".failed", map[string]any{"error": err.Error()})
	return fmt.Errorf("%s step: %w", step, err)
}
