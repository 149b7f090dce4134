// internal/workflow/publish.go
//
// Pipeline step 4: page publishing.
//
// Lists every page of the upstream website, issues one bulk-publish call
// across all page IDs, flips status to published, and reports the count.

package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/sitewright/sitewright/internal/metrics"
	"github.com/sitewright/sitewright/internal/retry"
	"github.com/sitewright/sitewright/internal/site"
	"github.com/sitewright/sitewright/internal/tenweb"
)

// PublishResult reports how much went live.
type PublishResult struct {
	SiteID         string `json:"site_id"`
	PublishedCount int    `json:"published_count"`
}

// PublishPages publishes every page of one site.
func (e *Engine) PublishPages(ctx context.Context, siteID string) (*PublishResult, error) {
	rec, err := e.loadLinked(ctx, siteID)
	if err != nil {
		return nil, err
	}
	// Lifecycle gate before any upstream side effect: publishing a site
	// that was never generated must fail without touching its pages.
	if !rec.Status.CanTransition(site.StatusPublished) {
		return nil, &site.ErrBadTransition{From: rec.Status, To: site.StatusPublished}
	}

	var pages []tenweb.Page
	err = retry.Do(ctx, e.policy, stepRetryable, func() error {
		var callErr error
		pages, callErr = e.up.ListPages(ctx, *rec.TenWebID)
		return callErr
	})
	if err != nil {
		return nil, e.stepFailed(ctx, rec.ID, "publish", err)
	}
	if len(pages) == 0 {
		return &PublishResult{SiteID: rec.ID, PublishedCount: 0}, nil
	}

	ids := make([]int64, 0, len(pages))
	for _, p := range pages {
		ids = append(ids, p.ID)
	}

	err = retry.Do(ctx, e.policy, mutationRetryable, func() error {
		return e.up.PublishPages(ctx, *rec.TenWebID, ids)
	})
	if err != nil {
		return nil, e.stepFailed(ctx, rec.ID, "publish", err)
	}

	if err := e.store.UpdateStatus(ctx, rec.ID, site.StatusPublished); err != nil {
		return nil, e.stepFailed(ctx, rec.ID, "publish", err)
	}

	metrics.PipelineStepsTotal.WithLabelValues("publish", "ok").Inc()
	e.store.Append(ctx, rec.ID, "pages.published", map[string]any{"count": len(ids)})
	zap.S().Infow("pages published", "site_id", rec.ID, "count", len(ids))

	return &PublishResult{SiteID: rec.ID, PublishedCount: len(ids)}, nil
}
