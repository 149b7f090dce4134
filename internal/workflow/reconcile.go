// internal/workflow/reconcile.go
//
// Site existence reconciliation.
//
// Context
// -------
// A timed-out creation call may have landed upstream.  Before trusting any
// failure signal, the workflow lists the account's websites and looks for
// one whose URL or admin URL carries the candidate subdomain.  A hit is
// linked to (or looked up as) a local record and returned; the caller then
// treats the original timeout as a false negative.
//
// The local lookup-then-insert here is a check-then-act window.  It is not
// transactional on purpose (matching the accepted best-effort semantics),
// but the unique index on tenweb_website_id makes the losing writer fail
// with ErrDuplicateUpstreamID, at which point we re-read the winner.

package workflow

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/sitewright/sitewright/internal/metrics"
	"github.com/sitewright/sitewright/internal/site"
)

// reconcile looks upstream for a website on subdomain.  When found it
// returns the linked local record, creating one from brief if none exists.
// found == false with nil error means the upstream genuinely has no such
// site.
func (e *Engine) reconcile(ctx context.Context, brief Brief, subdomain string) (rec *site.Record, found bool, err error) {
	sites, err := e.up.ListWebsites(ctx)
	if err != nil {
		metrics.ReconciliationsTotal.WithLabelValues("error").Inc()
		return nil, false, err
	}

	needle := subdomain + "."
	for _, w := range sites {
		if !strings.Contains(w.SiteURL, needle) && !strings.Contains(w.AdminURL, needle) {
			continue
		}

		rec, err := e.store.ByTenWebID(ctx, w.ID)
		if err == nil {
			metrics.ReconciliationsTotal.WithLabelValues("matched").Inc()
			zap.S().Infow("reconciler matched existing record",
				"site_id", rec.ID, "tenweb_id", w.ID, "subdomain", subdomain)
			return rec, true, nil
		}
		if !errors.Is(err, site.ErrNotFound) {
			metrics.ReconciliationsTotal.WithLabelValues("error").Inc()
			return nil, false, err
		}

		// Upstream site exists but no local record: adopt it.
		id := w.ID
		rec, err = e.store.Insert(ctx, site.Record{
			TenWebID:     &id,
			BusinessName: brief.BusinessName,
			BusinessType: brief.BusinessType,
			BusinessDesc: brief.BusinessDescription,
			Subdomain:    subdomain,
			SiteURL:      w.SiteURL,
		})
		if errors.Is(err, site.ErrDuplicateUpstreamID) {
			// Lost the link race; the winner's row is authoritative.
			rec, err = e.store.ByTenWebID(ctx, w.ID)
		}
		if err != nil {
			metrics.ReconciliationsTotal.WithLabelValues("error").Inc()
			return nil, false, err
		}

		metrics.ReconciliationsTotal.WithLabelValues("matched").Inc()
		e.store.Append(ctx, rec.ID, "website.reconciled", map[string]any{
			"tenweb_id": w.ID, "subdomain": subdomain,
		})
		zap.S().Infow("reconciler adopted upstream site",
			"site_id", rec.ID, "tenweb_id", w.ID, "subdomain", subdomain)
		return rec, true, nil
	}

	metrics.ReconciliationsTotal.WithLabelValues("missed").Inc()
	return nil, false, nil
}
