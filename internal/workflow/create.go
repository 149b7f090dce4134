// internal/workflow/create.go
//
// The creation workflow.
//
// Context
// -------
// One run turns a business brief into a durable site identity: a claimed
// subdomain plus an upstream website ID, persisted exactly once.  Failure
// classification is the heart of it:
//
//   • success with no ID      → BAD_RESPONSE, fatal (contract violation)
//   • timeout                 → reconcile; a hit is the original call
//                               having landed, a miss costs one attempt
//                               and a fresh subdomain
//   • “subdomain in use” code → fresh subdomain, costs one attempt
//   • anything else           → fatal, propagated immediately
//
// Exhausting all attempts ends in SUBDOMAIN_COLLISION.

package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sitewright/sitewright/internal/metrics"
	"github.com/sitewright/sitewright/internal/site"
	"github.com/sitewright/sitewright/internal/slug"
	"github.com/sitewright/sitewright/internal/tenweb"
)

var briefValidator = validator.New()

// Brief is the business description the UI submits to start a site.
type Brief struct {
	BusinessName        string `json:"business_name"        validate:"required,min=2,max=120"`
	BusinessType        string `json:"business_type"        validate:"required,max=60"`
	BusinessDescription string `json:"business_description" validate:"required,min=10,max=2000"`
}

// CreateResult is the durable identity a successful run returns.
type CreateResult struct {
	SiteID    string `json:"site_id"`
	TenWebID  int64  `json:"tenweb_website_id"`
	Subdomain string `json:"subdomain"`
	Reused    bool   `json:"reused"` // true when reconciliation found prior work
}

// CreateWebsite runs the creation workflow for brief.  Concurrent calls
// with the same business name share one run via singleflight.
func (e *Engine) CreateWebsite(ctx context.Context, brief Brief) (*CreateResult, error) {
	if err := briefValidator.Struct(brief); err != nil {
		return nil, &ValidationError{Field: "brief", Reason: err.Error()}
	}

	base := slug.Make(brief.BusinessName)
	v, err, _ := e.sfg.Do(base, func() (any, error) {
		return e.createWebsite(ctx, brief, base)
	})
	if err != nil {
		return nil, err
	}
	return v.(*CreateResult), nil
}

func (e *Engine) createWebsite(ctx context.Context, brief Brief, base string) (*CreateResult, error) {
	// Idempotent short-circuit: a previous run may have finished upstream
	// without us recording the response.
	if rec, found, err := e.reconcile(ctx, brief, base); err != nil {
		metrics.SiteCreationsTotal.WithLabelValues("error").Inc()
		return nil, err
	} else if found {
		metrics.SiteCreationsTotal.WithLabelValues("linked").Inc()
		return resultFromRecord(rec, true), nil
	}

	sub, err := e.allocate(ctx, base)
	if err != nil {
		metrics.SiteCreationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	for attempt := 1; attempt <= e.limits.CreateAttempts; attempt++ {
		res, err := e.up.CreateWebsite(ctx, tenweb.CreateWebsiteParams{
			Subdomain:     sub,
			Region:        e.up.Region(),
			SiteTitle:     brief.BusinessName,
			AdminUsername: randomAdminUser(),
			AdminPassword: randomAdminPassword(),
		})

		switch {
		case err == nil:
			if res.ID == nil {
				metrics.SiteCreationsTotal.WithLabelValues("error").Inc()
				zap.S().Errorw("creation succeeded without a website id",
					"subdomain", sub, "attempt", attempt)
				return nil, fmt.Errorf("create website on %q: %w", sub, ErrBadResponse)
			}
			rec, perr := e.persistCreated(ctx, brief, sub, *res.ID)
			if perr != nil {
				metrics.SiteCreationsTotal.WithLabelValues("error").Inc()
				return nil, perr
			}
			metrics.SiteCreationsTotal.WithLabelValues("created").Inc()
			metrics.CreationAttempts.Observe(float64(attempt))
			zap.S().Infow("website created",
				"site_id", rec.ID, "tenweb_id", *res.ID, "subdomain", sub, "attempt", attempt)
			return resultFromRecord(rec, false), nil

		case errors.Is(err, tenweb.ErrAborted):
			// The call may have landed.  Check before spending the attempt.
			rec, found, rerr := e.reconcile(ctx, brief, sub)
			if rerr != nil {
				metrics.SiteCreationsTotal.WithLabelValues("error").Inc()
				return nil, rerr
			}
			if found {
				metrics.SiteCreationsTotal.WithLabelValues("linked").Inc()
				zap.S().Infow("timed-out creation had landed upstream",
					"site_id", rec.ID, "subdomain", sub, "attempt", attempt)
				return resultFromRecord(rec, true), nil
			}
			zap.S().Warnw("creation timed out with no upstream trace, retrying fresh",
				"subdomain", sub, "attempt", attempt)
			if sub, err = e.allocate(ctx, base); err != nil {
				metrics.SiteCreationsTotal.WithLabelValues("error").Inc()
				return nil, err
			}

		case tenweb.SubdomainTaken(err):
			zap.S().Infow("subdomain collision on create, retrying fresh",
				"subdomain", sub, "attempt", attempt)
			if sub, err = e.allocate(ctx, base); err != nil {
				metrics.SiteCreationsTotal.WithLabelValues("error").Inc()
				return nil, err
			}

		default:
			metrics.SiteCreationsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
	}

	metrics.SiteCreationsTotal.WithLabelValues("collision").Inc()
	return nil, ErrSubdomainCollision
}

// persistCreated inserts the new record, falling back to the winner's row
// when another writer linked the same upstream ID first.
func (e *Engine) persistCreated(ctx context.Context, brief Brief, sub string, tenwebID int64) (*site.Record, error) {
	rec, err := e.store.Insert(ctx, site.Record{
		TenWebID:     &tenwebID,
		BusinessName: brief.BusinessName,
		BusinessType: brief.BusinessType,
		BusinessDesc: brief.BusinessDescription,
		Subdomain:    sub,
	})
	if errors.Is(err, site.ErrDuplicateUpstreamID) {
		return e.store.ByTenWebID(ctx, tenwebID)
	}
	if err != nil {
		return nil, err
	}
	e.store.Append(ctx, rec.ID, "website.created", map[string]any{
		"tenweb_id": tenwebID, "subdomain": sub,
	})
	return rec, nil
}

func resultFromRecord(rec *site.Record, reused bool) *CreateResult {
	out := &CreateResult{SiteID: rec.ID, Subdomain: rec.Subdomain, Reused: reused}
	if rec.TenWebID != nil {
		out.TenWebID = *rec.TenWebID
	}
	return out
}
