// internal/workflow/domains.go
//
// Pipeline step 5 and the small admin pass-throughs: front-page selection,
// domain listing, upstream-site attachment, and wp-admin autologin.  All
// are simple calls with response reshaping; they share the step plumbing
// so failures are logged and audited uniformly.

package workflow

import (
	"context"
	"errors"

	"github.com/sitewright/sitewright/internal/metrics"
	"github.com/sitewright/sitewright/internal/retry"
	"github.com/sitewright/sitewright/internal/site"
	"github.com/sitewright/sitewright/internal/slug"
	"github.com/sitewright/sitewright/internal/tenweb"
)

// SetFrontPage makes pageID the home page of the site.
func (e *Engine) SetFrontPage(ctx context.Context, siteID string, pageID int64) error {
	rec, err := e.loadLinked(ctx, siteID)
	if err != nil {
		return err
	}
	if pageID <= 0 {
		return &ValidationError{Field: "page_id", Reason: "must be a positive page id"}
	}

	err = retry.Do(ctx, e.policy, mutationRetryable, func() error {
		return e.up.SetFrontPage(ctx, *rec.TenWebID, pageID)
	})
	if err != nil {
		return e.stepFailed(ctx, rec.ID, "front_page", err)
	}

	metrics.PipelineStepsTotal.WithLabelValues("front_page", "ok").Inc()
	e.store.Append(ctx, rec.ID, "front_page.set", map[string]any{"page_id": pageID})
	return nil
}

// DomainsResult lists the domains of a site and which one is the default.
type DomainsResult struct {
	SiteID  string          `json:"site_id"`
	Domains []tenweb.Domain `json:"domains"`
	Default string          `json:"default_domain"`
}

// GetDomains retrieves the domains attached to the upstream website.
func (e *Engine) GetDomains(ctx context.Context, siteID string) (*DomainsResult, error) {
	rec, err := e.loadLinked(ctx, siteID)
	if err != nil {
		return nil, err
	}

	var domains []tenweb.Domain
	err = retry.Do(ctx, e.policy, stepRetryable, func() error {
		var callErr error
		domains, callErr = e.up.ListDomains(ctx, *rec.TenWebID)
		return callErr
	})
	if err != nil {
		return nil, e.stepFailed(ctx, rec.ID, "domains", err)
	}

	out := &DomainsResult{SiteID: rec.ID, Domains: domains}
	for _, d := range domains {
		if d.Default {
			out.Default = d.Name
			break
		}
	}
	metrics.PipelineStepsTotal.WithLabelValues("domains", "ok").Inc()
	return out, nil
}

// AttachSite links an already-existing upstream website to a new local
// record, for accounts created before this service owned provisioning.
func (e *Engine) AttachSite(ctx context.Context, brief Brief, tenwebID int64) (*CreateResult, error) {
	if err := briefValidator.Struct(brief); err != nil {
		return nil, &ValidationError{Field: "brief", Reason: err.Error()}
	}
	if tenwebID <= 0 {
		return nil, &ValidationError{Field: "tenweb_website_id", Reason: "must be a positive website id"}
	}

	// Already linked: return the existing identity.
	if rec, err := e.store.ByTenWebID(ctx, tenwebID); err == nil {
		return resultFromRecord(rec, true), nil
	} else if !errors.Is(err, site.ErrNotFound) {
		return nil, err
	}

	// Verify the website really exists upstream before adopting it.
	websites, err := e.up.ListWebsites(ctx)
	if err != nil {
		return nil, err
	}
	var match *tenweb.Website
	for i := range websites {
		if websites[i].ID == tenwebID {
			match = &websites[i]
			break
		}
	}
	if match == nil {
		return nil, site.ErrNotFound
	}

	rec, err := e.store.Insert(ctx, site.Record{
		TenWebID:     &tenwebID,
		BusinessName: brief.BusinessName,
		BusinessType: brief.BusinessType,
		BusinessDesc: brief.BusinessDescription,
		Subdomain:    slug.Make(brief.BusinessName),
		SiteURL:      match.SiteURL,
	})
	if errors.Is(err, site.ErrDuplicateUpstreamID) {
		return e.attachWinner(ctx, tenwebID)
	}
	if err != nil {
		return nil, err
	}
	e.store.Append(ctx, rec.ID, "website.attached", map[string]any{"tenweb_id": tenwebID})
	return resultFromRecord(rec, false), nil
}

func (e *Engine) attachWinner(ctx context.Context, tenwebID int64) (*CreateResult, error) {
	rec, err := e.store.ByTenWebID(ctx, tenwebID)
	if err != nil {
		return nil, err
	}
	return resultFromRecord(rec, true), nil
}

// Autologin returns a one-shot wp-admin URL for the site.
func (e *Engine) Autologin(ctx context.Context, siteID string) (string, error) {
	rec, err := e.loadLinked(ctx, siteID)
	if err != nil {
		return "", err
	}

	var url string
	err = retry.Do(ctx, e.policy, stepRetryable, func() error {
		var callErr error
		url, callErr = e.up.Autologin(ctx, *rec.TenWebID)
		return callErr
	})
	if err != nil {
		return "", e.stepFailed(ctx, rec.ID, "autologin", err)
	}
	metrics.PipelineStepsTotal.WithLabelValues("autologin", "ok").Inc()
	return url, nil
}
