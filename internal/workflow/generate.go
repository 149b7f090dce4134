// internal/workflow/generate.go
//
// Pipeline step 3: full site generation.
//
// Transforms the persisted page tree into the upstream's expected shape,
// sends the complete design+structure payload, and on success persists the
// live URL plus the upstream's opaque unique_id and flips status to
// generated.  The exact payload sent upstream is stored on the record for
// audit.
//
// A timeout here is not reconciled (the creation step is the only one with
// an existence probe); it propagates so the operator can replay the step.

package workflow

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/sitewright/sitewright/internal/metrics"
	"github.com/sitewright/sitewright/internal/retry"
	"github.com/sitewright/sitewright/internal/site"
	"github.com/sitewright/sitewright/internal/tenweb"
)

// GenerateResult is returned after a successful full generation.
type GenerateResult struct {
	SiteID   string `json:"site_id"`
	SiteURL  string `json:"site_url"`
	UniqueID string `json:"unique_id"`
}

// GenerateSite runs full generation for one site.
func (e *Engine) GenerateSite(ctx context.Context, siteID string) (*GenerateResult, error) {
	rec, err := e.loadLinked(ctx, siteID)
	if err != nil {
		return nil, err
	}
	// Lifecycle gate before the slow generation call; a published site
	// must not burn minutes upstream only to fail the status flip.
	if !rec.Status.CanTransition(site.StatusGenerated) {
		return nil, &site.ErrBadTransition{From: rec.Status, To: site.StatusGenerated}
	}
	if len(rec.PagesMeta) == 0 {
		return nil, &ValidationError{Field: "pages_meta", Reason: "run sitemap generation first"}
	}

	params := tenweb.GenerateSiteParams{
		BusinessName:        rec.BusinessName,
		BusinessDescription: rec.BusinessDesc,
		BusinessType:        rec.BusinessType,
		WebsiteTitle:        rec.SeoTitle,
		WebsiteDescription:  rec.SeoDescription,
		WebsiteKeyphrase:    rec.SeoKeyphrase,
		WebsiteType:         rec.WebsiteType,
		Colors: tenweb.ColorSet{
			PrimaryColor:   rec.Colors.Primary,
			SecondaryColor: rec.Colors.Secondary,
			BackgroundDark: rec.Colors.Background,
		},
		Fonts:     tenweb.FontSet{Primary: rec.Fonts.Heading},
		PagesMeta: pagesToInput(rec.PagesMeta),
	}

	var res *tenweb.GenerateSiteResult
	err = retry.Do(ctx, e.policy, mutationRetryable, func() error {
		var callErr error
		res, callErr = e.up.GenerateSite(ctx, *rec.TenWebID, params)
		return callErr
	})
	if err != nil {
		return nil, e.stepFailed(ctx, rec.ID, "generate", err)
	}
	if res.SiteURL == "" {
		return nil, e.stepFailed(ctx, rec.ID, "generate", ErrBadResponse)
	}

	payload, _ := json.Marshal(params)
	if err := e.store.UpdateGenerated(ctx, rec.ID, res.SiteURL, res.UniqueID, payload); err != nil {
		return nil, e.stepFailed(ctx, rec.ID, "generate", err)
	}

	metrics.PipelineStepsTotal.WithLabelValues("generate", "ok").Inc()
	e.store.Append(ctx, rec.ID, "site.generated", map[string]any{
		"site_url": res.SiteURL, "unique_id": res.UniqueID,
	})
	zap.S().Infow("site generated", "site_id", rec.ID, "site_url", res.SiteURL)

	return &GenerateResult{SiteID: rec.ID, SiteURL: res.SiteURL, UniqueID: res.UniqueID}, nil
}

// pagesToInput converts the local tree into the generation endpoint's
// shape; the upstream renamed every field between sitemap and generation.
func pagesToInput(pages site.PagesMeta) []tenweb.PageInput {
	out := make([]tenweb.PageInput, 0, len(pages))
	for _, p := range pages {
		sections := make([]tenweb.SectionInput, 0, len(p.Sections))
		for _, s := range p.Sections {
			sections = append(sections, tenweb.SectionInput{
				SectionTitle:       s.Title,
				SectionDescription: s.Description,
			})
		}
		out = append(out, tenweb.PageInput{
			PageTitle:       p.Title,
			PageDescription: p.Description,
			Sections:        sections,
		})
	}
	return out
}
