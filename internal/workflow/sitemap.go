// internal/workflow/sitemap.go
//
// Pipeline step 1: AI sitemap generation.
//
// Turns the persisted business brief into an upstream-suggested page tree
// plus default colors, fonts, and SEO fields, and persists the lot.  SEO
// fields default from the brief when the upstream leaves them empty.

package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/sitewright/sitewright/internal/metrics"
	"github.com/sitewright/sitewright/internal/retry"
	"github.com/sitewright/sitewright/internal/site"
	"github.com/sitewright/sitewright/internal/tenweb"
)

// SitemapResult is returned to the caller after a successful run.
type SitemapResult struct {
	SiteID      string         `json:"site_id"`
	PagesMeta   site.PagesMeta `json:"pages_meta"`
	Colors      site.Colors    `json:"colors"`
	Fonts       site.Fonts     `json:"fonts"`
	SeoTitle    string         `json:"seo_title"`
	WebsiteType string         `json:"website_type"`
}

// GenerateSitemap runs the sitemap step for one site.  Independently
// re-triggerable; each run overwrites the previous suggestion.
func (e *Engine) GenerateSitemap(ctx context.Context, siteID string) (*SitemapResult, error) {
	rec, err := e.loadLinked(ctx, siteID)
	if err != nil {
		return nil, err
	}

	var sm *tenweb.Sitemap
	err = retry.Do(ctx, e.policy, stepRetryable, func() error {
		var callErr error
		sm, callErr = e.up.GenerateSitemap(ctx, *rec.TenWebID, tenweb.SitemapParams{
			BusinessName:        rec.BusinessName,
			BusinessDescription: rec.BusinessDesc,
			BusinessType:        rec.BusinessType,
		})
		return callErr
	})
	if err != nil {
		return nil, e.stepFailed(ctx, rec.ID, "sitemap", err)
	}

	pages := pagesFromSitemap(sm.PagesMeta)
	colors := site.Colors{
		Primary:    sm.Colors.PrimaryColor,
		Secondary:  sm.Colors.SecondaryColor,
		Background: sm.Colors.BackgroundDark,
	}
	fonts := site.Fonts{Heading: sm.Fonts.Primary, Body: sm.Fonts.Primary}

	seoTitle := firstNonEmpty(sm.SeoTitle, rec.BusinessName)
	seoDescription := firstNonEmpty(sm.SeoDescription, rec.BusinessDesc)
	seoKeyphrase := firstNonEmpty(sm.SeoKeyphrase, rec.BusinessName)
	websiteType := firstNonEmpty(sm.WebsiteType, rec.BusinessType)

	if err := e.store.UpdateSitemap(ctx, rec.ID, pages, colors, fonts,
		seoTitle, seoDescription, seoKeyphrase, websiteType); err != nil {
		return nil, e.stepFailed(ctx, rec.ID, "sitemap", err)
	}

	metrics.PipelineStepsTotal.WithLabelValues("sitemap", "ok").Inc()
	e.store.Append(ctx, rec.ID, "sitemap.generated", map[string]any{
		"pages": len(pages), "website_type": websiteType,
	})
	zap.S().Infow("sitemap generated", "site_id", rec.ID, "pages", len(pages))

	return &SitemapResult{
		SiteID:      rec.ID,
		PagesMeta:   pages,
		Colors:      colors,
		Fonts:       fonts,
		SeoTitle:    seoTitle,
		WebsiteType: websiteType,
	}, nil
}

// pagesFromSitemap converts the upstream suggestion into the local tree.
func pagesFromSitemap(in []tenweb.SitemapPage) site.PagesMeta {
	out := make(site.PagesMeta, 0, len(in))
	for _, p := range in {
		sections := make([]site.Section, 0, len(p.Sections))
		for _, s := range p.Sections {
			sections = append(sections, site.Section{
				Title:       s.SectionTitle,
				Description: s.SectionDescription,
			})
		}
		out = append(out, site.PageMeta{
			Title:       p.Title,
			Description: p.Description,
			Sections:    sections,
		})
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
