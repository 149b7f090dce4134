// internal/workflow/engine.go
//
// The orchestration engine: creation workflow plus generation pipeline.
//
// Context
// -------
// Engine is the only writer of site records.  It talks to the site-builder
// API through the Upstream interface and to Postgres through the SiteStore
// interface, so tests drive both with fakes.  There is no in-process
// scheduler; the UI triggers each step as an independent request, and every
// step is safe to re-trigger.
//
// Concurrency
// -----------
// Creation runs under a singleflight group keyed by the derived slug, so
// two simultaneous submissions of the same business name share one run
// in-process.  Cross-process duplicates are caught by the store's unique
// constraint on the upstream website ID.

package workflow

import (
	"context"
	"encoding/json"
	"errors"

	"golang.org/x/sync/singleflight"

	"github.com/sitewright/sitewright/internal/retry"
	"github.com/sitewright/sitewright/internal/site"
	"github.com/sitewright/sitewright/internal/tenweb"
)

// Upstream is the slice of the site-builder client the engine needs.
// *tenweb.Client satisfies it.
type Upstream interface {
	CheckSubdomain(ctx context.Context, subdomain string) error
	GenerateSubdomain(ctx context.Context) (string, error)
	CreateWebsite(ctx context.Context, p tenweb.CreateWebsiteParams) (*tenweb.CreateWebsiteResult, error)
	ListWebsites(ctx context.Context) ([]tenweb.Website, error)
	GenerateSitemap(ctx context.Context, websiteID int64, p tenweb.SitemapParams) (*tenweb.Sitemap, error)
	GenerateSite(ctx context.Context, websiteID int64, p tenweb.GenerateSiteParams) (*tenweb.GenerateSiteResult, error)
	ListPages(ctx context.Context, websiteID int64) ([]tenweb.Page, error)
	PublishPages(ctx context.Context, websiteID int64, pageIDs []int64) error
	SetFrontPage(ctx context.Context, websiteID, pageID int64) error
	ListDomains(ctx context.Context, websiteID int64) ([]tenweb.Domain, error)
	Autologin(ctx context.Context, websiteID int64) (string, error)
	Region() string
}

// SiteStore is the slice of the persistence layer the engine needs.
// *site.Store satisfies it.
type SiteStore interface {
	Insert(ctx context.Context, rec site.Record) (*site.Record, error)
	ByID(ctx context.Context, id string) (*site.Record, error)
	ByTenWebID(ctx context.Context, tenwebID int64) (*site.Record, error)
	UpdateSitemap(ctx context.Context, id string, pages site.PagesMeta, colors site.Colors, fonts site.Fonts,
		seoTitle, seoDescription, seoKeyphrase, websiteType string) error
	UpdateDesign(ctx context.Context, id string, pages site.PagesMeta, colors site.Colors, fonts site.Fonts) error
	UpdateGenerated(ctx context.Context, id, siteURL, uniqueID string, payload json.RawMessage) error
	UpdateStatus(ctx context.Context, id string, next site.Status) error
	LinkUpstream(ctx context.Context, id string, tenwebID int64, siteURL string) error
	Append(ctx context.Context, siteID, action string, detail any)
}

// Limits bounds the retry loops.  Values come from config; the zero value
// is not usable, call NewEngine.
type Limits struct {
	CreateAttempts    int // creation workflow, observed 5
	SubdomainAttempts int // allocator, observed 6
	StepAttempts      int // per pipeline step on 429/5xx
}

// Engine drives all orchestration against one upstream account.
type Engine struct {
	up     Upstream
	store  SiteStore
	limits Limits
	policy retry.Policy
	sfg    singleflight.Group
}

// NewEngine wires an Engine.  The step retry policy follows the upstream
// schedule: 2^attempt seconds between tries.
func NewEngine(up Upstream, store SiteStore, limits Limits) *Engine {
	p := retry.DefaultUpstream
	p.MaxAttempts = limits.StepAttempts
	return &Engine{up: up, store: store, limits: limits, policy: p}
}

// stepRetryable is the per-step predicate for idempotent calls: HTTP
// 429/5xx and timeouts.  Mutating calls use mutationRetryable instead,
// which excludes timeouts because their outcome upstream is unknown.
func stepRetryable(err error) bool {
	return tenweb.Retryable(err) || errors.Is(err, tenweb.ErrAborted)
}

func mutationRetryable(err error) bool { return tenweb.Retryable(err) }
