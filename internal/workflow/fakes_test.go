// internal/workflow/fakes_test.go
//
// In-memory fakes for the Upstream and SiteStore interfaces.
//
// fakeUpstream scripts per-endpoint behaviour so tests can simulate
// collisions, timeouts, and landed-but-unacknowledged creations.
// memStore mirrors the real store's semantics where the engine depends on
// them: ErrNotFound, the unique constraint on the upstream ID, and the
// status transition check.

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sitewright/sitewright/internal/site"
	"github.com/sitewright/sitewright/internal/tenweb"
)

/*──────────────────────────── fake upstream ───────────────────────────────*/

type fakeUpstream struct {
	mu sync.Mutex

	checkErr    func(subdomain string) error // nil fn means every name is free
	checkCalls  int
	genNames    []string
	genCalls    int
	createFn    func(p tenweb.CreateWebsiteParams) (*tenweb.CreateWebsiteResult, error)
	createCalls int

	websites []tenweb.Website
	sitemap  *tenweb.Sitemap
	genSite  func(websiteID int64, p tenweb.GenerateSiteParams) (*tenweb.GenerateSiteResult, error)

	pages        []tenweb.Page
	publishedIDs [][]int64
	frontPageID  int64
	domains      []tenweb.Domain
	loginURL     string
}

func (f *fakeUpstream) CheckSubdomain(_ context.Context, sub string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkCalls++
	if f.checkErr == nil {
		return nil
	}
	return f.checkErr(sub)
}

func (f *fakeUpstream) GenerateSubdomain(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := fmt.Sprintf("generated-%d", f.genCalls)
	if f.genCalls < len(f.genNames) {
		name = f.genNames[f.genCalls]
	}
	f.genCalls++
	return name, nil
}

func (f *fakeUpstream) CreateWebsite(_ context.Context, p tenweb.CreateWebsiteParams) (*tenweb.CreateWebsiteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createFn == nil {
		id := int64(1000 + f.createCalls)
		f.addWebsiteLocked(id, p.Subdomain)
		return &tenweb.CreateWebsiteResult{ID: &id}, nil
	}
	return f.createFn(p)
}

func (f *fakeUpstream) addWebsiteLocked(id int64, sub string) {
	f.websites = append(f.websites, tenweb.Website{
		ID:       id,
		SiteURL:  "https://" + sub + ".example.dev",
		AdminURL: "https://" + sub + ".example.dev/wp-admin",
	})
}

func (f *fakeUpstream) addWebsite(id int64, sub string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addWebsiteLocked(id, sub)
}

func (f *fakeUpstream) ListWebsites(context.Context) ([]tenweb.Website, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tenweb.Website(nil), f.websites...), nil
}

func (f *fakeUpstream) GenerateSitemap(_ context.Context, _ int64, _ tenweb.SitemapParams) (*tenweb.Sitemap, error) {
	if f.sitemap == nil {
		return nil, &tenweb.APIError{Status: 500, Message: "no sitemap scripted"}
	}
	return f.sitemap, nil
}

func (f *fakeUpstream) GenerateSite(_ context.Context, websiteID int64, p tenweb.GenerateSiteParams) (*tenweb.GenerateSiteResult, error) {
	if f.genSite == nil {
		return &tenweb.GenerateSiteResult{UniqueID: "uid-1", SiteURL: "https://done.example.dev"}, nil
	}
	return f.genSite(websiteID, p)
}

func (f *fakeUpstream) ListPages(context.Context, int64) ([]tenweb.Page, error) {
	return append([]tenweb.Page(nil), f.pages...), nil
}

func (f *fakeUpstream) PublishPages(_ context.Context, _ int64, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishedIDs = append(f.publishedIDs, append([]int64(nil), ids...))
	return nil
}

func (f *fakeUpstream) SetFrontPage(_ context.Context, _ int64, pageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frontPageID = pageID
	return nil
}

func (f *fakeUpstream) ListDomains(context.Context, int64) ([]tenweb.Domain, error) {
	return append([]tenweb.Domain(nil), f.domains...), nil
}

func (f *fakeUpstream) Autologin(context.Context, int64) (string, error) {
	return f.loginURL, nil
}

func (f *fakeUpstream) Region() string { return "test-region" }

/*──────────────────────────── in-memory store ─────────────────────────────*/

type auditEvent struct {
	SiteID string
	Action string
}

type memStore struct {
	mu     sync.Mutex
	byID   map[string]*site.Record
	byTW   map[int64]string
	events []auditEvent
}

func newMemStore() *memStore {
	return &memStore{byID: map[string]*site.Record{}, byTW: map[int64]string{}}
}

func (m *memStore) Insert(_ context.Context, rec site.Record) (*site.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.TenWebID != nil {
		if _, dup := m.byTW[*rec.TenWebID]; dup {
			return nil, site.ErrDuplicateUpstreamID
		}
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = site.StatusCreated
	}
	cp := rec
	m.byID[rec.ID] = &cp
	if rec.TenWebID != nil {
		m.byTW[*rec.TenWebID] = rec.ID
	}
	return &rec, nil
}

func (m *memStore) ByID(_ context.Context, id string) (*site.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return nil, site.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memStore) ByTenWebID(_ context.Context, tw int64) (*site.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byTW[tw]
	if !ok {
		return nil, site.ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *memStore) UpdateSitemap(_ context.Context, id string, pages site.PagesMeta, colors site.Colors, fonts site.Fonts,
	seoTitle, seoDescription, seoKeyphrase, websiteType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return site.ErrNotFound
	}
	rec.PagesMeta, rec.Colors, rec.Fonts = pages, colors, fonts
	rec.SeoTitle, rec.SeoDescription, rec.SeoKeyphrase = seoTitle, seoDescription, seoKeyphrase
	rec.WebsiteType = websiteType
	return nil
}

func (m *memStore) UpdateDesign(_ context.Context, id string, pages site.PagesMeta, colors site.Colors, fonts site.Fonts) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return site.ErrNotFound
	}
	rec.PagesMeta, rec.Colors, rec.Fonts = pages, colors, fonts
	return nil
}

func (m *memStore) UpdateGenerated(_ context.Context, id, siteURL, uniqueID string, payload json.RawMessage) error {
	if err := m.UpdateStatus(context.Background(), id, site.StatusGenerated); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.byID[id]
	rec.SiteURL, rec.UniqueID, rec.Payload = siteURL, uniqueID, payload
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, next site.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return site.ErrNotFound
	}
	if !rec.Status.CanTransition(next) {
		return &site.ErrBadTransition{From: rec.Status, To: next}
	}
	rec.Status = next
	return nil
}

func (m *memStore) LinkUpstream(_ context.Context, id string, tw int64, siteURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.byTW[tw]; dup {
		return site.ErrDuplicateUpstreamID
	}
	rec, ok := m.byID[id]
	if !ok {
		return site.ErrNotFound
	}
	rec.TenWebID, rec.SiteURL = &tw, siteURL
	m.byTW[tw] = id
	return nil
}

func (m *memStore) Append(_ context.Context, siteID, action string, _ any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, auditEvent{SiteID: siteID, Action: action})
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

/*──────────────────────────── engine helper ───────────────────────────────*/

func testEngine(up Upstream, store SiteStore) *Engine {
	e := NewEngine(up, store, Limits{CreateAttempts: 5, SubdomainAttempts: 6, StepAttempts: 4})
	// Millisecond backoff keeps retry-path tests fast.
	e.policy.BaseDelay = 0
	e.policy.MaxDelay = 0
	return e
}
