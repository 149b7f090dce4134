// internal/tenweb/client.go
//
// Authenticated HTTP client for the 10Web site-builder API.
//
// Context
// -------
// Every orchestration step funnels through do(), which owns the per-call
// deadline, the auth header, JSON codec, error-body decoding, and the
// Prometheus instruments.  Callers choose a timeout class per call: cheap
// lookups run at Timeouts.Check (20 s), site creation and AI generation at
// Timeouts.Create/Generate (150 s).
//
// Workflow
// --------
//  1. Build request with x-api-key and a context deadline.
//  2. On transport failure, classify: deadline expiry → ErrAborted,
//     anything else → wrapped transport error.
//  3. On non-2xx, decode the error envelope into *APIError (raw body kept).
//  4. On 2xx, unmarshal the `data` payload into the caller's type.
//
// Notes
// -----
// • The client never retries; retry policy belongs to the workflow layer.
// • Response bodies are capped at 4 MiB, the largest observed payload is
//   a generated sitemap well under 1 MiB.

package tenweb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sitewright/sitewright/internal/metrics"
)

const maxBodyBytes = 4 << 20

// Timeouts buckets calls by expected upstream latency.
type Timeouts struct {
	Check    time.Duration // subdomain check/generate, domain list
	Admin    time.Duration // page list, publish, front page, autologin
	Sitemap  time.Duration // AI sitemap generation
	Create   time.Duration // website creation
	Generate time.Duration // AI full-site generation
}

// Client is safe for concurrent use.
type Client struct {
	baseURL  string
	apiKey   string
	region   string
	http     *http.Client
	timeouts Timeouts
}

// New constructs a Client.  The inner http.Client carries no global
// timeout; deadlines are per call via context.
func New(baseURL, apiKey, region string, t Timeouts) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		region:   region,
		http:     &http.Client{},
		timeouts: t,
	}
}

// Region returns the hosting region new websites are created in.
func (c *Client) Region() string { return c.region }

// envelope is the standard `{"data": …}` wrapper on 2xx responses.
type envelope[T any] struct {
	Data T `json:"data"`
}

// errorEnvelope covers both error shapes the upstream emits.
type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

/*──────────────────────────── endpoints ───────────────────────────────────*/

// CheckSubdomain returns nil when the subdomain is free.  A taken name
// surfaces as *APIError matching SubdomainTaken.
func (c *Client) CheckSubdomain(ctx context.Context, subdomain string) error {
	in := map[string]string{"subdomain": subdomain}
	return c.do(ctx, http.MethodPost, "/hosting/websites/subdomain/check", "subdomain_check", c.timeouts.Check, in, nil)
}

// GenerateSubdomain asks the upstream for a fresh unclaimed subdomain.
func (c *Client) GenerateSubdomain(ctx context.Context) (string, error) {
	var out envelope[struct {
		Subdomain string `json:"subdomain"`
	}]
	err := c.do(ctx, http.MethodGet, "/hosting/websites/subdomain/generate", "subdomain_generate", c.timeouts.Check, nil, &out)
	if err != nil {
		return "", err
	}
	return out.Data.Subdomain, nil
}

// CreateWebsite provisions a new WordPress site on the given subdomain.
// This is the slow mutating call the reconciliation strategy exists for.
func (c *Client) CreateWebsite(ctx context.Context, p CreateWebsiteParams) (*CreateWebsiteResult, error) {
	if p.Region == "" {
		p.Region = c.region
	}
	var out envelope[CreateWebsiteResult]
	err := c.do(ctx, http.MethodPost, "/hosting/website", "website_create", c.timeouts.Create, p, &out)
	if err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// ListWebsites returns every website on the account.
func (c *Client) ListWebsites(ctx context.Context) ([]Website, error) {
	var out envelope[[]Website]
	err := c.do(ctx, http.MethodGet, "/hosting/websites", "website_list", c.timeouts.Check, nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GenerateSitemap turns a business brief into a suggested page tree plus
// default colors, fonts, and SEO fields.
func (c *Client) GenerateSitemap(ctx context.Context, websiteID int64, p SitemapParams) (*Sitemap, error) {
	body := struct {
		WebsiteID int64 `json:"website_id"`
		SitemapParams
	}{websiteID, p}
	var out envelope[Sitemap]
	err := c.do(ctx, http.MethodPost, "/ai/generate_sitemap", "sitemap_generate", c.timeouts.Sitemap, body, &out)
	if err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// GenerateSite runs full AI site generation from a complete design and
// structure payload.
func (c *Client) GenerateSite(ctx context.Context, websiteID int64, p GenerateSiteParams) (*GenerateSiteResult, error) {
	body := struct {
		WebsiteID int64 `json:"website_id"`
		GenerateSiteParams
	}{websiteID, p}
	var out envelope[GenerateSiteResult]
	err := c.do(ctx, http.MethodPost, "/ai/generate_site_from_sitemap", "site_generate", c.timeouts.Generate, body, &out)
	if err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// ListPages returns the WordPress pages of one website.
func (c *Client) ListPages(ctx context.Context, websiteID int64) ([]Page, error) {
	var out envelope[[]Page]
	path := fmt.Sprintf("/hosting/websites/%d/pages", websiteID)
	err := c.do(ctx, http.MethodGet, path, "page_list", c.timeouts.Admin, nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// PublishPages bulk-publishes the given page IDs.
func (c *Client) PublishPages(ctx context.Context, websiteID int64, pageIDs []int64) error {
	in := map[string][]int64{"page_ids": pageIDs}
	path := fmt.Sprintf("/hosting/websites/%d/pages/publish", websiteID)
	return c.do(ctx, http.MethodPost, path, "page_publish", c.timeouts.Admin, in, nil)
}

// SetFrontPage makes pageID the site's home page.
func (c *Client) SetFrontPage(ctx context.Context, websiteID, pageID int64) error {
	in := map[string]int64{"page_id": pageID}
	path := fmt.Sprintf("/hosting/websites/%d/front-page", websiteID)
	return c.do(ctx, http.MethodPost, path, "front_page_set", c.timeouts.Admin, in, nil)
}

// ListDomains returns the domains attached to one website.
func (c *Client) ListDomains(ctx context.Context, websiteID int64) ([]Domain, error) {
	var out envelope[[]Domain]
	path := fmt.Sprintf("/hosting/websites/%d/domain-name", websiteID)
	err := c.do(ctx, http.MethodGet, path, "domain_list", c.timeouts.Check, nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Autologin returns a one-shot wp-admin login URL for the website.
func (c *Client) Autologin(ctx context.Context, websiteID int64) (string, error) {
	var out envelope[struct {
		URL string `json:"url"`
	}]
	path := fmt.Sprintf("/account/websites/%d/single/autologin", websiteID)
	err := c.do(ctx, http.MethodGet, path, "autologin", c.timeouts.Admin, nil, &out)
	if err != nil {
		return "", err
	}
	return out.Data.URL, nil
}

/*──────────────────────────── transport ───────────────────────────────────*/

// do performs one call.  op is the stable endpoint label used for metrics
// and logs; path may carry resource IDs.
func (c *Client) do(ctx context.Context, method, path, op string, timeout time.Duration, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("tenweb %s: encode request: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("tenweb %s: build request: %w", path, err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("accept", "application/json")
	if in != nil {
		req.Header.Set("content-type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamCallSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		if isTimeout(err) {
			metrics.UpstreamCallsTotal.WithLabelValues(op, "aborted").Inc()
			zap.S().Warnw("upstream call aborted", "endpoint", op, "path", path,
				"timeout", timeout)
			return fmt.Errorf("tenweb %s: %w", path, ErrAborted)
		}
		metrics.UpstreamCallsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("tenweb %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			metrics.UpstreamCallsTotal.WithLabelValues(op, "aborted").Inc()
			return fmt.Errorf("tenweb %s: %w", path, ErrAborted)
		}
		metrics.UpstreamCallsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("tenweb %s: read response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamCallsTotal.WithLabelValues(op, "error").Inc()
		ae := &APIError{Status: resp.StatusCode, Path: path, Body: raw}
		var env errorEnvelope
		if json.Unmarshal(raw, &env) == nil {
			if env.Error != nil {
				ae.Code, ae.Message = env.Error.Code, env.Error.Message
			} else {
				ae.Code, ae.Message = env.Code, env.Message
			}
		}
		zap.S().Warnw("upstream call failed", "endpoint", op, "path", path,
			"status", ae.Status, "code", ae.Code, "message", ae.Message)
		return ae
	}

	metrics.UpstreamCallsTotal.WithLabelValues(op, "ok").Inc()

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("tenweb %s: decode response: %w", path, err)
		}
	}
	return nil
}

// isTimeout folds the ways net/http reports an expired deadline into one
// answer.  The reconciliation strategy depends on this being reliable: a
// misclassified timeout either retries a landed mutation or gives up on a
// recoverable one.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
