// internal/api/handler_test.go
//
// Route and error-mapping tests against scripted workflow/billing fakes.
//
// Run: go test ./internal/api -v

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sitewright/sitewright/internal/billing"
	"github.com/sitewright/sitewright/internal/site"
	"github.com/sitewright/sitewright/internal/tenweb"
	"github.com/sitewright/sitewright/internal/workflow"
)

/*──────────────────────────── fakes ───────────────────────────────────────*/

// fakeOrch returns scripted results; err (when set) wins for every action.
type fakeOrch struct {
	err      error
	check    *workflow.CheckSubdomainResult
	create   *workflow.CreateResult
	loginURL string

	lastBrief  workflow.Brief
	lastSiteID string
}

func (f *fakeOrch) CheckSubdomain(_ context.Context, name string) (*workflow.CheckSubdomainResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.check != nil {
		return f.check, nil
	}
	return &workflow.CheckSubdomainResult{Subdomain: name, Available: true}, nil
}

func (f *fakeOrch) CreateWebsite(_ context.Context, brief workflow.Brief) (*workflow.CreateResult, error) {
	f.lastBrief = brief
	if f.err != nil {
		return nil, f.err
	}
	return f.create, nil
}

func (f *fakeOrch) GenerateSitemap(_ context.Context, id string) (*workflow.SitemapResult, error) {
	f.lastSiteID = id
	if f.err != nil {
		return nil, f.err
	}
	return &workflow.SitemapResult{SiteID: id}, nil
}

func (f *fakeOrch) UpdateDesign(_ context.Context, in workflow.DesignInput) (*workflow.DesignResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &workflow.DesignResult{SiteID: in.SiteID}, nil
}

func (f *fakeOrch) GenerateSite(_ context.Context, id string) (*workflow.GenerateResult, error) {
	f.lastSiteID = id
	if f.err != nil {
		return nil, f.err
	}
	return &workflow.GenerateResult{SiteID: id, SiteURL: "https://x.example.dev"}, nil
}

func (f *fakeOrch) PublishPages(_ context.Context, id string) (*workflow.PublishResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &workflow.PublishResult{SiteID: id, PublishedCount: 3}, nil
}

func (f *fakeOrch) SetFrontPage(_ context.Context, id string, pageID int64) error {
	f.lastSiteID = id
	return f.err
}

func (f *fakeOrch) GetDomains(_ context.Context, id string) (*workflow.DomainsResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &workflow.DomainsResult{SiteID: id}, nil
}

func (f *fakeOrch) AttachSite(_ context.Context, brief workflow.Brief, tw int64) (*workflow.CreateResult, error) {
	f.lastBrief = brief
	if f.err != nil {
		return nil, f.err
	}
	return &workflow.CreateResult{SiteID: "s-1", TenWebID: tw}, nil
}

func (f *fakeOrch) Autologin(_ context.Context, id string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.loginURL, nil
}

type fakeBiller struct{ err error }

func (f *fakeBiller) CreateCheckout(context.Context, billing.CheckoutInput) (*billing.Redirect, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &billing.Redirect{SessionID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}, nil
}

func (f *fakeBiller) CreatePortal(context.Context, billing.PortalInput) (*billing.Redirect, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &billing.Redirect{SessionID: "bps_1", URL: "https://billing.stripe.com/p/bps_1"}, nil
}

func post(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/orchestrate", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Router().ServeHTTP(rr, req)
	return rr
}

func okPing(context.Context) error { return nil }

/*──────────────────────────── tests ───────────────────────────────────────*/

func TestOrchestrate_CreateWebsite(t *testing.T) {
	orch := &fakeOrch{create: &workflow.CreateResult{
		SiteID: "s-1", TenWebID: 7001, Subdomain: "cafe-fleurs",
	}}
	h := NewHandler(orch, &fakeBiller{}, okPing)

	rr := post(t, h, `{
		"action": "create-website",
		"business_name": "Cafe Fleurs",
		"business_type": "florist",
		"business_description": "Fresh bouquets every morning."
	}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var res workflow.CreateResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Equal(t, "s-1", res.SiteID)
	require.Equal(t, "Cafe Fleurs", orch.lastBrief.BusinessName)
}

func TestOrchestrate_UpdateDesignKeys(t *testing.T) {
	h := NewHandler(&fakeOrch{}, &fakeBiller{}, okPing)

	rr := post(t, h, `{"action": "update-design", "site_id": "s-9"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var res map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Contains(t, res, "site_id", "design responses use wire names, not Go field names")
	require.Contains(t, res, "colors")
	require.Contains(t, res, "pages_meta")
}

func TestOrchestrate_UnknownAction(t *testing.T) {
	h := NewHandler(&fakeOrch{}, &fakeBiller{}, okPing)
	rr := post(t, h, `{"action": "reticulate-splines"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "VALIDATION", body.Code)
}

func TestOrchestrate_MalformedJSON(t *testing.T) {
	h := NewHandler(&fakeOrch{}, &fakeBiller{}, okPing)
	rr := post(t, h, `{"action": `)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &workflow.ValidationError{Field: "x", Reason: "bad"}, 400, "VALIDATION"},
		{"not found", site.ErrNotFound, 404, "NOT_FOUND"},
		{"collision", workflow.ErrSubdomainCollision, 409, "SUBDOMAIN_COLLISION"},
		{"no free subdomain", workflow.ErrNoFreeSubdomain, 409, "NO_FREE_SUBDOMAIN"},
		{"bad transition", &site.ErrBadTransition{From: site.StatusCreated, To: site.StatusPublished}, 409, "BAD_TRANSITION"},
		{"bad response", workflow.ErrBadResponse, 502, "BAD_RESPONSE"},
		{"upstream auth", &tenweb.APIError{Status: 401}, 401, "UPSTREAM_AUTH"},
		{"upstream 5xx", &tenweb.APIError{Status: 503}, 502, "UPSTREAM_ERROR"},
		{"timeout", tenweb.ErrAborted, 504, "UPSTREAM_TIMEOUT"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(&fakeOrch{err: tc.err}, &fakeBiller{}, okPing)
			rr := post(t, h, `{"action": "generate-site", "site_id": "s-1"}`)
			require.Equal(t, tc.status, rr.Code)

			var body struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			require.Equal(t, tc.code, body.Code)
		})
	}
}

func TestErrorMapping_Wrapped(t *testing.T) {
	// Errors arrive wrapped with step context; classification must unwrap.
	h := NewHandler(&fakeOrch{err: wrapStep(workflow.ErrBadResponse)}, &fakeBiller{}, okPing)
	rr := post(t, h, `{"action": "generate-site", "site_id": "s-1"}`)
	require.Equal(t, http.StatusBadGateway, rr.Code)
}

func wrapStep(err error) error {
	return &stepErr{inner: err}
}

type stepErr struct{ inner error }

func (e *stepErr) Error() string { return "generate step: " + e.inner.Error() }
func (e *stepErr) Unwrap() error { return e.inner }

func TestOrchestrate_CheckoutAndPortal(t *testing.T) {
	h := NewHandler(&fakeOrch{}, &fakeBiller{}, okPing)

	rr := post(t, h, `{"action": "create-checkout", "site_id": "s-1", "price_id": "price_basic"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "checkout.stripe.com")

	rr = post(t, h, `{"action": "create-portal", "site_id": "s-1", "customer_id": "cus_42"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "billing.stripe.com")
}

func TestOrchestrate_BillingInputError(t *testing.T) {
	h := NewHandler(&fakeOrch{}, &fakeBiller{err: &billing.InputError{Reason: "price_id missing"}}, okPing)
	rr := post(t, h, `{"action": "create-checkout", "site_id": "s-1", "price_id": "price_x"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOrchestrate_Autologin(t *testing.T) {
	h := NewHandler(&fakeOrch{loginURL: "https://s.example.dev/wp-admin?token=t"}, &fakeBiller{}, okPing)
	rr := post(t, h, `{"action": "autologin", "site_id": "s-1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "token=t")
}

func TestHealthz(t *testing.T) {
	h := NewHandler(&fakeOrch{}, &fakeBiller{}, okPing)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.Router().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"ok"`)

	down := NewHandler(&fakeOrch{}, &fakeBiller{}, func(context.Context) error {
		return context.DeadlineExceeded
	})
	rr = httptest.NewRecorder()
	down.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
