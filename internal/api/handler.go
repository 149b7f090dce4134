// internal/api/handler.go
//
// HTTP surface: one multiplexed orchestration endpoint plus health.
//
// Context
// -------
// The frontend speaks a single `POST /api/orchestrate` endpoint whose JSON
// body carries an `action` field; the handler dispatches on it.  Responses
// are plain JSON; failures use the envelope in errors.go.
//
// Workflow
// --------
//   1.  Read the body once (capped), pull out `action`.
//   2.  Decode the action-specific input from the same raw bytes.
//   3.  Run the workflow; mutating actions run on a context detached from
//       the request so a closed browser tab cannot abandon an upstream
//       provisioning call mid-flight.
//
// Notes
//   • `GET /healthz` pings the database; load-balancers poll it.
//   • Reads (check-subdomain, get-domains, health) keep the request
//     context and die with the client.

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sitewright/sitewright/internal/billing"
	"github.com/sitewright/sitewright/internal/workflow"
)

const maxBodyBytes = 1 << 20 // request bodies are small JSON documents

// Orchestrator is the slice of the workflow engine the API dispatches to.
type Orchestrator interface {
	CheckSubdomain(ctx context.Context, name string) (*workflow.CheckSubdomainResult, error)
	CreateWebsite(ctx context.Context, brief workflow.Brief) (*workflow.CreateResult, error)
	GenerateSitemap(ctx context.Context, siteID string) (*workflow.SitemapResult, error)
	UpdateDesign(ctx context.Context, input workflow.DesignInput) (*workflow.DesignResult, error)
	GenerateSite(ctx context.Context, siteID string) (*workflow.GenerateResult, error)
	PublishPages(ctx context.Context, siteID string) (*workflow.PublishResult, error)
	SetFrontPage(ctx context.Context, siteID string, pageID int64) error
	GetDomains(ctx context.Context, siteID string) (*workflow.DomainsResult, error)
	AttachSite(ctx context.Context, brief workflow.Brief, tenwebID int64) (*workflow.CreateResult, error)
	Autologin(ctx context.Context, siteID string) (string, error)
}

// Biller is the slice of the billing service the API dispatches to.
type Biller interface {
	CreateCheckout(ctx context.Context, in billing.CheckoutInput) (*billing.Redirect, error)
	CreatePortal(ctx context.Context, in billing.PortalInput) (*billing.Redirect, error)
}

// Handler owns the HTTP routes.
type Handler struct {
	orch   Orchestrator
	bill   Biller
	dbPing func(ctx context.Context) error
}

func NewHandler(orch Orchestrator, bill Biller, dbPing func(ctx context.Context) error) *Handler {
	return &Handler{orch: orch, bill: bill, dbPing: dbPing}
}

// Router builds the chi route tree.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Post("/api/orchestrate", h.orchestrate)
	r.Get("/healthz", h.healthz)
	return r
}

/*──────────────────────────── dispatch ────────────────────────────────────*/

type actionEnvelope struct {
	Action string `json:"action"`
}

func (h *Handler) orchestrate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, &workflow.ValidationError{Field: "body", Reason: "unreadable or too large"})
		return
	}

	var env actionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		writeError(w, &workflow.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	// Provisioning must survive a dropped client connection; only the
	// cheap read actions stay tied to the request.
	detached := context.WithoutCancel(r.Context())

	switch env.Action {
	case "check-subdomain":
		var in struct {
			BusinessName string `json:"business_name"`
		}
		if !decode(w, body, &in) {
			return
		}
		v, err := h.orch.CheckSubdomain(r.Context(), in.BusinessName)
		respond(w, v, err)

	case "create-website":
		var brief workflow.Brief
		if !decode(w, body, &brief) {
			return
		}
		v, err := h.orch.CreateWebsite(detached, brief)
		respond(w, v, err)

	case "generate-sitemap":
		id, ok := siteID(w, body)
		if !ok {
			return
		}
		v, err := h.orch.GenerateSitemap(detached, id)
		respond(w, v, err)

	case "update-design":
		var in workflow.DesignInput
		if !decode(w, body, &in) {
			return
		}
		v, err := h.orch.UpdateDesign(detached, in)
		respond(w, v, err)

	case "generate-site":
		id, ok := siteID(w, body)
		if !ok {
			return
		}
		v, err := h.orch.GenerateSite(detached, id)
		respond(w, v, err)

	case "publish-pages":
		id, ok := siteID(w, body)
		if !ok {
			return
		}
		v, err := h.orch.PublishPages(detached, id)
		respond(w, v, err)

	case "set-front-page":
		var in struct {
			SiteID string `json:"site_id"`
			PageID int64  `json:"page_id"`
		}
		if !decode(w, body, &in) {
			return
		}
		if err := h.orch.SetFrontPage(detached, in.SiteID, in.PageID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"site_id": in.SiteID, "front_page_id": in.PageID})

	case "get-domains":
		id, ok := siteID(w, body)
		if !ok {
			return
		}
		v, err := h.orch.GetDomains(r.Context(), id)
		respond(w, v, err)

	case "attach-site":
		var in struct {
			workflow.Brief
			TenWebID int64 `json:"tenweb_website_id"`
		}
		if !decode(w, body, &in) {
			return
		}
		v, err := h.orch.AttachSite(detached, in.Brief, in.TenWebID)
		respond(w, v, err)

	case "autologin":
		id, ok := siteID(w, body)
		if !ok {
			return
		}
		url, err := h.orch.Autologin(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"site_id": id, "url": url})

	case "create-checkout":
		var in billing.CheckoutInput
		if !decode(w, body, &in) {
			return
		}
		v, err := h.bill.CreateCheckout(detached, in)
		respond(w, v, err)

	case "create-portal":
		var in billing.PortalInput
		if !decode(w, body, &in) {
			return
		}
		v, err := h.bill.CreatePortal(detached, in)
		respond(w, v, err)

	case "health":
		h.healthz(w, r)

	case "":
		writeError(w, &workflow.ValidationError{Field: "action", Reason: "must not be empty"})

	default:
		writeError(w, &workflow.ValidationError{Field: "action", Reason: "unknown action " + env.Action})
	}
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.dbPing(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "detail": "database unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// decode unmarshals body into dst, writing the 400 envelope on failure.
func decode(w http.ResponseWriter, body []byte, dst any) bool {
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, &workflow.ValidationError{Field: "body", Reason: "malformed JSON"})
		return false
	}
	return true
}

// siteID extracts the site_id field common to most actions.
func siteID(w http.ResponseWriter, body []byte) (string, bool) {
	var in struct {
		SiteID string `json:"site_id"`
	}
	if !decode(w, body, &in) {
		return "", false
	}
	return in.SiteID, true
}

// respond writes v as 200 JSON unless err is set.
func respond[T any](w http.ResponseWriter, v T, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
