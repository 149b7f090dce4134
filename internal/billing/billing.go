// internal/billing/billing.go
//
// Stripe side-channel: hosted-checkout and customer-portal session
// creation.
//
// Context
// -------
// Payment UI is entirely Stripe-hosted.  This package only creates the
// redirect sessions: a Checkout session to start a subscription for a
// site, and a Billing-Portal session so an existing customer can manage
// it.  Every session is tied to a local site record via
// client_reference_id / metadata, so webhook processing (out of scope
// here) can route events back to the site.
//
// Notes
//   • The Stripe client is wrapped behind Gateway so tests can script
//     responses without the network.
//   • Session URLs are single-use and short-lived; nothing here is
//     cached or persisted beyond the audit event.

package billing

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"

	"github.com/sitewright/sitewright/internal/site"
)

/*──────────────────────────── gateway ─────────────────────────────────────*/

// Gateway is the slice of the Stripe API this package uses.
type Gateway interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	NewPortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
}

type stripeGateway struct{ api *client.API }

func (g stripeGateway) NewCheckoutSession(p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return g.api.CheckoutSessions.New(p)
}

func (g stripeGateway) NewPortalSession(p *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	return g.api.BillingPortalSessions.New(p)
}

// NewGateway builds the real Stripe-backed gateway.
func NewGateway(apiKey string) Gateway {
	return stripeGateway{api: client.New(apiKey, nil)}
}

/*──────────────────────────── service ─────────────────────────────────────*/

// SiteStore is the slice of the site store billing needs: existence checks
// and the audit trail.
type SiteStore interface {
	ByID(ctx context.Context, id string) (*site.Record, error)
	Append(ctx context.Context, siteID, action string, detail any)
}

// Service creates Stripe redirect sessions for sites.
type Service struct {
	gw         Gateway
	store      SiteStore
	successURL string
	cancelURL  string
}

func NewService(gw Gateway, store SiteStore, successURL, cancelURL string) *Service {
	return &Service{gw: gw, store: store, successURL: successURL, cancelURL: cancelURL}
}

var inputValidator = validator.New()

// CheckoutInput starts a subscription checkout for one site.
type CheckoutInput struct {
	SiteID        string `json:"site_id"  validate:"required"`
	PriceID       string `json:"price_id" validate:"required,startswith=price_"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
}

// PortalInput opens the customer portal for an existing Stripe customer.
type PortalInput struct {
	SiteID     string `json:"site_id"     validate:"required"`
	CustomerID string `json:"customer_id" validate:"required,startswith=cus_"`
}

// Redirect is the hosted-page handoff returned to the frontend.
type Redirect struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// InputError marks a caller mistake so the API layer maps it to 400.
type InputError struct{ Reason string }

func (e *InputError) Error() string { return "billing: " + e.Reason }

// CreateCheckout creates a subscription Checkout session for the site.
func (s *Service) CreateCheckout(ctx context.Context, in CheckoutInput) (*Redirect, error) {
	if err := inputValidator.Struct(in); err != nil {
		return nil, &InputError{Reason: err.Error()}
	}
	rec, err := s.store.ByID(ctx, in.SiteID)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(in.PriceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:        stripe.String(s.successURL),
		CancelURL:         stripe.String(s.cancelURL),
		ClientReferenceID: stripe.String(rec.ID),
	}
	params.AddMetadata("site_id", rec.ID)
	if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}
	params.Context = ctx

	sess, err := s.gw.NewCheckoutSession(params)
	if err != nil {
		return nil, fmt.Errorf("checkout session: %w", err)
	}

	s.store.Append(ctx, rec.ID, "checkout.created", map[string]any{
		"session_id": sess.ID, "price_id": in.PriceID,
	})
	zap.S().Infow("checkout session created", "site_id", rec.ID, "session_id", sess.ID)
	return &Redirect{SessionID: sess.ID, URL: sess.URL}, nil
}

// CreatePortal creates a Billing-Portal session for the site's customer.
func (s *Service) CreatePortal(ctx context.Context, in PortalInput) (*Redirect, error) {
	if err := inputValidator.Struct(in); err != nil {
		return nil, &InputError{Reason: err.Error()}
	}
	rec, err := s.store.ByID(ctx, in.SiteID)
	if err != nil {
		return nil, err
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(in.CustomerID),
		ReturnURL: stripe.String(s.successURL),
	}
	params.Context = ctx

	sess, err := s.gw.NewPortalSession(params)
	if err != nil {
		return nil, fmt.Errorf("portal session: %w", err)
	}

	s.store.Append(ctx, rec.ID, "portal.created", map[string]any{
		"session_id": sess.ID, "customer_id": in.CustomerID,
	})
	return &Redirect{SessionID: sess.ID, URL: sess.URL}, nil
}
