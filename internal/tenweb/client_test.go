// internal/tenweb/client_test.go
//
// Unit-tests for the upstream client against httptest servers.
//
// The abort-classification test is the important one: the creation
// workflow's reconciliation depends on deadline expiry surfacing as
// ErrAborted and nothing else.
//
// Run: go test ./internal/tenweb -v

package tenweb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testTimeouts(d time.Duration) Timeouts {
	return Timeouts{Check: d, Admin: d, Sitemap: d, Create: d, Generate: d}
}

func TestDo_DecodesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"code":"subdomain_in_use","message":"Subdomain is already in use"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", "us-east-1", testTimeouts(time.Second))
	err := c.CheckSubdomain(context.Background(), "taken-name")

	var ae *APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, http.StatusUnprocessableEntity, ae.Status)
	require.Equal(t, CodeSubdomainInUse, ae.Code)
	require.True(t, SubdomainTaken(err))
	require.False(t, Retryable(err))
}

func TestDo_FlatErrorShapeAndRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream exploded"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "", testTimeouts(time.Second))
	_, err := c.ListWebsites(context.Background())

	var ae *APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, "upstream exploded", ae.Message)
	require.NotEmpty(t, ae.Body)
	require.True(t, Retryable(err))
}

func TestDo_TimeoutIsAborted(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, "k", "", testTimeouts(50*time.Millisecond))
	_, err := c.CreateWebsite(context.Background(), CreateWebsiteParams{Subdomain: "slow"})

	require.ErrorIs(t, err, ErrAborted)
	var ae *APIError
	require.False(t, errors.As(err, &ae), "timeout must not look like an HTTP failure")
}

func TestDo_SuccessEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"subdomain":"breezy-falcon"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "", testTimeouts(time.Second))
	sub, err := c.GenerateSubdomain(context.Background())
	require.NoError(t, err)
	require.Equal(t, "breezy-falcon", sub)
}

func TestCreateWebsite_MissingIDSurvivesDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "", testTimeouts(time.Second))
	res, err := c.CreateWebsite(context.Background(), CreateWebsiteParams{Subdomain: "x"})
	require.NoError(t, err)
	require.Nil(t, res.ID, "absent upstream ID must decode to nil, not zero")
}

func TestRetryable_Taxonomy(t *testing.T) {
	require.True(t, Retryable(&APIError{Status: 429}))
	require.True(t, Retryable(&APIError{Status: 503}))
	require.False(t, Retryable(&APIError{Status: 404}))
	require.False(t, Retryable(ErrAborted))
	require.False(t, Retryable(nil))
}
