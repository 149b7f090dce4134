// internal/api/errors.go
//
// JSON error envelope and the error-class → HTTP-status mapping.
//
// Every failure leaves the API as `{"error": …, "code": …, "detail": …}`.
// The mapping is deliberately exhaustive about caller-actionable classes
// (validation, not-found, collision) and collapses everything else to a
// generic 500 so internals never leak in the message.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sitewright/sitewright/internal/billing"
	"github.com/sitewright/sitewright/internal/site"
	"github.com/sitewright/sitewright/internal/tenweb"
	"github.com/sitewright/sitewright/internal/workflow"
)

type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

// classify maps an error to its HTTP status, stable code, and safe detail.
func classify(err error) (status int, code, detail string) {
	var (
		ve  *workflow.ValidationError
		ie  *billing.InputError
		bt  *site.ErrBadTransition
		ce  *workflow.CodedError
		api *tenweb.APIError
	)

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "VALIDATION", ve.Error()
	case errors.As(err, &ie):
		return http.StatusBadRequest, "VALIDATION", ie.Error()
	case errors.Is(err, site.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", ""
	case errors.As(err, &bt):
		return http.StatusConflict, "BAD_TRANSITION", bt.Error()
	case errors.Is(err, workflow.ErrSubdomainCollision):
		return http.StatusConflict, workflow.ErrSubdomainCollision.Code, ""
	case errors.Is(err, workflow.ErrNoFreeSubdomain):
		return http.StatusConflict, workflow.ErrNoFreeSubdomain.Code, ""
	case errors.Is(err, workflow.ErrBadResponse):
		return http.StatusBadGateway, workflow.ErrBadResponse.Code, ""
	case errors.Is(err, tenweb.ErrAborted):
		return http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", ""
	case errors.As(err, &api):
		switch api.Status {
		case http.StatusUnauthorized:
			return http.StatusUnauthorized, "UPSTREAM_AUTH", ""
		case http.StatusForbidden:
			return http.StatusForbidden, "UPSTREAM_FORBIDDEN", ""
		}
		return http.StatusBadGateway, "UPSTREAM_ERROR", ""
	case errors.As(err, &ce):
		return http.StatusInternalServerError, ce.Code, ""
	}
	return http.StatusInternalServerError, "INTERNAL", ""
}

// writeError renders the envelope and logs server-side classes.
func writeError(w http.ResponseWriter, err error) {
	status, code, detail := classify(err)
	if status >= http.StatusInternalServerError {
		zap.S().Errorw("request failed", "code", code, "err", err)
	}
	writeJSON(w, status, errorBody{
		Error:  http.StatusText(status),
		Code:   code,
		Detail: detail,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
