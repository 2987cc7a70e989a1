package apperr

import (
	"context"
	"net/http"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Error tags express the failure taxonomy. Local-invariant violations
// (auth, validation, slug conflicts) are fatal to the caller; remote
// provisioning and notification failures are logged and swallowed.
var (
	ErrTagNotAuthenticated   = goerr.NewTag("not_authenticated")
	ErrTagAccessDenied       = goerr.NewTag("access_denied")
	ErrTagRateLimited        = goerr.NewTag("rate_limited")
	ErrTagValidation         = goerr.NewTag("validation")
	ErrTagSlugTaken          = goerr.NewTag("slug_taken")
	ErrTagSlugExhausted      = goerr.NewTag("slug_exhausted")
	ErrTagAlreadyOnboarded   = goerr.NewTag("already_onboarded")
	ErrTagNotFound           = goerr.NewTag("not_found")
	ErrTagRemoteProvisioning = goerr.NewTag("remote_provisioning")
	ErrTagExternalService    = goerr.NewTag("external_service")
)

// Handle logs an application error with the context logger
func Handle(ctx context.Context, err error) {
	logger := ctxlog.From(ctx)
	logger.Error("application error", "error", err)
}

// HTTPStatus maps an error to an HTTP status code by its tag
func HTTPStatus(err error) int {
	switch {
	case goerr.HasTag(err, ErrTagNotAuthenticated):
		return http.StatusUnauthorized
	case goerr.HasTag(err, ErrTagAccessDenied):
		return http.StatusForbidden
	case goerr.HasTag(err, ErrTagRateLimited):
		return http.StatusTooManyRequests
	case goerr.HasTag(err, ErrTagValidation), goerr.HasTag(err, ErrTagSlugExhausted):
		return http.StatusBadRequest
	case goerr.HasTag(err, ErrTagSlugTaken), goerr.HasTag(err, ErrTagAlreadyOnboarded):
		return http.StatusConflict
	case goerr.HasTag(err, ErrTagNotFound):
		return http.StatusNotFound
	case goerr.HasTag(err, ErrTagExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
