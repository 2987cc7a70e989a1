package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/usecase"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

// TenantHandler serves tenant resolution and onboarding endpoints
type TenantHandler struct {
	navUC        usecase.NavigationUseCase
	onboardingUC usecase.OnboardingUseCase
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(navUC usecase.NavigationUseCase, onboardingUC usecase.OnboardingUseCase) *TenantHandler {
	return &TenantHandler{
		navUC:        navUC,
		onboardingUC: onboardingUC,
	}
}

// HandleResolve runs the tenant routing state machine for the request host.
// The path query parameter is preserved through redirects.
func (h *TenantHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}

	nav, err := h.navUC.Navigate(r.Context(), r.Host, path)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nav)
}

type completeOnboardingRequest struct {
	StoreName string `json:"store_name"`
	Slug      string `json:"slug"`
}

// HandleCompleteOnboarding provisions a tenant for the authenticated caller
func (h *TenantHandler) HandleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	var req completeOnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, goerr.Wrap(err, "invalid request body", goerr.T(apperr.ErrTagValidation)))
		return
	}

	result, err := h.onboardingUC.CompleteOnboarding(r.Context(), req.StoreName, types.Slug(req.Slug))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type loginReadyRequest struct {
	Slug string `json:"slug"`
}

// HandleLoginReady repairs the remote login connection for a tenant. It is
// callable without authentication because it runs before login.
func (h *TenantHandler) HandleLoginReady(w http.ResponseWriter, r *http.Request) {
	var req loginReadyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, goerr.Wrap(err, "invalid request body", goerr.T(apperr.ErrTagValidation)))
		return
	}

	if err := h.onboardingUC.EnsureOrgLoginReady(r.Context(), types.Slug(req.Slug)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
