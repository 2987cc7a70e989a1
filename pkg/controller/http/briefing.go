package http

import (
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/usecase"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

// BriefingHandler serves the daily store briefing
type BriefingHandler struct {
	briefingUC usecase.BriefingUseCase
}

// NewBriefingHandler creates a new briefing handler
func NewBriefingHandler(briefingUC usecase.BriefingUseCase) *BriefingHandler {
	return &BriefingHandler{
		briefingUC: briefingUC,
	}
}

// HandleGet assembles and renders today's briefing for the caller's store
func (h *BriefingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	authCtx := model.GetOrCreateAuthContext(r.Context())
	if authCtx.OrgID == "" {
		writeError(w, goerr.New("caller has no organization",
			goerr.T(apperr.ErrTagAccessDenied)))
		return
	}

	briefing, err := h.briefingUC.Assemble(r.Context(), authCtx.OrgID, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	prose := h.briefingUC.Render(r.Context(), briefing)

	writeJSON(w, http.StatusOK, map[string]any{
		"briefing": briefing,
		"prose":    prose,
	})
}

// HandleSend emails today's briefing to the store's managers
func (h *BriefingHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	authCtx := model.GetOrCreateAuthContext(r.Context())
	if authCtx.OrgID == "" {
		writeError(w, goerr.New("caller has no organization",
			goerr.T(apperr.ErrTagAccessDenied)))
		return
	}

	if err := h.briefingUC.Send(r.Context(), authCtx.OrgID, time.Now()); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "sent",
	})
}
