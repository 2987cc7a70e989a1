package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/usecase"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

const defaultOrderListLimit = 50

// OrderHandler serves order endpoints
type OrderHandler struct {
	orderUC usecase.OrderUseCase
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderUC usecase.OrderUseCase) *OrderHandler {
	return &OrderHandler{
		orderUC: orderUC,
	}
}

// HandleList lists orders by status, or recent orders when no status is given
func (h *OrderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	if status != "" {
		limit := defaultOrderListLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, goerr.New("invalid limit",
					goerr.V("limit", v),
					goerr.T(apperr.ErrTagValidation)))
				return
			}
			limit = n
		}

		orders, err := h.orderUC.ListByStatus(r.Context(), types.OrderStatus(status), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
		return
	}

	since := time.Now().AddDate(0, 0, -7)
	if v := r.URL.Query().Get("since"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, goerr.Wrap(err, "invalid since timestamp",
				goerr.T(apperr.ErrTagValidation)))
			return
		}
		since = parsed
	}

	orders, err := h.orderUC.ListRecent(r.Context(), since)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// HandleCreate creates an order
func (h *OrderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, goerr.Wrap(err, "invalid request body", goerr.T(apperr.ErrTagValidation)))
		return
	}

	order, err := h.orderUC.CreateOrder(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleStatus transitions an order through its lifecycle
func (h *OrderHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	orderID := types.OrderID(chi.URLParam(r, "orderID"))

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, goerr.Wrap(err, "invalid request body", goerr.T(apperr.ErrTagValidation)))
		return
	}

	order, err := h.orderUC.TransitionStatus(r.Context(), orderID, types.OrderStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

type draftRequest struct {
	Text string `json:"text"`
}

// HandleDraft turns free-form order text into a structured draft
func (h *OrderHandler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, goerr.Wrap(err, "invalid request body", goerr.T(apperr.ErrTagValidation)))
		return
	}

	draft, err := h.orderUC.DraftFromText(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}
