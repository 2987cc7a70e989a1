package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/usecase"
	"github.com/whatthepack/whatthepack/pkg/utils/apperr"
)

// CatalogHandler serves product catalog endpoints
type CatalogHandler struct {
	catalogUC usecase.CatalogUseCase
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogUC usecase.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{
		catalogUC: catalogUC,
	}
}

// HandleList returns the caller's catalog
func (h *CatalogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogUC.ListProducts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"products": products,
	})
}

// HandleCreate adds a product to the caller's catalog
func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, goerr.Wrap(err, "invalid request body", goerr.T(apperr.ErrTagValidation)))
		return
	}

	product, err := h.catalogUC.CreateProduct(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// HandleUpdate applies a partial update to a product
func (h *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	productID := types.ProductID(chi.URLParam(r, "productID"))

	var input usecase.UpdateProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, goerr.Wrap(err, "invalid request body", goerr.T(apperr.ErrTagValidation)))
		return
	}

	product, err := h.catalogUC.UpdateProduct(r.Context(), productID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// HandleLowStock returns catalog entries at or below the low-stock threshold
func (h *CatalogHandler) HandleLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogUC.ListLowStock(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"products": products,
	})
}
