package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Lixing-Zhang/product-catalog/internal/models"
	"github.com/Lixing-Zhang/product-catalog/internal/repository"
	"github.com/Lixing-Zhang/product-catalog/internal/service"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps product request bodies.
const maxBodyBytes = 1 << 20

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// ListProducts handles GET /Products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.service.ListProducts(ctx)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /Products/{productId}
// - 200: successful operation
// - 400: Invalid ID supplied
// - 404: Product not found
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "get", id, err)
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

// CreateProduct handles POST /Products and responds with the bare
// identifier of the new product.
// - 201: created
// - 400: malformed body or validation failure
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}

	id, err := h.service.CreateProduct(r.Context(), draft)
	if err != nil {
		h.writeServiceError(w, "create", 0, err)
		return
	}

	h.logger.Info("product created", "productId", id)
	h.writeJSON(w, http.StatusCreated, id)
}

// UpdateProduct handles PUT /Products/{productId}
// - 204: updated
// - 400: Invalid ID supplied, malformed body or validation failure
// - 404: Product not found
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	draft, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}

	if err := h.service.UpdateProduct(r.Context(), id, draft); err != nil {
		h.writeServiceError(w, "update", id, err)
		return
	}

	h.logger.Info("product updated", "productId", id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteProduct handles DELETE /Products/{productId}
// - 204: deleted
// - 400: Invalid ID supplied
// - 404: Product not found
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.writeServiceError(w, "delete", id, err)
		return
	}

	h.logger.Info("product deleted", "productId", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID := chi.URLParam(r, "productId")

	if productID == "" {
		h.logger.Warn("product ID is required")
		h.writeError(w, http.StatusBadRequest, "Invalid ID supplied")
		return 0, false
	}

	id, err := strconv.ParseInt(productID, 10, 64)
	if err != nil {
		h.logger.Warn("invalid product ID format", "productId", productID, "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid ID supplied")
		return 0, false
	}

	return id, true
}

func (h *ProductHandler) decodeDraft(w http.ResponseWriter, r *http.Request) (models.Draft, bool) {
	var draft models.Draft

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&draft); err != nil {
		h.logger.Warn("invalid product body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid product body")
		return models.Draft{}, false
	}

	return draft, true
}

func (h *ProductHandler) writeServiceError(w http.ResponseWriter, op string, id int64, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		h.logger.Info("product rejected", "op", op, "error", err)
		h.writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, repository.ErrProductNotFound):
		h.logger.Info("product not found", "op", op, "productId", id)
		h.writeError(w, http.StatusNotFound, "Product not found")
	default:
		h.logger.Error("product operation failed", "op", op, "productId", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writeJSON writes a JSON response
func (h *ProductHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes an error response
func (h *ProductHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}
