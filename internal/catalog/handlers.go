package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-kasir/internal/billing"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/store"
)

// Handler exposes the catalog and till endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Svc.ListProducts(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list products", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"products": products})
}

type productRequest struct {
	SKU          string `json:"sku" validate:"required"`
	Name         string `json:"name" validate:"required"`
	UnitPrice    string `json:"unitPrice" validate:"required"`
	TaxRate      string `json:"taxRate" validate:"required"`
	InitialStock int    `json:"initialStock" validate:"gte=0"`
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product payload", err.Error())
			return
		}
	}
	created, err := h.Svc.CreateProduct(r.Context(), ProductInput{
		SKU:          req.SKU,
		Name:         req.Name,
		UnitPrice:    req.UnitPrice,
		TaxRate:      req.TaxRate,
		InitialStock: req.InitialStock,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			common.JSONError(w, http.StatusConflict, "CONFLICT", "sku already exists", nil)
		case errors.Is(err, billing.ErrInvalidAmount):
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product fields", nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create product", nil)
		}
		return
	}
	common.JSON(w, http.StatusCreated, created)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.Svc.GetProduct(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load product", nil)
		return
	}
	common.JSON(w, http.StatusOK, product)
}

func (h *Handler) ListTill(w http.ResponseWriter, r *http.Request) {
	till, err := h.Svc.ListTill(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list till", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"denominations": till})
}

type topUpRequest struct {
	Value int64 `json:"value" validate:"required,gt=0"`
	Count int   `json:"count" validate:"required,gt=0"`
}

func (h *Handler) TopUpTill(w http.ResponseWriter, r *http.Request) {
	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid till payload", err.Error())
			return
		}
	}
	denom, err := h.Svc.TopUpTill(r.Context(), req.Value, req.Count)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidAmount) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid denomination", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to top up till", nil)
		return
	}
	common.JSON(w, http.StatusOK, denom)
}
