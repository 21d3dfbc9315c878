package billing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/money"
	"github.com/noah-isme/backend-kasir/internal/store"
)

// Handler exposes the settlement endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type checkoutItem struct {
	SKU string `json:"sku" validate:"required"`
	Qty int    `json:"qty" validate:"required"`
}

type checkoutRequest struct {
	CustomerEmail string         `json:"customerEmail" validate:"required,email"`
	PaidAmount    string         `json:"paidAmount" validate:"required"`
	Items         []checkoutItem `json:"items" validate:"required,min=1,dive"`
}

// Checkout settles one purchase.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "billing service not configured", nil)
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid checkout payload", err.Error())
			return
		}
	}
	paid, err := money.Parse(req.PaidAmount)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_AMOUNT", "paid amount is not a valid decimal", nil)
		return
	}
	lines := make([]store.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, store.OrderLine{SKU: item.SKU, Qty: item.Qty})
	}

	result, err := h.Svc.Settle(r.Context(), SettleRequest{
		CustomerEmail: req.CustomerEmail,
		Lines:         lines,
		PaidAmount:    paid,
	})
	if err != nil {
		writeSettleError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, result)
}

// GetPurchase returns a settled purchase by invoice number.
func (h *Handler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	invoiceNo := chi.URLParam(r, "invoiceNo")
	purchase, err := h.Svc.Lookup(r.Context(), invoiceNo)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "purchase not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load purchase", nil)
		return
	}
	common.JSON(w, http.StatusOK, purchase)
}

func writeSettleError(w http.ResponseWriter, err error) {
	var (
		notFound *ProductNotFoundError
		stock    *store.InsufficientStockError
	)
	switch {
	case errors.As(err, &notFound):
		common.JSONError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "product not found", map[string]any{"sku": notFound.SKU})
	case errors.As(err, &stock):
		common.JSONError(w, http.StatusConflict, "INSUFFICIENT_STOCK", "insufficient stock", map[string]any{
			"sku":       stock.SKU,
			"requested": stock.Requested,
			"available": stock.Available,
		})
	case errors.Is(err, ErrInvalidQuantity):
		common.JSONError(w, http.StatusBadRequest, "INVALID_QUANTITY", "quantity must be positive", nil)
	case errors.Is(err, ErrInvalidAmount):
		common.JSONError(w, http.StatusBadRequest, "INVALID_AMOUNT", "tendered amount must be positive", nil)
	case errors.Is(err, store.ErrConflict):
		common.JSONError(w, http.StatusConflict, "CONFLICT", "settlement conflicted, retry", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settlement failed", nil)
	}
}
