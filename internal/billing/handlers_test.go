package billing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/billing"
	"github.com/noah-isme/backend-kasir/internal/store/memory"
)

func newRouter(t *testing.T) (*chi.Mux, *memory.Store) {
	t.Helper()
	svc, mem := newService(t)
	handler := &billing.Handler{Svc: svc, Validate: validator.New()}

	r := chi.NewRouter()
	r.Post("/checkout", handler.Checkout)
	r.Get("/purchases/{invoiceNo}", handler.GetPurchase)
	return r, mem
}

func postJSON(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestCheckoutEndpoint(t *testing.T) {
	r, mem := newRouter(t)
	seedProduct(t, mem, product("SKU1001", "10.00", "5.00", 100))
	seedTill(t, mem, map[int64]int{10: 5})

	rr := postJSON(t, r, "/checkout", `{
		"customerEmail": "buyer@example.com",
		"paidAmount": "41.50",
		"items": [{"sku": "SKU1001", "qty": 3}]
	}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var result struct {
		Purchase struct {
			InvoiceNo   string `json:"invoiceNo"`
			TotalAmount string `json:"totalAmount"`
		} `json:"purchase"`
		TillApplied bool `json:"tillApplied"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	require.Len(t, result.Purchase.InvoiceNo, 8)
	require.True(t, result.TillApplied)

	// the settled purchase is retrievable
	req := httptest.NewRequest(http.MethodGet, "/purchases/"+result.Purchase.InvoiceNo, nil)
	get := httptest.NewRecorder()
	r.ServeHTTP(get, req)
	require.Equal(t, http.StatusOK, get.Code)
}

func TestCheckoutRejectsBadPayloads(t *testing.T) {
	r, mem := newRouter(t)
	seedProduct(t, mem, product("SKU1001", "10.00", "5.00", 100))

	cases := []struct {
		name string
		body string
		code int
		errC string
	}{
		{"invalid json", `{`, http.StatusBadRequest, "BAD_REQUEST"},
		{"missing email", `{"paidAmount":"10","items":[{"sku":"SKU1001","qty":1}]}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"empty items", `{"customerEmail":"a@b.com","paidAmount":"10","items":[]}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"bad amount", `{"customerEmail":"a@b.com","paidAmount":"abc","items":[{"sku":"SKU1001","qty":1}]}`, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"zero amount", `{"customerEmail":"a@b.com","paidAmount":"0","items":[{"sku":"SKU1001","qty":1}]}`, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"unknown sku", `{"customerEmail":"a@b.com","paidAmount":"10","items":[{"sku":"SKU9999","qty":1}]}`, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := postJSON(t, r, "/checkout", tc.body)
			require.Equal(t, tc.code, rr.Code, rr.Body.String())
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			require.Equal(t, tc.errC, body.Error.Code)
		})
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	r, mem := newRouter(t)
	seedProduct(t, mem, product("SKU1001", "10.00", "5.00", 5))

	rr := postJSON(t, r, "/checkout", `{
		"customerEmail": "buyer@example.com",
		"paidAmount": "100.00",
		"items": [{"sku": "SKU1001", "qty": 6}]
	}`)
	require.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				SKU       string `json:"sku"`
				Requested int    `json:"requested"`
				Available int    `json:"available"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "INSUFFICIENT_STOCK", body.Error.Code)
	require.Equal(t, "SKU1001", body.Error.Details.SKU)
	require.Equal(t, 6, body.Error.Details.Requested)
	require.Equal(t, 5, body.Error.Details.Available)

	prod, err := mem.GetProductBySKU(context.Background(), "SKU1001")
	require.NoError(t, err)
	require.Equal(t, 5, prod.AvailableStock)
}

func TestGetPurchaseNotFound(t *testing.T) {
	r, _ := newRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/purchases/NOPE1234", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
