package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/go_cart/pricing-service/internal/catalog"
	"github.com/fjod/go_cart/pricing-service/internal/domain"
	"github.com/fjod/go_cart/pricing-service/internal/service"
	"github.com/fjod/go_cart/pricing-service/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCartService struct {
	cart   *domain.Cart
	result store.ApplyCouponResult
	err    error

	userID   string
	itemID   string
	quantity int
	input    service.AddItemInput
	code     string
	shipping decimal.Decimal
	tax      decimal.Decimal
}

func (m *mockCartService) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.userID = userID
	return m.cart, m.err
}

func (m *mockCartService) AddItem(_ context.Context, userID string, in service.AddItemInput) (*domain.Cart, error) {
	m.userID, m.input = userID, in
	return m.cart, m.err
}

func (m *mockCartService) SetItemQuantity(_ context.Context, userID, itemID string, quantity int) (*domain.Cart, error) {
	m.userID, m.itemID, m.quantity = userID, itemID, quantity
	return m.cart, m.err
}

func (m *mockCartService) RemoveItem(_ context.Context, userID, itemID string) (*domain.Cart, error) {
	m.userID, m.itemID = userID, itemID
	return m.cart, m.err
}

func (m *mockCartService) ApplyCoupon(_ context.Context, userID, code string) (store.ApplyCouponResult, error) {
	m.userID, m.code = userID, code
	return m.result, m.err
}

func (m *mockCartService) RemoveCoupon(_ context.Context, userID string) (*domain.Cart, error) {
	m.userID = userID
	return m.cart, m.err
}

func (m *mockCartService) SetCharges(_ context.Context, userID string, shipping, tax decimal.Decimal) (*domain.Cart, error) {
	m.userID, m.shipping, m.tax = userID, shipping, tax
	return m.cart, m.err
}

func (m *mockCartService) ClearCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.userID = userID
	return m.cart, m.err
}

func (m *mockCartService) ListProducts(context.Context) ([]*domain.Product, error) {
	return nil, m.err
}

func testCart() *domain.Cart {
	return &domain.Cart{
		ID:     "cart-1",
		UserID: "42",
		Items: []domain.CartItem{
			{ID: "item-1", ProductID: "frame-aviator", Quantity: 2, UnitPrice: decimal.RequireFromString("33.9")},
		},
		Summary: domain.CartSummary{
			ItemsCount:    1,
			ItemsSubtotal: decimal.RequireFromString("67.8"),
			TotalAmount:   decimal.RequireFromString("67.8"),
		},
	}
}

func newTestRouter(svc *mockCartService) http.Handler {
	return NewRouter(
		NewCartHandler(svc, nil, 5*time.Second),
		NewProductHandler(svc, nil, 5*time.Second),
		10*time.Second,
	)
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-ID", "42")

	recorder := httptest.NewRecorder()
	h.ServeHTTP(recorder, req)
	return recorder
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	return resp
}

func TestGetCart_Success(t *testing.T) {
	svc := &mockCartService{cart: testCart()}

	recorder := doRequest(newTestRouter(svc), http.MethodGet, "/api/v1/cart", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	assert.NotEmpty(t, recorder.Header().Get("X-Request-ID"))
	assert.Equal(t, "42", svc.userID)

	var cart domain.Cart
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&cart))
	assert.Equal(t, "cart-1", cart.ID)
	assert.True(t, decimal.RequireFromString("67.8").Equal(cart.Summary.TotalAmount))
}

func TestGetCart_DefaultUser(t *testing.T) {
	svc := &mockCartService{cart: testCart()}
	handler := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, DefaultUserID, svc.userID)
}

func TestGetCart_Unauthorized(t *testing.T) {
	handler := NewCartHandler(&mockCartService{cart: testCart()}, nil, time.Second)

	recorder := httptest.NewRecorder()
	handler.GetCart(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "unauthorized", decodeError(t, recorder).Code)
}

func TestAddItem_Success(t *testing.T) {
	svc := &mockCartService{cart: testCart()}

	recorder := doRequest(newTestRouter(svc), http.MethodPost, "/api/v1/cart/items",
		`{"product_id":"acc-case","quantity":1,"parent_item_id":"item-1","is_gift":true}`)

	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, service.AddItemInput{
		ProductID:    "acc-case",
		Quantity:     1,
		ParentItemID: "item-1",
		IsGift:       true,
	}, svc.input)
}

func TestAddItem_Validation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "invalid json", body: `{"product_id":`, wantCode: "invalid_request"},
		{name: "missing product", body: `{"quantity":1}`, wantCode: "invalid_product_id"},
		{name: "zero quantity", body: `{"product_id":"acc-case","quantity":0}`, wantCode: "invalid_quantity"},
		{name: "too many", body: `{"product_id":"acc-case","quantity":100}`, wantCode: "invalid_quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCartService{cart: testCart()}
			recorder := doRequest(newTestRouter(svc), http.MethodPost, "/api/v1/cart/items", tt.body)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, recorder).Code)
			assert.Empty(t, svc.userID, "service must not be called")
		})
	}
}

func TestUpdateQuantity(t *testing.T) {
	svc := &mockCartService{cart: testCart()}

	recorder := doRequest(newTestRouter(svc), http.MethodPut, "/api/v1/cart/items/item-1", `{"quantity":3}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "item-1", svc.itemID)
	assert.Equal(t, 3, svc.quantity)
}

func TestRemoveItem(t *testing.T) {
	svc := &mockCartService{cart: testCart()}

	recorder := doRequest(newTestRouter(svc), http.MethodDelete, "/api/v1/cart/items/item-1", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "item-1", svc.itemID)
}

func TestApplyCoupon(t *testing.T) {
	cart := testCart()
	svc := &mockCartService{result: store.ApplyCouponResult{Success: true, Message: store.MsgCouponApplied, Cart: cart}}

	recorder := doRequest(newTestRouter(svc), http.MethodPost, "/api/v1/cart/coupon", `{"code":"happy"}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "happy", svc.code)

	var result store.ApplyCouponResult
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Equal(t, store.MsgCouponApplied, result.Message)
	require.NotNil(t, result.Cart)
}

func TestApplyCoupon_Rejected(t *testing.T) {
	svc := &mockCartService{result: store.ApplyCouponResult{Success: false, Message: store.MsgInvalidCoupon}}

	recorder := doRequest(newTestRouter(svc), http.MethodPost, "/api/v1/cart/coupon", `{"code":"BOGUS"}`)

	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	var result store.ApplyCouponResult
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&result))
	assert.False(t, result.Success)
	assert.Equal(t, store.MsgInvalidCoupon, result.Message)
	assert.Nil(t, result.Cart)
}

func TestRemoveCouponAndClear(t *testing.T) {
	svc := &mockCartService{cart: testCart()}
	router := newTestRouter(svc)

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodDelete, "/api/v1/cart/coupon", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodDelete, "/api/v1/cart", "").Code)
}

func TestSetCharges(t *testing.T) {
	svc := &mockCartService{cart: testCart()}
	router := newTestRouter(svc)

	recorder := doRequest(router, http.MethodPut, "/api/v1/cart/charges", `{"shipping_fee":"4.99","tax_amount":1.5}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, decimal.RequireFromString("4.99").Equal(svc.shipping))
	assert.True(t, decimal.RequireFromString("1.5").Equal(svc.tax))

	recorder = doRequest(router, http.MethodPut, "/api/v1/cart/charges", `{"shipping_fee":"-1","tax_amount":"0"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "invalid_charges", decodeError(t, recorder).Code)
}

func TestServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "item not found", err: store.ErrItemNotFound, wantStatus: http.StatusNotFound, wantCode: "item_not_found"},
		{name: "product not found", err: catalog.ErrProductNotFound, wantStatus: http.StatusNotFound, wantCode: "product_not_found"},
		{name: "invalid quantity", err: store.ErrInvalidQuantity, wantStatus: http.StatusBadRequest, wantCode: "invalid_quantity"},
		{name: "unavailable", err: fmt.Errorf("%w: frame-retired", service.ErrProductUnavailable), wantStatus: http.StatusConflict, wantCode: "product_unavailable"},
		{name: "breaker open", err: fmt.Errorf("failed to load cart: %w", gobreaker.ErrOpenState), wantStatus: http.StatusServiceUnavailable, wantCode: "service_unavailable"},
		{name: "timeout", err: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout, wantCode: "timeout"},
		{name: "unknown", err: errors.New("database error"), wantStatus: http.StatusInternalServerError, wantCode: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCartService{err: tt.err}
			recorder := doRequest(newTestRouter(svc), http.MethodPut, "/api/v1/cart/items/item-1", `{"quantity":2}`)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			resp := decodeError(t, recorder)
			assert.Equal(t, tt.wantCode, resp.Code)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, resp.Error, "database")
			}
		})
	}
}

func TestHealth(t *testing.T) {
	recorder := doRequest(newTestRouter(&mockCartService{}), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}

func TestRemoveCoupon_DirectCall(t *testing.T) {
	svc := &mockCartService{cart: testCart()}
	handler := NewCartHandler(svc, nil, time.Second)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), "7"))
	recorder := httptest.NewRecorder()
	handler.RemoveCoupon(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "7", svc.userID)
}
