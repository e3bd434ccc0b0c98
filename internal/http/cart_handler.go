package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/pricing-service/internal/domain"
	"github.com/fjod/go_cart/pricing-service/internal/service"
	"github.com/fjod/go_cart/pricing-service/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxQuantity = 99

// CartService is the part of service.CartService the handlers call.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, in service.AddItemInput) (*domain.Cart, error)
	SetItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error)
	ApplyCoupon(ctx context.Context, userID, code string) (store.ApplyCouponResult, error)
	RemoveCoupon(ctx context.Context, userID string) (*domain.Cart, error)
	SetCharges(ctx context.Context, userID string, shipping, tax decimal.Decimal) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) (*domain.Cart, error)
}

type CartHandler struct {
	carts   CartService
	log     *zap.Logger
	timeout time.Duration
}

func NewCartHandler(carts CartService, log *zap.Logger, timeout time.Duration) *CartHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartHandler{
		carts:   carts,
		log:     log,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
	ParentItemID string `json:"parent_item_id,omitempty"`
	IsGift       bool   `json:"is_gift"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type ApplyCouponRequestDTO struct {
	Code string `json:"code"`
}

type SetChargesRequestDTO struct {
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, userID, cancel, ok := h.begin(w, r)
	if !ok {
		return
	}
	defer cancel()

	cart, err := h.carts.GetCart(ctx, userID)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, userID, cancel, ok := h.begin(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if !validQuantity(req.Quantity) {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	cart, err := h.carts.AddItem(ctx, userID, service.AddItemInput{
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		ParentItemID: req.ParentItemID,
		IsGift:       req.IsGift,
	})
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, userID, cancel, ok := h.begin(w, r)
	if !ok {
		return
	}
	defer cancel()

	itemID := chi.URLParam(r, "item_id")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if !validQuantity(req.Quantity) {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	cart, err := h.carts.SetItemQuantity(ctx, userID, itemID, req.Quantity)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, userID, cancel, ok := h.begin(w, r)
	if !ok {
		return
	}
	defer cancel()

	cart, err := h.carts.RemoveItem(ctx, userID, chi.URLParam(r, "item_id"))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// ApplyCoupon always answers with the result envelope. A rejected code is
// 422 so clients can tell it apart from a transport failure.
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, userID, cancel, ok := h.begin(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req ApplyCouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.carts.ApplyCoupon(ctx, userID, req.Code)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	if !result.Success {
		respondJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, userID, cancel, ok := h.begin(w, r)
	if !ok {
		return
	}
	defer cancel()

	cart, err := h.carts.RemoveCoupon(ctx, userID)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) SetCharges(w http.ResponseWriter, r *http.Request) {
	ctx, userID, cancel, ok := h.begin(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req SetChargesRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ShippingFee.IsNegative() || req.TaxAmount.IsNegative() {
		respondError(w, http.StatusBadRequest, "invalid_charges", "shipping_fee and tax_amount must not be negative")
		return
	}

	cart, err := h.carts.SetCharges(ctx, userID, req.ShippingFee, req.TaxAmount)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, userID, cancel, ok := h.begin(w, r)
	if !ok {
		return
	}
	defer cancel()

	cart, err := h.carts.ClearCart(ctx, userID)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// begin resolves the caller and derives the request context. When ok is
// false the response has already been written.
func (h *CartHandler) begin(w http.ResponseWriter, r *http.Request) (context.Context, string, context.CancelFunc, bool) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return nil, "", nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	return ctx, userID, cancel, true
}

func validQuantity(q int) bool {
	return q >= 1 && q <= maxQuantity
}
