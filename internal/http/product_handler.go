package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/pricing-service/internal/domain"
	"go.uber.org/zap"
)

type ProductLister interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
}

type ProductHandler struct {
	products ProductLister
	log      *zap.Logger
	timeout  time.Duration
}

func NewProductHandler(products ProductLister, log *zap.Logger, timeout time.Duration) *ProductHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductHandler{
		products: products,
		log:      log,
		timeout:  timeout,
	}
}

type ProductsResponse struct {
	Products []*domain.Product `json:"products"`
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.products.ListProducts(ctx)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}
