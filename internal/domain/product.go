package domain

import "github.com/shopspring/decimal"

type ProductType string

const (
	ProductTypeFrame     ProductType = "frame"
	ProductTypeAccessory ProductType = "accessory"
)

type Product struct {
	ID      string          `json:"id"`
	Type    ProductType     `json:"type"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Active  bool            `json:"active"`
	InStock bool            `json:"instock"`
	BrandID string          `json:"brand_id,omitempty"`
}

// Purchasable reports whether the product can be put into a cart.
func (p Product) Purchasable() bool {
	return p.Active && p.InStock
}
