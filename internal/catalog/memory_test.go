package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCatalog_FindCouponByCode(t *testing.T) {
	c := NewDefaultCatalog()

	coupon, err := c.FindCouponByCode(context.Background(), "save20")
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", coupon.Code)

	_, err = c.FindCouponByCode(context.Background(), "XYZ")
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestMemoryCatalog_ReturnsCopies(t *testing.T) {
	c := NewDefaultCatalog()

	p, err := c.GetProduct(context.Background(), "frame-round")
	require.NoError(t, err)
	p.Name = "changed"

	again, err := c.GetProduct(context.Background(), "frame-round")
	require.NoError(t, err)
	assert.Equal(t, "Round Metal Frame", again.Name)
}

func TestMemoryCatalog_GetAllProductsSorted(t *testing.T) {
	c := NewDefaultCatalog()

	products, err := c.GetAllProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, len(DefaultProducts()))
	for i := 1; i < len(products); i++ {
		assert.Less(t, products[i-1].ID, products[i].ID)
	}

	_, err = c.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}
