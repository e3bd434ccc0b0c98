package store

import "errors"

var (
	ErrItemNotFound       = errors.New("item not found in cart")
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrCouponExpired      = errors.New("coupon has expired")
	ErrCouponBelowMinimum = errors.New("minimum purchase amount not reached")
)

const (
	MsgCouponApplied      = "Coupon applied successfully"
	MsgInvalidCoupon      = "Invalid coupon code"
	MsgCouponExpired      = "Coupon has expired"
	MsgCouponBelowMinimum = "Minimum purchase amount not reached"
)
