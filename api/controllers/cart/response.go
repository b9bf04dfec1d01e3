package cart

import (
	cartsvc "github.com/verdantrow/storefront-backend/internal/cart"
	"github.com/verdantrow/storefront-backend/internal/checkout"
)

// CheckoutResponse pairs the projected line-item requests with the cart-level
// fields a checkout mutation needs.
type CheckoutResponse struct {
	CartID       string                     `json:"cartId"`
	DiscountCode *string                    `json:"discountCode"`
	LineItems    []checkout.LineItemRequest `json:"lineItems"`
}

func newCheckoutResponse(view cartsvc.CartView, lineItems []checkout.LineItemRequest) CheckoutResponse {
	return CheckoutResponse{
		CartID:       view.ID,
		DiscountCode: view.DiscountCode,
		LineItems:    lineItems,
	}
}
