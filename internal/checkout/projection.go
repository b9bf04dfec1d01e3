// Package checkout maps reconciled cart lines into checkout-backend request
// shapes and inspects checkout completion status across the two backends.
package checkout

import (
	"github.com/verdantrow/storefront-backend/internal/cart"
)

// Property keys stamped onto projected line items so checkout-side lines can
// be traced back to the cart lines that produced them.
const (
	PropertyCartLineItemID = "_cartLineItemId"
	PropertyContainer      = "_container"
)

// LineItemRequest is one line of a checkout-mutation payload.
type LineItemRequest struct {
	VariantID  string            `json:"variantId"`
	ProductID  string            `json:"productId"`
	Quantity   int               `json:"quantity"`
	Frequency  *cart.Frequency   `json:"frequency"`
	Properties map[string]string `json:"properties"`
}

// Project converts enhanced cart lines into checkout line-item requests. Each
// cart line with positive quantity yields one request; a line with a resolved
// container yields a second, independent request for the container itself.
// Containers are never subscribed, even when the parent line is, so their
// frequency is forced to nil and their quantity fixed at 1.
func Project(lineItems []cart.EnhancedLineItem) []LineItemRequest {
	requests := make([]LineItemRequest, 0, len(lineItems))

	for _, item := range lineItems {
		if item.Quantity <= 0 {
			continue
		}

		properties := make(map[string]string, len(item.Properties)+1)
		for key, value := range item.Properties {
			properties[key] = value
		}
		properties[PropertyCartLineItemID] = item.ID

		requests = append(requests, LineItemRequest{
			VariantID:  item.VariantID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			Frequency:  item.Frequency,
			Properties: properties,
		})

		if item.Container == nil {
			continue
		}
		requests = append(requests, LineItemRequest{
			VariantID: item.Container.VariantID,
			ProductID: item.Container.ProductID,
			Quantity:  1,
			Frequency: nil,
			Properties: map[string]string{
				PropertyCartLineItemID: item.ID,
				PropertyContainer:      "true",
			},
		})
	}

	return requests
}
