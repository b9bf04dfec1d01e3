package cart

import "maps"

// CartState is the persisted shape of the cart. It is owned exclusively by
// the in-memory service and the snapshot store; enhanced data is derived on
// read and never written back.
type CartState struct {
	ID               string              `json:"id"`
	CheckoutID       *string             `json:"checkoutId"`
	RCheckoutID      *string             `json:"rCheckoutId"`
	DiscountCode     *string             `json:"discountCode"`
	CustomAttributes map[string]string   `json:"customAttributes,omitempty"`
	LineItems        []PersistedLineItem `json:"lineItems"`
}

func (s CartState) clone() CartState {
	copied := s
	copied.CheckoutID = cloneString(s.CheckoutID)
	copied.RCheckoutID = cloneString(s.RCheckoutID)
	copied.DiscountCode = cloneString(s.DiscountCode)
	copied.CustomAttributes = maps.Clone(s.CustomAttributes)
	copied.LineItems = make([]PersistedLineItem, len(s.LineItems))
	for i, item := range s.LineItems {
		copied.LineItems[i] = item.clone()
	}
	return copied
}

// VariantIDs returns the distinct variant ids referenced by the cart lines,
// in cart order.
func (s CartState) VariantIDs() []string {
	seen := map[string]struct{}{}
	ids := make([]string, 0, len(s.LineItems))
	for _, item := range s.LineItems {
		if _, ok := seen[item.VariantID]; ok {
			continue
		}
		seen[item.VariantID] = struct{}{}
		ids = append(ids, item.VariantID)
	}
	return ids
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	copied := *s
	return &copied
}
