// Package cart implements the shopping-cart engine: line-item identity and
// merging, the pure state machine, snapshot persistence, and reconciliation
// of persisted lines against canonical catalog data.
package cart

import (
	"maps"

	"github.com/verdantrow/storefront-backend/internal/catalog"
	"github.com/verdantrow/storefront-backend/pkg/enums"
	pkgerrors "github.com/verdantrow/storefront-backend/pkg/errors"
	"github.com/verdantrow/storefront-backend/pkg/money"
)

// Frequency describes a subscription interval. A nil *Frequency means a
// one-time purchase.
type Frequency struct {
	OrderIntervalFrequency int                     `json:"orderIntervalFrequency"`
	OrderIntervalUnit      enums.OrderIntervalUnit `json:"orderIntervalUnit"`
	ChargeDelayDays        *int                    `json:"chargeDelayDays"`
}

// NewFrequency validates upstream interval metadata before it can enter the
// state machine.
func NewFrequency(interval int, unit string, chargeDelayDays *int) (*Frequency, error) {
	if interval <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order interval frequency must be positive")
	}
	parsed, err := enums.ParseOrderIntervalUnit(unit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid frequency")
	}
	return &Frequency{
		OrderIntervalFrequency: interval,
		OrderIntervalUnit:      parsed,
		ChargeDelayDays:        chargeDelayDays,
	}, nil
}

// FrequencyEqual reports whether two frequencies fall in the same identity
// class: both nil, or both non-nil with equal unit and interval. The charge
// delay is not part of identity.
func FrequencyEqual(a, b *Frequency) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.OrderIntervalFrequency == b.OrderIntervalFrequency &&
		a.OrderIntervalUnit == b.OrderIntervalUnit
}

func cloneFrequency(f *Frequency) *Frequency {
	if f == nil {
		return nil
	}
	copied := *f
	if f.ChargeDelayDays != nil {
		delay := *f.ChargeDelayDays
		copied.ChargeDelayDays = &delay
	}
	return &copied
}

// Properties is the free-form per-line customization map. Identity comparison
// is deep and unordered; nil and empty compare equal.
type Properties map[string]string

// Equal reports deep equality.
func (p Properties) Equal(other Properties) bool {
	if len(p) != len(other) {
		return false
	}
	return len(p) == 0 || maps.Equal(p, other)
}

func (p Properties) clone() Properties {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// CoreLineItem is the caller-supplied shape of one cart entry.
type CoreLineItem struct {
	VariantID         string                      `json:"variantId"`
	ProductID         string                      `json:"productId"`
	Handle            string                      `json:"handle"`
	Title             string                      `json:"title"`
	Subtitle          string                      `json:"subtitle,omitempty"`
	ImageURL          string                      `json:"imageUrl,omitempty"`
	Price             money.Money                 `json:"price"`
	SubscriptionPrice *money.Money                `json:"subscriptionPrice,omitempty"`
	ContainerPrices   catalog.ContainerPriceTable `json:"containerPrices,omitempty"`
	Quantity          int                         `json:"quantity"`
	Frequency         *Frequency                  `json:"frequency"`
	Properties        Properties                  `json:"properties,omitempty"`
	ContainerUpgrade  bool                        `json:"containerUpgrade,omitempty"`
}

// LineItemInput carries the shopper-chosen parts of a new line item.
type LineItemInput struct {
	Quantity         int
	Frequency        *Frequency
	Properties       Properties
	ContainerUpgrade bool
}

// NewCoreLineItem builds a line item from a variant and its separately
// supplied product record.
func NewCoreLineItem(variant catalog.Variant, product catalog.Product, input LineItemInput) CoreLineItem {
	imageURL := variant.ImageURL
	if imageURL == "" {
		imageURL = product.ImageURL
	}
	return CoreLineItem{
		VariantID:         variant.ID,
		ProductID:         product.ID,
		Handle:            product.Handle,
		Title:             product.Title,
		Subtitle:          variant.Title,
		ImageURL:          imageURL,
		Price:             variant.Price,
		SubscriptionPrice: cloneMoney(variant.SubscriptionPrice),
		ContainerPrices:   variant.Containers,
		Quantity:          input.Quantity,
		Frequency:         cloneFrequency(input.Frequency),
		Properties:        input.Properties.clone(),
		ContainerUpgrade:  input.ContainerUpgrade,
	}
}

// NewCoreLineItemFromResolved builds a line item from a resolved
// variant/product pair.
func NewCoreLineItemFromResolved(resolved catalog.ResolvedVariant, input LineItemInput) CoreLineItem {
	return NewCoreLineItem(resolved.Variant, resolved.Product, input)
}

func (c CoreLineItem) clone() CoreLineItem {
	copied := c
	copied.SubscriptionPrice = cloneMoney(c.SubscriptionPrice)
	copied.Frequency = cloneFrequency(c.Frequency)
	copied.Properties = c.Properties.clone()
	return copied
}

// PersistedLineItem is a CoreLineItem with its stable generated identifier.
// The id is created once and preserved across merges of the same identity; a
// new id only appears when a new identity enters the cart.
type PersistedLineItem struct {
	ID string `json:"id"`
	CoreLineItem
}

func (p PersistedLineItem) clone() PersistedLineItem {
	return PersistedLineItem{ID: p.ID, CoreLineItem: p.CoreLineItem.clone()}
}

// identity is the line-item identity key: variant, frequency class, and
// deep-equal properties. The merge engine maintains at most one persisted
// line item per key.
type identity struct {
	variantID  string
	frequency  *Frequency
	properties Properties
}

func (c CoreLineItem) identity() identity {
	return identity{variantID: c.VariantID, frequency: c.Frequency, properties: c.Properties}
}

func (k identity) matches(item PersistedLineItem) bool {
	return item.VariantID == k.variantID &&
		FrequencyEqual(item.Frequency, k.frequency) &&
		item.Properties.Equal(k.properties)
}

// locate returns the position of the line item matching the identity key.
func locate(items []PersistedLineItem, key identity) (int, bool) {
	for i, item := range items {
		if key.matches(item) {
			return i, true
		}
	}
	return -1, false
}

func cloneMoney(m *money.Money) *money.Money {
	if m == nil {
		return nil
	}
	copied := *m
	return &copied
}
