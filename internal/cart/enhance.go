package cart

import (
	"github.com/verdantrow/storefront-backend/internal/catalog"
	"github.com/verdantrow/storefront-backend/pkg/enums"
	"github.com/verdantrow/storefront-backend/pkg/money"
)

// EnhancedLineItem is a persisted line item augmented with computed pricing
// and, once the canonical fetch lands, the authoritative variant/product
// snapshot.
type EnhancedLineItem struct {
	PersistedLineItem
	LinePrice          money.Money        `json:"linePrice"`
	LineCompareAtPrice *money.Money       `json:"lineCompareAtPrice,omitempty"`
	Container          *catalog.Container `json:"container,omitempty"`
	Variant            *catalog.Variant   `json:"variant,omitempty"`
	Product            *catalog.Product   `json:"product,omitempty"`
}

// Resolved reports whether canonical data has been applied to this line.
func (e EnhancedLineItem) Resolved() bool {
	return e.Variant != nil
}

// EnhanceInput feeds one reconciliation pass.
type EnhanceInput struct {
	CartID            string
	LineItems         []PersistedLineItem
	Variants          map[string]catalog.ResolvedVariant
	FetchFailed       bool
	ShippingThreshold money.Money
}

// EnhanceResult is the derived cart view: per-line pricing plus aggregates.
// It is recomputed on every read and never persisted.
type EnhanceResult struct {
	LineItems              []EnhancedLineItem `json:"lineItems"`
	ItemCount              int                `json:"itemCount"`
	LineItemsSubtotalPrice money.Money        `json:"lineItemsSubtotalPrice"`
	LineItemsSavingsPrice  *money.Money       `json:"lineItemsSavingsPrice"`
	ShippingThreshold      money.Money        `json:"shippingThreshold"`
	Status                 enums.CartStatus   `json:"status"`
}

// Enhance reconciles persisted line items with canonical catalog data and
// computes pricing. Lines whose variant is absent from the batch stay
// unresolved: they still price from their persisted copy, but aggregate
// savings are withheld until every line is resolved, because a partial
// savings total would be dishonest rather than merely incomplete.
func Enhance(input EnhanceInput) (EnhanceResult, error) {
	currency := input.ShippingThreshold.CurrencyCode

	result := EnhanceResult{
		LineItems:              make([]EnhancedLineItem, 0, len(input.LineItems)),
		LineItemsSubtotalPrice: money.Zero(currency),
		ShippingThreshold:      input.ShippingThreshold,
	}

	allResolved := true
	savings := money.Zero(currency)

	for _, item := range input.LineItems {
		var resolved *catalog.ResolvedVariant
		if record, ok := input.Variants[item.VariantID]; ok {
			resolved = &record
		}

		enhanced, err := enhanceLine(item, resolved)
		if err != nil {
			return EnhanceResult{}, err
		}
		result.LineItems = append(result.LineItems, enhanced)

		result.ItemCount += enhanced.Quantity
		result.LineItemsSubtotalPrice, err = result.LineItemsSubtotalPrice.Add(enhanced.LinePrice)
		if err != nil {
			return EnhanceResult{}, err
		}

		if !enhanced.Resolved() {
			allResolved = false
			continue
		}
		if enhanced.LineCompareAtPrice != nil {
			saved, err := enhanced.LineCompareAtPrice.Sub(enhanced.LinePrice)
			if err != nil {
				return EnhanceResult{}, err
			}
			savings, err = savings.Add(saved)
			if err != nil {
				return EnhanceResult{}, err
			}
		}
	}

	if allResolved {
		result.LineItemsSavingsPrice = &savings
	}

	result.Status = deriveStatus(input, allResolved)
	return result, nil
}

func deriveStatus(input EnhanceInput, allResolved bool) enums.CartStatus {
	switch {
	case input.FetchFailed:
		return enums.CartStatusError
	case input.CartID == "":
		return enums.CartStatusInitializing
	case !allResolved:
		return enums.CartStatusFetching
	default:
		return enums.CartStatusReady
	}
}

func enhanceLine(item PersistedLineItem, resolved *catalog.ResolvedVariant) (EnhancedLineItem, error) {
	if resolved != nil {
		item = applyCanonical(item, *resolved)
	}

	mode := enums.ContainerTypeOneTime
	if item.Frequency != nil {
		mode = enums.ContainerTypeSubscription
	}
	tier := enums.ContainerTierBase
	if item.Frequency == nil && item.ContainerUpgrade {
		tier = enums.ContainerTierUpgrade
	}

	unit := item.Price
	if item.Frequency != nil && item.SubscriptionPrice != nil {
		unit = *item.SubscriptionPrice
	}
	linePrice := unit.MulInt(item.Quantity)

	container, hasContainer := item.ContainerPrices.Lookup(mode, tier)
	if hasContainer {
		// Containers are priced once per line, not per unit.
		var err error
		linePrice, err = linePrice.Add(container.Price)
		if err != nil {
			return EnhancedLineItem{}, err
		}
	}

	enhanced := EnhancedLineItem{
		PersistedLineItem: item,
		LinePrice:         linePrice,
	}

	if resolved == nil {
		return enhanced, nil
	}

	variant := resolved.Variant
	product := resolved.Product
	enhanced.Variant = &variant
	enhanced.Product = &product
	if hasContainer {
		offer := container
		enhanced.Container = &offer
	}

	compareAt, err := lineCompareAtPrice(item, variant, container, hasContainer)
	if err != nil {
		return EnhancedLineItem{}, err
	}
	// Equal compare-at means there is nothing to cross out; preserved even
	// when the equality stems from upstream pricing rather than intent.
	if compareAt != nil && compareAt.Equal(linePrice) {
		compareAt = nil
	}
	enhanced.LineCompareAtPrice = compareAt

	return enhanced, nil
}

func lineCompareAtPrice(item PersistedLineItem, variant catalog.Variant, container catalog.Container, hasContainer bool) (*money.Money, error) {
	base := variant.Price
	if variant.CompareAtPrice != nil {
		base = *variant.CompareAtPrice
	}
	compare := base.MulInt(item.Quantity)

	if hasContainer {
		containerCompare := container.Price
		if container.CompareAtPrice != nil {
			containerCompare = *container.CompareAtPrice
		}
		var err error
		compare, err = compare.Add(containerCompare)
		if err != nil {
			return nil, err
		}
	}

	return &compare, nil
}

// applyCanonical overwrites the persisted copy of catalog-owned fields with
// freshly fetched data, correcting anything that went stale in storage.
//
// Field precedence:
//
//	canonical variant/product: price, subscription price, compare-at via
//	  pricing, container price table, product id, handle, title, subtitle,
//	  image url
//	persisted line item: id, variant id, quantity, frequency, properties,
//	  container upgrade flag
func applyCanonical(item PersistedLineItem, resolved catalog.ResolvedVariant) PersistedLineItem {
	variant := resolved.Variant
	product := resolved.Product

	item.ProductID = product.ID
	item.Handle = product.Handle
	item.Title = product.Title
	item.Subtitle = variant.Title
	if variant.ImageURL != "" {
		item.ImageURL = variant.ImageURL
	} else if product.ImageURL != "" {
		item.ImageURL = product.ImageURL
	}
	item.Price = variant.Price
	item.SubscriptionPrice = cloneMoney(variant.SubscriptionPrice)
	item.ContainerPrices = variant.Containers

	return item
}
