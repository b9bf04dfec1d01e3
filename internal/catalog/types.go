// Package catalog defines the canonical variant and product records the cart
// reconciles against, plus the resolver that fetches them in batches.
package catalog

import (
	"context"

	"github.com/verdantrow/storefront-backend/pkg/enums"
	"github.com/verdantrow/storefront-backend/pkg/money"
)

// Product is the canonical product snapshot a variant belongs to.
type Product struct {
	ID       string `json:"id"`
	Handle   string `json:"handle"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Container is a bundled packaging add-on priced for one purchase mode and
// upgrade tier. Its price applies once per line, not per unit.
type Container struct {
	VariantID      string       `json:"variantId"`
	ProductID      string       `json:"productId"`
	ImageURL       string       `json:"imageUrl,omitempty"`
	Price          money.Money  `json:"price"`
	CompareAtPrice *money.Money `json:"compareAtPrice,omitempty"`
}

// ContainerPriceTable indexes container offers by purchase mode and tier.
type ContainerPriceTable map[enums.ContainerType]map[enums.ContainerTier]Container

// Lookup returns the container offered for the given mode and tier.
func (t ContainerPriceTable) Lookup(mode enums.ContainerType, tier enums.ContainerTier) (Container, bool) {
	if t == nil {
		return Container{}, false
	}
	byTier, ok := t[mode]
	if !ok {
		return Container{}, false
	}
	container, ok := byTier[tier]
	return container, ok
}

// Variant is a purchasable SKU with its current pricing.
type Variant struct {
	ID                string              `json:"id"`
	ProductID         string              `json:"productId"`
	Title             string              `json:"title"`
	ImageURL          string              `json:"imageUrl,omitempty"`
	Price             money.Money         `json:"price"`
	SubscriptionPrice *money.Money        `json:"subscriptionPrice,omitempty"`
	CompareAtPrice    *money.Money        `json:"compareAtPrice,omitempty"`
	Containers        ContainerPriceTable `json:"containers,omitempty"`
}

// ResolvedVariant pairs a variant with its product record.
type ResolvedVariant struct {
	Variant Variant `json:"variant"`
	Product Product `json:"product"`
}

// Fetcher is the canonical catalog query: variants (with products and
// container offers) by a batch of variant ids. Unknown ids are simply absent
// from the result.
type Fetcher interface {
	ResolveVariants(ctx context.Context, variantIDs []string) (map[string]ResolvedVariant, error)
}
