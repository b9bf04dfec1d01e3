package cart

import (
	"testing"

	"github.com/verdantrow/storefront-backend/internal/catalog"
	"github.com/verdantrow/storefront-backend/pkg/enums"
	"github.com/verdantrow/storefront-backend/pkg/money"
)

func usd(amount string) money.Money {
	return money.MustNew(amount, "USD")
}

func usdPtr(amount string) *money.Money {
	m := usd(amount)
	return &m
}

func resolvedCoffee() catalog.ResolvedVariant {
	return catalog.ResolvedVariant{
		Variant: catalog.Variant{
			ID:                "var-1",
			ProductID:         "prod-1",
			Title:             "12 oz",
			ImageURL:          "https://cdn.example.com/12oz.png",
			Price:             usd("34.99"),
			SubscriptionPrice: usdPtr("29.99"),
			CompareAtPrice:    usdPtr("39.99"),
		},
		Product: catalog.Product{
			ID:     "prod-1",
			Handle: "morning-roast",
			Title:  "Morning Roast",
		},
	}
}

func TestEnhanceComputesLinePricing(t *testing.T) {
	result, err := Enhance(EnhanceInput{
		CartID: "cart-1",
		LineItems: []PersistedLineItem{
			{ID: "line-1", CoreLineItem: coffeeItem(3)},
		},
		Variants:          map[string]catalog.ResolvedVariant{"var-1": resolvedCoffee()},
		ShippingThreshold: usd("50.00"),
	})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}

	if result.ItemCount != 3 {
		t.Fatalf("expected item count 3, got %d", result.ItemCount)
	}
	line := result.LineItems[0]
	if !line.LinePrice.Equal(usd("104.97")) {
		t.Fatalf("expected line price 104.97, got %s", line.LinePrice)
	}
	if !result.LineItemsSubtotalPrice.Equal(usd("104.97")) {
		t.Fatalf("expected subtotal 104.97, got %s", result.LineItemsSubtotalPrice)
	}
	if line.LineCompareAtPrice == nil || !line.LineCompareAtPrice.Equal(usd("119.97")) {
		t.Fatalf("expected compare-at 119.97, got %v", line.LineCompareAtPrice)
	}
	if result.LineItemsSavingsPrice == nil || !result.LineItemsSavingsPrice.Equal(usd("15.00")) {
		t.Fatalf("expected savings 15.00, got %v", result.LineItemsSavingsPrice)
	}
	if result.Status != enums.CartStatusReady {
		t.Fatalf("expected READY, got %s", result.Status)
	}
}

func TestEnhanceSubscriptionUsesSubscriptionPrice(t *testing.T) {
	item := coffeeItem(2)
	item.Frequency = weekly(4)

	result, err := Enhance(EnhanceInput{
		CartID:            "cart-1",
		LineItems:         []PersistedLineItem{{ID: "line-1", CoreLineItem: item}},
		Variants:          map[string]catalog.ResolvedVariant{"var-1": resolvedCoffee()},
		ShippingThreshold: usd("50.00"),
	})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}

	if got := result.LineItems[0].LinePrice; !got.Equal(usd("59.98")) {
		t.Fatalf("expected subscription line price 59.98, got %s", got)
	}
}

func TestEnhanceContainerPricedOncePerLine(t *testing.T) {
	resolved := resolvedCoffee()
	resolved.Variant.Containers = catalog.ContainerPriceTable{
		enums.ContainerTypeOneTime: {
			enums.ContainerTierUpgrade: catalog.Container{
				VariantID:      "cont-var-1",
				ProductID:      "cont-prod-1",
				Price:          usd("12.00"),
				CompareAtPrice: usdPtr("15.00"),
			},
		},
	}

	item := coffeeItem(3)
	item.ContainerUpgrade = true

	result, err := Enhance(EnhanceInput{
		CartID:            "cart-1",
		LineItems:         []PersistedLineItem{{ID: "line-1", CoreLineItem: item}},
		Variants:          map[string]catalog.ResolvedVariant{"var-1": resolved},
		ShippingThreshold: usd("50.00"),
	})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}

	line := result.LineItems[0]
	// 34.99*3 + 12.00 once, not per unit.
	if !line.LinePrice.Equal(usd("116.97")) {
		t.Fatalf("expected line price 116.97, got %s", line.LinePrice)
	}
	if line.Container == nil || !line.Container.Price.Equal(usd("12.00")) {
		t.Fatalf("expected container on the line, got %#v", line.Container)
	}
	// 39.99*3 + 15.00
	if line.LineCompareAtPrice == nil || !line.LineCompareAtPrice.Equal(usd("134.97")) {
		t.Fatalf("expected compare-at 134.97, got %v", line.LineCompareAtPrice)
	}
}

func TestEnhanceSubscriptionIgnoresUpgradeTier(t *testing.T) {
	resolved := resolvedCoffee()
	resolved.Variant.Containers = catalog.ContainerPriceTable{
		enums.ContainerTypeSubscription: {
			enums.ContainerTierBase: catalog.Container{Price: usd("5.00")},
			// The upgrade tier only exists for one-time purchases.
			enums.ContainerTierUpgrade: catalog.Container{Price: usd("12.00")},
		},
	}

	item := coffeeItem(1)
	item.Frequency = weekly(4)
	item.ContainerUpgrade = true

	result, err := Enhance(EnhanceInput{
		CartID:            "cart-1",
		LineItems:         []PersistedLineItem{{ID: "line-1", CoreLineItem: item}},
		Variants:          map[string]catalog.ResolvedVariant{"var-1": resolved},
		ShippingThreshold: usd("50.00"),
	})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}

	// Subscription price 29.99 + base container 5.00.
	if got := result.LineItems[0].LinePrice; !got.Equal(usd("34.99")) {
		t.Fatalf("expected base-tier container pricing, got %s", got)
	}
}

func TestEnhanceNullsEqualCompareAt(t *testing.T) {
	resolved := resolvedCoffee()
	resolved.Variant.CompareAtPrice = usdPtr("34.99")
	resolved.Variant.SubscriptionPrice = nil

	result, err := Enhance(EnhanceInput{
		CartID:            "cart-1",
		LineItems:         []PersistedLineItem{{ID: "line-1", CoreLineItem: coffeeItem(2)}},
		Variants:          map[string]catalog.ResolvedVariant{"var-1": resolved},
		ShippingThreshold: usd("50.00"),
	})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}

	if result.LineItems[0].LineCompareAtPrice != nil {
		t.Fatalf("compare-at equal to the line price must be nulled, got %v", result.LineItems[0].LineCompareAtPrice)
	}
	if result.LineItemsSavingsPrice == nil || !result.LineItemsSavingsPrice.IsZero() {
		t.Fatalf("expected zero savings, got %v", result.LineItemsSavingsPrice)
	}
}

func TestEnhanceWithholdsSavingsWhileUnresolved(t *testing.T) {
	other := coffeeItem(1)
	other.VariantID = "var-2"

	result, err := Enhance(EnhanceInput{
		CartID: "cart-1",
		LineItems: []PersistedLineItem{
			{ID: "line-1", CoreLineItem: coffeeItem(1)},
			{ID: "line-2", CoreLineItem: other},
		},
		Variants:          map[string]catalog.ResolvedVariant{"var-1": resolvedCoffee()},
		ShippingThreshold: usd("50.00"),
	})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}

	if result.LineItemsSavingsPrice != nil {
		t.Fatalf("savings must be withheld while any line is unresolved, got %v", result.LineItemsSavingsPrice)
	}
	// Unresolved lines still price from their persisted copy.
	if !result.LineItemsSubtotalPrice.Equal(usd("69.98")) {
		t.Fatalf("expected subtotal 69.98, got %s", result.LineItemsSubtotalPrice)
	}
	if result.Status != enums.CartStatusFetching {
		t.Fatalf("expected FETCHING, got %s", result.Status)
	}
}

func TestEnhanceAppliesCanonicalPrecedence(t *testing.T) {
	stale := coffeeItem(2)
	stale.Price = usd("31.99")
	stale.Title = "Old Name"
	stale.Properties = Properties{"grind": "espresso"}

	result, err := Enhance(EnhanceInput{
		CartID:            "cart-1",
		LineItems:         []PersistedLineItem{{ID: "line-1", CoreLineItem: stale}},
		Variants:          map[string]catalog.ResolvedVariant{"var-1": resolvedCoffee()},
		ShippingThreshold: usd("50.00"),
	})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}

	line := result.LineItems[0]
	if !line.Price.Equal(usd("34.99")) {
		t.Fatalf("canonical price must win over the stale copy, got %s", line.Price)
	}
	if line.Title != "Morning Roast" || line.Subtitle != "12 oz" {
		t.Fatalf("canonical naming must win: %q / %q", line.Title, line.Subtitle)
	}
	if line.ID != "line-1" || line.Quantity != 2 || line.Properties["grind"] != "espresso" {
		t.Fatalf("persisted identity fields must survive: %#v", line.PersistedLineItem)
	}
}

func TestEnhanceStatuses(t *testing.T) {
	empty, err := Enhance(EnhanceInput{ShippingThreshold: usd("50.00")})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if empty.Status != enums.CartStatusInitializing {
		t.Fatalf("missing cart id means INITIALIZING, got %s", empty.Status)
	}

	failed, err := Enhance(EnhanceInput{
		CartID:            "cart-1",
		FetchFailed:       true,
		ShippingThreshold: usd("50.00"),
	})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if failed.Status != enums.CartStatusError {
		t.Fatalf("fetch failure means ERROR, got %s", failed.Status)
	}

	ready, err := Enhance(EnhanceInput{CartID: "cart-1", ShippingThreshold: usd("50.00")})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if ready.Status != enums.CartStatusReady {
		t.Fatalf("empty resolved cart is READY, got %s", ready.Status)
	}
	if ready.LineItemsSavingsPrice == nil || !ready.LineItemsSavingsPrice.IsZero() {
		t.Fatalf("empty cart has zero savings, got %v", ready.LineItemsSavingsPrice)
	}
}
