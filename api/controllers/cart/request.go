package cart

import (
	cartsvc "github.com/verdantrow/storefront-backend/internal/cart"
	"github.com/verdantrow/storefront-backend/internal/catalog"
	"github.com/verdantrow/storefront-backend/pkg/enums"
	pkgerrors "github.com/verdantrow/storefront-backend/pkg/errors"
	"github.com/verdantrow/storefront-backend/pkg/money"
)

type MoneyPayload struct {
	Amount       string `json:"amount" validate:"required"`
	CurrencyCode string `json:"currencyCode" validate:"required"`
}

type FrequencyPayload struct {
	OrderIntervalFrequency int    `json:"orderIntervalFrequency" validate:"required,gt=0"`
	OrderIntervalUnit      string `json:"orderIntervalUnit" validate:"required"`
	ChargeDelayDays        *int   `json:"chargeDelayDays"`
}

type ContainerPayload struct {
	VariantID      string        `json:"variantId"`
	ProductID      string        `json:"productId"`
	ImageURL       string        `json:"imageUrl"`
	Price          MoneyPayload  `json:"price" validate:"required"`
	CompareAtPrice *MoneyPayload `json:"compareAtPrice"`
}

// LineItemRequest carries one cart entry across the wire. Quantity semantics
// depend on the verb: add and decrement amounts for POST/PATCH, ignored for
// DELETE.
type LineItemRequest struct {
	ID                string                                 `json:"id,omitempty"`
	VariantID         string                                 `json:"variantId" validate:"required"`
	ProductID         string                                 `json:"productId"`
	Handle            string                                 `json:"handle"`
	Title             string                                 `json:"title"`
	Subtitle          string                                 `json:"subtitle,omitempty"`
	ImageURL          string                                 `json:"imageUrl,omitempty"`
	Price             MoneyPayload                           `json:"price" validate:"required"`
	SubscriptionPrice *MoneyPayload                          `json:"subscriptionPrice"`
	ContainerPrices   map[string]map[string]ContainerPayload `json:"containerPrices,omitempty"`
	Quantity          int                                    `json:"quantity" validate:"gte=0"`
	Frequency         *FrequencyPayload                      `json:"frequency"`
	Properties        map[string]string                      `json:"properties,omitempty"`
	ContainerUpgrade  bool                                   `json:"containerUpgrade,omitempty"`
}

type SetSubscriptionRequest struct {
	VariantID    string            `json:"variantId" validate:"required"`
	Frequency    *FrequencyPayload `json:"frequency"`
	Properties   map[string]string `json:"properties,omitempty"`
	NewFrequency *FrequencyPayload `json:"newFrequency"`
}

type AssociateCheckoutRequest struct {
	CheckoutID  *string `json:"checkoutId"`
	RCheckoutID *string `json:"rCheckoutId"`
}

type AttributesRequest struct {
	Attributes map[string]string `json:"attributes" validate:"required"`
}

type DiscountCodeRequest struct {
	DiscountCode *string `json:"discountCode"`
}

func toMoney(payload MoneyPayload) (money.Money, error) {
	return money.New(payload.Amount, payload.CurrencyCode)
}

func toOptionalMoney(payload *MoneyPayload) (*money.Money, error) {
	if payload == nil {
		return nil, nil
	}
	m, err := toMoney(*payload)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func toFrequency(payload *FrequencyPayload) (*cartsvc.Frequency, error) {
	if payload == nil {
		return nil, nil
	}
	return cartsvc.NewFrequency(payload.OrderIntervalFrequency, payload.OrderIntervalUnit, payload.ChargeDelayDays)
}

func toContainerPrices(payload map[string]map[string]ContainerPayload) (catalog.ContainerPriceTable, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	table := catalog.ContainerPriceTable{}
	for rawMode, byTier := range payload {
		mode, err := enums.ParseContainerType(rawMode)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid container prices")
		}
		table[mode] = map[enums.ContainerTier]catalog.Container{}
		for rawTier, container := range byTier {
			tier, err := enums.ParseContainerTier(rawTier)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid container prices")
			}
			price, err := toMoney(container.Price)
			if err != nil {
				return nil, err
			}
			compareAt, err := toOptionalMoney(container.CompareAtPrice)
			if err != nil {
				return nil, err
			}
			table[mode][tier] = catalog.Container{
				VariantID:      container.VariantID,
				ProductID:      container.ProductID,
				ImageURL:       container.ImageURL,
				Price:          price,
				CompareAtPrice: compareAt,
			}
		}
	}
	return table, nil
}

func toCoreLineItem(payload LineItemRequest) (cartsvc.CoreLineItem, error) {
	price, err := toMoney(payload.Price)
	if err != nil {
		return cartsvc.CoreLineItem{}, err
	}
	subscriptionPrice, err := toOptionalMoney(payload.SubscriptionPrice)
	if err != nil {
		return cartsvc.CoreLineItem{}, err
	}
	frequency, err := toFrequency(payload.Frequency)
	if err != nil {
		return cartsvc.CoreLineItem{}, err
	}
	containerPrices, err := toContainerPrices(payload.ContainerPrices)
	if err != nil {
		return cartsvc.CoreLineItem{}, err
	}

	return cartsvc.CoreLineItem{
		VariantID:         payload.VariantID,
		ProductID:         payload.ProductID,
		Handle:            payload.Handle,
		Title:             payload.Title,
		Subtitle:          payload.Subtitle,
		ImageURL:          payload.ImageURL,
		Price:             price,
		SubscriptionPrice: subscriptionPrice,
		ContainerPrices:   containerPrices,
		Quantity:          payload.Quantity,
		Frequency:         frequency,
		Properties:        cartsvc.Properties(payload.Properties),
		ContainerUpgrade:  payload.ContainerUpgrade,
	}, nil
}
