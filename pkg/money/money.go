// Package money implements currency-checked decimal arithmetic for cart
// pricing. Amounts are exact decimals; any operation combining two values of
// differing currency codes fails instead of coercing.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/verdantrow/storefront-backend/pkg/errors"
)

// Money is an amount in a single currency. The zero value is not usable;
// construct values with New, MustNew, or Zero.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// New parses a decimal amount string into a Money value.
func New(amount, currencyCode string) (Money, error) {
	if currencyCode == "" {
		return Money{}, pkgerrors.New(pkgerrors.CodeValidation, "currency code is required")
	}
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid money amount %q", amount))
	}
	return Money{Amount: dec, CurrencyCode: currencyCode}, nil
}

// MustNew is New for statically known amounts; it panics on bad input.
func MustNew(amount, currencyCode string) Money {
	m, err := New(amount, currencyCode)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount in the given currency.
func Zero(currencyCode string) Money {
	return Money{Amount: decimal.Zero, CurrencyCode: currencyCode}
}

func (m Money) checkCurrency(other Money) error {
	if m.CurrencyCode != other.CurrencyCode {
		return pkgerrors.New(
			pkgerrors.CodeCurrencyMismatch,
			fmt.Sprintf("cannot combine %s with %s", m.CurrencyCode, other.CurrencyCode),
		)
	}
	return nil
}

// Add returns m + other. Differing currency codes fail.
func (m Money) Add(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}
	return m.WithAmount(m.Amount.Add(other.Amount)), nil
}

// Sub returns m - other. Differing currency codes fail.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}
	return m.WithAmount(m.Amount.Sub(other.Amount)), nil
}

// MulInt scales the amount by an integer factor, e.g. a line quantity.
func (m Money) MulInt(factor int) Money {
	return m.WithAmount(m.Amount.Mul(decimal.NewFromInt(int64(factor))))
}

// DivInt divides the amount by an integer divisor.
func (m Money) DivInt(divisor int) (Money, error) {
	if divisor == 0 {
		return Money{}, pkgerrors.New(pkgerrors.CodeValidation, "division by zero")
	}
	return m.WithAmount(m.Amount.Div(decimal.NewFromInt(int64(divisor)))), nil
}

// WithAmount returns a Money in the same currency with a different amount.
func (m Money) WithAmount(amount decimal.Decimal) Money {
	return Money{Amount: amount, CurrencyCode: m.CurrencyCode}
}

// Float64 returns the amount as a float for display-layer consumers.
func (m Money) Float64() float64 {
	return m.Amount.InexactFloat64()
}

// Equal reports whether both currency and amount match. "1.5" and "1.50"
// compare equal.
func (m Money) Equal(other Money) bool {
	return m.CurrencyCode == other.CurrencyCode && m.Amount.Equal(other.Amount)
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// String renders the value for logs.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.String(), m.CurrencyCode)
}

// Discount is the derived saving between a price and a higher comparison
// price. Percentage carries no rounding; rounding is a presentation concern.
type Discount struct {
	Percentage float64 `json:"percentage"`
	Price      Money   `json:"price"`
}

// ComputeDiscount derives the discount of price against comparisonPrice.
// It returns nil when comparisonPrice is not strictly greater than price.
func ComputeDiscount(price, comparisonPrice Money) (*Discount, error) {
	if err := price.checkCurrency(comparisonPrice); err != nil {
		return nil, err
	}
	if comparisonPrice.Amount.LessThanOrEqual(price.Amount) {
		return nil, nil
	}

	ratio := price.Amount.Div(comparisonPrice.Amount)
	percentage := decimal.NewFromInt(1).Sub(ratio).Mul(decimal.NewFromInt(100))

	saved, err := comparisonPrice.Sub(price)
	if err != nil {
		return nil, err
	}

	return &Discount{
		Percentage: percentage.InexactFloat64(),
		Price:      saved,
	}, nil
}
