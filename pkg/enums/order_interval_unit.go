package enums

import "fmt"

// OrderIntervalUnit is the calendar unit of a subscription interval.
type OrderIntervalUnit string

const (
	OrderIntervalUnitDay   OrderIntervalUnit = "DAY"
	OrderIntervalUnitWeek  OrderIntervalUnit = "WEEK"
	OrderIntervalUnitMonth OrderIntervalUnit = "MONTH"
)

var validOrderIntervalUnits = []OrderIntervalUnit{
	OrderIntervalUnitDay,
	OrderIntervalUnitWeek,
	OrderIntervalUnitMonth,
}

// String implements fmt.Stringer.
func (u OrderIntervalUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known OrderIntervalUnit.
func (u OrderIntervalUnit) IsValid() bool {
	for _, candidate := range validOrderIntervalUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseOrderIntervalUnit converts raw upstream metadata into an
// OrderIntervalUnit. Unknown strings are rejected here so an invalid unit
// never reaches the cart state machine.
func ParseOrderIntervalUnit(value string) (OrderIntervalUnit, error) {
	for _, candidate := range validOrderIntervalUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order interval unit %q", value)
}
