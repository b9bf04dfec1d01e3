package enums

// CartStatus is the derived readiness of the cart view. It is recomputed on
// every read and never persisted.
type CartStatus string

const (
	CartStatusInitializing CartStatus = "INITIALIZING"
	CartStatusFetching     CartStatus = "FETCHING"
	CartStatusReady        CartStatus = "READY"
	CartStatusError        CartStatus = "ERROR"
)

// String implements fmt.Stringer.
func (c CartStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartStatus.
func (c CartStatus) IsValid() bool {
	switch c {
	case CartStatusInitializing, CartStatusFetching, CartStatusReady, CartStatusError:
		return true
	}
	return false
}
