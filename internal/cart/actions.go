package cart

// Action is one typed cart state transition. Actions carry data only; all
// semantics live in Reduce.
type Action interface {
	// Name labels the action for logs and metrics.
	Name() string
}

// Init resets to an empty cart with the given id. Used for first-time
// initialization and for explicit "start fresh" (e.g. post-purchase reset).
type Init struct {
	ID string
}

func (Init) Name() string { return "init" }

// Load replaces the entire state with a previously persisted (or externally
// supplied, e.g. abandoned-cart recovery) snapshot verbatim.
type Load struct {
	State CartState
}

func (Load) Name() string { return "load" }

// SetCustomAttributes replaces the custom attribute map.
type SetCustomAttributes struct {
	Attributes map[string]string
}

func (SetCustomAttributes) Name() string { return "set_custom_attributes" }

// SetDiscountCode replaces the discount code; nil clears it.
type SetDiscountCode struct {
	Code *string
}

func (SetDiscountCode) Name() string { return "set_discount_code" }

// CheckoutActive associates the cart with an in-progress checkout. At least
// one of the two backend ids must be present; the absent one is untouched.
type CheckoutActive struct {
	CheckoutID  *string
	RCheckoutID *string
}

func (CheckoutActive) Name() string { return "checkout_active" }

// Increment merges the item into an existing line of the same identity or
// appends a new persisted line. ID, when set, overrides the generated
// identifier for a newly created line (deterministic tests, state restore).
type Increment struct {
	ID   string
	Item CoreLineItem
}

func (Increment) Name() string { return "increment" }

// Decrement subtracts the item's quantity from the matching line, removing it
// entirely at zero or below. No-op when no line matches.
type Decrement struct {
	Item CoreLineItem
}

func (Decrement) Name() string { return "decrement" }

// Remove deletes the matching line regardless of quantity. No-op when no
// line matches.
type Remove struct {
	Item CoreLineItem
}

func (Remove) Name() string { return "remove" }

// ReplaceAll discards every line item and makes the supplied item the sole
// cart content. Used by single-item subscription/offer flows.
type ReplaceAll struct {
	ID   string
	Item CoreLineItem
}

func (ReplaceAll) Name() string { return "replace_all" }

// SetSubscription moves the line identified by (VariantID, Frequency,
// Properties) to NewFrequency, absorbing an existing line that already sits
// at the target identity.
type SetSubscription struct {
	VariantID    string
	Frequency    *Frequency
	Properties   Properties
	NewFrequency *Frequency
}

func (SetSubscription) Name() string { return "set_subscription" }
