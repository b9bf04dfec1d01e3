package cart

import (
	"fmt"
	"maps"

	"github.com/google/uuid"

	pkgerrors "github.com/verdantrow/storefront-backend/pkg/errors"
)

// Reduce applies one action to a cart state and returns the next state. It is
// pure: the input state is never mutated, and all side effects (persistence,
// variant refetch) belong to callers observing the result.
func Reduce(state CartState, action Action) (CartState, error) {
	switch a := action.(type) {
	case Init:
		if a.ID == "" {
			return CartState{}, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
		}
		return CartState{ID: a.ID, LineItems: []PersistedLineItem{}}, nil

	case Load:
		return a.State.clone(), nil

	case SetCustomAttributes:
		next := state.clone()
		next.CustomAttributes = maps.Clone(a.Attributes)
		return next, nil

	case SetDiscountCode:
		next := state.clone()
		next.DiscountCode = cloneString(a.Code)
		return next, nil

	case CheckoutActive:
		if a.CheckoutID == nil && a.RCheckoutID == nil {
			return CartState{}, pkgerrors.New(pkgerrors.CodeValidation, "checkout association requires at least one checkout id")
		}
		next := state.clone()
		if a.CheckoutID != nil {
			next.CheckoutID = cloneString(a.CheckoutID)
		}
		if a.RCheckoutID != nil {
			next.RCheckoutID = cloneString(a.RCheckoutID)
		}
		return next, nil

	case Increment:
		return reduceIncrement(state, a)

	case Decrement:
		return reduceDecrement(state, a)

	case Remove:
		next := state.clone()
		if idx, ok := locate(next.LineItems, a.Item.identity()); ok {
			next.LineItems = append(next.LineItems[:idx], next.LineItems[idx+1:]...)
		}
		return next, nil

	case ReplaceAll:
		if a.Item.Quantity <= 0 {
			return CartState{}, pkgerrors.New(pkgerrors.CodeValidation, "line item quantity must be positive")
		}
		next := state.clone()
		next.LineItems = []PersistedLineItem{{ID: lineItemID(a.ID), CoreLineItem: a.Item.clone()}}
		return next, nil

	case SetSubscription:
		return reduceSetSubscription(state, a)
	}

	return CartState{}, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown cart action %T", action))
}

func reduceIncrement(state CartState, a Increment) (CartState, error) {
	if a.Item.Quantity <= 0 {
		return CartState{}, pkgerrors.New(pkgerrors.CodeValidation, "line item quantity must be positive")
	}

	next := state.clone()
	if idx, ok := locate(next.LineItems, a.Item.identity()); ok {
		existing := &next.LineItems[idx]
		existing.Quantity += a.Item.Quantity
		// A later plain add never downgrades a container upgrade.
		existing.ContainerUpgrade = existing.ContainerUpgrade || a.Item.ContainerUpgrade
		return next, nil
	}

	next.LineItems = append(next.LineItems, PersistedLineItem{
		ID:           lineItemID(a.ID),
		CoreLineItem: a.Item.clone(),
	})
	return next, nil
}

func reduceDecrement(state CartState, a Decrement) (CartState, error) {
	next := state.clone()
	idx, ok := locate(next.LineItems, a.Item.identity())
	if !ok {
		return next, nil
	}

	remaining := next.LineItems[idx].Quantity - a.Item.Quantity
	if remaining <= 0 {
		next.LineItems = append(next.LineItems[:idx], next.LineItems[idx+1:]...)
		return next, nil
	}
	next.LineItems[idx].Quantity = remaining
	return next, nil
}

// reduceSetSubscription moves an existing line to a new frequency. When a line
// already exists at the target identity, that line is absorbed: quantities
// sum, the absorbed line's properties win on conflict, and the source line
// (keeping its id) becomes the sole representative of the new frequency.
func reduceSetSubscription(state CartState, a SetSubscription) (CartState, error) {
	next := state.clone()

	sourceKey := identity{variantID: a.VariantID, frequency: a.Frequency, properties: a.Properties}
	sourceIdx, ok := locate(next.LineItems, sourceKey)
	if !ok {
		// The caller must only request this for a line it knows to exist.
		return CartState{}, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription change for missing line item")
	}

	targetKey := identity{variantID: a.VariantID, frequency: a.NewFrequency, properties: a.Properties}
	if targetIdx, found := locate(next.LineItems, targetKey); found && targetIdx != sourceIdx {
		target := next.LineItems[targetIdx]
		source := &next.LineItems[sourceIdx]
		source.Quantity += target.Quantity
		source.Properties = mergeProperties(source.Properties, target.Properties)
		next.LineItems = append(next.LineItems[:targetIdx], next.LineItems[targetIdx+1:]...)
		if targetIdx < sourceIdx {
			sourceIdx--
		}
	}

	next.LineItems[sourceIdx].Frequency = cloneFrequency(a.NewFrequency)
	return next, nil
}

// mergeProperties unions both maps; absorbed values take precedence.
func mergeProperties(source, absorbed Properties) Properties {
	if len(source) == 0 && len(absorbed) == 0 {
		return source
	}
	merged := make(Properties, len(source)+len(absorbed))
	maps.Copy(merged, source)
	maps.Copy(merged, absorbed)
	return merged
}

func lineItemID(provided string) string {
	if provided != "" {
		return provided
	}
	return uuid.NewString()
}
