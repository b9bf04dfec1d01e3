package cart

import (
	"context"
	"net/http"

	"github.com/verdantrow/storefront-backend/api/responses"
	"github.com/verdantrow/storefront-backend/api/validators"
	cartsvc "github.com/verdantrow/storefront-backend/internal/cart"
	"github.com/verdantrow/storefront-backend/internal/checkout"
	pkgerrors "github.com/verdantrow/storefront-backend/pkg/errors"
	"github.com/verdantrow/storefront-backend/pkg/logger"
	"github.com/verdantrow/storefront-backend/pkg/metrics"
)

// Service is the slice of the cart engine these handlers drive.
type Service interface {
	View() (cartsvc.CartView, error)
	LineItemUpdate(ctx context.Context, action cartsvc.Action) (cartsvc.CartState, error)
	AssociateCheckout(ctx context.Context, checkoutID, rCheckoutID *string) (cartsvc.CartState, error)
	Replace(ctx context.Context, snapshot cartsvc.CartState) (cartsvc.CartState, error)
	Reset(ctx context.Context) (cartsvc.CartState, error)
	SetCustomAttributes(ctx context.Context, attributes map[string]string) (cartsvc.CartState, error)
	SetDiscountCode(ctx context.Context, code *string) (cartsvc.CartState, error)
}

// CartFetch returns the derived cart view.
func CartFetch(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		writeView(w, r, svc, logg)
	}
}

// CartLineItemAdd increments (or appends) a line item.
func CartLineItemAdd(svc Service, logg *logger.Logger) http.HandlerFunc {
	return lineItemHandler(svc, logg, func(payload LineItemRequest, item cartsvc.CoreLineItem) cartsvc.Action {
		return cartsvc.Increment{ID: payload.ID, Item: item}
	})
}

// CartLineItemDecrement subtracts quantity from a line item.
func CartLineItemDecrement(svc Service, logg *logger.Logger) http.HandlerFunc {
	return lineItemHandler(svc, logg, func(_ LineItemRequest, item cartsvc.CoreLineItem) cartsvc.Action {
		return cartsvc.Decrement{Item: item}
	})
}

// CartLineItemRemove deletes a line item regardless of quantity.
func CartLineItemRemove(svc Service, logg *logger.Logger) http.HandlerFunc {
	return lineItemHandler(svc, logg, func(_ LineItemRequest, item cartsvc.CoreLineItem) cartsvc.Action {
		return cartsvc.Remove{Item: item}
	})
}

// CartLineItemReplaceAll makes the supplied item the sole cart content.
func CartLineItemReplaceAll(svc Service, logg *logger.Logger) http.HandlerFunc {
	return lineItemHandler(svc, logg, func(payload LineItemRequest, item cartsvc.CoreLineItem) cartsvc.Action {
		return cartsvc.ReplaceAll{ID: payload.ID, Item: item}
	})
}

func lineItemHandler(svc Service, logg *logger.Logger, toAction func(LineItemRequest, cartsvc.CoreLineItem) cartsvc.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload LineItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := toCoreLineItem(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.LineItemUpdate(r.Context(), toAction(payload, item)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeView(w, r, svc, logg)
	}
}

// CartSetSubscription moves an existing line item to a new frequency.
func CartSetSubscription(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload SetSubscriptionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		frequency, err := toFrequency(payload.Frequency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		newFrequency, err := toFrequency(payload.NewFrequency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action := cartsvc.SetSubscription{
			VariantID:    payload.VariantID,
			Frequency:    frequency,
			Properties:   cartsvc.Properties(payload.Properties),
			NewFrequency: newFrequency,
		}
		if _, err := svc.LineItemUpdate(r.Context(), action); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeView(w, r, svc, logg)
	}
}

// CartSetAttributes replaces the custom attribute map.
func CartSetAttributes(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload AttributesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.SetCustomAttributes(r.Context(), payload.Attributes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeView(w, r, svc, logg)
	}
}

// CartSetDiscountCode replaces the discount code; null clears it.
func CartSetDiscountCode(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload DiscountCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.SetDiscountCode(r.Context(), payload.DiscountCode); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeView(w, r, svc, logg)
	}
}

// CartAssociateCheckout links the cart to an in-progress checkout.
func CartAssociateCheckout(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload AssociateCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.AssociateCheckout(r.Context(), payload.CheckoutID, payload.RCheckoutID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeView(w, r, svc, logg)
	}
}

// CartReplace adopts an externally supplied snapshot (abandoned-cart
// recovery).
func CartReplace(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var snapshot cartsvc.CartState
		if err := validators.DecodeJSONBody(r, &snapshot); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.Replace(r.Context(), snapshot); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeView(w, r, svc, logg)
	}
}

// CartReset discards the cart and starts a fresh one.
func CartReset(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		if _, err := svc.Reset(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeView(w, r, svc, logg)
	}
}

// CartCheckout projects the current cart into checkout line-item requests.
func CartCheckout(svc Service, met *metrics.CartMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		view, err := svc.View()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		met.IncProjection()
		responses.WriteSuccess(w, newCheckoutResponse(view, checkout.Project(view.LineItems)))
	}
}

func writeView(w http.ResponseWriter, r *http.Request, svc Service, logg *logger.Logger) {
	view, err := svc.View()
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, view)
}
