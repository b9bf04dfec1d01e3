package cart

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verdantrow/storefront-backend/internal/catalog"
	pkgerrors "github.com/verdantrow/storefront-backend/pkg/errors"
	"github.com/verdantrow/storefront-backend/pkg/logger"
	"github.com/verdantrow/storefront-backend/pkg/metrics"
	"github.com/verdantrow/storefront-backend/pkg/money"
)

// CheckoutInspector decides whether a restored snapshot's checkout is already
// completed (or missing) and the snapshot must therefore be discarded.
type CheckoutInspector interface {
	ShouldDiscard(ctx context.Context, checkoutID, rCheckoutID *string) (bool, error)
}

// CartView is the produced surface for UI and analytics consumers: the
// persisted state plus the derived pricing view.
type CartView struct {
	ID               string            `json:"id"`
	CheckoutID       *string           `json:"checkoutId"`
	RCheckoutID      *string           `json:"rCheckoutId"`
	DiscountCode     *string           `json:"discountCode"`
	CustomAttributes map[string]string `json:"customAttributes,omitempty"`
	EnhanceResult
}

// Service owns the in-memory cart state. Transitions are synchronous and
// atomic from the caller's point of view; the only asynchronous work is the
// canonical variant fetch, which is fire-and-forget with last-completed-wins
// semantics.
type Service struct {
	store             *Store
	fetcher           catalog.Fetcher
	inspector         CheckoutInspector
	logg              *logger.Logger
	metrics           *metrics.CartMetrics
	shippingThreshold money.Money
	fetchTimeout      time.Duration

	mu          sync.Mutex
	started     bool
	state       CartState
	variants    map[string]catalog.ResolvedVariant
	fetchFailed bool
	generation  uint64
}

// ServiceParams wires the service's collaborators.
type ServiceParams struct {
	Store             *Store
	Fetcher           catalog.Fetcher
	Inspector         CheckoutInspector
	Logger            *logger.Logger
	Metrics           *metrics.CartMetrics
	ShippingThreshold money.Money
	FetchTimeout      time.Duration
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if params.Fetcher == nil {
		return nil, fmt.Errorf("variant fetcher required")
	}
	if params.Inspector == nil {
		return nil, fmt.Errorf("checkout inspector required")
	}
	if params.FetchTimeout <= 0 {
		params.FetchTimeout = 10 * time.Second
	}
	return &Service{
		store:             params.Store,
		fetcher:           params.Fetcher,
		inspector:         params.Inspector,
		logg:              params.Logger,
		metrics:           params.Metrics,
		shippingThreshold: params.ShippingThreshold,
		fetchTimeout:      params.FetchTimeout,
		variants:          map[string]catalog.ResolvedVariant{},
	}, nil
}

// Start runs the one-time restore flow: load the persisted snapshot, check
// whether its checkout already completed, and either adopt it or begin a
// fresh cart. Mutations are rejected until Start has completed, so a cart
// whose checkout already went through can never be resurrected by a fast
// first click.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	snapshot, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	switch {
	case snapshot == nil:
		if err := s.initFreshLocked(ctx); err != nil {
			return err
		}
	case snapshot.CheckoutID != nil || snapshot.RCheckoutID != nil:
		discard, err := s.inspector.ShouldDiscard(ctx, snapshot.CheckoutID, snapshot.RCheckoutID)
		if err != nil {
			// Failing to confirm completion must not destroy a live cart.
			if s.logg != nil {
				s.logg.Warn(ctx, "checkout status check failed, adopting stored cart: "+err.Error())
			}
			discard = false
		}
		if discard {
			if err := s.initFreshLocked(ctx); err != nil {
				return err
			}
		} else {
			s.state = snapshot.clone()
		}
	default:
		s.state = snapshot.clone()
	}

	s.started = true
	s.refreshLocked(ctx)
	return nil
}

func (s *Service) initFreshLocked(ctx context.Context) error {
	state, err := Reduce(CartState{}, Init{ID: uuid.NewString()})
	if err != nil {
		return err
	}
	s.state = state
	return s.store.Save(ctx, state)
}

// Apply runs one state transition, persists the result, and schedules a
// canonical refresh for any variants not yet resolved.
func (s *Service) Apply(ctx context.Context, action Action) (CartState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return CartState{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart not started")
	}

	next, err := Reduce(s.state, action)
	if err != nil {
		return CartState{}, err
	}
	s.state = next
	s.metrics.IncMutation(action.Name())

	if err := s.store.Save(ctx, next); err != nil {
		s.metrics.IncPersistFailure()
		return CartState{}, err
	}

	if s.needsRefreshLocked() {
		s.refreshLocked(ctx)
	}
	return next.clone(), nil
}

// LineItemUpdate applies a line-item action (increment, decrement, remove,
// replace-all, set-subscription).
func (s *Service) LineItemUpdate(ctx context.Context, action Action) (CartState, error) {
	switch action.(type) {
	case Increment, Decrement, Remove, ReplaceAll, SetSubscription:
		return s.Apply(ctx, action)
	}
	return CartState{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is not a line item action", action.Name()))
}

// AssociateCheckout records an in-progress checkout id for one or both
// backends.
func (s *Service) AssociateCheckout(ctx context.Context, checkoutID, rCheckoutID *string) (CartState, error) {
	return s.Apply(ctx, CheckoutActive{CheckoutID: checkoutID, RCheckoutID: rCheckoutID})
}

// Replace adopts an externally supplied snapshot verbatim (abandoned-cart
// recovery).
func (s *Service) Replace(ctx context.Context, snapshot CartState) (CartState, error) {
	return s.Apply(ctx, Load{State: snapshot})
}

// Reset discards the cart and starts a fresh one with a new id.
func (s *Service) Reset(ctx context.Context) (CartState, error) {
	return s.Apply(ctx, Init{ID: uuid.NewString()})
}

// SetCustomAttributes replaces the custom attribute map.
func (s *Service) SetCustomAttributes(ctx context.Context, attributes map[string]string) (CartState, error) {
	return s.Apply(ctx, SetCustomAttributes{Attributes: attributes})
}

// SetDiscountCode replaces the discount code; nil clears it.
func (s *Service) SetDiscountCode(ctx context.Context, code *string) (CartState, error) {
	return s.Apply(ctx, SetDiscountCode{Code: code})
}

// View recomputes the derived cart view from the current state and whatever
// canonical data has arrived so far.
func (s *Service) View() (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := Enhance(EnhanceInput{
		CartID:            s.state.ID,
		LineItems:         s.state.LineItems,
		Variants:          s.variants,
		FetchFailed:       s.fetchFailed,
		ShippingThreshold: s.shippingThreshold,
	})
	if err != nil {
		return CartView{}, err
	}

	return CartView{
		ID:               s.state.ID,
		CheckoutID:       cloneString(s.state.CheckoutID),
		RCheckoutID:      cloneString(s.state.RCheckoutID),
		DiscountCode:     cloneString(s.state.DiscountCode),
		CustomAttributes: maps.Clone(s.state.CustomAttributes),
		EnhanceResult:    result,
	}, nil
}

// Refresh schedules a canonical variant fetch for the current cart contents.
func (s *Service) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)
}

func (s *Service) needsRefreshLocked() bool {
	for _, id := range s.state.VariantIDs() {
		if _, ok := s.variants[id]; !ok {
			return true
		}
	}
	return false
}

// refreshLocked kicks off one fetch generation. The state machine never
// blocks on the fetch; a stale fetch completing after a newer one started is
// dropped, so the last completed computation wins.
func (s *Service) refreshLocked(ctx context.Context) {
	ids := s.state.VariantIDs()
	if len(ids) == 0 {
		return
	}

	s.generation++
	generation := s.generation

	go func() {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		resolved, err := s.fetcher.ResolveVariants(fetchCtx, ids)

		s.mu.Lock()
		defer s.mu.Unlock()
		if generation != s.generation {
			return
		}
		if err != nil {
			s.fetchFailed = true
			s.metrics.IncFetchFailure()
			if s.logg != nil {
				s.logg.Error(fetchCtx, "canonical variant fetch failed", err)
			}
			return
		}
		s.fetchFailed = false
		maps.Copy(s.variants, resolved)
	}()
}
