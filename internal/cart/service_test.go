package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/verdantrow/storefront-backend/internal/catalog"
	"github.com/verdantrow/storefront-backend/pkg/enums"
	pkgerrors "github.com/verdantrow/storefront-backend/pkg/errors"
)

type fakeFetcher struct {
	variants map[string]catalog.ResolvedVariant
	fail     bool
	calls    atomic.Int64
}

func (f *fakeFetcher) ResolveVariants(_ context.Context, variantIDs []string) (map[string]catalog.ResolvedVariant, error) {
	f.calls.Add(1)
	if f.fail {
		return nil, errors.New("catalog unavailable")
	}
	resolved := map[string]catalog.ResolvedVariant{}
	for _, id := range variantIDs {
		if record, ok := f.variants[id]; ok {
			resolved[id] = record
		}
	}
	return resolved, nil
}

type fakeInspector struct {
	discard bool
	err     error
	calls   atomic.Int64
}

func (f *fakeInspector) ShouldDiscard(context.Context, *string, *string) (bool, error) {
	f.calls.Add(1)
	return f.discard, f.err
}

type serviceFixture struct {
	service   *Service
	kv        *fakeKV
	fetcher   *fakeFetcher
	inspector *fakeInspector
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	kv := newFakeKV()
	store, err := NewStore(kv, "storefront:cart", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	fetcher := &fakeFetcher{variants: map[string]catalog.ResolvedVariant{"var-1": resolvedCoffee()}}
	inspector := &fakeInspector{}

	service, err := NewService(ServiceParams{
		Store:             store,
		Fetcher:           fetcher,
		Inspector:         inspector,
		ShippingThreshold: usd("50.00"),
		FetchTimeout:      time.Second,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &serviceFixture{service: service, kv: kv, fetcher: fetcher, inspector: inspector}
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func (f *serviceFixture) storedSnapshot(t *testing.T) Snapshot {
	t.Helper()
	raw, ok := f.kv.values["storefront:cart"]
	if !ok {
		t.Fatal("no stored snapshot")
	}
	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		t.Fatalf("decode stored snapshot: %v", err)
	}
	return snapshot
}

func TestServiceRejectsMutationsBeforeStart(t *testing.T) {
	fixture := newServiceFixture(t)

	_, err := fixture.service.Apply(context.Background(), Increment{Item: coffeeItem(1)})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict before start, got %v", err)
	}
}

func TestServiceStartInitializesFreshCart(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	if err := fixture.service.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snapshot := fixture.storedSnapshot(t)
	if snapshot.ID == "" || snapshot.Version != SnapshotVersion {
		t.Fatalf("expected persisted fresh cart, got %#v", snapshot)
	}
	if fixture.inspector.calls.Load() != 0 {
		t.Fatal("no checkout ids means no status check")
	}
}

func TestServiceStartAdoptsStoredCart(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	stored := CartState{ID: "cart-stored", LineItems: []PersistedLineItem{
		{ID: "line-1", CoreLineItem: coffeeItem(2)},
	}}
	raw, _ := json.Marshal(Snapshot{CartState: stored, Version: SnapshotVersion})
	fixture.kv.values["storefront:cart"] = string(raw)

	if err := fixture.service.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	view, err := fixture.service.View()
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.ID != "cart-stored" || view.ItemCount != 2 {
		t.Fatalf("stored cart not adopted: %#v", view)
	}
	if fixture.inspector.calls.Load() != 0 {
		t.Fatal("no checkout ids means no status check")
	}
}

func TestServiceStartDiscardsCompletedCheckout(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.inspector.discard = true
	ctx := context.Background()

	checkoutID := "chk-1"
	stored := CartState{ID: "cart-stored", CheckoutID: &checkoutID, LineItems: []PersistedLineItem{
		{ID: "line-1", CoreLineItem: coffeeItem(2)},
	}}
	raw, _ := json.Marshal(Snapshot{CartState: stored, Version: SnapshotVersion})
	fixture.kv.values["storefront:cart"] = string(raw)

	if err := fixture.service.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	view, err := fixture.service.View()
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.ID == "cart-stored" {
		t.Fatal("completed checkout must not resurrect the stored cart")
	}
	if view.ItemCount != 0 || view.CheckoutID != nil {
		t.Fatalf("expected a fresh empty cart, got %#v", view)
	}
	if fixture.inspector.calls.Load() != 1 {
		t.Fatalf("expected one status check, got %d", fixture.inspector.calls.Load())
	}
}

func TestServiceStartAdoptsOnStatusCheckFailure(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.inspector.err = errors.New("checkout backend down")
	ctx := context.Background()

	checkoutID := "chk-1"
	stored := CartState{ID: "cart-stored", CheckoutID: &checkoutID}
	raw, _ := json.Marshal(Snapshot{CartState: stored, Version: SnapshotVersion})
	fixture.kv.values["storefront:cart"] = string(raw)

	if err := fixture.service.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	view, err := fixture.service.View()
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.ID != "cart-stored" {
		t.Fatalf("an unverifiable cart must be adopted, not destroyed: %#v", view)
	}
}

func TestServiceApplyPersistsEachTransition(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	if err := fixture.service.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := fixture.service.Apply(ctx, Increment{ID: "line-1", Item: coffeeItem(2)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	snapshot := fixture.storedSnapshot(t)
	if len(snapshot.LineItems) != 1 || snapshot.LineItems[0].Quantity != 2 {
		t.Fatalf("transition not persisted: %#v", snapshot.LineItems)
	}

	if _, err := fixture.service.Apply(ctx, Decrement{Item: coffeeItem(1)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	snapshot = fixture.storedSnapshot(t)
	if snapshot.LineItems[0].Quantity != 1 {
		t.Fatalf("decrement not persisted: %#v", snapshot.LineItems)
	}
}

func TestServiceViewResolvesAfterRefresh(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	if err := fixture.service.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := fixture.service.Apply(ctx, Increment{Item: coffeeItem(3)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	waitFor(t, func() bool {
		view, err := fixture.service.View()
		if err != nil {
			t.Fatalf("View: %v", err)
		}
		return view.Status == enums.CartStatusReady
	})

	view, err := fixture.service.View()
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if !view.LineItemsSubtotalPrice.Equal(usd("104.97")) {
		t.Fatalf("expected subtotal 104.97, got %s", view.LineItemsSubtotalPrice)
	}
	if view.LineItemsSavingsPrice == nil || !view.LineItemsSavingsPrice.Equal(usd("15.00")) {
		t.Fatalf("expected savings 15.00, got %v", view.LineItemsSavingsPrice)
	}
	if !view.LineItems[0].Resolved() {
		t.Fatal("line must carry canonical data after refresh")
	}
}

func TestServiceViewErrorStatusOnFetchFailure(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.fetcher.fail = true
	ctx := context.Background()
	if err := fixture.service.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := fixture.service.Apply(ctx, Increment{Item: coffeeItem(1)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	waitFor(t, func() bool {
		view, err := fixture.service.View()
		if err != nil {
			t.Fatalf("View: %v", err)
		}
		return view.Status == enums.CartStatusError
	})
}

func TestServiceLineItemUpdateRejectsOtherActions(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	if err := fixture.service.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err := fixture.service.LineItemUpdate(ctx, Init{ID: "cart-2"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceResetStartsFreshCart(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	if err := fixture.service.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := fixture.service.Apply(ctx, Increment{Item: coffeeItem(2)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	before, err := fixture.service.View()
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	state, err := fixture.service.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if state.ID == before.ID {
		t.Fatal("reset must mint a new cart id")
	}
	if len(state.LineItems) != 0 {
		t.Fatalf("reset must empty the cart, got %#v", state.LineItems)
	}
}
