package checkout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubStatusClient struct {
	statuses map[string]*Status
	err      error
	calls    int
}

func (s *stubStatusClient) Status(_ context.Context, checkoutID string) (*Status, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.statuses[checkoutID], nil
}

func strPtr(s string) *string { return &s }

func TestInspectorOpenCheckoutIsKept(t *testing.T) {
	platform := &stubStatusClient{statuses: map[string]*Status{
		"chk-1": {ID: "chk-1"},
	}}
	inspector, err := NewInspector(platform, &stubStatusClient{})
	if err != nil {
		t.Fatalf("NewInspector: %v", err)
	}

	discard, err := inspector.ShouldDiscard(context.Background(), strPtr("chk-1"), nil)
	if err != nil {
		t.Fatalf("ShouldDiscard: %v", err)
	}
	if discard {
		t.Fatal("an open checkout must not discard the cart")
	}
	if platform.calls != 1 {
		t.Fatalf("expected one platform query, got %d", platform.calls)
	}
}

func TestInspectorCompletedCheckoutDiscards(t *testing.T) {
	completed := time.Now()
	platform := &stubStatusClient{statuses: map[string]*Status{
		"chk-1": {ID: "chk-1", CompletedAt: &completed},
	}}
	inspector, err := NewInspector(platform, &stubStatusClient{})
	if err != nil {
		t.Fatalf("NewInspector: %v", err)
	}

	discard, err := inspector.ShouldDiscard(context.Background(), strPtr("chk-1"), nil)
	if err != nil {
		t.Fatalf("ShouldDiscard: %v", err)
	}
	if !discard {
		t.Fatal("a completed checkout must discard the cart")
	}
}

func TestInspectorMissingCheckoutDiscards(t *testing.T) {
	inspector, err := NewInspector(&stubStatusClient{}, &stubStatusClient{})
	if err != nil {
		t.Fatalf("NewInspector: %v", err)
	}

	discard, err := inspector.ShouldDiscard(context.Background(), strPtr("chk-unknown"), nil)
	if err != nil {
		t.Fatalf("ShouldDiscard: %v", err)
	}
	if !discard {
		t.Fatal("a checkout the backend has no record of must discard the cart")
	}
}

func TestInspectorQueriesBothBackends(t *testing.T) {
	completed := time.Now()
	platform := &stubStatusClient{statuses: map[string]*Status{
		"chk-1": {ID: "chk-1"},
	}}
	subscription := &stubStatusClient{statuses: map[string]*Status{
		"rchk-1": {ID: "rchk-1", CompletedAt: &completed},
	}}
	inspector, err := NewInspector(platform, subscription)
	if err != nil {
		t.Fatalf("NewInspector: %v", err)
	}

	discard, err := inspector.ShouldDiscard(context.Background(), strPtr("chk-1"), strPtr("rchk-1"))
	if err != nil {
		t.Fatalf("ShouldDiscard: %v", err)
	}
	if !discard {
		t.Fatal("completion in either backend must discard the cart")
	}
	if platform.calls != 1 || subscription.calls != 1 {
		t.Fatalf("expected one query per backend, got %d/%d", platform.calls, subscription.calls)
	}
}

func TestInspectorNoIDs(t *testing.T) {
	platform := &stubStatusClient{}
	inspector, err := NewInspector(platform, &stubStatusClient{})
	if err != nil {
		t.Fatalf("NewInspector: %v", err)
	}

	discard, err := inspector.ShouldDiscard(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("ShouldDiscard: %v", err)
	}
	if discard || platform.calls != 0 {
		t.Fatal("no referenced checkout means nothing to query")
	}
}

func TestInspectorSurfacesQueryFailure(t *testing.T) {
	platform := &stubStatusClient{err: errors.New("backend down")}
	inspector, err := NewInspector(platform, &stubStatusClient{})
	if err != nil {
		t.Fatalf("NewInspector: %v", err)
	}

	discard, err := inspector.ShouldDiscard(context.Background(), strPtr("chk-1"), nil)
	if err == nil {
		t.Fatal("expected the query failure to surface")
	}
	if discard {
		t.Fatal("an unverifiable checkout must not report discard")
	}
}

func TestHTTPStatusClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/checkouts/chk-1":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"chk-1","completedAt":"2026-08-30T12:00:00Z"}`))
		case "/checkouts/chk-missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client, err := NewHTTPStatusClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewHTTPStatusClient: %v", err)
	}
	ctx := context.Background()

	status, err := client.Status(ctx, "chk-1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status == nil || status.ID != "chk-1" || status.CompletedAt == nil {
		t.Fatalf("unexpected status: %#v", status)
	}

	status, err = client.Status(ctx, "chk-missing")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status != nil {
		t.Fatalf("404 means no record, got %#v", status)
	}

	if _, err := client.Status(ctx, "chk-err"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
