package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/multierr"

	pkgerrors "github.com/verdantrow/storefront-backend/pkg/errors"
)

// Status is the completion state of one checkout. A non-nil CompletedAt means
// the checkout already went through.
type Status struct {
	ID          string     `json:"id"`
	CompletedAt *time.Time `json:"completedAt"`
}

// StatusClient queries one checkout backend for a checkout's status. A nil
// result with a nil error means the backend has no record of the checkout.
type StatusClient interface {
	Status(ctx context.Context, checkoutID string) (*Status, error)
}

// Inspector decides whether a restored cart snapshot must be discarded by
// querying the backends its checkout ids belong to. The platform and
// subscription backends are independent; whichever ids are present are
// queried concurrently.
type Inspector struct {
	platform     StatusClient
	subscription StatusClient
}

// NewInspector builds an inspector over the two checkout backends.
func NewInspector(platform, subscription StatusClient) (*Inspector, error) {
	if platform == nil {
		return nil, fmt.Errorf("platform status client required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("subscription status client required")
	}
	return &Inspector{platform: platform, subscription: subscription}, nil
}

// ShouldDiscard reports whether any referenced checkout is completed or
// unexpectedly missing. Query failures are combined and returned; the caller
// decides what a cart with unverifiable status means.
func (i *Inspector) ShouldDiscard(ctx context.Context, checkoutID, rCheckoutID *string) (bool, error) {
	type lookup struct {
		client StatusClient
		id     string
	}
	lookups := make([]lookup, 0, 2)
	if checkoutID != nil && *checkoutID != "" {
		lookups = append(lookups, lookup{client: i.platform, id: *checkoutID})
	}
	if rCheckoutID != nil && *rCheckoutID != "" {
		lookups = append(lookups, lookup{client: i.subscription, id: *rCheckoutID})
	}
	if len(lookups) == 0 {
		return false, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		combined error
		discard  bool
	)
	for _, l := range lookups {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := l.client.Status(ctx, l.id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				combined = multierr.Append(combined, err)
				return
			}
			if status == nil || status.CompletedAt != nil {
				discard = true
			}
		}()
	}
	wg.Wait()

	if combined != nil {
		return false, combined
	}
	return discard, nil
}

// HTTPStatusClient queries a checkout backend over its REST status endpoint.
type HTTPStatusClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStatusClient builds a status client for the backend at baseURL.
func NewHTTPStatusClient(baseURL string, timeout time.Duration) (*HTTPStatusClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("checkout base url required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid checkout base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPStatusClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Status fetches the checkout's completion state. A 404 means the backend has
// no record of the checkout and is reported as a nil status.
func (c *HTTPStatusClient) Status(ctx context.Context, checkoutID string) (*Status, error) {
	endpoint := fmt.Sprintf("%s/checkouts/%s", c.baseURL, url.PathEscape(checkoutID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build checkout status request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query checkout status")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, pkgerrors.New(
			pkgerrors.CodeDependency,
			fmt.Sprintf("checkout status query returned %d", resp.StatusCode),
		)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout status")
	}
	return &status, nil
}
