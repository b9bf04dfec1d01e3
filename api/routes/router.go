package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verdantrow/storefront-backend/api/controllers"
	cartcontrollers "github.com/verdantrow/storefront-backend/api/controllers/cart"
	"github.com/verdantrow/storefront-backend/api/middleware"
	"github.com/verdantrow/storefront-backend/pkg/config"
	"github.com/verdantrow/storefront-backend/pkg/logger"
	"github.com/verdantrow/storefront-backend/pkg/metrics"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	CartService cartcontrollers.Service
	CartMetrics *metrics.CartMetrics
	Registry    *prometheus.Registry
	Pingers     map[string]controllers.Pinger
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.Pingers))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", cartcontrollers.CartFetch(deps.CartService, deps.Logger))
		r.Route("/line-items", func(r chi.Router) {
			r.Post("/", cartcontrollers.CartLineItemAdd(deps.CartService, deps.Logger))
			r.Patch("/", cartcontrollers.CartLineItemDecrement(deps.CartService, deps.Logger))
			r.Delete("/", cartcontrollers.CartLineItemRemove(deps.CartService, deps.Logger))
			r.Put("/", cartcontrollers.CartLineItemReplaceAll(deps.CartService, deps.Logger))
		})
		r.Put("/subscription", cartcontrollers.CartSetSubscription(deps.CartService, deps.Logger))
		r.Put("/attributes", cartcontrollers.CartSetAttributes(deps.CartService, deps.Logger))
		r.Put("/discount-code", cartcontrollers.CartSetDiscountCode(deps.CartService, deps.Logger))
		r.Post("/associate-checkout", cartcontrollers.CartAssociateCheckout(deps.CartService, deps.Logger))
		r.Post("/replace", cartcontrollers.CartReplace(deps.CartService, deps.Logger))
		r.Post("/reset", cartcontrollers.CartReset(deps.CartService, deps.Logger))
		r.Post("/checkout", cartcontrollers.CartCheckout(deps.CartService, deps.CartMetrics, deps.Logger))
	})

	return r
}
