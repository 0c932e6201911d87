package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harvestconnect/harvestcart/api/controllers"
	cartcontrollers "github.com/harvestconnect/harvestcart/api/controllers/cart"
	checkoutcontrollers "github.com/harvestconnect/harvestcart/api/controllers/checkout"
	"github.com/harvestconnect/harvestcart/api/middleware"
	"github.com/harvestconnect/harvestcart/pkg/config"
	"github.com/harvestconnect/harvestcart/pkg/logger"
	pkgredis "github.com/harvestconnect/harvestcart/pkg/redis"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Sessions    cartcontrollers.SessionOpener
	Backend     controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.Origins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Backend))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CartSession(logg, cfg.App.IsProd()))
		if deps.Idempotency != nil {
			r.Use(middleware.Idempotency(deps.Idempotency, logg))
		}

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(deps.Sessions, logg))
			r.Delete("/", cartcontrollers.CartClear(deps.Sessions, logg))
			r.Post("/items", cartcontrollers.CartAddItem(deps.Sessions, logg))
			r.Patch("/items/{id}", cartcontrollers.CartUpdateQuantity(deps.Sessions, logg))
			r.Delete("/items/{id}", cartcontrollers.CartRemoveItem(deps.Sessions, logg))
		})

		r.Post("/checkout", checkoutcontrollers.CheckoutCreate(deps.Sessions, cfg.Checkout, logg))
		r.Post("/checkout/success", checkoutcontrollers.CheckoutSuccess(deps.Sessions, logg))
	})

	return r
}
