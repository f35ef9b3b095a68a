package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

type storageHealth interface {
	Ping(ctx context.Context) error
	BreakerOpen() bool
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	registry *prometheus.Registry,
	storage storageHealth,
	cartManager *cart.Manager,
	products *catalog.Catalog,
	checkoutService checkout.Service,
) http.Handler {
	if logg == nil {
		logg = logger.Nop()
	}
	flatTax := cfg.Cart.FlatTax

	var httpMetrics *metrics.HTTPMetrics
	if registry != nil {
		httpMetrics = metrics.NewHTTPMetrics(registry)
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, cartManager, storage))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(products, logg))
			r.Get("/{productId}", controllers.ProductsGet(products, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cartManager, flatTax))
			r.Delete("/", controllers.CartClear(cartManager, flatTax))
			r.Get("/totals", controllers.CartTotals(cartManager, logg))
			r.Post("/items", controllers.CartAddItem(cartManager, products, flatTax, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(cartManager, flatTax, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(cartManager, flatTax, logg))
		})

		r.Post("/checkout", controllers.Checkout(checkoutService, logg))
	})

	return r
}
