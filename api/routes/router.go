package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aurevo/storefront/api/controllers"
	cartcontrollers "github.com/aurevo/storefront/api/controllers/cart"
	checkoutcontrollers "github.com/aurevo/storefront/api/controllers/checkout"
	ordercontrollers "github.com/aurevo/storefront/api/controllers/orders"
	"github.com/aurevo/storefront/api/middleware"
	"github.com/aurevo/storefront/internal/catalog"
	"github.com/aurevo/storefront/internal/orders"
	"github.com/aurevo/storefront/pkg/config"
	"github.com/aurevo/storefront/pkg/logger"
)

// Deps are the services the HTTP surface is built on. Ready entries that are
// nil are left out of the readiness probe.
type Deps struct {
	Sessions middleware.SessionSource
	Catalog  catalog.Lookup
	Orders   ordercontrollers.Reader
	Receipt  orders.Receipt
	Ready    controllers.ReadyDeps
	Gatherer prometheus.Gatherer
	Now      func() time.Time
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Ready))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.CatalogList(deps.Catalog))
			r.Get("/{productID}", controllers.CatalogProduct(deps.Catalog, logg))
		})
		r.Get("/pages/{page}", controllers.CatalogPage(deps.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(deps.Sessions, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(logg))
				r.Delete("/", cartcontrollers.CartClear(logg))
				r.Post("/items", cartcontrollers.CartAddItem(deps.Catalog, logg))
				r.Patch("/items", cartcontrollers.CartSetQuantity(logg))
				r.Delete("/items", cartcontrollers.CartRemoveItem(logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", checkoutcontrollers.CheckoutSubmit(logg))
				r.Post("/pin", checkoutcontrollers.CheckoutPin(logg))
				r.Post("/validate", checkoutcontrollers.CheckoutValidate(logg))
				r.Post("/terms", checkoutcontrollers.CheckoutAcceptTerms(logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.NotificationsView(logg))
				r.Delete("/", controllers.NotificationsDrain(logg))
				r.Delete("/{notificationID}", controllers.NotificationDismiss(logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.ListOrders(deps.Orders, logg))
				r.Get("/export.csv", ordercontrollers.ExportOrders(deps.Orders, deps.Now, logg))
				r.Get("/{orderID}", ordercontrollers.OrderDetail(deps.Orders, logg))
				r.Get("/{orderID}/receipt", ordercontrollers.OrderReceipt(deps.Orders, deps.Receipt, logg))
			})
		})
	})

	return r
}
