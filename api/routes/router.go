package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopcanvas/backend/api/controllers"
	"github.com/shopcanvas/backend/api/middleware"
	internalauth "github.com/shopcanvas/backend/internal/auth"
	"github.com/shopcanvas/backend/internal/cart"
	checkoutsvc "github.com/shopcanvas/backend/internal/checkout"
	"github.com/shopcanvas/backend/internal/notifications"
	"github.com/shopcanvas/backend/internal/orders"
	"github.com/shopcanvas/backend/internal/products"
	"github.com/shopcanvas/backend/internal/stores"
	"github.com/shopcanvas/backend/pkg/config"
	"github.com/shopcanvas/backend/pkg/logger"
)

// NewRouter assembles the full HTTP surface: public catalog, session cart,
// checkout, shopper orders, and the merchant dashboard.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	cacheP controllers.Pinger,
	gatherer prometheus.Gatherer,
	authService internalauth.Service,
	storesRepo stores.Repository,
	productService products.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(dbP, cacheP, logg))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.Register(authService, logg))
			r.Post("/login", controllers.Login(authService, logg))
		})

		// Public storefront catalog, keyed by store slug.
		r.Route("/stores/{storeSlug}/products", func(r chi.Router) {
			r.Get("/", controllers.StoreCatalog(storesRepo, productService, logg))
			r.Get("/{productId}", controllers.GetProduct(productService, logg))
		})

		// Cart is session-scoped: any request carrying X-Session-Id may
		// mutate its own cart, authenticated or not.
		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.Session(logg))
			r.Get("/", controllers.GetCart(cartService, logg))
			r.Post("/items", controllers.AddToCart(cartService, logg))
			r.Put("/items/{productId}", controllers.UpdateCartItem(cartService, logg))
			r.Delete("/items/{productId}", controllers.RemoveCartItem(cartService, logg))
			r.Delete("/", controllers.ClearCart(cartService, logg))
		})

		// Checkout needs both the session cart and an authenticated shopper.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(logg))
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Post("/checkout", controllers.SubmitCheckout(checkoutService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderId}", controllers.GetOrder(ordersService, logg))
		})

		r.Route("/merchant", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireStoreContext(logg))
			r.Use(middleware.RequireOrderManager(logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListMerchantProducts(productService, logg))
				r.Post("/", controllers.CreateProduct(productService, logg))
				r.Patch("/{productId}", controllers.UpdateProduct(productService, logg))
				r.Delete("/{productId}", controllers.DeleteProduct(productService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListMerchantOrders(ordersService, logg))
				r.Get("/{orderId}", controllers.GetMerchantOrder(ordersService, logg))
				r.Post("/{orderId}/status", controllers.UpdateOrderStatus(ordersService, logg))
				r.Delete("/{orderId}", controllers.DeleteOrder(ordersService, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(notificationsService, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			})
		})
	})

	return r
}
