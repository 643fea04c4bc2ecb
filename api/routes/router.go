package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kalamart/storefront-api/api/controllers"
	"github.com/kalamart/storefront-api/api/middleware"
	authsvc "github.com/kalamart/storefront-api/internal/auth"
	cartsvc "github.com/kalamart/storefront-api/internal/cart"
	checkoutsvc "github.com/kalamart/storefront-api/internal/checkout"
	contactsvc "github.com/kalamart/storefront-api/internal/contact"
	couponsvc "github.com/kalamart/storefront-api/internal/coupon"
	paymentsvc "github.com/kalamart/storefront-api/internal/payment"
	tempsessionsvc "github.com/kalamart/storefront-api/internal/tempsession"
	wishlistsvc "github.com/kalamart/storefront-api/internal/wishlist"
	"github.com/kalamart/storefront-api/pkg/auth/session"
	"github.com/kalamart/storefront-api/pkg/config"
	"github.com/kalamart/storefront-api/pkg/logger"
	pkgredis "github.com/kalamart/storefront-api/pkg/redis"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Auth        authsvc.Service
	Cart        cartsvc.Service
	Checkout    checkoutsvc.Service
	Payment     paymentsvc.Service
	Coupon      couponsvc.Service
	TempSession tempsessionsvc.Service
	Wishlist    wishlistsvc.Service
	Contact     contactsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *pkgredis.Client,
	sessions session.AccessSessionChecker,
	services Services,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, redisClient, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(services.Auth, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			middleware.Idempotency(redisClient, logg),
		).Post("/register", controllers.AuthRegister(services.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Post("/refresh", controllers.AuthRefresh(services.Auth, cfg.JWT, logg))
			r.Post("/logout", controllers.AuthLogout(services.Auth, logg))
		})
	})

	r.Post("/api/v1/contact", middleware.Idempotency(redisClient, logg)(controllers.ContactSubmit(services.Contact, logg)).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(services.Cart, logg))
			r.Post("/items", controllers.CartAdd(services.Cart, logg))
			r.Delete("/items/{productID}", controllers.CartRemove(services.Cart, logg))
			r.Post("/items/{productID}/increment", controllers.CartIncrement(services.Cart, logg))
			r.Post("/items/{productID}/decrement", controllers.CartDecrement(services.Cart, logg))
		})

		r.Route("/buy-now", func(r chi.Router) {
			r.Post("/", controllers.BuyNowCreate(services.TempSession, logg))
			r.Get("/active", controllers.BuyNowActive(services.TempSession, logg))
			r.Post("/deactivate", controllers.BuyNowDeactivate(services.TempSession, logg))
			r.Get("/{sessionID}", controllers.BuyNowFetch(services.TempSession, logg))
			r.Post("/{sessionID}/increment", controllers.BuyNowIncrement(services.TempSession, logg))
			r.Post("/{sessionID}/decrement", controllers.BuyNowDecrement(services.TempSession, logg))
		})

		r.Route("/coupon", func(r chi.Router) {
			r.Get("/", controllers.CouponCurrent(services.Coupon, logg))
			r.Post("/apply", controllers.CouponApply(services.Coupon, logg))
			r.Post("/remove", controllers.CouponRemove(services.Coupon, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/validate", controllers.CheckoutValidate(logg))
			r.Post("/quote", controllers.CheckoutQuote(services.Checkout, logg))
			r.Post("/intent", controllers.CheckoutIntent(services.Payment, logg))
			r.Post("/submit", controllers.CheckoutSubmit(services.Payment, logg))
			r.Get("/attempt", controllers.CheckoutAttempt(services.Payment, logg))
			r.Get("/confirmation", controllers.CheckoutConfirmation(services.Payment, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(services.Wishlist, logg))
			r.Post("/", controllers.WishlistAdd(services.Wishlist, logg))
			r.Delete("/{productID}", controllers.WishlistRemove(services.Wishlist, logg))
		})
	})

	return r
}
