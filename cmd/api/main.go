package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kalamart/storefront-api/api/routes"
	authsvc "github.com/kalamart/storefront-api/internal/auth"
	cartsvc "github.com/kalamart/storefront-api/internal/cart"
	checkoutsvc "github.com/kalamart/storefront-api/internal/checkout"
	contactsvc "github.com/kalamart/storefront-api/internal/contact"
	couponsvc "github.com/kalamart/storefront-api/internal/coupon"
	paymentsvc "github.com/kalamart/storefront-api/internal/payment"
	tempsessionsvc "github.com/kalamart/storefront-api/internal/tempsession"
	wishlistsvc "github.com/kalamart/storefront-api/internal/wishlist"
	"github.com/kalamart/storefront-api/pkg/auth/session"
	"github.com/kalamart/storefront-api/pkg/commerce"
	"github.com/kalamart/storefront-api/pkg/config"
	"github.com/kalamart/storefront-api/pkg/env"
	"github.com/kalamart/storefront-api/pkg/logger"
	"github.com/kalamart/storefront-api/pkg/metrics"
	pkgredis "github.com/kalamart/storefront-api/pkg/redis"
	pkgstripe "github.com/kalamart/storefront-api/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	commerceClient, err := commerce.NewClient(cfg.Commerce, logg, commerce.WithMetrics(checkoutMetrics))
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap commerce client", err)
		os.Exit(1)
	}

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe client", err)
		os.Exit(1)
	}

	services, err := buildServices(cfg, logg, redisClient, sessionManager, commerceClient, stripeClient, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, sessionManager, services, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *pkgredis.Client,
	sessionManager *session.Manager,
	commerceClient *commerce.Client,
	stripeClient *pkgstripe.Client,
	checkoutMetrics *metrics.CheckoutMetrics,
) (routes.Services, error) {
	authService, err := authsvc.NewService(authsvc.ServiceParams{
		Gateway:        commerceClient,
		SessionManager: sessionManager,
		ProfileStore:   redisClient,
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	couponService, err := couponsvc.NewService(commerceClient, redisClient, checkoutMetrics, logg)
	if err != nil {
		return routes.Services{}, err
	}

	tempSessionService, err := tempsessionsvc.NewService(commerceClient, couponService, redisClient, logg)
	if err != nil {
		return routes.Services{}, err
	}

	cartService, err := cartsvc.NewService(commerceClient, tempSessionService, logg)
	if err != nil {
		return routes.Services{}, err
	}

	checkoutService, err := checkoutsvc.NewService(commerceClient, commerceClient, commerceClient, cfg.Checkout, logg)
	if err != nil {
		return routes.Services{}, err
	}

	paymentService, err := paymentsvc.NewService(
		paymentsvc.NewStripeClient(stripeClient),
		checkoutService,
		commerceClient,
		redisClient,
		cfg.Checkout,
		checkoutMetrics,
		logg,
	)
	if err != nil {
		return routes.Services{}, err
	}

	wishlistService, err := wishlistsvc.NewService(commerceClient, redisClient, logg)
	if err != nil {
		return routes.Services{}, err
	}

	contactService, err := contactsvc.NewService(commerceClient)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:        authService,
		Cart:        cartService,
		Checkout:    checkoutService,
		Payment:     paymentService,
		Coupon:      couponService,
		TempSession: tempSessionService,
		Wishlist:    wishlistService,
		Contact:     contactService,
	}, nil
}
