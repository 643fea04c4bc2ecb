package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalamart/storefront-api/internal/auth"
	cartsvc "github.com/kalamart/storefront-api/internal/cart"
	checkoutsvc "github.com/kalamart/storefront-api/internal/checkout"
	contactsvc "github.com/kalamart/storefront-api/internal/contact"
	couponsvc "github.com/kalamart/storefront-api/internal/coupon"
	paymentsvc "github.com/kalamart/storefront-api/internal/payment"
	pkgAuth "github.com/kalamart/storefront-api/pkg/auth"
	"github.com/kalamart/storefront-api/pkg/auth/session"
	"github.com/kalamart/storefront-api/pkg/commerce"
	"github.com/kalamart/storefront-api/pkg/config"
	"github.com/kalamart/storefront-api/pkg/logger"
)

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "token"}, nil
}

func (stubAuthService) Register(context.Context, auth.RegisterRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "token"}, nil
}

func (stubAuthService) Refresh(context.Context, string, string) (*auth.RefreshResponse, string, error) {
	return &auth.RefreshResponse{RefreshToken: "next"}, "access-2", nil
}

func (stubAuthService) Logout(context.Context, string) error {
	return nil
}

type stubCartService struct{}

func (stubCartService) Fetch(context.Context, string) (*cartsvc.Snapshot, error) {
	return &cartsvc.Snapshot{}, nil
}

func (stubCartService) Add(context.Context, string, string, int) (*cartsvc.Snapshot, error) {
	return &cartsvc.Snapshot{}, nil
}

func (stubCartService) Remove(context.Context, string, string) (*cartsvc.Snapshot, error) {
	return &cartsvc.Snapshot{}, nil
}

func (stubCartService) Increment(context.Context, string, string) (*cartsvc.Snapshot, error) {
	return &cartsvc.Snapshot{}, nil
}

func (stubCartService) Decrement(context.Context, string, string) (*cartsvc.Snapshot, error) {
	return &cartsvc.Snapshot{}, nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) Quote(context.Context, checkoutsvc.QuoteInput) (*checkoutsvc.Quote, error) {
	return &checkoutsvc.Quote{}, nil
}

func (stubCheckoutService) ResolveItems(context.Context, string, string) ([]checkoutsvc.LineItem, error) {
	return nil, nil
}

type stubPaymentService struct{}

func (stubPaymentService) CreateIntent(context.Context, paymentsvc.CreateIntentInput) (*paymentsvc.Attempt, error) {
	return &paymentsvc.Attempt{Status: paymentsvc.StatusIntentReady}, nil
}

func (stubPaymentService) Submit(context.Context, paymentsvc.SubmitInput) (*paymentsvc.SubmitResult, error) {
	return &paymentsvc.SubmitResult{}, nil
}

func (stubPaymentService) Reconcile(context.Context, paymentsvc.ReconcileInput) (*commerce.OrderDetails, error) {
	return &commerce.OrderDetails{}, nil
}

func (stubPaymentService) Attempt(context.Context, string) (*paymentsvc.Attempt, error) {
	return &paymentsvc.Attempt{Status: paymentsvc.StatusIdle}, nil
}

type stubCouponService struct{}

func (stubCouponService) Apply(context.Context, string, string, string, float64) (*couponsvc.State, error) {
	return &couponsvc.State{}, nil
}

func (stubCouponService) Remove(context.Context, string) (*couponsvc.State, error) {
	return &couponsvc.State{}, nil
}

func (stubCouponService) Current(context.Context, string) (*couponsvc.State, error) {
	return &couponsvc.State{}, nil
}

func (stubCouponService) Clear(context.Context, string) error {
	return nil
}

type stubTempSessionService struct{}

func (stubTempSessionService) BuyNow(context.Context, string, string, int) (*commerce.TempSession, error) {
	return &commerce.TempSession{Active: true}, nil
}

func (stubTempSessionService) Fetch(context.Context, string) (*commerce.TempSession, error) {
	return &commerce.TempSession{Active: true}, nil
}

func (stubTempSessionService) Increment(context.Context, string) (*commerce.TempSession, error) {
	return &commerce.TempSession{Active: true}, nil
}

func (stubTempSessionService) Decrement(context.Context, string) (*commerce.TempSession, error) {
	return &commerce.TempSession{Active: true}, nil
}

func (stubTempSessionService) ActiveSessionID(context.Context, string) (string, error) {
	return "", nil
}

func (stubTempSessionService) DeactivateAll(context.Context, string) error {
	return nil
}

type stubWishlistService struct{}

func (stubWishlistService) List(context.Context, string) ([]commerce.WishlistProduct, error) {
	return nil, nil
}

func (stubWishlistService) Add(context.Context, string, string) ([]commerce.WishlistProduct, error) {
	return nil, nil
}

func (stubWishlistService) Remove(context.Context, string, string) ([]commerce.WishlistProduct, error) {
	return nil, nil
}

type stubContactService struct{}

func (stubContactService) Submit(context.Context, contactsvc.Submission) error {
	return nil
}

func (stubContactService) Validate(contactsvc.Submission) map[string]string {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
	}
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(
		testConfig(),
		logger.New(logger.Options{ServiceName: "test"}),
		nil,
		stubSessionChecker{},
		Services{
			Auth:        stubAuthService{},
			Cart:        stubCartService{},
			Checkout:    stubCheckoutService{},
			Payment:     stubPaymentService{},
			Coupon:      stubCouponService{},
			TempSession: stubTempSessionService{},
			Wishlist:    stubWishlistService{},
			Contact:     stubContactService{},
		},
		nil,
	)
}

func TestHealthLive(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := testRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/cart"},
		{http.MethodPost, "/api/v1/coupon/apply"},
		{http.MethodPost, "/api/v1/checkout/quote"},
		{http.MethodGet, "/api/v1/wishlist"},
		{http.MethodPost, "/api/v1/buy-now"},
	}
	for _, tt := range paths {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tt.method, tt.path, resp.Code)
		}
	}
}

func TestLoginRouteIsPublic(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.co","password":"secretpw"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAuthedCartFetch(t *testing.T) {
	router := testRouter(t)

	cfg := testConfig()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: "user-1",
		Email:  "shopper@example.com",
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success {
		t.Fatal("expected success envelope")
	}
}
