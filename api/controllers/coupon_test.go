package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	couponsvc "github.com/kalamart/storefront-api/internal/coupon"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
)

type stubCouponService struct {
	state *couponsvc.State
	err   error

	appliedCode  string
	appliedEmail string
	subtotal     float64
}

func (s *stubCouponService) Apply(ctx context.Context, userID, email, code string, subtotal float64) (*couponsvc.State, error) {
	s.appliedCode = code
	s.appliedEmail = email
	s.subtotal = subtotal
	return s.state, s.err
}

func (s *stubCouponService) Remove(ctx context.Context, userID string) (*couponsvc.State, error) {
	return s.state, s.err
}

func (s *stubCouponService) Current(ctx context.Context, userID string) (*couponsvc.State, error) {
	return s.state, s.err
}

func (s *stubCouponService) Clear(ctx context.Context, userID string) error {
	return s.err
}

func TestCouponApplyForwardsCodeAndSubtotal(t *testing.T) {
	svc := &stubCouponService{state: &couponsvc.State{Code: "WELCOME", DiscountRate: 0.2, Applied: true}}
	handler := CouponApply(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/coupon/apply", []byte(`{"code":"WELCOME","subtotal":500}`)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.appliedCode != "WELCOME" || svc.subtotal != 500 {
		t.Fatalf("expected WELCOME at 500 got %s at %v", svc.appliedCode, svc.subtotal)
	}
	if svc.appliedEmail != "shopper@example.com" {
		t.Fatalf("expected email from context got %q", svc.appliedEmail)
	}

	var envelope struct {
		Data couponsvc.State `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Applied || envelope.Data.DiscountRate != 0.2 {
		t.Fatalf("unexpected state %+v", envelope.Data)
	}
}

func TestCouponApplyRejectionSurfacesUpstreamMessage(t *testing.T) {
	svc := &stubCouponService{err: pkgerrors.New(pkgerrors.CodeValidation, "Invalid coupon code")}
	handler := CouponApply(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/coupon/apply", []byte(`{"code":"BOGUS","subtotal":500}`)))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Message != "Invalid coupon code" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestCouponCurrentReturnsEmptyState(t *testing.T) {
	svc := &stubCouponService{state: &couponsvc.State{}}
	handler := CouponCurrent(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/coupon", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data couponsvc.State `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Applied {
		t.Fatalf("expected nothing applied got %+v", envelope.Data)
	}
}
