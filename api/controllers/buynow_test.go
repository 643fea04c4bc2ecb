package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kalamart/storefront-api/pkg/commerce"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
)

type stubTempSessionService struct {
	session   *commerce.TempSession
	sessionID string
	err       error

	createdProduct  string
	createdQuantity int
	deactivatedFor  string
	lastOp          string
}

func (s *stubTempSessionService) BuyNow(ctx context.Context, userID, productID string, quantity int) (*commerce.TempSession, error) {
	s.createdProduct = productID
	s.createdQuantity = quantity
	return s.session, s.err
}

func (s *stubTempSessionService) Fetch(ctx context.Context, sessionID string) (*commerce.TempSession, error) {
	s.lastOp = "fetch"
	return s.session, s.err
}

func (s *stubTempSessionService) Increment(ctx context.Context, sessionID string) (*commerce.TempSession, error) {
	s.lastOp = "increment"
	return s.session, s.err
}

func (s *stubTempSessionService) Decrement(ctx context.Context, sessionID string) (*commerce.TempSession, error) {
	s.lastOp = "decrement"
	return s.session, s.err
}

func (s *stubTempSessionService) ActiveSessionID(ctx context.Context, userID string) (string, error) {
	return s.sessionID, s.err
}

func (s *stubTempSessionService) DeactivateAll(ctx context.Context, userID string) error {
	s.deactivatedFor = userID
	return s.err
}

func TestBuyNowCreateDefaultsQuantity(t *testing.T) {
	svc := &stubTempSessionService{session: &commerce.TempSession{SessionID: "ts-1", ProductID: "p1", Active: true}}
	handler := BuyNowCreate(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/buy-now", []byte(`{"product_id":"p1"}`)))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.createdProduct != "p1" || svc.createdQuantity != 1 {
		t.Fatalf("expected p1 qty 1 got %s qty %d", svc.createdProduct, svc.createdQuantity)
	}
}

func TestBuyNowCreateRequiresSignIn(t *testing.T) {
	handler := BuyNowCreate(&stubTempSessionService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/buy-now", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestBuyNowFetchInactiveSessionConflict(t *testing.T) {
	svc := &stubTempSessionService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "checkout session is no longer active")}
	handler := BuyNowFetch(svc, nil)

	req := withURLParam(authedRequest(http.MethodGet, "/api/v1/buy-now/ts-9", nil), "sessionID", "ts-9")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestBuyNowAdjustDispatch(t *testing.T) {
	svc := &stubTempSessionService{session: &commerce.TempSession{SessionID: "ts-1", Quantity: 2, Active: true}}

	req := withURLParam(authedRequest(http.MethodPost, "/api/v1/buy-now/ts-1/increment", nil), "sessionID", "ts-1")
	resp := httptest.NewRecorder()
	BuyNowIncrement(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || svc.lastOp != "increment" {
		t.Fatalf("expected increment, got %d op %q", resp.Code, svc.lastOp)
	}

	req = withURLParam(authedRequest(http.MethodPost, "/api/v1/buy-now/ts-1/decrement", nil), "sessionID", "ts-1")
	resp = httptest.NewRecorder()
	BuyNowDecrement(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || svc.lastOp != "decrement" {
		t.Fatalf("expected decrement, got %d op %q", resp.Code, svc.lastOp)
	}
}

func TestBuyNowDeactivateUsesAuthenticatedUser(t *testing.T) {
	svc := &stubTempSessionService{}
	handler := BuyNowDeactivate(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/buy-now/deactivate", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.deactivatedFor != "user-1" {
		t.Fatalf("expected deactivation for user-1 got %q", svc.deactivatedFor)
	}
}

func TestBuyNowActiveReturnsSessionID(t *testing.T) {
	svc := &stubTempSessionService{sessionID: "ts-4"}
	handler := BuyNowActive(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/buy-now/active", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["session_id"] != "ts-4" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}
