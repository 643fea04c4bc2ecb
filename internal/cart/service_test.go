package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kalamart/storefront-api/pkg/commerce"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
)

type stubGateway struct {
	cart     *commerce.Cart
	getErr   error
	addCalls int
	updates  []int
	removed  []string
}

func (s *stubGateway) GetCart(ctx context.Context, userID string) (*commerce.Cart, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.cart, nil
}

func (s *stubGateway) AddToCart(ctx context.Context, userID, productID string, quantity int) (*commerce.Cart, error) {
	s.addCalls++
	return s.cart, nil
}

func (s *stubGateway) RemoveFromCart(ctx context.Context, userID, productID string) (*commerce.Cart, error) {
	s.removed = append(s.removed, productID)
	return s.cart, nil
}

func (s *stubGateway) UpdateCartQuantity(ctx context.Context, userID, productID string, quantity int) (*commerce.Cart, error) {
	s.updates = append(s.updates, quantity)
	return s.cart, nil
}

type stubDeactivator struct {
	calls int
	err   error
}

func (s *stubDeactivator) DeactivateAll(ctx context.Context, userID string) error {
	s.calls++
	return s.err
}

func cartWith(items ...commerce.CartItem) *commerce.Cart {
	return &commerce.Cart{Items: items}
}

func TestFetchFailsOpenToEmptyCart(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{getErr: errors.New("boom")}
	svc, err := NewService(gateway, &stubDeactivator{}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	snap, err := svc.Fetch(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(snap.Items) != 0 || !snap.Subtotal.IsZero() {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestFetchComputesSubtotal(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{cart: cartWith(
		commerce.CartItem{ProductID: "p1", Price: 500, Quantity: 1},
		commerce.CartItem{ProductID: "p2", Price: 12.5, Quantity: 2},
	)}
	svc, _ := NewService(gateway, &stubDeactivator{}, nil)

	snap, err := svc.Fetch(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !snap.Subtotal.Equal(decimal.NewFromFloat(525)) {
		t.Fatalf("unexpected subtotal %s", snap.Subtotal)
	}
}

func TestAddDeactivatesBuyNowSessionsFirst(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{cart: cartWith(commerce.CartItem{ProductID: "p1", Price: 500, Quantity: 1})}
	deactivator := &stubDeactivator{}
	svc, _ := NewService(gateway, deactivator, nil)

	snap, err := svc.Add(context.Background(), "user_1", "p1", 0)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if deactivator.calls != 1 {
		t.Fatalf("expected one deactivation call, got %d", deactivator.calls)
	}
	if gateway.addCalls != 1 {
		t.Fatalf("expected one add call, got %d", gateway.addCalls)
	}
	if len(snap.Items) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestAddContinuesWhenDeactivationFails(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{cart: cartWith(commerce.CartItem{ProductID: "p1", Price: 10, Quantity: 1})}
	deactivator := &stubDeactivator{err: errors.New("boom")}
	svc, _ := NewService(gateway, deactivator, nil)

	if _, err := svc.Add(context.Background(), "user_1", "p1", 1); err != nil {
		t.Fatalf("add should tolerate deactivation failure: %v", err)
	}
	if gateway.addCalls != 1 {
		t.Fatalf("expected add to proceed, got %d calls", gateway.addCalls)
	}
}

func TestDecrementAtQuantityOneRemovesLine(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{cart: cartWith(commerce.CartItem{ProductID: "p1", Price: 10, Quantity: 1})}
	svc, _ := NewService(gateway, &stubDeactivator{}, nil)

	if _, err := svc.Decrement(context.Background(), "user_1", "p1"); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if len(gateway.removed) != 1 || gateway.removed[0] != "p1" {
		t.Fatalf("expected removal, got %v", gateway.removed)
	}
	if len(gateway.updates) != 0 {
		t.Fatalf("expected no quantity update, got %v", gateway.updates)
	}
}

func TestDecrementAboveOneUpdatesQuantity(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{cart: cartWith(commerce.CartItem{ProductID: "p1", Price: 10, Quantity: 3})}
	svc, _ := NewService(gateway, &stubDeactivator{}, nil)

	if _, err := svc.Decrement(context.Background(), "user_1", "p1"); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if len(gateway.updates) != 1 || gateway.updates[0] != 2 {
		t.Fatalf("expected update to 2, got %v", gateway.updates)
	}
	if len(gateway.removed) != 0 {
		t.Fatalf("unexpected removal %v", gateway.removed)
	}
}

func TestIncrementUpdatesQuantity(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{cart: cartWith(commerce.CartItem{ProductID: "p1", Price: 10, Quantity: 2})}
	svc, _ := NewService(gateway, &stubDeactivator{}, nil)

	if _, err := svc.Increment(context.Background(), "user_1", "p1"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if len(gateway.updates) != 1 || gateway.updates[0] != 3 {
		t.Fatalf("expected update to 3, got %v", gateway.updates)
	}
}

func TestAdjustUnknownProductNotFound(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{cart: cartWith(commerce.CartItem{ProductID: "p1", Price: 10, Quantity: 2})}
	svc, _ := NewService(gateway, &stubDeactivator{}, nil)

	_, err := svc.Increment(context.Background(), "user_1", "missing")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
