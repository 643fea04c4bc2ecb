package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kalamart/storefront-api/pkg/commerce"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
	"github.com/kalamart/storefront-api/pkg/logger"
)

type commerceGateway interface {
	GetCart(ctx context.Context, userID string) (*commerce.Cart, error)
	AddToCart(ctx context.Context, userID, productID string, quantity int) (*commerce.Cart, error)
	RemoveFromCart(ctx context.Context, userID, productID string) (*commerce.Cart, error)
	UpdateCartQuantity(ctx context.Context, userID, productID string, quantity int) (*commerce.Cart, error)
}

type sessionDeactivator interface {
	DeactivateAll(ctx context.Context, userID string) error
}

// Snapshot is the cart state returned after every operation. It is always a
// fresh fetch; no mutation result is trusted without a re-read.
type Snapshot struct {
	Items    []commerce.CartItem
	Subtotal decimal.Decimal
}

// Service exposes the persistent cart. Every mutation runs against the
// upstream and then refetches the full cart, so the returned snapshot always
// reflects what the upstream holds.
type Service interface {
	Fetch(ctx context.Context, userID string) (*Snapshot, error)
	Add(ctx context.Context, userID, productID string, quantity int) (*Snapshot, error)
	Remove(ctx context.Context, userID, productID string) (*Snapshot, error)
	Increment(ctx context.Context, userID, productID string) (*Snapshot, error)
	Decrement(ctx context.Context, userID, productID string) (*Snapshot, error)
}

type service struct {
	gateway  commerceGateway
	sessions sessionDeactivator
	logger   *logger.Logger
}

// NewService builds the cart service backed by the upstream gateway.
func NewService(gateway commerceGateway, sessions sessionDeactivator, logg *logger.Logger) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("commerce gateway required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session deactivator required")
	}
	return &service{gateway: gateway, sessions: sessions, logger: logg}, nil
}

// Fetch returns the current cart. A fetch failure degrades to an empty cart
// rather than serving stale items.
func (s *service) Fetch(ctx context.Context, userID string) (*Snapshot, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.gateway.GetCart(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn(ctx, "cart fetch failed, serving empty cart")
		}
		return &Snapshot{Items: []commerce.CartItem{}, Subtotal: decimal.Zero}, nil
	}
	return snapshotOf(cart), nil
}

// Add puts quantity units of a product in the cart. Any active buy-now
// session is deactivated first so the two flows never coexist.
func (s *service) Add(ctx context.Context, userID, productID string, quantity int) (*Snapshot, error) {
	if err := validateRef(userID, productID); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		quantity = 1
	}

	if err := s.sessions.DeactivateAll(ctx, userID); err != nil {
		// Not fatal for the add itself; the stale session is rejected at
		// quote time anyway.
		if s.logger != nil {
			s.logger.Warn(ctx, "buy-now session deactivation failed before cart add")
		}
	}

	if _, err := s.gateway.AddToCart(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}
	return s.refetch(ctx, userID)
}

// Remove drops a product line from the cart.
func (s *service) Remove(ctx context.Context, userID, productID string) (*Snapshot, error) {
	if err := validateRef(userID, productID); err != nil {
		return nil, err
	}
	if _, err := s.gateway.RemoveFromCart(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.refetch(ctx, userID)
}

// Increment raises a line's quantity by one.
func (s *service) Increment(ctx context.Context, userID, productID string) (*Snapshot, error) {
	return s.adjust(ctx, userID, productID, 1)
}

// Decrement lowers a line's quantity by one. A line at quantity 1 is removed
// outright; quantities never reach zero while the line exists.
func (s *service) Decrement(ctx context.Context, userID, productID string) (*Snapshot, error) {
	return s.adjust(ctx, userID, productID, -1)
}

func (s *service) adjust(ctx context.Context, userID, productID string, delta int) (*Snapshot, error) {
	if err := validateRef(userID, productID); err != nil {
		return nil, err
	}

	cart, err := s.gateway.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	current, found := 0, false
	for _, item := range cart.Items {
		if item.ProductID == productID {
			current, found = item.Quantity, true
			break
		}
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}

	next := current + delta
	if next < 1 {
		if _, err := s.gateway.RemoveFromCart(ctx, userID, productID); err != nil {
			return nil, err
		}
		return s.refetch(ctx, userID)
	}

	if _, err := s.gateway.UpdateCartQuantity(ctx, userID, productID, next); err != nil {
		return nil, err
	}
	return s.refetch(ctx, userID)
}

func (s *service) refetch(ctx context.Context, userID string) (*Snapshot, error) {
	cart, err := s.gateway.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return snapshotOf(cart), nil
}

func snapshotOf(cart *commerce.Cart) *Snapshot {
	items := cart.Items
	if items == nil {
		items = []commerce.CartItem{}
	}
	subtotal := decimal.Zero
	for _, item := range items {
		price := decimal.NewFromFloat(item.Price)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return &Snapshot{Items: items, Subtotal: subtotal}
}

func validateRef(userID, productID string) error {
	if userID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return nil
}
