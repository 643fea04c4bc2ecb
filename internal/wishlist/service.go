package wishlist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kalamart/storefront-api/pkg/commerce"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
	"github.com/kalamart/storefront-api/pkg/logger"
)

type commerceGateway interface {
	GetWishlist(ctx context.Context, userID string) ([]commerce.WishlistProduct, error)
	StoreWishlist(ctx context.Context, userID string, productIDs []string) error
}

type snapshotStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	WishlistKey(userID string) string
}

// Service manages the user's saved-product list. The upstream list is
// authoritative; the redis snapshot only speeds up page loads and is
// rewritten after every change.
type Service interface {
	List(ctx context.Context, userID string) ([]commerce.WishlistProduct, error)
	Add(ctx context.Context, userID, productID string) ([]commerce.WishlistProduct, error)
	Remove(ctx context.Context, userID, productID string) ([]commerce.WishlistProduct, error)
}

type service struct {
	gateway commerceGateway
	store   snapshotStore
	logger  *logger.Logger
}

// NewService builds the wishlist service.
func NewService(gateway commerceGateway, store snapshotStore, logg *logger.Logger) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("commerce gateway required")
	}
	if store == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	return &service{gateway: gateway, store: store, logger: logg}, nil
}

// List fetches the wishlist and refreshes the snapshot.
func (s *service) List(ctx context.Context, userID string) ([]commerce.WishlistProduct, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	products, err := s.gateway.GetWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []commerce.WishlistProduct{}
	}
	s.writeSnapshot(ctx, userID, products)
	return products, nil
}

// Add saves a product and returns the refreshed list.
func (s *service) Add(ctx context.Context, userID, productID string) ([]commerce.WishlistProduct, error) {
	return s.mutate(ctx, userID, productID, true)
}

// Remove drops a product and returns the refreshed list.
func (s *service) Remove(ctx context.Context, userID, productID string) ([]commerce.WishlistProduct, error) {
	return s.mutate(ctx, userID, productID, false)
}

func (s *service) mutate(ctx context.Context, userID, productID string, add bool) ([]commerce.WishlistProduct, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	current, err := s.gateway.GetWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(current)+1)
	present := false
	for _, product := range current {
		if product.ProductID == productID {
			present = true
			if !add {
				continue
			}
		}
		ids = append(ids, product.ProductID)
	}
	if add {
		if present {
			return current, nil
		}
		ids = append(ids, productID)
	} else if !present {
		return current, nil
	}

	if err := s.gateway.StoreWishlist(ctx, userID, ids); err != nil {
		return nil, err
	}
	return s.List(ctx, userID)
}

func (s *service) writeSnapshot(ctx context.Context, userID string, products []commerce.WishlistProduct) {
	payload, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, s.store.WishlistKey(userID), string(payload), 0); err != nil {
		if s.logger != nil {
			s.logger.Warn(ctx, "wishlist snapshot write failed")
		}
	}
}
