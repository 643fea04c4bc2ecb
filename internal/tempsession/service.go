package tempsession

import (
	"context"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/kalamart/storefront-api/pkg/commerce"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
	"github.com/kalamart/storefront-api/pkg/logger"
)

// buyNowPointerTTL bounds how long a stale session pointer can linger when
// teardown never runs (for example an abandoned tab).
const buyNowPointerTTL = 24 * time.Hour

type commerceGateway interface {
	CreateTempSession(ctx context.Context, userID, productID string, quantity int) (*commerce.TempSession, error)
	GetTempSession(ctx context.Context, sessionID string) (*commerce.TempSession, error)
	UpdateTempSessionQuantity(ctx context.Context, sessionID string, quantity int) (*commerce.TempSession, error)
	DeactivateTempSessions(ctx context.Context, userID string) error
}

type couponClearer interface {
	Clear(ctx context.Context, userID string) error
}

type pointerStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	BuyNowKey(userID string) string
}

// Service manages the ephemeral single-product buy-now session. At most one
// session pointer exists per user; starting a new one replaces the old.
type Service interface {
	BuyNow(ctx context.Context, userID, productID string, quantity int) (*commerce.TempSession, error)
	Fetch(ctx context.Context, sessionID string) (*commerce.TempSession, error)
	Increment(ctx context.Context, sessionID string) (*commerce.TempSession, error)
	Decrement(ctx context.Context, sessionID string) (*commerce.TempSession, error)
	ActiveSessionID(ctx context.Context, userID string) (string, error)
	DeactivateAll(ctx context.Context, userID string) error
}

type service struct {
	gateway commerceGateway
	coupons couponClearer
	store   pointerStore
	logger  *logger.Logger
}

// NewService builds the buy-now session service.
func NewService(gateway commerceGateway, coupons couponClearer, store pointerStore, logg *logger.Logger) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("commerce gateway required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon clearer required")
	}
	if store == nil {
		return nil, fmt.Errorf("pointer store required")
	}
	return &service{gateway: gateway, coupons: coupons, store: store, logger: logg}, nil
}

// BuyNow opens a fresh single-product checkout session. Any applied coupon
// is cleared first: buy-now sessions never inherit cart coupons.
func (s *service) BuyNow(ctx context.Context, userID, productID string, quantity int) (*commerce.TempSession, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to buy now")
	}
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity <= 0 {
		quantity = 1
	}

	if err := s.coupons.Clear(ctx, userID); err != nil {
		if s.logger != nil {
			s.logger.Warn(ctx, "coupon clear failed before buy-now")
		}
	}

	session, err := s.gateway.CreateTempSession(ctx, userID, productID, quantity)
	if err != nil {
		return nil, err
	}

	if err := s.store.Set(ctx, s.store.BuyNowKey(userID), session.SessionID, buyNowPointerTTL); err != nil {
		if s.logger != nil {
			s.logger.Warn(ctx, "buy-now pointer write failed")
		}
	}
	return session, nil
}

// Fetch loads a session by id.
func (s *service) Fetch(ctx context.Context, sessionID string) (*commerce.TempSession, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return s.gateway.GetTempSession(ctx, sessionID)
}

// Increment raises the session quantity by one and refetches.
func (s *service) Increment(ctx context.Context, sessionID string) (*commerce.TempSession, error) {
	return s.adjust(ctx, sessionID, 1)
}

// Decrement lowers the session quantity by one with a floor of 1.
func (s *service) Decrement(ctx context.Context, sessionID string) (*commerce.TempSession, error) {
	return s.adjust(ctx, sessionID, -1)
}

func (s *service) adjust(ctx context.Context, sessionID string, delta int) (*commerce.TempSession, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	session, err := s.gateway.GetTempSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Active {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout session is no longer active")
	}

	next := session.Quantity + delta
	if next < 1 {
		next = 1
	}
	if next == session.Quantity {
		return session, nil
	}

	if _, err := s.gateway.UpdateTempSessionQuantity(ctx, sessionID, next); err != nil {
		return nil, err
	}
	return s.gateway.GetTempSession(ctx, sessionID)
}

// ActiveSessionID returns the user's current session pointer, or empty when
// none is recorded.
func (s *service) ActiveSessionID(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	sessionID, err := s.store.Get(ctx, s.store.BuyNowKey(userID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read buy-now pointer")
	}
	return sessionID, nil
}

// DeactivateAll tears down the user's buy-now sessions when checkout is
// abandoned. The upstream call is sent user-scoped; it must never deactivate
// other users' sessions. The pointer delete runs even when the upstream call
// fails so a retry starts clean.
func (s *service) DeactivateAll(ctx context.Context, userID string) error {
	if userID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var errs error
	if err := s.gateway.DeactivateTempSessions(ctx, userID); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := s.store.Del(ctx, s.store.BuyNowKey(userID)); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("delete buy-now pointer: %w", err))
	}
	return errs
}
