package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/kalamart/storefront-api/pkg/commerce"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
	"github.com/kalamart/storefront-api/pkg/logger"
	"github.com/kalamart/storefront-api/pkg/metrics"
)

type commerceGateway interface {
	ApplyCoupon(ctx context.Context, req commerce.ApplyCouponRequest) (*commerce.Coupon, error)
	RemoveCoupon(ctx context.Context, code, userID string) error
	GetTemporaryCoupon(ctx context.Context, userID string) (*commerce.Coupon, error)
}

type snapshotStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CouponKey(userID string) string
}

// State is the coupon status reflected back to the storefront. The discount
// rate is always upstream-asserted; this layer never invents one.
type State struct {
	Code         string  `json:"code,omitempty"`
	DiscountRate float64 `json:"discount_rate"`
	Applied      bool    `json:"applied"`
}

// Service tracks the at-most-one applied coupon per user.
type Service interface {
	Apply(ctx context.Context, userID, email, code string, subtotal float64) (*State, error)
	Remove(ctx context.Context, userID string) (*State, error)
	Current(ctx context.Context, userID string) (*State, error)
	Clear(ctx context.Context, userID string) error
}

type service struct {
	gateway commerceGateway
	store   snapshotStore
	metrics *metrics.CheckoutMetrics
	logger  *logger.Logger
}

// NewService builds the coupon service.
func NewService(gateway commerceGateway, store snapshotStore, m *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("commerce gateway required")
	}
	if store == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	return &service{gateway: gateway, store: store, metrics: m, logger: logg}, nil
}

// Apply submits the code upstream. A rejected code surfaces the upstream
// message and leaves no coupon applied.
func (s *service) Apply(ctx context.Context, userID, email, code string, subtotal float64) (*State, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if subtotal < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must be non-negative")
	}

	applied, err := s.gateway.ApplyCoupon(ctx, commerce.ApplyCouponRequest{
		Code:      code,
		SubTotal:  subtotal,
		UserID:    userID,
		UserEmail: email,
	})
	if err != nil {
		s.metrics.IncCouponOutcome("rejected")
		s.clearSnapshot(ctx, userID)
		return nil, err
	}

	state := &State{Code: applied.Code, DiscountRate: applied.DiscountRate, Applied: true}
	s.writeSnapshot(ctx, userID, state)
	s.metrics.IncCouponOutcome("applied")
	return state, nil
}

// Remove clears the applied coupon and resets the rate to zero.
func (s *service) Remove(ctx context.Context, userID string) (*State, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	current, err := s.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current.Applied {
		if err := s.gateway.RemoveCoupon(ctx, current.Code, userID); err != nil {
			return nil, err
		}
	}

	s.clearSnapshot(ctx, userID)
	return &State{}, nil
}

// Current returns the user's coupon state as the upstream knows it. The
// local snapshot is only a display cache; the upstream answer wins.
func (s *service) Current(ctx context.Context, userID string) (*State, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	coupon, err := s.gateway.GetTemporaryCoupon(ctx, userID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			s.clearSnapshot(ctx, userID)
			return &State{}, nil
		}
		return nil, err
	}

	state := &State{Code: coupon.Code, DiscountRate: coupon.DiscountRate, Applied: coupon.Code != ""}
	s.writeSnapshot(ctx, userID, state)
	return state, nil
}

// Clear drops any applied coupon without surfacing the result. Buy-now
// session creation uses this so cart coupons never carry over.
func (s *service) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	_, err := s.Remove(ctx, userID)
	return err
}

func (s *service) writeSnapshot(ctx context.Context, userID string, state *State) {
	payload, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, s.store.CouponKey(userID), string(payload), 0); err != nil {
		if s.logger != nil {
			s.logger.Warn(ctx, "coupon snapshot write failed")
		}
	}
}

func (s *service) clearSnapshot(ctx context.Context, userID string) {
	if err := s.store.Del(ctx, s.store.CouponKey(userID)); err != nil && !errors.Is(err, redislib.Nil) {
		if s.logger != nil {
			s.logger.Warn(ctx, "coupon snapshot delete failed")
		}
	}
}
