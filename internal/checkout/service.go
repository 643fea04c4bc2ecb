package checkout

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kalamart/storefront-api/pkg/commerce"
	"github.com/kalamart/storefront-api/pkg/config"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
	"github.com/kalamart/storefront-api/pkg/logger"
)

type cartSource interface {
	GetCart(ctx context.Context, userID string) (*commerce.Cart, error)
}

type sessionSource interface {
	GetTempSession(ctx context.Context, sessionID string) (*commerce.TempSession, error)
}

type couponSource interface {
	GetTemporaryCoupon(ctx context.Context, userID string) (*commerce.Coupon, error)
}

// Service computes authoritative-as-of-now checkout quotes. Items and coupon
// state are refetched on every quote; nothing is cached between calls.
type Service interface {
	Quote(ctx context.Context, input QuoteInput) (*Quote, error)
	ResolveItems(ctx context.Context, userID, sessionID string) ([]LineItem, error)
}

type service struct {
	cart     cartSource
	sessions sessionSource
	coupons  couponSource
	cfg      config.CheckoutConfig
	logger   *logger.Logger
}

// NewService builds the checkout quoting service.
func NewService(cart cartSource, sessions sessionSource, coupons couponSource, cfg config.CheckoutConfig, logg *logger.Logger) (Service, error) {
	if cart == nil {
		return nil, fmt.Errorf("cart source required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session source required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon source required")
	}
	return &service{
		cart:     cart,
		sessions: sessions,
		coupons:  coupons,
		cfg:      cfg,
		logger:   logg,
	}, nil
}

// QuoteInput selects the item source and shipping option for a quote. A
// non-empty SessionID switches from the persistent cart to the buy-now
// session.
type QuoteInput struct {
	UserID         string
	SessionID      string
	ShippingMethod ShippingMethod
}

// ResolveItems fetches the lines a checkout would purchase right now.
func (s *service) ResolveItems(ctx context.Context, userID, sessionID string) ([]LineItem, error) {
	if sessionID != "" {
		session, err := s.sessions.GetTempSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if !session.Active {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout session is no longer active")
		}
		return []LineItem{{
			ProductID: session.ProductID,
			Name:      session.Name,
			Price:     decimal.NewFromFloat(session.Price),
			Quantity:  session.Quantity,
			ImageURL:  session.ImageURL,
		}}, nil
	}

	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.cart.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]LineItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     decimal.NewFromFloat(item.Price),
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return items, nil
}

// Quote recomputes the full total for the user's current checkout state.
func (s *service) Quote(ctx context.Context, input QuoteInput) (*Quote, error) {
	items, err := s.ResolveItems(ctx, input.UserID, input.SessionID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to check out")
	}

	rate := decimal.Zero
	coupon, err := s.coupons.GetTemporaryCoupon(ctx, input.UserID)
	switch {
	case err == nil && coupon != nil:
		rate = decimal.NewFromFloat(coupon.DiscountRate)
	case err != nil:
		// No recorded coupon is the common case, reported upstream as 404.
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			return nil, err
		}
	}

	shipping, err := s.shippingCostFor(input.ShippingMethod)
	if err != nil {
		return nil, err
	}

	quote, err := ComputeQuote(items, rate, shipping)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (s *service) shippingCostFor(method ShippingMethod) (decimal.Decimal, error) {
	switch method {
	case "", ShippingFree:
		return decimal.Zero, nil
	case ShippingExpedited:
		return decimal.NewFromInt(int64(s.cfg.ExpeditedShippingCost)), nil
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method")
	}
}
