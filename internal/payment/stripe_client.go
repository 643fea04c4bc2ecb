package payment

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/paymentintent"

	pkgstripe "github.com/kalamart/storefront-api/pkg/stripe"
)

// StripePaymentClient exposes the subset of Stripe operations required by the payment service.
type StripePaymentClient interface {
	FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error)
	CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error)
	CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the provided Stripe client so the payment service can be tested.
func NewStripeClient(api *pkgstripe.Client) StripePaymentClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

// FindCustomerByEmail returns the first customer matching the email, or nil
// when no record exists.
func (w *stripeClientWrapper) FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Limit = stripe.Int64(1)
	params.Context = ctx

	iter := customer.List(params)
	if iter.Next() {
		return iter.Customer(), nil
	}
	return nil, iter.Err()
}

func (w *stripeClientWrapper) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	if params != nil {
		params.Context = ctx
	}
	return customer.New(params)
}

func (w *stripeClientWrapper) CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}
