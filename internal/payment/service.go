package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v84"

	"github.com/kalamart/storefront-api/internal/checkout"
	"github.com/kalamart/storefront-api/pkg/commerce"
	"github.com/kalamart/storefront-api/pkg/config"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
	"github.com/kalamart/storefront-api/pkg/logger"
	"github.com/kalamart/storefront-api/pkg/metrics"
)

const (
	attemptTTL         = 24 * time.Hour
	intentDescription  = "Order Payment"
	redirectSucceeded  = "succeeded"
	guardFailedMessage = "Please fill all details and card info correctly."
)

type quoter interface {
	Quote(ctx context.Context, input checkout.QuoteInput) (*checkout.Quote, error)
	ResolveItems(ctx context.Context, userID, sessionID string) ([]checkout.LineItem, error)
}

type orderGateway interface {
	SaveOrderDetails(ctx context.Context, req commerce.SaveOrderRequest) (string, error)
	UpdateOrderDetails(ctx context.Context, req commerce.UpdateOrderRequest) (*commerce.OrderDetails, error)
	GetTemporaryCoupon(ctx context.Context, userID string) (*commerce.Coupon, error)
}

type attemptStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	PaymentAttemptKey(userID string) string
}

// Service sequences payment-intent creation, draft-order persistence, and
// post-redirect reconciliation for one shopper at a time.
type Service interface {
	CreateIntent(ctx context.Context, input CreateIntentInput) (*Attempt, error)
	Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error)
	Reconcile(ctx context.Context, input ReconcileInput) (*commerce.OrderDetails, error)
	Attempt(ctx context.Context, userID string) (*Attempt, error)
}

type service struct {
	stripe  StripePaymentClient
	quotes  quoter
	orders  orderGateway
	store   attemptStore
	cfg     config.CheckoutConfig
	metrics *metrics.CheckoutMetrics
	logger  *logger.Logger
}

// NewService builds the payment orchestration service.
func NewService(stripeClient StripePaymentClient, quotes quoter, orders orderGateway, store attemptStore, cfg config.CheckoutConfig, m *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if stripeClient == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if quotes == nil {
		return nil, fmt.Errorf("quoter required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order gateway required")
	}
	if store == nil {
		return nil, fmt.Errorf("attempt store required")
	}
	return &service{
		stripe:  stripeClient,
		quotes:  quotes,
		orders:  orders,
		store:   store,
		cfg:     cfg,
		metrics: m,
		logger:  logg,
	}, nil
}

// CreateIntentInput triggers intent creation once the billing form is valid.
type CreateIntentInput struct {
	UserID         string
	SessionID      string
	Form           checkout.BillingForm
	ShippingMethod checkout.ShippingMethod
}

// SubmitInput is the shopper's request to pay against a ready intent.
type SubmitInput struct {
	UserID                 string
	SessionID              string
	Form                   checkout.BillingForm
	ShippingMethod         checkout.ShippingMethod
	PaymentElementComplete bool
}

// SubmitResult carries what the client needs to confirm the payment.
type SubmitResult struct {
	OrderRef     string
	ClientSecret string
	AmountMinor  int64
	ReturnURL    string
}

// ReconcileInput carries the redirect parameters from the provider.
type ReconcileInput struct {
	UserID         string
	PaymentIntent  string
	RedirectStatus string
	AmountMinor    int64
	OrderRef       string
}

// CreateIntent validates the form, matches or creates the provider customer,
// and requests a payment intent for the current quote.
func (s *service) CreateIntent(ctx context.Context, input CreateIntentInput) (*Attempt, error) {
	if input.UserID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if errs := input.Form.Validate(); len(errs) != 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing form is incomplete").WithDetails(errs)
	}

	attempt, err := s.loadAttempt(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if err := attempt.transition(StatusIntentCreating); err != nil {
		return nil, err
	}

	quote, err := s.quotes.Quote(ctx, checkout.QuoteInput{
		UserID:         input.UserID,
		SessionID:      input.SessionID,
		ShippingMethod: input.ShippingMethod,
	})
	if err != nil {
		return nil, err
	}
	amountMinor := checkout.AmountMinorUnits(quote.FinalTotal)
	if amountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}

	cust, err := s.resolveCustomer(ctx, input.Form)
	if err != nil {
		return nil, s.failAttempt(ctx, input.UserID, attempt, err, "stripe customer lookup failed")
	}

	intent, err := s.stripe.CreateIntent(ctx, intentParams(input.Form, cust.ID, amountMinor, s.cfg.Currency))
	if err != nil {
		return nil, s.failAttempt(ctx, input.UserID, attempt, err, "payment intent creation failed")
	}

	if err := attempt.transition(StatusIntentReady); err != nil {
		return nil, err
	}
	attempt.IntentID = intent.ID
	attempt.ClientSecret = intent.ClientSecret
	attempt.CustomerID = cust.ID
	attempt.AmountMinor = amountMinor
	attempt.SessionID = input.SessionID

	if err := s.saveAttempt(ctx, input.UserID, attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// Submit persists the draft order and hands back confirmation material. The
// guards run before anything leaves the process: a rejected submit makes no
// network call at all.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	if input.UserID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	attempt, err := s.loadAttempt(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != StatusIntentReady || attempt.ClientSecret == "" ||
		!input.Form.IsValid() || !input.PaymentElementComplete {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, guardFailedMessage)
	}

	if err := attempt.transition(StatusSubmitting); err != nil {
		return nil, err
	}

	items, err := s.quotes.ResolveItems(ctx, input.UserID, attempt.SessionID)
	if err != nil {
		return nil, err
	}
	quote, err := s.quotes.Quote(ctx, checkout.QuoteInput{
		UserID:         input.UserID,
		SessionID:      attempt.SessionID,
		ShippingMethod: input.ShippingMethod,
	})
	if err != nil {
		return nil, err
	}

	orderRef, err := s.orders.SaveOrderDetails(ctx, s.draftOrder(ctx, input, attempt, items, quote))
	if err != nil {
		return nil, s.failAttempt(ctx, input.UserID, attempt, err, "draft order save failed")
	}
	attempt.OrderRef = orderRef
	if err := s.saveAttempt(ctx, input.UserID, attempt); err != nil {
		return nil, err
	}

	return &SubmitResult{
		OrderRef:     orderRef,
		ClientSecret: attempt.ClientSecret,
		AmountMinor:  attempt.AmountMinor,
		ReturnURL:    s.returnURL(attempt.AmountMinor, orderRef),
	}, nil
}

// Reconcile finalizes the attempt after the provider redirect. Only a
// succeeded redirect with an intent id reaches the upstream; anything else
// reopens the attempt for resubmission.
func (s *service) Reconcile(ctx context.Context, input ReconcileInput) (*commerce.OrderDetails, error) {
	if input.UserID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	attempt, err := s.loadAttempt(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.PaymentIntent == "" || input.RedirectStatus != redirectSucceeded {
		s.metrics.IncPaymentOutcome("failed")
		if attempt.Status == StatusSubmitting {
			if err := attempt.transition(StatusFailed); err == nil {
				_ = attempt.transition(StatusIntentReady)
				if err := s.saveAttempt(ctx, input.UserID, attempt); err != nil && s.logger != nil {
					s.logger.Warn(ctx, "payment attempt save failed during reopen")
				}
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodePayment, "payment was not completed")
	}

	orderRef := input.OrderRef
	if orderRef == "" {
		orderRef = attempt.OrderRef
	}
	order, err := s.orders.UpdateOrderDetails(ctx, commerce.UpdateOrderRequest{
		Amount:        input.AmountMinor,
		PaymentIntent: input.PaymentIntent,
		OrderRef:      orderRef,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPaymentOutcome("confirmed")
	if attempt.Status == StatusSubmitting {
		if err := attempt.transition(StatusConfirmed); err == nil {
			if err := s.store.Del(ctx, s.store.PaymentAttemptKey(input.UserID)); err != nil && s.logger != nil {
				s.logger.Warn(ctx, "payment attempt cleanup failed")
			}
		}
	}
	return order, nil
}

// Attempt returns the shopper's current attempt, defaulting to idle.
func (s *service) Attempt(ctx context.Context, userID string) (*Attempt, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.loadAttempt(ctx, userID)
}

func (s *service) resolveCustomer(ctx context.Context, form checkout.BillingForm) (*stripe.Customer, error) {
	existing, err := s.stripe.FindCustomerByEmail(ctx, form.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return s.stripe.CreateCustomer(ctx, customerParams(form))
}

func (s *service) draftOrder(ctx context.Context, input SubmitInput, attempt *Attempt, items []checkout.LineItem, quote *checkout.Quote) commerce.SaveOrderRequest {
	orderItems := make([]commerce.OrderItem, 0, len(items))
	for _, item := range items {
		price, _ := item.Price.Float64()
		orderItems = append(orderItems, commerce.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     price,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}

	var applied *commerce.AppliedCoupon
	coupon, err := s.orders.GetTemporaryCoupon(ctx, input.UserID)
	if err == nil && coupon != nil && coupon.Code != "" {
		applied = &commerce.AppliedCoupon{Code: coupon.Code, DiscountRate: coupon.DiscountRate}
	} else if err != nil {
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			if s.logger != nil {
				s.logger.Warn(ctx, "coupon lookup failed while saving draft order")
			}
		}
	}

	shippingCost, _ := quote.ShippingCost.Float64()
	return commerce.SaveOrderRequest{
		Form:          billingOf(input.Form),
		CartItems:     orderItems,
		TotalAmount:   attempt.AmountMinor,
		ShippingCost:  shippingCost,
		PaymentIntent: "",
		PaymentStatus: "",
		AppliedCoupon: applied,
		UserID:        input.UserID,
		UserEmail:     input.Form.Email,
	}
}

func (s *service) returnURL(amountMinor int64, orderRef string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(orderRef))
	return fmt.Sprintf("%s?amount=%d&user_info_id=%s", strings.TrimRight(s.cfg.ReturnURL, "?"), amountMinor, encoded)
}

func (s *service) failAttempt(ctx context.Context, userID string, attempt *Attempt, cause error, message string) error {
	if err := attempt.transition(StatusFailed); err == nil {
		if err := s.saveAttempt(ctx, userID, attempt); err != nil && s.logger != nil {
			s.logger.Warn(ctx, "payment attempt save failed after failure")
		}
	}
	s.metrics.IncPaymentOutcome("failed")

	if typed := pkgerrors.As(cause); typed != nil {
		return typed
	}
	var stripeErr *stripe.Error
	if errors.As(cause, &stripeErr) {
		// Provider messages are shown to the shopper verbatim.
		return pkgerrors.Wrap(pkgerrors.CodePayment, cause, stripeErr.Msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodePayment, cause, message)
}

func (s *service) loadAttempt(ctx context.Context, userID string) (*Attempt, error) {
	raw, err := s.store.Get(ctx, s.store.PaymentAttemptKey(userID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return newAttempt(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read payment attempt")
	}
	var attempt Attempt
	if err := json.Unmarshal([]byte(raw), &attempt); err != nil {
		return newAttempt(), nil
	}
	return &attempt, nil
}

func (s *service) saveAttempt(ctx context.Context, userID string, attempt *Attempt) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode payment attempt")
	}
	if err := s.store.Set(ctx, s.store.PaymentAttemptKey(userID), string(payload), attemptTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment attempt")
	}
	return nil
}

func customerParams(form checkout.BillingForm) *stripe.CustomerParams {
	fullName := strings.TrimSpace(form.FirstName + " " + form.LastName)
	address := &stripe.AddressParams{
		Line1:      stripe.String(form.Street),
		Line2:      stripe.String(form.Apartment),
		City:       stripe.String(form.City),
		State:      stripe.String(form.State),
		Country:    stripe.String(form.Country),
		PostalCode: stripe.String(form.Pincode),
	}
	params := &stripe.CustomerParams{
		Name:    stripe.String(fullName),
		Email:   stripe.String(form.Email),
		Phone:   stripe.String(form.Phone),
		Address: address,
		Shipping: &stripe.CustomerShippingParams{
			Name:    stripe.String(fullName),
			Address: address,
		},
	}
	params.AddMetadata("order_notes", form.Notes)
	return params
}

func intentParams(form checkout.BillingForm, customerID string, amountMinor int64, currency string) *stripe.PaymentIntentParams {
	fullName := strings.TrimSpace(form.FirstName + " " + form.LastName)
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(amountMinor),
		Currency:    stripe.String(currency),
		Customer:    stripe.String(customerID),
		Description: stripe.String(intentDescription),
		Shipping: &stripe.ShippingDetailsParams{
			Name: stripe.String(fullName),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(form.Street),
				Line2:      stripe.String(form.Apartment),
				City:       stripe.String(form.City),
				State:      stripe.String(form.State),
				Country:    stripe.String(form.Country),
				PostalCode: stripe.String(form.Pincode),
			},
		},
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("customer_id", customerID)
	params.AddMetadata("customer_name", fullName)
	params.AddMetadata("customer_email", form.Email)
	params.AddMetadata("customer_phone", form.Phone)
	params.AddMetadata("customer_country", form.Country)
	params.AddMetadata("customer_street", form.Street)
	params.AddMetadata("customer_city", form.City)
	params.AddMetadata("customer_state", form.State)
	params.AddMetadata("order_notes", form.Notes)
	return params
}

func billingOf(form checkout.BillingForm) commerce.BillingDetails {
	return commerce.BillingDetails{
		Email:     form.Email,
		Phone:     form.Phone,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Country:   form.Country,
		Street:    form.Street,
		Apartment: form.Apartment,
		City:      form.City,
		State:     form.State,
		Pincode:   form.Pincode,
		Notes:     form.Notes,
	}
}
