package commerce

import "context"

// OrderItem is one purchased line recorded with a draft order.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image,omitempty"`
}

// BillingDetails is the validated billing form forwarded with an order.
type BillingDetails struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Country   string `json:"country"`
	Street    string `json:"street"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	Notes     string `json:"notes,omitempty"`
}

// AppliedCoupon is the coupon snapshot recorded with a draft order.
type AppliedCoupon struct {
	Code         string  `json:"code,omitempty"`
	DiscountRate float64 `json:"discount_rate,omitempty"`
}

// SaveOrderRequest stores a draft order upstream before payment is confirmed.
// Payment fields stay empty at save time; the outcome is recorded later via
// UpdateOrderDetails.
type SaveOrderRequest struct {
	Form          BillingDetails `json:"form"`
	CartItems     []OrderItem    `json:"cart_items"`
	TotalAmount   int64          `json:"total_amount"`
	ShippingCost  float64        `json:"shipping_cost"`
	PaymentIntent string         `json:"payment_intent_id"`
	PaymentStatus string         `json:"payment_status"`
	AppliedCoupon *AppliedCoupon `json:"applied_coupon,omitempty"`
	UserID        string         `json:"user_id"`
	UserEmail     string         `json:"user_email"`
}

type saveOrderResponse struct {
	UserInfoID string `json:"user_info_id"`
}

// UpdateOrderRequest records the payment outcome against a saved draft order.
type UpdateOrderRequest struct {
	Amount        int64  `json:"amount"`
	PaymentIntent string `json:"payment_intent"`
	OrderRef      string `json:"user_info_id"`
}

// OrderDetails is the upstream's reconciled view of a finalized order. The
// upstream recomputes totals itself; callers display these values instead of
// any pre-payment figure.
type OrderDetails struct {
	Items          []OrderItem    `json:"order_details"`
	UserInfo       BillingDetails `json:"user_info"`
	ShippingCost   float64        `json:"shipping_cost"`
	DiscountAmount float64        `json:"discount_amount"`
	CouponCode     string         `json:"coupon_code"`
}

// SaveOrderDetails stores a draft order upstream and returns its reference.
// The draft exists before any payment attempt so a failed payment still
// leaves a traceable record.
func (c *Client) SaveOrderDetails(ctx context.Context, req SaveOrderRequest) (string, error) {
	var resp saveOrderResponse
	if err := c.post(ctx, "api/save-order-details", req, &resp); err != nil {
		return "", err
	}
	return resp.UserInfoID, nil
}

// UpdateOrderDetails records the payment outcome on a draft order and returns
// the authoritative order for display.
func (c *Client) UpdateOrderDetails(ctx context.Context, req UpdateOrderRequest) (*OrderDetails, error) {
	var order OrderDetails
	if err := c.post(ctx, "api/update-order-details", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
