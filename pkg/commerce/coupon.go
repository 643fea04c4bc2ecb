package commerce

import (
	"context"
	"fmt"
)

// Coupon is an upstream-validated discount. DiscountRate is a fraction in
// [0, 1], for example 0.10 for a ten percent coupon.
type Coupon struct {
	Code         string  `json:"code"`
	DiscountRate float64 `json:"discount_rate"`
}

// ApplyCouponRequest carries everything the upstream needs to validate a code
// against the current order and user.
type ApplyCouponRequest struct {
	Code      string  `json:"code"`
	SubTotal  float64 `json:"subTotal"`
	UserID    string  `json:"user_id"`
	UserEmail string  `json:"user_email"`
}

// ApplyCoupon asks the upstream to validate and record a coupon for the user.
// A rejected code comes back as a validation error carrying the upstream
// message verbatim.
func (c *Client) ApplyCoupon(ctx context.Context, req ApplyCouponRequest) (*Coupon, error) {
	var coupon Coupon
	if err := c.post(ctx, "api/apply-coupon", req, &coupon); err != nil {
		return nil, err
	}
	return &coupon, nil
}

// RemoveCoupon clears a previously applied coupon for the user.
func (c *Client) RemoveCoupon(ctx context.Context, code, userID string) error {
	payload := struct {
		Code   string `json:"code"`
		UserID string `json:"user_id"`
	}{Code: code, UserID: userID}
	return c.post(ctx, "api/remove-coupon", payload, nil)
}

// GetTemporaryCoupon fetches the coupon currently recorded upstream for the
// user, if any. A missing coupon is reported by the upstream as 404.
func (c *Client) GetTemporaryCoupon(ctx context.Context, userID string) (*Coupon, error) {
	var coupon Coupon
	if err := c.get(ctx, fmt.Sprintf("api/temporary-coupon/%s", userID), &coupon); err != nil {
		return nil, err
	}
	return &coupon, nil
}
