package commerce

import (
	"context"
	"fmt"
)

// TempSession is a single-product "buy now" checkout session held upstream.
type TempSession struct {
	SessionID string  `json:"session_id"`
	UserID    string  `json:"user_id"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image"`
	Active    bool    `json:"active"`
}

// CreateTempSession stores a new buy-now session upstream and returns it.
func (c *Client) CreateTempSession(ctx context.Context, userID, productID string, quantity int) (*TempSession, error) {
	var session TempSession
	payload := struct {
		UserID    string `json:"user_id"`
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := c.post(ctx, "api/store_temp_checkout_session", payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetTempSession fetches a buy-now session by its identifier.
func (c *Client) GetTempSession(ctx context.Context, sessionID string) (*TempSession, error) {
	var session TempSession
	if err := c.get(ctx, fmt.Sprintf("api/checkout-session/%s", sessionID), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateTempSessionQuantity sets the quantity on a buy-now session line.
func (c *Client) UpdateTempSessionQuantity(ctx context.Context, sessionID string, quantity int) (*TempSession, error) {
	var session TempSession
	payload := struct {
		SessionID string `json:"session_id"`
		Quantity  int    `json:"quantity"`
	}{SessionID: sessionID, Quantity: quantity}
	if err := c.post(ctx, "api/temp_sessions_item/update", payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// DeactivateTempSessions marks the user's buy-now sessions inactive after a
// completed checkout.
func (c *Client) DeactivateTempSessions(ctx context.Context, userID string) error {
	payload := struct {
		UserID string `json:"user_id"`
	}{UserID: userID}
	return c.post(ctx, "api/make_all_temp_session_inactive", payload, nil)
}
