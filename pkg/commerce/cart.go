package commerce

import (
	"context"
	"fmt"
)

// CartItem is a line in the upstream cart. Prices arrive as plain JSON
// numbers; callers convert to decimals before doing arithmetic.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image"`
}

// Cart is the upstream cart snapshot for one user.
type Cart struct {
	Items []CartItem `json:"items"`
}

type cartMutation struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity,omitempty"`
}

// GetCart fetches the authoritative cart for a user.
func (c *Client) GetCart(ctx context.Context, userID string) (*Cart, error) {
	var cart Cart
	if err := c.get(ctx, fmt.Sprintf("api/cart/%s", userID), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddToCart adds quantity units of a product to the user's cart.
func (c *Client) AddToCart(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	var cart Cart
	payload := cartMutation{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := c.post(ctx, "api/cart/add", payload, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// RemoveFromCart removes a product line from the user's cart entirely.
func (c *Client) RemoveFromCart(ctx context.Context, userID, productID string) (*Cart, error) {
	var cart Cart
	payload := cartMutation{UserID: userID, ProductID: productID}
	if err := c.post(ctx, "api/cart/remove", payload, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpdateCartQuantity sets the absolute quantity of a cart line.
func (c *Client) UpdateCartQuantity(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	var cart Cart
	payload := cartMutation{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := c.post(ctx, "api/cart/update", payload, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}
