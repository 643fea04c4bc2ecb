package commerce

import (
	"context"
	"fmt"
)

// User is the upstream account record returned on login or registration.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RegisterRequest creates a new upstream account.
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// WishlistProduct is one saved product in the upstream wishlist.
type WishlistProduct struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image"`
}

// ContactRequest forwards a storefront contact-form submission upstream.
type ContactRequest struct {
	Name    string `json:"name"`
	PhoneNo string `json:"phone_no,omitempty"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Login authenticates against the upstream and returns the account.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var user User
	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}
	if err := c.post(ctx, "api/login", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates an upstream account and returns it.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var user User
	if err := c.post(ctx, "api/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetWishlist fetches the user's saved products.
func (c *Client) GetWishlist(ctx context.Context, userID string) ([]WishlistProduct, error) {
	var resp struct {
		Products []WishlistProduct `json:"products"`
	}
	if err := c.get(ctx, fmt.Sprintf("api/wishlist/%s", userID), &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// StoreWishlist replaces the user's wishlist with the given product ids.
func (c *Client) StoreWishlist(ctx context.Context, userID string, productIDs []string) error {
	payload := struct {
		UserID     string   `json:"user_id"`
		ProductIDs []string `json:"product_ids"`
	}{UserID: userID, ProductIDs: productIDs}
	return c.post(ctx, "api/storeWishlist", payload, nil)
}

// ContactUs forwards a contact-form submission upstream.
func (c *Client) ContactUs(ctx context.Context, req ContactRequest) error {
	return c.post(ctx, "api/contact-us", req, nil)
}
