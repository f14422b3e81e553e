package api

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a fresh token and caches the profile.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var res AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &res); err != nil {
		return nil, err
	}
	if err := c.adopt(ctx, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Register creates an account. A successful registration signs the user in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var res AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &res); err != nil {
		return nil, err
	}
	if err := c.adopt(ctx, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout tells the backend the session is over, then clears local state
// regardless of whether the backend call succeeded.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if clearErr := c.session.ClearAll(ctx); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

// Me fetches the signed-in user and refreshes the cached profile summary.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	_ = c.session.SetProfile(ctx, u.profile())
	return &u, nil
}

func (c *Client) adopt(ctx context.Context, res *AuthResponse) error {
	if err := c.session.SetToken(ctx, res.Token); err != nil {
		return err
	}
	return c.session.SetProfile(ctx, res.User.profile())
}
