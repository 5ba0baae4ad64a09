package api

import (
	"context"
	"net/http"
	"strings"
)

type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	return c.authenticate(ctx, "/api/auth/login", email, password, "Login failed")
}

// Signup registers a new account and signs it in.
func (c *Client) Signup(ctx context.Context, email, password string) (*LoginResponse, error) {
	return c.authenticate(ctx, "/api/auth/signup", email, password, "Signup failed")
}

func (c *Client) authenticate(ctx context.Context, path, email, password, fallback string) (*LoginResponse, error) {
	body := map[string]string{
		"email":    strings.ToLower(strings.TrimSpace(email)),
		"password": password,
	}
	var resp LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, path, "", body, &resp, fallback); err != nil {
		return nil, err
	}
	return &resp, nil
}
