package platform

import (
	"context"
	"fmt"
)

const (
	loginPath = "/auth/login"
	mePath    = "/auth/me"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	var token Token
	if err := c.postJSON(ctx, loginPath, loginRequest{Email: email, Password: password}, &token); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("login: server returned an empty token")
	}

	return &token, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.getJSON(ctx, mePath, nil, &user); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}

	return &user, nil
}
