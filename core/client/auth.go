package client

import (
	"context"
	"net/http"
)

// Credentials is the request body for login and registration.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /login.
type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// MessageResponse is a response carrying only a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserProfile is the profile returned by GET /home/user. Its shape is owned by the
// service, so it is kept as a generic document.
type UserProfile map[string]any

// Username returns the "username" field of the profile, if present.
func (p UserProfile) Username() string {
	if s, ok := p["username"].(string); ok {
		return s
	}
	return ""
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.doRequest(ctx, http.MethodPost, "/login", Credentials{Username: username, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, password string) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.doRequest(ctx, http.MethodPost, "/register", Credentials{Username: username, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentUser fetches the profile of the token holder.
func (c *Client) CurrentUser(ctx context.Context) (UserProfile, error) {
	profile := UserProfile{}
	if err := c.doRequest(ctx, http.MethodGet, "/home/user", nil, &profile); err != nil {
		return nil, err
	}
	return profile, nil
}
