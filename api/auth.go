package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// User is the minimal identity the client persists. The extended
// profile stays a raw payload because its schema belongs to the
// backend.
type User struct {
	UserID string `json:"userId"`
}

// LoginResult is a successful authentication.
type LoginResult struct {
	Token string
	User  User
}

// DemoUser is a discoverable demo account.
type DemoUser struct {
	UserID       string `json:"userId"`
	PasswordHint string `json:"passwordHint"`
}

// staticDemoUsers is the fallback list used when demo-user discovery
// fails. It mirrors the accounts seeded into the hosted demo backend.
var staticDemoUsers = []DemoUser{
	{UserID: "demo", PasswordHint: "demo123"},
	{UserID: "alice", PasswordHint: "wonderland"},
	{UserID: "bob", PasswordHint: "builder"},
}

// Login authenticates userID against the backend. On failure the error
// is classified: 401/403 become invalid credentials, connection
// failures become unavailable.
func (c *Client) Login(ctx context.Context, userID, password string) (LoginResult, error) {
	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		Error   string `json:"error"`
	}

	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "login",
		path:     "/auth/login",
		body:     map[string]string{"userId": userID, "password": password},
		login:    true,
	}, &resp)
	if err != nil {
		return LoginResult{}, err
	}

	if resp.Token == "" {
		return LoginResult{}, newError(KindGeneric, http.StatusOK, fmt.Errorf("login response missing token"))
	}

	return LoginResult{Token: resp.Token, User: User{UserID: userID}}, nil
}

// Logout notifies the backend that userID is signing out. Callers
// treat failures as best-effort.
func (c *Client) Logout(ctx context.Context, userID string) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "logout",
		path:     "/auth/logout",
		body:     map[string]string{"userId": userID},
	}, nil)
}

// DemoUsers returns the discoverable demo accounts, falling back to a
// static list when the endpoint fails. It never returns an error.
func (c *Client) DemoUsers(ctx context.Context) []DemoUser {
	var resp struct {
		Success   bool       `json:"success"`
		DemoUsers []DemoUser `json:"demoUsers"`
	}

	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "demo_users",
		path:     "/auth/demo-users",
	}, &resp)
	if err != nil || len(resp.DemoUsers) == 0 {
		if err != nil {
			c.logger.Warn("Demo user discovery failed, using static list", "error", err)
		}
		return staticDemoUsers
	}

	return resp.DemoUsers
}

// UserProfile fetches the extended profile for userID. The payload
// schema is the backend's; it is returned raw for display.
func (c *Client) UserProfile(ctx context.Context, userID string) (json.RawMessage, error) {
	var resp struct {
		Success bool            `json:"success"`
		Profile json.RawMessage `json:"user_profile"`
	}

	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "user_profile",
		path:     "/auth/user-profile/" + url.PathEscape(userID),
	}, &resp)
	if err != nil {
		return nil, err
	}

	return resp.Profile, nil
}

// DemoAPIKey fetches the pre-provisioned API key for a demo account.
func (c *Client) DemoAPIKey(ctx context.Context, userID, token string) (string, error) {
	query := url.Values{}
	query.Set("userId", userID)
	query.Set("token", token)

	var resp struct {
		Success bool   `json:"success"`
		APIKey  string `json:"apiKey"`
	}

	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "demo_api_key",
		path:     "/auth/demo-api-key",
		query:    query,
	}, &resp)
	if err != nil {
		return "", err
	}

	return resp.APIKey, nil
}
