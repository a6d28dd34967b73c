package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Key-record and template operations. The record schema is the
// backend's contract: requests pass caller-built documents through and
// responses come back raw for rendering.

// MyKeys lists the authenticated user's API key records.
func (c *Client) MyKeys(ctx context.Context) (json.RawMessage, error) {
	var resp json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "my_keys",
		path:     "/keys/my-keys",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// AddKey creates a key record from the given document.
func (c *Client) AddKey(ctx context.Context, record map[string]any) (json.RawMessage, error) {
	var resp json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "add_key",
		path:     "/auth/add-key",
		body:     record,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// UpdateKey updates an existing key record.
func (c *Client) UpdateKey(ctx context.Context, record map[string]any) (json.RawMessage, error) {
	var resp json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodPut,
		endpoint: "update_key",
		path:     "/auth/update-key",
		body:     record,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// DeleteKey deletes a key record.
func (c *Client) DeleteKey(ctx context.Context, record map[string]any) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		endpoint: "delete_key",
		path:     "/auth/delete-key",
		body:     record,
	}, nil)
}

// Templates lists the available key templates.
func (c *Client) Templates(ctx context.Context) (json.RawMessage, error) {
	var resp json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "templates",
		path:     "/api/templates",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Template fetches a single template by id.
func (c *Client) Template(ctx context.Context, id string) (json.RawMessage, error) {
	var resp json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "template",
		path:     "/api/templates/" + url.PathEscape(id),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
