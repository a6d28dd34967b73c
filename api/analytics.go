package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Analytics passthroughs for the playground. The client imposes no
// schema on these payloads; it hands the query through and returns the
// analysis document raw. All of them run through the client-side rate
// limiter because the hosted demo backend is shared.

// TestIntent asks the semantic router how it would classify a prompt.
func (c *Client) TestIntent(ctx context.Context, prompt string) (json.RawMessage, error) {
	var resp json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "test_intent",
		path:     "/api/intent/test",
		body:     map[string]string{"prompt": prompt},
		limited:  true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CacheStats inspects the semantic cache.
func (c *Client) CacheStats(ctx context.Context) (json.RawMessage, error) {
	var resp json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "cache_stats",
		path:     "/api/cache/stats",
		limited:  true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Trends returns routing trend analysis over the given window
// (for example "24h" or "7d").
func (c *Client) Trends(ctx context.Context, window string) (json.RawMessage, error) {
	query := url.Values{}
	if window != "" {
		query.Set("window", window)
	}

	var resp json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "trends",
		path:     "/api/trends",
		query:    query,
		limited:  true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// FeedbackStats returns aggregate routing feedback statistics.
func (c *Client) FeedbackStats(ctx context.Context) (json.RawMessage, error) {
	var resp json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "feedback_stats",
		path:     "/api/feedback/stats",
		limited:  true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
