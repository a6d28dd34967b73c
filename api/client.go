// Package api implements the remote resource client for the KeyPilot
// backend. It attaches the session bearer token to every request,
// centralizes base-URL configuration, and normalizes transport-level
// failures into the Error taxonomy so no raw HTTP detail reaches
// calling code.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// maxResponseSize limits response bodies to prevent memory exhaustion
// on a misbehaving backend.
const maxResponseSize = 4 * 1024 * 1024 // 4MB

// healthTimeout bounds the liveness probe regardless of the client's
// base timeout.
const healthTimeout = 5 * time.Second

// Client is the KeyPilot backend client.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	logger         *slog.Logger
	tokenSource    func() string
	onUnauthorized func()
	limiter        *rate.Limiter
	metrics        *Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(client *Client) {
		client.logger = logger
	}
}

// WithTokenSource sets the function that yields the current session
// token. An empty return means no Authorization header is sent.
func WithTokenSource(source func() string) Option {
	return func(client *Client) {
		client.tokenSource = source
	}
}

// WithOnUnauthorized sets the hook invoked when an authenticated
// request is rejected with 401. This is the one place session
// invalidation can be triggered by the server rather than by an
// explicit logout.
func WithOnUnauthorized(hook func()) Option {
	return func(client *Client) {
		client.onUnauthorized = hook
	}
}

// WithLimiter sets the rate limiter applied to analytics calls. The
// demo backend is shared, so playground traffic is throttled
// client-side.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(client *Client) {
		client.limiter = limiter
	}
}

// WithMetrics sets the Prometheus metrics recorder.
func WithMetrics(m *Metrics) Option {
	return func(client *Client) {
		client.metrics = m
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// request describes one backend call for the transport layer.
type request struct {
	method string
	// endpoint is the stable name used for logging and metrics.
	endpoint string
	path     string
	query    url.Values
	body     any

	// login marks the login call itself: its 401 means bad
	// credentials and must not trigger the unauthorized hook.
	login bool

	// limited applies the analytics rate limiter.
	limited bool
}

// envelope is the backend's common response wrapper. Success is a
// pointer because read-only analytics payloads do not carry it.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// do executes one request and decodes the response into out (which may
// be nil). Every returned error is an *Error.
func (c *Client) do(ctx context.Context, req request, out any) error {
	start := time.Now()
	err := c.doOnce(ctx, req, out)
	c.metrics.observe(req.endpoint, err, time.Since(start))
	return err
}

func (c *Client) doOnce(ctx context.Context, req request, out any) error {
	if req.limited && c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return newError(KindGeneric, 0, err)
		}
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var bodyReader io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return newError(KindGeneric, 0, fmt.Errorf("encode request body: %w", err))
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, bodyReader)
	if err != nil {
		return newError(KindGeneric, 0, fmt.Errorf("create request: %w", err))
	}

	requestID := uuid.New().String()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.logger.Debug("Sending backend request",
		"endpoint", req.endpoint,
		"method", req.method,
		"path", req.path,
		"request_id", requestID)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// No response at all: the backend is unreachable.
		return newError(KindUnavailable, 0, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return newError(KindUnavailable, 0, fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode == http.StatusUnauthorized && !req.login {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return c.statusError(req, httpResp.StatusCode, respBody)
	}

	if len(respBody) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err == nil && env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request rejected"
		}
		kind := KindGeneric
		if req.login {
			kind = KindInvalidCredentials
		}
		return newError(kind, httpResp.StatusCode, fmt.Errorf("%s", msg))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return newError(KindGeneric, httpResp.StatusCode, fmt.Errorf("decode response: %w", err))
		}
	}

	return nil
}

// statusError builds the classified error for a non-2xx response.
func (c *Client) statusError(req request, status int, body []byte) *Error {
	detail := string(body)
	if len(detail) > 200 {
		detail = detail[:200] + "..."
	}

	kind := classifyStatus(status, req.login)
	c.logger.Debug("Backend request rejected",
		"endpoint", req.endpoint,
		"status", status,
		"kind", string(kind))

	return newError(kind, status, fmt.Errorf("%s %s: %s", req.method, req.path, detail))
}
