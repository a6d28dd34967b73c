package api

import (
	"context"
	"net/http"
)

// Health probes backend liveness. The probe carries its own fixed
// timeout: after healthTimeout it counts as failed even if the
// underlying request would eventually complete.
func (c *Client) Health(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	return c.do(probeCtx, request{
		method:   http.MethodGet,
		endpoint: "health",
		path:     "/health",
	}, nil)
}
