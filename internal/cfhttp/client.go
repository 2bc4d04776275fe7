// Package cfhttp provides the HTTP client used to fetch filter-list
// updates.
package cfhttp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/AdguardTeam/golibs/httphdr"
)

// Client is a thin wrapper around [http.Client] that sets a fixed
// User-Agent and turns redirect-time failures into [ServerError].
type Client struct {
	http      *http.Client
	userAgent string
}

// ClientConfig configures a [Client].
type ClientConfig struct {
	// Timeout is the timeout applied to every request.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string
}

// NewClient returns a new client. conf must not be nil.
func NewClient(conf *ClientConfig) (c *Client) {
	return &Client{
		http:      &http.Client{Timeout: conf.Timeout},
		userAgent: conf.UserAgent,
	}
}

// Get is a wrapper around [http.Client.Get] that applies the client's
// User-Agent.
//
// When err is nil, resp always contains a non-nil resp.Body; the caller
// must close it.
func (c *Client) Get(ctx context.Context, rawURL string) (resp *http.Response, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set(httphdr.UserAgent, c.userAgent)

	resp, err = c.http.Do(req)
	if err != nil && resp != nil && resp.Header != nil {
		// A non-nil response alongside a non-nil error only happens when
		// CheckRedirect fails.
		return resp, WrapServerError(err, resp)
	}

	return resp, err
}
