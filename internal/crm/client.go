package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultAPIVersion is the REST API version used when none is configured.
	DefaultAPIVersion = "v60.0"

	defaultClientTimeout = 30 * time.Second
	maxResponseBodyBytes = 10 << 20
)

// HTTPDoer is the subset of *http.Client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig tunes the REST client.
type ClientConfig struct {
	APIVersion string
	// RateLimit caps outbound requests per second; zero disables limiting.
	RateLimit float64
	RateBurst int
}

// Client issues authenticated JSON requests under the versioned API root of
// the current session.
type Client struct {
	store      *SessionStore
	http       HTTPDoer
	apiVersion string
	limiter    *rate.Limiter
}

// NewClient builds a Client. A nil doer gets a default *http.Client with a
// 30 second timeout.
func NewClient(store *SessionStore, doer HTTPDoer, cfg ClientConfig) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: defaultClientTimeout}
	}
	version := strings.Trim(strings.TrimSpace(cfg.APIVersion), "/")
	if version == "" {
		version = DefaultAPIVersion
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return &Client{
		store:      store,
		http:       doer,
		apiVersion: version,
		limiter:    limiter,
	}
}

// HasSession reports whether a session has been established.
func (c *Client) HasSession() bool {
	_, ok := c.store.Load()
	return ok
}

// Do sends a request to path (relative to the API root). in, when non-nil, is
// JSON encoded as the body; out, when non-nil, receives the decoded response.
// Non-2xx responses are returned as *APIError together with the status code.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in, out any) (int, error) {
	sess, ok := c.store.Load()
	if !ok {
		return 0, ErrNoSession
	}

	target := sess.InstanceURL + "/services/data/" + c.apiVersion + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("crm: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("crm: rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, fmt.Errorf("crm: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("crm: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodyBytes))
	if err != nil {
		return res.StatusCode, fmt.Errorf("crm: read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res.StatusCode, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: res.StatusCode,
			Body:       data,
		}
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return res.StatusCode, fmt.Errorf("crm: decode %s %s: %w", method, path, err)
		}
	}
	return res.StatusCode, nil
}
