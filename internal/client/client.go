package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kjstillabower/city-explorer/internal/models"
	"github.com/kjstillabower/city-explorer/internal/observability"
)

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 4 << 20

// Fetcher performs one GET against a provider and returns the raw JSON body.
type Fetcher interface {
	Fetch(ctx context.Context, params url.Values) ([]byte, error)
}

// StatusError is returned when a provider answers with a non-2xx status.
// It unwraps to models.ErrUpstreamRejected.
type StatusError struct {
	Resource   Resource
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s: HTTP %d", models.ErrUpstreamRejected, e.Resource, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return models.ErrUpstreamRejected
}

// Client is the upstream client for one resource type. All resources share
// this implementation; they differ only in Endpoint.
type Client struct {
	endpoint Endpoint
	baseURL  *url.URL
	timeout  time.Duration
	client   *http.Client
}

// New validates the endpoint and returns a Client. timeout bounds each call;
// zero disables the per-call bound and leaves only the caller's context.
func New(endpoint Endpoint, timeout time.Duration) (*Client, error) {
	if endpoint.Auth.Key == "" {
		return nil, fmt.Errorf("%s client: API key is required", endpoint.Resource)
	}
	if endpoint.Auth.Style == AuthQueryParam && endpoint.Auth.Param == "" {
		return nil, fmt.Errorf("%s client: query auth needs a parameter name", endpoint.Resource)
	}
	baseURL, err := url.Parse(endpoint.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s client: invalid base URL: %w", endpoint.Resource, err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("%s client: base URL %q must be absolute", endpoint.Resource, endpoint.BaseURL)
	}

	return &Client{
		endpoint: endpoint,
		baseURL:  baseURL,
		timeout:  timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Resource reports which resource type this client serves.
func (c *Client) Resource() Resource {
	return c.endpoint.Resource
}

// Fetch issues the GET with the endpoint's fixed params, params and credential.
// Network and timeout failures wrap models.ErrUpstreamUnavailable; non-2xx
// statuses return *StatusError. There are no retries.
func (c *Client) Fetch(ctx context.Context, params url.Values) ([]byte, error) {
	start := time.Now()
	resource := string(c.endpoint.Resource)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := c.buildRequest(ctx, params)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(resource, "error").Inc()
		return nil, fmt.Errorf("build %s request: %w", resource, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(resource, "error").Inc()
		observability.UpstreamDuration.WithLabelValues(resource, "error").Observe(time.Since(start).Seconds())
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %s: request timeout: %w", models.ErrUpstreamUnavailable, resource, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", models.ErrUpstreamUnavailable, resource, err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(resource, status).Inc()
	observability.UpstreamDuration.WithLabelValues(resource, status).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{Resource: c.endpoint.Resource, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read response body: %w", models.ErrUpstreamUnavailable, resource, err)
	}
	return body, nil
}

func (c *Client) buildRequest(ctx context.Context, params url.Values) (*http.Request, error) {
	u := *c.baseURL
	query := u.Query()
	for k, vs := range c.endpoint.Fixed {
		query[k] = append([]string(nil), vs...)
	}
	for k, vs := range params {
		query[k] = append([]string(nil), vs...)
	}
	if c.endpoint.Auth.Style == AuthQueryParam {
		query.Set(c.endpoint.Auth.Param, c.endpoint.Auth.Key)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.endpoint.Auth.Style == AuthBearer {
		req.Header.Set("Authorization", "Bearer "+c.endpoint.Auth.Key)
	}
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}
	return req, nil
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
