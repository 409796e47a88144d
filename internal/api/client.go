// Package api is a typed client for the order-tracking REST API.
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

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Client performs authenticated JSON requests against the API.
type Client struct {
	httpClient *http.Client
	tokens     oauth2.TokenSource
	baseURL    *url.URL
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is used
// as is, without instrumentation.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTokenSource sets where bearer credentials come from.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithToken uses a fixed bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		if token == "" {
			c.tokens = nil
			return
		}
		c.tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: api base url %q: %v", common.ErrInvalidConfig, baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: api base url %q must be http or https", common.ErrInvalidConfig, baseURL)
	}

	c := &Client{
		baseURL:   u,
		userAgent: "tcg-ledger",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: otelhttp.NewTransport(&http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			}),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// request describes one API call.
type request struct {
	body        io.Reader
	query       url.Values
	method      string
	path        string
	op          string
	contentType string
}

func jsonRequest(method, path, op string, payload any) (request, error) {
	req := request{method: method, path: path, op: op}
	if payload == nil {
		return req, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("failed to marshal %s request: %w", op, err)
	}
	req.body = bytes.NewReader(data)
	req.contentType = "application/json"
	return req, nil
}

// send performs r and returns the response once its status is 2xx. The
// caller closes the body.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	u := *c.baseURL
	u.Path += r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), r.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", r.op, err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	if err := c.authorize(req); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &common.NetworkError{Op: r.op, Err: err}
	}

	slog.Debug("API request",
		"method", r.method,
		"path", u.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		return nil, decodeError(r.op, resp)
	}
	return resp, nil
}

// do performs r and decodes a JSON response into out. A nil out or a 204
// response skips decoding.
func (c *Client) do(ctx context.Context, r request, out any) error {
	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", r.op, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) error {
	if c.tokens == nil {
		return &common.AuthError{Reason: "no API token configured"}
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return &common.AuthError{Reason: "failed to obtain API token", Err: err}
	}
	if !tok.Valid() {
		return &common.AuthError{Reason: "API token is expired"}
	}
	tok.SetAuthHeader(req)
	return nil
}

// errorBody covers the error shapes the API returns.
type errorBody struct {
	Detail          json.RawMessage `json:"detail"`
	Message         string          `json:"message"`
	MaintenanceMode bool            `json:"maintenance_mode"`
}

func decodeError(op string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorBody
	_ = json.Unmarshal(data, &body)
	detail := detailText(body.Detail)

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable && body.MaintenanceMode:
		return &common.MaintenanceError{Message: body.Message}
	case resp.StatusCode == http.StatusUnauthorized:
		reason := detail
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return &common.AuthError{Reason: reason}
	}

	if detail == "" {
		detail = strings.TrimSpace(string(data))
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("%s: %w", op, &common.APIError{Status: resp.StatusCode, Detail: detail})
}

// detailText flattens "detail", which is a string for most errors and a
// list of field errors for request validation failures.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
		Loc []any  `json:"loc"`
	}
	if err := json.Unmarshal(raw, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if n := len(it.Loc); n > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[n-1], it.Msg))
				continue
			}
			msgs = append(msgs, it.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return string(raw)
}

