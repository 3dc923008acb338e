// ABOUTME: HTTP client for the wishlist REST API
// ABOUTME: Single request primitive that attaches base URL, bearer token and request IDs

package client

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
	"golang.org/x/oauth2"
)

const (
	headerContentType = "Content-Type"
	headerUserAgent   = "User-Agent"
	headerRequestID   = "X-Request-ID"
	contentTypeJSON   = "application/json"
	userAgent         = "wishlist-cli/1.0"

	// DefaultTimeout applies when no timeout is configured
	DefaultTimeout = 30 * time.Second
)

// TokenSource is a read-only view of the persisted bearer token
type TokenSource interface {
	Get() (string, bool)
}

// Client is the API client for the wishlist backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTokenSource sets where the bearer token is read from
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithTimeout overrides the transport timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient uses a copy of hc; hc itself is never modified
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.httpClient = &cp
	}
}

// WithLogger sets the logger used for request logging
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a new API client with the given base URL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.Transport = newLoggingTransport(c.httpClient.Transport, c.logger)
	return c
}

// BaseURL returns the backend URL this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request performs one API call. body is JSON-encoded when non-nil, params become the
// query string, and a 2xx JSON response is decoded into out when out is non-nil.
// Failures are always *APIError.
func (c *Client) Request(ctx context.Context, method, path string, body any, params url.Values, out any) error {
	var bodyReader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindRequest, Message: "failed to marshal request body", Err: err}
		}
		bodyReader = bytes.NewReader(data)
		contentType = contentTypeJSON
	}
	return c.send(ctx, method, path, params, bodyReader, contentType, out)
}

// send issues the request with an already encoded body of the given content type
func (c *Client) send(ctx context.Context, method, path string, params url.Values, bodyReader io.Reader, contentType string, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return &APIError{Kind: KindRequest, Message: "failed to create request", Err: err}
	}
	req.Header.Set(headerUserAgent, userAgent)
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set(headerRequestID, uuid.NewString())
	if contentType != "" {
		req.Header.Set(headerContentType, contentType)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.requestError(ctx, err)
	}
	defer resp.Body.Close()

	requestID := req.Header.Get(headerRequestID)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.requestError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, respBody, requestID)
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &APIError{
				Kind:       KindTransient,
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("invalid response from backend: %v", err),
				RequestID:  requestID,
				Err:        err,
			}
		}
	}

	return nil
}

// authorize attaches the bearer token when one is present
func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	token, ok := c.tokens.Get()
	if !ok {
		return
	}
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.Request(ctx, http.MethodGet, path, nil, params, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, http.MethodPost, path, body, nil, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, http.MethodPut, path, body, nil, out)
}

func (c *Client) delete(ctx context.Context, path string, body any) error {
	return c.Request(ctx, http.MethodDelete, path, body, nil, nil)
}

// pathf builds a path with escaped segments
func pathf(format string, segments ...any) string {
	escaped := make([]any, len(segments))
	for i, s := range segments {
		switch v := s.(type) {
		case string:
			escaped[i] = url.PathEscape(v)
		default:
			escaped[i] = v
		}
	}
	return fmt.Sprintf(format, escaped...)
}
