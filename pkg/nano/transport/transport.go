// Package transport performs the raw request/response exchanges with the
// NaNoWriMo service. It knows nothing about resources, sessions or retries.
package transport

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
)

// DefaultBaseURL is the public API root
const DefaultBaseURL = "https://api.nanowrimo.org/"

// DefaultTimeout bounds a single exchange
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of a response body is read
const maxBodySize = 16 << 20

// Request is one outbound exchange
type Request struct {
	Method string
	// Path is relative to the base URL, or an absolute URL
	Path  string
	Query url.Values
	// Body is encoded as JSON for methods other than GET
	Body interface{}
	// Token is sent as the Authorization header when set
	Token     string
	RequestID string
}

// Response is the raw outcome of an exchange that reached the service
type Response struct {
	Status int
	Body   []byte
}

// Transport sends requests. An error means the exchange itself failed; any
// HTTP status is reported through Response.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Func adapts a function to the Transport interface
type Func func(ctx context.Context, req *Request) (*Response, error)

// Do calls f
func (f Func) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTP is a Transport over net/http
type HTTP struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
}

// Option configures an HTTP transport
type Option func(*HTTP)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) {
		h.httpClient = c
	}
}

// WithTimeout sets the per-exchange timeout
func WithTimeout(d time.Duration) Option {
	return func(h *HTTP) {
		h.httpClient.Timeout = d
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(h *HTTP) {
		h.userAgent = ua
	}
}

// NewHTTP creates a transport rooted at baseURL. An empty baseURL selects
// DefaultBaseURL.
func NewHTTP(baseURL string, opts ...Option) (*HTTP, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	h := &HTTP{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  "nanowrimo-go",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// BaseURL returns the API root requests are resolved against
func (h *HTTP) BaseURL() string {
	return h.baseURL.String()
}

// Resolve turns a request path into an absolute URL
func (h *HTTP) Resolve(path string) (*url.URL, error) {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return u, nil
	}
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	return h.baseURL.ResolveReference(ref), nil
}

// Do performs a single exchange
func (h *HTTP) Do(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u, err := h.Resolve(req.Path)
	if err != nil {
		return nil, err
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for key, values := range req.Query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if method != http.MethodGet && req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if h.userAgent != "" {
		httpReq.Header.Set("User-Agent", h.userAgent)
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", req.Token)
	}
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-ID", req.RequestID)
	}

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// TruncateBody shortens a response body for use in log lines and errors
func TruncateBody(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		return s[:200] + "... (truncated)"
	}
	return s
}
