package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits to prevent resource exhaustion when many query
// job handles share one client
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second // conservative: matches common ALB defaults
)

// apiPrefix is the versioned REST prefix appended to every base URL.
const apiPrefix = "api/v1/"

// Response holds the result of an HTTP request made by [Client].
//
// Response captures all relevant information from an HTTP request including
// the body (limited to 1MB), status code, latency, and any error that occurred.
type Response struct {
	// Body contains the HTTP response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code (e.g., 200, 404, 500).
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error contains any error that occurred during the request.
	// nil indicates the request completed (though status may indicate an error).
	Error error
}

// Client is an HTTP client wrapper bound to a single LogLens base URL.
//
// Client joins the configured base URL with the versioned API prefix and
// issues requests relative to it. Response bodies are limited to 1MB.
// A Client is safe for concurrent use and may be shared by any number of
// query job handles.
type Client struct {
	restURL    string // base URL joined with apiPrefix, trailing slash
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a [Client] for the LogLens instance at baseURL.
//
// The base URL must use an http or https scheme; a trailing slash is
// optional. If httpClient is nil, a client with connection pooling limits
// tuned for long-lived polling sessions is used. If logger is nil,
// [slog.Default] is used.
//
// Connection pooling configuration of the default client:
//   - MaxIdleConns: 100 total idle connections
//   - MaxIdleConnsPerHost: 10 idle connections per host
//   - MaxConnsPerHost: 10 concurrent connections per host
//   - IdleConnTimeout: 60 seconds before closing idle connections
func NewClient(baseURL string, httpClient *http.Client, userAgent string, logger *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", baseURL)
	}

	if httpClient == nil {
		httpClient = &http.Client{
			// no default timeout - cancellation is per-request via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
				DisableKeepAlives:   false, // explicitly enable connection reuse
			},
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		restURL:    strings.TrimRight(baseURL, "/") + "/" + apiPrefix,
		httpClient: httpClient,
		userAgent:  userAgent,
		logger:     logger,
	}, nil
}

// Do performs one HTTP request against the endpoint path, relative to the
// client's versioned base URL, and returns a structured [Response].
//
// Headers are applied verbatim; the client only fills in User-Agent and
// X-Request-Id when the caller has not set them. The request id is a fresh
// UUID per call and appears in the debug logs on both the request and the
// response line, so a poll sequence can be correlated across log output.
//
// Do always returns a Response; errors are captured in the Error field
// rather than returned separately. This keeps status interpretation and
// failure handling in one place for the calling code.
func (c *Client) Do(ctx context.Context, method, endpoint string, headers map[string]string, body []byte) Response {
	start := time.Now()
	requestID := uuid.NewString()

	var payload io.Reader
	if len(body) > 0 {
		payload = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.restURL+endpoint, payload)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Header.Get("X-Request-Id") == "" {
		req.Header.Set("X-Request-Id", requestID)
	}

	c.logger.Debug("request started",
		"request_id", requestID,
		"method", method,
		"endpoint", endpoint,
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	// read body with size limit
	limitedReader := io.LimitReader(resp.Body, maxResponseBodySize)
	respBody, err := io.ReadAll(limitedReader)
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	latency := time.Since(start)
	c.logger.Debug("request completed",
		"request_id", requestID,
		"status", resp.StatusCode,
		"latency_ms", latency.Milliseconds(),
		"bytes", len(respBody),
	)

	return Response{
		Body:       respBody,
		StatusCode: resp.StatusCode,
		Latency:    latency,
		Error:      nil,
	}
}

// Close closes all idle connections in the client's connection pool.
//
// This should be called when the client is no longer needed to release
// resources immediately rather than waiting for the idle connection timeout.
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
