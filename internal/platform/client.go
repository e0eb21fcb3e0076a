// Package platform is the HTTP transport to the Memory Map backend. It knows how
// to build requests and read responses; the auth and api packages decide what a
// response means for the session.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/memorymap/internal/errors"
	"github.com/felixgeelhaar/memorymap/internal/log"
	"github.com/felixgeelhaar/memorymap/internal/version"
)

// DefaultBaseURL is the backend address used when none is configured.
const DefaultBaseURL = "http://localhost:8000"

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Client is the Memory Map backend transport
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string

	logger *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTPClient.Timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a new backend transport
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		UserAgent: version.GetInfo().UserAgent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.DefaultLogger()
	}
	return c
}

// URL joins the base URL and a path.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}

// Response is a fully read backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Do performs a request. body, when non-nil, is sent as JSON with a JSON
// content type. header entries are added to the request (typically the
// Authorization header). A non-2xx status is not an error at this layer.
func (c *Client) Do(ctx context.Context, method, path string, body any, header http.Header) (*Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeAPIEncode, "failed to marshal request body", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	url := c.URL(path)
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAPIRequest, "failed to create request", err)
	}

	requestID := uuid.NewString()
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set(RequestIDHeader, requestID)

	logger := c.logger.WithContext(log.ContextWithRequestID(ctx, requestID))
	start := time.Now()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logger.Debug("backend request failed", "method", method, "path", path, "error", err.Error())
		return nil, errors.NewUnreachableError(url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAPIRequest, "failed to read response body", err)
	}

	logger.Debug("backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		RequestID:  requestID,
	}, nil
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Unauthorized reports a 401 status.
func (r *Response) Unauthorized() bool {
	return r.StatusCode == http.StatusUnauthorized
}

// Decode parses the JSON body into target.
func (r *Response) Decode(target any) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		return errors.Wrap(errors.ErrCodeAPIDecode,
			fmt.Sprintf("failed to decode response (status %d)", r.StatusCode), err)
	}
	return nil
}

// ErrorMessage extracts the backend's error text from the body.
//
// Lookup order: "error", "detail", "message", then the first field error of a
// validation error map rendered as "field: message". When nothing usable is
// present, fallback is returned.
func (r *Response) ErrorMessage(fallback string) string {
	var body map[string]any
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return fallback
	}

	for _, key := range []string{"error", "detail", "message"} {
		if s, ok := body[key].(string); ok && s != "" {
			return s
		}
	}

	fields := make([]string, 0, len(body))
	for k := range body {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	for _, field := range fields {
		msg := firstMessage(body[field])
		if msg == "" {
			continue
		}
		if field == "non_field_errors" {
			return msg
		}
		return field + ": " + msg
	}

	return fallback
}

func firstMessage(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s := firstMessage(item); s != "" {
				return s
			}
		}
	}
	return ""
}
