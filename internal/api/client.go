// Package api is the generic client for authenticated calls to the Memory Map
// backend. Every call resolves to a result.Result; a 401 from any endpoint
// tears the session down.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/memorymap/internal/errors"
	"github.com/felixgeelhaar/memorymap/internal/log"
	"github.com/felixgeelhaar/memorymap/internal/platform"
	"github.com/felixgeelhaar/memorymap/internal/result"
)

// Prefix is prepended to every endpoint.
const Prefix = "/api"

// FallbackMessage is used when a failed response carries no error text.
const FallbackMessage = "Something went wrong"

// Authenticator supplies credentials and performs the forced logout.
type Authenticator interface {
	AuthHeader(ctx context.Context) http.Header
	Logout(ctx context.Context)
}

// Reloader re-reads session state after a forced logout.
type Reloader interface {
	Reload(ctx context.Context)
}

// ReloaderFunc adapts a function to Reloader.
type ReloaderFunc func(ctx context.Context)

// Reload calls f(ctx).
func (f ReloaderFunc) Reload(ctx context.Context) { f(ctx) }

// Client issues GET, POST, PUT and DELETE calls against backend endpoints.
type Client struct {
	transport *platform.Client
	auth      Authenticator
	reloader  Reloader
	logger    *log.Logger
}

// NewClient creates an API client. reloader may be nil.
func NewClient(transport *platform.Client, auth Authenticator, reloader Reloader, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Client{
		transport: transport,
		auth:      auth,
		reloader:  reloader,
		logger:    logger.With("component", "api"),
	}
}

// SetReloader replaces the reloader invoked after a forced logout.
func (c *Client) SetReloader(r Reloader) {
	c.reloader = r
}

// Get fetches endpoint.
func (c *Client) Get(ctx context.Context, endpoint string) result.Result[json.RawMessage] {
	return c.call(ctx, http.MethodGet, endpoint, nil)
}

// Post sends data to endpoint.
func (c *Client) Post(ctx context.Context, endpoint string, data any) result.Result[json.RawMessage] {
	return c.call(ctx, http.MethodPost, endpoint, orNull(data))
}

// Put replaces endpoint with data.
func (c *Client) Put(ctx context.Context, endpoint string, data any) result.Result[json.RawMessage] {
	return c.call(ctx, http.MethodPut, endpoint, orNull(data))
}

// Delete removes endpoint.
func (c *Client) Delete(ctx context.Context, endpoint string) result.Result[json.RawMessage] {
	return c.call(ctx, http.MethodDelete, endpoint, nil)
}

func (c *Client) call(ctx context.Context, method, endpoint string, body any) result.Result[json.RawMessage] {
	path := Prefix + normalize(endpoint)

	resp, err := c.transport.Do(ctx, method, path, body, c.auth.AuthHeader(ctx))
	if err != nil {
		c.logger.WithError(err).Debug("API error", "method", method, "endpoint", endpoint)
		code := errors.CodeOf(err)
		if code == "" {
			code = errors.ErrCodeAPIRequest
		}
		return result.Fail[json.RawMessage](errors.Wrap(code, FallbackMessage, err))
	}

	if !resp.OK() {
		msg := resp.ErrorMessage(FallbackMessage)
		if resp.Unauthorized() {
			c.logger.Warn("session rejected by backend, logging out", "endpoint", endpoint, "request_id", resp.RequestID)
			c.auth.Logout(ctx)
			if c.reloader != nil {
				c.reloader.Reload(ctx)
			}
			return result.Fail[json.RawMessage](errors.NewSessionExpiredError(msg))
		}
		return result.Fail[json.RawMessage](errors.New(errors.ErrCodeAPIStatus, msg))
	}

	data := json.RawMessage(resp.Body)
	if len(strings.TrimSpace(string(data))) == 0 {
		data = json.RawMessage("null")
	}
	if !json.Valid(data) {
		return result.Fail[json.RawMessage](errors.New(errors.ErrCodeAPIDecode, FallbackMessage))
	}
	return result.Ok(data)
}

// Decode parses a successful raw result into T. Failures pass through.
func Decode[T any](r result.Result[json.RawMessage]) result.Result[T] {
	return result.Map(r, func(raw json.RawMessage) (T, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return v, errors.Wrap(errors.ErrCodeAPIDecode, "unexpected response shape", err)
		}
		return v, nil
	})
}

func normalize(endpoint string) string {
	if endpoint == "" || endpoint[0] != '/' {
		return "/" + endpoint
	}
	return endpoint
}

// orNull keeps a JSON body on POST and PUT even when data is nil.
func orNull(data any) any {
	if data == nil {
		return json.RawMessage("null")
	}
	return data
}
