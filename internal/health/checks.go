package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/felixgeelhaar/memorymap/internal/auth"
	"github.com/felixgeelhaar/memorymap/internal/config"
	"github.com/felixgeelhaar/memorymap/internal/platform"
	"github.com/felixgeelhaar/memorymap/internal/session"
)

// ConfigChecker reports which configuration is in effect. Loading already
// validated it, so it never fails.
type ConfigChecker struct {
	File   string
	Config *config.Config
}

func (c ConfigChecker) Name() string { return "config" }

func (c ConfigChecker) Check(context.Context) *Result {
	var res *Result
	if c.File == "" {
		res = Healthy("no config file, using defaults and environment").
			WithSuggestion("Run 'memorymap config init' to write one")
	} else {
		res = Healthy("loaded " + c.File)
	}
	return res.WithDetail("api_url", c.Config.API.URL).WithDetail("timeout", c.Config.API.Timeout.String())
}

// SessionFileChecker inspects the file holding the stored session. Tokens
// must not be readable by other users.
type SessionFileChecker struct {
	Path string
}

func (c SessionFileChecker) Name() string { return "session-file" }

func (c SessionFileChecker) Check(context.Context) *Result {
	info, err := os.Stat(c.Path)
	switch {
	case os.IsNotExist(err):
		return Healthy("no session stored yet").WithDetail("path", c.Path)
	case err != nil:
		return Unhealthy(err.Error()).WithDetail("path", c.Path).
			WithSuggestion("Check permissions of the directory or pass --session-file")
	case info.IsDir():
		return Unhealthy(c.Path + " is a directory").WithSuggestion("Pass --session-file with a file path")
	}

	mode := info.Mode().Perm()
	res := Healthy("session file present").WithDetail("path", c.Path).WithDetail("mode", fmt.Sprintf("%04o", mode))
	if mode&0o077 != 0 {
		res = Degraded("session file is readable by other users").WithDetail("path", c.Path).
			WithDetail("mode", fmt.Sprintf("%04o", mode)).
			WithSuggestion("chmod 600 " + c.Path)
	}
	return res
}

// BackendChecker sends one unauthenticated request to the API root. Any
// HTTP answer below 500 proves the backend is reachable.
type BackendChecker struct {
	Transport *platform.Client
}

func (c BackendChecker) Name() string { return "backend" }

func (c BackendChecker) Check(ctx context.Context) *Result {
	url := c.Transport.URL("/api/")
	start := time.Now()
	resp, err := c.Transport.Do(ctx, http.MethodGet, "/api/", nil, nil)
	latency := time.Since(start)
	if err != nil {
		res := Unhealthy("backend unreachable").WithDetail("url", url).WithDetail("error", err.Error()).
			WithSuggestion("Check that the Memory Map backend is running and --api-url points at it")
		res.Latency = latency
		return res
	}

	res := Healthy(fmt.Sprintf("reachable (HTTP %d)", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		res = Degraded(fmt.Sprintf("backend answered with HTTP %d", resp.StatusCode))
	}
	res.Latency = latency
	return res.WithDetail("url", url).WithDetail("request_id", resp.RequestID)
}

// TokenChecker inspects the stored access token without contacting the
// backend.
type TokenChecker struct {
	Store *session.Store
	Now   func() time.Time
}

func (c TokenChecker) Name() string { return "access-token" }

func (c TokenChecker) Check(ctx context.Context) *Result {
	tokens := c.Store.Tokens(ctx)
	if tokens == nil || tokens.Access == "" {
		return Healthy("not logged in")
	}

	claims, err := auth.ParseAccessToken(tokens.Access)
	if err != nil {
		return Degraded("stored access token is not a JWT").
			WithSuggestion("Run 'memorymap auth logout' and log in again")
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	exp := claims.Expiry()
	switch {
	case exp.IsZero():
		return Healthy("access token has no expiry")
	case claims.Expired(now()):
		return Degraded("access token expired at " + exp.Format(time.RFC3339)).
			WithSuggestion("The next request ends the session; run 'memorymap auth login'")
	default:
		return Healthy("valid until " + exp.Format(time.RFC3339)).
			WithDetail("expires_in", exp.Sub(now()).Round(time.Second).String())
	}
}
