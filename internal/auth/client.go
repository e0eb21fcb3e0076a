// Package auth issues the authentication operations against the backend and
// writes their outcome through to the persistent session store.
package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/memorymap/internal/errors"
	"github.com/felixgeelhaar/memorymap/internal/log"
	"github.com/felixgeelhaar/memorymap/internal/platform"
	"github.com/felixgeelhaar/memorymap/internal/result"
	"github.com/felixgeelhaar/memorymap/internal/session"
)

// Backend endpoints, relative to the backend base URL.
const (
	RegisterPath       = "/api/users/register/"
	TokenPath          = "/api/users/token/"
	LogoutPath         = "/api/users/logout/"
	ProfilePath        = "/api/users/profile/"
	ChangePasswordPath = "/api/users/change-password/"
)

// Messages used when the backend gives no usable error text.
const (
	msgRegistrationFailed = "Registration failed"
	msgLoginFailed        = "Login failed"
	msgProfileFailed      = "Failed to update profile"
	msgPasswordFailed     = "Failed to change password"
)

// DefaultLogoutTimeout bounds the background refresh-token invalidation.
const DefaultLogoutTimeout = 10 * time.Second

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	NewPassword2    string `json:"new_password2"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type registerResponse struct {
	User   session.UserProfile `json:"user"`
	Tokens session.TokenPair   `json:"tokens"`
}

type loginResponse struct {
	User    session.UserProfile `json:"user"`
	Access  string              `json:"access"`
	Refresh string              `json:"refresh"`
}

type profileResponse struct {
	User session.UserProfile `json:"user"`
}

// Client performs authentication round trips.
//
// Every operation returns a result.Result; no operation returns a bare error or
// panics on backend or transport failure.
type Client struct {
	transport     *platform.Client
	store         *session.Store
	logger        *log.Logger
	logoutTimeout time.Duration

	inflight sync.WaitGroup
}

// NewClient creates an auth client.
func NewClient(transport *platform.Client, store *session.Store, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Client{
		transport:     transport,
		store:         store,
		logger:        logger.With("component", "auth"),
		logoutTimeout: DefaultLogoutTimeout,
	}
}

// SetLogoutTimeout changes how long the background logout request may run.
func (c *Client) SetLogoutTimeout(d time.Duration) {
	c.logoutTimeout = d
}

// Register creates an account and, on success, persists the returned user and
// token pair.
func (c *Client) Register(ctx context.Context, req RegisterRequest) result.Result[session.UserProfile] {
	resp, err := c.transport.Do(ctx, http.MethodPost, RegisterPath, req, nil)
	if err != nil {
		return result.Fail[session.UserProfile](errors.Wrap(errors.ErrCodeAuthRegistrationFailed, msgRegistrationFailed, err))
	}
	if !resp.OK() {
		return result.Fail[session.UserProfile](errors.New(errors.ErrCodeAuthRegistrationFailed, resp.ErrorMessage(msgRegistrationFailed)))
	}

	var body registerResponse
	if err := resp.Decode(&body); err != nil {
		return result.Fail[session.UserProfile](errors.Wrap(errors.ErrCodeAuthRegistrationFailed, msgRegistrationFailed, err))
	}
	if body.User == nil || body.Tokens.Access == "" {
		return result.Fail[session.UserProfile](errors.New(errors.ErrCodeAuthRegistrationFailed, msgRegistrationFailed))
	}

	if err := c.store.Save(ctx, body.User, body.Tokens); err != nil {
		return result.Fail[session.UserProfile](errors.Wrap(errors.ErrCodeAuthRegistrationFailed, msgRegistrationFailed, err))
	}

	c.logger.Info("registered", "username", body.User.Username())
	return result.Ok(body.User)
}

// Login exchanges credentials for a token pair and persists the session.
func (c *Client) Login(ctx context.Context, username, password string) result.Result[session.UserProfile] {
	resp, err := c.transport.Do(ctx, http.MethodPost, TokenPath, loginRequest{Username: username, Password: password}, nil)
	if err != nil {
		return result.Fail[session.UserProfile](errors.Wrap(errors.ErrCodeAuthInvalidCredentials, msgLoginFailed, err))
	}
	if !resp.OK() {
		return result.Fail[session.UserProfile](errors.NewInvalidCredentialsError(resp.ErrorMessage(msgLoginFailed)))
	}

	var body loginResponse
	if err := resp.Decode(&body); err != nil {
		return result.Fail[session.UserProfile](errors.Wrap(errors.ErrCodeAuthInvalidCredentials, msgLoginFailed, err))
	}
	if body.User == nil || body.Access == "" {
		return result.Fail[session.UserProfile](errors.New(errors.ErrCodeAuthInvalidCredentials, msgLoginFailed))
	}

	tokens := session.TokenPair{Access: body.Access, Refresh: body.Refresh}
	if err := c.store.Save(ctx, body.User, tokens); err != nil {
		return result.Fail[session.UserProfile](errors.Wrap(errors.ErrCodeAuthInvalidCredentials, msgLoginFailed, err))
	}

	c.logger.Info("logged in", "username", body.User.Username())
	return result.Ok(body.User)
}

// Logout ends the session locally and asks the backend to invalidate the
// refresh token.
//
// The invalidation request runs in the background on a context detached from
// ctx and bounded by the logout timeout; its outcome is only logged. The store
// is cleared unconditionally, so logout always succeeds locally. Call Wait
// before process exit to let the request finish.
func (c *Client) Logout(ctx context.Context) {
	tokens := c.store.Tokens(ctx)
	if tokens != nil && tokens.Refresh != "" {
		header := bearer(tokens.Access)
		body := logoutRequest{RefreshToken: tokens.Refresh}

		c.inflight.Add(1)
		go func() {
			defer c.inflight.Done()

			bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.logoutTimeout)
			defer cancel()

			resp, err := c.transport.Do(bg, http.MethodPost, LogoutPath, body, header)
			switch {
			case err != nil:
				c.logger.WithError(err).Warn("refresh token invalidation failed")
			case !resp.OK():
				c.logger.Warn("refresh token invalidation rejected",
					"status", resp.StatusCode,
					"error", resp.ErrorMessage("unknown"))
			default:
				c.logger.Debug("refresh token invalidated")
			}
		}()
	}

	if err := c.store.Clear(ctx); err != nil {
		c.logger.WithError(err).Error("failed to clear session")
		return
	}
	c.logger.Info("logged out")
}

// Wait blocks until background logout requests have finished.
func (c *Client) Wait() {
	c.inflight.Wait()
}

// UpdateProfile patches profile fields. On success only the stored user entry
// is replaced; the tokens are untouched.
func (c *Client) UpdateProfile(ctx context.Context, fields map[string]any) result.Result[session.UserProfile] {
	header := c.AuthHeader(ctx)
	if len(header) == 0 {
		return result.Fail[session.UserProfile](errors.NewNotLoggedInError())
	}

	resp, err := c.transport.Do(ctx, http.MethodPatch, ProfilePath, fields, header)
	if err != nil {
		return result.Fail[session.UserProfile](errors.Wrap(errors.ErrCodeAuthProfileFailed, msgProfileFailed, err))
	}
	if !resp.OK() {
		return result.Fail[session.UserProfile](errors.New(errors.ErrCodeAuthProfileFailed, resp.ErrorMessage(msgProfileFailed)))
	}

	var body profileResponse
	if err := resp.Decode(&body); err != nil {
		return result.Fail[session.UserProfile](errors.Wrap(errors.ErrCodeAuthProfileFailed, msgProfileFailed, err))
	}
	if body.User == nil {
		return result.Fail[session.UserProfile](errors.New(errors.ErrCodeAuthProfileFailed, resp.ErrorMessage(msgProfileFailed)))
	}

	if err := c.store.SaveUser(ctx, body.User); err != nil {
		return result.Fail[session.UserProfile](errors.Wrap(errors.ErrCodeAuthProfileFailed, msgProfileFailed, err))
	}
	return result.Ok(body.User)
}

// ChangePassword changes the account password. The backend response is passed
// through as-is; the stored session is not modified.
func (c *Client) ChangePassword(ctx context.Context, current, newPassword, confirm string) result.Result[map[string]any] {
	header := c.AuthHeader(ctx)
	if len(header) == 0 {
		return result.Fail[map[string]any](errors.NewNotLoggedInError())
	}

	req := changePasswordRequest{CurrentPassword: current, NewPassword: newPassword, NewPassword2: confirm}
	resp, err := c.transport.Do(ctx, http.MethodPost, ChangePasswordPath, req, header)
	if err != nil {
		return result.Fail[map[string]any](errors.Wrap(errors.ErrCodeAuthPasswordFailed, msgPasswordFailed, err))
	}
	if !resp.OK() {
		return result.Fail[map[string]any](errors.New(errors.ErrCodeAuthPasswordFailed, resp.ErrorMessage(msgPasswordFailed)))
	}

	body := map[string]any{}
	if len(resp.Body) > 0 {
		if err := resp.Decode(&body); err != nil {
			return result.Fail[map[string]any](errors.Wrap(errors.ErrCodeAuthPasswordFailed, msgPasswordFailed, err))
		}
	}
	return result.Ok(body)
}

// AuthHeader returns the Authorization header for the stored access token, or
// an empty header for anonymous requests. It never performs I/O beyond reading
// the store.
func (c *Client) AuthHeader(ctx context.Context) http.Header {
	tokens := c.store.Tokens(ctx)
	if tokens == nil {
		return http.Header{}
	}
	return bearer(tokens.Access)
}

// Session returns the persisted session.
func (c *Client) Session(ctx context.Context) session.Snapshot {
	return c.store.Read(ctx)
}

func bearer(access string) http.Header {
	if access == "" {
		return http.Header{}
	}
	return http.Header{"Authorization": []string{"Bearer " + access}}
}
