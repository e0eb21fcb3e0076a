package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/memorymap/internal/errors"
	"github.com/felixgeelhaar/memorymap/internal/kv"
	"github.com/felixgeelhaar/memorymap/internal/log"
	"github.com/felixgeelhaar/memorymap/internal/platform"
	"github.com/felixgeelhaar/memorymap/internal/session"
	"github.com/felixgeelhaar/memorymap/internal/testutil"
)

type fixture struct {
	backend *testutil.Backend
	mem     *kv.MemoryStore
	store   *session.Store
	client  *Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := testutil.NewBackend()
	t.Cleanup(backend.Close)

	mem := kv.NewMemoryStore()
	store := session.NewStore(mem, log.Discard())
	transport := platform.NewClient(backend.URL(), platform.WithLogger(log.Discard()))
	client := NewClient(transport, store, log.Discard())
	t.Cleanup(client.Wait)

	return &fixture{backend: backend, mem: mem, store: store, client: client}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	f.backend.AddUser("ada", "Secret123", map[string]any{"email": "ada@example.com"})
	res := f.client.Login(context.Background(), "ada", "Secret123")
	require.True(t, res.OK(), res.Message())
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	f.backend.AddUser("ada", "Secret123", map[string]any{"first_name": "Ada"})
	ctx := context.Background()

	res := f.client.Login(ctx, "ada", "Secret123")
	require.True(t, res.OK(), res.Message())
	assert.Equal(t, "ada", res.Value().Username())

	snap := f.store.Read(ctx)
	require.True(t, snap.HasUser())
	assert.Equal(t, "Ada", snap.User.FirstName())
	require.NotNil(t, snap.Tokens)
	assert.NotEmpty(t, snap.Tokens.Access)
	assert.NotEmpty(t, snap.Tokens.Refresh)
	assert.Equal(t, 2, f.mem.Len())

	reqs := f.backend.RequestsTo(TokenPath)
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].Authorization)
	assert.Equal(t, "ada", reqs[0].Body["username"])
}

func TestLogin_RepeatedLoginDoesNotDuplicate(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	first := f.store.Read(context.Background()).Tokens.Access

	res := f.client.Login(context.Background(), "ada", "Secret123")
	require.True(t, res.OK())

	snap := f.store.Read(context.Background())
	assert.NotEqual(t, first, snap.Tokens.Access)
	assert.Equal(t, 2, f.mem.Len())
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)
	f.backend.AddUser("ada", "Secret123", nil)

	res := f.client.Login(context.Background(), "ada", "wrong")
	require.False(t, res.OK())
	assert.Equal(t, "No active account found with the given credentials", res.Message())
	assert.True(t, errors.HasCode(res.Err(), errors.ErrCodeAuthInvalidCredentials))
	assert.Equal(t, 0, f.mem.Len())
}

func TestLogin_BadCredentialsLeavesExistingSession(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	before := f.store.Read(context.Background())

	res := f.client.Login(context.Background(), "ada", "wrong")
	require.False(t, res.OK())

	after := f.store.Read(context.Background())
	assert.Equal(t, before.Tokens, after.Tokens)
}

func TestLogin_BackendUnreachable(t *testing.T) {
	f := newFixture(t)
	f.backend.Close()

	res := f.client.Login(context.Background(), "ada", "Secret123")
	require.False(t, res.OK())
	assert.Equal(t, "Login failed", res.Message())
	assert.True(t, errors.HasCode(res.Err(), errors.ErrCodeAPIUnreachable))
}

func TestLogin_NonJSONSuccessBody(t *testing.T) {
	f := newFixture(t)
	f.backend.Force(TokenPath, 200)

	// The forced body is an error object without "user"; it must not be stored.
	res := f.client.Login(context.Background(), "ada", "Secret123")
	require.False(t, res.OK())
	assert.Equal(t, 0, f.mem.Len())
}

func TestLogin_SuccessWithoutAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user": {"username": "ada"}}`))
	}))
	t.Cleanup(srv.Close)

	mem := kv.NewMemoryStore()
	store := session.NewStore(mem, log.Discard())
	client := NewClient(platform.NewClient(srv.URL, platform.WithLogger(log.Discard())), store, log.Discard())
	ctx := context.Background()

	res := client.Login(ctx, "ada", "Secret123")
	require.False(t, res.OK())
	assert.Equal(t, "Login failed", res.Message())
	assert.Equal(t, 0, mem.Len())
	assert.Empty(t, client.AuthHeader(ctx))

	reg := client.Register(ctx, RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "Secret123", Password2: "Secret123"})
	require.False(t, reg.OK())
	assert.Equal(t, "Registration failed", reg.Message())
	assert.Equal(t, 0, mem.Len())
}

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.client.Register(ctx, RegisterRequest{
		Username:  "grace",
		Email:     "grace@example.com",
		Password:  "Secret123",
		Password2: "Secret123",
		FirstName: "Grace",
		LastName:  "Hopper",
	})
	require.True(t, res.OK(), res.Message())
	assert.Equal(t, "grace", res.Value().Username())

	snap := f.store.Read(ctx)
	assert.Equal(t, "Hopper", snap.User.LastName())
	assert.NotEmpty(t, snap.AccessToken())

	reqs := f.backend.RequestsTo(RegisterPath)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Secret123", reqs[0].Body["password2"])
	assert.Equal(t, "Grace", reqs[0].Body["first_name"])
	assert.Equal(t, "Hopper", reqs[0].Body["last_name"])
}

func TestRegister_BackendValidationError(t *testing.T) {
	f := newFixture(t)
	f.backend.AddUser("grace", "x", nil)

	res := f.client.Register(context.Background(), RegisterRequest{
		Username: "grace", Password: "Secret123", Password2: "Secret123",
	})
	require.False(t, res.OK())
	assert.Equal(t, "username: A user with that username already exists.", res.Message())
	assert.Equal(t, 0, f.mem.Len())
}

func TestRegister_ErrorFieldVerbatim(t *testing.T) {
	f := newFixture(t)
	f.backend.Force(RegisterPath, 500)

	res := f.client.Register(context.Background(), RegisterRequest{Username: "x"})
	require.False(t, res.OK())
	assert.Equal(t, "forced status 500", res.Message())
}

func TestLogout_ClearsStoreAndRevokesRefreshToken(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()
	refresh := f.store.Read(ctx).RefreshToken()
	access := f.store.Read(ctx).AccessToken()

	f.client.Logout(ctx)
	assert.Equal(t, 0, f.mem.Len())

	f.client.Wait()
	assert.Equal(t, []string{refresh}, f.backend.Revoked())

	reqs := f.backend.RequestsTo(LogoutPath)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer "+access, reqs[0].Authorization)
}

func TestLogout_ClearsStoreWhenBackendFails(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.backend.FailLogout()

	f.client.Logout(context.Background())
	f.client.Wait()

	assert.Equal(t, 0, f.mem.Len())
	assert.Empty(t, f.backend.Revoked())
}

func TestLogout_ClearsStoreWhenBackendDown(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.backend.Close()

	f.client.Logout(context.Background())
	f.client.Wait()

	assert.Equal(t, 0, f.mem.Len())
}

func TestLoginAndLogout_RecoverFromCorruptSessionFile(t *testing.T) {
	backend := testutil.NewBackend()
	t.Cleanup(backend.Close)
	backend.AddUser("ada", "Secret123", nil)

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	file, err := kv.NewFileStore(path)
	require.NoError(t, err)

	store := session.NewStore(file, log.Discard())
	client := NewClient(platform.NewClient(backend.URL(), platform.WithLogger(log.Discard())), store, log.Discard())
	t.Cleanup(client.Wait)
	ctx := context.Background()

	assert.False(t, store.Read(ctx).HasUser())

	res := client.Login(ctx, "ada", "Secret123")
	require.True(t, res.OK(), res.Message())
	assert.Equal(t, "ada", store.Read(ctx).User.Username())

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	client.Logout(ctx)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]string
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Empty(t, doc)
}

func TestLogout_DoesNotWaitForBackend(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	release := f.backend.HoldLogout()
	defer release()
	f.client.SetLogoutTimeout(2 * time.Second)

	done := make(chan struct{})
	go func() {
		f.client.Logout(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("logout blocked on the backend")
	}
	assert.Equal(t, 0, f.mem.Len())

	release()
	f.client.Wait()
	assert.Len(t, f.backend.Revoked(), 1)
}

func TestLogout_TimesOut(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	release := f.backend.HoldLogout()
	defer release()
	f.client.SetLogoutTimeout(50 * time.Millisecond)

	f.client.Logout(context.Background())

	waited := make(chan struct{})
	go func() {
		f.client.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("background logout ignored its timeout")
	}
	assert.Equal(t, 0, f.mem.Len())
}

func TestLogout_WithoutSessionMakesNoRequest(t *testing.T) {
	f := newFixture(t)

	f.client.Logout(context.Background())
	f.client.Wait()

	assert.Empty(t, f.backend.RequestsTo(LogoutPath))
}

func TestLogout_SurvivesCancelledContext(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.client.Logout(ctx)
	f.client.Wait()

	assert.Equal(t, 0, f.mem.Len())
	assert.Len(t, f.backend.Revoked(), 1)
}

func TestUpdateProfile_UpdatesOnlyUser(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()
	tokensBefore := f.store.Read(ctx).Tokens

	res := f.client.UpdateProfile(ctx, map[string]any{"first_name": "Augusta"})
	require.True(t, res.OK(), res.Message())
	assert.Equal(t, "Augusta", res.Value().FirstName())

	snap := f.store.Read(ctx)
	assert.Equal(t, "Augusta", snap.User.FirstName())
	assert.Equal(t, tokensBefore, snap.Tokens)

	reqs := f.backend.RequestsTo(ProfilePath)
	require.Len(t, reqs, 1)
	assert.Equal(t, "PATCH", reqs[0].Method)
	assert.True(t, strings.HasPrefix(reqs[0].Authorization, "Bearer "))
}

func TestUpdateProfile_BackendRejects(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	res := f.client.UpdateProfile(ctx, map[string]any{"email": "bad"})
	require.False(t, res.OK())
	assert.Equal(t, "email: Enter a valid email address.", res.Message())
	assert.Equal(t, "ada@example.com", f.store.Read(ctx).User.Email())
}

func TestUpdateProfile_NotLoggedIn(t *testing.T) {
	f := newFixture(t)

	res := f.client.UpdateProfile(context.Background(), map[string]any{"first_name": "x"})
	require.False(t, res.OK())
	assert.True(t, errors.HasCode(res.Err(), errors.ErrCodeAuthNotLoggedIn))
	assert.Empty(t, f.backend.Requests())
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()
	before := f.store.Read(ctx)

	res := f.client.ChangePassword(ctx, "Secret123", "Better456", "Better456")
	require.True(t, res.OK(), res.Message())
	assert.Equal(t, "Password updated successfully", res.Value()["message"])

	assert.Equal(t, before.Tokens, f.store.Read(ctx).Tokens, "change password must not touch the store")
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	res := f.client.ChangePassword(context.Background(), "nope", "Better456", "Better456")
	require.False(t, res.OK())
	assert.Equal(t, "current_password: Wrong password.", res.Message())
}

func TestChangePassword_NotLoggedIn(t *testing.T) {
	f := newFixture(t)

	res := f.client.ChangePassword(context.Background(), "a", "b", "b")
	require.False(t, res.OK())
	assert.True(t, errors.HasCode(res.Err(), errors.ErrCodeAuthNotLoggedIn))
}

func TestAuthHeader(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Empty(t, f.client.AuthHeader(ctx))

	require.NoError(t, f.store.Save(ctx, session.UserProfile{"username": "ada"}, session.TokenPair{Access: "acc", Refresh: "ref"}))
	h := f.client.AuthHeader(ctx)
	assert.Equal(t, "Bearer acc", h.Get("Authorization"))
	assert.Equal(t, h, f.client.AuthHeader(ctx), "AuthHeader must be idempotent")
	assert.Equal(t, 2, f.mem.Len())

	require.NoError(t, f.store.Save(ctx, session.UserProfile{"username": "ada"}, session.TokenPair{Refresh: "ref"}))
	assert.Empty(t, f.client.AuthHeader(ctx))

	assert.Empty(t, f.backend.Requests(), "AuthHeader must not touch the network")
}
