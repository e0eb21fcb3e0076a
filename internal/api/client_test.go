package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/memorymap/internal/auth"
	"github.com/felixgeelhaar/memorymap/internal/errors"
	"github.com/felixgeelhaar/memorymap/internal/kv"
	"github.com/felixgeelhaar/memorymap/internal/log"
	"github.com/felixgeelhaar/memorymap/internal/platform"
	"github.com/felixgeelhaar/memorymap/internal/session"
	"github.com/felixgeelhaar/memorymap/internal/testutil"
)

type harness struct {
	backend *testutil.Backend
	mem     *kv.MemoryStore
	auth    *auth.Client
	api     *Client
	reloads atomic.Int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{backend: testutil.NewBackend(), mem: kv.NewMemoryStore()}
	t.Cleanup(h.backend.Close)

	transport := platform.NewClient(h.backend.URL(), platform.WithLogger(log.Discard()))
	store := session.NewStore(h.mem, log.Discard())
	h.auth = auth.NewClient(transport, store, log.Discard())
	t.Cleanup(h.auth.Wait)

	h.api = NewClient(transport, h.auth, ReloaderFunc(func(context.Context) { h.reloads.Add(1) }), log.Discard())
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	h.backend.AddUser("ada", "Secret123", nil)
	res := h.auth.Login(context.Background(), "ada", "Secret123")
	require.True(t, res.OK(), res.Message())
}

func TestGet_AttachesBearerAndReturnsBody(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.backend.AddMemoryMap("ada", "Trip", "Lisbon")

	res := h.api.Get(context.Background(), "/memory-maps/")
	require.True(t, res.OK(), res.Message())

	var maps []map[string]any
	require.NoError(t, json.Unmarshal(res.Value(), &maps))
	require.Len(t, maps, 1)
	assert.Equal(t, "Trip", maps[0]["title"])

	reqs := h.backend.RequestsTo("/api/memory-maps/")
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Authorization, "Bearer ")
}

func TestEndpointWithoutLeadingSlash(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	res := h.api.Get(context.Background(), "users/me/")
	require.True(t, res.OK(), res.Message())
	assert.Len(t, h.backend.RequestsTo("/api/users/me/"), 1)
}

func TestPostPutDelete(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	created := Decode[map[string]any](h.api.Post(ctx, "/memory-maps/", map[string]any{"title": "Trip", "description": "d"}))
	require.True(t, created.OK(), created.Message())
	assert.Equal(t, "Trip", created.Value()["title"])

	updated := Decode[map[string]any](h.api.Put(ctx, "/memory-maps/1/", map[string]any{"title": "Trip 2"}))
	require.True(t, updated.OK(), updated.Message())
	assert.Equal(t, "Trip 2", updated.Value()["title"])

	deleted := h.api.Delete(ctx, "/memory-maps/1/")
	require.True(t, deleted.OK(), deleted.Message())

	missing := h.api.Get(ctx, "/memory-maps/1/")
	require.False(t, missing.OK())
	assert.Equal(t, "Not found.", missing.Message())
}

func TestUnauthorized_TearsDownSessionOnEveryVerb(t *testing.T) {
	calls := map[string]func(c *Client, ctx context.Context) bool{
		http.MethodGet: func(c *Client, ctx context.Context) bool {
			return c.Get(ctx, "/memory-maps/").OK()
		},
		http.MethodPost: func(c *Client, ctx context.Context) bool {
			return c.Post(ctx, "/memory-maps/", map[string]any{"title": "x"}).OK()
		},
		http.MethodPut: func(c *Client, ctx context.Context) bool {
			return c.Put(ctx, "/memory-maps/1/", map[string]any{"title": "x"}).OK()
		},
		http.MethodDelete: func(c *Client, ctx context.Context) bool {
			return c.Delete(ctx, "/memory-maps/1/").OK()
		},
	}

	for verb, call := range calls {
		t.Run(verb, func(t *testing.T) {
			h := newHarness(t)
			h.login(t)
			h.backend.ExpireAll()
			require.Equal(t, 2, h.mem.Len())

			ok := call(h.api, context.Background())
			assert.False(t, ok)
			assert.Equal(t, 0, h.mem.Len(), "session must be cleared")
			assert.Equal(t, int32(1), h.reloads.Load(), "reload must be triggered")
		})
	}
}

func TestUnauthorized_MessageAndCode(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.backend.ExpireAll()

	res := h.api.Get(context.Background(), "/memory-maps/")
	require.False(t, res.OK())
	assert.Equal(t, "Given token not valid for any token type", res.Message())
	assert.True(t, errors.HasCode(res.Err(), errors.ErrCodeAuthSessionExpired))
}

func TestUnauthorized_AnonymousRequest(t *testing.T) {
	h := newHarness(t)

	res := h.api.Get(context.Background(), "/memory-maps/")
	require.False(t, res.OK())
	assert.Equal(t, int32(1), h.reloads.Load())
	assert.Empty(t, h.backend.RequestsTo("/api/memory-maps/")[0].Authorization)
}

func TestOtherStatus_LeavesSessionUntouched(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			h := newHarness(t)
			h.login(t)
			h.backend.Force("/api/memory-maps/", status)

			res := h.api.Get(context.Background(), "/memory-maps/")
			require.False(t, res.OK())
			assert.Contains(t, res.Message(), "forced status")
			assert.True(t, errors.HasCode(res.Err(), errors.ErrCodeAPIStatus))
			assert.Equal(t, 2, h.mem.Len())
			assert.Equal(t, int32(0), h.reloads.Load())
		})
	}
}

func TestTransportFailureResolvesToResult(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.backend.Close()

	res := h.api.Get(context.Background(), "/memory-maps/")
	require.False(t, res.OK())
	assert.Equal(t, FallbackMessage, res.Message())
	assert.True(t, errors.HasCode(res.Err(), errors.ErrCodeAPIUnreachable))
	assert.Equal(t, 2, h.mem.Len())
}

func TestNilReloader(t *testing.T) {
	h := newHarness(t)
	h.api.SetReloader(nil)

	res := h.api.Get(context.Background(), "/memory-maps/")
	assert.False(t, res.OK())
}

func TestDecode(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	type record struct {
		Title string `json:"title"`
	}
	h.backend.AddMemoryMap("ada", "Trip", "")

	list := Decode[[]record](h.api.Get(context.Background(), "/memory-maps/"))
	require.True(t, list.OK(), list.Message())
	assert.Equal(t, []record{{Title: "Trip"}}, list.Value())

	wrongShape := Decode[record](h.api.Get(context.Background(), "/memory-maps/"))
	require.False(t, wrongShape.OK())
	assert.True(t, errors.HasCode(wrongShape.Err(), errors.ErrCodeAPIDecode))
}
