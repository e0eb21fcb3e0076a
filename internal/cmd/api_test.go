package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/memorymap/internal/errors"
)

func TestAPI_Get(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, _, err := h.run("api", "get", "users/me/")
	require.NoError(t, err)
	assert.Contains(t, out, `"username": "ada"`)

	reqs := h.backend.RequestsTo("/api/users/me/")
	require.Len(t, reqs, 1)
	assert.True(t, strings.HasPrefix(reqs[0].Authorization, "Bearer "))
}

func TestAPI_PostPutDelete(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, _, err := h.run("api", "post", "/memory-maps/", `{"title": "Porto"}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Porto"`)

	out, _, err = h.runWithInput(`{"title": "Porto", "description": "Bridges"}`, "api", "put", "/memory-maps/1/", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"description": "Bridges"`)

	out, _, err = h.run("--format", "yaml", "api", "delete", "/memory-maps/1/")
	require.NoError(t, err)
	assert.Equal(t, "deleted: true\n", out)
}

func TestAPI_InvalidBody(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, _, err := h.run("api", "post", "/memory-maps/", "{not json")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAPIEncode))
	assert.Empty(t, h.backend.RequestsTo("/api/memory-maps/"))
}

func TestAPI_BackendError(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, _, err := h.run("api", "post", "/memory-maps/", `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title: This field is required.")

	out, _, err := h.run("auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as", "only a 401 ends the session")
}

func TestAPI_Unauthorized(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.ExpireAll()

	_, stderr, err := h.run("api", "get", "/memory-maps/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Given token not valid for any token type")
	assert.Contains(t, stderr, msgSessionExpired)
}

func TestReadBody(t *testing.T) {
	body, err := readBody(`{"a": 1}`, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, body)

	body, err = readBody("-", strings.NewReader(`[1, 2]`))
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, body)

	_, err = readBody("", nil)
	assert.Error(t, err)
}
