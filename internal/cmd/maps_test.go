package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/memorymap/internal/errors"
	"github.com/felixgeelhaar/memorymap/internal/exitcode"
	"github.com/felixgeelhaar/memorymap/internal/memorymap"
)

func TestMaps_RequireLogin(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{
		{"maps", "list"},
		{"maps", "show", "1"},
		{"maps", "create", "--title", "Lisbon"},
		{"maps", "delete", "1", "--yes"},
		{"dashboard"},
	} {
		_, _, err := h.run(args...)
		require.Error(t, err, "%v", args)
		assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err), "%v", args)
	}
	assert.Empty(t, h.backend.Requests(), "the guard stops commands before any request")
}

func TestMaps_Lifecycle(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, _, err := h.run("maps", "list")
	require.NoError(t, err)
	assert.Equal(t, "No memory maps yet. Create your first one!\n", out)

	out, _, err = h.run("maps", "create", "--title", "Lisbon", "--description", "Trams and tiles")
	require.NoError(t, err)
	assert.Equal(t, "Created memory map 1: Lisbon\n", out)

	out, _, err = h.run("maps", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Lisbon")
	assert.Contains(t, out, "Trams and tiles")

	out, _, err = h.run("maps", "update", "1", "--description", "Pastéis")
	require.NoError(t, err)
	assert.Equal(t, "Updated memory map 1: Lisbon\n", out)

	out, _, err = h.run("maps", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Pastéis")

	out, _, err = h.run("maps", "delete", "1", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "Deleted memory map 1.\n", out)

	out, _, err = h.run("maps", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No memory maps yet")
}

func TestMaps_ListJSON(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.AddMemoryMap("ada", "Lisbon", "")
	h.backend.AddMemoryMap("someone-else", "Hidden", "")

	out, _, err := h.run("--format", "json", "maps", "list")
	require.NoError(t, err)

	var maps []memorymap.MemoryMap
	require.NoError(t, json.Unmarshal([]byte(out), &maps))
	require.Len(t, maps, 1)
	assert.Equal(t, "Lisbon", maps[0].Title)
}

func TestMaps_DeleteAsksForConfirmation(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.AddMemoryMap("ada", "Lisbon", "")

	out, stderr, err := h.runWithInput("n\n", "maps", "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "Aborted.\n", out)
	assert.Contains(t, stderr, "Delete memory map 1? (y/N)")
	assert.Empty(t, h.backend.RequestsTo("/api/memory-maps/1/"))

	out, _, err = h.runWithInput("y\n", "maps", "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted memory map 1.\n", out)
}

func TestMaps_InvalidInput(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, _, err := h.run("maps", "show", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid memory map id "abc"`)

	_, _, err = h.run("maps", "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Pass --title")

	_, _, err = h.run("maps", "create", "--title", "Lisbon", "--latitude", "120")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))

	assert.Empty(t, h.backend.RequestsTo("/api/memory-maps/"))
}

func TestMaps_NotFound(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, _, err := h.run("maps", "show", "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not found.")
	assert.True(t, errors.HasCode(err, errors.ErrCodeAPIStatus))
}

func TestMaps_ExpiredSession(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.backend.ExpireAll()

	_, stderr, err := h.run("maps", "list")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAuthSessionExpired))
	assert.Contains(t, stderr, msgSessionExpired)
	assert.Len(t, h.backend.Revoked(), 1)

	_, _, err = h.run("maps", "list")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAuthNotLoggedIn), "the stored session was cleared")
}

func TestMapList_RenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, mapList{{ID: 3, Title: "Porto"}}.RenderText(&buf))
	assert.Contains(t, buf.String(), "No description")
	assert.Contains(t, buf.String(), "-")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "a b", truncate("a\nb", 5))
}
