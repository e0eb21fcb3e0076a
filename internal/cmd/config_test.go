package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/memorymap/internal/config"
)

func TestConfigPath(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(h.home, ".memorymap", "config.yaml")+"\n", out)

	out, _, err = h.run("--config", "/tmp/custom.yaml", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.yaml\n", out)
}

func TestConfigInit(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.home, "config.yaml")

	out, _, err := h.run("--config", path, "config", "init")
	require.NoError(t, err)
	assert.Equal(t, "Wrote "+path+"\n", out)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, h.backend.URL(), cfg.API.URL, "global flags are written to the file")
	assert.Equal(t, h.sessionFile(), cfg.Session.Path)

	_, _, err = h.run("--config", path, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	_, _, err = h.run("--config", path, "config", "init", "--force")
	require.NoError(t, err)
}

func TestConfigView(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.home, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n"), 0o644))

	out, _, err := h.run("--config", path, "config", "view")
	require.NoError(t, err)
	assert.Contains(t, out, "# "+path)
	assert.Contains(t, out, "url: "+h.backend.URL())
	assert.Contains(t, out, "level: error")

	out, _, err = h.run("--config", path, "-o", "json", "config", "view")
	require.NoError(t, err)
	var view struct {
		File   string `json:"file"`
		Config struct {
			Log struct {
				Level string `json:"level"`
			} `json:"log"`
		} `json:"config"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, path, view.File)
	assert.Equal(t, "error", view.Config.Log.Level)
}

func TestConfigFromEnvironment(t *testing.T) {
	h := newHarness(t)
	envSession := filepath.Join(h.home, "env-session.json")
	t.Setenv("MEMORYMAP_SESSION_PATH", envSession)
	h.backend.AddUser("ada", "Secret123", nil)

	var out, errOut bytes.Buffer
	err := Run(context.Background(),
		[]string{"--api-url", h.backend.URL(), "auth", "login", "-u", "ada", "-p", "Secret123"},
		strings.NewReader(""), &out, &errOut)
	require.NoError(t, err)
	assert.FileExists(t, envSession)
}
