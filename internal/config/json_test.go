package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"data_dir":  "/var/lib/ledger",
		"log_level": "error",
	})
	partial := writeTempJSON(t, dir, "partial.json", map[string]any{
		"log_level": "debug",
	})

	t.Run("loads from -config", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", full}

		cfg := &Config{DataDir: "default", LogLevel: "info"}
		parseJson(cfg)

		assert.Equal(t, "/var/lib/ledger", cfg.DataDir)
		assert.Equal(t, "error", cfg.LogLevel)
	})

	t.Run("missing keys keep current values", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{DataDir: "default", LogLevel: "info"}
		parseJson(cfg)

		assert.Equal(t, "default", cfg.DataDir)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{DataDir: "default", LogLevel: "info"}
		parseJson(cfg)

		assert.Equal(t, "default", cfg.DataDir)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "nope.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
