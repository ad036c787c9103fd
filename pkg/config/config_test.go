package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transitx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
transit_dir: /data/transit
concurrency: 4
hierarchy:
  tile_dir: /data/tiles
  levels:
    - level: 2
      size_deg: 0.25
      name: local
`))
		require.NoError(t, err)
		assert.Equal(t, "/data/transit", cfg.TransitDir)
		assert.Equal(t, 4, cfg.Concurrency)
		assert.Equal(t, "/data/tiles", cfg.Hierarchy.TileDir)
		require.Len(t, cfg.Hierarchy.Levels, 1)
		assert.Equal(t, 0.25, cfg.Hierarchy.Levels[0].SizeDeg)
	})

	t.Run("defaults fill levels and concurrency", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "hierarchy:\n  tile_dir: /data/tiles\n"))
		require.NoError(t, err)
		assert.Equal(t, DefaultLevels(), cfg.Hierarchy.Levels)
		assert.Equal(t, runtime.NumCPU(), cfg.Concurrency)
	})

	t.Run("missing tile_dir fails validation", func(t *testing.T) {
		_, err := Load(writeConfig(t, "transit_dir: /data/transit\n"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load("/nonexistent/transitx.yaml")
		assert.Error(t, err)
	})
}
