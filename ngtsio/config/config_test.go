package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "parquet", cfg.Dataset.Backend)
	assert.Equal(t, 32.0, cfg.Corrections.CCD.Precision)
	assert.Equal(t, 1024.0, cfg.Corrections.Centroid.Precision)
	assert.NotEmpty(t, cfg.Corrections.RadianVersions)
}

func TestRadianVersion(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Corrections.RadianVersion("TEST18"))
	assert.True(t, cfg.Corrections.RadianVersion("TEST16A"))
	assert.False(t, cfg.Corrections.RadianVersion("CYCLE1807"))
	assert.False(t, cfg.Corrections.RadianVersion(""))
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataset:
  root: /archive/ngts
  backend: arrow
corrections:
  ccd:
    precision: 64.0
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/archive/ngts", cfg.Dataset.Root)
	assert.Equal(t, "arrow", cfg.Dataset.Backend)
	assert.Equal(t, 64.0, cfg.Corrections.CCD.Precision)
	assert.Equal(t, 1024.0, cfg.Corrections.Centroid.Precision, "unset values keep their defaults")
}
