package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sape94/NIQ-sp-proj/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, info, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.False(t, info.Found)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, model.DefaultSamplingParams(), cfg.Sampling.Params())
}

func TestLoadFileOverridesSections(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 8080

[data]
data_dir = "/tmp/samples"
export_ttl_minutes = 5

[sampling]
confidence_level = 99
standard_error = 0.03
seed = 42

[log]
level = "debug"
development = true
`)

	cfg, info, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, info.Found)
	assert.True(t, info.PortSpecified)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/tmp/samples", cfg.Data.DataDir)
	assert.Equal(t, 5*time.Minute, cfg.Data.ExportTTL())
	assert.Equal(t, 16, cfg.Data.MaxUniverses, "unset keys keep defaults")
	assert.Equal(t, 99, cfg.Sampling.ConfidenceLevel)
	assert.Equal(t, 0.03, cfg.Sampling.StandardError)
	assert.Equal(t, 0.5, cfg.Sampling.SamplePortion)
	assert.Equal(t, int64(42), cfg.Sampling.Seed)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
}

func TestPortNotSpecified(t *testing.T) {
	path := writeConfig(t, "[server]\ndev_mode = true\n")

	cfg, info, err := LoadFile(path)
	require.NoError(t, err)
	assert.False(t, info.PortSpecified)
	assert.True(t, cfg.Server.DevMode)
	assert.Equal(t, 20261, cfg.Server.Port)
}

func TestLoadFileInvalid(t *testing.T) {
	path := writeConfig(t, "[server\nport = ")
	_, _, err := LoadFile(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvDataDir, "/var/lib/storesampler")
	t.Setenv(EnvSeed, "7")

	cfg, _, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/storesampler", cfg.Data.DataDir)
	assert.Equal(t, int64(7), cfg.Sampling.Seed)
}

func TestEnvSeedInvalid(t *testing.T) {
	t.Setenv(EnvSeed, "seven")
	_, _, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	cfg := DefaultConfig()
	cfg.Server.Port = 9000
	cfg.Sampling.Seed = 99

	require.NoError(t, SaveConfig(cfg, path))
	loaded, _, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnsureDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.DataDir = filepath.Join(t.TempDir(), "data")

	dir, err := EnsureDataDir(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Data.DataDir, dir)
	assert.DirExists(t, filepath.Join(dir, "exports"))
	assert.Equal(t, filepath.Join(dir, "exports", "sample.xlsx"), GetDataPath(cfg, "exports", "sample.xlsx"))
}

func TestInitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", FileName)

	require.NoError(t, InitFile(path, false))
	cfg, info, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, info.Found)
	assert.True(t, info.PortSpecified)
	assert.Equal(t, DefaultConfig(), cfg)

	assert.Error(t, InitFile(path, false), "existing file is kept")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 1\n"), 0644))
	require.NoError(t, InitFile(path, true))
	cfg, _, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 20261, cfg.Server.Port)
}

func TestResolveOutputPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.DataDir = filepath.Join(t.TempDir(), "data")

	abs := filepath.Join(t.TempDir(), "out.xlsx")
	got, err := ResolveOutputPath(cfg, abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	got, err = ResolveOutputPath(cfg, filepath.Join("runs", "design.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Data.DataDir, "exports", "runs", "design.xlsx"), got)
	assert.DirExists(t, filepath.Join(cfg.Data.DataDir, "exports", "runs"))
}
