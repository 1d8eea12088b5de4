package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/sape94/NIQ-sp-proj/internal/model"
)

// Environment overrides.
const (
	EnvDataDir = "STORESAMPLER_DATA_DIR"
	EnvSeed    = "STORESAMPLER_SEED"
)

// FileName is looked up next to the executable.
const FileName = "config.toml"

// AppConfig application configuration
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Sampling SamplingConfig `toml:"sampling"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig HTTP server
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig data directory and caches
type DataConfig struct {
	DataDir          string `toml:"data_dir"`
	ExportTTLMinutes int    `toml:"export_ttl_minutes"`
	MaxUniverses     int    `toml:"max_universes"`
}

// SamplingConfig statistical defaults
type SamplingConfig struct {
	SamplePortion   float64 `toml:"sample_portion"`
	ConfidenceLevel int     `toml:"confidence_level"`
	StandardError   float64 `toml:"standard_error"`
	// Seed feeds every random draw. 0 seeds from the clock.
	Seed int64 `toml:"seed"`
}

// LogConfig logger
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// LoadConfigInfo what the loaded file set explicitly
type LoadConfigInfo struct {
	Path          string
	Found         bool
	PortSpecified bool
}

// DefaultConfig default configuration
func DefaultConfig() *AppConfig {
	defaults := model.DefaultSamplingParams()
	return &AppConfig{
		Server: ServerConfig{
			Port:    20261,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir:          "data",
			ExportTTLMinutes: 30,
			MaxUniverses:     16,
		},
		Sampling: SamplingConfig{
			SamplePortion:   defaults.SamplePortion,
			ConfidenceLevel: defaults.ConfidenceLevel,
			StandardError:   defaults.StandardError,
			Seed:            1,
		},
		Log: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// Params returns the sampling section as sample-size parameters.
func (c SamplingConfig) Params() model.SamplingParams {
	return model.SamplingParams{
		SamplePortion:   c.SamplePortion,
		ConfidenceLevel: c.ConfidenceLevel,
		StandardError:   c.StandardError,
	}
}

// ExportTTL returns how long download tokens live.
func (c DataConfig) ExportTTL() time.Duration {
	if c.ExportTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.ExportTTLMinutes) * time.Minute
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir returns the directory of the running executable.
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultPath is config.toml next to the executable, or in the working
// directory when the executable cannot be located.
func DefaultPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, FileName)
}

// LoadConfigWithInfo loads config.toml from next to the executable.
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadFile(DefaultPath())
}

// LoadFile loads a config file over the defaults and applies environment
// overrides. A missing file yields the defaults.
func LoadFile(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.Found = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, info, err
	}

	if err := applyEnv(config); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

func applyEnv(config *AppConfig) error {
	if v := os.Getenv(EnvDataDir); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		config.Sampling.Seed = seed
	}
	return nil
}

// SaveConfig writes the configuration to path.
func SaveConfig(config *AppConfig, path string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// InitFile writes the default configuration to path. An existing file is
// kept unless force is set.
func InitFile(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		} else if !os.IsNotExist(err) {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return SaveConfig(DefaultConfig(), path)
}

// ResolveDataDir returns the data directory. Relative paths are taken from
// the executable's directory.
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir creates the data directory and its subdirectories.
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	for _, subdir := range []string{"exports"} {
		if err := os.MkdirAll(filepath.Join(dataDir, subdir), 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// GetDataPath returns the path of a file inside a data subdirectory.
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(ResolveDataDir(config), subdir, filename)
}

// ResolveOutputPath places relative output files under the exports
// directory, creating it as needed. Absolute paths are returned unchanged.
func ResolveOutputPath(config *AppConfig, out string) (string, error) {
	if filepath.IsAbs(out) {
		return out, nil
	}
	if _, err := EnsureDataDir(config); err != nil {
		return "", err
	}
	path := GetDataPath(config, "exports", out)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	return path, nil
}
