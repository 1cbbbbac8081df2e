package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/treska/revmon/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetArgs(t *testing.T) {
	t.Helper()
	oldArgs := os.Args
	os.Args = []string{"revmon"}
	t.Cleanup(func() { os.Args = oldArgs })
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "revmon.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	resetArgs(t)

	configPath := writeConfig(t, `
interval = 20
counts-per-rev = 2048
window = 10
log-level = "debug"
telemetry = true
database = "/path/to/telemetry.db"
listen = "127.0.0.1:8700"

[device]
type = "serial"
port = "/dev/ttyACM0"
baud = 250000
`)
	t.Setenv("REVMON_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Interval, "Expected Interval 20")
	assert.Equal(t, 2048, cfg.CountsPerRev, "Expected CountsPerRev 2048")
	assert.Equal(t, 10, cfg.Window, "Expected Window 10")
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel debug")
	assert.True(t, cfg.Telemetry, "Expected Telemetry true")
	assert.Equal(t, "/path/to/telemetry.db", cfg.Database)
	assert.Equal(t, "127.0.0.1:8700", cfg.Listen)
	assert.Equal(t, "serial", cfg.Device.Type)
	assert.Equal(t, "/dev/ttyACM0", cfg.Device.Port)
	assert.Equal(t, 250000, cfg.Device.Baud)
}

func TestLoadDefaults(t *testing.T) {
	resetArgs(t)

	// Ensure no config file is used
	configPath := writeConfig(t, "")
	t.Setenv("REVMON_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, 50, cfg.Interval, "Expected default Interval 50")
	assert.Equal(t, 4096, cfg.CountsPerRev, "Expected default CountsPerRev 4096")
	assert.Equal(t, 20, cfg.Window, "Expected default Window 20")
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel, "Expected default LogLevel info")
	assert.False(t, cfg.Telemetry, "Expected default Telemetry false")
	assert.Empty(t, cfg.Listen, "Expected websocket feed disabled by default")
	assert.Equal(t, "sim", cfg.Device.Type, "Expected default device type sim")
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	resetArgs(t)

	configPath := writeConfig(t, "This is not a valid TOML file\n")
	t.Setenv("REVMON_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read configuration")
}

func TestInvalidLogLevel(t *testing.T) {
	resetArgs(t)

	configPath := writeConfig(t, `
log-level = "invalid"
`)
	t.Setenv("REVMON_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_log_level")
}

func TestInvalidDeviceType(t *testing.T) {
	resetArgs(t)

	configPath := writeConfig(t, `
[device]
type = "gpib"
`)
	t.Setenv("REVMON_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown device type")
}

func TestInvalidInterval(t *testing.T) {
	resetArgs(t)

	configPath := writeConfig(t, `
interval = 0
`)
	t.Setenv("REVMON_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid interval")
}

func TestSourceFlag(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"revmon", "--source", "serial"}

	configPath := writeConfig(t, "")
	t.Setenv("REVMON_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "serial", cfg.Device.Type, "Expected device type to be set by flag")
}

func TestTickPeriod(t *testing.T) {
	cfg := &config.Config{Interval: 50}
	assert.Equal(t, int64(50_000_000), cfg.TickPeriod().Nanoseconds())
}
