package config

import (
	"os"
	"time"

	"codeberg.org/treska/revmon/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultInterval     = 50   // milliseconds, the 20 Hz cadence of the reference hardware
	defaultCountsPerRev = 4096 // 1024 PPR encoder in x4 quadrature mode
	defaultWindow       = 20
	defaultDatabase     = "/var/lib/revmon/telemetry.db"
	defaultDeviceType   = "sim"
	defaultBaud         = 115200
)

// DeviceConfig selects and parameterizes the raw sample source.
type DeviceConfig struct {
	Type string `mapstructure:"type"` // sim, serial or i2c
	Port string `mapstructure:"port"` // serial device path
	Baud int    `mapstructure:"baud"`
	Bus  string `mapstructure:"bus"`  // i2c bus name, empty picks the first available
	Addr int    `mapstructure:"addr"` // i2c peripheral address
}

type Config struct {
	Interval     int          `mapstructure:"interval"` // tick period in milliseconds
	CountsPerRev int          `mapstructure:"counts-per-rev"`
	Window       int          `mapstructure:"window"` // smoothing window in ticks
	LogLevel     string       `mapstructure:"log-level"`
	Telemetry    bool         `mapstructure:"telemetry"`
	Database     string       `mapstructure:"database"`
	Listen       string       `mapstructure:"listen"` // websocket feed address, empty disables
	Device       DeviceConfig `mapstructure:"device"`
}

func Load() (*Config, error) {
	errFactory := errors.New()

	flags := pflag.NewFlagSet("revmon", pflag.ContinueOnError)
	flags.Int("interval", defaultInterval, "Tick period in milliseconds")
	flags.Int("counts-per-rev", defaultCountsPerRev, "Encoder counts per shaft revolution")
	flags.Int("window", defaultWindow, "Rate smoothing window in ticks")
	flags.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	flags.Bool("telemetry", false, "Enable telemetry collection")
	flags.String("database", defaultDatabase, "Path to the telemetry database")
	flags.String("listen", "", "Listen address for the websocket feed")
	flags.String("source", defaultDeviceType, "Sample source type (sim, serial, i2c)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("counts-per-rev", defaultCountsPerRev)
	v.SetDefault("window", defaultWindow)
	v.SetDefault("log-level", DefaultLogLevel)
	v.SetDefault("telemetry", false)
	v.SetDefault("database", defaultDatabase)
	v.SetDefault("listen", "")
	v.SetDefault("device.type", defaultDeviceType)
	v.SetDefault("device.port", "")
	v.SetDefault("device.baud", defaultBaud)
	v.SetDefault("device.bus", "")
	v.SetDefault("device.addr", 0)

	v.SetConfigType("toml")
	if path := os.Getenv("REVMON_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("revmon")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	// Command line flags override file values
	flags.Visit(func(f *pflag.Flag) {
		key := f.Name
		if key == "source" {
			key = "device.type"
		}
		v.Set(key, f.Value.String())
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.CountsPerRev <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "counts-per-rev must be positive")
	}
	if c.Window <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "window must be positive")
	}

	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	switch c.Device.Type {
	case "sim", "serial", "i2c":
	default:
		return errFactory.WithData(errors.ErrInvalidConfig, "unknown device type: "+c.Device.Type)
	}

	if c.Telemetry && c.Database == "" {
		return errFactory.WithData(errors.ErrMissingConfig, "telemetry enabled without database path")
	}

	return nil
}

// TickPeriod returns the configured tick period as a duration.
func (c *Config) TickPeriod() time.Duration {
	return time.Duration(c.Interval) * time.Millisecond
}

// IsDebug returns whether debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsVerbose returns whether info-level logging is enabled
func (c *Config) IsVerbose() bool {
	return c.LogLevel == "debug" || c.LogLevel == "info"
}
