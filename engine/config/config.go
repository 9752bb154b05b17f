// Package config loads meshbuf settings from a YAML file, OXYMESH_* environment variables and
// built-in defaults, in increasing order of precedence for environment over file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-mesh/engine/batch"
	"github.com/Carmen-Shannon/oxy-mesh/engine/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/geometry"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Geometry GeometryConfig `mapstructure:"geometry"`
	Device   DeviceConfig   `mapstructure:"device"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type GeometryConfig struct {
	Hint          string `mapstructure:"hint"`
	TangentPolicy string `mapstructure:"tangent_policy"`
}

type DeviceConfig struct {
	Label                string `mapstructure:"label"`
	ForceFallbackAdapter bool   `mapstructure:"force_fallback_adapter"`
}

type BatchConfig struct {
	Workers     int           `mapstructure:"workers"`
	QueueSize   int           `mapstructure:"queue_size"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

// Default returns the configuration used when no file or environment overrides exist.
// A zero worker count means one worker per CPU but one.
func Default() *Config {
	return &Config{
		Geometry: GeometryConfig{
			Hint:          device.HintStatic.String(),
			TangentPolicy: geometry.TangentPolicySkip.String(),
		},
		Device: DeviceConfig{
			Label: "meshbuf",
		},
		Batch: BatchConfig{
			Workers:     0,
			QueueSize:   256,
			IdleTimeout: 1 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Load reads configuration from cfgFile, or from config.yaml in $HOME/.oxy-mesh or the working
// directory when cfgFile is empty. A missing default file is not an error.
//
// Parameters:
//   - cfgFile: explicit config file path, or ""
//
// Returns:
//   - *Config: the validated configuration
//   - error: error if the file cannot be read or a value is invalid
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	cfg := Default()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".oxy-mesh"))
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("OXYMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Logging.File = expandPath(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks every enumerated and numeric setting.
func (c *Config) Validate() error {
	if _, err := device.ParseUsageHint(c.Geometry.Hint); err != nil {
		return fmt.Errorf("geometry.hint: %w", err)
	}
	if _, err := geometry.ParseTangentPolicy(c.Geometry.TangentPolicy); err != nil {
		return fmt.Errorf("geometry.tangent_policy: %w", err)
	}
	if c.Batch.Workers < 0 {
		return errors.New("batch.workers must not be negative")
	}
	if c.Batch.QueueSize < 0 {
		return errors.New("batch.queue_size must not be negative")
	}

	validLevels := []string{"trace", "debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}
	return nil
}

// GeometryOptions converts the geometry section into mesh builder options.
// The config must have passed Validate.
func (c *Config) GeometryOptions() []geometry.StaticGeometryBuilderOption {
	hint, _ := device.ParseUsageHint(c.Geometry.Hint)
	policy, _ := geometry.ParseTangentPolicy(c.Geometry.TangentPolicy)
	return []geometry.StaticGeometryBuilderOption{
		geometry.WithHint(hint),
		geometry.WithTangentPolicy(policy),
	}
}

// RunnerOptions converts the batch section into runner options.
func (c *Config) RunnerOptions() []batch.RunnerBuilderOption {
	return []batch.RunnerBuilderOption{
		batch.WithWorkers(c.Batch.Workers),
		batch.WithQueueSize(c.Batch.QueueSize),
		batch.WithIdleTimeout(c.Batch.IdleTimeout),
	}
}

// DeviceOptions converts the device section into WebGPU device options.
func (c *Config) DeviceOptions() []device.WGPUDeviceBuilderOption {
	return []device.WGPUDeviceBuilderOption{
		device.WithLabel(c.Device.Label),
		device.WithForceFallbackAdapter(c.Device.ForceFallbackAdapter),
	}
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("geometry.hint", cfg.Geometry.Hint)
	v.SetDefault("geometry.tangent_policy", cfg.Geometry.TangentPolicy)

	v.SetDefault("device.label", cfg.Device.Label)
	v.SetDefault("device.force_fallback_adapter", cfg.Device.ForceFallbackAdapter)

	v.SetDefault("batch.workers", cfg.Batch.Workers)
	v.SetDefault("batch.queue_size", cfg.Batch.QueueSize)
	v.SetDefault("batch.idle_timeout", cfg.Batch.IdleTimeout)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.console", cfg.Logging.Console)
}
