package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/username/persiandate/pkg/persiandate"
)

const envPrefix = "PERSIANDATE"

// Config represents application configuration
type Config struct {
	Output OutputConfig `mapstructure:"output"`
	Batch  BatchConfig  `mapstructure:"batch"`
	Daemon DaemonConfig `mapstructure:"daemon"`
	Log    LogConfig    `mapstructure:"log"`
}

// OutputConfig controls how Persian dates are rendered
type OutputConfig struct {
	Format   string `mapstructure:"format"` // us, international or hyphenated
	ZeroPad  bool   `mapstructure:"zero_pad"`
	Encoding string `mapstructure:"encoding" validate:"oneof=text json yaml"`
}

// BatchConfig represents batch conversion settings
type BatchConfig struct {
	Progress    bool   `mapstructure:"progress"`
	FailFast    bool   `mapstructure:"fail_fast"`
	MetricsFile string `mapstructure:"metrics_file"` // empty disables the textfile export
}

// DaemonConfig represents daemon mode configuration
type DaemonConfig struct {
	DailyTime   string `mapstructure:"daily_time" validate:"omitempty,datetime=15:04"` // HH:MM, local time
	OutputFile  string `mapstructure:"output_file" validate:"required"`
	MetricsFile string `mapstructure:"metrics_file"`
	SystemTray  bool   `mapstructure:"system_tray"` // Windows only
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format:   persiandate.Hyphenated.String(),
			ZeroPad:  true,
			Encoding: "text",
		},
		Batch: BatchConfig{
			Progress: true,
		},
		Daemon: DaemonConfig{
			DailyTime:  "00:05",
			OutputFile: "persiandate.today",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("output.format", def.Output.Format)
	v.SetDefault("output.zero_pad", def.Output.ZeroPad)
	v.SetDefault("output.encoding", def.Output.Encoding)
	v.SetDefault("batch.progress", def.Batch.Progress)
	v.SetDefault("batch.fail_fast", def.Batch.FailFast)
	v.SetDefault("batch.metrics_file", def.Batch.MetricsFile)
	v.SetDefault("daemon.daily_time", def.Daemon.DailyTime)
	v.SetDefault("daemon.output_file", def.Daemon.OutputFile)
	v.SetDefault("daemon.metrics_file", def.Daemon.MetricsFile)
	v.SetDefault("daemon.system_tray", def.Daemon.SystemTray)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.level", def.Log.Level)
}

// Load loads configuration from file, .env and PERSIANDATE_* variables.
// An empty configPath searches the default locations; a missing file there
// is not an error
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("persiandate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.persiandate")
		v.AddConfigPath("/etc/persiandate")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if _, err := persiandate.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}

	return nil
}

// FormatOptions returns the converter options for the configured output
func (c *OutputConfig) FormatOptions() []persiandate.Option {
	// Validate has already rejected unknown names
	format, _ := persiandate.ParseFormat(c.Format)
	return []persiandate.Option{
		persiandate.WithFormat(format),
		persiandate.WithZeroPad(c.ZeroPad),
	}
}

// GetDailyTime returns the configured daily run time (local time).
// Returns hour and minute (0-23, 0-59). Default: 00:05
func (c *DaemonConfig) GetDailyTime() (hour, minute int) {
	if c.DailyTime == "" {
		return 0, 5
	}

	var h, m int
	_, err := fmt.Sscanf(c.DailyTime, "%d:%d", &h, &m)
	if err != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 5
	}
	return h, m
}
