// File: internal/config/config.go
package config

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Sessions SessionsConfig `mapstructure:"sessions" yaml:"sessions"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup" yaml:"cleanup"`
	Runner   RunnerConfig   `mapstructure:"runner" yaml:"runner"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// ServerConfig tunes the HTTP surface.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst" yaml:"rate_burst"`
}

// BrowserConfig holds settings for the automation engine instances.
type BrowserConfig struct {
	DefaultVariant string        `mapstructure:"default_variant" yaml:"default_variant"`
	InstallOnStart bool          `mapstructure:"install_on_start" yaml:"install_on_start"`
	LaunchTimeout  time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	Args           []string      `mapstructure:"args" yaml:"args"`
}

// StorageConfig locates the recordings tree on disk.
type StorageConfig struct {
	Root string `mapstructure:"root" yaml:"root"`
}

// SessionsConfig bounds session behavior.
type SessionsConfig struct {
	MaxConcurrent        int64         `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	DefaultViewportW     int           `mapstructure:"default_viewport_width" yaml:"default_viewport_width"`
	DefaultViewportH     int           `mapstructure:"default_viewport_height" yaml:"default_viewport_height"`
	DefaultActionTimeout time.Duration `mapstructure:"default_action_timeout" yaml:"default_action_timeout"`
}

// CleanupConfig drives the background stale-session sweeper.
type CleanupConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	MaxAge   time.Duration `mapstructure:"max_age" yaml:"max_age"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// RunnerConfig configures the external command-execution proxy.
type RunnerConfig struct {
	ReasoningBin string        `mapstructure:"reasoning_bin" yaml:"reasoning_bin"`
	Workdir      string        `mapstructure:"workdir" yaml:"workdir"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// current stores the process-wide configuration set during CLI bootstrap.
var current atomic.Pointer[Config]

// Set installs cfg as the process configuration.
func Set(cfg *Config) { current.Store(cfg) }

// Get returns the process configuration, falling back to defaults when the
// bootstrap has not run (primarily in tests).
func Get() *Config {
	if cfg := current.Load(); cfg != nil {
		return cfg
	}
	return NewDefaultConfig()
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with a default-only viper, but fail loudly if it does.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "conductor")
	v.SetDefault("logger.log_file", "conductor.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Server --
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "20s")
	v.SetDefault("server.rate_limit", 50.0)
	v.SetDefault("server.rate_burst", 100)

	// -- Browser --
	v.SetDefault("browser.default_variant", "chromium")
	v.SetDefault("browser.install_on_start", false)
	v.SetDefault("browser.launch_timeout", "60s")

	// -- Storage --
	v.SetDefault("storage.root", "./recordings")

	// -- Sessions --
	v.SetDefault("sessions.max_concurrent", 10)
	v.SetDefault("sessions.default_viewport_width", 1280)
	v.SetDefault("sessions.default_viewport_height", 720)
	v.SetDefault("sessions.default_action_timeout", "5s")

	// -- Cleanup --
	v.SetDefault("cleanup.enabled", true)
	v.SetDefault("cleanup.max_age", "24h")
	v.SetDefault("cleanup.interval", "1h")

	// -- Runner --
	v.SetDefault("runner.reasoning_bin", "claude")
	v.SetDefault("runner.workdir", "")
	v.SetDefault("runner.timeout", "30s")
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Storage.Root == "" {
		return fmt.Errorf("storage.root is a required configuration field")
	}
	if c.Sessions.MaxConcurrent <= 0 {
		return fmt.Errorf("sessions.max_concurrent must be a positive integer")
	}
	if c.Sessions.DefaultViewportW <= 0 || c.Sessions.DefaultViewportH <= 0 {
		return fmt.Errorf("sessions default viewport dimensions must be positive")
	}
	if c.Cleanup.Enabled && c.Cleanup.Interval <= 0 {
		return fmt.Errorf("cleanup.interval must be a positive duration when cleanup is enabled")
	}
	if c.Runner.Timeout <= 0 {
		return fmt.Errorf("runner.timeout must be a positive duration")
	}
	return nil
}
