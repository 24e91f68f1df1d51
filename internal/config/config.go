package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/reportlog/internal/logging"
)

// EnvPrefix is prepended to every environment override, e.g.
// REPORTLOG_REPORT_LOG_PATH for report_log.path.
const EnvPrefix = "REPORTLOG"

// Config represents the complete reportlog configuration
type Config struct {
	ReportLog ReportLogConfig `mapstructure:"report_log" yaml:"report_log"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// ReportLogConfig controls where and how session events are serialized
type ReportLogConfig struct {
	// Path is the report log destination. Empty disables report logging.
	// A .gz, .bz2 or .xz suffix selects compression.
	Path string `mapstructure:"path" yaml:"path"`
	// SummaryLevel switches to a filtered JSON array document when set to
	// "passed", "skipped" or "failed" (default: "none", one JSON line per event)
	SummaryLevel string `mapstructure:"summary_level" yaml:"summary_level"`
	// ExcludeLogsOnPassedTests drops captured log sections from passed tests
	ExcludeLogsOnPassedTests bool `mapstructure:"exclude_logs_on_passed_tests" yaml:"exclude_logs_on_passed_tests"`
	// Version is written into SessionStart in place of the Go version
	Version string `mapstructure:"version" yaml:"version,omitempty"`
}

// LoggingConfig controls diagnostic logging behavior
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "warn")
	Level string `mapstructure:"level" yaml:"level"`
	// File sends logs to a rotating JSON file instead of stderr
	File string `mapstructure:"file" yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress gzips rotated backups
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		ReportLog: ReportLogConfig{
			SummaryLevel: "none",
		},
		Logging: LoggingConfig{
			Level:      "warn",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	ApplyDefaults(viper.GetViper())
}

// ApplyDefaults registers default values on v.
func ApplyDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("report_log.path", defaults.ReportLog.Path)
	v.SetDefault("report_log.summary_level", defaults.ReportLog.SummaryLevel)
	v.SetDefault("report_log.exclude_logs_on_passed_tests", defaults.ReportLog.ExcludeLogsOnPassedTests)
	v.SetDefault("report_log.version", defaults.ReportLog.Version)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.file", defaults.Logging.File)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	v.SetDefault("logging.compress", defaults.Logging.Compress)
}

// BindEnv makes every key overridable through REPORTLOG_* variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from the global viper instance and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load for an explicit viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "reportlog")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".reportlog"
	}
	return filepath.Join(home, ".config", "reportlog")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Rotation converts the logging section into the rotating writer's settings.
func (l LoggingConfig) Rotation() logging.RotationConfig {
	return logging.RotationConfig{
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		Compress:   l.Compress,
	}
}
