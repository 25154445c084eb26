package config

import "github.com/spf13/viper"

// Config holds all runtime configuration for triage.
// Values are populated from .triage.yaml, TRIAGE_* env vars, and CLI flags.
type Config struct {
	Port             int    `mapstructure:"port"`
	DBPath           string `mapstructure:"db_path"`
	DefaultStrategy  string `mapstructure:"default_strategy"`
	ConsiderWeekends bool   `mapstructure:"consider_weekends"`
	HolidaysFile     string `mapstructure:"holidays_file"`
	TelemetryPath    string `mapstructure:"telemetry_path"`
	TopN             int    `mapstructure:"top_n"`
	Verbose          bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() Config {
	viper.SetDefault("port", 8080)
	viper.SetDefault("db_path", "triage.db")
	viper.SetDefault("default_strategy", "smart_balance")
	viper.SetDefault("consider_weekends", false)
	viper.SetDefault("holidays_file", "")
	viper.SetDefault("telemetry_path", "")
	viper.SetDefault("top_n", 3)
	viper.SetDefault("verbose", false)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
