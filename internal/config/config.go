package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the monitor.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Sensor   SensorConfig   `mapstructure:"sensor"`
	History  HistoryConfig  `mapstructure:"history"`
	Alarms   AlarmsConfig   `mapstructure:"alarms"`
	Email    EmailConfig    `mapstructure:"email"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Sampling SamplingConfig `mapstructure:"sampling"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Host           string  `mapstructure:"host"`
	Port           int     `mapstructure:"port"`
	ReadTimeout    int     `mapstructure:"read_timeout"`
	WriteTimeout   int     `mapstructure:"write_timeout"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Addr returns host:port for the monitor listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

func (m MetricsConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

type SensorConfig struct {
	Driver       string  `mapstructure:"driver"`
	TempPath     string  `mapstructure:"temp_path"`
	HumidityPath string  `mapstructure:"humidity_path"`
	Scale        float64 `mapstructure:"scale"`
}

type HistoryConfig struct {
	Capacity         int `mapstructure:"capacity"`
	AlertLogCapacity int `mapstructure:"alert_log_capacity"`
}

type AlarmsConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	TempMin     float64 `mapstructure:"temp_min"`
	TempMax     float64 `mapstructure:"temp_max"`
	HumidityMin float64 `mapstructure:"humidity_min"`
	HumidityMax float64 `mapstructure:"humidity_max"`
	VPDMin      float64 `mapstructure:"vpd_min"`
	VPDMax      float64 `mapstructure:"vpd_max"`
}

type EmailConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	To              string `mapstructure:"to"`
	CooldownMinutes int    `mapstructure:"cooldown_minutes"`
}

// Cooldown returns the configured cooldown as a duration.
func (e EmailConfig) Cooldown() time.Duration {
	return time.Duration(e.CooldownMinutes) * time.Minute
}

type SMTPConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	ClientName string `mapstructure:"client_name"`
}

type SamplingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. The file is
// YAML; $VAR references inside values are expanded from the environment
// before parsing, and unset keys fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Roundtrip through a map first so malformed YAML fails with a parse
	// error here rather than a confusing unmarshal error later.
	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal raw config: %w", err)
	}
	data, err = yaml.Marshal(rawConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal raw config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := v.ReadConfig(strings.NewReader(expanded)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.rate_limit_burst", 10)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.host", "0.0.0.0")
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("sensor.driver", "sim")
	v.SetDefault("sensor.scale", 1.0)

	v.SetDefault("history.capacity", 50)
	v.SetDefault("history.alert_log_capacity", 50)

	v.SetDefault("alarms.enabled", true)
	v.SetDefault("alarms.temp_min", 20.0)
	v.SetDefault("alarms.temp_max", 26.0)
	v.SetDefault("alarms.humidity_min", 40.0)
	v.SetDefault("alarms.humidity_max", 60.0)
	v.SetDefault("alarms.vpd_min", 0.5)
	v.SetDefault("alarms.vpd_max", 1.2)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.cooldown_minutes", 5)

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.client_name", "envmon")

	v.SetDefault("sampling.enabled", false)
	v.SetDefault("sampling.schedule", "*/5 * * * *")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
