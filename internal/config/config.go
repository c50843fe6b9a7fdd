// Package config loads service configuration in layers:
// built-in defaults -> optional YAML file -> PROBE_ environment variables.
package config

import "time"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Domain    ExpiryConfig    `koanf:"domain"`
	SSL       ExpiryConfig    `koanf:"ssl"`
	Port      PortConfig      `koanf:"port"`
	HTTP      HTTPConfig      `koanf:"http"`
	Batch     BatchConfig     `koanf:"batch"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Targets   TargetsConfig   `koanf:"targets"`
	Alerts    AlertsConfig    `koanf:"alerts"`
}

type ServerConfig struct {
	Addr           string   `koanf:"addr"`
	LogDir         string   `koanf:"log_dir"`
	LogLevel       string   `koanf:"log_level"`
	PublicAPIKeys  []string `koanf:"public_api_keys"`
	AdminAPIKeys   []string `koanf:"admin_api_keys"`
	AllowedOrigins []string `koanf:"allowed_origins"`
	RatePerMinute  int      `koanf:"rate_per_minute"`
	RateBurst      int      `koanf:"rate_burst"`
}

// ExpiryConfig is shared by the domain (WHOIS) and ssl probes.
type ExpiryConfig struct {
	Enabled           bool          `koanf:"enabled"`
	CheckInterval     time.Duration `koanf:"check_interval"`
	WarningDays       int           `koanf:"warning_days"`
	Domains           []string      `koanf:"domains"`
	ConnectionTimeout time.Duration `koanf:"connection_timeout"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
}

type PortConfig struct {
	Enabled           bool          `koanf:"enabled"`
	CheckInterval     time.Duration `koanf:"check_interval"`
	Ports             []string      `koanf:"ports"`
	ConnectionTimeout time.Duration `koanf:"connection_timeout"`
}

type HTTPConfig struct {
	Enabled             bool          `koanf:"enabled"`
	CheckInterval       time.Duration `koanf:"check_interval"`
	URLs                []string      `koanf:"urls"`
	ConnectionTimeout   time.Duration `koanf:"connection_timeout"`
	ReadTimeout         time.Duration `koanf:"read_timeout"`
	ExpectedStatusCodes []int         `koanf:"expected_status_codes"`
	FollowRedirects     bool          `koanf:"follow_redirects"`
}

type BatchConfig struct {
	// MaxConcurrency caps goroutines per batch; 0 means one per target.
	MaxConcurrency int `koanf:"max_concurrency"`
}

type TelemetryConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Exporter    string        `koanf:"exporter"`
	Endpoint    string        `koanf:"endpoint"`
	ServiceName string        `koanf:"service_name"`
	Interval    time.Duration `koanf:"interval"`
}

type TargetsConfig struct {
	DatabaseURL string        `koanf:"database_url"`
	Route53     Route53Config `koanf:"route53"`
}

type Route53Config struct {
	Enabled bool   `koanf:"enabled"`
	Region  string `koanf:"region"`
}

type AlertsConfig struct {
	SlackWebhook    string        `koanf:"slack_webhook"`
	AlertOnRecovery bool          `koanf:"alert_on_recovery"`
	Cooldown        time.Duration `koanf:"cooldown"`
}

// defaults are loaded first so every key exists before env overrides are
// matched against them.
func defaults() map[string]any {
	return map[string]any{
		"server.addr":            "127.0.0.1:8080",
		"server.log_dir":         "logs",
		"server.log_level":       "info",
		"server.public_api_keys": []string{},
		"server.admin_api_keys":  []string{},
		"server.allowed_origins": []string{"*"},
		"server.rate_per_minute": 120,
		"server.rate_burst":      20,

		"domain.enabled":            true,
		"domain.check_interval":     time.Hour,
		"domain.warning_days":       30,
		"domain.domains":            []string{},
		"domain.connection_timeout": 5 * time.Second,
		"domain.read_timeout":       10 * time.Second,

		"ssl.enabled":            true,
		"ssl.check_interval":     time.Hour,
		"ssl.warning_days":       30,
		"ssl.domains":            []string{},
		"ssl.connection_timeout": 5 * time.Second,
		"ssl.read_timeout":       10 * time.Second,

		"port.enabled":            true,
		"port.check_interval":     5 * time.Minute,
		"port.ports":              []string{},
		"port.connection_timeout": 5 * time.Second,

		"http.enabled":               true,
		"http.check_interval":        5 * time.Minute,
		"http.urls":                  []string{},
		"http.connection_timeout":    10 * time.Second,
		"http.read_timeout":          15 * time.Second,
		"http.expected_status_codes": []int{200, 201, 202, 204},
		"http.follow_redirects":      true,

		"batch.max_concurrency": 0,

		"telemetry.enabled":      false,
		"telemetry.exporter":     "stdout",
		"telemetry.endpoint":     "",
		"telemetry.service_name": "probe-exporter",
		"telemetry.interval":     time.Minute,

		"targets.database_url":    "",
		"targets.route53.enabled": false,
		"targets.route53.region":  "",

		"alerts.slack_webhook":     "",
		"alerts.alert_on_recovery": true,
		"alerts.cooldown":          15 * time.Minute,
	}
}
