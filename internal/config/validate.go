package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Validate checks all configuration values and returns every problem found.
func (c *Config) Validate() error {
	return multierr.Combine(
		c.Server.validate(),
		c.Domain.validate("domain"),
		c.SSL.validate("ssl"),
		c.Port.validate(),
		c.HTTP.validate(),
		c.Batch.validate(),
		c.Telemetry.validate(),
	)
}

func (s *ServerConfig) validate() error {
	var err error
	if s.Addr == "" {
		err = multierr.Append(err, errors.New("server.addr must not be empty"))
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("server.log_level must be one of: debug, info, warn, error; got %q", s.LogLevel))
	}
	if s.RatePerMinute < 0 || s.RateBurst < 0 {
		err = multierr.Append(err, errors.New("server.rate_per_minute and server.rate_burst must not be negative"))
	}
	return err
}

func (e *ExpiryConfig) validate(section string) error {
	var err error
	if e.Enabled && e.CheckInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s.check_interval must be positive", section))
	}
	if e.WarningDays < 0 {
		err = multierr.Append(err, fmt.Errorf("%s.warning_days must not be negative, got %d", section, e.WarningDays))
	}
	if e.ConnectionTimeout <= 0 || e.ReadTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s timeouts must be positive", section))
	}
	return err
}

func (p *PortConfig) validate() error {
	var err error
	if p.Enabled && p.CheckInterval <= 0 {
		err = multierr.Append(err, errors.New("port.check_interval must be positive"))
	}
	if p.ConnectionTimeout <= 0 {
		err = multierr.Append(err, errors.New("port.connection_timeout must be positive"))
	}
	return err
}

func (h *HTTPConfig) validate() error {
	var err error
	if h.Enabled && h.CheckInterval <= 0 {
		err = multierr.Append(err, errors.New("http.check_interval must be positive"))
	}
	if h.ConnectionTimeout <= 0 || h.ReadTimeout <= 0 {
		err = multierr.Append(err, errors.New("http timeouts must be positive"))
	}
	for _, c := range h.ExpectedStatusCodes {
		if c < 100 || c > 599 {
			err = multierr.Append(err, fmt.Errorf("http.expected_status_codes: %d is not an HTTP status", c))
		}
	}
	return err
}

func (b *BatchConfig) validate() error {
	if b.MaxConcurrency < 0 {
		return fmt.Errorf("batch.max_concurrency must not be negative, got %d", b.MaxConcurrency)
	}
	return nil
}

func (t *TelemetryConfig) validate() error {
	if !t.Enabled {
		return nil
	}
	var err error
	switch t.Exporter {
	case "stdout":
	case "otlp":
		if t.Endpoint == "" {
			err = multierr.Append(err, errors.New("telemetry.endpoint is required for the otlp exporter"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("telemetry.exporter must be stdout or otlp, got %q", t.Exporter))
	}
	if t.ServiceName == "" {
		err = multierr.Append(err, errors.New("telemetry.service_name must not be empty"))
	}
	return err
}
