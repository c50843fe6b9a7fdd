// cmd/preflight/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/probeexporter/internal/config"
)

func main() {
	path := flag.String("config", os.Getenv("CONFIG_FILE"), "path to YAML config (optional)")
	flag.Parse()

	if !preflight(*path, os.Stdout, os.Stderr) {
		os.Exit(1)
	}
}

// preflight loads and validates the config the way the exporter will, then
// prints deploy warnings. It reports false when the exporter would refuse to
// start.
func preflight(path string, stdout, stderr io.Writer) bool {
	fail := func(msg string) { fmt.Fprintln(stderr, "✖", msg) }
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	cfg, err := config.Load(path)
	if err != nil {
		fail(err.Error())
		return false
	}
	if err := cfg.Validate(); err != nil {
		for _, e := range multierr.Errors(err) {
			fail(e.Error())
		}
		return false
	}
	if path == "" {
		ok("config: defaults + environment")
	} else {
		ok("config: " + path)
	}

	if len(cfg.Server.AdminAPIKeys) == 0 {
		warn("no admin_api_keys: trigger routes are open to anyone")
	}
	if len(cfg.Server.PublicAPIKeys) == 0 && len(cfg.Server.AdminAPIKeys) == 0 {
		warn("no API keys at all: status routes are open to anyone")
	}
	for _, o := range cfg.Server.AllowedOrigins {
		if o == "*" {
			warn("allowed_origins contains *: any site may call the API from a browser")
		}
	}
	ok("server.addr=" + cfg.Server.Addr)

	kinds := []struct {
		name    string
		enabled bool
		n       int
	}{
		{"domain", cfg.Domain.Enabled, len(cfg.Domain.Domains)},
		{"ssl", cfg.SSL.Enabled, len(cfg.SSL.Domains)},
		{"port", cfg.Port.Enabled, len(cfg.Port.Ports)},
		{"http", cfg.HTTP.Enabled, len(cfg.HTTP.URLs)},
	}
	external := cfg.Targets.DatabaseURL != "" || cfg.Targets.Route53.Enabled
	for _, k := range kinds {
		switch {
		case !k.enabled:
			warn(k.name + " probing disabled")
		case k.n == 0 && !external:
			warn(k.name + " enabled but has no configured targets")
		default:
			ok(fmt.Sprintf("%s: %d configured targets", k.name, k.n))
		}
	}

	for _, p := range cfg.Port.Ports {
		if strings.Count(p, ":") != 1 {
			warn("port target " + p + " is not host:port and will report INVALID_FORMAT")
		}
	}

	if cfg.Targets.DatabaseURL == "" {
		warn("targets.database_url empty: alert state is in-memory and resets on restart")
	} else {
		ok("targets.database_url present")
	}
	if cfg.Alerts.SlackWebhook == "" {
		warn("alerts.slack_webhook empty: alerts only go to the log")
	}
	if cfg.Telemetry.Enabled {
		ok("telemetry: " + cfg.Telemetry.Exporter)
	} else {
		warn("telemetry disabled: no metrics will be exported")
	}

	ok("preflight passed")
	return true
}
