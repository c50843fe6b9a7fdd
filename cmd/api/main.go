package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/probeexporter/internal/config"
	"github.com/hamed0406/probeexporter/internal/domain"
	"github.com/hamed0406/probeexporter/internal/httpapi"
	apimw "github.com/hamed0406/probeexporter/internal/httpapi/middleware"
	"github.com/hamed0406/probeexporter/internal/logging"
	"github.com/hamed0406/probeexporter/internal/metrics"
	"github.com/hamed0406/probeexporter/internal/notify"
	"github.com/hamed0406/probeexporter/internal/probe"
	"github.com/hamed0406/probeexporter/internal/repo"
	"github.com/hamed0406/probeexporter/internal/repo/memory"
	"github.com/hamed0406/probeexporter/internal/repo/postgres"
	"github.com/hamed0406/probeexporter/internal/scheduler"
	"github.com/hamed0406/probeexporter/internal/targets"
)

func main() {
	path := flag.String("config", os.Getenv("CONFIG_FILE"), "path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.Server.LogDir, cfg.Server.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("exit", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) (err error) {
	// ---- targets + alert state ----
	reg := targets.NewRegistry(logger).Add("config", targets.Static{
		domain.KindDomain: cfg.Domain.Domains,
		domain.KindSSL:    cfg.SSL.Domains,
		domain.KindPort:   cfg.Port.Ports,
		domain.KindHTTP:   cfg.HTTP.URLs,
	})

	var alertDB repo.AlertStore = memory.NewAlerts()
	var adder httpapi.TargetAdder
	if dsn := cfg.Targets.DatabaseURL; dsn != "" {
		pg, err := postgres.New(ctx, dsn, logger)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		reg.Add("postgres", pg)
		alertDB = pg
		adder = pg
	}
	if cfg.Targets.Route53.Enabled {
		r53, err := targets.NewRoute53(ctx, cfg.Targets.Route53.Region)
		if err != nil {
			return err
		}
		reg.Add("route53", r53)
	}

	// ---- metrics ----
	var mp *sdkmetric.MeterProvider
	if cfg.Telemetry.Enabled {
		mp, err = metrics.InitMeter(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Exporter, cfg.Telemetry.Endpoint, cfg.Telemetry.Interval)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = multierr.Append(err, mp.Shutdown(sctx))
		}()
	}
	meter := otel.GetMeterProvider().Meter(metrics.ScopeName)

	// ---- alerts ----
	var notifier notify.Notifier = notify.Log{Logger: logger}
	if slack := notify.NewSlack(cfg.Alerts.SlackWebhook); slack != nil {
		notifier = notify.Multi{notifier, notify.NewBreaker("slack", slack, 5, cfg.Alerts.Cooldown, logger)}
	}
	alerter := scheduler.NewAlerter(logger, alertDB, notifier, scheduler.AlerterConfig{
		AlertOnRecovery: cfg.Alerts.AlertOnRecovery,
		Cooldown:        cfg.Alerts.Cooldown,
	})

	// ---- per-kind pipelines ----
	n := cfg.Batch.MaxConcurrency

	domains := memory.New[domain.DomainResult]()
	domainCol, err := metrics.NewDomainCollector(meter, domains)
	if err != nil {
		return err
	}
	domainRun := pipeline[domain.DomainResult](domain.KindDomain, logger, reg, probe.NewDomainChecker(logger, probe.DomainConfig{
		WarningDays:    cfg.Domain.WarningDays,
		ConnectTimeout: cfg.Domain.ConnectionTimeout,
		ReadTimeout:    cfg.Domain.ReadTimeout,
	}), domains, domain.NewDomainError, domainCol, alerter, n)

	certs := memory.New[domain.CertResult]()
	certCol, err := metrics.NewCertCollector(meter, certs)
	if err != nil {
		return err
	}
	certRun := pipeline[domain.CertResult](domain.KindSSL, logger, reg, probe.NewCertChecker(logger, probe.CertConfig{
		WarningDays:    cfg.SSL.WarningDays,
		ConnectTimeout: cfg.SSL.ConnectionTimeout,
		ReadTimeout:    cfg.SSL.ReadTimeout,
	}), certs, domain.NewCertError, certCol, alerter, n)

	ports := memory.New[domain.PortResult]()
	portCol, err := metrics.NewPortCollector(meter, ports)
	if err != nil {
		return err
	}
	portRun := pipeline[domain.PortResult](domain.KindPort, logger, reg, probe.NewPortChecker(logger, probe.PortConfig{
		ConnectTimeout: cfg.Port.ConnectionTimeout,
	}), ports, domain.NewPortError, portCol, alerter, n)

	https := memory.New[domain.HTTPResult]()
	httpCol, err := metrics.NewHTTPCollector(meter, https)
	if err != nil {
		return err
	}
	httpRun := pipeline[domain.HTTPResult](domain.KindHTTP, logger, reg, probe.NewHTTPChecker(logger, probe.HTTPConfig{
		ConnectTimeout:      cfg.HTTP.ConnectionTimeout,
		ReadTimeout:         cfg.HTTP.ReadTimeout,
		ExpectedStatusCodes: cfg.HTTP.ExpectedStatusCodes,
		FollowRedirects:     cfg.HTTP.FollowRedirects,
	}), https, domain.NewHTTPError, httpCol, alerter, n)

	defer func() {
		err = multierr.Combine(err, domainCol.Unregister(), certCol.Unregister(), portCol.Unregister(), httpCol.Unregister())
	}()

	for _, rc := range []*scheduler.Rechecker{
		scheduler.NewRechecker(logger, domainRun, cfg.Domain.CheckInterval, cfg.Domain.Enabled),
		scheduler.NewRechecker(logger, certRun, cfg.SSL.CheckInterval, cfg.SSL.Enabled),
		scheduler.NewRechecker(logger, portRun, cfg.Port.CheckInterval, cfg.Port.Enabled),
		scheduler.NewRechecker(logger, httpRun, cfg.HTTP.CheckInterval, cfg.HTTP.Enabled),
	} {
		go rc.Run(ctx)
	}

	// ---- API ----
	api := httpapi.NewServer(logger, httpapi.Options{
		ServiceName: cfg.Telemetry.ServiceName,
		Targets:     adder,
		Keys: apimw.Keys{
			Public: cfg.Server.PublicAPIKeys,
			Admin:  cfg.Server.AdminAPIKeys,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RatePerMinute:  cfg.Server.RatePerMinute,
		RateBurst:      cfg.Server.RateBurst,
	},
		httpapi.NewDomainMonitor(domainRun, domains),
		httpapi.NewCertMonitor(certRun, certs),
		httpapi.NewPortMonitor(portRun, ports),
		httpapi.NewHTTPMonitor(httpRun, https),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown_started")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

// pipeline builds one kind's runner: every result feeds the kind's gauges,
// every finished batch feeds the alerter.
func pipeline[R domain.Result](
	kind domain.Kind,
	logger *zap.Logger,
	reg *targets.Registry,
	chk probe.Checker[R],
	store *memory.Store[R],
	failed func(string, error) R,
	col *metrics.Collector[R],
	alerter *scheduler.Alerter,
	concurrency int,
) *scheduler.Runner[R] {
	r := scheduler.NewRunner(kind, logger, reg, chk, store, failed, concurrency)
	r.OnResult(col.Observe)
	r.OnComplete(scheduler.AlertHook[R](alerter, kind))
	return r
}
