package metrics

import (
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hamed0406/probeexporter/internal/domain"
	"github.com/hamed0406/probeexporter/internal/repo"
)

// ExpiryStatusCode encodes domain and certificate states:
// 0 valid, 1 warning, 2 expired, 3 anything undetermined.
func ExpiryStatusCode(s domain.Status) float64 {
	switch s {
	case domain.StatusValid:
		return 0
	case domain.StatusWarning:
		return 1
	case domain.StatusExpired:
		return 2
	}
	return 3
}

// ReachStatusCode encodes port and HTTP states: 1 up, 0 negative, -1 error.
func ReachStatusCode(s domain.Status) float64 {
	switch s {
	case domain.StatusOpen, domain.StatusAvailable:
		return 1
	case domain.StatusClosed, domain.StatusUnavailable:
		return 0
	}
	return -1
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix())
}

func NewDomainCollector(meter metric.Meter, store repo.ResultStore[domain.DomainResult]) (*Collector[domain.DomainResult], error) {
	labels := func(r domain.DomainResult) []attribute.KeyValue {
		return []attribute.KeyValue{attribute.String("domain", r.Domain)}
	}
	return NewCollector(meter, store, labels, []Gauge[domain.DomainResult]{
		{
			Name: "domain_expiration_days", Description: "Days until domain expiration", Unit: "d",
			Value:    func(r domain.DomainResult) float64 { return float64(r.DaysUntilExpiration) },
			Fallback: float64(domain.DaysUnknown),
		},
		{
			Name: "domain_status", Description: "Domain status (0=valid, 1=warning, 2=expired, 3=error)",
			Value:    func(r domain.DomainResult) float64 { return ExpiryStatusCode(r.Status) },
			Fallback: 3,
		},
		{
			Name: "domain_expired", Description: "Whether domain is expired (1=expired, 0=not expired)",
			Value: func(r domain.DomainResult) float64 { return boolGauge(r.Expired) },
		},
		{
			Name: "domain_warning", Description: "Whether domain is in warning period (1=warning, 0=normal)",
			Value: func(r domain.DomainResult) float64 { return boolGauge(r.Warning) },
		},
		{
			Name: "domain_last_checked_timestamp", Description: "Timestamp of last domain check", Unit: "s",
			Value: func(r domain.DomainResult) float64 { return unixSeconds(r.LastChecked) },
		},
	})
}

func NewCertCollector(meter metric.Meter, store repo.ResultStore[domain.CertResult]) (*Collector[domain.CertResult], error) {
	labels := func(r domain.CertResult) []attribute.KeyValue {
		return []attribute.KeyValue{attribute.String("domain", r.Domain)}
	}
	return NewCollector(meter, store, labels, []Gauge[domain.CertResult]{
		{
			Name: "ssl_certificate_expiration_days", Description: "Days until SSL certificate expiration", Unit: "d",
			Value:    func(r domain.CertResult) float64 { return float64(r.DaysUntilExpiration) },
			Fallback: float64(domain.DaysUnknown),
		},
		{
			Name: "ssl_certificate_status", Description: "SSL certificate status (0=valid, 1=warning, 2=expired, 3=error)",
			Value:    func(r domain.CertResult) float64 { return ExpiryStatusCode(r.Status) },
			Fallback: 3,
		},
		{
			Name: "ssl_certificate_expired", Description: "Whether SSL certificate is expired (1=expired, 0=not expired)",
			Value: func(r domain.CertResult) float64 { return boolGauge(r.Expired) },
		},
		{
			Name: "ssl_certificate_warning", Description: "Whether SSL certificate is in warning period (1=warning, 0=normal)",
			Value: func(r domain.CertResult) float64 { return boolGauge(r.Warning) },
		},
		{
			Name: "ssl_certificate_last_checked_timestamp", Description: "Timestamp of last SSL certificate check", Unit: "s",
			Value: func(r domain.CertResult) float64 { return unixSeconds(r.LastChecked) },
		},
	})
}

func NewPortCollector(meter metric.Meter, store repo.ResultStore[domain.PortResult]) (*Collector[domain.PortResult], error) {
	labels := func(r domain.PortResult) []attribute.KeyValue {
		return []attribute.KeyValue{
			attribute.String("target", r.Target),
			attribute.String("host", r.Host),
			attribute.String("port", strconv.Itoa(r.Port)),
		}
	}
	return NewCollector(meter, store, labels, []Gauge[domain.PortResult]{
		{
			Name: "port_open", Description: "Whether port is open (1=open, 0=closed)",
			Value: func(r domain.PortResult) float64 { return boolGauge(r.Open) },
		},
		{
			Name: "port_status", Description: "Port status (1=open, 0=closed, -1=error)",
			Value:    func(r domain.PortResult) float64 { return ReachStatusCode(r.Status) },
			Fallback: -1,
		},
		{
			Name: "port_response_time_ms", Description: "Port connection response time in milliseconds", Unit: "ms",
			Value: func(r domain.PortResult) float64 { return float64(r.ResponseTimeMS) },
		},
		{
			Name: "port_last_checked_timestamp", Description: "Timestamp of last port check", Unit: "s",
			Value: func(r domain.PortResult) float64 { return unixSeconds(r.LastChecked) },
		},
	})
}

func NewHTTPCollector(meter metric.Meter, store repo.ResultStore[domain.HTTPResult]) (*Collector[domain.HTTPResult], error) {
	labels := func(r domain.HTTPResult) []attribute.KeyValue {
		host, scheme := "unknown", "unknown"
		if u, err := url.Parse(r.URL); err == nil {
			if u.Hostname() != "" {
				host = u.Hostname()
			}
			if u.Scheme != "" {
				scheme = u.Scheme
			}
		}
		return []attribute.KeyValue{
			attribute.String("url", r.URL),
			attribute.String("host", host),
			attribute.String("scheme", scheme),
		}
	}
	return NewCollector(meter, store, labels, []Gauge[domain.HTTPResult]{
		{
			Name: "http_available", Description: "HTTP service availability (1=available, 0=unavailable)",
			Value: func(r domain.HTTPResult) float64 { return boolGauge(r.Available) },
		},
		{
			Name: "http_status_code", Description: "HTTP response status code",
			Value: func(r domain.HTTPResult) float64 { return float64(r.StatusCode) },
		},
		{
			Name: "http_response_time_ms", Description: "HTTP response time in milliseconds", Unit: "ms",
			Value: func(r domain.HTTPResult) float64 { return float64(r.ResponseTimeMS) },
		},
		{
			Name: "http_content_length_bytes", Description: "HTTP response content length in bytes", Unit: "By",
			Value: func(r domain.HTTPResult) float64 { return float64(r.ContentLength) },
		},
		{
			Name: "http_status", Description: "HTTP service status (1=available, 0=unavailable, -1=error)",
			Value:    func(r domain.HTTPResult) float64 { return ReachStatusCode(r.Status) },
			Fallback: -1,
		},
		{
			Name: "http_last_checked_timestamp", Description: "Timestamp of last HTTP check", Unit: "s",
			Value: func(r domain.HTTPResult) float64 { return unixSeconds(r.LastChecked) },
		},
	})
}
