package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/probeexporter/internal/domain"
)

type CertConfig struct {
	WarningDays    int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// CertFetcher returns the leaf certificate presented by a host.
type CertFetcher func(ctx context.Context, host string) (*x509.Certificate, error)

// CertChecker reads a host's TLS leaf certificate and classifies its expiry.
// Primary is tried first; Fallback only runs when Primary fails.
type CertChecker struct {
	Logger   *zap.Logger
	Config   CertConfig
	Primary  CertFetcher
	Fallback CertFetcher

	now clock
}

func NewCertChecker(logger *zap.Logger, cfg CertConfig) *CertChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &CertChecker{Logger: logger, Config: cfg}
	c.Primary = c.viaHTTPS("443")
	c.Fallback = c.viaHandshake("443")
	return c
}

func (c *CertChecker) Check(ctx context.Context, target string) domain.CertResult {
	return c.CheckCertificateExpiry(ctx, target)
}

// CheckCertificateExpiry fetches the certificate for name and classifies it.
func (c *CertChecker) CheckCertificateExpiry(ctx context.Context, name string) (res domain.CertResult) {
	name = strings.TrimSpace(name)
	res = domain.CertResult{Domain: name, DaysUntilExpiration: domain.DaysUnknown}
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Error("ssl_check_panic", zap.String("domain", name), zap.Any("panic", r))
			res = domain.NewCertError(name, fmt.Errorf("panic: %v", r))
		}
	}()

	cert := c.fetch(ctx, name)
	res.LastChecked = c.now.now()
	if cert == nil {
		res.Status = domain.StatusCertificateNotFound
		res.Error = "Unable to retrieve SSL certificate"
		c.Logger.Warn("ssl_certificate_not_found", zap.String("domain", name))
		return res
	}

	e := classify(res.LastChecked, cert.NotAfter.UTC(), c.Config.WarningDays)
	res.ExpirationDate = &e.at
	res.DaysUntilExpiration = e.days
	res.Status = e.status
	res.Expired = e.expired
	res.Warning = e.warning
	res.Issuer = cert.Issuer.String()
	res.Subject = cert.Subject.String()
	c.Logger.Info("ssl_checked",
		zap.String("domain", name),
		zap.Int64("days_until_expiration", e.days),
		zap.Time("expiration_date", e.at),
		zap.String("issuer", res.Issuer),
		zap.String("status", string(e.status)),
	)
	return res
}

func (c *CertChecker) fetch(ctx context.Context, name string) *x509.Certificate {
	if c.Primary != nil {
		cert, err := c.Primary(ctx, name)
		if err == nil && cert != nil {
			return cert
		}
		c.Logger.Debug("ssl_https_failed", zap.String("domain", name), zap.Error(err))
	}
	if c.Fallback != nil {
		cert, err := c.Fallback(ctx, name)
		if err == nil && cert != nil {
			return cert
		}
		c.Logger.Debug("ssl_handshake_failed", zap.String("domain", name), zap.Error(err))
	}
	return nil
}

var errNoPeerCert = errors.New("no peer certificate presented")

// viaHTTPS opens a verified HTTPS connection and reads the leaf from the
// connection state of the response.
func (c *CertChecker) viaHTTPS(port string) CertFetcher {
	return func(ctx context.Context, host string) (*x509.Certificate, error) {
		tr := &http.Transport{
			DialContext:           (&net.Dialer{Timeout: c.Config.ConnectTimeout}).DialContext,
			TLSHandshakeTimeout:   c.Config.ConnectTimeout,
			ResponseHeaderTimeout: c.Config.ReadTimeout,
			DisableKeepAlives:     true,
		}
		defer tr.CloseIdleConnections()
		client := &http.Client{
			Transport: tr,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
		url := "https://" + net.JoinHostPort(host, port)
		if port == "443" {
			url = "https://" + host
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		resp.Body.Close()
		if resp.TLS == nil || len(resp.TLS.PeerCertificates) == 0 {
			return nil, errNoPeerCert
		}
		return resp.TLS.PeerCertificates[0], nil
	}
}

// viaHandshake performs a bare TLS handshake with SNI set to host. The chain
// is not verified so that expired or self-signed leaves can still be read.
func (c *CertChecker) viaHandshake(port string) CertFetcher {
	return func(ctx context.Context, host string) (*x509.Certificate, error) {
		d := &tls.Dialer{
			NetDialer: &net.Dialer{Timeout: c.Config.ConnectTimeout},
			Config: &tls.Config{
				ServerName:         host,
				InsecureSkipVerify: true, //nolint:gosec // reading expiry only
			},
		}
		if c.Config.ReadTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.Config.ConnectTimeout+c.Config.ReadTimeout)
			defer cancel()
		}
		conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		certs := conn.(*tls.Conn).ConnectionState().PeerCertificates
		if len(certs) == 0 {
			return nil, errNoPeerCert
		}
		return certs[0], nil
	}
}
