package probe

import (
	"context"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/probeexporter/internal/domain"
)

func stubCert(cn string, notAfter time.Time) *x509.Certificate {
	return &x509.Certificate{
		NotAfter: notAfter,
		Subject:  pkix.Name{CommonName: cn},
		Issuer:   pkix.Name{CommonName: "Test CA"},
	}
}

func TestCheckCertificateExpiry_FallsBackToHandshake(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fallback := stubCert("tier-two", now.Add(100*day))

	c := NewCertChecker(nil, CertConfig{WarningDays: 30})
	c.now = func() time.Time { return now }
	c.Primary = func(context.Context, string) (*x509.Certificate, error) {
		return nil, errors.New("https connect refused")
	}
	c.Fallback = func(context.Context, string) (*x509.Certificate, error) { return fallback, nil }

	res := c.CheckCertificateExpiry(context.Background(), "example.com")
	require.Equal(t, domain.StatusValid, res.Status)
	assert.Equal(t, "CN=tier-two", res.Subject)
	assert.Equal(t, "CN=Test CA", res.Issuer)
	assert.Equal(t, int64(100), res.DaysUntilExpiration)
	require.NotNil(t, res.ExpirationDate)
	assert.Equal(t, fallback.NotAfter, *res.ExpirationDate)
}

func TestCheckCertificateExpiry_PrimaryWins(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	called := false

	c := NewCertChecker(nil, CertConfig{WarningDays: 30})
	c.now = func() time.Time { return now }
	c.Primary = func(context.Context, string) (*x509.Certificate, error) {
		return stubCert("tier-one", now.Add(-3*day)), nil
	}
	c.Fallback = func(context.Context, string) (*x509.Certificate, error) {
		called = true
		return nil, errors.New("unexpected")
	}

	res := c.Check(context.Background(), "example.com")
	assert.False(t, called)
	assert.Equal(t, domain.StatusExpired, res.Status)
	assert.True(t, res.Expired)
	assert.Equal(t, int64(-3), res.DaysUntilExpiration)
}

func TestCheckCertificateExpiry_NotFound(t *testing.T) {
	fail := func(context.Context, string) (*x509.Certificate, error) { return nil, errors.New("nope") }
	c := NewCertChecker(nil, CertConfig{WarningDays: 30})
	c.Primary, c.Fallback = fail, fail

	res := c.Check(context.Background(), "example.com")
	assert.Equal(t, domain.StatusCertificateNotFound, res.Status)
	assert.Equal(t, domain.DaysUnknown, res.DaysUntilExpiration)
	assert.NotEmpty(t, res.Error)
}

func TestCheckCertificateExpiry_PanicBecomesError(t *testing.T) {
	c := NewCertChecker(nil, CertConfig{WarningDays: 30})
	c.Primary = func(context.Context, string) (*x509.Certificate, error) { panic("boom") }

	res := c.Check(context.Background(), "example.com")
	assert.Equal(t, domain.StatusError, res.Status)
	assert.Equal(t, domain.DaysUnknown, res.DaysUntilExpiration)
}

// The test server's certificate is self-signed, so the verified HTTPS path
// fails and the handshake path has to supply the leaf.
func TestCertChecker_RealTLSServer(t *testing.T) {
	s := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer s.Close()

	u, err := url.Parse(s.URL)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)

	c := NewCertChecker(nil, CertConfig{WarningDays: 30, ConnectTimeout: 2 * time.Second, ReadTimeout: 2 * time.Second})
	c.Primary = c.viaHTTPS(port)
	c.Fallback = c.viaHandshake(port)

	_, err = c.Primary(context.Background(), host)
	require.Error(t, err)

	res := c.Check(context.Background(), host)
	require.NotEqual(t, domain.StatusCertificateNotFound, res.Status, res.Error)
	require.NotNil(t, res.ExpirationDate)
	assert.Equal(t, s.Certificate().NotAfter.UTC(), *res.ExpirationDate)
}
