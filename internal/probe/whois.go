package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/probeexporter/internal/domain"
)

const (
	whoisPort     = "43"
	defaultWhois  = "whois.internic.net"
	maxWhoisBytes = 1 << 20
)

// whoisServers maps a top-level suffix to its registry's WHOIS server.
// Anything not listed goes to defaultWhois.
var whoisServers = map[string]string{
	"com":  "whois.verisign-grs.com",
	"net":  "whois.verisign-grs.com",
	"org":  "whois.pir.org",
	"info": "whois.afilias.net",
	"biz":  "whois.neulevel.biz",
	"cn":   "whois.cnnic.net.cn",
	"uk":   "whois.nominet.uk",
	"de":   "whois.denic.de",
	"fr":   "whois.afnic.fr",
	"jp":   "whois.jprs.jp",
}

// WhoisServer picks the WHOIS server for a domain by its last label.
func WhoisServer(name string) string {
	tld := strings.ToLower(name[strings.LastIndex(name, ".")+1:])
	if s, ok := whoisServers[tld]; ok {
		return s
	}
	return defaultWhois
}

type DomainConfig struct {
	WarningDays    int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// DomainChecker looks up registration expiry over the WHOIS protocol.
type DomainChecker struct {
	Logger *zap.Logger
	Config DomainConfig

	// Addr returns host:port of the WHOIS server to ask about a domain.
	Addr func(name string) string
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)

	now clock
}

func NewDomainChecker(logger *zap.Logger, cfg DomainConfig) *DomainChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &net.Dialer{Timeout: cfg.ConnectTimeout}
	return &DomainChecker{
		Logger: logger,
		Config: cfg,
		Addr: func(name string) string {
			return net.JoinHostPort(WhoisServer(name), whoisPort)
		},
		Dial: d.DialContext,
	}
}

func (c *DomainChecker) Check(ctx context.Context, target string) domain.DomainResult {
	return c.CheckDomainExpiry(ctx, target)
}

// CheckDomainExpiry queries WHOIS for name and classifies its expiry date.
func (c *DomainChecker) CheckDomainExpiry(ctx context.Context, name string) (res domain.DomainResult) {
	name = strings.TrimSpace(name)
	res = domain.DomainResult{Domain: name, DaysUntilExpiration: domain.DaysUnknown}
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Error("domain_check_panic", zap.String("domain", name), zap.Any("panic", r))
			res = domain.NewDomainError(name, fmt.Errorf("panic: %v", r))
		}
	}()

	data, err := c.query(ctx, name)
	res.LastChecked = c.now.now()
	if err != nil {
		c.Logger.Error("domain_check_error", zap.String("domain", name), zap.Error(err))
		res.Status = domain.StatusError
		res.Error = err.Error()
		return res
	}
	if strings.TrimSpace(data) == "" {
		res.Status = domain.StatusWhoisNotFound
		res.Error = "Unable to retrieve WHOIS data"
		return res
	}

	at, err := extractExpiry(data)
	if err != nil {
		c.Logger.Warn("domain_expiry_unparsed", zap.String("domain", name), zap.Error(err))
		res.Status = domain.StatusParseError
		res.Error = "Unable to parse expiration date from WHOIS data: " + err.Error()
		return res
	}

	e := classify(res.LastChecked, at, c.Config.WarningDays)
	res.ExpirationDate = &e.at
	res.DaysUntilExpiration = e.days
	res.Status = e.status
	res.Expired = e.expired
	res.Warning = e.warning
	c.Logger.Info("domain_checked",
		zap.String("domain", name),
		zap.Int64("days_until_expiration", e.days),
		zap.Time("expiration_date", e.at),
		zap.String("status", string(e.status)),
	)
	return res
}

func (c *DomainChecker) query(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", errors.New("empty domain")
	}
	addr := c.Addr(name)
	conn, err := c.Dial(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("connect %s: %w", addr, err)
	}
	defer conn.Close()

	if c.Config.ReadTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.Config.ReadTimeout))
	}
	if _, err := io.WriteString(conn, name+"\r\n"); err != nil {
		return "", fmt.Errorf("send query to %s: %w", addr, err)
	}
	b, err := io.ReadAll(io.LimitReader(conn, maxWhoisBytes))
	if err != nil {
		return "", fmt.Errorf("read response from %s: %w", addr, err)
	}
	return strings.ReplaceAll(string(b), "\r\n", "\n"), nil
}
