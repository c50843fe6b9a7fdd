package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/probeexporter/internal/domain"
)

type PortConfig struct {
	ConnectTimeout time.Duration
}

// Resolver is the subset of *net.Resolver the port probe needs.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// PortChecker reports whether a TCP port accepts connections.
type PortChecker struct {
	Logger   *zap.Logger
	Config   PortConfig
	Resolver Resolver
	Dial     func(ctx context.Context, network, addr string) (net.Conn, error)

	now clock
}

func NewPortChecker(logger *zap.Logger, cfg PortConfig) *PortChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &net.Dialer{Timeout: cfg.ConnectTimeout}
	return &PortChecker{
		Logger:   logger,
		Config:   cfg,
		Resolver: &net.Resolver{},
		Dial:     d.DialContext,
	}
}

// SplitTarget parses "host:port". Exactly one separator, both parts
// non-empty and a port in 1..65535.
func SplitTarget(target string) (string, int, bool) {
	parts := strings.Split(target, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", 0, false
	}
	p, err := strconv.Atoi(parts[1])
	if err != nil || p < 1 || p > 65535 {
		return "", 0, false
	}
	return parts[0], p, true
}

func (c *PortChecker) Check(ctx context.Context, target string) domain.PortResult {
	return c.CheckPortReachable(ctx, target)
}

// CheckPortReachable resolves the host and attempts one TCP connect.
func (c *PortChecker) CheckPortReachable(ctx context.Context, target string) (res domain.PortResult) {
	target = strings.TrimSpace(target)
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Error("port_check_panic", zap.String("target", target), zap.Any("panic", r))
			res = domain.NewPortError(target, fmt.Errorf("panic: %v", r))
		}
	}()

	host, port, ok := SplitTarget(target)
	if !ok {
		return domain.PortResult{
			Target:      target,
			Host:        target,
			Port:        -1,
			Status:      domain.StatusInvalidFormat,
			Error:       "Invalid target format, expected host:port",
			LastChecked: c.now.now(),
		}
	}
	res = domain.PortResult{Target: target, Host: host, Port: port}

	addr, err := c.resolve(ctx, host)
	if err != nil {
		res.LastChecked = c.now.now()
		res.Status = domain.StatusError
		res.Error = err.Error()
		c.Logger.Error("port_resolve_error", zap.String("target", target), zap.Error(err))
		return res
	}

	start := time.Now()
	conn, err := c.Dial(ctx, "tcp", net.JoinHostPort(addr, strconv.Itoa(port)))
	res.ResponseTimeMS = elapsedMS(start)
	res.LastChecked = c.now.now()
	switch {
	case err == nil:
		conn.Close()
		res.Open = true
		res.Status = domain.StatusOpen
	case unreachable(err):
		res.Status = domain.StatusClosed
		res.Error = err.Error()
	default:
		res.Status = domain.StatusError
		res.Error = err.Error()
		c.Logger.Error("port_check_error", zap.String("target", target), zap.Error(err))
		return res
	}
	c.Logger.Debug("port_checked",
		zap.String("target", target),
		zap.Bool("open", res.Open),
		zap.Int64("response_time_ms", res.ResponseTimeMS),
	)
	return res
}

// resolve returns the first address for host. Literal IPs skip the lookup.
func (c *PortChecker) resolve(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}
	ips, err := c.Resolver.LookupIPAddr(ctx, host)
	if err != nil {
		var de *net.DNSError
		if errors.As(err, &de) && de.IsNotFound {
			return "", fmt.Errorf("unknown host %s", host)
		}
		return "", fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(ips) == 0 {
		return "", fmt.Errorf("unknown host %s", host)
	}
	return ips[0].IP.String(), nil
}

// unreachable reports the connect failures that mean "nothing is listening
// there" rather than a fault in the probe itself.
func unreachable(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, context.DeadlineExceeded)
}
