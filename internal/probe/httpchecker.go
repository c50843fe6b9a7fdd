package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/probeexporter/internal/domain"
)

const UserAgent = "ProbeExporter/1.0 (HTTP Monitor)"

type HTTPConfig struct {
	ConnectTimeout      time.Duration
	ReadTimeout         time.Duration
	ExpectedStatusCodes []int
	FollowRedirects     bool
}

// HTTPChecker issues one GET per target and classifies the status code.
type HTTPChecker struct {
	Logger *zap.Logger
	Config HTTPConfig
	Client *http.Client

	expected map[int]struct{}
	now      clock
}

func NewHTTPChecker(logger *zap.Logger, cfg HTTPConfig) *HTTPChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		DisableKeepAlives:     true,
	}
	client := &http.Client{Transport: tr}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	h := &HTTPChecker{Logger: logger, Config: cfg, Client: client}
	h.expected = make(map[int]struct{}, len(cfg.ExpectedStatusCodes))
	for _, c := range cfg.ExpectedStatusCodes {
		h.expected[c] = struct{}{}
	}
	return h
}

// Success decides availability: membership in the expected set when one is
// configured, otherwise any 2xx.
func (h *HTTPChecker) Success(code int) bool {
	if len(h.expected) > 0 {
		_, ok := h.expected[code]
		return ok
	}
	return code >= 200 && code < 300
}

func (h *HTTPChecker) Check(ctx context.Context, target string) domain.HTTPResult {
	return h.CheckHTTPAvailable(ctx, target)
}

// CheckHTTPAvailable GETs url and records status, timing and headers.
func (h *HTTPChecker) CheckHTTPAvailable(ctx context.Context, url string) (res domain.HTTPResult) {
	url = strings.TrimSpace(url)
	res = domain.HTTPResult{URL: url, URLHash: domain.URLHash(url)}
	defer func() {
		if r := recover(); r != nil {
			h.Logger.Error("http_check_panic", zap.String("url", url), zap.Any("panic", r))
			res = domain.NewHTTPError(url, fmt.Errorf("panic: %v", r))
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return h.fail(res, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Close = true

	start := time.Now()
	resp, err := h.Client.Do(req)
	res.ResponseTimeMS = elapsedMS(start)
	if err != nil {
		return h.fail(res, err)
	}
	defer resp.Body.Close()

	res.LastChecked = h.now.now()
	res.StatusCode = resp.StatusCode
	res.StatusMessage = strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" ")
	res.ContentLength = resp.ContentLength
	res.ContentType = resp.Header.Get("Content-Type")
	res.ResponseHeaders = flattenHeaders(resp.Header)
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		res.RedirectURL = resp.Header.Get("Location")
	}

	if h.Success(resp.StatusCode) {
		res.Available = true
		res.Status = domain.StatusAvailable
	} else {
		res.Status = domain.StatusUnavailable
		res.Error = fmt.Sprintf("HTTP %d %s", res.StatusCode, res.StatusMessage)
	}
	h.Logger.Debug("http_checked",
		zap.String("url", url),
		zap.Int("status_code", res.StatusCode),
		zap.Int64("response_time_ms", res.ResponseTimeMS),
		zap.String("status", string(res.Status)),
	)
	return res
}

func (h *HTTPChecker) fail(res domain.HTTPResult, err error) domain.HTTPResult {
	h.Logger.Error("http_check_error", zap.String("url", res.URL), zap.Error(err))
	res.LastChecked = h.now.now()
	res.Status = domain.StatusError
	res.Error = err.Error()
	return res
}

func flattenHeaders(hdr http.Header) map[string]string {
	out := make(map[string]string, len(hdr))
	for k, v := range hdr {
		if len(v) > 0 {
			out[k] = strings.Join(v, ", ")
		}
	}
	return out
}
