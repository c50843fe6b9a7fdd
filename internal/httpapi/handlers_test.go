package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/probeexporter/internal/domain"
	apimw "github.com/hamed0406/probeexporter/internal/httpapi/middleware"
	"github.com/hamed0406/probeexporter/internal/repo/memory"
)

// ---- test helpers ----

type fixture struct {
	srv     *httptest.Server
	batches map[domain.Kind]*fakeBatch
	domains *memory.Store[domain.DomainResult]
	certs   *memory.Store[domain.CertResult]
	ports   *memory.Store[domain.PortResult]
	https   *memory.Store[domain.HTTPResult]
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		batches: map[domain.Kind]*fakeBatch{},
		domains: memory.New[domain.DomainResult](),
		certs:   memory.New[domain.CertResult](),
		ports:   memory.New[domain.PortResult](),
		https:   memory.New[domain.HTTPResult](),
	}
	for _, k := range domain.Kinds() {
		f.batches[k] = &fakeBatch{kind: k}
	}

	srv := NewServer(zap.NewNop(), Options{
		ServiceName: "probe-exporter",
		Keys: apimw.Keys{
			Public: []string{"pub_test"},
			Admin:  []string{"adm_test"},
		},
		// very high rate limits to avoid flakiness in tests
		RatePerMinute: 100_000,
		RateBurst:     10_000,
	},
		NewDomainMonitor(f.batches[domain.KindDomain], f.domains),
		NewCertMonitor(f.batches[domain.KindSSL], f.certs),
		NewPortMonitor(f.batches[domain.KindPort], f.ports),
		NewHTTPMonitor(f.batches[domain.KindHTTP], f.https),
	)
	f.srv = httptest.NewServer(srv.Router())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, key string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

// ---- tests ----

func TestTrigger_PerKind(t *testing.T) {
	f := setup(t)

	resp, body := f.do(t, http.MethodPost, "/api/port/check", "adm_test")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("want 202, got %d", resp.StatusCode)
	}
	if string(body) != "Port connectivity check triggered" {
		t.Fatalf("unexpected body %q", body)
	}
	if f.batches[domain.KindPort].triggers.Load() != 1 {
		t.Fatalf("port batch not triggered")
	}
	if f.batches[domain.KindDomain].triggers.Load() != 0 {
		t.Fatalf("domain batch should not be triggered")
	}
}

func TestTrigger_RequiresAdmin(t *testing.T) {
	f := setup(t)

	if resp, _ := f.do(t, http.MethodPost, "/api/domain/check", "pub_test"); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("public key: want 403, got %d", resp.StatusCode)
	}
	if resp, _ := f.do(t, http.MethodPost, "/api/domain/check", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no key: want 401, got %d", resp.StatusCode)
	}
	if f.batches[domain.KindDomain].triggers.Load() != 0 {
		t.Fatalf("rejected requests must not trigger")
	}
}

func TestTrigger_UnknownKind404(t *testing.T) {
	f := setup(t)
	if resp, _ := f.do(t, http.MethodPost, "/api/dns/check", "adm_test"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404, got %d", resp.StatusCode)
	}
}

func TestTriggerAll_BothRoutes(t *testing.T) {
	f := setup(t)

	for _, path := range []string{"/api/check/all", "/api/monitor/check/all"} {
		resp, body := f.do(t, http.MethodPost, path, "adm_test")
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("%s: want 202, got %d", path, resp.StatusCode)
		}
		if string(body) != allTriggeredReply {
			t.Fatalf("%s: unexpected body %q", path, body)
		}
	}
	for k, b := range f.batches {
		if got := b.triggers.Load(); got != 2 {
			t.Fatalf("%s: want 2 triggers, got %d", k, got)
		}
	}
}

func TestStatusSnapshotAndLookup(t *testing.T) {
	f := setup(t)
	exp := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	f.domains.Upsert("example.com", domain.DomainResult{
		Domain:              "example.com",
		ExpirationDate:      &exp,
		DaysUntilExpiration: 100,
		Status:              domain.StatusValid,
	})

	resp, body := f.do(t, http.MethodGet, "/api/domain/status", "pub_test")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var snap map[string]domain.DomainResult
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap) != 1 || snap["example.com"].DaysUntilExpiration != 100 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	resp, body = f.do(t, http.MethodGet, "/api/domain/status/example.com", "pub_test")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var one domain.DomainResult
	if err := json.Unmarshal(body, &one); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if one.Status != domain.StatusValid || one.ExpirationDate == nil || !one.ExpirationDate.Equal(exp) {
		t.Fatalf("unexpected result %+v", one)
	}

	if resp, _ := f.do(t, http.MethodGet, "/api/domain/status/missing.com", "pub_test"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("absent key: want 404, got %d", resp.StatusCode)
	}
	if resp, _ := f.do(t, http.MethodGet, "/api/domain/status", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no key: want 401, got %d", resp.StatusCode)
	}
}

func TestPortLookup_ToleratesEncodedColon(t *testing.T) {
	f := setup(t)
	f.ports.Upsert("db.internal:5432", domain.PortResult{
		Target: "db.internal:5432", Host: "db.internal", Port: 5432, Open: true, Status: domain.StatusOpen,
	})

	for _, path := range []string{
		"/api/port/status/db.internal:5432",
		"/api/port/status/db.internal%3A5432",
		"/api/port/status/db.internal%3a5432",
	} {
		resp, body := f.do(t, http.MethodGet, path, "pub_test")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: want 200, got %d", path, resp.StatusCode)
		}
		var r domain.PortResult
		if err := json.Unmarshal(body, &r); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
		if r.Port != 5432 || !r.Open {
			t.Fatalf("%s: unexpected %+v", path, r)
		}
	}
}

func TestHTTPLookup_ByHash(t *testing.T) {
	f := setup(t)
	url := "https://example.com/status"
	f.https.Upsert(url, domain.HTTPResult{
		URL: url, URLHash: domain.URLHash(url), StatusCode: 503, Status: domain.StatusUnavailable,
		Error: "HTTP 503 Service Unavailable",
	})

	resp, body := f.do(t, http.MethodGet, "/api/http/status/"+domain.URLHash(url), "pub_test")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var r domain.HTTPResult
	if err := json.Unmarshal(body, &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.URL != url || r.URLHash != domain.URLHash(url) || r.StatusCode != 503 {
		t.Fatalf("unexpected %+v", r)
	}

	if resp, _ := f.do(t, http.MethodGet, "/api/http/status/0000000000000000", "pub_test"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown hash: want 404, got %d", resp.StatusCode)
	}
}

func TestSummary(t *testing.T) {
	f := setup(t)
	f.certs.Upsert("a.com", domain.CertResult{Domain: "a.com", Status: domain.StatusExpired, Expired: true})
	f.https.Upsert("http://x", domain.HTTPResult{URL: "http://x", Available: true, Status: domain.StatusAvailable})
	f.https.Upsert("http://y", domain.HTTPResult{URL: "http://y", Status: domain.StatusError})

	resp, body := f.do(t, http.MethodGet, "/api/monitor/status/summary", "pub_test")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var sum map[string]map[string]int
	if err := json.Unmarshal(body, &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum["ssl"]["total"] != 1 || sum["ssl"]["expired"] != 1 {
		t.Fatalf("ssl: %v", sum["ssl"])
	}
	if sum["http"]["available"] != 1 || sum["http"]["unavailable"] != 1 {
		t.Fatalf("http: %v", sum["http"])
	}
	if sum["domain"]["total"] != 0 || sum["port"]["total"] != 0 {
		t.Fatalf("empty kinds should report zero totals: %v", sum)
	}
}

func TestHealth(t *testing.T) {
	f := setup(t)

	resp, body := f.do(t, http.MethodGet, "/api/monitor/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var h map[string]string
	if err := json.Unmarshal(body, &h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h["status"] != "UP" || h["service"] != "probe-exporter" || h["version"] != "1.0.0" {
		t.Fatalf("unexpected health %v", h)
	}

	if resp, body := f.do(t, http.MethodGet, "/healthz", ""); resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("healthz: %d %q", resp.StatusCode, body)
	}
}

type fakeAdder struct {
	added []string
}

func (f *fakeAdder) AddTarget(_ context.Context, kind domain.Kind, target string) error {
	f.added = append(f.added, string(kind)+"|"+target)
	return nil
}

func TestAddTarget(t *testing.T) {
	adder := &fakeAdder{}
	batch := &fakeBatch{kind: domain.KindPort}
	srv := NewServer(zap.NewNop(), Options{
		Targets: adder,
		Keys:    apimw.Keys{Admin: []string{"adm_test"}},
	}, NewPortMonitor(batch, memory.New[domain.PortResult]()))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	post := func(body, key string) int {
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/port/targets", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := post(`{"target":"db.internal:5432"}`, "adm_test"); code != http.StatusCreated {
		t.Fatalf("want 201, got %d", code)
	}
	if len(adder.added) != 1 || adder.added[0] != "port|db.internal:5432" {
		t.Fatalf("unexpected adds %v", adder.added)
	}
	if batch.triggers.Load() != 1 {
		t.Fatalf("adding a target should trigger a batch")
	}

	if code := post(`{"target":"db.internal"}`, "adm_test"); code != http.StatusBadRequest {
		t.Fatalf("missing port: want 400, got %d", code)
	}
	if code := post(`not json`, "adm_test"); code != http.StatusBadRequest {
		t.Fatalf("bad payload: want 400, got %d", code)
	}
	if code := post(`{"target":"x:1"}`, ""); code != http.StatusUnauthorized {
		t.Fatalf("no key: want 401, got %d", code)
	}
	if len(adder.added) != 1 {
		t.Fatalf("rejected requests must not persist: %v", adder.added)
	}
}

func TestAddTarget_RouteAbsentWithoutStore(t *testing.T) {
	f := setup(t)
	if resp, _ := f.do(t, http.MethodPost, "/api/port/targets", "adm_test"); resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("want 404/405 without a target store, got %d", resp.StatusCode)
	}
}

func TestValidTarget(t *testing.T) {
	cases := []struct {
		kind   domain.Kind
		target string
		want   bool
	}{
		{domain.KindDomain, "example.com", true},
		{domain.KindDomain, "https://example.com", false},
		{domain.KindSSL, "example.com:443", false},
		{domain.KindPort, "example.com:443", true},
		{domain.KindPort, "example.com:0", false},
		{domain.KindHTTP, "https://example.com/health", true},
		{domain.KindHTTP, "ftp://x", false},
		{domain.KindHTTP, "https://", false},
		{domain.KindDomain, "", false},
	}
	for _, c := range cases {
		if got := validTarget(c.kind, c.target); got != c.want {
			t.Fatalf("validTarget(%s, %q)=%v want %v", c.kind, c.target, got, c.want)
		}
	}
}
