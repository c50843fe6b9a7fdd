package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestRateLimit_AllowsThenBlocks(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(rate.Limit(1), 2, 10*time.Minute)
	l.now = func() time.Time { return now }

	h := limitWith(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("want 200 got %d", rr.Code)
		}
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != 429 {
		t.Fatalf("want 429 got %d", rr.Code)
	}

	// another client has its own bucket
	other := httptest.NewRequest("GET", "/", nil)
	other.RemoteAddr = "5.6.7.8:1234"
	rrOther := httptest.NewRecorder()
	h.ServeHTTP(rrOther, other)
	if rrOther.Code != 200 {
		t.Fatalf("other client: want 200 got %d", rrOther.Code)
	}

	now = now.Add(1100 * time.Millisecond)
	rr2 := httptest.NewRecorder()
	h.ServeHTTP(rr2, req)
	if rr2.Code != 200 {
		t.Fatalf("want 200 after refill got %d", rr2.Code)
	}
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	h := RateLimit(0, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for i := 0; i < 50; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
		if rr.Code != http.StatusNoContent {
			t.Fatalf("want 204 got %d", rr.Code)
		}
	}
}

func TestLimiter_SweepsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(rate.Limit(1), 1, time.Minute)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	l.allow("a")
	l.allow("b")
	if got := l.size(); got != 2 {
		t.Fatalf("want 2 clients got %d", got)
	}

	now = now.Add(2 * time.Minute)
	l.allow("c")
	if got := l.size(); got != 1 {
		t.Fatalf("idle clients should be dropped, have %d", got)
	}
}

func TestClientIP_PrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("want 10.0.0.1 got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("want 203.0.113.7 got %q", got)
	}
}
