package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(mw func(http.Handler) http.Handler, header, value string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/domain/check", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	mw(okHandler).ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireAdmin_AllowsAdminKey_BlocksPublicKey(t *testing.T) {
	keys := Keys{
		Public: []string{"pub_key"},
		Admin:  []string{"adm_key"},
	}

	if code := serve(RequireAdmin(keys), "X-API-Key", "adm_key"); code != http.StatusOK {
		t.Fatalf("admin key should pass; got %d", code)
	}
	if code := serve(RequireAdmin(keys), "Authorization", "Bearer adm_key"); code != http.StatusOK {
		t.Fatalf("bearer admin key should pass; got %d", code)
	}
	if code := serve(RequireAdmin(keys), "X-API-Key", "pub_key"); code != http.StatusForbidden {
		t.Fatalf("public key should be forbidden; got %d", code)
	}
	if code := serve(RequireAdmin(keys), "", ""); code != http.StatusUnauthorized {
		t.Fatalf("missing key should be 401; got %d", code)
	}
}

func TestRequireAny(t *testing.T) {
	keys := Keys{
		Public: []string{"pub_key"},
		Admin:  []string{"adm_key"},
	}
	for _, k := range []string{"pub_key", "adm_key"} {
		if code := serve(RequireAny(keys), "X-API-Key", k); code != http.StatusOK {
			t.Fatalf("%s should pass; got %d", k, code)
		}
	}
	if code := serve(RequireAny(keys), "X-API-Key", "nope"); code != http.StatusUnauthorized {
		t.Fatalf("unknown key should be 401; got %d", code)
	}
}

func TestNoKeysConfigured_IsOpen(t *testing.T) {
	if code := serve(RequireAdmin(Keys{}), "", ""); code != http.StatusOK {
		t.Fatalf("admin without keys should be open; got %d", code)
	}
	if code := serve(RequireAny(Keys{}), "", ""); code != http.StatusOK {
		t.Fatalf("read without keys should be open; got %d", code)
	}
}
