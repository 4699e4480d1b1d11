package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func authStack(t *testing.T) (http.Handler, *Caller) {
	t.Helper()
	var seen Caller
	auth := Authenticator{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		require.True(t, ok)
		seen = caller
		w.WriteHeader(http.StatusNoContent)
	})
	return auth.Middleware(next), &seen
}

func TestMiddlewareRejectsMissingCredential(t *testing.T) {
	handler, _ := authStack(t)

	for name, build := range map[string]func(*http.Request){
		"no header":     func(r *http.Request) {},
		"empty bearer":  func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
		"wrong scheme":  func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") },
		"no identity":   func(r *http.Request) { r.Header.Set("Authorization", "Bearer token") },
		"bad identity":  func(r *http.Request) { r.Header.Set("Authorization", "Bearer token"); r.Header.Set("X-User-ID", "zero") },
		"zero identity": func(r *http.Request) { r.Header.Set("Authorization", "Bearer token"); r.Header.Set("X-User-ID", "0") },
	} {
		req := httptest.NewRequest(http.MethodGet, "/work-orders", nil)
		build(req)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, name)
		require.Contains(t, rec.Header().Get("Content-Type"), "application/json", name)
	}
}

func TestMiddlewareInjectsCaller(t *testing.T) {
	handler, seen := authStack(t)

	req := httptest.NewRequest(http.MethodGet, "/work-orders", nil)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("X-User-ID", "42")
	req.Header.Set("X-User-Name", "Mehmet")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, int64(42), seen.ID)
	require.Equal(t, "Mehmet", seen.Name)
}
