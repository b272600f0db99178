package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zellow-enterprises/zellow/internal/shared"
)

func TestRequireAuth(t *testing.T) {
	cfg := TokenConfig{Secret: "test-secret", Issuer: "zellow", TTL: time.Hour}
	mw := Middleware{Config: cfg}

	var seen *shared.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := mw.RequireAuth(next)

	signed, err := MintToken(cfg, time.Now(), &User{ID: 7, Email: "ops@zellow.test", Role: RoleManager})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	require.Equal(t, int64(7), seen.UserID)
	require.Equal(t, RoleManager, seen.Role)
}

func TestRequireAuthRejects(t *testing.T) {
	cfg := TokenConfig{Secret: "test-secret", Issuer: "zellow", TTL: time.Hour}
	mw := Middleware{Config: cfg}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})
	handler := mw.RequireAuth(next)

	cases := map[string]string{
		"missing header": "",
		"empty bearer":   "Bearer ",
		"garbage token":  "Bearer not.a.jwt",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
