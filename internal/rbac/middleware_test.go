package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zellow-enterprises/zellow/internal/shared"
)

func request(role string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	if role == "" {
		return req
	}
	ctx := shared.ContextWithPrincipal(req.Context(), &shared.Principal{UserID: 1, Role: role})
	return req.WithContext(ctx)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAny(t *testing.T) {
	mw := Middleware{}
	handler := mw.RequireAny(PermOrdersEdit, PermLedgerView)(okHandler())

	cases := []struct {
		name string
		role string
		code int
	}{
		{"manager has orders.edit", "manager", http.StatusOK},
		{"staff has neither", "staff", http.StatusForbidden},
		{"technician has neither", "technician", http.StatusForbidden},
		{"unknown role", "intern", http.StatusForbidden},
		{"no principal", "", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, request(tc.role))
			require.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestRequireAll(t *testing.T) {
	mw := Middleware{}
	handler := mw.RequireAll(PermLedgerView, PermLedgerEdit)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, request("admin"))
	require.Equal(t, http.StatusOK, rec.Code)

	// manager can view the ledger but not edit it
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, request("manager"))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireNoPermsPassesThrough(t *testing.T) {
	mw := Middleware{}
	handler := mw.RequireAny()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, request(""))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPermissionsForRole(t *testing.T) {
	require.Contains(t, PermissionsForRole("admin"), PermLedgerEdit)
	require.NotContains(t, PermissionsForRole("staff"), PermOrdersEdit)
	require.Nil(t, PermissionsForRole("nobody"))
}
