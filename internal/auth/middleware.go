package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/zellow-enterprises/zellow/internal/platform/httpx"
	"github.com/zellow-enterprises/zellow/internal/shared"
)

// Middleware validates bearer tokens and seeds the request context with the
// authenticated principal.
type Middleware struct {
	Config TokenConfig
	Logger *slog.Logger
}

// RequireAuth rejects requests without a valid bearer token.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		if raw == "" {
			httpx.Error(w, httpx.ErrUnauthorized)
			return
		}
		token := raw
		if strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = strings.TrimSpace(token[7:])
		}
		if token == "" {
			httpx.Error(w, httpx.ErrUnauthorized)
			return
		}

		claims, err := ParseToken(m.Config, token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("invalid bearer token", slog.Any("error", err))
			}
			httpx.Error(w, httpx.ErrUnauthorized)
			return
		}

		principal := &shared.Principal{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}
		ctx := shared.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
