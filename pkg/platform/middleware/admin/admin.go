package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"auditwatch/pkg/requestcontext"
)

const (
	HeaderAdminToken = "X-Admin-Token"
	HeaderActorID    = "X-Admin-Actor-ID"
)

// RequireAdminToken guards incident, compliance and report endpoints with a
// shared token. The optional actor header is stored for audit attribution.
// An empty expected token rejects every request.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get(HeaderAdminToken)
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			if actorID := r.Header.Get(HeaderActorID); actorID != "" {
				ctx = requestcontext.WithAdminActorID(ctx, actorID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
