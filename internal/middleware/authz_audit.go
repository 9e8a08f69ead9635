package middleware

import (
	"net/http"

	"github.com/dangerclosesec/orgtodo/internal/audit"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// AuthzAuditMiddleware attaches the request metadata recorded by the audit
// logger to the request context.
func AuthzAuditMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithRequest(r.Context(), chimw.GetReqID(r.Context()), r)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
