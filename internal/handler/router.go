package handler

import (
	"time"

	"github.com/dangerclosesec/orgtodo/internal/auth"
	"github.com/dangerclosesec/orgtodo/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// API groups the handlers served under /api.
type API struct {
	Tokens        *auth.TokenManager
	Todos         *TodoHandler
	Organizations *OrganizationHandler
	Members       *MemberHandler
	AuditLogs     *AuthzAuditLogHandler
	// RequestTimeout bounds every route except the observe stream.
	RequestTimeout time.Duration
}

// Mount registers the bearer-token protected routes on r.
func (a *API) Mount(r chi.Router) {
	timeout := a.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(a.Tokens))
		r.Use(middleware.AuthzAuditMiddleware)

		r.Get("/todos/observe", a.Todos.Observe)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(timeout))
			r.Use(chimw.AllowContentType("application/json"))

			r.Get("/me", Me)

			r.Get("/organizations", a.Organizations.List)
			r.Post("/organizations", a.Organizations.Create)
			r.Get("/organizations/{id}", a.Organizations.Get)
			r.Put("/organizations/{id}", a.Organizations.Update)
			r.Delete("/organizations/{id}", a.Organizations.Delete)
			r.Get("/organizations/{id}/deletion", a.Organizations.Deletion)

			r.Get("/memberships/mine", a.Members.Mine)
			r.Get("/members", a.Members.List)
			r.Post("/members", a.Members.Create)
			r.Get("/members/{id}", a.Members.Get)
			r.Delete("/members/{id}", a.Members.Delete)
			r.Post("/members/{id}/accept", a.Members.Accept)

			r.Get("/todos", a.Todos.List)
			r.Post("/todos", a.Todos.Create)
			r.Get("/todos/{id}", a.Todos.Get)
			r.Put("/todos/{id}", a.Todos.Update)
			r.Post("/todos/{id}/toggle", a.Todos.Toggle)
			r.Delete("/todos/{id}", a.Todos.Delete)

			if a.AuditLogs != nil {
				r.Group(func(r chi.Router) {
					r.Use(a.AuditLogs.RequireAdmin)
					r.Get("/audit-logs", a.AuditLogs.GetAuditLogs)
					r.Get("/audit-logs/{id}", a.AuditLogs.GetAuditLogByID)
				})
			}
		})
	})
}
