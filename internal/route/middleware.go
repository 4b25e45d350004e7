// Package route enforces access at the routing layer. Each middleware
// consults the permission evaluator on every request, so a mid-session
// downgrade redirects on the very next navigation. Authentication
// failures go to the login entry point; authorization failures go to the
// distinct unauthorized destination, and the two must stay apart.
package route

import (
	"log/slog"
	"net/http"

	"github.com/aicc6/weather-flick-admin-gateway/internal/access"
	"github.com/aicc6/weather-flick-admin-gateway/internal/authz"
)

// DenialRecorder counts authorization denials for observability.
type DenialRecorder interface {
	RecordDenial()
}

// Middleware wires authorization checks for console routes.
type Middleware struct {
	Evaluator        *access.Evaluator
	Logger           *slog.Logger
	LoginPath        string
	UnauthorizedPath string
	Metrics          DenialRecorder
}

// RequireAuth blocks anonymous requests and redirects them to the login
// entry point.
func (m Middleware) RequireAuth() func(http.Handler) http.Handler {
	return m.wrap(func() bool { return true })
}

// RequireRole requires the derived role to equal role exactly.
func (m Middleware) RequireRole(role authz.Role) func(http.Handler) http.Handler {
	return m.wrap(func() bool { return m.Evaluator.HasRole(role) })
}

// RequireAdmin requires an administrative role (ADMIN or SUPER_ADMIN).
func (m Middleware) RequireAdmin() func(http.Handler) http.Handler {
	return m.wrap(func() bool { return m.Evaluator.IsAdmin() })
}

// RequireAny requires at least one of perms. An empty list denies
// everyone, matching the catalog's empty-requirement policy.
func (m Middleware) RequireAny(perms ...authz.Permission) func(http.Handler) http.Handler {
	return m.wrap(func() bool { return m.Evaluator.HasAnyPermission(perms...) })
}

// RequireAll requires every one of perms.
func (m Middleware) RequireAll(perms ...authz.Permission) func(http.Handler) http.Handler {
	return m.wrap(func() bool { return m.Evaluator.HasAllPermissions(perms...) })
}

func (m Middleware) wrap(allowed func() bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.Evaluator.IsAuthenticated() {
				http.Redirect(w, r, m.LoginPath, http.StatusSeeOther)
				return
			}
			if !allowed() {
				if m.Metrics != nil {
					m.Metrics.RecordDenial()
				}
				if m.Logger != nil {
					m.Logger.Warn("route access denied",
						slog.String("path", r.URL.Path),
						slog.String("role", string(m.Evaluator.Role())))
				}
				http.Redirect(w, r, m.UnauthorizedPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
