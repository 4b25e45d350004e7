// Package guard provides declarative show/hide decisions for console
// subtrees. A guard is evaluated synchronously on every render against
// the permission evaluator; it performs no I/O of its own.
package guard

import (
	"github.com/aicc6/weather-flick-admin-gateway/internal/access"
	"github.com/aicc6/weather-flick-admin-gateway/internal/authz"
)

// Guard describes a requirement for rendering a subtree. Role and
// Permissions are alternatives: when Role is set it is evaluated and the
// permission requirement is ignored. Existing call sites depend on that
// precedence.
type Guard struct {
	Role        authz.Role
	Permissions []authz.Permission
	RequireAll  bool
	// Fallback is rendered when the requirement is not met.
	Fallback string
	// HideOnFail forces the fallback to nothing regardless of Fallback.
	HideOnFail bool
}

// Allows reports whether the subtree may render. A guard with neither
// role nor permission requirement only asks for an authenticated
// principal.
func (g Guard) Allows(ev *access.Evaluator) bool {
	if g.Role != authz.RoleNone {
		return ev.HasRole(g.Role)
	}
	if len(g.Permissions) > 0 {
		if g.RequireAll {
			return ev.HasAllPermissions(g.Permissions...)
		}
		return ev.HasAnyPermission(g.Permissions...)
	}
	return ev.IsAuthenticated()
}

// Render returns content when the guard allows it, otherwise the
// fallback (empty when HideOnFail is set).
func (g Guard) Render(ev *access.Evaluator, content string) string {
	if g.Allows(ev) {
		return content
	}
	if g.HideOnFail {
		return ""
	}
	return g.Fallback
}

// AdminOnly is the generic guard pre-bound to the administrative check
// (ADMIN or SUPER_ADMIN).
func AdminOnly(ev *access.Evaluator, content, fallback string) string {
	if ev.IsAdmin() {
		return content
	}
	return fallback
}

// SuperAdminOnly is the generic guard pre-bound to the super admin check.
func SuperAdminOnly(ev *access.Evaluator, content, fallback string) string {
	if ev.IsSuperAdmin() {
		return content
	}
	return fallback
}

// Authenticated is the generic guard pre-bound to the signed-in check.
func Authenticated(ev *access.Evaluator, content, fallback string) string {
	if ev.IsAuthenticated() {
		return content
	}
	return fallback
}
