package authz

// Role is a coarse-grained label carrying a fixed permission set. Exactly
// one role applies to a principal at a time; there is no multi-role
// composition.
type Role string

const (
	// RoleSuperAdmin always holds the full permission universe.
	RoleSuperAdmin Role = "SUPER_ADMIN"
	// RoleAdmin is a non-superuser administrative account.
	RoleAdmin Role = "ADMIN"
	// RoleContentManager curates editorial content and destinations.
	RoleContentManager Role = "CONTENT_MANAGER"
	// RoleDataAnalyst has read access to data surfaces.
	RoleDataAnalyst Role = "DATA_ANALYST"
	// RoleModerator reviews user-facing content.
	RoleModerator Role = "MODERATOR"
	// RoleSupport handles user inquiries.
	RoleSupport Role = "SUPPORT"
	// RoleUser is the fallback for principals with no explicit role.
	RoleUser Role = "USER"

	// RoleNone marks the absence of a role (anonymous session).
	RoleNone Role = ""
)

// rolePermissions maps every known role to its explicit grant set.
// RoleSuperAdmin is intentionally absent: it resolves to AllPermissions
// so a newly added permission can never exceed the super admin's rights.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermUserRead,
		PermUserWrite,
		PermUserDelete,
		PermAdminRead,
		PermContentRead,
		PermContentWrite,
		PermContentDelete,
		PermWeatherRead,
		PermWeatherWrite,
		PermDestinationRead,
		PermDestinationWrite,
		PermDashboardView,
		PermLogRead,
		PermSystemMonitor,
	},
	RoleContentManager: {
		PermContentRead,
		PermContentWrite,
		PermContentDelete,
		PermDestinationRead,
		PermDestinationWrite,
		PermDashboardView,
	},
	RoleDataAnalyst: {
		PermUserRead,
		PermContentRead,
		PermWeatherRead,
		PermDestinationRead,
		PermDashboardView,
		PermLogRead,
	},
	RoleModerator: {
		PermUserRead,
		PermContentRead,
		PermContentWrite,
		PermDashboardView,
	},
	RoleSupport: {
		PermUserRead,
		PermContentRead,
		PermDashboardView,
	},
	RoleUser: {},
}

// KnownRoles lists every role the catalog can resolve.
func KnownRoles() []Role {
	return []Role{
		RoleSuperAdmin,
		RoleAdmin,
		RoleContentManager,
		RoleDataAnalyst,
		RoleModerator,
		RoleSupport,
		RoleUser,
	}
}
