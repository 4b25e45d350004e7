package authz

// Permission is an atomic capability name. The set is closed and defined
// at build time; the remote API uses the same identifiers.
type Permission string

// User account management.
const (
	PermUserRead   Permission = "USER_READ"
	PermUserWrite  Permission = "USER_WRITE"
	PermUserDelete Permission = "USER_DELETE"
)

// Administrator account management.
const (
	PermAdminRead   Permission = "ADMIN_READ"
	PermAdminWrite  Permission = "ADMIN_WRITE"
	PermAdminDelete Permission = "ADMIN_DELETE"
)

// Editorial content.
const (
	PermContentRead   Permission = "CONTENT_READ"
	PermContentWrite  Permission = "CONTENT_WRITE"
	PermContentDelete Permission = "CONTENT_DELETE"
)

// Weather data and tourist destinations.
const (
	PermWeatherRead      Permission = "WEATHER_READ"
	PermWeatherWrite     Permission = "WEATHER_WRITE"
	PermDestinationRead  Permission = "DESTINATION_READ"
	PermDestinationWrite Permission = "DESTINATION_WRITE"
)

// Operations.
const (
	PermDashboardView Permission = "DASHBOARD_VIEW"
	PermLogRead       Permission = "LOG_READ"
	PermSystemMonitor Permission = "SYSTEM_MONITOR"
	PermSystemConfig  Permission = "SYSTEM_CONFIG"
)

// AllPermissions returns the full permission universe. SUPER_ADMIN is
// defined against this list, so a new permission constant must be added
// here to stay visible to the catalog.
func AllPermissions() []Permission {
	return []Permission{
		PermUserRead,
		PermUserWrite,
		PermUserDelete,
		PermAdminRead,
		PermAdminWrite,
		PermAdminDelete,
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
		PermSystemConfig,
	}
}
