// Package authz holds the static permission catalog: the closed sets of
// permissions and roles and the role to permission-set mapping. Every
// function is a pure lookup; unknown input resolves to the empty set so a
// catalog mismatch degrades to deny rather than a crash.
package authz

// PermissionsFor returns the grant set for a role. Unknown roles and
// RoleNone yield an empty set.
func PermissionsFor(role Role) map[Permission]struct{} {
	if role == RoleSuperAdmin {
		all := AllPermissions()
		set := make(map[Permission]struct{}, len(all))
		for _, p := range all {
			set[p] = struct{}{}
		}
		return set
	}
	grants, ok := rolePermissions[role]
	if !ok {
		return map[Permission]struct{}{}
	}
	set := make(map[Permission]struct{}, len(grants))
	for _, p := range grants {
		set[p] = struct{}{}
	}
	return set
}

// HasPermission reports whether the role's grant set contains perm.
func HasPermission(role Role, perm Permission) bool {
	_, ok := PermissionsFor(role)[perm]
	return ok
}

// HasAnyPermission reports whether at least one of perms is granted to
// the role. An empty requirement list is never satisfied.
func HasAnyPermission(role Role, perms []Permission) bool {
	if len(perms) == 0 {
		return false
	}
	set := PermissionsFor(role)
	for _, p := range perms {
		if _, ok := set[p]; ok {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every element of perms is granted to
// the role. An empty requirement list is never satisfied.
func HasAllPermissions(role Role, perms []Permission) bool {
	if len(perms) == 0 {
		return false
	}
	set := PermissionsFor(role)
	for _, p := range perms {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}

// IsSuperAdmin reports whether the role is the super administrator.
func IsSuperAdmin(role Role) bool {
	return role == RoleSuperAdmin
}

// IsAdmin reports whether the role is administrative (admin or super
// admin).
func IsAdmin(role Role) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}
