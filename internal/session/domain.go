package session

import (
	"encoding/json"
	"fmt"

	"github.com/aicc6/weather-flick-admin-gateway/internal/authz"
)

// Principal is the authenticated identity for the operator session. It is
// a closed union: AdminPrincipal for administrative accounts (role
// derived from the superuser flag) and UserPrincipal for ordinary
// accounts (explicit role name). Role derivation is total; no principal
// shape can fail it.
type Principal interface {
	// Subject is a stable identifier for audit records.
	Subject() string
	// DisplayName is shown in the console chrome.
	DisplayName() string
	// Role derives the catalog role for this principal.
	Role() authz.Role
}

// AdminPrincipal is an administrative account record.
type AdminPrincipal struct {
	ID          int64  `json:"admin_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	IsSuperuser bool   `json:"is_superuser"`
}

// Subject implements Principal.
func (p AdminPrincipal) Subject() string {
	return fmt.Sprintf("admin:%d", p.ID)
}

// DisplayName implements Principal.
func (p AdminPrincipal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// Role implements Principal.
func (p AdminPrincipal) Role() authz.Role {
	if p.IsSuperuser {
		return authz.RoleSuperAdmin
	}
	return authz.RoleAdmin
}

// UserPrincipal is an ordinary account record.
type UserPrincipal struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	RoleName string `json:"role"`
}

// Subject implements Principal.
func (p UserPrincipal) Subject() string {
	return fmt.Sprintf("user:%d", p.ID)
}

// DisplayName implements Principal.
func (p UserPrincipal) DisplayName() string {
	if p.Nickname != "" {
		return p.Nickname
	}
	return p.Email
}

// Role implements Principal. An absent role falls back to USER; an
// unknown role name is carried as-is and resolves to the empty grant set
// in the catalog.
func (p UserPrincipal) Role() authz.Role {
	if p.RoleName == "" {
		return authz.RoleUser
	}
	return authz.Role(p.RoleName)
}

// DecodePrincipal maps the current-principal payload onto the union. The
// is_superuser field is the discriminator: administrative records carry
// it, ordinary accounts never do.
func DecodePrincipal(raw json.RawMessage) (Principal, error) {
	var probe struct {
		IsSuperuser *bool `json:"is_superuser"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("session: decode principal: %w", err)
	}
	if probe.IsSuperuser != nil {
		var admin AdminPrincipal
		if err := json.Unmarshal(raw, &admin); err != nil {
			return nil, fmt.Errorf("session: decode admin principal: %w", err)
		}
		return admin, nil
	}
	var user UserPrincipal
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("session: decode user principal: %w", err)
	}
	return user, nil
}
