// Package access answers point queries about the current operator's
// rights. It derives role and grant set from the session store's
// principal and memoizes the derivation against the store's version
// counter, so unrelated renders never pay for a recompute and a principal
// change always invalidates the cache.
package access

import (
	"sync"

	"github.com/aicc6/weather-flick-admin-gateway/internal/authz"
	"github.com/aicc6/weather-flick-admin-gateway/internal/session"
)

// Evaluator is safe for concurrent use. Every query fails closed: with no
// authenticated principal the answer is false, whatever the input.
type Evaluator struct {
	store *session.Store

	mu            sync.Mutex
	cached        bool
	version       uint64
	authenticated bool
	role          authz.Role
	grants        map[authz.Permission]struct{}
	recomputes    int
}

// NewEvaluator constructs an Evaluator over the session store.
func NewEvaluator(store *session.Store) *Evaluator {
	return &Evaluator{store: store}
}

type snapshot struct {
	authenticated bool
	role          authz.Role
	grants        map[authz.Permission]struct{}
}

func (e *Evaluator) snapshot() snapshot {
	version := e.store.Version()
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.cached || e.version != version {
		principal, ok := e.store.Principal()
		e.authenticated = ok
		if ok {
			e.role = principal.Role()
			e.grants = authz.PermissionsFor(e.role)
		} else {
			e.role = authz.RoleNone
			e.grants = nil
		}
		e.version = version
		e.cached = true
		e.recomputes++
	}
	return snapshot{authenticated: e.authenticated, role: e.role, grants: e.grants}
}

// IsAuthenticated reports whether a principal is present.
func (e *Evaluator) IsAuthenticated() bool {
	return e.snapshot().authenticated
}

// Role returns the derived role, RoleNone while anonymous or loading.
func (e *Evaluator) Role() authz.Role {
	return e.snapshot().role
}

// HasPermission reports whether the current principal holds perm.
func (e *Evaluator) HasPermission(perm authz.Permission) bool {
	snap := e.snapshot()
	if !snap.authenticated {
		return false
	}
	_, ok := snap.grants[perm]
	return ok
}

// HasRole reports whether the current principal's derived role is role.
func (e *Evaluator) HasRole(role authz.Role) bool {
	snap := e.snapshot()
	return snap.authenticated && snap.role == role
}

// HasAnyPermission reports whether at least one of perms is held. An
// empty requirement list is never satisfied.
func (e *Evaluator) HasAnyPermission(perms ...authz.Permission) bool {
	snap := e.snapshot()
	if !snap.authenticated || len(perms) == 0 {
		return false
	}
	for _, p := range perms {
		if _, ok := snap.grants[p]; ok {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every element of perms is held. An
// empty requirement list is never satisfied.
func (e *Evaluator) HasAllPermissions(perms ...authz.Permission) bool {
	snap := e.snapshot()
	if !snap.authenticated || len(perms) == 0 {
		return false
	}
	for _, p := range perms {
		if _, ok := snap.grants[p]; !ok {
			return false
		}
	}
	return true
}

// IsAdmin reports whether the current role is administrative.
func (e *Evaluator) IsAdmin() bool {
	snap := e.snapshot()
	return snap.authenticated && authz.IsAdmin(snap.role)
}

// IsSuperAdmin reports whether the current role is the super admin.
func (e *Evaluator) IsSuperAdmin() bool {
	snap := e.snapshot()
	return snap.authenticated && authz.IsSuperAdmin(snap.role)
}

// IsUser reports whether the current principal carries the fallback USER
// role.
func (e *Evaluator) IsUser() bool {
	snap := e.snapshot()
	return snap.authenticated && snap.role == authz.RoleUser
}

// WithPermission evaluates an any-of requirement and invokes exactly one
// of the two callbacks. Nil callbacks are allowed.
func (e *Evaluator) WithPermission(required []authz.Permission, onGranted, onDenied func()) {
	if e.HasAnyPermission(required...) {
		if onGranted != nil {
			onGranted()
		}
		return
	}
	if onDenied != nil {
		onDenied()
	}
}
