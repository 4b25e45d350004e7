package access

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aicc6/weather-flick-admin-gateway/internal/authz"
	"github.com/aicc6/weather-flick-admin-gateway/internal/session"
)

type fakeTransport struct {
	principal string
	meErr     error
}

func (f *fakeTransport) Get(ctx context.Context, path string, out any) error {
	if f.meErr != nil {
		return f.meErr
	}
	raw, ok := out.(*json.RawMessage)
	if !ok {
		return errors.New("unexpected out type")
	}
	*raw = json.RawMessage(f.principal)
	return nil
}

func (f *fakeTransport) PostAnonymous(ctx context.Context, path string, in, out any) error {
	data, _ := json.Marshal(map[string]string{"access_token": "tok"})
	return json.Unmarshal(data, out)
}

type memCreds struct {
	token string
}

func (m *memCreds) Token(ctx context.Context) (string, error) { return m.token, nil }

func (m *memCreds) Set(ctx context.Context, token string) error {
	m.token = token
	return nil
}

func (m *memCreds) Clear(ctx context.Context) (bool, error) {
	had := m.token != ""
	m.token = ""
	return had, nil
}

func newAuthenticatedStore(t *testing.T, principal string) *session.Store {
	t.Helper()
	store := session.NewStore(&fakeTransport{principal: principal}, &memCreds{}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	result := store.Login(context.Background(), "x@x.com", "pw")
	require.True(t, result.OK, result.Message)
	return store
}

func TestFailClosedWhileAnonymous(t *testing.T) {
	store := session.NewStore(&fakeTransport{}, &memCreds{}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	ev := NewEvaluator(store)

	require.False(t, ev.IsAuthenticated())
	require.Equal(t, authz.RoleNone, ev.Role())
	require.False(t, ev.HasPermission(authz.PermUserRead))
	require.False(t, ev.HasPermission(authz.Permission("NOT_A_PERMISSION")))
	require.False(t, ev.HasRole(authz.RoleSuperAdmin))
	require.False(t, ev.HasAnyPermission(authz.PermUserRead, authz.PermLogRead))
	require.False(t, ev.HasAllPermissions(authz.PermUserRead))
	require.False(t, ev.IsAdmin())
	require.False(t, ev.IsSuperAdmin())
	require.False(t, ev.IsUser())
}

func TestSuperAdminInheritsEveryPermission(t *testing.T) {
	store := newAuthenticatedStore(t, `{"admin_id":1,"email":"admin@x.com","is_superuser":true}`)
	ev := NewEvaluator(store)

	require.True(t, ev.IsSuperAdmin())
	for _, perm := range authz.AllPermissions() {
		require.True(t, ev.HasPermission(perm), "missing %s", perm)
	}
	require.True(t, ev.HasPermission(authz.PermLogRead))
}

func TestModeratorGrants(t *testing.T) {
	store := newAuthenticatedStore(t, `{"id":4,"email":"mod@x.com","role":"MODERATOR"}`)
	ev := NewEvaluator(store)

	require.True(t, ev.HasRole(authz.RoleModerator))
	require.True(t, ev.HasPermission(authz.PermContentWrite))
	require.False(t, ev.HasPermission(authz.PermAdminDelete))
	require.False(t, ev.IsAdmin())
	require.False(t, ev.IsUser())
}

func TestEmptyRequirementListsDeny(t *testing.T) {
	store := newAuthenticatedStore(t, `{"admin_id":1,"email":"admin@x.com","is_superuser":true}`)
	ev := NewEvaluator(store)

	require.False(t, ev.HasAnyPermission())
	require.False(t, ev.HasAllPermissions())
}

func TestMemoizationFollowsPrincipalVersion(t *testing.T) {
	store := newAuthenticatedStore(t, `{"id":4,"email":"mod@x.com","role":"MODERATOR"}`)
	ev := NewEvaluator(store)

	for i := 0; i < 10; i++ {
		ev.HasPermission(authz.PermContentRead)
		ev.IsAdmin()
		ev.Role()
	}
	ev.mu.Lock()
	after := ev.recomputes
	ev.mu.Unlock()
	require.Equal(t, 1, after, "repeated queries must reuse the derivation")

	store.Logout(context.Background())
	require.False(t, ev.HasPermission(authz.PermContentRead))

	ev.mu.Lock()
	final := ev.recomputes
	ev.mu.Unlock()
	require.Equal(t, 2, final, "a principal change must invalidate the cache once")
}

func TestWithPermissionInvokesExactlyOneBranch(t *testing.T) {
	store := newAuthenticatedStore(t, `{"id":4,"email":"mod@x.com","role":"MODERATOR"}`)
	ev := NewEvaluator(store)

	var granted, denied int
	ev.WithPermission([]authz.Permission{authz.PermContentWrite}, func() { granted++ }, func() { denied++ })
	require.Equal(t, 1, granted)
	require.Zero(t, denied)

	granted, denied = 0, 0
	ev.WithPermission([]authz.Permission{authz.PermAdminDelete}, func() { granted++ }, func() { denied++ })
	require.Zero(t, granted)
	require.Equal(t, 1, denied)

	granted, denied = 0, 0
	ev.WithPermission(nil, func() { granted++ }, func() { denied++ })
	require.Zero(t, granted)
	require.Equal(t, 1, denied, "empty requirement list denies")
}
