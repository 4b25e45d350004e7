package session_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/aicc6/weather-flick-admin-gateway/internal/api"
	"github.com/aicc6/weather-flick-admin-gateway/internal/authz"
	"github.com/aicc6/weather-flick-admin-gateway/internal/credential"
	"github.com/aicc6/weather-flick-admin-gateway/internal/session"
)

type remoteAPI struct {
	t         *testing.T
	mux       *http.ServeMux
	srv       *httptest.Server
	calls     atomic.Int64
	token     string
	principal map[string]any
	meGate    chan struct{}
	meStatus  int
}

func newRemoteAPI(t *testing.T) *remoteAPI {
	t.Helper()
	r := &remoteAPI{t: t, mux: http.NewServeMux(), token: "issued-token"}
	r.mux.HandleFunc("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Password != "correct-pw" {
			http.Error(w, `{"detail":"invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": r.token})
	})
	r.mux.HandleFunc("/auth/me", func(w http.ResponseWriter, req *http.Request) {
		if r.meGate != nil {
			<-r.meGate
		}
		if r.meStatus != 0 {
			w.WriteHeader(r.meStatus)
			return
		}
		if req.Header.Get("Authorization") != "Bearer "+r.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(r.principal)
	})
	r.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.calls.Add(1)
		r.mux.ServeHTTP(w, req)
	}))
	t.Cleanup(r.srv.Close)
	return r
}

func newStore(t *testing.T, remote *remoteAPI) (*session.Store, *credential.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	creds := credential.NewStore(client, "secret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	transport := api.NewClient(remote.srv.URL, "/login", creds, logger, nil)
	return session.NewStore(transport, creds, logger, nil), creds
}

func TestRestoreWithoutCredentialMakesNoNetworkCall(t *testing.T) {
	remote := newRemoteAPI(t)
	store, _ := newStore(t, remote)

	state := store.Restore(context.Background())

	require.Equal(t, session.StateAnonymous, state)
	require.Equal(t, session.StateAnonymous, store.State())
	require.Zero(t, remote.calls.Load())
}

func TestRestoreRebuildsAuthenticatedSession(t *testing.T) {
	remote := newRemoteAPI(t)
	remote.principal = map[string]any{"admin_id": 7, "email": "ops@weatherflick.io", "is_superuser": true}
	store, creds := newStore(t, remote)
	require.NoError(t, creds.Set(context.Background(), "issued-token"))

	state := store.Restore(context.Background())

	require.Equal(t, session.StateAuthenticated, state)
	principal, ok := store.Principal()
	require.True(t, ok)
	require.Equal(t, authz.RoleSuperAdmin, principal.Role())
}

func TestRestoreFailureEvictsAndSettlesAnonymous(t *testing.T) {
	remote := newRemoteAPI(t)
	remote.meStatus = http.StatusInternalServerError
	store, creds := newStore(t, remote)
	require.NoError(t, creds.Set(context.Background(), "issued-token"))

	state := store.Restore(context.Background())

	require.Equal(t, session.StateAnonymous, state)
	token, err := creds.Token(context.Background())
	require.NoError(t, err)
	require.Empty(t, token, "failed restore must evict the credential")
}

func TestRestoreWithRejectedCredential(t *testing.T) {
	remote := newRemoteAPI(t)
	store, creds := newStore(t, remote)
	require.NoError(t, creds.Set(context.Background(), "stale-token"))

	state := store.Restore(context.Background())

	require.Equal(t, session.StateAnonymous, state)
	token, err := creds.Token(context.Background())
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestLogoutDuringRestoreWins(t *testing.T) {
	remote := newRemoteAPI(t)
	remote.principal = map[string]any{"admin_id": 7, "email": "ops@weatherflick.io", "is_superuser": false}
	remote.meGate = make(chan struct{})
	store, creds := newStore(t, remote)
	require.NoError(t, creds.Set(context.Background(), "issued-token"))

	done := make(chan session.State, 1)
	go func() {
		done <- store.Restore(context.Background())
	}()

	require.Eventually(t, func() bool {
		return store.State() == session.StateLoading
	}, time.Second, time.Millisecond)

	store.Logout(context.Background())
	close(remote.meGate)

	require.Equal(t, session.StateAnonymous, <-done)
	require.Equal(t, session.StateAnonymous, store.State())
	_, ok := store.Principal()
	require.False(t, ok, "late restore must not resurrect the session")
}

func TestLoginPersistsCredentialBeforePrincipalFetch(t *testing.T) {
	remote := newRemoteAPI(t)
	remote.principal = map[string]any{"admin_id": 1, "email": "admin@x.com", "is_superuser": true}
	store, creds := newStore(t, remote)

	result := store.Login(context.Background(), "admin@x.com", "correct-pw")

	require.True(t, result.OK, "login failed: %s", result.Message)
	token, err := creds.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "issued-token", token)

	principal, ok := store.Principal()
	require.True(t, ok)
	// The /auth/me stub only answers for the freshly issued bearer, so a
	// passing fetch proves the credential was persisted first.
	require.Equal(t, authz.RoleSuperAdmin, principal.Role())
}

func TestLoginFailureIsAResultNotAnError(t *testing.T) {
	remote := newRemoteAPI(t)
	store, _ := newStore(t, remote)

	result := store.Login(context.Background(), "admin@x.com", "wrong-pw")

	require.False(t, result.OK)
	require.NotEmpty(t, result.Message)
	require.Equal(t, session.StateUninitialized, store.State())
}

func TestSecondLoginReplacesPrincipal(t *testing.T) {
	remote := newRemoteAPI(t)
	remote.principal = map[string]any{"admin_id": 1, "email": "first@x.com", "is_superuser": false}
	store, _ := newStore(t, remote)

	require.True(t, store.Login(context.Background(), "first@x.com", "correct-pw").OK)
	first, _ := store.Principal()

	remote.principal = map[string]any{"id": 9, "email": "second@x.com", "role": "MODERATOR"}
	require.True(t, store.Login(context.Background(), "second@x.com", "correct-pw").OK)

	second, ok := store.Principal()
	require.True(t, ok)
	require.NotEqual(t, first.Subject(), second.Subject())
	require.Equal(t, authz.RoleModerator, second.Role())
}

func TestVersionBumpsOnPrincipalChanges(t *testing.T) {
	remote := newRemoteAPI(t)
	remote.principal = map[string]any{"admin_id": 1, "email": "a@x.com", "is_superuser": false}
	store, _ := newStore(t, remote)

	v0 := store.Version()
	require.True(t, store.Login(context.Background(), "a@x.com", "correct-pw").OK)
	v1 := store.Version()
	require.Greater(t, v1, v0)

	store.Logout(context.Background())
	require.Greater(t, store.Version(), v1)
}

func TestRevalidateDropsSessionOnAuthFailure(t *testing.T) {
	remote := newRemoteAPI(t)
	remote.principal = map[string]any{"admin_id": 1, "email": "a@x.com", "is_superuser": false}
	store, _ := newStore(t, remote)
	require.True(t, store.Login(context.Background(), "a@x.com", "correct-pw").OK)

	remote.token = "rotated-elsewhere"
	store.Revalidate(context.Background())

	require.Equal(t, session.StateAnonymous, store.State())
}
