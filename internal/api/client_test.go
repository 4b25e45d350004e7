package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/aicc6/weather-flick-admin-gateway/internal/api"
	"github.com/aicc6/weather-flick-admin-gateway/internal/credential"
	"github.com/aicc6/weather-flick-admin-gateway/internal/nav"
)

const loginPath = "/login"

type spyNavigator struct {
	mu       sync.Mutex
	location string
	calls    int
	target   string
}

func (s *spyNavigator) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

func (s *spyNavigator) Navigate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.target = path
	s.location = path
}

func newCredStore(t *testing.T) *credential.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return credential.NewStore(client, "secret")
}

func TestBearerTokenReadFreshPerCall(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	creds := newCredStore(t)
	client := api.NewClient(srv.URL, loginPath, creds, nil, nil)

	require.NoError(t, client.Get(ctx, "/users", nil))
	require.NoError(t, creds.Set(ctx, "tok-1"))
	require.NoError(t, client.Get(ctx, "/users", nil))
	require.NoError(t, creds.Set(ctx, "tok-2"))
	require.NoError(t, client.Get(ctx, "/users", nil))

	require.Equal(t, []string{"", "Bearer tok-1", "Bearer tok-2"}, seen)
}

func TestUnauthorizedEvictsAndNavigates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	creds := newCredStore(t)
	ctx := context.Background()
	require.NoError(t, creds.Set(ctx, "expired"))

	navigator := &spyNavigator{location: "/users"}
	ctx = nav.ContextWithNavigator(ctx, navigator)

	client := api.NewClient(srv.URL, loginPath, creds, nil, nil)
	err := client.Get(ctx, "/users", nil)
	require.ErrorIs(t, err, api.ErrAuthRequired)

	token, err := creds.Token(context.Background())
	require.NoError(t, err)
	require.Empty(t, token)
	require.Equal(t, 1, navigator.calls)
	require.Equal(t, loginPath, navigator.target)
}

func TestConcurrentUnauthorizedCollapsesToOneEvictionAndNavigation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	creds := newCredStore(t)
	require.NoError(t, creds.Set(context.Background(), "expired"))

	navigator := &spyNavigator{location: "/users"}
	ctx := nav.ContextWithNavigator(context.Background(), navigator)
	client := api.NewClient(srv.URL, loginPath, creds, nil, nil)

	const callers = 3
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := client.Get(ctx, "/users", nil)
			require.ErrorIs(t, err, api.ErrAuthRequired)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, navigator.calls)
}

func TestUnauthorizedOnLoginPageDoesNotNavigate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	creds := newCredStore(t)
	ctx := context.Background()
	require.NoError(t, creds.Set(ctx, "expired"))

	navigator := &spyNavigator{location: loginPath}
	ctx = nav.ContextWithNavigator(ctx, navigator)

	client := api.NewClient(srv.URL, loginPath, creds, nil, nil)
	err := client.Get(ctx, "/anything", nil)
	require.ErrorIs(t, err, api.ErrAuthRequired)
	require.Zero(t, navigator.calls)
}

func TestBusinessStatusesPassThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusConflict)
	}))
	defer srv.Close()

	creds := newCredStore(t)
	require.NoError(t, creds.Set(context.Background(), "tok"))
	client := api.NewClient(srv.URL, loginPath, creds, nil, nil)

	err := client.Get(context.Background(), "/users", nil)
	var statusErr *api.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusConflict, statusErr.Status)

	token, terr := creds.Token(context.Background())
	require.NoError(t, terr)
	require.Equal(t, "tok", token, "non-401 must not evict")
}

func TestAnonymousPostSkipsCredentialAndEviction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	creds := newCredStore(t)
	require.NoError(t, creds.Set(context.Background(), "tok"))
	navigator := &spyNavigator{location: loginPath}
	ctx := nav.ContextWithNavigator(context.Background(), navigator)

	client := api.NewClient(srv.URL, loginPath, creds, nil, nil)
	err := client.PostAnonymous(ctx, "/auth/login", map[string]string{"email": "x"}, nil)

	var statusErr *api.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.False(t, errors.Is(err, api.ErrAuthRequired))

	token, terr := creds.Token(context.Background())
	require.NoError(t, terr)
	require.Equal(t, "tok", token, "bad login must not evict the stored credential")
}
