// Package session owns the one operator session of the gateway. The
// store is a small state machine (uninitialized, loading, authenticated,
// anonymous); everything else in the process reads the principal through
// it and never mutates it directly.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/aicc6/weather-flick-admin-gateway/internal/api"
)

// Remote endpoints consumed by the session lifecycle.
const (
	loginEndpoint     = "/auth/login"
	principalEndpoint = "/auth/me"
)

// State enumerates the session lifecycle states.
type State int

const (
	// StateUninitialized is the state before the first Restore.
	StateUninitialized State = iota
	// StateLoading means a restore is in flight.
	StateLoading
	// StateAuthenticated means a principal is present.
	StateAuthenticated
	// StateAnonymous means no valid session exists.
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "uninitialized"
	}
}

// LoginResult is the discriminated outcome of Login. It never carries a
// Go error; transport and parse failures are folded into Message.
type LoginResult struct {
	OK      bool
	Message string
}

// Transport is the slice of the API client the store depends on.
type Transport interface {
	Get(ctx context.Context, path string, out any) error
	PostAnonymous(ctx context.Context, path string, in, out any) error
}

// CredentialStore persists the bearer token between process runs.
type CredentialStore interface {
	Token(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) (removed bool, err error)
}

// Events receives auth lifecycle notifications for observability.
type Events interface {
	RecordLogin()
	RecordLogout()
	RecordEviction()
}

// Store holds the process-wide session. Construct exactly one per
// process and inject it; there is no package-level instance.
type Store struct {
	mu        sync.Mutex
	state     State
	principal Principal
	version   uint64
	gen       uint64

	api    Transport
	creds  CredentialStore
	logger *slog.Logger
	events Events
	group  singleflight.Group
}

// NewStore constructs a Store in the uninitialized state. events may be
// nil.
func NewStore(transport Transport, creds CredentialStore, logger *slog.Logger, events Events) *Store {
	return &Store{
		state:  StateUninitialized,
		api:    transport,
		creds:  creds,
		logger: logger,
		events: events,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Restore rebuilds the session from the persisted credential. Without a
// credential it settles on anonymous with no network call. Any fetch
// failure is treated as an authentication failure: credential evicted,
// state anonymous. The returned state is the one the store settled on.
func (s *Store) Restore(ctx context.Context) State {
	token, err := s.creds.Token(ctx)
	if err != nil {
		s.log().Error("read credential", slog.Any("error", err))
		token = ""
	}
	if token == "" {
		s.mu.Lock()
		s.commitLocked(StateAnonymous, nil)
		s.mu.Unlock()
		return StateAnonymous
	}

	s.mu.Lock()
	s.state = StateLoading
	gen := s.gen
	s.mu.Unlock()

	result, fetchErr, _ := s.group.Do("restore", func() (any, error) {
		return s.fetchPrincipal(ctx)
	})

	if fetchErr != nil {
		s.log().Warn("session restore failed", slog.Any("error", fetchErr))
		if !errors.Is(fetchErr, api.ErrAuthRequired) {
			// The transport already evicted on 401; everything else
			// (network, decode) evicts here so restore cannot wedge the
			// store in loading.
			if removed, cerr := s.creds.Clear(ctx); cerr != nil {
				s.log().Error("evict credential", slog.Any("error", cerr))
			} else if removed && s.events != nil {
				s.events.RecordEviction()
			}
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen == gen && s.state == StateLoading {
			s.commitLocked(StateAnonymous, nil)
		}
		return s.state
	}

	principal := result.(Principal)
	s.mu.Lock()
	defer s.mu.Unlock()
	// Check before apply: a logout (or fresh login) that happened while
	// the fetch was in flight must not be overwritten by a stale result.
	if s.gen != gen || s.state != StateLoading {
		return s.state
	}
	s.commitLocked(StateAuthenticated, principal)
	return StateAuthenticated
}

// Login authenticates against the remote API. The credential is
// persisted before the principal fetch is dispatched, because that fetch
// depends on the credential being attachable. A login while already
// authenticated fully replaces the principal.
func (s *Store) Login(ctx context.Context, email, password string) LoginResult {
	var resp loginResponse
	if err := s.api.PostAnonymous(ctx, loginEndpoint, loginRequest{Email: email, Password: password}, &resp); err != nil {
		return LoginResult{Message: loginFailureMessage(err)}
	}
	if resp.AccessToken == "" {
		return LoginResult{Message: "Login response did not include a credential."}
	}
	if err := s.creds.Set(ctx, resp.AccessToken); err != nil {
		s.log().Error("persist credential", slog.Any("error", err))
		return LoginResult{Message: "Could not persist the session credential."}
	}

	principal, err := s.fetchPrincipal(ctx)
	if err != nil {
		s.log().Warn("principal fetch after login failed", slog.Any("error", err))
		if _, cerr := s.creds.Clear(ctx); cerr != nil {
			s.log().Error("evict credential", slog.Any("error", cerr))
		}
		return LoginResult{Message: "Signed in, but the account lookup failed. Try again."}
	}

	s.mu.Lock()
	s.gen++
	s.commitLocked(StateAuthenticated, principal)
	s.mu.Unlock()
	if s.events != nil {
		s.events.RecordLogin()
	}
	return LoginResult{OK: true}
}

// Logout evicts the credential and settles on anonymous. It is local
// only: no server round trip, so it works with the network down.
func (s *Store) Logout(ctx context.Context) {
	if _, err := s.creds.Clear(ctx); err != nil {
		s.log().Error("evict credential", slog.Any("error", err))
	}
	s.mu.Lock()
	s.gen++
	s.commitLocked(StateAnonymous, nil)
	s.mu.Unlock()
	if s.events != nil {
		s.events.RecordLogout()
	}
}

// Revalidate re-fetches the current principal for an authenticated
// session. An auth failure flips the store to anonymous (the transport
// has already evicted the credential); other failures keep the session
// untouched.
func (s *Store) Revalidate(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateAuthenticated {
		s.mu.Unlock()
		return
	}
	gen := s.gen
	s.mu.Unlock()

	principal, err := s.fetchPrincipal(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state != StateAuthenticated {
		return
	}
	if err != nil {
		if errors.Is(err, api.ErrAuthRequired) {
			s.commitLocked(StateAnonymous, nil)
		} else {
			s.log().Warn("session revalidation failed", slog.Any("error", err))
		}
		return
	}
	s.commitLocked(StateAuthenticated, principal)
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Principal returns the authenticated principal, if any.
func (s *Store) Principal() (Principal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.principal, s.state == StateAuthenticated && s.principal != nil
}

// IsAuthenticated reports whether a principal is present.
func (s *Store) IsAuthenticated() bool {
	_, ok := s.Principal()
	return ok
}

// Version increases whenever the principal changes. The permission
// evaluator keys its memoization on it.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Store) fetchPrincipal(ctx context.Context) (Principal, error) {
	var raw json.RawMessage
	if err := s.api.Get(ctx, principalEndpoint, &raw); err != nil {
		return nil, err
	}
	return DecodePrincipal(raw)
}

func (s *Store) commitLocked(state State, principal Principal) {
	s.state = state
	s.principal = principal
	s.version++
}

func (s *Store) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func loginFailureMessage(err error) string {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Status == 401 || statusErr.Status == 400:
			return "Email or password is incorrect."
		case statusErr.Status == 429:
			return "Too many attempts. Wait a moment and try again."
		case statusErr.Status >= 500:
			return "The service is unavailable. Try again shortly."
		}
	}
	return "Could not reach the sign-in service."
}
