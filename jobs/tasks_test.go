package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicc6/weather-flick-admin-gateway/internal/session"
)

type fakeSessions struct {
	authenticated bool
	restoreState  session.State
	restores      int
	revalidations int
}

func (f *fakeSessions) Restore(ctx context.Context) session.State {
	f.restores++
	return f.restoreState
}
func (f *fakeSessions) Revalidate(ctx context.Context) { f.revalidations++ }
func (f *fakeSessions) IsAuthenticated() bool          { return f.authenticated }

func TestRevalidateRestoresAnonymousSession(t *testing.T) {
	sessions := &fakeSessions{restoreState: session.StateAnonymous}
	handler := HandleSessionRevalidate(sessions, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := handler(context.Background(), NewSessionRevalidateTask())

	require.NoError(t, err)
	assert.Equal(t, 1, sessions.restores)
	assert.Zero(t, sessions.revalidations)
}

func TestRevalidateRunsForAuthenticatedSession(t *testing.T) {
	sessions := &fakeSessions{authenticated: true}
	handler := HandleSessionRevalidate(sessions, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := handler(context.Background(), NewSessionRevalidateTask())

	require.NoError(t, err)
	assert.Equal(t, 1, sessions.revalidations)
}
