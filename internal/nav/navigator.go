// Package nav carries the console's navigation facility. The auth
// transport and the route middleware never write HTTP redirects
// themselves; they record the target on a Navigator and the app
// middleware materializes it after the handler returns.
package nav

import (
	"context"
	"net/http"
	"sync"
)

// Navigator is an imperative "go to path" facility plus the current
// location, which callers use to avoid redirect loops.
type Navigator interface {
	// Location returns the path the console is currently showing.
	Location() string
	// Navigate requests a move to path. Only the first request per
	// navigator takes effect; later calls are ignored.
	Navigate(path string)
}

// Redirector is the request-scoped Navigator for the HTTP console. It is
// created by middleware, consulted by handlers and the auth transport,
// and flushed as a 303 redirect once the handler chain unwinds.
type Redirector struct {
	mu       sync.Mutex
	location string
	target   string
}

// NewRedirector builds a Redirector rooted at the request path.
func NewRedirector(location string) *Redirector {
	return &Redirector{location: location}
}

// Location implements Navigator.
func (r *Redirector) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

// Navigate implements Navigator. The first call wins.
func (r *Redirector) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.target == "" {
		r.target = path
	}
}

// Target returns the pending redirect destination, if any.
func (r *Redirector) Target() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target, r.target != ""
}

// Flush writes the pending redirect, if one was recorded.
func (r *Redirector) Flush(w http.ResponseWriter, req *http.Request) bool {
	target, ok := r.Target()
	if !ok {
		return false
	}
	http.Redirect(w, req, target, http.StatusSeeOther)
	return true
}

// Discard is a Navigator for contexts with no screen attached (startup
// restore, background revalidation). Navigation requests are dropped.
type Discard struct{}

// Location implements Navigator.
func (Discard) Location() string { return "" }

// Navigate implements Navigator.
func (Discard) Navigate(string) {}

type navigatorContextKey struct{}

// ContextWithNavigator stores the navigator in context.
func ContextWithNavigator(ctx context.Context, n Navigator) context.Context {
	return context.WithValue(ctx, navigatorContextKey{}, n)
}

// FromContext extracts the navigator from context, defaulting to Discard
// so background calls never need a nil check.
func FromContext(ctx context.Context) Navigator {
	if n, ok := ctx.Value(navigatorContextKey{}).(Navigator); ok && n != nil {
		return n
	}
	return Discard{}
}
