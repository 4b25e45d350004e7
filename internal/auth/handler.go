// Package auth serves the sign-in and sign-out screens of the gateway and
// drives the process-wide session through them.
package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/aicc6/weather-flick-admin-gateway/internal/audit"
	"github.com/aicc6/weather-flick-admin-gateway/internal/session"
	"github.com/aicc6/weather-flick-admin-gateway/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	sessions  *session.Store
	templates *view.Engine
	csrf      *CSRF
	trail     audit.Recorder
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, sessions *session.Store, templates *view.Engine, csrf *CSRF, trail audit.Recorder) *Handler {
	return &Handler{
		logger:    logger,
		sessions:  sessions,
		templates: templates,
		csrf:      csrf,
		trail:     trail,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
	r.Get("/login", h.showLogin)
	r.With(limiter).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type loginPageData struct {
	Email string
	Error string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if h.sessions.IsAuthenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, loginPageData{})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if !h.csrf.Verify(r.PostFormValue("csrf_token")) {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if err := h.validator.Struct(form); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, loginPageData{
			Email: form.Email,
			Error: "Enter a valid email address and password.",
		})
		return
	}

	result := h.sessions.Login(r.Context(), form.Email, form.Password)
	if !result.OK {
		h.record(r, audit.Event{Type: audit.EventLoginFailed, Subject: form.Email})
		h.renderLogin(w, r, http.StatusBadRequest, loginPageData{Email: form.Email, Error: result.Message})
		return
	}

	subject := form.Email
	if principal, ok := h.sessions.Principal(); ok {
		subject = principal.Subject()
	}
	h.record(r, audit.Event{Type: audit.EventLogin, Subject: subject})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if !h.csrf.Verify(r.PostFormValue("csrf_token")) {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	subject := ""
	if principal, ok := h.sessions.Principal(); ok {
		subject = principal.Subject()
	}
	h.sessions.Logout(r.Context())
	h.record(r, audit.Event{Type: audit.EventLogout, Subject: subject})
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data loginPageData) {
	viewData := view.TemplateData{
		Title:       "Sign in",
		CSRFToken:   h.csrf.Token(),
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) record(r *http.Request, event audit.Event) {
	if h.trail == nil {
		return
	}
	if err := h.trail.Record(r.Context(), event); err != nil {
		h.logger.Warn("audit record", slog.String("type", event.Type), slog.Any("error", err))
	}
}
