// Package console serves the operator-facing screens of the gateway:
// dashboard, user, content, and weather views. Screens fetch their data
// from the remote API and render tables; every authorization decision is
// delegated to the route middleware and the guards.
package console

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aicc6/weather-flick-admin-gateway/internal/access"
	"github.com/aicc6/weather-flick-admin-gateway/internal/api"
	"github.com/aicc6/weather-flick-admin-gateway/internal/authz"
	"github.com/aicc6/weather-flick-admin-gateway/internal/guard"
	"github.com/aicc6/weather-flick-admin-gateway/internal/platform/httpx"
	"github.com/aicc6/weather-flick-admin-gateway/internal/route"
	"github.com/aicc6/weather-flick-admin-gateway/internal/session"
	"github.com/aicc6/weather-flick-admin-gateway/internal/view"
)

// Handler renders the console screens.
type Handler struct {
	logger    *slog.Logger
	sessions  *session.Store
	evaluator *access.Evaluator
	client    *api.Client
	templates *view.Engine
	csrfToken string
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, sessions *session.Store, evaluator *access.Evaluator, client *api.Client, templates *view.Engine, csrfToken string) *Handler {
	return &Handler{
		logger:    logger,
		sessions:  sessions,
		evaluator: evaluator,
		client:    client,
		templates: templates,
		csrfToken: csrfToken,
	}
}

// MountRoutes registers console routes behind the authorization
// middleware. The unauthorized landing page stays reachable for everyone
// so denied redirects have somewhere to go.
func (h *Handler) MountRoutes(r chi.Router, mw route.Middleware) {
	r.Get("/unauthorized", h.showUnauthorized)
	r.With(mw.RequireAuth()).Get("/", h.showDashboard)
	r.With(mw.RequireAny(authz.PermUserRead)).Get("/users", h.showUsers)
	r.With(mw.RequireAny(authz.PermContentRead)).Get("/content", h.showContent)
	r.With(mw.RequireAny(authz.PermWeatherRead)).Get("/weather", h.showWeather)
}

// navEntry couples a link with the requirement for showing it.
type navEntry struct {
	href  string
	label string
	guard guard.Guard
}

func navEntries() []navEntry {
	return []navEntry{
		{"/users", "Users", guard.Guard{Permissions: []authz.Permission{authz.PermUserRead}}},
		{"/content", "Content", guard.Guard{Permissions: []authz.Permission{authz.PermContentRead}}},
		{"/weather", "Weather", guard.Guard{Permissions: []authz.Permission{authz.PermWeatherRead}}},
	}
}

func (h *Handler) navLinks() template.HTML {
	var b strings.Builder
	for _, entry := range navEntries() {
		if !entry.guard.Allows(h.evaluator) {
			continue
		}
		fmt.Fprintf(&b, `<a href="%s">%s</a>`, entry.href, entry.label)
	}
	return template.HTML(b.String())
}

func (h *Handler) page(r *http.Request, title string, data any) view.TemplateData {
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   h.csrfToken,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if principal, ok := h.sessions.Principal(); ok {
		viewData.LoggedIn = true
		viewData.Operator = principal.DisplayName()
		viewData.Role = string(principal.Role())
		viewData.NavLinks = h.navLinks()
	}
	return viewData
}

func (h *Handler) render(w http.ResponseWriter, name string, data view.TemplateData) {
	if err := h.templates.Render(w, name, data); err != nil {
		h.logger.Error("render page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type dashboardData struct {
	Tiles      []tile
	AdminPanel template.HTML
}

type tile struct {
	Href  string
	Label string
}

func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	data := dashboardData{}
	for _, entry := range navEntries() {
		if entry.guard.Allows(h.evaluator) {
			data.Tiles = append(data.Tiles, tile{Href: entry.href, Label: entry.label})
		}
	}
	data.AdminPanel = template.HTML(guard.SuperAdminOnly(h.evaluator,
		`<p>Super admin: full catalog access is in effect.</p>`, ""))
	h.render(w, "pages/home.html", h.page(r, "Dashboard", data))
}

func (h *Handler) showUnauthorized(w http.ResponseWriter, r *http.Request) {
	h.render(w, "pages/unauthorized.html", h.page(r, "Not allowed", nil))
}

// tableData matches pages/table.html.
type tableData struct {
	Heading string
	Columns []string
	Rows    [][]string
	Actions template.HTML
}

// The record types below are deliberately thin: the gateway renders what
// the remote API returns and attaches no meaning to it.

type userRecord struct {
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) showUsers(w http.ResponseWriter, r *http.Request) {
	var out struct {
		Items []userRecord `json:"items"`
	}
	if err := h.client.Get(r.Context(), "/users", &out); err != nil {
		httpx.RespondError(w, err)
		return
	}
	data := tableData{
		Heading: "Users",
		Columns: []string{"Email", "Nickname", "Role", "Joined"},
	}
	for _, u := range out.Items {
		data.Rows = append(data.Rows, []string{u.Email, u.Nickname, u.Role, u.CreatedAt.Format("2006-01-02")})
	}
	inviteGuard := guard.Guard{Permissions: []authz.Permission{authz.PermUserWrite}, HideOnFail: true}
	data.Actions = template.HTML(inviteGuard.Render(h.evaluator, `<a href="/users?invite=1">Invite user</a>`))
	h.render(w, "pages/table.html", h.page(r, "Users", data))
}

type contentRecord struct {
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *Handler) showContent(w http.ResponseWriter, r *http.Request) {
	var out struct {
		Items []contentRecord `json:"items"`
	}
	if err := h.client.Get(r.Context(), "/contents", &out); err != nil {
		httpx.RespondError(w, err)
		return
	}
	data := tableData{
		Heading: "Content",
		Columns: []string{"Title", "Category", "Updated"},
	}
	for _, c := range out.Items {
		data.Rows = append(data.Rows, []string{c.Title, c.Category, c.UpdatedAt.Format("2006-01-02 15:04")})
	}
	h.render(w, "pages/table.html", h.page(r, "Content", data))
}

type weatherRecord struct {
	City      string    `json:"city"`
	Condition string    `json:"condition"`
	TempC     float64   `json:"temp_c"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *Handler) showWeather(w http.ResponseWriter, r *http.Request) {
	var out struct {
		Items []weatherRecord `json:"items"`
	}
	if err := h.client.Get(r.Context(), "/weather/cities", &out); err != nil {
		httpx.RespondError(w, err)
		return
	}
	data := tableData{
		Heading: "Weather",
		Columns: []string{"City", "Condition", "Temp", "Updated"},
	}
	for _, c := range out.Items {
		data.Rows = append(data.Rows, []string{
			c.City, c.Condition, fmt.Sprintf("%.1f C", c.TempC), c.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	h.render(w, "pages/table.html", h.page(r, "Weather", data))
}
