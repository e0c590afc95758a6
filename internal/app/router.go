package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pilotdeck/pilotdeck/internal/auth"
	"github.com/pilotdeck/pilotdeck/internal/guard"
	"github.com/pilotdeck/pilotdeck/internal/nav"
	"github.com/pilotdeck/pilotdeck/internal/observability"
	"github.com/pilotdeck/pilotdeck/internal/products"
	"github.com/pilotdeck/pilotdeck/internal/session"
	"github.com/pilotdeck/pilotdeck/internal/users"
	"github.com/pilotdeck/pilotdeck/internal/view"
	"github.com/pilotdeck/pilotdeck/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Templates       *view.Engine
	Store           *session.Store
	Guard           guard.Middleware
	AuthHandler     *auth.Handler
	ProductsHandler *products.Handler
	UsersHandler    *users.Handler
	ProductsService *products.Service
	UsersService    *users.Service
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Pilotdeck defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:    params.Logger,
		Config:    params.Config,
		Templates: params.Templates,
		Metrics:   params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// The root redirects by session state: signed-in operators land on the
	// dashboard, everyone else on the sign-in page.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if params.Store.Snapshot().Authenticated {
			http.Redirect(w, r, guard.LandingRoute, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, guard.LoginRoute, http.StatusSeeOther)
	})

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r, params.Guard)
	})

	// Pages any signed-in operator can reach.
	r.Group(func(r chi.Router) {
		r.Use(params.Guard.Protect)

		r.Get("/admin/dashboard", params.showDashboard)
		r.Get("/admin/transactions", params.renderStatic("pages/transactions.html", "Transactions"))
		params.UsersHandler.MountRoutes(r)
	})

	// Admin-only pages.
	r.Group(func(r chi.Router) {
		r.Use(params.Guard.RequireRole(session.RoleAdmin))

		params.ProductsHandler.MountRoutes(r)
		r.Get("/admin/analytics", params.renderStatic("pages/analytics.html", "Analytics"))
		r.Get("/admin/settings", params.showSettings)
		r.Post("/admin/settings", params.handleSettings)
	})

	r.Route("/api", params.mountAPI)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		params.render(w, r, "pages/notfound.html", "Not found", nil)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

type dashboardData struct {
	ProductCount int
	UserCount    int
}

func (p RouterParams) showDashboard(w http.ResponseWriter, r *http.Request) {
	var data dashboardData
	if p.ProductsService != nil {
		if n, err := p.ProductsService.Count(r.Context()); err == nil {
			data.ProductCount = n
		}
	}
	if p.UsersService != nil {
		if n, err := p.UsersService.Count(r.Context()); err == nil {
			data.UserCount = n
		}
	}
	p.render(w, r, "pages/dashboard.html", "Dashboard", data)
}

type settingsData struct {
	Saved bool
}

func (p RouterParams) showSettings(w http.ResponseWriter, r *http.Request) {
	saved := r.URL.Query().Get("saved") == "1"
	p.render(w, r, "pages/settings.html", "Settings", settingsData{Saved: saved})
}

func (p RouterParams) handleSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	patch := session.UserPatch{}
	if name := r.PostFormValue("name"); name != "" {
		patch.Name = &name
	}
	if avatar := r.PostFormValue("avatar"); avatar != "" {
		patch.Avatar = &avatar
	}
	p.Store.UpdateUser(patch)
	http.Redirect(w, r, "/admin/settings?saved=1", http.StatusSeeOther)
}

func (p RouterParams) renderStatic(page, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.render(w, r, page, title, nil)
	}
}

func (p RouterParams) render(w http.ResponseWriter, r *http.Request, page, title string, data any) {
	st := p.Store.Snapshot()
	tplData := view.TemplateData{
		Title:       title,
		CurrentPath: r.URL.Path,
		Nav:         nav.ForRole(st.CurrentRole()),
		User:        st.User,
		Flash:       p.Store.PopFlash(),
		Data:        data,
	}
	if err := p.Templates.Render(w, page, tplData); err != nil {
		p.Logger.Error("render "+page, slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
