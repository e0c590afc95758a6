package guard

import (
	"log/slog"
	"net/http"

	"github.com/pilotdeck/pilotdeck/internal/session"
)

// Middleware applies guard decisions to chi route groups.
type Middleware struct {
	Store  *session.Store
	Logger *slog.Logger
}

// Protect gates a protected subtree behind authentication.
func (m Middleware) Protect(next http.Handler) http.Handler {
	return m.apply(RouteProtected, next)
}

// AuthOnly redirects signed-in users away from the auth pages.
func (m Middleware) AuthOnly(next http.Handler) http.Handler {
	return m.apply(RouteAuthOnly, next)
}

// RequireRole gates an admin-only subtree. A signed-in user with the wrong
// role is sent back to the landing page rather than served a bare 403, since
// every caller here is a browser.
func (m Middleware) RequireRole(role session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := DecideRole(m.Store.Snapshot(), role)
			if d.Admit {
				next.ServeHTTP(w, r)
				return
			}
			m.redirect(w, r, d)
		})
	}
}

func (m Middleware) apply(class Class, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := Decide(m.Store.Snapshot(), class)
		if d.Admit {
			next.ServeHTTP(w, r)
			return
		}
		m.redirect(w, r, d)
	})
}

func (m Middleware) redirect(w http.ResponseWriter, r *http.Request, d Decision) {
	if m.Logger != nil {
		m.Logger.Debug("guard redirect",
			slog.String("from", r.URL.Path),
			slog.String("to", d.RedirectTo))
	}
	http.Redirect(w, r, d.RedirectTo, http.StatusSeeOther)
}
