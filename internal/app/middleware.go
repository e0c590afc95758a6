package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/pilotdeck/pilotdeck/internal/observability"
	"github.com/pilotdeck/pilotdeck/internal/view"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger    *slog.Logger
	Config    *Config
	Templates *view.Engine
	Metrics   *observability.Metrics
}

// MiddlewareStack installs the Pilotdeck middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		FeaturePolicy:         "none",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		recoverer(cfg),
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(60, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, func(next http.Handler) http.Handler {
			return cfg.Metrics.Middleware(next)
		})
	}
	return middlewares
}

// recoverer turns panics into the styled error page. Outside production the
// panic value is shown on the page to shorten the debugging loop.
func recoverer(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				cfg.Logger.Error("panic recovered",
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
				)
				renderErrorPage(cfg, w, r, rec)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type errorPageData struct {
	Detail   string
	RetryURL string
}

func renderErrorPage(cfg MiddlewareConfig, w http.ResponseWriter, r *http.Request, rec any) {
	data := errorPageData{RetryURL: r.URL.RequestURI()}
	if cfg.Config == nil || !cfg.Config.IsProduction() {
		data.Detail = fmt.Sprint(rec)
	}
	w.WriteHeader(http.StatusInternalServerError)
	if cfg.Templates == nil {
		_, _ = w.Write([]byte(http.StatusText(http.StatusInternalServerError)))
		return
	}
	tplData := view.TemplateData{
		Title:       "Error",
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := cfg.Templates.Render(w, "pages/error.html", tplData); err != nil {
		cfg.Logger.Error("render error page", slog.Any("error", err))
	}
}
