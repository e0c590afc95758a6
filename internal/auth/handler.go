package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/pilotdeck/pilotdeck/internal/guard"
	"github.com/pilotdeck/pilotdeck/internal/session"
	"github.com/pilotdeck/pilotdeck/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	store     *session.Store
	registrar Registrar
	templates *view.Engine
	validator *validator.Validate
}

// NewHandler constructs a Handler. registrar may be nil when the backend
// offers no self-registration.
func NewHandler(logger *slog.Logger, store *session.Store, registrar Registrar, templates *view.Engine) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		store:     store,
		registrar: registrar,
		templates: templates,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router. The auth-only
// pages sit behind the guard so signed-in users bounce to the landing page;
// logout stays reachable for authenticated sessions.
func (h *Handler) MountRoutes(r chi.Router, g guard.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(g.AuthOnly)
		r.Use(httprate.LimitByIP(20, time.Minute))
		r.Get("/login", h.showLogin)
		r.Post("/login", h.handleLogin)
		r.Get("/register", h.showRegister)
		r.Post("/register", h.handleRegister)
		r.Get("/forgot-password", h.showForgotPassword)
		r.Post("/forgot-password", h.handleForgotPassword)
	})
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, http.StatusOK, loginPageData{})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	errs := h.validate(form)
	if len(errs) == 0 {
		err := h.store.Login(r.Context(), session.Credentials{Email: form.Email, Password: form.Password})
		if err == nil {
			h.store.AddFlash(session.Flash{Kind: "success", Message: "Welcome back"})
			http.Redirect(w, r, guard.LandingRoute, http.StatusSeeOther)
			return
		}
		errs["general"] = err.Error()
	}
	h.renderLogin(w, r, http.StatusBadRequest, loginPageData{Form: form, Errors: errs})
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data loginPageData) {
	h.render(w, r, status, "pages/login.html", "Sign in", data)
}

type registerForm struct {
	Name     string `validate:"required,min=2"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type registerPageData struct {
	Form   registerForm
	Errors map[string]string
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/register.html", "Create account", registerPageData{})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := registerForm{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	errs := h.validate(form)
	if len(errs) == 0 {
		if h.registrar == nil {
			errs["general"] = "Registration is not available"
		} else {
			creds := session.Credentials{Email: form.Email, Password: form.Password}
			if _, _, err := h.registrar.Register(r.Context(), form.Name, creds); err != nil {
				h.logger.Warn("register", slog.Any("error", err))
				errs["general"] = "Registration failed, please try again"
			} else if err := h.store.Login(r.Context(), creds); err != nil {
				errs["general"] = err.Error()
			} else {
				h.store.AddFlash(session.Flash{Kind: "success", Message: "Account created"})
				http.Redirect(w, r, guard.LandingRoute, http.StatusSeeOther)
				return
			}
		}
	}
	h.render(w, r, http.StatusBadRequest, "pages/register.html", "Create account", registerPageData{Form: form, Errors: errs})
}

type forgotPasswordForm struct {
	Email string `validate:"required,email"`
}

type forgotPasswordPageData struct {
	Form   forgotPasswordForm
	Errors map[string]string
	Sent   bool
}

func (h *Handler) showForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/forgot-password.html", "Reset password", forgotPasswordPageData{})
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := forgotPasswordForm{Email: r.PostFormValue("email")}
	errs := h.validate(form)
	if len(errs) > 0 {
		h.render(w, r, http.StatusBadRequest, "pages/forgot-password.html", "Reset password", forgotPasswordPageData{Form: form, Errors: errs})
		return
	}
	// Whether the address exists is never revealed.
	h.render(w, r, http.StatusOK, "pages/forgot-password.html", "Reset password", forgotPasswordPageData{Form: form, Sent: true})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Logout(r.Context()); err != nil {
		h.logger.Warn("logout", slog.Any("error", err))
	}
	h.store.AddFlash(session.Flash{Kind: "success", Message: "Signed out"})
	http.Redirect(w, r, guard.LoginRoute, http.StatusSeeOther)
}

func (h *Handler) validate(form any) map[string]string {
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldMessage(fieldErr)
		}
	}
	return errs
}

func fieldMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "min":
		return "Too short"
	default:
		return "Invalid value"
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	st := h.store.Snapshot()
	tplData := view.TemplateData{
		Title:       title,
		CurrentPath: r.URL.Path,
		User:        st.User,
		Flash:       h.store.PopFlash(),
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, page, tplData); err != nil {
		h.logger.Error("render "+page, slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
