package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pilotdeck/pilotdeck/internal/guard"
	"github.com/pilotdeck/pilotdeck/internal/nav"
	"github.com/pilotdeck/pilotdeck/internal/session"
	"github.com/pilotdeck/pilotdeck/internal/shared"
	"github.com/pilotdeck/pilotdeck/internal/table"
	"github.com/pilotdeck/pilotdeck/internal/view"
)

// Handler serves the user directory page.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	store     *session.Store
	templates *view.Engine
}

func NewHandler(logger *slog.Logger, service *Service, store *session.Store, templates *view.Engine) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, store: store, templates: templates}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/admin/users", h.showList)
}

type pageData struct {
	Table     view.TableView
	LoadError string
}

func columns() []table.Column[DirectoryUser] {
	return []table.Column[DirectoryUser]{
		{Key: "name", Header: "Name", Value: func(u DirectoryUser) any { return u.Name }, Sortable: true},
		{Key: "email", Header: "Email", Value: func(u DirectoryUser) any { return u.Email }, Sortable: true},
		{Key: "role", Header: "Role", Value: func(u DirectoryUser) any { return string(u.Role) }, Sortable: true},
		{Key: "status", Header: "Status", Value: func(u DirectoryUser) any { return string(u.Status) }, Sortable: true},
	}
}

func facets() []table.Facet {
	return []table.Facet{
		{
			Key:   "role",
			Title: "Role",
			Options: []table.FacetOption{
				{Label: "Admin", Value: string(session.RoleAdmin)},
				{Label: "User", Value: string(session.RoleUser)},
			},
		},
		{
			Key:   "status",
			Title: "Status",
			Options: []table.FacetOption{
				{Label: "Active", Value: string(session.StatusActive)},
				{Label: "Inactive", Value: string(session.StatusInactive)},
			},
		},
	}
}

func (h *Handler) showList(w http.ResponseWriter, r *http.Request) {
	data := pageData{}

	rows, err := h.service.List(r.Context())
	if err != nil {
		// The apiclient hook has already cleared the session on a 401; all
		// that is left is sending the browser to the sign-in page.
		if errors.Is(err, shared.ErrUnauthorized) {
			http.Redirect(w, r, guard.LoginRoute, http.StatusSeeOther)
			return
		}
		h.logger.Error("load users", slog.Any("error", err))
		data.LoadError = "Users could not be loaded. Showing the last known data."
	}

	tbl := table.New(rows, columns(), facets()...)
	tbl.ApplyQuery(r.URL.Query())
	data.Table = view.BuildTableView("/admin/users", tbl, nil)

	st := h.store.Snapshot()
	tplData := view.TemplateData{
		Title:       "Users",
		CurrentPath: r.URL.Path,
		Nav:         nav.ForRole(st.CurrentRole()),
		User:        st.User,
		Flash:       h.store.PopFlash(),
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/users.html", tplData); err != nil {
		h.logger.Error("render users", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
