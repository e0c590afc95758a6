package products

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pilotdeck/pilotdeck/internal/guard"
	"github.com/pilotdeck/pilotdeck/internal/nav"
	"github.com/pilotdeck/pilotdeck/internal/session"
	"github.com/pilotdeck/pilotdeck/internal/shared"
	"github.com/pilotdeck/pilotdeck/internal/table"
	"github.com/pilotdeck/pilotdeck/internal/view"
)

// Handler serves the product catalog pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	store     *session.Store
	templates *view.Engine
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, store *session.Store, templates *view.Engine) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		store:     store,
		templates: templates,
		validator: validator.New(),
	}
}

// MountRoutes registers the catalog routes. Callers gate the subtree with
// the admin-role guard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/admin/products", h.showList)
	r.Post("/admin/products", h.handleCreate)
	r.Get("/admin/products/edit", h.showEdit)
	r.Post("/admin/products/update", h.handleUpdate)
	r.Post("/admin/products/delete", h.handleDelete)
}

type pageData struct {
	Table     view.TableView
	LoadError string
	FormError string
	Form      Form
	EditID    int
	EditForm  Form
}

func columns() []table.Column[Product] {
	return []table.Column[Product]{
		{Key: "name", Header: "Name", Value: func(p Product) any { return p.Name }, Sortable: true},
		{Key: "category", Header: "Category", Value: func(p Product) any { return p.Category }, Sortable: true},
		{
			Key:      "price",
			Header:   "Price",
			Value:    func(p Product) any { return p.Price },
			Cell:     func(p Product) string { return FormatPrice(p.Price) },
			Sortable: true,
		},
		{Key: "stock", Header: "Stock", Value: func(p Product) any { return p.Stock }, Sortable: true},
		{Key: "status", Header: "Status", Value: func(p Product) any { return string(p.Status) }, Sortable: true},
	}
}

func statusFacet() table.Facet {
	return table.Facet{
		Key:   "status",
		Title: "Status",
		Options: []table.FacetOption{
			{Label: "Active", Value: string(StatusActive)},
			{Label: "Draft", Value: string(StatusDraft)},
			{Label: "Archived", Value: string(StatusArchived)},
		},
	}
}

func (h *Handler) buildTable(rows []Product) *table.Table[Product] {
	return table.New(rows, columns(), statusFacet())
}

func (h *Handler) showList(w http.ResponseWriter, r *http.Request) {
	data := pageData{Form: Form{Status: StatusActive}}

	rows, err := h.service.List(r.Context())
	if err != nil {
		if redirectExpired(w, r, err) {
			return
		}
		h.logger.Error("load products", slog.Any("error", err))
		data.LoadError = "Products could not be loaded. Showing the last known data."
	}

	tbl := h.buildTable(rows)
	tbl.ApplyQuery(r.URL.Query())
	data.Table = view.BuildTableView("/admin/products", tbl, func(p Product) string {
		return strconv.Itoa(p.ID)
	})

	h.render(w, r, http.StatusOK, data)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := Form{
		Name:     r.PostFormValue("name"),
		Category: r.PostFormValue("category"),
		Status:   Status(r.PostFormValue("status")),
	}
	form.Price, _ = strconv.ParseInt(r.PostFormValue("price"), 10, 64)
	stock, _ := strconv.Atoi(r.PostFormValue("stock"))
	form.Stock = stock

	if err := h.validator.Struct(form); err != nil {
		h.renderFormError(w, r, form, "Check the highlighted fields and try again.")
		return
	}
	if _, err := h.service.Create(r.Context(), form); err != nil {
		if redirectExpired(w, r, err) {
			return
		}
		h.logger.Error("create product", slog.Any("error", err))
		h.renderFormError(w, r, form, "The product could not be created.")
		return
	}
	h.store.AddFlash(session.Flash{Kind: "success", Message: "Product created"})
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
		return
	}

	rows, err := h.service.List(r.Context())
	if err != nil {
		if redirectExpired(w, r, err) {
			return
		}
		h.logger.Error("load products", slog.Any("error", err))
		http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
		return
	}

	var found *Product
	for i := range rows {
		if rows[i].ID == id {
			found = &rows[i]
			break
		}
	}
	if found == nil {
		h.store.AddFlash(session.Flash{Kind: "error", Message: "Product not found"})
		http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
		return
	}

	data := pageData{
		Form:   Form{Status: StatusActive},
		EditID: found.ID,
		EditForm: Form{
			Name:     found.Name,
			Category: found.Category,
			Price:    found.Price,
			Stock:    found.Stock,
			Status:   found.Status,
		},
	}
	tbl := h.buildTable(rows)
	tbl.ApplyQuery(r.URL.Query())
	data.Table = view.BuildTableView("/admin/products", tbl, func(p Product) string {
		return strconv.Itoa(p.ID)
	})

	h.render(w, r, http.StatusOK, data)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(r.PostFormValue("id"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := Form{
		Name:     r.PostFormValue("name"),
		Category: r.PostFormValue("category"),
		Status:   Status(r.PostFormValue("status")),
	}
	form.Price, _ = strconv.ParseInt(r.PostFormValue("price"), 10, 64)
	stock, _ := strconv.Atoi(r.PostFormValue("stock"))
	form.Stock = stock

	if err := h.validator.Struct(form); err != nil {
		h.renderFormError(w, r, form, "Check the highlighted fields and try again.")
		return
	}
	if _, err := h.service.Update(r.Context(), id, form); err != nil {
		if redirectExpired(w, r, err) {
			return
		}
		h.logger.Error("update product", slog.Int("id", id), slog.Any("error", err))
		h.store.AddFlash(session.Flash{Kind: "error", Message: "The product could not be updated"})
		http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
		return
	}
	h.store.AddFlash(session.Flash{Kind: "success", Message: "Product updated"})
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(r.PostFormValue("id"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if redirectExpired(w, r, err) {
			return
		}
		h.logger.Error("delete product", slog.Int("id", id), slog.Any("error", err))
		h.store.AddFlash(session.Flash{Kind: "error", Message: "The product could not be deleted"})
	} else {
		h.store.AddFlash(session.Flash{Kind: "success", Message: "Product deleted"})
	}
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, form Form, msg string) {
	data := pageData{Form: form, FormError: msg}

	rows, err := h.service.List(r.Context())
	if err != nil {
		if redirectExpired(w, r, err) {
			return
		}
		data.LoadError = "Products could not be loaded. Showing the last known data."
	}
	tbl := h.buildTable(rows)
	data.Table = view.BuildTableView("/admin/products", tbl, func(p Product) string {
		return strconv.Itoa(p.ID)
	})

	h.render(w, r, http.StatusBadRequest, data)
}

// redirectExpired sends the browser to the sign-in page when the backend
// rejected the session token. The apiclient hook has already cleared the
// session by the time the error surfaces here.
func redirectExpired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, shared.ErrUnauthorized) {
		return false
	}
	http.Redirect(w, r, guard.LoginRoute, http.StatusSeeOther)
	return true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	st := h.store.Snapshot()
	tplData := view.TemplateData{
		Title:       "Products",
		CurrentPath: r.URL.Path,
		Nav:         nav.ForRole(st.CurrentRole()),
		User:        st.User,
		Flash:       h.store.PopFlash(),
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/products.html", tplData); err != nil {
		h.logger.Error("render products", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
