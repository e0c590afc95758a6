package app

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pilotdeck/pilotdeck/internal/platform/httpx"
	"github.com/pilotdeck/pilotdeck/internal/session"
	"github.com/pilotdeck/pilotdeck/internal/shared"
)

// mountAPI exposes the small JSON surface used by console tooling and
// scripted checks. Auth failures answer with problem details instead of
// the HTML redirects the page routes use.
func (p RouterParams) mountAPI(r chi.Router) {
	r.Get("/session", p.apiSession)
	r.Get("/products", p.apiProducts)
	r.Patch("/profile", p.apiUpdateProfile)
}

func (p RouterParams) apiSession(w http.ResponseWriter, r *http.Request) {
	st := p.Store.Snapshot()
	if !st.Authenticated {
		httpx.RespondError(w, r, shared.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":          st.User,
		"authenticated": st.Authenticated,
	})
}

func (p RouterParams) apiProducts(w http.ResponseWriter, r *http.Request) {
	st := p.Store.Snapshot()
	if !st.Authenticated {
		httpx.RespondError(w, r, shared.ErrUnauthorized)
		return
	}
	if st.CurrentRole() != session.RoleAdmin {
		httpx.RespondError(w, r, httpx.ErrForbidden)
		return
	}
	items, err := p.ProductsService.List(r.Context())
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

type profilePatch struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

func (p RouterParams) apiUpdateProfile(w http.ResponseWriter, r *http.Request) {
	st := p.Store.Snapshot()
	if !st.Authenticated {
		httpx.RespondError(w, r, shared.ErrUnauthorized)
		return
	}
	var patch profilePatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, r, fmt.Errorf("%w: invalid body", httpx.ErrValidation))
		return
	}
	if patch.Name != nil && *patch.Name == "" {
		httpx.RespondError(w, r, fmt.Errorf("%w: name must not be empty", httpx.ErrValidation))
		return
	}
	p.Store.UpdateUser(session.UserPatch{Name: patch.Name, Avatar: patch.Avatar})
	httpx.JSON(w, http.StatusOK, p.Store.Snapshot().User)
}
