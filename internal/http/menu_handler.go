package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/catalog"
)

func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items := h.Menu.Menu()
	if category := r.URL.Query().Get("category"); category != "" {
		filtered := make([]catalog.MenuItem, 0, len(items))
		for _, it := range items {
			if it.Category == category {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.Menu.Item(chi.URLParam(r, "itemId"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "item não encontrado")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) ListCrusts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.storeContext(r)
	defer cancel()

	crusts, err := h.Menu.Crusts(ctx)
	if err != nil {
		h.Logger.Printf("list crusts: %v", err)
		writeError(w, r, http.StatusInternalServerError, "não foi possível carregar as bordas")
		return
	}
	writeJSON(w, http.StatusOK, crusts)
}

// resolveCrust maps an optional crust id to an active crust. An empty id
// means no crust was chosen.
func (h *Handler) resolveCrust(r *http.Request, id string) (*catalog.CrustOption, int, string) {
	if id == "" {
		return nil, 0, ""
	}
	ctx, cancel := h.storeContext(r)
	defer cancel()

	c, err := h.Menu.Crust(ctx, id)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return nil, http.StatusBadRequest, "borda inválida"
	case err != nil:
		h.Logger.Printf("get crust %s: %v", id, err)
		return nil, http.StatusInternalServerError, "não foi possível carregar a borda"
	}
	return &c, 0, ""
}

// resolveItem looks up an orderable catalog item. An empty id resolves to nil.
func (h *Handler) resolveItem(id string) (*catalog.MenuItem, int, string) {
	if id == "" {
		return nil, 0, ""
	}
	item, ok := h.Menu.Item(id)
	if !ok {
		return nil, http.StatusNotFound, "item não encontrado"
	}
	if !item.Available {
		return nil, http.StatusConflict, "item indisponível no momento"
	}
	return &item, 0, ""
}
