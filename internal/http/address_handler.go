package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/address"
)

func (h *Handler) LookupAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.storeContext(r)
	defer cancel()

	addr, err := h.Address.Lookup(ctx, chi.URLParam(r, "postalCode"))
	switch {
	case errors.Is(err, address.ErrInvalidPostalCode):
		writeError(w, r, http.StatusBadRequest, "CEP inválido")
		return
	case errors.Is(err, address.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "CEP não encontrado")
		return
	case err != nil:
		h.Logger.Printf("address lookup: %v", err)
		writeError(w, r, http.StatusBadGateway, "não foi possível consultar o CEP")
		return
	}
	writeJSON(w, http.StatusOK, addr)
}
