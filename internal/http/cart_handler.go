package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/cart"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/pricing"
)

type cartResponse struct {
	cart.Snapshot
	TotalDisplay string `json:"totalDisplay"`
}

func newCartResponse(s cart.Snapshot) cartResponse {
	return cartResponse{Snapshot: s, TotalDisplay: pricing.FormatBRL(s.Total)}
}

type addItemRequest struct {
	ItemID      string `json:"itemId"`
	CrustID     string `json:"crustId"`
	Observation string `json:"observation"`
}

type halfAndHalfRequest struct {
	FirstItemID  string `json:"firstItemId"`
	SecondItemID string `json:"secondItemId"`
	CrustID      string `json:"crustId"`
	Observation  string `json:"observation"`
}

type updateLineRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newCartResponse(h.session(r).Cart.Snapshot()))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c := h.session(r).Cart
	c.Clear()
	writeJSON(w, http.StatusOK, newCartResponse(c.Snapshot()))
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ItemID == "" {
		writeError(w, r, http.StatusBadRequest, "itemId é obrigatório")
		return
	}

	item, status, msg := h.resolveItem(req.ItemID)
	if item == nil {
		writeError(w, r, status, msg)
		return
	}
	crust, status, msg := h.resolveCrust(r, req.CrustID)
	if status != 0 {
		writeError(w, r, status, msg)
		return
	}

	c := h.session(r).Cart
	if _, err := c.AddSelection(*item, req.Observation, crust); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, newCartResponse(c.Snapshot()))
}

func (h *Handler) AddHalfAndHalf(w http.ResponseWriter, r *http.Request) {
	var req halfAndHalfRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	first, status, msg := h.resolveItem(req.FirstItemID)
	if status != 0 {
		writeError(w, r, status, msg)
		return
	}
	second, status, msg := h.resolveItem(req.SecondItemID)
	if status != 0 {
		writeError(w, r, status, msg)
		return
	}
	crust, status, msg := h.resolveCrust(r, req.CrustID)
	if status != 0 {
		writeError(w, r, status, msg)
		return
	}

	c := h.session(r).Cart
	if _, err := c.AddHalfAndHalf(first, second, crust, req.Observation, h.Now()); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, newCartResponse(c.Snapshot()))
}

// UpdateCartLine sets a line quantity. Zero or less removes the line.
func (h *Handler) UpdateCartLine(w http.ResponseWriter, r *http.Request) {
	var req updateLineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c := h.session(r).Cart
	c.UpdateQuantity(chi.URLParam(r, "lineId"), req.Quantity)
	writeJSON(w, http.StatusOK, newCartResponse(c.Snapshot()))
}

func (h *Handler) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	c := h.session(r).Cart
	c.Remove(chi.URLParam(r, "lineId"))
	writeJSON(w, http.StatusOK, newCartResponse(c.Snapshot()))
}
