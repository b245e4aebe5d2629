package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/order"
)

const cpfDigits = 11

// CurrentOrder returns the order this session is tracking. The board copy is
// preferred since it follows changes made by other processes.
func (h *Handler) CurrentOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.session(r).CurrentOrder()
	if !ok {
		writeError(w, r, http.StatusNotFound, "nenhum pedido em andamento")
		return
	}
	if fresh, ok := h.Board.Get(o.ID); ok {
		o = fresh
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderId")
	if o, ok := h.Board.Get(id); ok {
		writeJSON(w, http.StatusOK, o)
		return
	}

	ctx, cancel := h.storeContext(r)
	defer cancel()

	o, err := h.Orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "pedido não encontrado")
			return
		}
		h.Logger.Printf("get order %s: %v", id, err)
		writeError(w, r, http.StatusInternalServerError, "não foi possível carregar o pedido")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// ListOrdersByCPF finds a customer's undelivered orders. The cpf query value
// may carry punctuation.
func (h *Handler) ListOrdersByCPF(w http.ResponseWriter, r *http.Request) {
	cpf := order.Digits(r.URL.Query().Get("cpf"))
	if len(cpf) != cpfDigits {
		writeError(w, r, http.StatusBadRequest, "informe um CPF válido")
		return
	}

	ctx, cancel := h.storeContext(r)
	defer cancel()

	orders, err := h.Orders.ListActiveByCPF(ctx, cpf)
	if err != nil {
		h.Logger.Printf("list orders by cpf: %v", err)
		writeError(w, r, http.StatusInternalServerError, "não foi possível buscar seus pedidos")
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}
