package httpapi

import (
	"net/http"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/order"
)

func (h *Handler) ReportSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.storeContext(r)
	defer cancel()

	orders, err := h.Orders.ListOrders(ctx)
	if err != nil {
		h.Logger.Printf("report: list orders: %v", err)
		writeError(w, r, http.StatusInternalServerError, "não foi possível gerar o relatório")
		return
	}
	items, err := h.Orders.ListItems(ctx)
	if err != nil {
		h.Logger.Printf("report: list items: %v", err)
		writeError(w, r, http.StatusInternalServerError, "não foi possível gerar o relatório")
		return
	}

	writeJSON(w, http.StatusOK, order.Summarize(orders, items, h.Now()))
}
