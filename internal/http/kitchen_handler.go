package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/events"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/kitchen"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/middleware"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/order"
)

type boardResponse struct {
	Columns  []kitchen.Column `json:"columns"`
	Loading  bool             `json:"loading"`
	LoadedAt *time.Time       `json:"loadedAt,omitempty"`
}

func (h *Handler) boardResponse() boardResponse {
	resp := boardResponse{Columns: h.Kitchen.Board(), Loading: h.Board.Loading()}
	if at := h.Board.LoadedAt(); !at.IsZero() {
		resp.LoadedAt = &at
	}
	return resp
}

func (h *Handler) KitchenBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.boardResponse())
}

func (h *Handler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderId")
	ctx := events.WithCorrelationID(r.Context(), middleware.GetCorrelationID(r.Context()))

	o, err := h.Kitchen.Advance(ctx, id)
	switch {
	case errors.Is(err, order.ErrTerminal):
		writeError(w, r, http.StatusConflict, "pedido já foi entregue")
		return
	case errors.Is(err, order.ErrUnknownStatus):
		h.Logger.Printf("advance order %s: %v", id, err)
		writeError(w, r, http.StatusConflict, "situação do pedido não reconhecida")
		return
	case errors.Is(err, order.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "pedido não encontrado")
		return
	case err != nil:
		h.Logger.Printf("advance order %s: %v", id, err)
		writeError(w, r, http.StatusInternalServerError, "não foi possível atualizar o pedido")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// RefreshBoard reloads the board from the store before answering.
func (h *Handler) RefreshBoard(w http.ResponseWriter, r *http.Request) {
	if err := h.Board.Refresh(r.Context()); err != nil {
		h.Logger.Printf("refresh board: %v", err)
		writeError(w, r, http.StatusInternalServerError, "não foi possível atualizar os pedidos")
		return
	}
	writeJSON(w, http.StatusOK, h.boardResponse())
}

// StreamBoard pushes the board as server-sent events, once on connect and
// again on every projection change.
func (h *Handler) StreamBoard(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming não suportado")
		return
	}

	updates, unsubscribe := h.Board.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := h.writeBoardEvent(w); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(h.StreamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-updates:
			if err := h.writeBoardEvent(w); err != nil {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}

func (h *Handler) writeBoardEvent(w http.ResponseWriter) error {
	data, err := json.Marshal(h.boardResponse())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: board\ndata: %s\n\n", data)
	return err
}
