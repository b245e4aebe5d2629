package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/checkout"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/events"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/middleware"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/order"
)

const msgSubmissionFailed = "Não foi possível enviar seu pedido. Tente novamente."

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxIdempotencyKeyLen = 128
)

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "não foi possível ler a requisição")
		return
	}
	if err := validateJSONSchema(checkoutSchema, body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var in checkout.Input
	if err := json.Unmarshal(body, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "json inválido")
		return
	}
	in.IdempotencyKey = strings.TrimSpace(r.Header.Get(headerIdempotencyKey))
	if len(in.IdempotencyKey) > maxIdempotencyKeyLen {
		writeError(w, r, http.StatusBadRequest, "Idempotency-Key muito longo")
		return
	}

	ctx := events.WithCorrelationID(r.Context(), middleware.GetCorrelationID(r.Context()))
	o, err := h.Submissions.Submit(ctx, h.session(r), in)
	switch {
	case order.IsValidation(err):
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, checkout.ErrSubmissionFailed):
		writeError(w, r, http.StatusBadGateway, msgSubmissionFailed)
		return
	case err != nil:
		h.Logger.Printf("checkout: %v", err)
		writeError(w, r, http.StatusInternalServerError, msgSubmissionFailed)
		return
	}

	writeJSON(w, http.StatusCreated, o)
}
