package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/address"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/catalog"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/checkout"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/kitchen"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/middleware"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/order"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/session"
)

type Menu interface {
	Menu() []catalog.MenuItem
	Item(id string) (catalog.MenuItem, bool)
	Crusts(ctx context.Context) ([]catalog.CrustOption, error)
	Crust(ctx context.Context, id string) (catalog.CrustOption, error)
}

type Submitter interface {
	Submit(ctx context.Context, sess *session.Session, in checkout.Input) (order.Order, error)
}

type Kitchen interface {
	Advance(ctx context.Context, orderID string) (order.Order, error)
	Board() []kitchen.Column
}

type OrderBoard interface {
	Get(id string) (order.Order, bool)
	Refresh(ctx context.Context) error
	Loading() bool
	LoadedAt() time.Time
	Subscribe() (<-chan []order.Order, func())
}

type OrderReader interface {
	GetByID(ctx context.Context, id string) (order.Order, error)
	ListActiveByCPF(ctx context.Context, cpf string) ([]order.Order, error)
	ListOrders(ctx context.Context) ([]order.Order, error)
	ListItems(ctx context.Context) ([]order.Item, error)
}

type AddressLookup interface {
	Lookup(ctx context.Context, postalCode string) (address.Address, error)
}

type Deps struct {
	Logger       *log.Logger
	StoreTimeout time.Duration
	Menu         Menu
	Sessions     *session.Registry
	Submissions  Submitter
	Kitchen      Kitchen
	Board        OrderBoard
	Orders       OrderReader
	Address      AddressLookup

	// StreamHeartbeat is the SSE keep-alive period.
	StreamHeartbeat time.Duration
	Now             func() time.Time
}

type Handler struct {
	Deps
}

func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	if d.StoreTimeout <= 0 {
		d.StoreTimeout = 3 * time.Second
	}
	if d.StreamHeartbeat <= 0 {
		d.StreamHeartbeat = 15 * time.Second
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Handler{Deps: d}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "pizzeria-service",
	})
}

func (h *Handler) storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.StoreTimeout)
}

func (h *Handler) session(r *http.Request) *session.Session {
	return h.Sessions.GetOrCreate(middleware.GetSessionID(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	middleware.WriteError(w, r, status, msg)
}

const maxBodyBytes = 64 << 10

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "json inválido")
		return false
	}
	return true
}
