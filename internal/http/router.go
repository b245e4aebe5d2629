package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/middleware"
)

type RouterOptions struct {
	CORSAllowOrigins  []string
	CheckoutRateRPS   float64
	CheckoutRateBurst int
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	limiter := middleware.NewSessionLimiter(opts.CheckoutRateRPS, opts.CheckoutRateBurst)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Recover(h.Logger))
	r.Use(middleware.CORS(opts.CORSAllowOrigins))
	r.Use(chimw.Logger)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/menu", h.ListMenu)
		r.Get("/menu/{itemId}", h.GetMenuItem)
		r.Get("/crusts", h.ListCrusts)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSessionID)

			r.Get("/cart", h.GetCart)
			r.Delete("/cart", h.ClearCart)
			r.Post("/cart/items", h.AddCartItem)
			r.Post("/cart/half-and-half", h.AddHalfAndHalf)
			r.Patch("/cart/items/{lineId}", h.UpdateCartLine)
			r.Delete("/cart/items/{lineId}", h.RemoveCartLine)

			r.With(limiter.Limit).Post("/checkout", h.Checkout)

			r.Get("/orders/current", h.CurrentOrder)
		})

		r.Get("/orders", h.ListOrdersByCPF)
		r.Get("/orders/{orderId}", h.GetOrder)

		r.Route("/kitchen", func(r chi.Router) {
			r.Get("/orders", h.KitchenBoard)
			r.Post("/orders/{orderId}/advance", h.AdvanceOrder)
			r.Post("/refresh", h.RefreshBoard)
			r.Get("/stream", h.StreamBoard)
		})

		r.Get("/reports/summary", h.ReportSummary)
		r.Get("/address/{postalCode}", h.LookupAddress)
	})

	return r
}
