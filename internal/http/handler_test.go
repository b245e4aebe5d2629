package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/address"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/catalog"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/checkout"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/kitchen"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/middleware"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/order"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/session"
)

type fakeMenu struct {
	items    []catalog.MenuItem
	crusts   []catalog.CrustOption
	crustErr error
}

func (m *fakeMenu) Menu() []catalog.MenuItem { return m.items }

func (m *fakeMenu) Item(id string) (catalog.MenuItem, bool) {
	for _, it := range m.items {
		if it.ID == id {
			return it, true
		}
	}
	return catalog.MenuItem{}, false
}

func (m *fakeMenu) Crusts(ctx context.Context) ([]catalog.CrustOption, error) {
	return m.crusts, m.crustErr
}

func (m *fakeMenu) Crust(ctx context.Context, id string) (catalog.CrustOption, error) {
	if m.crustErr != nil {
		return catalog.CrustOption{}, m.crustErr
	}
	for _, c := range m.crusts {
		if c.ID == id {
			return c, nil
		}
	}
	return catalog.CrustOption{}, catalog.ErrNotFound
}

type fakeSubmitter struct {
	got   checkout.Input
	calls int
	out   order.Order
	err   error
}

func (s *fakeSubmitter) Submit(ctx context.Context, sess *session.Session, in checkout.Input) (order.Order, error) {
	s.calls++
	s.got = in
	if s.err != nil {
		return order.Order{}, s.err
	}
	sess.SetCurrentOrder(s.out)
	return s.out, nil
}

type fakeKitchen struct {
	columns []kitchen.Column
	out     order.Order
	err     error
	ids     []string
}

func (k *fakeKitchen) Advance(ctx context.Context, id string) (order.Order, error) {
	k.ids = append(k.ids, id)
	return k.out, k.err
}

func (k *fakeKitchen) Board() []kitchen.Column { return k.columns }

type fakeBoard struct {
	mu         sync.Mutex
	orders     map[string]order.Order
	refreshErr error
	refreshes  int
	loadedAt   time.Time
	updates    chan []order.Order
}

func (b *fakeBoard) Get(id string) (order.Order, bool) {
	o, ok := b.orders[id]
	return o, ok
}

func (b *fakeBoard) Refresh(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshes++
	return b.refreshErr
}

func (b *fakeBoard) Loading() bool       { return false }
func (b *fakeBoard) LoadedAt() time.Time { return b.loadedAt }

func (b *fakeBoard) Subscribe() (<-chan []order.Order, func()) {
	if b.updates == nil {
		b.updates = make(chan []order.Order, 1)
	}
	return b.updates, func() {}
}

type fakeOrders struct {
	byID     map[string]order.Order
	byCPF    map[string][]order.Order
	cpfCalls []string
	orders   []order.Order
	items    []order.Item
	err      error
}

func (o *fakeOrders) GetByID(ctx context.Context, id string) (order.Order, error) {
	if o.err != nil {
		return order.Order{}, o.err
	}
	v, ok := o.byID[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return v, nil
}

func (o *fakeOrders) ListActiveByCPF(ctx context.Context, cpf string) ([]order.Order, error) {
	o.cpfCalls = append(o.cpfCalls, cpf)
	return o.byCPF[cpf], o.err
}

func (o *fakeOrders) ListOrders(ctx context.Context) ([]order.Order, error) { return o.orders, o.err }
func (o *fakeOrders) ListItems(ctx context.Context) ([]order.Item, error)   { return o.items, o.err }

type fakeAddress struct {
	addr address.Address
	err  error
}

func (a *fakeAddress) Lookup(ctx context.Context, postalCode string) (address.Address, error) {
	return a.addr, a.err
}

type testEnv struct {
	menu     *fakeMenu
	sessions *session.Registry
	submit   *fakeSubmitter
	kitchen  *fakeKitchen
	board    *fakeBoard
	orders   *fakeOrders
	address  *fakeAddress
	router   http.Handler
}

var fixedNow = time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		menu: &fakeMenu{
			items: []catalog.MenuItem{
				{ID: "calabresa", Name: "Calabresa", Category: "Pizzas Tradicionais", Price: decimal.RequireFromString("42.90"), Available: true, Ingredients: []string{"calabresa", "cebola"}},
				{ID: "margherita", Name: "Margherita", Category: "Pizzas Tradicionais", Price: decimal.RequireFromString("44.90"), Available: true, Ingredients: []string{"tomate", "manjericão"}},
				{ID: "guarana", Name: "Guaraná 2L", Category: "Bebidas", Price: decimal.RequireFromString("12.00"), Available: true},
				{ID: "sazonal", Name: "Sazonal", Category: "Pizzas Especiais", Price: decimal.RequireFromString("59.90"), Available: false},
			},
			crusts: []catalog.CrustOption{
				{ID: "tradicional", Name: "Tradicional", Price: decimal.Zero, IsActive: true},
				{ID: "catupiry", Name: "Catupiry", Price: decimal.RequireFromString("9.00"), IsActive: true},
			},
		},
		sessions: session.NewRegistry(session.Options{}),
		submit:   &fakeSubmitter{},
		kitchen:  &fakeKitchen{},
		board:    &fakeBoard{orders: map[string]order.Order{}},
		orders:   &fakeOrders{byID: map[string]order.Order{}, byCPF: map[string][]order.Order{}},
		address:  &fakeAddress{},
	}
	h := NewHandler(Deps{
		Logger:          log.New(io.Discard, "", 0),
		StoreTimeout:    time.Second,
		Menu:            env.menu,
		Sessions:        env.sessions,
		Submissions:     env.submit,
		Kitchen:         env.kitchen,
		Board:           env.board,
		Orders:          env.orders,
		Address:         env.address,
		StreamHeartbeat: time.Hour,
		Now:             func() time.Time { return fixedNow },
	})
	env.router = NewRouter(h, RouterOptions{CORSAllowOrigins: []string{"*"}, CheckoutRateRPS: 1, CheckoutRateBurst: 2})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if sessionID != "" {
		req.Header.Set(middleware.HeaderSessionID, sessionID)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.Equal(t, "ok", decodeBody[map[string]string](t, rec)["status"])
}

func TestMenu(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/menu?category=Bebidas", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeBody[[]catalog.MenuItem](t, rec)
	require.Len(t, items, 1)
	require.Equal(t, "guarana", items[0].ID)

	rec = env.do(t, http.MethodGet, "/api/menu/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotEmpty(t, rec.Header().Get(middleware.HeaderCorrelationID))
	errBody := decodeBody[middleware.ErrorResponse](t, rec)
	require.Equal(t, "item não encontrado", errBody.Error)
	require.Equal(t, rec.Header().Get(middleware.HeaderCorrelationID), errBody.CorrelationID)

	rec = env.do(t, http.MethodGet, "/api/crusts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[[]catalog.CrustOption](t, rec), 2)
}

func TestListCrustsStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.menu.crustErr = errors.New("db down")

	rec := env.do(t, http.MethodGet, "/api/crusts", "", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCartRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/cart", "", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody[middleware.ErrorResponse](t, rec).Error, middleware.HeaderSessionID)
}

func TestAddCartItem(t *testing.T) {
	tests := map[string]struct {
		body       addItemRequest
		wantStatus int
		wantCount  int
		wantTotal  string
	}{
		"pizza with crust":    {body: addItemRequest{ItemID: "calabresa", CrustID: "catupiry"}, wantStatus: http.StatusCreated, wantCount: 1, wantTotal: "R$ 51,90"},
		"drink without crust": {body: addItemRequest{ItemID: "guarana"}, wantStatus: http.StatusCreated, wantCount: 1, wantTotal: "R$ 12,00"},
		"pizza without crust": {body: addItemRequest{ItemID: "calabresa"}, wantStatus: http.StatusBadRequest},
		"unknown crust":       {body: addItemRequest{ItemID: "calabresa", CrustID: "chocolate"}, wantStatus: http.StatusBadRequest},
		"unknown item":        {body: addItemRequest{ItemID: "nope"}, wantStatus: http.StatusNotFound},
		"unavailable item":    {body: addItemRequest{ItemID: "sazonal", CrustID: "tradicional"}, wantStatus: http.StatusConflict},
		"missing item id":     {body: addItemRequest{}, wantStatus: http.StatusBadRequest},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)

			rec := env.do(t, http.MethodPost, "/api/cart/items", "s1", tt.body)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusCreated {
				sess, ok := env.sessions.Get("s1")
				if ok {
					require.True(t, sess.Cart.IsEmpty())
				}
				return
			}
			resp := decodeBody[cartResponse](t, rec)
			require.Equal(t, tt.wantCount, resp.Count)
			require.Equal(t, tt.wantTotal, resp.TotalDisplay)
		})
	}
}

func TestCartLineLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/cart/items", "s1", addItemRequest{ItemID: "guarana", Observation: " gelado "})
	require.Equal(t, http.StatusCreated, rec.Code)
	line := decodeBody[cartResponse](t, rec).Lines[0]
	require.Equal(t, "gelado", line.Observation)

	rec = env.do(t, http.MethodPatch, "/api/cart/items/"+line.ID, "s1", updateLineRequest{Quantity: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[cartResponse](t, rec)
	require.Equal(t, 3, resp.Count)
	require.Equal(t, "R$ 36,00", resp.TotalDisplay)

	// other sessions keep their own cart
	rec = env.do(t, http.MethodGet, "/api/cart", "s2", nil)
	require.Equal(t, 0, decodeBody[cartResponse](t, rec).Count)

	rec = env.do(t, http.MethodDelete, "/api/cart/items/"+line.ID, "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeBody[cartResponse](t, rec).Lines)

	env.do(t, http.MethodPost, "/api/cart/items", "s1", addItemRequest{ItemID: "guarana"})
	rec = env.do(t, http.MethodDelete, "/api/cart", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, decodeBody[cartResponse](t, rec).Count)
}

func TestUpdateCartLineZeroRemoves(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/cart/items", "s1", addItemRequest{ItemID: "guarana"})
	line := decodeBody[cartResponse](t, rec).Lines[0]

	rec = env.do(t, http.MethodPatch, "/api/cart/items/"+line.ID, "s1", updateLineRequest{Quantity: 0})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeBody[cartResponse](t, rec).Lines)
}

func TestAddHalfAndHalf(t *testing.T) {
	tests := map[string]struct {
		body       halfAndHalfRequest
		wantStatus int
	}{
		"complete":       {body: halfAndHalfRequest{FirstItemID: "calabresa", SecondItemID: "margherita", CrustID: "tradicional"}, wantStatus: http.StatusCreated},
		"missing second": {body: halfAndHalfRequest{FirstItemID: "calabresa", CrustID: "tradicional"}, wantStatus: http.StatusBadRequest},
		"missing crust":  {body: halfAndHalfRequest{FirstItemID: "calabresa", SecondItemID: "margherita"}, wantStatus: http.StatusBadRequest},
		"unknown flavor": {body: halfAndHalfRequest{FirstItemID: "calabresa", SecondItemID: "nope", CrustID: "tradicional"}, wantStatus: http.StatusNotFound},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)

			rec := env.do(t, http.MethodPost, "/api/cart/half-and-half", "s1", tt.body)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusCreated {
				resp := decodeBody[cartResponse](t, rec)
				require.Len(t, resp.Lines, 1)
				require.Equal(t, "R$ 43,90", resp.TotalDisplay)
				require.Equal(t, "Meio a Meio", resp.Lines[0].Item.Category)
			}
		})
	}
}

func TestCheckout(t *testing.T) {
	valid := map[string]any{
		"customerName":  "Ana",
		"cpf":           "123.456.789-09",
		"deliveryType":  "pickup",
		"paymentMethod": "pix",
	}

	tests := map[string]struct {
		body       any
		submitErr  error
		wantStatus int
		wantCalls  int
	}{
		"accepted":          {body: valid, wantStatus: http.StatusCreated, wantCalls: 1},
		"unknown field":     {body: map[string]any{"customerName": "Ana", "cpf": "1", "deliveryType": "pickup", "paymentMethod": "pix", "coupon": "X"}, wantStatus: http.StatusBadRequest},
		"missing cpf":       {body: map[string]any{"customerName": "Ana", "deliveryType": "pickup", "paymentMethod": "pix"}, wantStatus: http.StatusBadRequest},
		"wrong type":        {body: map[string]any{"customerName": 7, "cpf": "1", "deliveryType": "pickup", "paymentMethod": "pix"}, wantStatus: http.StatusBadRequest},
		"validation":        {body: valid, submitErr: order.NewValidationError("carrinho vazio"), wantStatus: http.StatusBadRequest, wantCalls: 1},
		"submission failed": {body: valid, submitErr: checkout.ErrSubmissionFailed, wantStatus: http.StatusBadGateway, wantCalls: 1},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			env.submit.err = tt.submitErr
			env.submit.out = order.Order{ID: "o-1", DisplayID: "PED-00001", Status: order.StatusAwaiting}

			rec := env.do(t, http.MethodPost, "/api/checkout", "s1", tt.body)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			require.Equal(t, tt.wantCalls, env.submit.calls)
			switch tt.wantStatus {
			case http.StatusCreated:
				require.Equal(t, "PED-00001", decodeBody[order.Order](t, rec).DisplayID)
				require.Equal(t, "Ana", env.submit.got.CustomerName)
			case http.StatusBadGateway:
				require.Equal(t, msgSubmissionFailed, decodeBody[middleware.ErrorResponse](t, rec).Error)
			}
		})
	}
}

func TestCheckoutPassesIdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	env.submit.out = order.Order{ID: "o-1"}
	body, err := json.Marshal(map[string]any{"customerName": "Ana", "cpf": "12345678909", "deliveryType": "pickup", "paymentMethod": "pix"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", bytes.NewReader(body))
	req.Header.Set(middleware.HeaderSessionID, "s1")
	req.Header.Set("Idempotency-Key", " retry-1 ")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "retry-1", env.submit.got.IdempotencyKey)
}

func TestCheckoutRateLimitedPerSession(t *testing.T) {
	env := newTestEnv(t)
	env.submit.err = order.NewValidationError("carrinho vazio")
	body := map[string]any{"customerName": "Ana", "cpf": "1", "deliveryType": "pickup", "paymentMethod": "pix"}

	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/checkout", "s1", body).Code)
	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/checkout", "s1", body).Code)

	rec := env.do(t, http.MethodPost, "/api/checkout", "s1", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))

	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/checkout", "s2", body).Code)
}

func TestCurrentOrder(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/orders/current", "s1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	env.sessions.GetOrCreate("s1").SetCurrentOrder(order.Order{ID: "o-1", Status: order.StatusAwaiting})
	rec = env.do(t, http.MethodGet, "/api/orders/current", "s1", nil)
	require.Equal(t, order.StatusAwaiting, decodeBody[order.Order](t, rec).Status)

	env.board.orders["o-1"] = order.Order{ID: "o-1", Status: order.StatusPreparing}
	rec = env.do(t, http.MethodGet, "/api/orders/current", "s1", nil)
	require.Equal(t, order.StatusPreparing, decodeBody[order.Order](t, rec).Status)
}

func TestGetOrder(t *testing.T) {
	env := newTestEnv(t)
	env.board.orders["on-board"] = order.Order{ID: "on-board", Status: order.StatusOutForDelivery}
	env.orders.byID["stored"] = order.Order{ID: "stored", Status: order.StatusDelivered}

	tests := map[string]struct {
		id         string
		wantStatus int
		want       order.Status
	}{
		"from board": {id: "on-board", wantStatus: http.StatusOK, want: order.StatusOutForDelivery},
		"from store": {id: "stored", wantStatus: http.StatusOK, want: order.StatusDelivered},
		"missing":    {id: "nope", wantStatus: http.StatusNotFound},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/orders/"+tt.id, "", nil)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				require.Equal(t, tt.want, decodeBody[order.Order](t, rec).Status)
			}
		})
	}
}

func TestListOrdersByCPF(t *testing.T) {
	env := newTestEnv(t)
	env.orders.byCPF["12345678909"] = []order.Order{{ID: "o-1"}}

	rec := env.do(t, http.MethodGet, "/api/orders?cpf=123.456.789-09", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[[]order.Order](t, rec), 1)
	require.Equal(t, []string{"12345678909"}, env.orders.cpfCalls)

	rec = env.do(t, http.MethodGet, "/api/orders?cpf=98765432100", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", string(bytes.TrimSpace(rec.Body.Bytes())))

	rec = env.do(t, http.MethodGet, "/api/orders?cpf=123", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, env.orders.cpfCalls, 2)
}

func TestAdvanceOrder(t *testing.T) {
	tests := map[string]struct {
		err        error
		wantStatus int
	}{
		"advanced":  {wantStatus: http.StatusOK},
		"delivered": {err: order.ErrTerminal, wantStatus: http.StatusConflict},
		"bad state": {err: fmt.Errorf("order o-1: %w %q", order.ErrUnknownStatus, "cancelled"), wantStatus: http.StatusConflict},
		"unknown":   {err: errors.Join(errors.New("load order x"), order.ErrNotFound), wantStatus: http.StatusNotFound},
		"store":     {err: errors.New("persist transition: boom"), wantStatus: http.StatusInternalServerError},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			env.kitchen.err = tt.err
			env.kitchen.out = order.Order{ID: "o-1", Status: order.StatusPreparing}

			rec := env.do(t, http.MethodPost, "/api/kitchen/orders/o-1/advance", "", nil)

			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, []string{"o-1"}, env.kitchen.ids)
		})
	}
}

func TestKitchenBoardAndRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.kitchen.columns = []kitchen.Column{{Status: order.StatusAwaiting, Label: "Aguardando", Orders: []order.Order{{ID: "o-1"}}}}
	env.board.loadedAt = fixedNow

	rec := env.do(t, http.MethodGet, "/api/kitchen/orders", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[boardResponse](t, rec)
	require.Len(t, resp.Columns, 1)
	require.NotNil(t, resp.LoadedAt)
	require.True(t, fixedNow.Equal(*resp.LoadedAt))

	rec = env.do(t, http.MethodPost, "/api/kitchen/refresh", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, env.board.refreshes)

	env.board.refreshErr = errors.New("timeout")
	rec = env.do(t, http.MethodPost, "/api/kitchen/refresh", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReportSummary(t *testing.T) {
	env := newTestEnv(t)
	env.orders.orders = []order.Order{{ID: "o-1", Total: decimal.RequireFromString("51.90"), CreatedAt: fixedNow}}
	env.orders.items = []order.Item{{OrderID: "o-1", Name: "Calabresa", Quantity: 1, Price: decimal.RequireFromString("51.90")}}

	rec := env.do(t, http.MethodGet, "/api/reports/summary", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	sum := decodeBody[order.Summary](t, rec)
	require.Equal(t, 1, sum.OrderCount)
	require.True(t, decimal.RequireFromString("51.90").Equal(sum.TodayRevenue))
	require.Len(t, sum.TopFlavors, 1)

	env.orders.err = errors.New("db down")
	rec = env.do(t, http.MethodGet, "/api/reports/summary", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLookupAddress(t *testing.T) {
	tests := map[string]struct {
		err        error
		wantStatus int
	}{
		"found":    {wantStatus: http.StatusOK},
		"invalid":  {err: address.ErrInvalidPostalCode, wantStatus: http.StatusBadRequest},
		"missing":  {err: address.ErrNotFound, wantStatus: http.StatusNotFound},
		"upstream": {err: errors.New("dial tcp: refused"), wantStatus: http.StatusBadGateway},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			env.address.err = tt.err
			env.address.addr = address.Address{PostalCode: "01310-100", City: "São Paulo"}

			rec := env.do(t, http.MethodGet, "/api/address/01310100", "", nil)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				require.Equal(t, "São Paulo", decodeBody[address.Address](t, rec).City)
			}
		})
	}
}
