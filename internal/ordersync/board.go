// Package ordersync keeps a read-only projection of every order in step with
// the store. Change notifications only signal that something changed; each one
// schedules a full refetch-and-join, and bursts collapse into one refetch.
package ordersync

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/events"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/order"
)

// Source is the read side of the order store.
type Source interface {
	ListOrders(ctx context.Context) ([]order.Order, error)
	ListItems(ctx context.Context) ([]order.Item, error)
}

type Options struct {
	// MinInterval spaces consecutive refetches.
	MinInterval  time.Duration
	StoreTimeout time.Duration
	Logger       *log.Logger
}

type Board struct {
	src     Source
	logger  *log.Logger
	timeout time.Duration
	limiter *rate.Limiter

	// requests holds at most one pending refresh.
	requests chan struct{}

	mu       sync.RWMutex
	orders   []order.Order
	loading  bool
	loadedAt time.Time
	// gen counts local patches; a refetch started under an older
	// generation is discarded.
	gen uint64

	subMu   sync.Mutex
	subs    map[int]chan []order.Order
	nextSub int
}

func NewBoard(src Source, opts Options) *Board {
	if opts.MinInterval <= 0 {
		opts.MinInterval = 250 * time.Millisecond
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Board{
		src:      src,
		logger:   opts.Logger,
		timeout:  opts.StoreTimeout,
		limiter:  rate.NewLimiter(rate.Every(opts.MinInterval), 1),
		requests: make(chan struct{}, 1),
		orders:   []order.Order{},
		subs:     map[int]chan []order.Order{},
	}
}

// Refresh refetches orders and items and rejoins them. Loading reports true
// for the duration. On failure the previous projection is kept. When Apply
// patched the projection while rows were being read, the result is dropped
// and another refetch is queued.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	b.loading = true
	started := b.gen
	b.mu.Unlock()
	defer b.setLoading(false)

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	orders, err := b.src.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("refresh orders: %w", err)
	}
	items, err := b.src.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("refresh order items: %w", err)
	}
	joined := order.Join(orders, items)

	b.mu.Lock()
	if b.gen != started {
		b.mu.Unlock()
		b.RequestRefresh()
		return nil
	}
	b.orders = joined
	b.loadedAt = time.Now()
	b.mu.Unlock()

	b.broadcast()
	return nil
}

func (b *Board) setLoading(v bool) {
	b.mu.Lock()
	b.loading = v
	b.mu.Unlock()
}

func (b *Board) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}

func (b *Board) LoadedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loadedAt
}

// RequestRefresh schedules a refetch without blocking. A request made while
// one is already pending is merged into it.
func (b *Board) RequestRefresh() {
	select {
	case b.requests <- struct{}{}:
	default:
	}
}

// Run performs the initial load and then serves refresh requests, including
// those raised by order and order item changes, until ctx is done.
func (b *Board) Run(ctx context.Context, changes <-chan events.Change) {
	b.RequestRefresh()

	for {
		select {
		case <-ctx.Done():
			return
		case ch, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if ch.Table == events.TableOrders || ch.Table == events.TableOrderItems {
				b.RequestRefresh()
			}
		case <-b.requests:
			if err := b.limiter.Wait(ctx); err != nil {
				return
			}
			if err := b.Refresh(ctx); err != nil {
				b.logger.Printf("ordersync: %v", err)
			}
		}
	}
}

// Orders returns the projection, newest first.
func (b *Board) Orders() []order.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]order.Order, len(b.orders))
	copy(out, b.orders)
	return out
}

func (b *Board) Get(id string) (order.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, o := range b.orders {
		if o.ID == id {
			return o, true
		}
	}
	return order.Order{}, false
}

// Apply patches one order in place ahead of the next refetch. Only orders
// already in the projection are patched.
func (b *Board) Apply(o order.Order) bool {
	b.mu.Lock()
	b.gen++
	patched := false
	for i := range b.orders {
		if b.orders[i].ID == o.ID {
			if o.Items == nil {
				o.Items = b.orders[i].Items
			}
			b.orders[i] = o
			patched = true
			break
		}
	}
	b.mu.Unlock()

	if patched {
		b.broadcast()
	}
	return patched
}

// Subscribe returns a channel that receives the current projection right
// away and after every change. Slow readers only see the latest snapshot.
func (b *Board) Subscribe() (<-chan []order.Order, func()) {
	ch := make(chan []order.Order, 1)
	ch <- b.Orders()

	b.subMu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch
	b.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.subMu.Lock()
			delete(b.subs, id)
			b.subMu.Unlock()
			close(ch)
		})
	}
}

func (b *Board) broadcast() {
	snapshot := b.Orders()

	b.subMu.Lock()
	defer b.subMu.Unlock()
	for _, ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}
