// Package kitchen advances orders through their stages and serves the
// kitchen board.
package kitchen

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/events"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/order"
)

type Store interface {
	GetByID(ctx context.Context, id string) (order.Order, error)
	UpdateStatus(ctx context.Context, tr order.Transition) error
}

// Projection is the locally held order list.
type Projection interface {
	Apply(o order.Order) bool
	Orders() []order.Order
	RequestRefresh()
}

// Sessions patches the order a customer session is tracking.
type Sessions interface {
	UpdateCurrentOrder(o order.Order) int
}

type ChangePublisher interface {
	PublishChange(ctx context.Context, c events.Change) error
}

type Options struct {
	StoreTimeout time.Duration
	Logger       *log.Logger
	Now          func() time.Time
}

type Service struct {
	store     Store
	board     Projection
	sessions  Sessions
	publisher ChangePublisher
	timeout   time.Duration
	logger    *log.Logger
	now       func() time.Time
}

// NewService wires status advancement. publisher may be nil.
func NewService(store Store, board Projection, sessions Sessions, publisher ChangePublisher, opts Options) *Service {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:     store,
		board:     board,
		sessions:  sessions,
		publisher: publisher,
		timeout:   opts.StoreTimeout,
		logger:    opts.Logger,
		now:       opts.Now,
	}
}

// Advance moves the order one stage forward. The transition is persisted
// first; the board and tracking sessions are patched only once the store has
// accepted it. A delivered order yields order.ErrTerminal and nothing is
// written.
func (s *Service) Advance(ctx context.Context, orderID string) (order.Order, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	current, err := s.store.GetByID(storeCtx, orderID)
	if err != nil {
		return order.Order{}, fmt.Errorf("load order %s: %w", orderID, err)
	}

	next, tr, err := order.Advance(current, s.now().UTC())
	if err != nil {
		return current, err
	}

	if err := s.store.UpdateStatus(storeCtx, tr); err != nil {
		s.logger.Printf("kitchen: advance %s to %s: %v", orderID, tr.To, err)
		return current, fmt.Errorf("persist transition: %w", err)
	}

	s.board.Apply(next)
	s.board.RequestRefresh()
	s.sessions.UpdateCurrentOrder(next)
	s.publish(ctx, events.Change{Table: events.TableOrders, Op: events.OpUpdate, RowID: orderID})

	return next, nil
}

func (s *Service) publish(ctx context.Context, c events.Change) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.publisher.PublishChange(ctx, c); err != nil {
		s.logger.Printf("kitchen: publish %s.%s: %v", c.Table, c.Op, err)
	}
}

// Column is one status lane of the kitchen board.
type Column struct {
	Status order.Status  `json:"status"`
	Label  string        `json:"label"`
	Orders []order.Order `json:"orders"`
}

// Board groups the active orders by stage. Delivered orders leave the board.
func (s *Service) Board() []Column {
	lanes := []order.Status{order.StatusAwaiting, order.StatusPreparing, order.StatusOutForDelivery}
	cols := make([]Column, len(lanes))
	index := map[order.Status]int{}
	for i, st := range lanes {
		cols[i] = Column{Status: st, Label: st.Label(), Orders: []order.Order{}}
		index[st] = i
	}
	for _, o := range s.board.Orders() {
		if i, ok := index[o.Status]; ok {
			cols[i].Orders = append(cols[i].Orders, o)
		}
	}
	return cols
}
