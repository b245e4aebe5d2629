package checkout

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/cart"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/events"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/order"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/session"
)

// ErrSubmissionFailed is all the customer learns about a store failure.
var ErrSubmissionFailed = errors.New("order submission failed")

type Store interface {
	Create(ctx context.Context, in order.NewOrder) (order.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (order.Order, bool, error)
}

type Refresher interface {
	RequestRefresh()
}

type ChangePublisher interface {
	PublishChange(ctx context.Context, c events.Change) error
}

type Options struct {
	StoreTimeout   time.Duration
	PickupLocation string
	Logger         *log.Logger
}

type Service struct {
	store     Store
	board     Refresher
	publisher ChangePublisher
	timeout   time.Duration
	pickup    string
	logger    *log.Logger
}

// NewService wires the submission workflow. publisher may be nil when no
// change feed is configured.
func NewService(store Store, board Refresher, publisher ChangePublisher, opts Options) *Service {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Service{
		store:     store,
		board:     board,
		publisher: publisher,
		timeout:   opts.StoreTimeout,
		pickup:    opts.PickupLocation,
		logger:    opts.Logger,
	}
}

// Submit turns the session's cart into a stored order. Validation failures
// are returned as *order.ValidationError before any store call. On a store
// failure the cart is left untouched and ErrSubmissionFailed is returned.
//
// A submission carrying an idempotency key that already produced an order
// resolves to that order, whatever the cart holds now.
func (s *Service) Submit(ctx context.Context, sess *session.Session, in Input) (order.Order, error) {
	if in.IdempotencyKey != "" {
		if o, ok := s.replay(ctx, sess, in.IdempotencyKey); ok {
			return o, nil
		}
	}

	snap := sess.Cart.Snapshot()
	if err := Validate(in, snap); err != nil {
		return order.Order{}, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	o, err := s.store.Create(storeCtx, s.newOrder(in, snap))
	if errors.Is(err, order.ErrDuplicateSubmission) {
		if o, ok := s.replay(ctx, sess, in.IdempotencyKey); ok {
			return o, nil
		}
	}
	if err != nil {
		s.logger.Printf("checkout: session %s: %v", sess.ID, err)
		return order.Order{}, ErrSubmissionFailed
	}

	sess.SetCurrentOrder(o)
	sess.Cart.Consume(snap.Lines)
	s.board.RequestRefresh()
	s.publish(ctx, events.Change{Table: events.TableOrders, Op: events.OpInsert, RowID: o.ID})

	return o, nil
}

func (s *Service) replay(ctx context.Context, sess *session.Session, key string) (order.Order, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	o, found, err := s.store.FindByIdempotencyKey(ctx, key)
	if err != nil {
		s.logger.Printf("checkout: lookup idempotency key: %v", err)
		return order.Order{}, false
	}
	if !found {
		return order.Order{}, false
	}
	sess.SetCurrentOrder(o)
	return o, true
}

func (s *Service) newOrder(in Input, snap cart.Snapshot) order.NewOrder {
	no := order.NewOrder{
		CustomerName:  in.CustomerName,
		Address:       ComposeAddress(in, s.pickup),
		CPF:           order.Digits(in.CPF),
		Total:         snap.Total,
		PaymentMethod: in.PaymentMethod,
		DeliveryType:  in.DeliveryType,
		Items:         make([]order.NewItem, 0, len(snap.Lines)),

		IdempotencyKey: in.IdempotencyKey,
	}
	for _, ln := range snap.Lines {
		no.Items = append(no.Items, order.NewItem{
			Name:        ln.Item.Name,
			Quantity:    ln.Quantity,
			Price:       ln.Item.Price,
			Observation: ComposeObservation(ln.Crust, ln.Observation),
		})
	}
	return no
}

func (s *Service) publish(ctx context.Context, c events.Change) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.publisher.PublishChange(ctx, c); err != nil {
		s.logger.Printf("checkout: publish %s.%s: %v", c.Table, c.Op, err)
	}
}
