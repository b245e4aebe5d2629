package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// publishChannel is the part of *amqp.Channel the publisher uses.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// Publisher announces row changes on the changes exchange so every connected
// instance can refresh its projections. The broker is dialed on first use and
// again after the connection or channel is lost.
type Publisher struct {
	url  string
	dial func(url string) (*amqp.Connection, error)
	open func() (publishChannel, error)

	mu   sync.Mutex
	conn *amqp.Connection
	ch   publishChannel
}

func NewPublisher(url string) *Publisher {
	p := &Publisher{url: url, dial: amqp.Dial}
	p.open = p.openChannel
	return p
}

// Connect opens the publishing channel ahead of the first change.
func (p *Publisher) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.channelLocked()
	return err
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}

func (p *Publisher) channelLocked() (publishChannel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.ch = nil

	ch, err := p.open()
	if err != nil {
		return nil, err
	}
	p.ch = ch
	return ch, nil
}

func (p *Publisher) openChannel() (publishChannel, error) {
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := p.dial(p.url)
		if err != nil {
			return nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		p.conn = conn
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareChangesExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare changes exchange: %w", err)
	}
	return ch, nil
}

func (p *Publisher) PublishChange(ctx context.Context, c Change) error {
	env := newChangeEnvelope(c, correlationFrom(ctx), time.Now().UTC())
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal RowChanged: %w", err)
	}

	return p.publishJSON(ctx, RoutingKey(c.Table, c.Op), body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(
		pubCtx,
		ChangesExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Transient,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		// the next publish starts over on a fresh channel
		_ = ch.Close()
		p.ch = nil
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

type correlationKey struct{}

// WithCorrelationID attaches a correlation id that published envelopes carry.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func correlationFrom(ctx context.Context) string {
	if v, ok := ctx.Value(correlationKey{}).(string); ok {
		return v
	}
	return ""
}
