package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Source delivers change notifications until the subscription drops. The
// returned channel is closed when ctx is done or the broker connection is lost.
type Source interface {
	Subscribe(ctx context.Context, bindings ...string) (<-chan Change, error)
}

// Subscriber consumes the changes exchange through a private, auto-deleted
// queue per subscription. A lost connection is re-dialed on the next Subscribe.
type Subscriber struct {
	url    string
	dial   func(url string) (*amqp.Connection, error)
	logger *log.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

func NewSubscriber(url string, logger *log.Logger) *Subscriber {
	return &Subscriber{url: url, dial: amqp.Dial, logger: logger}
}

func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || s.conn.IsClosed() {
		return nil
	}
	return s.conn.Close()
}

func (s *Subscriber) connection() (*amqp.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil && !s.conn.IsClosed() {
		return s.conn, nil
	}
	conn, err := s.dial(s.url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	s.conn = conn
	return conn, nil
}

func (s *Subscriber) Subscribe(ctx context.Context, bindings ...string) (<-chan Change, error) {
	conn, err := s.connection()
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareChangesExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare changes exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}

	for _, key := range bindings {
		if err := ch.QueueBind(q.Name, key, ChangesExchange, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	msgs, err := ch.Consume(q.Name, serviceName, true, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		defer func() { _ = ch.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					s.logger.Println("change feed: deliveries channel closed")
					return
				}
				c, err := decodeChange(msg.Body)
				if err != nil {
					s.logger.Printf("change feed: drop message: %v", err)
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func decodeChange(body []byte) (Change, error) {
	var env ChangeEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Change{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := env.Validate(EventNameRowChanged, 1); err != nil {
		return Change{}, err
	}
	if env.Payload.Table == "" {
		env.Payload.Table = env.PartitionKey
	}
	return env.Payload, nil
}
