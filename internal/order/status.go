package order

import (
	"errors"
	"fmt"
	"time"
)

// Status values keep the store's vocabulary.
type Status string

const (
	StatusAwaiting       Status = "pending"
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "ready"
	StatusDelivered      Status = "delivered"
)

var (
	// ErrTerminal is returned when advancing a delivered order.
	ErrTerminal = errors.New("order already delivered")
	// ErrUnknownStatus is returned when advancing an order whose stored
	// status is outside the lifecycle.
	ErrUnknownStatus = errors.New("unknown order status")
)

// Statuses lists every stage in lifecycle order.
var Statuses = []Status{StatusAwaiting, StatusPreparing, StatusOutForDelivery, StatusDelivered}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Next is the stage after s. Delivered has none.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusAwaiting:
		return StatusPreparing, true
	case StatusPreparing:
		return StatusOutForDelivery, true
	case StatusOutForDelivery:
		return StatusDelivered, true
	default:
		return "", false
	}
}

// StampField is the column stamped when an order enters s.
func (s Status) StampField() string {
	switch s {
	case StatusPreparing:
		return "preparation_start_at"
	case StatusOutForDelivery:
		return "ready_at"
	case StatusDelivered:
		return "delivered_at"
	default:
		return ""
	}
}

func (s Status) Label() string {
	switch s {
	case StatusAwaiting:
		return "Aguardando"
	case StatusPreparing:
		return "Preparando"
	case StatusOutForDelivery:
		return "Saiu para Entrega"
	case StatusDelivered:
		return "Entregue"
	default:
		return string(s)
	}
}

// Transition is one forward step of an order.
type Transition struct {
	OrderID string
	From    Status
	To      Status
	At      time.Time
}

// Advance moves o one stage forward and stamps the entry time of the new
// stage. Stamps of other stages are left as they are.
func Advance(o Order, now time.Time) (Order, Transition, error) {
	if !o.Status.Valid() {
		return o, Transition{}, fmt.Errorf("order %s: %w %q", o.ID, ErrUnknownStatus, o.Status)
	}
	next, ok := o.Status.Next()
	if !ok {
		return o, Transition{}, ErrTerminal
	}
	tr := Transition{OrderID: o.ID, From: o.Status, To: next, At: now}
	return ApplyTransition(o, tr), tr, nil
}

// ApplyTransition writes an already persisted transition onto a projection.
func ApplyTransition(o Order, tr Transition) Order {
	at := tr.At
	o.Status = tr.To
	switch tr.To {
	case StatusPreparing:
		o.PreparationStartAt = &at
	case StatusOutForDelivery:
		o.ReadyAt = &at
	case StatusDelivered:
		o.DeliveredAt = &at
	}
	return o
}
