package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryType string

const (
	DeliveryTypeDelivery DeliveryType = "delivery"
	DeliveryTypePickup   DeliveryType = "pickup"
)

func (d DeliveryType) Valid() bool {
	return d == DeliveryTypeDelivery || d == DeliveryTypePickup
}

// Item is a line captured at submission time. Name and Price are a snapshot,
// not a reference to the catalog.
type Item struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"orderId"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Observation *string         `json:"observation"`
}

type Order struct {
	ID                 string          `json:"id"`
	DisplayID          string          `json:"displayId,omitempty"`
	Items              []Item          `json:"items"`
	Total              decimal.Decimal `json:"total"`
	Status             Status          `json:"status"`
	CustomerName       string          `json:"customerName"`
	CustomerAddress    string          `json:"customerAddress"`
	CPF                string          `json:"cpf"`
	PaymentMethod      string          `json:"paymentMethod"`
	DeliveryType       DeliveryType    `json:"deliveryType"`
	CreatedAt          time.Time       `json:"createdAt"`
	PreparationStartAt *time.Time      `json:"preparationStartAt,omitempty"`
	ReadyAt            *time.Time      `json:"readyAt,omitempty"`
	DeliveredAt        *time.Time      `json:"deliveredAt,omitempty"`
}

// Label is the human-facing name of the order, the display id when assigned.
func (o Order) Label() string {
	if o.DisplayID != "" {
		return o.DisplayID
	}
	if len(o.ID) > 8 {
		return "Pedido #" + o.ID[:8]
	}
	return "Pedido #" + o.ID
}

// NewOrder is the header and lines handed to the store on submission.
type NewOrder struct {
	CustomerName  string
	Address       string
	CPF           string
	Total         decimal.Decimal
	PaymentMethod string
	DeliveryType  DeliveryType
	Items         []NewItem

	// IdempotencyKey is optional. A key already used by another order makes
	// Create fail with ErrDuplicateSubmission.
	IdempotencyKey string
}

type NewItem struct {
	Name        string
	Quantity    int
	Price       decimal.Decimal
	Observation *string
}

// orderRow mirrors the orders table.
type orderRow struct {
	ID                 string
	DisplayID          *string
	CustomerName       string
	Address            string
	CPF                string
	TotalAmount        decimal.Decimal
	Status             string
	PaymentMethod      string
	DeliveryType       string
	CreatedAt          time.Time
	PreparationStartAt *time.Time
	ReadyAt            *time.Time
	DeliveredAt        *time.Time
}

func (r orderRow) toOrder() Order {
	o := Order{
		ID:                 r.ID,
		Items:              []Item{},
		Total:              r.TotalAmount,
		Status:             Status(r.Status),
		CustomerName:       r.CustomerName,
		CustomerAddress:    r.Address,
		CPF:                r.CPF,
		PaymentMethod:      r.PaymentMethod,
		DeliveryType:       DeliveryType(r.DeliveryType),
		CreatedAt:          r.CreatedAt,
		PreparationStartAt: r.PreparationStartAt,
		ReadyAt:            r.ReadyAt,
		DeliveredAt:        r.DeliveredAt,
	}
	if r.DisplayID != nil {
		o.DisplayID = *r.DisplayID
	}
	return o
}

// Join attaches items to their parent order by foreign key. Order of orders
// and of items within an order is preserved; orphan items are dropped.
func Join(orders []Order, items []Item) []Order {
	out := make([]Order, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		o.Items = []Item{}
		out[i] = o
		index[o.ID] = i
	}
	for _, it := range items {
		if i, ok := index[it.OrderID]; ok {
			out[i].Items = append(out[i].Items, it)
		}
	}
	return out
}
