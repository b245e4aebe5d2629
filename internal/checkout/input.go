package checkout

import (
	"strings"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/cart"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/order"
)

var PaymentMethods = []string{"pix", "credit", "cash"}

// Input is the checkout form.
type Input struct {
	CustomerName  string             `json:"customerName"`
	CPF           string             `json:"cpf"`
	DeliveryType  order.DeliveryType `json:"deliveryType"`
	Street        string             `json:"street"`
	Number        string             `json:"number"`
	Complement    string             `json:"complement"`
	District      string             `json:"district"`
	City          string             `json:"city"`
	PostalCode    string             `json:"postalCode"`
	PaymentMethod string             `json:"paymentMethod"`

	// IdempotencyKey comes from the Idempotency-Key request header.
	IdempotencyKey string `json:"-"`
}

// Validate checks the form against the cart. It never touches the store.
func Validate(in Input, snap cart.Snapshot) error {
	if snap.Count == 0 {
		return order.NewValidationError("Seu carrinho está vazio.")
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		return order.NewValidationError("Informe seu nome.")
	}
	if len(order.Digits(in.CPF)) != 11 {
		return order.NewValidationError("Informe um CPF válido com 11 dígitos.")
	}
	if !in.DeliveryType.Valid() {
		return order.NewValidationError("Escolha entrega ou retirada.")
	}
	if in.DeliveryType == order.DeliveryTypeDelivery {
		if strings.TrimSpace(in.Street) == "" {
			return order.NewValidationError("Informe o endereço de entrega.")
		}
		if strings.TrimSpace(in.Number) == "" {
			return order.NewValidationError("Informe o número do endereço.")
		}
	}
	if !validPayment(in.PaymentMethod) {
		return order.NewValidationError("Escolha uma forma de pagamento.")
	}
	return nil
}

func validPayment(m string) bool {
	for _, p := range PaymentMethods {
		if m == p {
			return true
		}
	}
	return false
}

// ComposeAddress builds the stored address line. Pickup orders carry the
// store's pickup location instead.
func ComposeAddress(in Input, pickupLocation string) string {
	if in.DeliveryType == order.DeliveryTypePickup {
		return pickupLocation
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(in.Street))
	b.WriteString(", ")
	b.WriteString(strings.TrimSpace(in.Number))
	if v := strings.TrimSpace(in.Complement); v != "" {
		b.WriteString(" - " + v)
	}
	if v := strings.TrimSpace(in.District); v != "" {
		b.WriteString(", " + v)
	}
	if v := strings.TrimSpace(in.City); v != "" {
		b.WriteString(", " + v)
	}
	if v := order.Digits(in.PostalCode); len(v) == 8 {
		b.WriteString(" - CEP " + order.FormatCEP(v))
	}
	return b.String()
}

// ComposeObservation renders the kitchen note of a line: the crust first,
// then the customer's text. Nil when there is neither.
func ComposeObservation(crust, observation string) *string {
	crust = strings.TrimSpace(crust)
	observation = strings.TrimSpace(observation)

	var s string
	switch {
	case crust != "" && observation != "":
		s = "Borda: " + crust + ". " + observation
	case crust != "":
		s = "Borda: " + crust
	case observation != "":
		s = observation
	default:
		return nil
	}
	return &s
}
