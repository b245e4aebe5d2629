package httpapi

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Field rules (required cpf digits, known payment methods) live in the
// checkout package so their messages stay in the storefront's language. The
// schema only guards the payload's shape.
const schemaCheckout = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["customerName", "cpf", "deliveryType", "paymentMethod"],
  "properties": {
    "customerName":  {"type": "string", "maxLength": 120},
    "cpf":           {"type": "string", "maxLength": 20},
    "deliveryType":  {"type": "string", "maxLength": 16},
    "street":        {"type": "string", "maxLength": 160},
    "number":        {"type": "string", "maxLength": 20},
    "complement":    {"type": "string", "maxLength": 80},
    "district":      {"type": "string", "maxLength": 80},
    "city":          {"type": "string", "maxLength": 80},
    "postalCode":    {"type": "string", "maxLength": 12},
    "paymentMethod": {"type": "string", "maxLength": 16}
  }
}`

var checkoutSchema = gojsonschema.NewStringLoader(schemaCheckout)

func validateJSONSchema(schema gojsonschema.JSONLoader, body []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid payload: %s", strings.Join(msgs, "; "))
	}
	return nil
}
