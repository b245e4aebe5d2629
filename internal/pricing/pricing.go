// Package pricing holds the pure price rules of the storefront: simple and
// half-and-half unit prices, crust surcharges and the gating that decides
// whether a selection may enter the cart.
package pricing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/catalog"
)

// CompositeCategory tags synthesized half-and-half items.
const CompositeCategory = "Meio a Meio"

var (
	ErrCrustRequired       = errors.New("escolha uma borda para esta pizza")
	ErrIncompleteComposite = errors.New("escolha dois sabores e uma borda para a pizza meio a meio")
)

var pizzaVocabulary = []string{"pizza", "tradicionais", "especiais", "doces"}

var two = decimal.NewFromInt(2)

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// IsPizzaCategory reports whether a category belongs to the pizza-like
// vocabulary, by case-insensitive substring match.
func IsPizzaCategory(category string) bool {
	c := strings.ToLower(category)
	for _, word := range pizzaVocabulary {
		if strings.Contains(c, word) {
			return true
		}
	}
	return false
}

func surcharge(crust *catalog.CrustOption) decimal.Decimal {
	if crust == nil {
		return decimal.Zero
	}
	return crust.Price
}

// UnitPrice is the catalog price plus the crust surcharge, the latter only for
// pizza-like items.
func UnitPrice(item catalog.MenuItem, crust *catalog.CrustOption) decimal.Decimal {
	price := item.Price
	if crust != nil && IsPizzaCategory(item.Category) {
		price = price.Add(crust.Price)
	}
	return Round2(price)
}

// CompositePrice is the rounded mean of both flavors plus the crust surcharge.
// With a single flavor chosen the price is that flavor's; with none it is zero.
func CompositePrice(first, second *catalog.MenuItem, crust *catalog.CrustOption) decimal.Decimal {
	var base decimal.Decimal
	switch {
	case first != nil && second != nil:
		base = Round2(first.Price.Add(second.Price).Div(two))
	case first != nil:
		base = first.Price
	case second != nil:
		base = second.Price
	default:
		return decimal.Zero
	}
	return Round2(base.Add(surcharge(crust)))
}

// RequireCrust gates single-flavor selections: pizza-like items need a crust.
func RequireCrust(item catalog.MenuItem, crust *catalog.CrustOption) error {
	if crust == nil && IsPizzaCategory(item.Category) {
		return ErrCrustRequired
	}
	return nil
}

// ValidateComposite gates half-and-half selections: both flavors and a crust.
func ValidateComposite(first, second *catalog.MenuItem, crust *catalog.CrustOption) error {
	if first == nil || second == nil || crust == nil {
		return ErrIncompleteComposite
	}
	return nil
}

// NewComposite synthesizes the half-and-half pseudo-item. The id only has to
// be unique; it is never looked up after a reload.
func NewComposite(first, second catalog.MenuItem, crust catalog.CrustOption, now time.Time) catalog.MenuItem {
	ingredients := make([]string, 0, 6)
	ingredients = append(ingredients, firstN(first.Ingredients, 3)...)
	ingredients = append(ingredients, firstN(second.Ingredients, 3)...)

	return catalog.MenuItem{
		ID:           fmt.Sprintf("half-%s-%s-%d", first.ID, second.ID, now.UnixMilli()),
		Name:         fmt.Sprintf("Meia %s / Meia %s", first.Name, second.Name),
		Description:  fmt.Sprintf("Metade %s e metade %s", first.Name, second.Name),
		Ingredients:  ingredients,
		Price:        CompositePrice(&first, &second, &crust),
		Image:        first.Image,
		IsVegetarian: first.IsVegetarian && second.IsVegetarian,
		Category:     CompositeCategory,
		Available:    true,
	}
}

func firstN(s []string, n int) []string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

// FormatBRL renders a price for display, e.g. "R$ 51,90".
func FormatBRL(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}
