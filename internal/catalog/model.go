package catalog

import "github.com/shopspring/decimal"

const (
	// PlaceholderImage is shown for items stored without an image.
	PlaceholderImage = "https://images.unsplash.com/photo-1565299624946-b28f40a0ae38?w=400&h=300&fit=crop"
	// FallbackCategory is the bucket for items stored without a category.
	FallbackCategory = "Outros"
)

// MenuItem is the display model of a catalog row. Composite half-and-half
// pizzas reuse this shape but are never persisted as catalog entries.
type MenuItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Ingredients  []string        `json:"ingredients"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	IsVegetarian bool            `json:"isVegetarian"`
	Category     string          `json:"category"`
	Available    bool            `json:"available"`
}

type CrustOption struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	IsActive bool            `json:"isActive"`
}

// menuItemRow mirrors the menu_items table, nullable columns included.
type menuItemRow struct {
	ID           string
	Name         string
	Description  string
	Ingredients  []string
	Price        decimal.Decimal
	ImageURL     *string
	IsVegetarian *bool
	Category     *string
	Available    *bool
}

func (r menuItemRow) toMenuItem() MenuItem {
	item := MenuItem{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Ingredients: r.Ingredients,
		Price:       r.Price,
		Image:       PlaceholderImage,
		Category:    FallbackCategory,
		Available:   true,
	}
	if item.Ingredients == nil {
		item.Ingredients = []string{}
	}
	if r.ImageURL != nil && *r.ImageURL != "" {
		item.Image = *r.ImageURL
	}
	if r.IsVegetarian != nil {
		item.IsVegetarian = *r.IsVegetarian
	}
	if r.Category != nil && *r.Category != "" {
		item.Category = *r.Category
	}
	if r.Available != nil {
		item.Available = *r.Available
	}
	return item
}
