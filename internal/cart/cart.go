// Package cart is the per-session cart engine. Lines are identified by the
// (item id, observation, crust) triple; identical triples merge.
package cart

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/catalog"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/pricing"
)

var lineNamespace = uuid.MustParse("6f1c2a4e-3b7d-5e80-9a61-2c4f8d0b7e13")

// Line is one entry of the cart. Item.Price already carries any crust
// surcharge, so the line subtotal is Item.Price * Quantity.
type Line struct {
	ID          string           `json:"id"`
	Item        catalog.MenuItem `json:"item"`
	Quantity    int              `json:"quantity"`
	Observation string           `json:"observation,omitempty"`
	Crust       string           `json:"crust,omitempty"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineID derives the stable id of a line from its identity triple.
func LineID(itemID, observation, crust string) string {
	key := strings.Join([]string{itemID, observation, crust}, "\x00")
	return uuid.NewSHA1(lineNamespace, []byte(key)).String()
}

// Cart is safe for concurrent use; every mutation is applied in call order.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// Add merges into the line with the same identity triple or appends a new
// line with quantity 1. The item is stored as given; callers that need crust
// pricing go through AddSelection.
func (c *Cart) Add(item catalog.MenuItem, observation, crust string) Line {
	observation = strings.TrimSpace(observation)
	id := LineID(item.ID, observation, crust)

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ID == id {
			c.lines[i].Quantity++
			return c.lines[i]
		}
	}
	ln := Line{ID: id, Item: item, Quantity: 1, Observation: observation, Crust: crust}
	c.lines = append(c.lines, ln)
	return ln
}

// AddSelection adds a single-flavor item after crust gating. Pizza-like items
// need a crust; the surcharge is folded into the line's unit price.
func (c *Cart) AddSelection(item catalog.MenuItem, observation string, crust *catalog.CrustOption) (Line, error) {
	if err := pricing.RequireCrust(item, crust); err != nil {
		return Line{}, err
	}

	priced := item
	priced.Price = pricing.UnitPrice(item, crust)

	var crustName string
	if crust != nil && pricing.IsPizzaCategory(item.Category) {
		crustName = crust.Name
	}
	return c.Add(priced, observation, crustName), nil
}

// AddHalfAndHalf synthesizes the composite item and adds it. Both flavors and
// a crust are mandatory; nothing is added otherwise.
func (c *Cart) AddHalfAndHalf(first, second *catalog.MenuItem, crust *catalog.CrustOption, observation string, now time.Time) (Line, error) {
	if err := pricing.ValidateComposite(first, second, crust); err != nil {
		return Line{}, err
	}
	item := pricing.NewComposite(*first, *second, *crust, now)
	return c.Add(item, observation, crust.Name), nil
}

// Remove drops the line with the given id. Sibling lines sharing the base item
// with a different observation or crust are kept. Unknown ids are a no-op.
func (c *Cart) Remove(lineID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(lineID)
}

func (c *Cart) removeLocked(lineID string) {
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// UpdateQuantity sets the quantity exactly; q <= 0 removes the line.
func (c *Cart) UpdateQuantity(lineID string, q int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if q <= 0 {
		c.removeLocked(lineID)
		return
	}
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			c.lines[i].Quantity = q
			return
		}
	}
}

// Consume takes the given lines out of the cart, as captured by an earlier
// Snapshot. Quantity merged into a line after the snapshot stays behind, and
// lines added since are untouched.
func (c *Cart) Consume(lines []Line) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, taken := range lines {
		for i := range c.lines {
			if c.lines[i].ID != taken.ID {
				continue
			}
			if c.lines[i].Quantity > taken.Quantity {
				c.lines[i].Quantity -= taken.Quantity
			} else {
				c.removeLocked(taken.ID)
			}
			break
		}
	}
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Total is recomputed on every call.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, ln := range c.lines {
		total = total.Add(ln.Subtotal())
	}
	return pricing.Round2(total)
}

func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ln := range c.lines {
		n += ln.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return c.Count() == 0
}

// Snapshot is the cart as read by a view.
type Snapshot struct {
	Lines []Line          `json:"lines"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// Snapshot reads lines and derived totals under one lock.
func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{Lines: make([]Line, len(c.lines)), Total: decimal.Zero}
	copy(s.Lines, c.lines)
	for _, ln := range c.lines {
		s.Total = s.Total.Add(ln.Subtotal())
		s.Count += ln.Quantity
	}
	s.Total = pricing.Round2(s.Total)
	return s
}
