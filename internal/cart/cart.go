package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one product entry in a session cart. Price is the unit price at the
// time the line was last touched; Stock mirrors the product's stock so clamping
// can be applied without a product lookup on pure operations.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Stock     *int            `json:"stock,omitempty"`
}

// Cart is the session-scoped cart. Lines keep insertion order; adding a product
// already present merges quantities instead of appending a duplicate line. All
// quantities respect [1, stock] when the product carries a stock limit.
type Cart struct {
	StoreID   uuid.UUID `json:"store_id"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// clampQuantity enforces the quantity invariant for a line.
func clampQuantity(qty int, stock *int) int {
	if qty < 1 {
		qty = 1
	}
	if stock != nil && qty > *stock {
		qty = *stock
	}
	return qty
}

// AddItem merges qty into an existing line or appends a new one. The resulting
// quantity is silently clamped to the product's stock.
func (c *Cart) AddItem(line Line, qty int) {
	if qty < 1 {
		qty = 1
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == line.ProductID {
			c.Lines[i].Price = line.Price
			c.Lines[i].Name = line.Name
			c.Lines[i].Image = line.Image
			c.Lines[i].Stock = line.Stock
			c.Lines[i].Quantity = clampQuantity(c.Lines[i].Quantity+qty, line.Stock)
			c.touch()
			return
		}
	}
	line.Quantity = clampQuantity(qty, line.Stock)
	c.Lines = append(c.Lines, line)
	c.touch()
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the line;
// anything above stock is clamped down. Returns false when the product is not
// in the cart.
func (c *Cart) UpdateQuantity(productID uuid.UUID, qty int) bool {
	for i := range c.Lines {
		if c.Lines[i].ProductID != productID {
			continue
		}
		if qty <= 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		} else {
			c.Lines[i].Quantity = clampQuantity(qty, c.Lines[i].Stock)
		}
		c.touch()
		return true
	}
	return false
}

// RemoveItem drops the line for productID. Returns false when absent.
func (c *Cart) RemoveItem(productID uuid.UUID) bool {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.touch()
			return true
		}
	}
	return false
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = nil
	c.StoreID = uuid.Nil
	c.touch()
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Subtotal returns Σ(line price × quantity).
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range c.Lines {
		subtotal = subtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return subtotal
}

// TotalItems returns the summed quantity across all lines.
func (c *Cart) TotalItems() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
