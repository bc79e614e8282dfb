// Package cart accumulates catalog products into cart lines for one POS
// session while keeping every line within the stock known at the last check.
package cart

import (
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/retail-pos/internal/catalog"
	"github.com/vasiliy-maslov/retail-pos/internal/outcome"
)

const (
	MsgAdded         = "Added to cart"
	MsgUpdated       = "Cart updated"
	MsgRemoved       = "Removed from cart"
	MsgOutOfStock    = "Product is out of stock"
	MsgNotEnough     = "Not enough stock available"
	MsgInvalidAmount = "Quantity must stay above zero"
	MsgNotInCart     = "Product is not in the cart"
)

// Line is one product in the cart. Name, Price and Stock are snapshots taken
// when the product was first added.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// StockLookup returns the current view of a product, normally the catalog cache.
type StockLookup interface {
	Product(id uuid.UUID) (catalog.Product, bool)
}

// Cart is not safe for concurrent use; Sessions serializes access to it.
type Cart struct {
	lines    []Line
	customer string
	stock    StockLookup
}

func New(stock StockLookup) *Cart {
	return &Cart{stock: stock}
}

func (c *Cart) AddItem(p catalog.Product) outcome.Outcome {
	if p.Quantity <= 0 {
		return outcome.Validation(MsgOutOfStock, p.Name)
	}

	if i := c.find(p.ID); i >= 0 {
		if c.lines[i].Quantity+1 > p.Quantity {
			return outcome.Validation(MsgNotEnough, p.Name)
		}
		c.lines[i].Quantity++
		return outcome.Success(MsgAdded, p.Name)
	}

	c.lines = append(c.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  1,
		Stock:     p.Quantity,
	})
	return outcome.Success(MsgAdded, p.Name)
}

// AdjustQuantity changes a line by delta. A result of zero or less is
// rejected rather than removing the line.
func (c *Cart) AdjustQuantity(productID uuid.UUID, delta int) outcome.Outcome {
	i := c.find(productID)
	if i < 0 {
		return outcome.Validation(MsgNotInCart)
	}

	line := &c.lines[i]
	next := line.Quantity + delta
	if next <= 0 {
		return outcome.Validation(MsgInvalidAmount, line.Name)
	}
	if next > c.onHand(*line) {
		return outcome.Validation(MsgNotEnough, line.Name)
	}

	line.Quantity = next
	return outcome.Success(MsgUpdated, line.Name)
}

func (c *Cart) RemoveItem(productID uuid.UUID) outcome.Outcome {
	if i := c.find(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
	return outcome.Info(MsgRemoved)
}

// Total is recomputed from the lines on every call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) SetCustomer(name string) {
	c.customer = name
}

func (c *Cart) Customer() string {
	return c.customer
}

func (c *Cart) Lines() []Line {
	lines := make([]Line, len(c.lines))
	copy(lines, c.lines)
	return lines
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Clear drops all lines and the customer name.
func (c *Cart) Clear() {
	c.lines = nil
	c.customer = ""
}

func (c *Cart) find(productID uuid.UUID) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) onHand(l Line) int {
	if c.stock != nil {
		if p, ok := c.stock.Product(l.ProductID); ok {
			return p.Quantity
		}
	}
	return l.Stock
}
