package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusNotPaid Status = "not paid"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusNotPaid:
		return true
	}
	return false
}

// Item is an immutable order line. ProductName and Price are captured at
// checkout so later catalog edits do not rewrite history.
type Item struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	OrderID     uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID   uuid.UUID       `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Quantity    int             `json:"quantity" db:"quantity"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	CustomerName string          `json:"customer_name" db:"customer_name"`
	TotalAmount  decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status       Status          `json:"status" db:"status"`
	Items        []Item          `json:"items" db:"-"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// Filter narrows ListOrders. Zero values disable a condition; From and To
// are inclusive bounds on created_at.
type Filter struct {
	From   time.Time
	To     time.Time
	Status Status
}

type Listing struct {
	Orders     []Order         `json:"orders"`
	SalesTotal decimal.Decimal `json:"sales_total"`
}
