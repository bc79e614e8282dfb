// Package checkout commits a cart to the store as an ordered series of
// writes: order header, order items, then one stock decrement per line.
//
// The steps are not wrapped in a transaction. A failure after the header is
// written leaves the order in place with zero or partial items, and a failed
// decrement leaves the other decrements applied.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/retail-pos/internal/cart"
	"github.com/vasiliy-maslov/retail-pos/internal/order"
	"github.com/vasiliy-maslov/retail-pos/internal/outcome"
)

const (
	MsgCompleted     = "Transaction completed successfully!"
	MsgEmptyCart     = "Cart is empty"
	MsgBlankCustomer = "Please enter customer name"
	MsgOrderFailed   = "Failed to create order"
	MsgItemsFailed   = "Failed to save order items"
	MsgUnexpected    = "An unexpected error occurred during checkout"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrBlankCustomer = errors.New("customer name is blank")
)

type Step string

const (
	StepCreateOrder Step = "create-order"
	StepCreateItems Step = "create-items"
)

// StepError reports the write that halted a checkout. OrderID is set when the
// order header was already persisted.
type StepError struct {
	Step    Step
	OrderID uuid.UUID
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("checkout: %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type OrderWriter interface {
	CreateOrder(ctx context.Context, o *order.Order) (uuid.UUID, error)
	CreateOrderItems(ctx context.Context, orderID uuid.UUID, items []order.Item) error
}

type StockWriter interface {
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (int, error)
}

type CacheUpdater interface {
	SetQuantity(id uuid.UUID, qty int)
}

type Publisher interface {
	PublishOrderCreated(ctx context.Context, o order.Order) error
}

type Notifier interface {
	Broadcast(o outcome.Outcome)
}

// FailedDecrement is a line whose stock could not be reduced.
type FailedDecrement struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Error     string    `json:"error"`
}

type Result struct {
	OrderID          uuid.UUID         `json:"order_id"`
	Total            decimal.Decimal   `json:"total"`
	Warnings         []string          `json:"warnings,omitempty"`
	FailedDecrements []FailedDecrement `json:"failed_decrements,omitempty"`
	Outcome          outcome.Outcome   `json:"outcome"`
}

type Option func(*Sequencer)

func WithPublisher(p Publisher) Option {
	return func(s *Sequencer) { s.publisher = p }
}

func WithNotifier(n Notifier) Option {
	return func(s *Sequencer) { s.notifier = n }
}

type Sequencer struct {
	orders    OrderWriter
	stock     StockWriter
	cache     CacheUpdater
	publisher Publisher
	notifier  Notifier
}

func NewSequencer(orders OrderWriter, stock StockWriter, cache CacheUpdater, opts ...Option) *Sequencer {
	s := &Sequencer{orders: orders, stock: stock, cache: cache}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout commits c. The caller must hold the cart's session lock.
//
// Once validation passes the sequence runs to completion even if ctx is
// cancelled, so a dropped request cannot stop it between steps.
func (s *Sequencer) Checkout(ctx context.Context, c *cart.Cart) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Stringer("order_id", res.OrderID).Msg("checkout: panic recovered")
			res.Outcome = outcome.Store(MsgUnexpected)
			err = fmt.Errorf("checkout: unexpected panic: %v", p)
		}
		s.notify(res.Outcome)
	}()

	customer := strings.TrimSpace(c.Customer())
	switch {
	case c.IsEmpty():
		res.Outcome = outcome.Validation(MsgEmptyCart)
		return res, ErrEmptyCart
	case customer == "":
		res.Outcome = outcome.Validation(MsgBlankCustomer)
		return res, ErrBlankCustomer
	}

	ctx = context.WithoutCancel(ctx)
	lines := c.Lines()
	res.Total = c.Total()

	o := &order.Order{
		CustomerName: customer,
		TotalAmount:  res.Total,
		Status:       order.StatusPending,
	}
	orderID, err := s.orders.CreateOrder(ctx, o)
	if err != nil {
		log.Error().Err(err).Str("customer", customer).Msg("checkout: failed to create order")
		res.Outcome = outcome.Store(MsgOrderFailed, err.Error())
		return res, &StepError{Step: StepCreateOrder, Err: err}
	}
	res.OrderID = orderID
	o.ID = orderID

	items := make([]order.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, order.Item{
			OrderID:     orderID,
			ProductID:   l.ProductID,
			ProductName: l.Name,
			Price:       l.Price,
			Quantity:    l.Quantity,
		})
	}
	if err := s.orders.CreateOrderItems(ctx, orderID, items); err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("checkout: failed to create order items, order left without items")
		res.Outcome = outcome.Store(MsgItemsFailed, err.Error())
		return res, &StepError{Step: StepCreateItems, OrderID: orderID, Err: err}
	}
	o.Items = items

	remaining := s.decrementStock(ctx, orderID, lines, &res)
	if s.cache != nil {
		for id, qty := range remaining {
			s.cache.SetQuantity(id, qty)
		}
	}
	c.Clear()

	details := append([]string{}, res.Warnings...)
	for _, f := range res.FailedDecrements {
		details = append(details, fmt.Sprintf("Stock for %s was not updated", f.Name))
	}
	res.Outcome = outcome.Success(MsgCompleted, details...)

	log.Info().
		Stringer("order_id", orderID).
		Str("customer", customer).
		Str("total", res.Total.StringFixed(2)).
		Int("items", len(items)).
		Int("failed_decrements", len(res.FailedDecrements)).
		Msg("checkout: transaction completed")

	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(ctx, *o); err != nil {
			log.Warn().Err(err).Stringer("order_id", orderID).Msg("checkout: failed to publish order created event")
		}
	}

	return res, nil
}

// decrementStock issues one write per line. A failing line is recorded and
// the rest continue.
func (s *Sequencer) decrementStock(ctx context.Context, orderID uuid.UUID, lines []cart.Line, res *Result) map[uuid.UUID]int {
	remaining := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		left, err := s.stock.DecrementStock(ctx, l.ProductID, l.Quantity)
		if err != nil {
			log.Error().Err(err).
				Stringer("order_id", orderID).
				Stringer("product_id", l.ProductID).
				Int("qty", l.Quantity).
				Msg("checkout: failed to decrement stock")
			res.FailedDecrements = append(res.FailedDecrements, FailedDecrement{
				ProductID: l.ProductID,
				Name:      l.Name,
				Quantity:  l.Quantity,
				Error:     err.Error(),
			})
			continue
		}

		remaining[l.ProductID] = left
		if left <= 0 {
			log.Warn().Stringer("product_id", l.ProductID).Int("remaining", left).Msg("checkout: product needs restocking")
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s needs restocking (%d left)", l.Name, left))
		}
	}
	return remaining
}

func (s *Sequencer) notify(o outcome.Outcome) {
	if s.notifier != nil && !o.IsZero() {
		s.notifier.Broadcast(o)
	}
}
