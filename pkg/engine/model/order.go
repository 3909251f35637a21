package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderType string

const (
	OrderTypeMarket    OrderType = "MARKET"
	OrderTypeLimit     OrderType = "LIMIT"
	OrderTypeStop      OrderType = "STOP"
	OrderTypeStopLimit OrderType = "STOP_LIMIT"
)

type OrderStatus string

const (
	OrderStatusPendingTrigger  OrderStatus = "PENDING_TRIGGER"
	OrderStatusAccepted        OrderStatus = "ACCEPTED"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
)

// allowedTransitions is the full lifecycle state machine. A rejection is only
// reachable from a non-terminal state, everything else must follow the chain.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingTrigger:  {OrderStatusAccepted, OrderStatusCancelled, OrderStatusRejected},
	OrderStatusAccepted:        {OrderStatusPartiallyFilled, OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected},
	OrderStatusPartiallyFilled: {OrderStatusPartiallyFilled, OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected},
}

type Order struct {
	OrderID       string `gorm:"primaryKey"`
	ParentOrderID string
	Symbol        string
	Side          OrderSide
	Type          OrderType

	Quantity   decimal.Decimal `gorm:"type:numeric"`
	LimitPrice decimal.Decimal `gorm:"type:numeric"`
	StopPrice  decimal.Decimal `gorm:"type:numeric"`

	ExecutedQuantity decimal.Decimal `gorm:"type:numeric"`
	AveragePrice     decimal.Decimal `gorm:"type:numeric"`

	Status       OrderStatus
	RejectReason string

	CreatedAt   time.Time
	FilledAt    time.Time
	CancelledAt time.Time
}

func (o *Order) RemainingQuantity() decimal.Decimal {
	return o.Quantity.Sub(o.ExecutedQuantity)
}

func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	}
	return false
}

func (o *Order) CanCancel() bool {
	return !o.IsTerminal()
}

// TransitionTo moves the order to the next status, rejecting anything the
// lifecycle state machine does not allow. Terminal statuses are immutable.
func (o *Order) TransitionTo(next OrderStatus) error {
	for _, s := range allowedTransitions[o.Status] {
		if s == next {
			o.Status = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, next)
}

// ApplyFill records one fill against the order: executed quantity grows by qty,
// the average price stays quantity-weighted over all fills, and the status moves
// to PARTIALLY_FILLED or FILLED.
func (o *Order) ApplyFill(qty, price decimal.Decimal, at time.Time) error {
	newExecuted := o.ExecutedQuantity.Add(qty)
	if newExecuted.GreaterThan(o.Quantity) {
		return fmt.Errorf("%w: fill %s exceeds remaining %s", ErrOverfill, qty, o.RemainingQuantity())
	}

	if o.ExecutedQuantity.IsZero() {
		o.AveragePrice = price
	} else {
		notional := o.AveragePrice.Mul(o.ExecutedQuantity).Add(price.Mul(qty))
		o.AveragePrice = notional.Div(newExecuted)
	}
	o.ExecutedQuantity = newExecuted

	next := OrderStatusPartiallyFilled
	if o.RemainingQuantity().IsZero() {
		next = OrderStatusFilled
		o.FilledAt = at
	}
	return o.TransitionTo(next)
}

// Reject marks the order terminally rejected with a caller-visible reason.
// Unlike TransitionTo it is also valid on a freshly built order that never
// entered the book.
func (o *Order) Reject(reason string) {
	if o.IsTerminal() {
		return
	}
	o.Status = OrderStatusRejected
	o.RejectReason = reason
}
