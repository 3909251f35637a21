package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExecutionReport is the immutable record of one matched trade, built once per
// fill and keyed off the aggressor's post-trade state.
type ExecutionReport struct {
	ExecutionID string `gorm:"primaryKey"`
	OrderID     string
	Symbol      string
	Side        OrderSide

	Quantity decimal.Decimal `gorm:"type:numeric"`
	Price    decimal.Decimal `gorm:"type:numeric"`

	AggressorOrderID string
	RestingOrderID   string

	// Aggressor post-trade state, so downstream consumers never have to
	// re-derive cumulative quantities from the fill stream.
	RemainingQuantity  decimal.Decimal `gorm:"type:numeric"`
	CumulativeQuantity decimal.Decimal `gorm:"type:numeric"`
	AveragePrice       decimal.Decimal `gorm:"type:numeric"`
	OrderStatus        OrderStatus

	ExecutedAt time.Time
}
