package engine

import (
	"context"

	"github.com/joripage/matching-engine/pkg/engine/model"
)

// OrderStore persists every order mutation. Save must be idempotent on
// repeated saves of the same state; it is called inside the symbol lock.
type OrderStore interface {
	Save(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
}

// ExecutionSink receives every execution report exactly once per trade.
// Delivery is best-effort: a failure is logged, never rolled back.
type ExecutionSink interface {
	Report(ctx context.Context, report *model.ExecutionReport) error
}

// MarketDataSink receives one book snapshot per call that changed the book.
type MarketDataSink interface {
	Publish(ctx context.Context, snapshot *Snapshot) error
}
