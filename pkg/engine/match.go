package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/joripage/matching-engine/pkg/engine/model"
)

// matchMarketOrder walks the opposite side from the best price outward.
// A market order never rests: an empty opposite side rejects it outright, an
// exhausted side rejects the remainder while the executed fills stand.
func (e *MatchingEngine) matchMarketOrder(ctx context.Context, book *orderBook, order *model.Order) ([]*model.ExecutionReport, error) {
	opposite := oppositeSide(order.Side)

	if _, ok := book.bestEntry(opposite); !ok {
		order.Reject(reasonNoLiquidity)
		if err := e.store.Save(ctx, order); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		return nil, ErrNoLiquidity
	}

	reports, err := e.walkBook(ctx, book, order, nil)
	if err != nil {
		return reports, err
	}

	if remainder := order.RemainingQuantity(); remainder.GreaterThan(decimal.Zero) {
		order.Reject(fmt.Sprintf("%s for remaining quantity %s", reasonNoLiquidity, remainder))
		if err := e.store.Save(ctx, order); err != nil {
			return reports, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		return reports, ErrNoLiquidity
	}

	return reports, nil
}

// matchLimitOrder walks the opposite side while the limit price crosses the
// resting price, then rests any remainder as a new book entry. The early exit
// at the first non-crossing entry relies on each side staying price-sorted.
func (e *MatchingEngine) matchLimitOrder(ctx context.Context, book *orderBook, order *model.Order) ([]*model.ExecutionReport, error) {
	crosses := func(restingPrice decimal.Decimal) bool {
		if order.Side == model.OrderSideBuy {
			return order.LimitPrice.GreaterThanOrEqual(restingPrice)
		}
		return order.LimitPrice.LessThanOrEqual(restingPrice)
	}

	reports, err := e.walkBook(ctx, book, order, crosses)
	if err != nil {
		return reports, err
	}

	if order.RemainingQuantity().GreaterThan(decimal.Zero) {
		book.addEntry(order)
	}

	return reports, nil
}

// walkBook consumes the opposite side until the incoming order is filled,
// liquidity runs out, or the crossing predicate says stop. Fills always print
// at the resting order's price.
func (e *MatchingEngine) walkBook(ctx context.Context, book *orderBook, order *model.Order, crosses func(restingPrice decimal.Decimal) bool) ([]*model.ExecutionReport, error) {
	opposite := oppositeSide(order.Side)
	var reports []*model.ExecutionReport

	for order.RemainingQuantity().GreaterThan(decimal.Zero) {
		entry, ok := book.bestEntry(opposite)
		if !ok {
			break
		}
		if crosses != nil && !crosses(entry.price) {
			break
		}

		fillQty := decimal.Min(order.RemainingQuantity(), entry.order.RemainingQuantity())

		report, err := e.executeTrade(ctx, order, entry.order, fillQty, entry.price)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			return reports, err
		}

		if entry.order.RemainingQuantity().IsZero() {
			book.removeBest(opposite)
		}
	}

	return reports, nil
}

// fillState is the mutable slice of an order touched by ApplyFill, captured
// so a failed trade can be undone.
type fillState struct {
	executed decimal.Decimal
	avg      decimal.Decimal
	status   model.OrderStatus
	filledAt time.Time
}

func captureFillState(o *model.Order) fillState {
	return fillState{
		executed: o.ExecutedQuantity,
		avg:      o.AveragePrice,
		status:   o.Status,
		filledAt: o.FilledAt,
	}
}

func (s fillState) restore(o *model.Order) {
	o.ExecutedQuantity = s.executed
	o.AveragePrice = s.avg
	o.Status = s.status
	o.FilledAt = s.filledAt
}

// executeTrade applies one fill to both orders, persists both, and builds the
// report off the aggressor's post-trade state. A fill only stands once both
// sides are persisted; any failure rolls both orders back so the book entry
// keeps matching its order's in-memory state.
func (e *MatchingEngine) executeTrade(ctx context.Context, aggressor, resting *model.Order, qty, price decimal.Decimal) (*model.ExecutionReport, error) {
	now := time.Now()

	restingPrev := captureFillState(resting)
	aggressorPrev := captureFillState(aggressor)

	if err := resting.ApplyFill(qty, price, now); err != nil {
		return nil, err
	}
	if err := aggressor.ApplyFill(qty, price, now); err != nil {
		restingPrev.restore(resting)
		return nil, err
	}

	if err := e.store.Save(ctx, resting); err != nil {
		restingPrev.restore(resting)
		aggressorPrev.restore(aggressor)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := e.store.Save(ctx, aggressor); err != nil {
		restingPrev.restore(resting)
		aggressorPrev.restore(aggressor)
		// the resting row already carries the fill; rewrite its pre-fill state
		if undoErr := e.store.Save(ctx, resting); undoErr != nil {
			zap.S().Errorw("trade rollback save failed",
				"order_id", resting.OrderID, "err", undoErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return &model.ExecutionReport{
		ExecutionID:        uuid.NewString(),
		OrderID:            aggressor.OrderID,
		Symbol:             aggressor.Symbol,
		Side:               aggressor.Side,
		Quantity:           qty,
		Price:              price,
		AggressorOrderID:   aggressor.OrderID,
		RestingOrderID:     resting.OrderID,
		RemainingQuantity:  aggressor.RemainingQuantity(),
		CumulativeQuantity: aggressor.ExecutedQuantity,
		AveragePrice:       aggressor.AveragePrice,
		OrderStatus:        aggressor.Status,
		ExecutedAt:         now,
	}, nil
}

func oppositeSide(side model.OrderSide) model.OrderSide {
	if side == model.OrderSideBuy {
		return model.OrderSideSell
	}
	return model.OrderSideBuy
}
