package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/joripage/matching-engine/pkg/engine/model"
)

// MatchingEngine owns one book and one reader/writer lock per symbol. Every
// book-mutating call holds the symbol's exclusive lock across the whole
// match -> persist -> report -> publish sequence; different symbols never
// coordinate.
type MatchingEngine struct {
	store      OrderStore
	executions ExecutionSink
	marketData MarketDataSink

	books sync.Map // symbol -> *orderBook
	locks sync.Map // symbol -> *sync.RWMutex
}

func New(store OrderStore, executions ExecutionSink, marketData MarketDataSink) *MatchingEngine {
	return &MatchingEngine{
		store:      store,
		executions: executions,
		marketData: marketData,
	}
}

// SubmitOrder validates, then matches or rests the order under its symbol's
// exclusive lock. Validation failures reject before any lock or persistence.
// Executed partial fills stand even when the remainder is rejected; the
// returned reports are always delivered alongside any error.
func (e *MatchingEngine) SubmitOrder(ctx context.Context, order *model.Order) ([]*model.ExecutionReport, error) {
	if err := validateOrder(order); err != nil {
		order.Reject(err.Error())
		return nil, err
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	mu := e.lockFor(order.Symbol)
	mu.Lock()
	defer mu.Unlock()

	book := e.getOrCreateBook(order.Symbol)
	reports, err := e.dispatchLocked(ctx, book, order)

	e.emitReports(ctx, reports)
	if bookChanged(book, reports, order) {
		e.publishSnapshot(ctx, book)
	}

	return reports, err
}

// bookChanged reports whether a dispatch actually touched the book levels: at
// least one fill printed, or the order now rests on a side. A rejected market
// order on an empty book, or a stop going onto the watch list, changes nothing
// that a snapshot would show.
func bookChanged(book *orderBook, reports []*model.ExecutionReport, orders ...*model.Order) bool {
	if len(reports) > 0 {
		return true
	}
	for _, order := range orders {
		if _, resting := book.restingOrder(order.OrderID); resting {
			return true
		}
	}
	return false
}

// dispatchLocked runs one order through the book. Caller holds the symbol's
// exclusive lock. Only a fresh order (zero-value status) or a triggered stop
// (PENDING_TRIGGER) may enter; anything else already went through the book
// once and must not be re-initialized. A storage failure before any fill
// restores the entry state so the caller can safely resubmit the same order.
func (e *MatchingEngine) dispatchLocked(ctx context.Context, book *orderBook, order *model.Order) ([]*model.ExecutionReport, error) {
	entryStatus := order.Status
	entryReason := order.RejectReason

	switch order.Status {
	case model.OrderStatusPendingTrigger:
		// triggered stop re-entering as MARKET/LIMIT
		if err := order.TransitionTo(model.OrderStatusAccepted); err != nil {
			return nil, err
		}
	case model.OrderStatus(""):
		switch order.Type {
		case model.OrderTypeStop, model.OrderTypeStopLimit:
			order.Status = model.OrderStatusPendingTrigger
		default:
			order.Status = model.OrderStatusAccepted
		}
	default:
		return nil, fmt.Errorf("%w: order %s already in state %s", ErrInvalidOrder, order.OrderID, order.Status)
	}

	if err := e.store.Save(ctx, order); err != nil {
		order.Status = entryStatus
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	var reports []*model.ExecutionReport
	var err error
	switch order.Type {
	case model.OrderTypeMarket:
		reports, err = e.matchMarketOrder(ctx, book, order)
	case model.OrderTypeLimit:
		reports, err = e.matchLimitOrder(ctx, book, order)
	case model.OrderTypeStop:
		book.addStopOrder(order)
	case model.OrderTypeStopLimit:
		book.addStopLimitOrder(order)
	}

	if err != nil && len(reports) == 0 && errors.Is(err, ErrStorage) {
		order.Status = entryStatus
		order.RejectReason = entryReason
	}
	return reports, err
}

// CancelOrder removes a resting or watched order under the exclusive lock.
// Returns false when the order is unknown, already terminal, or never rested.
// The CANCELLED state is persisted before the book entry is dropped.
func (e *MatchingEngine) CancelOrder(ctx context.Context, orderID, symbol string) (bool, error) {
	mu := e.lockFor(symbol)
	mu.Lock()
	defer mu.Unlock()

	book := e.getOrCreateBook(symbol)

	order, resting := book.restingOrder(orderID)
	if !resting {
		var watched bool
		order, watched = book.watchedOrder(orderID)
		if !watched {
			return false, nil
		}
	}

	prevStatus := order.Status
	if err := order.TransitionTo(model.OrderStatusCancelled); err != nil {
		return false, err
	}
	order.CancelledAt = time.Now()

	if err := e.store.Save(ctx, order); err != nil {
		// the order stays live: a half-cancelled entry must keep filling
		order.Status = prevStatus
		order.CancelledAt = time.Time{}
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if resting {
		book.removeEntry(orderID)
		e.publishSnapshot(ctx, book)
	} else {
		book.removeWatchedOrder(orderID)
	}

	return true, nil
}

// CheckStopOrders triggers every watched order whose stop condition is met by
// price, converting STOP to MARKET and STOP_LIMIT to LIMIT and running each
// through the locked submission path. Triggered orders leave the watch list
// exactly once.
func (e *MatchingEngine) CheckStopOrders(ctx context.Context, symbol string, price decimal.Decimal) ([]*model.ExecutionReport, error) {
	mu := e.lockFor(symbol)
	mu.Lock()
	defer mu.Unlock()

	book := e.getOrCreateBook(symbol)
	triggered := book.takeTriggered(price)

	var all []*model.ExecutionReport
	var firstErr error
	for _, order := range triggered {
		if order.Type == model.OrderTypeStop {
			order.Type = model.OrderTypeMarket
		} else {
			order.Type = model.OrderTypeLimit
		}

		reports, err := e.dispatchLocked(ctx, book, order)
		all = append(all, reports...)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	e.emitReports(ctx, all)
	if bookChanged(book, all, triggered...) {
		e.publishSnapshot(ctx, book)
	}

	return all, firstErr
}

// GetOrderBook returns an immutable aggregated view of the book under the
// symbol's shared lock.
func (e *MatchingEngine) GetOrderBook(symbol string) *Snapshot {
	mu := e.lockFor(symbol)
	mu.RLock()
	defer mu.RUnlock()

	return e.getOrCreateBook(symbol).snapshot()
}

// FindOrder looks an order up through the persistence port.
func (e *MatchingEngine) FindOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return e.store.FindByID(ctx, orderID)
}

func (e *MatchingEngine) lockFor(symbol string) *sync.RWMutex {
	if mu, ok := e.locks.Load(symbol); ok {
		return mu.(*sync.RWMutex)
	}
	mu, _ := e.locks.LoadOrStore(symbol, &sync.RWMutex{})
	return mu.(*sync.RWMutex)
}

func (e *MatchingEngine) getOrCreateBook(symbol string) *orderBook {
	if book, ok := e.books.Load(symbol); ok {
		return book.(*orderBook)
	}
	book, _ := e.books.LoadOrStore(symbol, newOrderBook(symbol))
	return book.(*orderBook)
}

// emitReports forwards each report once. Sink failures are logged and never
// roll back the committed match.
func (e *MatchingEngine) emitReports(ctx context.Context, reports []*model.ExecutionReport) {
	for _, report := range reports {
		if err := e.executions.Report(ctx, report); err != nil {
			zap.S().Errorw("execution report delivery failed",
				"execution_id", report.ExecutionID,
				"order_id", report.OrderID,
				"err", err)
		}
	}
}

func (e *MatchingEngine) publishSnapshot(ctx context.Context, book *orderBook) {
	if err := e.marketData.Publish(ctx, book.snapshot()); err != nil {
		zap.S().Errorw("market data publish failed", "symbol", book.symbol, "err", err)
	}
}

func validateOrder(order *model.Order) error {
	if order.Side != model.OrderSideBuy && order.Side != model.OrderSideSell {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, order.Side)
	}
	switch order.Type {
	case model.OrderTypeMarket, model.OrderTypeLimit, model.OrderTypeStop, model.OrderTypeStopLimit:
	default:
		return fmt.Errorf("%w: unknown order type %q", ErrInvalidOrder, order.Type)
	}
	if !order.Quantity.GreaterThan(decimal.Zero) {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}
	switch order.Type {
	case model.OrderTypeLimit, model.OrderTypeStopLimit:
		if !order.LimitPrice.GreaterThan(decimal.Zero) {
			return fmt.Errorf("%w: %s order requires a limit price", ErrInvalidOrder, order.Type)
		}
	}
	switch order.Type {
	case model.OrderTypeStop, model.OrderTypeStopLimit:
		if !order.StopPrice.GreaterThan(decimal.Zero) {
			return fmt.Errorf("%w: %s order requires a stop price", ErrInvalidOrder, order.Type)
		}
	}
	return nil
}
