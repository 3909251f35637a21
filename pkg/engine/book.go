package engine

import (
	"container/heap"
	"time"

	"github.com/gammazero/deque"
	"github.com/shopspring/decimal"

	"github.com/joripage/matching-engine/pkg/engine/model"
)

// bookEntry marks a resting order's position inside one side of the book.
// It is owned by the side that holds it and removed when the order fills or
// is cancelled.
type bookEntry struct {
	order     *model.Order
	side      model.OrderSide
	price     decimal.Decimal
	quantity  decimal.Decimal // quantity at insertion
	timestamp time.Time
}

// orderBook keeps both sides of one symbol plus the stop/stop-limit watch
// lists. Bids are price descending, asks ascending, FIFO inside a level.
// An order lives in at most one of: a side, a watch list.
type orderBook struct {
	symbol string

	bids map[string]*deque.Deque[*bookEntry]
	asks map[string]*deque.Deque[*bookEntry]

	bidHeap *priceHeap
	askHeap *priceHeap

	entries map[string]*bookEntry // resting orders by ID

	stopOrders      map[string]*model.Order
	stopLimitOrders map[string]*model.Order
}

func newOrderBook(symbol string) *orderBook {
	bidHeap := newPriceHeap(func(a, b decimal.Decimal) bool { return a.GreaterThan(b) }) // max-heap
	askHeap := newPriceHeap(func(a, b decimal.Decimal) bool { return a.LessThan(b) })    // min-heap

	return &orderBook{
		symbol:          symbol,
		bids:            make(map[string]*deque.Deque[*bookEntry]),
		asks:            make(map[string]*deque.Deque[*bookEntry]),
		bidHeap:         bidHeap,
		askHeap:         askHeap,
		entries:         make(map[string]*bookEntry),
		stopOrders:      make(map[string]*model.Order),
		stopLimitOrders: make(map[string]*model.Order),
	}
}

func (ob *orderBook) sideOf(side model.OrderSide) (map[string]*deque.Deque[*bookEntry], *priceHeap) {
	if side == model.OrderSideBuy {
		return ob.bids, ob.bidHeap
	}
	return ob.asks, ob.askHeap
}

// addEntry rests an order on its side, keeping FIFO order inside the level.
func (ob *orderBook) addEntry(order *model.Order) *bookEntry {
	entry := &bookEntry{
		order:     order,
		side:      order.Side,
		price:     order.LimitPrice,
		quantity:  order.RemainingQuantity(),
		timestamp: time.Now(),
	}

	levels, priceHeap := ob.sideOf(order.Side)
	key := priceKey(entry.price)
	if levels[key] == nil {
		levels[key] = &deque.Deque[*bookEntry]{}
		heap.Push(priceHeap, entry.price)
	}
	levels[key].PushBack(entry)
	ob.entries[order.OrderID] = entry

	return entry
}

// bestEntry returns the highest-priority resting entry of a side, discarding
// exhausted price levels on the way.
func (ob *orderBook) bestEntry(side model.OrderSide) (*bookEntry, bool) {
	levels, priceHeap := ob.sideOf(side)

	for {
		bestPrice, ok := priceHeap.Peek()
		if !ok {
			return nil, false
		}

		q := levels[priceKey(bestPrice)]
		if q == nil || q.Len() == 0 {
			heap.Pop(priceHeap)
			delete(levels, priceKey(bestPrice))
			continue
		}

		return q.Front(), true
	}
}

// removeBest drops the current best entry of a side after a full fill.
func (ob *orderBook) removeBest(side model.OrderSide) {
	levels, priceHeap := ob.sideOf(side)

	bestPrice, ok := priceHeap.Peek()
	if !ok {
		return
	}
	q := levels[priceKey(bestPrice)]
	if q == nil || q.Len() == 0 {
		return
	}

	entry := q.PopFront()
	delete(ob.entries, entry.order.OrderID)
}

// removeEntry pulls a resting order out of its side, wherever it sits in the
// level queue. Reports false when the order is not resting.
func (ob *orderBook) removeEntry(orderID string) bool {
	entry, ok := ob.entries[orderID]
	if !ok {
		return false
	}

	levels, _ := ob.sideOf(entry.side)
	q := levels[priceKey(entry.price)]
	if q != nil {
		if i := q.Index(func(e *bookEntry) bool { return e.order.OrderID == orderID }); i >= 0 {
			q.Remove(i)
		}
	}
	delete(ob.entries, orderID)
	return true
}

func (ob *orderBook) restingOrder(orderID string) (*model.Order, bool) {
	if entry, ok := ob.entries[orderID]; ok {
		return entry.order, true
	}
	return nil, false
}

func (ob *orderBook) addStopOrder(order *model.Order) {
	ob.stopOrders[order.OrderID] = order
}

func (ob *orderBook) addStopLimitOrder(order *model.Order) {
	ob.stopLimitOrders[order.OrderID] = order
}

// watchedOrder finds an order on either watch list.
func (ob *orderBook) watchedOrder(orderID string) (*model.Order, bool) {
	if o, ok := ob.stopOrders[orderID]; ok {
		return o, true
	}
	if o, ok := ob.stopLimitOrders[orderID]; ok {
		return o, true
	}
	return nil, false
}

func (ob *orderBook) removeWatchedOrder(orderID string) bool {
	if _, ok := ob.stopOrders[orderID]; ok {
		delete(ob.stopOrders, orderID)
		return true
	}
	if _, ok := ob.stopLimitOrders[orderID]; ok {
		delete(ob.stopLimitOrders, orderID)
		return true
	}
	return false
}

// takeTriggered removes and returns every watched order whose stop condition
// is met by price. A SELL stop triggers when price falls to or through the
// stop price, a BUY stop when it rises to or through it.
func (ob *orderBook) takeTriggered(price decimal.Decimal) []*model.Order {
	var triggered []*model.Order

	take := func(list map[string]*model.Order) {
		for id, o := range list {
			if stopTriggered(o, price) {
				triggered = append(triggered, o)
				delete(list, id)
			}
		}
	}
	take(ob.stopOrders)
	take(ob.stopLimitOrders)

	return triggered
}

func stopTriggered(o *model.Order, price decimal.Decimal) bool {
	if o.Side == model.OrderSideSell {
		return price.LessThanOrEqual(o.StopPrice)
	}
	return price.GreaterThanOrEqual(o.StopPrice)
}
