package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joripage/matching-engine/pkg/engine/model"
)

// PriceLevel aggregates the resting quantity at one price.
type PriceLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Orders   int             `json:"orders"`
}

// Snapshot is an immutable view of one symbol's book, bids best first and
// asks best first.
type Snapshot struct {
	Symbol     string       `json:"symbol"`
	Bids       []PriceLevel `json:"bids"`
	Asks       []PriceLevel `json:"asks"`
	CapturedAt time.Time    `json:"captured_at"`
}

func (s *Snapshot) BestBid() (PriceLevel, bool) {
	if len(s.Bids) == 0 {
		return PriceLevel{}, false
	}
	return s.Bids[0], true
}

func (s *Snapshot) BestAsk() (PriceLevel, bool) {
	if len(s.Asks) == 0 {
		return PriceLevel{}, false
	}
	return s.Asks[0], true
}

func (ob *orderBook) snapshot() *Snapshot {
	return &Snapshot{
		Symbol:     ob.symbol,
		Bids:       ob.sideLevels(model.OrderSideBuy),
		Asks:       ob.sideLevels(model.OrderSideSell),
		CapturedAt: time.Now(),
	}
}

func (ob *orderBook) sideLevels(side model.OrderSide) []PriceLevel {
	levels, _ := ob.sideOf(side)

	out := make([]PriceLevel, 0, len(levels))
	for _, q := range levels {
		if q.Len() == 0 {
			continue
		}
		level := PriceLevel{Price: q.Front().price}
		for i := 0; i < q.Len(); i++ {
			level.Quantity = level.Quantity.Add(q.At(i).order.RemainingQuantity())
			level.Orders++
		}
		out = append(out, level)
	}

	sort.Slice(out, func(i, j int) bool {
		if side == model.OrderSideBuy {
			return out[i].Price.GreaterThan(out[j].Price)
		}
		return out[i].Price.LessThan(out[j].Price)
	})
	return out
}
