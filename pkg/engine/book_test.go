package engine

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joripage/matching-engine/pkg/engine/model"
)

func restingLimit(id string, side model.OrderSide, price, qty string) *model.Order {
	return &model.Order{
		OrderID:    id,
		Symbol:     "ABC",
		Side:       side,
		Type:       model.OrderTypeLimit,
		LimitPrice: d(price),
		Quantity:   d(qty),
		Status:     model.OrderStatusAccepted,
	}
}

func TestPriceKeyNormalizesExponent(t *testing.T) {
	a := decimal.NewFromFloat(100.0)
	b := d("100.00")

	if priceKey(a) != priceKey(b) {
		t.Errorf("equal prices must share a level key: %q vs %q", priceKey(a), priceKey(b))
	}
}

func TestBestEntryPerSide(t *testing.T) {
	ob := newOrderBook("ABC")

	ob.addEntry(restingLimit("B1", model.OrderSideBuy, "99", "1"))
	ob.addEntry(restingLimit("B2", model.OrderSideBuy, "100", "1"))
	ob.addEntry(restingLimit("S1", model.OrderSideSell, "102", "1"))
	ob.addEntry(restingLimit("S2", model.OrderSideSell, "101", "1"))

	best, ok := ob.bestEntry(model.OrderSideBuy)
	if !ok || best.order.OrderID != "B2" {
		t.Errorf("expected best bid B2, got %+v", best)
	}

	best, ok = ob.bestEntry(model.OrderSideSell)
	if !ok || best.order.OrderID != "S2" {
		t.Errorf("expected best ask S2, got %+v", best)
	}
}

func TestRemoveEntryMidLevel(t *testing.T) {
	ob := newOrderBook("ABC")

	ob.addEntry(restingLimit("S1", model.OrderSideSell, "100", "1"))
	ob.addEntry(restingLimit("S2", model.OrderSideSell, "100", "1"))
	ob.addEntry(restingLimit("S3", model.OrderSideSell, "100", "1"))

	if !ob.removeEntry("S2") {
		t.Fatal("expected removeEntry to find S2")
	}
	if ob.removeEntry("S2") {
		t.Error("second remove must report false")
	}

	// FIFO among survivors
	best, _ := ob.bestEntry(model.OrderSideSell)
	if best.order.OrderID != "S1" {
		t.Errorf("expected S1 first, got %s", best.order.OrderID)
	}
	ob.removeBest(model.OrderSideSell)
	best, _ = ob.bestEntry(model.OrderSideSell)
	if best.order.OrderID != "S3" {
		t.Errorf("expected S3 after S1, got %s", best.order.OrderID)
	}
}

func TestEmptyLevelIsSkipped(t *testing.T) {
	ob := newOrderBook("ABC")

	ob.addEntry(restingLimit("S1", model.OrderSideSell, "100", "1"))
	ob.addEntry(restingLimit("S2", model.OrderSideSell, "101", "1"))
	ob.removeEntry("S1")

	best, ok := ob.bestEntry(model.OrderSideSell)
	if !ok || best.order.OrderID != "S2" {
		t.Errorf("expected exhausted level skipped, got %+v", best)
	}
}

func TestTakeTriggeredBoundaries(t *testing.T) {
	ob := newOrderBook("ABC")

	sellStop := &model.Order{OrderID: "SS", Side: model.OrderSideSell, Type: model.OrderTypeStop, StopPrice: d("95"), Status: model.OrderStatusPendingTrigger}
	buyStop := &model.Order{OrderID: "BS", Side: model.OrderSideBuy, Type: model.OrderTypeStop, StopPrice: d("105"), Status: model.OrderStatusPendingTrigger}
	ob.addStopOrder(sellStop)
	ob.addStopOrder(buyStop)

	if got := ob.takeTriggered(d("100")); len(got) != 0 {
		t.Fatalf("expected nothing triggered between stops, got %d", len(got))
	}

	got := ob.takeTriggered(d("95"))
	if len(got) != 1 || got[0].OrderID != "SS" {
		t.Fatalf("expected sell stop at boundary, got %+v", got)
	}

	got = ob.takeTriggered(d("105"))
	if len(got) != 1 || got[0].OrderID != "BS" {
		t.Fatalf("expected buy stop at boundary, got %+v", got)
	}

	// both lists are now empty
	if got := ob.takeTriggered(d("0")); len(got) != 0 {
		t.Errorf("expected watch lists drained, got %+v", got)
	}
}
