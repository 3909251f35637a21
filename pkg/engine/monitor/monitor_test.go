package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joripage/matching-engine/pkg/engine/model"
)

type fakeChecker struct {
	mu    sync.Mutex
	calls []struct {
		symbol string
		price  decimal.Decimal
	}
}

func (c *fakeChecker) CheckStopOrders(_ context.Context, symbol string, price decimal.Decimal) ([]*model.ExecutionReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, struct {
		symbol string
		price  decimal.Decimal
	}{symbol, price})
	return nil, nil
}

func (c *fakeChecker) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func TestScanChecksOnlyDirtySymbols(t *testing.T) {
	checker := &fakeChecker{}
	m := NewStopMonitor(checker, time.Hour)

	m.ObserveTrade("ABC", decimal.NewFromInt(100))
	m.ObserveTrade("ABC", decimal.NewFromInt(101))
	m.ObserveTrade("XYZ", decimal.NewFromInt(50))

	m.scan(context.Background())
	if got := checker.callCount(); got != 2 {
		t.Fatalf("expected one check per dirty symbol, got %d", got)
	}

	// nothing new traded: the next scan is a no-op
	m.scan(context.Background())
	if got := checker.callCount(); got != 2 {
		t.Errorf("clean symbols must not be rechecked, got %d", got)
	}
}

func TestScanUsesLastPrice(t *testing.T) {
	checker := &fakeChecker{}
	m := NewStopMonitor(checker, time.Hour)

	m.ObserveTrade("ABC", decimal.NewFromInt(100))
	m.ObserveTrade("ABC", decimal.NewFromInt(97))

	m.scan(context.Background())

	checker.mu.Lock()
	defer checker.mu.Unlock()
	if len(checker.calls) != 1 {
		t.Fatalf("expected 1 check, got %d", len(checker.calls))
	}
	if !checker.calls[0].price.Equal(decimal.NewFromInt(97)) {
		t.Errorf("expected the latest price 97, got %s", checker.calls[0].price)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	checker := &fakeChecker{}
	m := NewStopMonitor(checker, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	m.ObserveTrade("ABC", decimal.NewFromInt(100))
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop on cancel")
	}

	if checker.callCount() == 0 {
		t.Error("expected at least one scheduled check")
	}
}
