// Package monitor drives stop-order triggering from observed trade prices.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/joripage/matching-engine/pkg/engine/model"
)

// StopChecker is the slice of the engine the monitor needs.
type StopChecker interface {
	CheckStopOrders(ctx context.Context, symbol string, price decimal.Decimal) ([]*model.ExecutionReport, error)
}

// StopMonitor tracks the last trade price per symbol and periodically runs
// the engine's stop-order check against it.
type StopMonitor struct {
	engine   StopChecker
	interval time.Duration

	mu        sync.Mutex
	lastPrice map[string]decimal.Decimal
	dirty     map[string]bool
}

func NewStopMonitor(engine StopChecker, interval time.Duration) *StopMonitor {
	return &StopMonitor{
		engine:    engine,
		interval:  interval,
		lastPrice: make(map[string]decimal.Decimal),
		dirty:     make(map[string]bool),
	}
}

// ObserveTrade records a trade price. Feed it from the execution stream.
func (m *StopMonitor) ObserveTrade(symbol string, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastPrice[symbol] = price
	m.dirty[symbol] = true
}

// Run scans until the context ends. Only symbols with a fresh price since the
// previous scan are checked.
func (m *StopMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.scan(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *StopMonitor) scan(ctx context.Context) {
	m.mu.Lock()
	pending := make(map[string]decimal.Decimal, len(m.dirty))
	for symbol := range m.dirty {
		pending[symbol] = m.lastPrice[symbol]
	}
	m.dirty = make(map[string]bool)
	m.mu.Unlock()

	for symbol, price := range pending {
		if _, err := m.engine.CheckStopOrders(ctx, symbol, price); err != nil {
			zap.S().Errorw("stop order check failed", "symbol", symbol, "err", err)
		}
	}
}
