package sink

import (
	"context"
	"sync"

	"github.com/joripage/matching-engine/pkg/engine"
	"github.com/joripage/matching-engine/pkg/engine/model"
)

// MemoryExecutionSink collects reports in memory. Used by tests and the
// benchmark binary.
type MemoryExecutionSink struct {
	mu      sync.Mutex
	reports []*model.ExecutionReport
}

func NewMemoryExecutionSink() *MemoryExecutionSink {
	return &MemoryExecutionSink{}
}

func (s *MemoryExecutionSink) Report(_ context.Context, report *model.ExecutionReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = append(s.reports, report)
	return nil
}

func (s *MemoryExecutionSink) Reports() []*model.ExecutionReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.ExecutionReport, len(s.reports))
	copy(out, s.reports)
	return out
}

// NopMarketDataSink discards snapshots.
type NopMarketDataSink struct{}

func (NopMarketDataSink) Publish(context.Context, *engine.Snapshot) error {
	return nil
}

// MemoryMarketDataSink keeps the last published snapshot per symbol.
type MemoryMarketDataSink struct {
	mu        sync.Mutex
	published int
	latest    map[string]*engine.Snapshot
}

func NewMemoryMarketDataSink() *MemoryMarketDataSink {
	return &MemoryMarketDataSink{
		latest: make(map[string]*engine.Snapshot),
	}
}

func (s *MemoryMarketDataSink) Publish(_ context.Context, snapshot *engine.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.published++
	s.latest[snapshot.Symbol] = snapshot
	return nil
}

func (s *MemoryMarketDataSink) Published() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.published
}

func (s *MemoryMarketDataSink) Latest(symbol string) *engine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.latest[symbol]
}
