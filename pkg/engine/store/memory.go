package store

import (
	"context"
	"sync"

	"github.com/joripage/matching-engine/pkg/engine/model"
)

// MemoryOrderStore keeps order state in memory. Used by tests and the
// benchmark binary.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]model.Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{
		orders: make(map[string]model.Order),
	}
}

func (s *MemoryOrderStore) Save(_ context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[order.OrderID] = *order
	return nil
}

func (s *MemoryOrderStore) FindByID(_ context.Context, orderID string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &order, nil
}

// SavedCount reports how many distinct orders have been persisted.
func (s *MemoryOrderStore) SavedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.orders)
}
