package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/joripage/matching-engine/pkg/engine/model"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderSQLStore is the Postgres adapter for the engine's order persistence
// port. Save upserts on the order ID, so repeated saves of the same mutated
// state are idempotent.
type OrderSQLStore struct {
	db *gorm.DB
}

func NewOrderSQLStore(db *gorm.DB) *OrderSQLStore {
	return &OrderSQLStore{
		db: db,
	}
}

func (s *OrderSQLStore) dbWithContext(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *OrderSQLStore) Save(ctx context.Context, order *model.Order) error {
	return s.dbWithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			UpdateAll: true,
		}).
		Create(order).Error
}

func (s *OrderSQLStore) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := s.dbWithContext(ctx).First(&order, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
