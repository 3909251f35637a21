package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/joripage/matching-engine/pkg/engine/model"
)

// ExecutionSQLStore archives execution reports. Inserts ignore conflicts on
// the execution ID so the archival worker can replay a topic safely.
type ExecutionSQLStore struct {
	db *gorm.DB
}

func NewExecutionSQLStore(db *gorm.DB) *ExecutionSQLStore {
	return &ExecutionSQLStore{
		db: db,
	}
}

func (s *ExecutionSQLStore) dbWithContext(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *ExecutionSQLStore) Create(ctx context.Context, record *model.ExecutionReport) (*model.ExecutionReport, error) {
	return record, s.dbWithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record).Error
}

func (s *ExecutionSQLStore) BulkCreate(ctx context.Context, records []*model.ExecutionReport) ([]*model.ExecutionReport, error) {
	return records, s.dbWithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(records).Error
}
