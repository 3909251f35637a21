package infra

import (
	"sync"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	postgres_wrapper "github.com/joripage/matching-engine/pkg/infra/postgres"
	"gorm.io/gorm"
)

// IMigrateTool applies schema migrations.
type IMigrateTool interface {
	// CreateDBAndMigrate connects with backoff and migrates, for tests and
	// local bring-up.
	CreateDBAndMigrate(cfg *postgres_wrapper.PostgresConfig, migrationSource string) (*gorm.DB, error)

	// Migrate runs all pending migrations against connStr.
	Migrate(source string, connStr string) error
}

type migrateTool struct{}

var once sync.Once        // nolint
var mutex = &sync.Mutex{} // nolint
var singleton IMigrateTool

// GetMigrateTool returns the singleton migrate tool.
func GetMigrateTool() IMigrateTool {
	once.Do(func() {
		singleton = &migrateTool{}
	})
	return singleton
}

// Migrate executes migrations serially.
func (mt *migrateTool) Migrate(source string, connStr string) error {
	mutex.Lock()
	defer mutex.Unlock()

	zap.S().Info("migrating...")

	mg, err := migrate.New(source, connStr)
	if err != nil {
		zap.S().Errorf("create migration fail: %v", err)
		return err
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return err
	}

	if dirty {
		mg.Force(int(version) - 1) // nolint
	}

	if err := mg.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	zap.S().Info("migration done")
	return nil
}

// CreateDBAndMigrate connects to postgres with backoff and applies migrations.
func (mt *migrateTool) CreateDBAndMigrate(cfg *postgres_wrapper.PostgresConfig, migrationSource string) (*gorm.DB, error) {
	db, err := postgres_wrapper.InitPostgresWithBackoff(cfg)
	if err != nil {
		return nil, err
	}

	if err := mt.Migrate(migrationSource, cfg.MigrationConnURL); err != nil {
		return nil, err
	}
	return db, nil
}
