// Package sqlstore implements the storage interfaces on a SQL database through gorm.
package sqlstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/chris/project-billing/pkg/storage"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store implements the Storage interface using gorm.
type Store struct {
	db *gorm.DB

	// Now returns the current time. It defaults to time.Now in UTC.
	Now func() time.Time
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// Open connects to PostgreSQL with the given DSN.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), Config())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Config is the gorm configuration the store expects. Driver errors must be
// translated so duplicate keys surface as gorm.ErrDuplicatedKey.
func Config() *gorm.Config {
	return &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	}
}

// New migrates the schema and returns a Store on db.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(
		&projectRow{},
		&contractRow{},
		&invoiceRow{},
		&walletRow{},
		&paymentMethodRow{},
		&paymentRecordRow{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{
		db:  db,
		Now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Store) now() time.Time {
	return s.Now()
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
