// Package gormstore stores values in a SQL table through gorm. The sqlite
// driver is used for local, file-backed storage.
package gormstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// record is a single stored key.
type record struct {
	Key       string `gorm:"column:kv_key;primaryKey;size:255"`
	Value     []byte
	UpdatedAt time.Time
}

func (record) TableName() string {
	return "user_service_kv"
}

type Storage struct {
	db     *gorm.DB
	prefix string
}

// OpenSQLite opens (or creates) the sqlite database at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %v: %w", path, err)
	}
	return db, nil
}

// New creates the key-value table if it doesn't exist.
func New(db *gorm.DB, prefix string) (*Storage, error) {
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate key-value table: %w", err)
	}
	return &Storage{db: db, prefix: prefix}, nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	rec := &record{}
	tx := s.db.WithContext(ctx).Where("kv_key = ?", s.prefix+key).Limit(1).Find(rec)
	if tx.Error != nil {
		return nil, false, fmt.Errorf("failed to get key from database: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, false, nil
	}

	return rec.Value, true, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	rec := &record{Key: s.prefix + key, Value: value}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(rec)
	if tx.Error != nil {
		return fmt.Errorf("failed to store key in database: %w", tx.Error)
	}
	return nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	tx := s.db.WithContext(ctx).Delete(&record{}, "kv_key = ?", s.prefix+key)
	if tx.Error != nil {
		return fmt.Errorf("failed to delete key from database: %w", tx.Error)
	}
	return nil
}

func (s *Storage) Clear(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Where("kv_key LIKE ?", s.prefix+"%").Delete(&record{})
	if tx.Error != nil {
		return fmt.Errorf("failed to clear keys in database: %w", tx.Error)
	}
	return nil
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
