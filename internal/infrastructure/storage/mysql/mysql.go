// Package mysql stores values in a MySQL table.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

type Storage struct {
	db     *sql.DB
	prefix string
}

// Open parses dsn and opens a connection pool with the mysql driver.
func Open(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create mysql connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// New creates the key-value table if it doesn't exist.
func New(ctx context.Context, db *sql.DB, prefix string) (*Storage, error) {
	if err := createTable(ctx, db); err != nil {
		return nil, err
	}
	return &Storage{db: db, prefix: prefix}, nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	stmt := "SELECT data FROM user_service_kv WHERE kv_key = ?"
	row := s.db.QueryRowContext(ctx, stmt, s.prefix+key)

	var data []byte
	err := row.Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get key from mysql: %w", err)
	}
	return data, true, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	stmt := "INSERT INTO user_service_kv(kv_key, data, updated_at) VALUES (?, ?, UTC_TIMESTAMP(6)) ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = VALUES(updated_at)"
	if _, err := s.db.ExecContext(ctx, stmt, s.prefix+key, value); err != nil {
		return fmt.Errorf("failed to store key in mysql: %w", err)
	}
	return nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	stmt := "DELETE FROM user_service_kv WHERE kv_key = ?"
	if _, err := s.db.ExecContext(ctx, stmt, s.prefix+key); err != nil {
		return fmt.Errorf("failed to delete key from mysql: %w", err)
	}
	return nil
}

func (s *Storage) Clear(ctx context.Context) error {
	stmt := "DELETE FROM user_service_kv WHERE kv_key LIKE ?"
	if _, err := s.db.ExecContext(ctx, stmt, s.prefix+"%"); err != nil {
		return fmt.Errorf("failed to clear keys in mysql: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func createTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS user_service_kv (
			kv_key VARCHAR(255) COLLATE utf8mb4_bin PRIMARY KEY,
			data BLOB,
			updated_at TIMESTAMP(6) NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}
