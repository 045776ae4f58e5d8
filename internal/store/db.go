package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// FileName is the ledger and domain cache database inside the data dir.
const FileName = "outreach.db"

// DB holds the lead ledger and the company domain cache.
type DB struct {
	Pool *sql.DB
	Path string
}

func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// Open opens (creating it and its directory if needed) the sqlite file at
// path and migrates it.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	pool.SetMaxOpenConns(1) // sqlite typically wants 1 writer
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	if err := Migrate(pool); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}

	return &DB{Pool: pool, Path: path}, nil
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}
