package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	// dirPermissions is the permission mode for a sqlite database directory
	dirPermissions = 0750

	connMaxIdleTime = 30 * time.Minute
	zeroAgeIdleTime = time.Second
)

// DB wraps the connection pool described by DATABASE_URL
type DB struct {
	*sql.DB
	desc Descriptor
}

// Open creates the connection pool for d. It does not contact the server;
// call Ping to verify connectivity.
func Open(d Descriptor) (*DB, error) {
	if d.Engine == EngineSQLite && d.Name != MemoryName {
		if err := os.MkdirAll(filepath.Dir(d.Name), dirPermissions); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open(d.DriverName(), d.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", d.Engine, err)
	}

	return Wrap(sqlDB, d), nil
}

// Wrap configures an existing pool according to d.
func Wrap(sqlDB *sql.DB, d Descriptor) *DB {
	maxConns := d.MaxConns
	if maxConns < 1 {
		maxConns = 1
	}
	sqlDB.SetMaxOpenConns(maxConns)

	switch {
	case d.Engine == EngineSQLite && d.Name == MemoryName:
		// the database lives exactly as long as its single connection
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	case d.ConnMaxAge > 0:
		sqlDB.SetMaxIdleConns(maxConns)
		sqlDB.SetConnMaxLifetime(d.ConnMaxAge)
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
	default:
		// zero age: a connection is closed shortly after the request that
		// used it goes idle, not after every statement
		sqlDB.SetMaxIdleConns(maxConns)
		sqlDB.SetConnMaxIdleTime(zeroAgeIdleTime)
	}

	return &DB{DB: sqlDB, desc: d}
}

// Descriptor returns the descriptor the pool was opened with
func (db *DB) Descriptor() Descriptor {
	return db.desc
}

// Ping verifies the database is reachable within timeout
func (db *DB) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging %s: %w", db.desc, err)
	}
	return nil
}

// HealthCheck pings the database and runs a trivial query
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}
	return nil
}

// Close closes the pool
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}
