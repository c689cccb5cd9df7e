// Package relational provides DuckDB-backed persistence for consultation
// history: every interaction check is recorded with its verdict and ranked
// findings so past consultations can be replayed, listed, and charted.
package relational

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb" // Register DuckDB driver
)

// =============================================================================
// DATABASE CLIENT
// =============================================================================

// Client defines the contract for database connections.
type Client interface {
	// DB returns the underlying sql.DB instance.
	DB() *sql.DB
	// Close releases database resources.
	Close() error
	// Configure sets database-specific options.
	Configure(cfg DatabaseConfig) error
	// Ping verifies database connectivity.
	Ping(ctx context.Context) error
}

// DatabaseConfig holds configuration options for the database.
type DatabaseConfig struct {
	Threads       int           // Number of threads for DuckDB (0 = default)
	MemoryLimitGB int           // Memory limit in GB (0 = default)
	Timeout       time.Duration // Connect timeout (0 = no timeout)
}

// DuckDB manages the physical connection to a DuckDB database.
type DuckDB struct {
	db     *sql.DB
	config DatabaseConfig
}

// Option configures the DuckDB client.
type Option func(*DuckDB)

// WithThreads sets the number of DuckDB threads.
func WithThreads(n int) Option {
	return func(c *DuckDB) {
		c.config.Threads = n
	}
}

// WithMemoryLimit sets the DuckDB memory limit in GB.
func WithMemoryLimit(gb int) Option {
	return func(c *DuckDB) {
		c.config.MemoryLimitGB = gb
	}
}

// WithTimeout sets the connect timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *DuckDB) {
		c.config.Timeout = d
	}
}

// Open creates a DuckDB client. An empty dsn opens an in-memory database.
// DSN examples:
//   - "" or ":memory:" for in-memory database
//   - "/path/to/history.db" for file-based database
//   - "/path/to/history.db?access_mode=READ_WRITE" with options
func Open(dsn string, opts ...Option) (*DuckDB, error) {
	client := &DuckDB{}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	ctx := context.Background()
	if client.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, client.config.Timeout)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	// DuckDB is embedded; serial access is safer for writes
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	client.db = db

	if err := client.Configure(client.config); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure duckdb: %w", err)
	}

	return client, nil
}

// OpenMemory creates an in-memory DuckDB database.
func OpenMemory(opts ...Option) (*DuckDB, error) {
	return Open(":memory:", opts...)
}

// DB returns the underlying sql.DB instance.
func (c *DuckDB) DB() *sql.DB {
	return c.db
}

// Close releases database resources.
func (c *DuckDB) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Configure applies database configuration options.
func (c *DuckDB) Configure(cfg DatabaseConfig) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}

	if cfg.Threads > 0 {
		if _, err := c.db.Exec(fmt.Sprintf("PRAGMA threads=%d", cfg.Threads)); err != nil {
			return fmt.Errorf("setting threads: %w", err)
		}
	}

	if cfg.MemoryLimitGB > 0 {
		if _, err := c.db.Exec(fmt.Sprintf("PRAGMA memory_limit='%dGB'", cfg.MemoryLimitGB)); err != nil {
			return fmt.Errorf("setting memory limit: %w", err)
		}
	}

	c.config = cfg
	return nil
}

// Ping verifies database connectivity.
func (c *DuckDB) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return c.db.PingContext(ctx)
}
