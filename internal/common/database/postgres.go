// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"loanflow-workers/internal/common/config"

	_ "github.com/lib/pq"
)

// Connection pool fallbacks when the config leaves the knobs at zero.
const (
	defaultMaxOpenConns = 10
	defaultMaxIdleConns = 5
)

// schemaStatements provision the evaluation tables. Applications are the
// root; documents and decisions hang off them and disappear with them.
// Every statement is idempotent so EnsureSchema can run on each startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS applications (
		application_id    TEXT PRIMARY KEY,
		full_name         TEXT NOT NULL DEFAULT '',
		age               INTEGER NOT NULL DEFAULT 0,
		address           TEXT NOT NULL DEFAULT '',
		region            TEXT NOT NULL DEFAULT '',
		employment_status TEXT NOT NULL DEFAULT '',
		net_income        DOUBLE PRECISION,
		obligations_ratio DOUBLE PRECISION,
		dependents        INTEGER NOT NULL DEFAULT 0,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id             TEXT PRIMARY KEY,
		application_id TEXT NOT NULL REFERENCES applications(application_id) ON DELETE CASCADE,
		filename       TEXT NOT NULL,
		content_type   TEXT NOT NULL DEFAULT 'application/octet-stream',
		size_bytes     BIGINT NOT NULL DEFAULT 0,
		extracted_text TEXT,
		preview        TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS decisions (
		id             TEXT PRIMARY KEY,
		application_id TEXT NOT NULL REFERENCES applications(application_id) ON DELETE CASCADE,
		status         TEXT NOT NULL,
		label          TEXT NOT NULL,
		probability    DOUBLE PRECISION NOT NULL DEFAULT 0,
		rationale      TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_application
		ON documents (application_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_decisions_application
		ON decisions (application_id, created_at DESC)`,
}

// PostgresClient carries the shared connection pool. The raw *sql.DB is
// exported because the store layer and the reporting queries run directly
// against it.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a pool against the configured database. sql.Open does
// not dial, so reachability is checked by the caller via Ping.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	maxOpen := cfg.MaxConnections
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := cfg.MaxIdle
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConns
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping verifies the pool can reach the server.
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// EnsureSchema creates the evaluation tables and their indexes when they
// do not exist yet. Local stacks and the e2e suite rely on this; managed
// environments that provision the schema out of band just see no-ops.
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Close drains the pool.
func (c *PostgresClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
