// Package store is the sqlx/Postgres persistence layer: it implements the
// repository interfaces declared by internal/identity and
// internal/authority, plus the dynamic route, rate-limit-rule, and
// system-config tables the control API manages. Grounded on
// third_party/database/postgres.go for the connection pool and
// backend/services/gateway/internal/repository/* for query style.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/arcauth/gateway/internal/obslog"
)

// Open connects to Postgres and configures the pool the way the teacher's
// third_party/database connector does, except maxConns comes from config
// instead of a hardcoded constant.
func Open(dsn string, maxConns int) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	obslog.Info(context.Background(), "database connection established")
	return db, nil
}

// Migrate applies the gateway's schema idempotently. A real deployment
// would run this through a migration tool; for this single-binary gateway
// a single idempotent DDL pass at boot keeps the operational surface
// small, matching the spec's single-process framing.
func Migrate(db *sqlx.DB) error {
	_, err := db.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
