package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/contract-extractor/internal/common"
)

// DB is the ledger connection. SQLite is the default; a postgres:// or
// postgresql:// DSN selects PostgreSQL through a pgx pool.
type DB struct {
	*sqlx.DB
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects and migrates the ledger schema.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: ledger dsn is required", common.ErrInvalidInput)
	}

	var db *DB
	if isPostgres(dsn) {
		logger.Info("ledger.connect", "driver", "pgx")
		pc, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("%w: parse ledger dsn: %v", common.ErrDatabase, err)
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "contract-extractor"
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pool, err := pgxpool.NewWithConfig(dialCtx, pc)
		if err != nil {
			return nil, fmt.Errorf("%w: connect ledger: %v", common.ErrDatabase, err)
		}
		db = &DB{DB: sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"), pool: pool, logger: logger}
	} else {
		path := strings.TrimPrefix(dsn, "sqlite://")
		logger.Info("ledger.connect", "driver", "sqlite", "path", path)
		sdb, err := sqlx.Open("sqlite", path)
		if err != nil {
			return nil, fmt.Errorf("%w: open sqlite: %v", common.ErrDatabase, err)
		}
		// single writer; also keeps :memory: on one connection
		sdb.SetMaxOpenConns(1)
		db = &DB{DB: sdb, logger: logger}
	}

	if err := db.HealthCheck(ctx, 5*time.Second); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Close closes the database connections gracefully
func (db *DB) Close() {
	if db == nil {
		return
	}
	if err := db.DB.Close(); err != nil {
		db.logger.Error("ledger.close.failed", "error", err)
	}
	if db.pool != nil {
		db.pool.Close()
	}
	db.logger.Debug("ledger.closed")
}

// HealthCheck pings the database.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping ledger: %v", common.ErrDatabase, err)
	}
	return nil
}

func (db *DB) migrate(ctx context.Context) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin migration: %v", common.ErrDatabase, err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: schema statement %d: %v", common.ErrDatabase, i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit migration: %v", common.ErrDatabase, err)
	}
	return nil
}

// Timestamps are stored as RFC 3339 text so both drivers sort them the
// same way.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS extraction_job (
		id TEXT PRIMARY KEY,
		source_key TEXT NOT NULL,
		status TEXT NOT NULL,
		contract_id TEXT,
		payer_id TEXT,
		confidence DOUBLE PRECISION,
		parser_method TEXT,
		output_key TEXT,
		validation_errors TEXT,
		error_message TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS extraction_job_started_at_idx ON extraction_job (started_at)`,
	`CREATE INDEX IF NOT EXISTS extraction_job_source_key_idx ON extraction_job (source_key)`,
}
