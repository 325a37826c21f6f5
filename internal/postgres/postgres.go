package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/coupon-service/internal/config"
	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// IClient defines the transaction boundary services run mutations in
type IClient interface {
	// WithTx wraps the given function in a transaction
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DB wraps sqlx.DB to provide transaction management
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// Querier interface defines all database operations
// Both *sqlx.DB and *sqlx.Tx implement these methods
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	Rebind(query string) string
}

// NewDB opens the connection pool, retrying with exponential backoff until the
// database answers or the configured connect timeout elapses.
func NewDB(cfg *config.Configuration, logger *logger.Logger) (*DB, error) {
	var db *sqlx.DB

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.Postgres.ConnectTimeout

	connect := func() error {
		var err error
		db, err = sqlx.Connect("postgres", cfg.Postgres.GetDSN())
		if err != nil {
			logger.Warnw("postgres not reachable, retrying",
				"host", cfg.Postgres.Host,
				"port", cfg.Postgres.Port,
				"error", err,
			)
		}
		return err
	}

	if err := backoff.Retry(connect, bo); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to connect to the database").
			Mark(ierr.ErrDatabase)
	}

	if cfg.Postgres.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	}
	if cfg.Postgres.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	}
	if cfg.Postgres.ConnMaxLifetimeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)
	}

	logger.Infow("connected to postgres",
		"host", cfg.Postgres.Host,
		"dbname", cfg.Postgres.DBName,
	)

	return NewFromSQLX(db, logger), nil
}

// NewFromSQLX wraps an already opened connection pool
func NewFromSQLX(db *sqlx.DB, logger *logger.Logger) *DB {
	return &DB{DB: db, logger: logger}
}

// Close closes the database connection
func (db *DB) Close() {
	if err := db.DB.Close(); err != nil {
		db.logger.Errorw("error closing database", "error", err)
	}
}

// GetQuerier returns either the transaction from context or the base DB
func (db *DB) GetQuerier(ctx context.Context) Querier {
	if tx, ok := GetTx(ctx); ok {
		return NewTracedQuerier(tx.Tx, db.logger, tx.ID)
	}
	return NewTracedQuerier(db.DB, db.logger, "")
}

// Ping checks that the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return ierr.WithError(err).
			WithHint("Database is unreachable").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
