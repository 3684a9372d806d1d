package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/niksmo/foodex/pkg/retry"
)

const (
	pingAttempts = 5
	pingDelay    = 500 * time.Millisecond
	pingMaxDelay = 5 * time.Second
)

type sqldb interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PingContext(ctx context.Context) error
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLDB struct {
	*sql.DB
}

// NewSQLDB opens the PostgreSQL database and waits until it answers pings.
func NewSQLDB(ctx context.Context, dsn string) (SQLDB, error) {
	const op = "NewSQLDB"
	log := slog.With("op", op)

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return SQLDB{}, fmt.Errorf("%s: invalid dsn: %w", op, err)
	}
	connStr := stdlib.RegisterConnConfig(connConfig)
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return SQLDB{}, fmt.Errorf("%s: %w", op, err)
	}

	s := SQLDB{db}
	err = retry.Do(ctx, retry.Config{
		MaxAttempts: pingAttempts,
		Backoff:     retry.ExponentialBackoff(pingDelay, pingMaxDelay),
		ShouldRetry: func(err error) bool {
			return !errors.Is(err, context.Canceled)
		},
	}, func() error {
		err := s.PingContext(ctx)
		if err != nil {
			log.Warn("database ping failed", "err", err)
		}
		return err
	})
	if err != nil {
		_ = db.Close()
		return SQLDB{}, fmt.Errorf("%s: database is unavailable: %w", op, err)
	}
	log.Info("database is available")
	return s, nil
}

func (s SQLDB) Close() {
	const op = "SQLDB.Close"
	log := slog.With("op", op)

	log.Info("closing sql database...")

	if err := s.DB.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("sql database is closed")
}

// finishTx commits the transaction when *errp is nil and rolls it back otherwise.
func finishTx(tx *sql.Tx, op string, log *slog.Logger, errp *error) {
	if *errp == nil {
		if err := tx.Commit(); err != nil {
			*errp = fmt.Errorf("%s: failed to commit: %w", op, err)
		}
		return
	}

	if err := tx.Rollback(); err != nil {
		log.Error("failed to rollback tx", "err", err)
	}
}
