package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fieldsync/fieldsync/internal/logger"
	"github.com/fieldsync/fieldsync/migrations"
)

// DB wraps the embedded replica connection together with the engine logger.
type DB struct {
	*sql.DB
	logger *logger.Logger
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so that repository helpers
// can run inside or outside an explicit transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Migrate applies all pending schema migrations to the replica database.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB)
}

// WithinTx runs fn inside a single transaction. The transaction is rolled
// back when fn returns an error and committed otherwise. Entity mutations and
// their queue appends go through here so that no reader ever observes one
// without the other.
func (db *DB) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Err(rbErr).Str("func", "DB.WithinTx").Msg("rollback failed")
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}
