// Copyright (c) 2026 Readstack. All rights reserved.

package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/readstack/readstack/internal/store"
)

// Factory opens UnitOfWork scopes on a pgx connection pool.
type Factory struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewFactory creates a [store.Factory] backed by the given pool.
func NewFactory(pool *pgxpool.Pool, logger *slog.Logger) *Factory {
	return &Factory{pool: pool, logger: logger}
}

// Begin opens a transaction and binds one repository per entity kind to it.
func (factory *Factory) Begin(context context.Context) (store.UnitOfWork, error) {
	tx, err := factory.pool.Begin(context)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin transaction: %w", err)
	}

	// All repositories share the one transaction for the scope's lifetime.
	return &UnitOfWork{
		tx:     tx,
		books:  NewBookStore(tx),
		users:  NewUserStore(tx),
		logger: factory.logger,
	}, nil
}

// UnitOfWork implements [store.UnitOfWork] on one pgx transaction.
//
// The transaction is the session: Close releases it, rolling back whatever
// Commit has not made durable. This is the auto-abort discipline — a scope
// that forgets to commit loses its writes instead of leaking them.
type UnitOfWork struct {
	tx     pgx.Tx
	books  *BookStore
	users  *UserStore
	logger *slog.Logger
}

// Books returns the book repository bound to this transaction.
func (uow *UnitOfWork) Books() store.BookRepository { return uow.books }

// Users returns the user repository bound to this transaction.
func (uow *UnitOfWork) Users() store.UserRepository { return uow.users }

// Commit makes every write in the scope durable.
func (uow *UnitOfWork) Commit(context context.Context) error {
	if err := uow.tx.Commit(context); err != nil {
		return fmt.Errorf("postgres: commit transaction: %w", err)
	}
	return nil
}

// Close rolls back anything uncommitted and releases the transaction.
//
// It must run on every exit path — the usual shape is `defer uow.Close(ctx)`
// right after Begin, which also covers panics and cancellation. Calling it
// after Commit is a no-op.
func (uow *UnitOfWork) Close(ctx context.Context) error {
	// Rollback must still reach the database when the request context was
	// cancelled mid-scope, so the cancellation is stripped here.
	err := uow.tx.Rollback(context.WithoutCancel(ctx))
	if err == nil || errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}

	uow.logger.Error("uow_rollback_failed", slog.Any("error", err))
	return fmt.Errorf("postgres: rollback transaction: %w", err)
}
