// Copyright (c) 2026 Readstack. All rights reserved.

/*
Package postgres implements the store contracts on PostgreSQL via pgx.

It provides a generic base repository shared by the per-entity stores and a
pgx-transaction UnitOfWork. Every repository here runs its statements through
a [Querier], which both *pgxpool.Pool and pgx.Tx satisfy — the same store
code serves ad-hoc reads off the pool and transactional writes inside a
UnitOfWork scope.
*/
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx used by the repositories.
//
// *pgxpool.Pool and pgx.Tx both implement it, which is what lets one
// repository implementation work inside and outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
