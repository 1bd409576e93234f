// Copyright (c) 2026 Readstack. All rights reserved.

package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/readstack/readstack/internal/platform/dberr"
)

// base is the generic CRUD core shared by every entity store.
//
// Per-entity stores embed it and add their own finders. The type parameter
// keeps scanning type-safe without one hand-written CRUD block per table.
type base[T any] struct {
	db Querier

	// table is the fully qualified table name.
	table string
	// idColumn is the primary key column.
	idColumn string
	// orderColumn orders List results (descending).
	orderColumn string
	// columns is the SELECT/RETURNING column list, comma-joined.
	columns string
	// scan hydrates one entity from a row holding exactly `columns`.
	scan func(row pgx.Row) (*T, error)
}

// GetByID returns the entity with the given primary key.
func (store *base[T]) GetByID(context context.Context, id string) (*T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, store.columns, store.table, store.idColumn)

	entity, err := store.scan(store.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_"+store.table)
	}
	return entity, nil
}

// Update applies only the given column/value pairs and bumps updatedat.
//
// Columns are applied in sorted order so the statement text is stable for
// the prepared-statement cache. An empty field map is rejected by the
// services before it ever reaches here.
func (store *base[T]) Update(context context.Context, id string, fields map[string]any) (*T, error) {
	columns := make([]string, 0, len(fields))
	for column := range fields {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	assignments := make([]string, 0, len(columns)+1)
	args := []any{id}
	for _, column := range columns {
		args = append(args, fields[column])
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	assignments = append(assignments, "updatedat = NOW()")

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $1 RETURNING %s`,
		store.table, strings.Join(assignments, ", "), store.idColumn, store.columns,
	)

	entity, err := store.scan(store.db.QueryRow(context, query, args...))
	if err != nil {
		return nil, dberr.Wrap(err, "update_"+store.table)
	}
	return entity, nil
}

// Delete removes the entity. It reports false for an unknown ID.
func (store *base[T]) Delete(context context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, store.table, store.idColumn)

	tag, err := store.db.Exec(context, query, id)
	if err != nil {
		return false, dberr.Wrap(err, "delete_"+store.table)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns a page of entities ordered by the store's order column, newest first.
func (store *base[T]) List(context context.Context, limit, offset int) ([]*T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s DESC LIMIT $1 OFFSET $2`,
		store.columns, store.table, store.orderColumn,
	)

	rows, err := store.db.Query(context, query, limit, offset)
	if err != nil {
		return nil, dberr.Wrap(err, "list_"+store.table)
	}
	defer rows.Close()

	return store.collect(rows)
}

// Count returns the total number of rows in the table.
func (store *base[T]) Count(context context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s`, store.table)

	var total int
	if err := store.db.QueryRow(context, query).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "count_"+store.table)
	}
	return total, nil
}

// collect drains rows through the store's scan function.
func (store *base[T]) collect(rows pgx.Rows) ([]*T, error) {
	var entities []*T
	for rows.Next() {
		entity, err := store.scan(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_"+store.table)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "iterate_"+store.table)
	}
	return entities, nil
}
