// Copyright (c) 2026 Readstack. All rights reserved.

package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/readstack/readstack/internal/platform/database/schema"
	"github.com/readstack/readstack/internal/platform/dberr"
	"github.com/readstack/readstack/internal/store"
	"github.com/readstack/readstack/pkg/uuid"
)

// BookStore implements [store.BookRepository] on PostgreSQL.
type BookStore struct {
	base[store.Book]
}

// NewBookStore creates a BookStore running its statements through db.
func NewBookStore(db Querier) *BookStore {
	return &BookStore{base: base[store.Book]{
		db:          db,
		table:       schema.Book.Table,
		idColumn:    schema.Book.ID,
		orderColumn: schema.Book.CreatedAt,
		columns:     strings.Join(schema.Book.Columns(), ", "),
		scan:        scanBook,
	}}
}

// scanBook hydrates one book from a row holding schema.Book.Columns().
func scanBook(row pgx.Row) (*store.Book, error) {
	b := &store.Book{}
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Year, &b.Genre, &b.Pages,
		&b.Available, &b.ISBN, &b.Description, &b.Extra,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Create persists a new book and fills ID, CreatedAt, UpdatedAt on it.
func (repository *BookStore) Create(context context.Context, b *store.Book) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING %s, %s
	`,
		schema.Book.Table,
		schema.Book.ID, schema.Book.Title, schema.Book.Author, schema.Book.Year,
		schema.Book.Genre, schema.Book.Pages, schema.Book.Available, schema.Book.ISBN,
		schema.Book.Description, schema.Book.Extra, schema.Book.CreatedAt, schema.Book.UpdatedAt,
		schema.Book.CreatedAt, schema.Book.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		b.ID, b.Title, b.Author, b.Year, b.Genre, b.Pages,
		b.Available, b.ISBN, b.Description, b.Extra,
	).Scan(&b.CreatedAt, &b.UpdatedAt)

	return dberr.Wrap(err, "create_book")
}

// FindByISBN returns the book carrying the given ISBN.
func (repository *BookStore) FindByISBN(context context.Context, isbn string) (*store.Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		repository.columns, schema.Book.Table, schema.Book.ISBN,
	)

	book, err := repository.scan(repository.db.QueryRow(context, query, isbn))
	if err != nil {
		return nil, dberr.Wrap(err, "find_book_by_isbn")
	}
	return book, nil
}

// FindByFilters returns the filtered page, newest first.
func (repository *BookStore) FindByFilters(context context.Context, filter store.BookFilter, limit, offset int) ([]*store.Book, error) {
	where, args := buildBookFilter(filter)

	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s DESC LIMIT $%d OFFSET $%d`,
		repository.columns, schema.Book.Table, where,
		schema.Book.CreatedAt, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "find_books_by_filters")
	}
	defer rows.Close()

	return repository.collect(rows)
}

// CountByFilters counts with the exact predicates FindByFilters applies.
func (repository *BookStore) CountByFilters(context context.Context, filter store.BookFilter) (int, error) {
	where, args := buildBookFilter(filter)

	query := fmt.Sprintf(`SELECT count(*) FROM %s%s`, schema.Book.Table, where)

	var total int
	if err := repository.db.QueryRow(context, query, args...).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "count_books_by_filters")
	}
	return total, nil
}

// Genres returns the distinct genres present in the catalog, sorted.
func (repository *BookStore) Genres(context context.Context) ([]string, error) {
	return repository.distinct(context, schema.Book.Genre, "list_genres")
}

// Authors returns the distinct authors present in the catalog, sorted.
func (repository *BookStore) Authors(context context.Context) ([]string, error) {
	return repository.distinct(context, schema.Book.Author, "list_authors")
}

func (repository *BookStore) distinct(context context.Context, column, action string) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM %s ORDER BY %s`, column, schema.Book.Table, column)

	rows, err := repository.db.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, dberr.Wrap(err, action)
		}
		values = append(values, value)
	}
	return values, dberr.Wrap(rows.Err(), action)
}

// buildBookFilter renders the shared WHERE clause for FindByFilters and
// CountByFilters. Keeping one builder is what guarantees the pair stays
// consistent.
func buildBookFilter(filter store.BookFilter) (string, []any) {
	var conditions []string
	var args []any

	add := func(condition string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.Title != "" {
		add(schema.Book.Title+" ILIKE $%d", "%"+filter.Title+"%")
	}
	if filter.Author != "" {
		add(schema.Book.Author+" ILIKE $%d", "%"+filter.Author+"%")
	}
	if filter.Genre != "" {
		add(schema.Book.Genre+" = $%d", filter.Genre)
	}
	if filter.Year != nil {
		add(schema.Book.Year+" = $%d", *filter.Year)
	}
	if filter.Available != nil {
		add(schema.Book.Available+" = $%d", *filter.Available)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
