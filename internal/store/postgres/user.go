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

// UserStore implements [store.UserRepository] on PostgreSQL.
type UserStore struct {
	base[store.User]
}

// NewUserStore creates a UserStore running its statements through db.
func NewUserStore(db Querier) *UserStore {
	return &UserStore{base: base[store.User]{
		db:          db,
		table:       schema.UserAccount.Table,
		idColumn:    schema.UserAccount.ID,
		orderColumn: schema.UserAccount.CreatedAt,
		columns:     strings.Join(schema.UserAccount.Columns(), ", "),
		scan:        scanUser,
	}}
}

// scanUser hydrates one account from a row holding schema.UserAccount.Columns().
func scanUser(row pgx.Row) (*store.User, error) {
	u := &store.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create persists a new account and fills ID, CreatedAt, UpdatedAt on it.
func (repository *UserStore) Create(context context.Context, u *store.User) error {
	if u.ID == "" {
		u.ID = uuid.New()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING %s, %s
	`,
		schema.UserAccount.Table,
		schema.UserAccount.ID, schema.UserAccount.Email, schema.UserAccount.Username,
		schema.UserAccount.Password, schema.UserAccount.Role, schema.UserAccount.IsActive,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		u.ID, u.Email, u.Username, u.PasswordHash, u.Role, u.IsActive,
	).Scan(&u.CreatedAt, &u.UpdatedAt)

	return dberr.Wrap(err, "create_user")
}

// FindByEmail returns the account with the given email.
func (repository *UserStore) FindByEmail(context context.Context, email string) (*store.User, error) {
	return repository.findBy(context, schema.UserAccount.Email, email, "find_user_by_email")
}

// FindByUsername returns the account with the given username.
func (repository *UserStore) FindByUsername(context context.Context, username string) (*store.User, error) {
	return repository.findBy(context, schema.UserAccount.Username, username, "find_user_by_username")
}

func (repository *UserStore) findBy(context context.Context, column, value, action string) (*store.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		repository.columns, schema.UserAccount.Table, column,
	)

	user, err := repository.scan(repository.db.QueryRow(context, query, value))
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	return user, nil
}
