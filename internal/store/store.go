// Copyright (c) 2026 Readstack. All rights reserved.

/*
Package store defines the persistence contracts of the catalog platform.

It contains the domain entities (Book, User) and the interfaces through which
every other layer reaches durable state: per-entity repositories and the
transactional Unit of Work that binds them.

Architecture:

  - Entities: plain structs, no storage concerns, JSON-tagged for transport.
  - Repositories: CRUD plus entity-specific finders. They NEVER commit.
  - UnitOfWork: the single commit point. All repositories obtained from one
    UnitOfWork share one transaction; either every write in the scope becomes
    durable together, or none does.

Concrete implementations live in the store/postgres subpackage.
*/
package store

import (
	"context"
	"time"
)

// # Entities

// Book represents one entry in the library catalog.
type Book struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Author      string         `json:"author"`
	Year        int            `json:"year"`
	Genre       string         `json:"genre"`
	Pages       int            `json:"pages"`
	Available   bool           `json:"available"`
	ISBN        *string        `json:"isbn,omitempty"`
	Description *string        `json:"description,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"` // opaque enrichment payload
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// User represents a registered account.
//
// Accounts are never deleted; deactivation flips IsActive instead.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// # Search Filters

// BookFilter holds the optional predicates for a catalog search.
//
// Nil/empty fields are skipped; supplied fields combine with AND.
// Title and Author match as case-insensitive substrings; Genre, Year and
// Available match exactly.
type BookFilter struct {
	Title     string
	Author    string
	Genre     string
	Year      *int
	Available *bool
}

// # Repository Contracts

// BookRepository defines the data access contract for catalog entries.
//
// Every method participates in the transaction of the UnitOfWork that
// produced the repository. Writes are not durable until the UnitOfWork
// commits.
type BookRepository interface {
	// Create persists a new book. The implementation fills ID, CreatedAt
	// and UpdatedAt on the passed entity.
	Create(context context.Context, book *Book) error

	// GetByID returns the book with the given ID, or a NOT_FOUND error.
	GetByID(context context.Context, id string) (*Book, error)

	// Update applies only the given column/value pairs and bumps UpdatedAt.
	// It returns the updated entity, or a NOT_FOUND error for an unknown ID.
	Update(context context.Context, id string, fields map[string]any) (*Book, error)

	// Delete removes the book. It reports false for an unknown ID.
	Delete(context context.Context, id string) (bool, error)

	// List returns books ordered by creation time descending.
	List(context context.Context, limit, offset int) ([]*Book, error)

	// Count returns the total number of books.
	Count(context context.Context) (int, error)

	// FindByISBN returns the book carrying the given (normalized) ISBN,
	// or a NOT_FOUND error.
	FindByISBN(context context.Context, isbn string) (*Book, error)

	// FindByFilters returns the filtered page, newest first.
	FindByFilters(context context.Context, filter BookFilter, limit, offset int) ([]*Book, error)

	// CountByFilters counts with the exact same predicates FindByFilters
	// applies, so the pair always agrees.
	CountByFilters(context context.Context, filter BookFilter) (int, error)

	// Genres returns the distinct genres present in the catalog, sorted.
	Genres(context context.Context) ([]string, error)

	// Authors returns the distinct authors present in the catalog, sorted.
	Authors(context context.Context) ([]string, error)
}

// UserRepository defines the data access contract for accounts.
type UserRepository interface {
	// Create persists a new account. The implementation fills ID,
	// CreatedAt and UpdatedAt on the passed entity.
	Create(context context.Context, user *User) error

	// GetByID returns the account with the given ID, or a NOT_FOUND error.
	GetByID(context context.Context, id string) (*User, error)

	// FindByEmail returns the account with the given email, or a NOT_FOUND error.
	FindByEmail(context context.Context, email string) (*User, error)

	// FindByUsername returns the account with the given username, or a NOT_FOUND error.
	FindByUsername(context context.Context, username string) (*User, error)
}

// # Unit of Work

// UnitOfWork scopes a set of repository operations to one transaction.
//
// # Discipline
//
// Exactly one commit path exists: Commit on the UnitOfWork. A scope that
// exits without committing is rolled back by Close — uncommitted work
// auto-aborts, it never silently persists. The idiomatic shape is:
//
//	uow, err := factory.Begin(ctx)
//	if err != nil { ... }
//	defer uow.Close(ctx)
//
//	// repository calls ...
//
//	return uow.Commit(ctx)
//
// Close must run on every exit path, including panics and context
// cancellation, so the underlying session is always released.
type UnitOfWork interface {
	// Books returns the book repository bound to this transaction.
	Books() BookRepository

	// Users returns the user repository bound to this transaction.
	Users() UserRepository

	// Commit makes every write in the scope durable.
	Commit(context context.Context) error

	// Close releases the underlying session, rolling back anything
	// not yet committed. Safe to call after Commit.
	Close(context context.Context) error
}

// Factory opens new UnitOfWork scopes.
type Factory interface {
	Begin(context context.Context) (UnitOfWork, error)
}
