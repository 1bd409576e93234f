package catalog

import (
	"context"
	"log/slog"
	"time"
	"unicode"

	"github.com/readstack/readstack/internal/openlibrary"
	"github.com/readstack/readstack/internal/platform/apperr"
	"github.com/readstack/readstack/internal/platform/cache"
	"github.com/readstack/readstack/internal/platform/constants"
	"github.com/readstack/readstack/internal/platform/dberr"
	"github.com/readstack/readstack/internal/platform/validate"
	"github.com/readstack/readstack/internal/store"
	"github.com/readstack/readstack/pkg/pointer"
)

// minYear is the oldest publication year the catalog accepts.
const minYear = 1000

// Enricher resolves external metadata for a book. Satisfied by both the raw
// and the cached Open Library client.
type Enricher interface {
	Enrich(ctx context.Context, title, author, isbn string) (*openlibrary.Metadata, error)
}

type Service struct {
	store    store.Factory
	enricher Enricher
	cache    *cache.Service
	logger   *slog.Logger
}

func NewService(factory store.Factory, enricher Enricher, cacheService *cache.Service, logger *slog.Logger) *Service {
	return &Service{
		store:    factory,
		enricher: enricher,
		cache:    cacheService,
		logger:   logger,
	}
}

// CreateBook adds a book to the catalog, enriching it from Open Library.
//
// Enrichment is best-effort: when the external source fails, the book is
// created without extra metadata and the failure is only logged.
func (service *Service) CreateBook(ctx context.Context, input CreateBookInput) (*BookResponse, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	uow, err := service.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Close(ctx)

	book := &store.Book{
		Title:       input.Title,
		Author:      input.Author,
		Year:        input.Year,
		Genre:       input.Genre,
		Pages:       input.Pages,
		Available:   true,
		Description: input.Description,
	}

	if input.ISBN != nil {
		cleanISBN := openlibrary.NormalizeISBN(*input.ISBN)

		// A successful lookup means the ISBN is taken.
		if _, err := uow.Books().FindByISBN(ctx, cleanISBN); err == nil {
			return nil, apperr.Conflict("Book with this ISBN already exists")
		} else if !dberr.IsNotFound(err) {
			return nil, err
		}

		book.ISBN = &cleanISBN
	}

	metadata, err := service.enricher.Enrich(ctx, book.Title, book.Author, pointer.Val(book.ISBN))
	if err != nil {
		service.logger.Warn("book_enrichment_failed",
			slog.String("title", book.Title), slog.Any("error", err))
	} else if metadata != nil {
		book.Extra = metadata.AsMap()
	}

	if err := uow.Books().Create(ctx, book); err != nil {
		return nil, err
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}

	service.cache.InvalidatePattern(ctx, constants.CachePrefixCatalog+"*")
	service.logger.Info("book_created",
		slog.String("book_id", book.ID), slog.String("title", book.Title))

	return toResponse(book), nil
}

// GetBook returns one book by ID, read-through cached.
func (service *Service) GetBook(ctx context.Context, id string) (*BookResponse, error) {
	key := constants.CachePrefixBook + id

	return cache.GetOrSet(ctx, service.cache, key, 0, func(ctx context.Context) (*BookResponse, error) {
		uow, err := service.store.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer uow.Close(ctx)

		book, err := uow.Books().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return toResponse(book), nil
	})
}

// UpdateBook applies a partial update. An empty patch is a no-op returning
// the current state.
func (service *Service) UpdateBook(ctx context.Context, id string, input UpdateBookInput) (*BookResponse, error) {
	if err := validateUpdate(&input); err != nil {
		return nil, err
	}

	uow, err := service.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Close(ctx)

	fields := input.fields()
	if len(fields) == 0 {
		book, err := uow.Books().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return toResponse(book), nil
	}

	if input.ISBN != nil {
		// The new ISBN may only belong to the book being updated.
		existing, err := uow.Books().FindByISBN(ctx, *input.ISBN)
		if err == nil && existing.ID != id {
			return nil, apperr.Conflict("Book with this ISBN already exists")
		} else if err != nil && !dberr.IsNotFound(err) {
			return nil, err
		}
	}

	book, err := uow.Books().Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}

	service.cache.Invalidate(ctx, constants.CachePrefixBook+id)
	service.cache.InvalidatePattern(ctx, constants.CachePrefixCatalog+"*")
	service.logger.Info("book_updated", slog.String("book_id", id))

	return toResponse(book), nil
}

// DeleteBook removes a book from the catalog.
func (service *Service) DeleteBook(ctx context.Context, id string) error {
	uow, err := service.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Close(ctx)

	deleted, err := uow.Books().Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound("Book")
	}

	if err := uow.Commit(ctx); err != nil {
		return err
	}

	service.cache.Invalidate(ctx, constants.CachePrefixBook+id)
	service.cache.InvalidatePattern(ctx, constants.CachePrefixCatalog+"*")
	service.logger.Warn("book_deleted", slog.String("book_id", id))

	return nil
}

// SearchBooks returns the filtered page and the total count of matches.
// Both run against the same snapshot so the pair stays consistent.
func (service *Service) SearchBooks(ctx context.Context, filter Filter, limit, offset int) ([]*BookResponse, int, error) {
	uow, err := service.store.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer uow.Close(ctx)

	books, err := uow.Books().FindByFilters(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := uow.Books().CountByFilters(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return toResponses(books), total, nil
}

// Genres returns the distinct genres in the catalog, cached until the next write.
func (service *Service) Genres(ctx context.Context) ([]string, error) {
	return service.distinct(ctx, constants.CacheKeyGenres, store.BookRepository.Genres)
}

// Authors returns the distinct authors in the catalog, cached until the next write.
func (service *Service) Authors(ctx context.Context) ([]string, error) {
	return service.distinct(ctx, constants.CacheKeyAuthors, store.BookRepository.Authors)
}

func (service *Service) distinct(ctx context.Context, key string, load func(store.BookRepository, context.Context) ([]string, error)) ([]string, error) {
	return cache.GetOrSet(ctx, service.cache, key, 0, func(ctx context.Context) ([]string, error) {
		uow, err := service.store.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer uow.Close(ctx)

		return load(uow.Books(), ctx)
	})
}

// # Validation

func validateCreate(input CreateBookInput) error {
	validator := &validate.Validator{}

	validator.Required(FieldTitle, input.Title).MaxLen(FieldTitle, input.Title, 500)
	validator.Required(FieldAuthor, input.Author).MaxLen(FieldAuthor, input.Author, 300)
	validator.Required(FieldGenre, input.Genre).MaxLen(FieldGenre, input.Genre, 100)
	validator.Range(FieldYear, input.Year, minYear, time.Now().Year())
	validator.Custom(FieldPages, input.Pages <= 0, "Must be greater than zero")

	if input.ISBN != nil {
		validator.Custom(FieldISBN, !validISBN(*input.ISBN), "Must be 10 or 13 digits")
	}
	if input.Description != nil {
		validator.MaxLen(FieldDescription, *input.Description, 5000)
	}

	return validator.Err()
}

func validateUpdate(input *UpdateBookInput) error {
	validator := &validate.Validator{}

	if input.Title != nil {
		validator.Required(FieldTitle, *input.Title).MaxLen(FieldTitle, *input.Title, 500)
	}
	if input.Author != nil {
		validator.Required(FieldAuthor, *input.Author).MaxLen(FieldAuthor, *input.Author, 300)
	}
	if input.Genre != nil {
		validator.Required(FieldGenre, *input.Genre).MaxLen(FieldGenre, *input.Genre, 100)
	}
	if input.Year != nil {
		validator.Range(FieldYear, *input.Year, minYear, time.Now().Year())
	}
	if input.Pages != nil {
		validator.Custom(FieldPages, *input.Pages <= 0, "Must be greater than zero")
	}
	if input.ISBN != nil {
		cleanISBN := openlibrary.NormalizeISBN(*input.ISBN)
		validator.Custom(FieldISBN, !validISBN(cleanISBN), "Must be 10 or 13 digits")
		input.ISBN = &cleanISBN
	}
	if input.Description != nil {
		validator.MaxLen(FieldDescription, *input.Description, 5000)
	}

	return validator.Err()
}

// validISBN accepts a normalized ISBN-10 or ISBN-13. An ISBN-10 may end
// with the 'X' check character.
func validISBN(isbn string) bool {
	clean := openlibrary.NormalizeISBN(isbn)
	if len(clean) != 10 && len(clean) != 13 {
		return false
	}

	for position, character := range clean {
		if unicode.IsDigit(character) {
			continue
		}
		isCheckChar := (character == 'X' || character == 'x') && len(clean) == 10 && position == 9
		if !isCheckChar {
			return false
		}
	}
	return true
}
